package share

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/3Eeeecho/go-filebox/internal/config"
	"github.com/3Eeeecho/go-filebox/internal/models"
	"github.com/3Eeeecho/go-filebox/internal/pkg/logger"
	"github.com/3Eeeecho/go-filebox/internal/pkg/storage"
	"github.com/3Eeeecho/go-filebox/internal/pkg/utils"
	"github.com/3Eeeecho/go-filebox/internal/pkg/xerr"
	"github.com/3Eeeecho/go-filebox/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// 生成分享ID时允许的最大重试次数，超过后放弃并报内部错误，
// 避免在随机数退化时无限循环
const maxIDAttempts = 5

// ShareService 定义了文件分享服务需要实现的接口
type ShareService interface {
	// CreateShare 为已存在的文件创建分享链接，可设置密码、有效期和下载次数上限
	CreateShare(ctx context.Context, fileName string, password *string, expiresInMinutes *int, maxDownloads *int64) (*models.Share, error)
	// Validate 计算分享链接当前的有效性，不产生任何副作用
	Validate(ctx context.Context, shareUUID string) (models.ShareState, *models.Share, error)
	// GetShareDetails 返回分享摘要和被分享文件的元数据，供落地页展示
	GetShareDetails(ctx context.Context, shareUUID string) (*models.ShareSummary, *models.FileInfo, error)
	// Consume 校验密码、原子地占用一次下载额度并返回文件内容读取器
	Consume(ctx context.Context, shareUUID string, providedPassword *string) (*models.FileInfo, io.ReadCloser, error)
	// ListSharesForFile 列出指定文件当前有效的分享链接，按创建时间倒序
	ListSharesForFile(ctx context.Context, fileName string) ([]models.ShareSummary, error)
	// DeleteShare 删除分享链接，对不存在的ID幂等成功
	DeleteShare(ctx context.Context, shareUUID string) error
}

// shareService 是 ShareService 接口的具体实现
type shareService struct {
	shareRepo repositories.ShareRepository // 分享数据仓库，用于数据库操作
	engine    *storage.LocalStorage        // 本地存储引擎，用于确认文件存在和读取内容
	cfg       *config.Config
}

// NewShareService 创建一个新的 ShareService 实例
func NewShareService(shareRepo repositories.ShareRepository, engine *storage.LocalStorage, cfg *config.Config) ShareService {
	return &shareService{
		shareRepo: shareRepo,
		engine:    engine,
		cfg:       cfg,
	}
}

// CreateShare 处理创建文件分享链接的业务逻辑
func (s *shareService) CreateShare(ctx context.Context, fileName string, password *string, expiresInMinutes *int, maxDownloads *int64) (*models.Share, error) {
	// 1. 校验文件名并确认文件确实存在，不为不存在的文件创建分享
	sanitized := utils.SanitizeFileName(fileName)
	if sanitized == "" {
		return nil, fmt.Errorf("%w: %q", xerr.ErrFileNameInvalid, fileName)
	}
	if !s.engine.Exists(sanitized) {
		return nil, fmt.Errorf("%w: %s", xerr.ErrFileNotFound, sanitized)
	}

	newShare := &models.Share{
		FileName: sanitized,
	}

	// 2. 如果设置了密码，对密码进行哈希处理
	if password != nil && *password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("CreateShare: 密码哈希失败", zap.Error(err))
			return nil, fmt.Errorf("%w: 密码处理失败: %v", xerr.ErrInternalServer, err)
		}
		hashedPassStr := string(hashedPassword)
		newShare.Password = &hashedPassStr
	}

	// 3. 如果设置了有效期，计算绝对过期时间点
	if expiresInMinutes != nil {
		if *expiresInMinutes <= 0 {
			return nil, fmt.Errorf("%w: 有效期必须为正数", xerr.ErrInvalidParams)
		}
		expiresAt := time.Now().Add(time.Duration(*expiresInMinutes) * time.Minute)
		newShare.ExpiresAt = &expiresAt
	}

	// 4. 下载次数上限
	if maxDownloads != nil {
		if *maxDownloads <= 0 {
			return nil, fmt.Errorf("%w: 下载次数上限必须为正数", xerr.ErrInvalidParams)
		}
		newShare.MaxDownloads = maxDownloads
	}

	// 5. 生成唯一分享ID。碰撞概率趋近于零，但仍用有界循环处理
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := uuid.New().String()
		existing, err := s.shareRepo.FindByUUID(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", xerr.ErrDatabaseError, err)
		}
		if existing != nil {
			logger.Warn("CreateShare: 分享ID碰撞，重新生成", zap.String("uuid", id), zap.Int("attempt", attempt+1))
			continue
		}

		newShare.UUID = id
		if err := s.shareRepo.Create(newShare); err != nil {
			logger.Error("CreateShare: 创建分享链接记录失败", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", xerr.ErrDatabaseError, err)
		}

		logger.Info("CreateShare: 分享链接创建成功",
			zap.String("shareUUID", newShare.UUID),
			zap.String("fileName", sanitized))
		return newShare, nil
	}

	return nil, fmt.Errorf("%w: 无法生成唯一的分享ID", xerr.ErrInternalServer)
}

// Validate 是当前时间和记录状态的纯函数，不修改任何状态
func (s *shareService) Validate(ctx context.Context, shareUUID string) (models.ShareState, *models.Share, error) {
	share, err := s.shareRepo.FindByUUID(shareUUID)
	if err != nil {
		return models.ShareStateNotFound, nil, fmt.Errorf("%w: %v", xerr.ErrDatabaseError, err)
	}
	if share == nil {
		return models.ShareStateNotFound, nil, nil
	}
	return share.StateAt(time.Now()), share, nil
}

// stateErr 把失效状态映射为对应的业务错误
func stateErr(state models.ShareState) error {
	switch state {
	case models.ShareStateNotFound:
		return xerr.ErrShareNotFound
	case models.ShareStateExpired:
		return xerr.ErrShareExpired
	case models.ShareStateExhausted:
		return xerr.ErrShareExhausted
	default:
		return nil
	}
}

// GetShareDetails 供落地页使用：返回分享摘要和文件元数据，不校验密码也不消耗下载次数
func (s *shareService) GetShareDetails(ctx context.Context, shareUUID string) (*models.ShareSummary, *models.FileInfo, error) {
	state, share, err := s.Validate(ctx, shareUUID)
	if err != nil {
		return nil, nil, err
	}
	if err := stateErr(state); err != nil {
		return nil, nil, err
	}

	info, err := s.engine.Stat(share.FileName)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			// 悬空引用：分享记录还在，文件已被删除
			logger.Warn("GetShareDetails: 分享指向的文件已不存在",
				zap.String("shareUUID", shareUUID), zap.String("fileName", share.FileName))
			return nil, nil, xerr.ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}

	summary := share.Summary()
	return &summary, info, nil
}

// Consume 处理一次分享下载。
// 下载计数的自增在数据库内带守卫条件执行，两个并发请求不可能都挤过 max_downloads 检查。
func (s *shareService) Consume(ctx context.Context, shareUUID string, providedPassword *string) (*models.FileInfo, io.ReadCloser, error) {
	state, share, err := s.Validate(ctx, shareUUID)
	if err != nil {
		return nil, nil, err
	}
	if err := stateErr(state); err != nil {
		return nil, nil, err
	}

	// 1. 密码校验
	if share.HasPassword() {
		if providedPassword == nil || *providedPassword == "" {
			return nil, nil, xerr.ErrSharePasswordRequired
		}
		if err := bcrypt.CompareHashAndPassword([]byte(*share.Password), []byte(*providedPassword)); err != nil {
			return nil, nil, xerr.ErrSharePasswordIncorrect
		}
	}

	// 2. 先打开文件再占用下载额度，避免悬空引用白白消耗一次下载
	info, err := s.engine.Stat(share.FileName)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			logger.Warn("Consume: 分享指向的文件已不存在",
				zap.String("shareUUID", shareUUID), zap.String("fileName", share.FileName))
			return nil, nil, xerr.ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}
	reader, err := s.engine.Open(share.FileName)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, xerr.ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}

	// 3. 原子的检查并自增。失败说明并发请求抢先耗尽了额度或链接刚好过期
	ok, err := s.shareRepo.IncrementDownloadCount(shareUUID, time.Now())
	if err != nil {
		reader.Close()
		return nil, nil, fmt.Errorf("%w: %v", xerr.ErrDatabaseError, err)
	}
	if !ok {
		reader.Close()
		state, _, verr := s.Validate(ctx, shareUUID)
		if verr != nil {
			return nil, nil, verr
		}
		if err := stateErr(state); err != nil {
			return nil, nil, err
		}
		// 守卫更新失败但状态读出来仍有效，只能归为并发竞争下的瞬时情况
		return nil, nil, xerr.ErrShareExhausted
	}

	logger.Info("Consume: 分享下载成功",
		zap.String("shareUUID", shareUUID),
		zap.String("fileName", share.FileName))
	return info, reader, nil
}

// ListSharesForFile 返回指定文件当前仍然有效的分享链接
func (s *shareService) ListSharesForFile(ctx context.Context, fileName string) ([]models.ShareSummary, error) {
	sanitized := utils.SanitizeFileName(fileName)
	if sanitized == "" {
		return nil, fmt.Errorf("%w: %q", xerr.ErrFileNameInvalid, fileName)
	}

	shares, err := s.shareRepo.FindAllByFileName(sanitized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerr.ErrDatabaseError, err)
	}

	now := time.Now()
	summaries := make([]models.ShareSummary, 0, len(shares))
	for i := range shares {
		if shares[i].StateAt(now) != models.ShareStateValid {
			continue // 过期或次数用完的记录在显式删除前仍然存在，但不对外展示
		}
		summaries = append(summaries, shares[i].Summary())
	}
	return summaries, nil
}

// DeleteShare 删除分享链接。删除不存在的ID视为成功，保持删除操作的幂等性
func (s *shareService) DeleteShare(ctx context.Context, shareUUID string) error {
	deleted, err := s.shareRepo.Delete(shareUUID)
	if err != nil {
		return fmt.Errorf("%w: %v", xerr.ErrDatabaseError, err)
	}
	if !deleted {
		logger.Debug("DeleteShare: 分享链接不存在，按幂等成功处理", zap.String("shareUUID", shareUUID))
		return nil
	}
	logger.Info("DeleteShare: 分享链接删除成功", zap.String("shareUUID", shareUUID))
	return nil
}
