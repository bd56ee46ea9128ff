package explorer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/3Eeeecho/go-filebox/internal/config"
	"github.com/3Eeeecho/go-filebox/internal/models"
	"github.com/3Eeeecho/go-filebox/internal/pkg/cache"
	"github.com/3Eeeecho/go-filebox/internal/pkg/logger"
	"github.com/3Eeeecho/go-filebox/internal/pkg/storage"
	"github.com/3Eeeecho/go-filebox/internal/pkg/utils"
	"github.com/3Eeeecho/go-filebox/internal/pkg/xerr"
	"go.uber.org/zap"
)

const (
	fileListCacheKey = "filebox:files"
	fileListCacheTTL = 30 * time.Second
)

// FileService 定义了文件管理服务需要实现的接口
type FileService interface {
	// ListFiles 列出上传目录中的所有文件，按修改时间倒序
	ListFiles(ctx context.Context) ([]models.FileInfo, error)
	// Upload 处理一次完整的上传：准入检查、选择写入策略、落盘、返回元数据。
	// declaredSize 为客户端声明的文件字节数，未知时传 -1（此时强制走流式写入）
	Upload(ctx context.Context, originalName string, declaredSize int64, r io.Reader) (*models.FileInfo, error)
	// Download 返回文件元数据和内容读取器
	Download(ctx context.Context, name string) (*models.FileInfo, io.ReadCloser, error)
	// Delete 删除一个已上传的文件
	Delete(ctx context.Context, name string) error
	// StorageInfo 返回磁盘使用情况和准入相关的配置信息
	StorageInfo(ctx context.Context) (*models.StorageInfo, error)
}

// fileService 是 FileService 接口的具体实现
type fileService struct {
	engine  *storage.LocalStorage
	checker *storage.AdmissionChecker
	cache   *cache.RedisCache // 可选，nil 表示未启用缓存
	cfg     *config.Config
}

// NewFileService 创建一个新的 FileService 实例
func NewFileService(engine *storage.LocalStorage, checker *storage.AdmissionChecker, cacheService *cache.RedisCache, cfg *config.Config) FileService {
	return &fileService{
		engine:  engine,
		checker: checker,
		cache:   cacheService,
		cfg:     cfg,
	}
}

// ListFiles 列出所有文件，优先走缓存
func (s *fileService) ListFiles(ctx context.Context) ([]models.FileInfo, error) {
	if s.cache != nil {
		var cached []models.FileInfo
		if err := s.cache.Get(ctx, fileListCacheKey, &cached); err == nil {
			return cached, nil
		} else if err != cache.ErrCacheMiss {
			logger.Warn("ListFiles: 读取文件列表缓存失败，回退到磁盘", zap.Error(err))
		}
	}

	files, err := s.engine.List()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}

	// 按修改时间倒序，最新的排在最前
	sort.Slice(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})

	if s.cache != nil {
		if err := s.cache.Set(ctx, fileListCacheKey, files, fileListCacheTTL); err != nil {
			logger.Warn("ListFiles: 写入文件列表缓存失败", zap.Error(err))
		}
	}
	return files, nil
}

// Upload 处理一次上传。策略选择只是资源优化：
// 两条路径在成功时产生完全相同的文件和元数据。
func (s *fileService) Upload(ctx context.Context, originalName string, declaredSize int64, r io.Reader) (*models.FileInfo, error) {
	// 1. 文件名校验
	if originalName == "" {
		return nil, fmt.Errorf("%w: 未提供文件名", xerr.ErrInvalidParams)
	}
	sanitized := utils.SanitizeFileName(originalName)
	if sanitized == "" {
		return nil, fmt.Errorf("%w: %q", xerr.ErrFileNameInvalid, originalName)
	}

	sizeKnown := declaredSize >= 0

	// 2. 大小上限，提前用声明的长度拦截
	maxSize := s.cfg.Storage.MaxFileSize
	if sizeKnown && declaredSize > maxSize {
		return nil, fmt.Errorf("%w，最大允许 %s", xerr.ErrFileTooLarge,
			utils.FormatFileSize(uint64(maxSize)))
	}

	// 3. 存储准入检查，失败时不产生任何副作用。
	// 大小未知时仍然检查安全水位本身
	admissionSize := declaredSize
	if !sizeKnown {
		admissionSize = 0
	}
	if ok, reason := s.checker.CheckStorageSpace(admissionSize); !ok {
		return nil, fmt.Errorf("%w: %s", xerr.ErrInsufficientStorage, reason)
	}

	// 4. 内存启发式决定写入策略。大小未知时无法做内存预算，强制流式
	useBuffered := false
	if sizeKnown {
		var reason string
		useBuffered, reason = s.checker.CheckMemoryForUpload(declaredSize)
		if !useBuffered {
			logger.Info("Upload: 选择流式写入", zap.String("file", sanitized), zap.String("reason", reason))
		}
	}

	// 防御声明长度不可信的情况：超过上限一个字节即可判定超限
	limited := io.LimitReader(r, maxSize+1)

	var finalName string
	var written int64
	var err error
	if useBuffered {
		var data []byte
		data, err = io.ReadAll(limited)
		if err != nil {
			return nil, fmt.Errorf("%w: 读取上传内容失败: %v", xerr.ErrStorageError, err)
		}
		if int64(len(data)) > maxSize {
			return nil, fmt.Errorf("%w，最大允许 %s", xerr.ErrFileTooLarge,
				utils.FormatFileSize(uint64(maxSize)))
		}
		finalName, written, err = s.engine.SaveBuffered(data, sanitized)
	} else {
		finalName, written, err = s.engine.StreamToDisk(ctx, limited, sanitized)
	}
	if err != nil {
		// 写入路径内部已经清理了半成品文件
		return nil, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}

	if written > maxSize {
		s.discard(finalName)
		return nil, fmt.Errorf("%w，最大允许 %s", xerr.ErrFileTooLarge,
			utils.FormatFileSize(uint64(maxSize)))
	}

	// 5. 声明了长度时写入字节数必须一致，不一致说明流被截断
	if sizeKnown && written != declaredSize {
		s.discard(finalName)
		return nil, fmt.Errorf("%w: 上传不完整，声明 %d 字节，实际写入 %d 字节",
			xerr.ErrStorageError, declaredSize, written)
	}

	info, err := s.engine.Stat(finalName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}

	s.invalidateListCache(ctx)
	logger.Info("Upload: 文件上传成功",
		zap.String("file", finalName),
		zap.Int64("size", written),
		zap.Bool("buffered", useBuffered))
	return info, nil
}

// discard 删除校验失败的完整写入结果
func (s *fileService) discard(name string) {
	if err := s.engine.Remove(name); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		logger.Error("Upload: 清理校验失败的文件时出错", zap.String("file", name), zap.Error(err))
	}
}

// Download 返回文件元数据和内容读取器，调用方负责关闭
func (s *fileService) Download(ctx context.Context, name string) (*models.FileInfo, io.ReadCloser, error) {
	sanitized := utils.SanitizeFileName(name)
	if sanitized == "" {
		return nil, nil, fmt.Errorf("%w: %q", xerr.ErrFileNameInvalid, name)
	}

	info, err := s.engine.Stat(sanitized)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, xerr.ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}

	f, err := s.engine.Open(sanitized)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, xerr.ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}
	return info, f, nil
}

// Delete 删除文件
func (s *fileService) Delete(ctx context.Context, name string) error {
	sanitized := utils.SanitizeFileName(name)
	if sanitized == "" {
		return fmt.Errorf("%w: %q", xerr.ErrFileNameInvalid, name)
	}

	if err := s.engine.Remove(sanitized); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return xerr.ErrFileNotFound
		}
		return fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}

	s.invalidateListCache(ctx)
	logger.Info("Delete: 文件删除成功", zap.String("file", sanitized))
	return nil
}

// StorageInfo 汇总磁盘使用情况、文件统计和内存信息
func (s *fileService) StorageInfo(ctx context.Context) (*models.StorageInfo, error) {
	used, count, err := s.engine.UsedSpace()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}

	usage, err := s.checker.Usage()
	if err != nil {
		return nil, fmt.Errorf("%w: 磁盘探测失败: %v", xerr.ErrStorageError, err)
	}

	info := &models.StorageInfo{
		UsedSpace:            used,
		UsedSpaceFormatted:   utils.FormatFileSize(uint64(used)),
		TotalSpace:           usage.Total,
		TotalSpaceFormatted:  utils.FormatFileSize(usage.Total),
		FreeSpace:            usage.Free,
		FreeSpaceFormatted:   utils.FormatFileSize(usage.Free),
		FileCount:            count,
		MaxFileSize:          s.cfg.Storage.MaxFileSize,
		MaxFileSizeFormatted: utils.FormatFileSize(uint64(s.cfg.Storage.MaxFileSize)),
	}
	// 内存信息仅用于低内存服务器上的监控，探测失败时省略
	if mb, ok := s.checker.AvailableMemoryMB(); ok {
		info.AvailableMemoryMB = mb
	}
	return info, nil
}

func (s *fileService) invalidateListCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, fileListCacheKey); err != nil {
		logger.Warn("清除文件列表缓存失败", zap.Error(err))
	}
}
