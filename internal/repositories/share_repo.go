package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-filebox/internal/models"
	"gorm.io/gorm"
)

type ShareRepository interface {
	Create(share *models.Share) error
	FindByUUID(uuid string) (*models.Share, error)
	FindAllByFileName(fileName string) ([]models.Share, error)
	// IncrementDownloadCount 原子地检查有效性并自增下载计数，
	// 返回是否成功（false 表示记录不存在、已过期或次数已用完）
	IncrementDownloadCount(uuid string, now time.Time) (bool, error)
	// Delete 按 uuid 删除记录，返回是否确实删除了一行
	Delete(uuid string) (bool, error)
}

type shareRepository struct {
	db *gorm.DB
}

// NewShareRepository 创建新的shareRepository实例
func NewShareRepository(db *gorm.DB) ShareRepository {
	return &shareRepository{db: db}
}

// 创建新的数据库记录
func (r *shareRepository) Create(share *models.Share) error {
	return r.db.Create(share).Error
}

// 根据uuid查找记录
func (r *shareRepository) FindByUUID(uuid string) (*models.Share, error) {
	var share models.Share
	err := r.db.Where("uuid = ?", uuid).First(&share).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil, nil if not found
		}
		return nil, fmt.Errorf("查询分享链接失败: %w", err)
	}
	return &share, nil
}

// 查找指定文件的所有分享记录，按创建时间倒序
func (r *shareRepository) FindAllByFileName(fileName string) ([]models.Share, error) {
	var shares []models.Share
	err := r.db.Where("file_name = ?", fileName).Order("created_at desc").Find(&shares).Error
	if err != nil {
		return nil, fmt.Errorf("查询文件分享列表失败: %w", err)
	}
	return shares, nil
}

// IncrementDownloadCount 用一条带守卫条件的 UPDATE 完成"检查并自增"。
// 守卫条件在数据库内原子执行，两个并发的下载不可能都通过 max_downloads 检查。
func (r *shareRepository) IncrementDownloadCount(uuid string, now time.Time) (bool, error) {
	res := r.db.Model(&models.Share{}).
		Where("uuid = ?", uuid).
		Where("max_downloads IS NULL OR download_count < max_downloads").
		Where("expires_at IS NULL OR expires_at > ?", now).
		UpdateColumn("download_count", gorm.Expr("download_count + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("更新分享下载次数失败: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// 删除记录，不存在时不报错
func (r *shareRepository) Delete(uuid string) (bool, error) {
	res := r.db.Where("uuid = ?", uuid).Delete(&models.Share{})
	if res.Error != nil {
		return false, fmt.Errorf("删除分享链接失败: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
