package setup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/3Eeeecho/go-filebox/internal/config"
	"github.com/3Eeeecho/go-filebox/internal/models"
	"github.com/3Eeeecho/go-filebox/internal/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitSQLite 初始化 SQLite 数据库连接并迁移表结构，
// 连接实例由调用方持有和注入，不使用全局变量
func InitSQLite(cfg *config.SQLiteConfig) (*gorm.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("连接 SQLite 数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层数据库连接失败: %w", err)
	}
	// SQLite 单写者，限制连接数避免 database is locked
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Share{}); err != nil {
		return nil, fmt.Errorf("迁移数据库表结构失败: %w", err)
	}

	logger.Info("成功连接SQLite数据库!", zap.String("path", cfg.Path))
	return db, nil
}

// CloseDB 关闭数据库连接
func CloseDB(db *gorm.DB) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("获取底层数据库连接失败", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("关闭数据库连接失败", zap.Error(err))
		return
	}
	logger.Info("数据库连接已关闭")
}
