package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/3Eeeecho/go-filebox/internal/config"
	"github.com/3Eeeecho/go-filebox/internal/pkg/logger"
	"github.com/3Eeeecho/go-filebox/internal/pkg/storage"
	"github.com/3Eeeecho/go-filebox/internal/router"
	"github.com/3Eeeecho/go-filebox/internal/setup"
	"go.uber.org/zap"
)

// @title go-filebox API
// @version 1.0
// @description 轻量级文件上传与分享服务
// @BasePath /
func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("加载配置失败", zap.Error(err))
	}

	// 初始化日志系统
	if err := os.MkdirAll(filepath.Dir(cfg.Log.OutputPath), 0o755); err != nil {
		logger.Fatal("创建日志目录失败", zap.Error(err))
	}
	logger.InitLogger(cfg.Log.OutputPath, cfg.Log.ErrorPath, cfg.Log.Level)
	defer logger.Sync()

	// 初始化数据库连接
	db, err := setup.InitSQLite(&cfg.SQLite)
	if err != nil {
		logger.Fatal("初始化数据库失败", zap.Error(err))
	}
	defer setup.CloseDB(db)

	// 初始化 Redis 连接（可选）
	redisClient, err := setup.InitRedis(context.Background(), &cfg.Redis)
	if err != nil {
		logger.Fatal("初始化Redis失败", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// 初始化本地存储引擎
	engine, err := storage.NewLocalStorage(cfg.Storage.UploadDir, cfg.Storage.ChunkSize)
	if err != nil {
		logger.Fatal("初始化存储引擎失败", zap.Error(err))
	}

	// 初始化 Gin 引擎和注册路由
	r := router.InitRouter(router.NewRouterConfig(db, redisClient, engine, cfg))

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("服务器启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	// 优雅关机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("收到退出信号，开始关闭服务器...")

	// 给正在传输的上传/下载留出完成时间
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器优雅关机失败", zap.Error(err))
	} else {
		logger.Info("服务器已优雅停止")
	}
}
