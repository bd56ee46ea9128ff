package router

import (
	"net/http"

	_ "github.com/3Eeeecho/go-filebox/docs"
	"github.com/3Eeeecho/go-filebox/internal/config"
	"github.com/3Eeeecho/go-filebox/internal/handlers"
	"github.com/3Eeeecho/go-filebox/internal/middlewares"
	"github.com/3Eeeecho/go-filebox/internal/pkg/cache"
	"github.com/3Eeeecho/go-filebox/internal/pkg/storage"
	"github.com/3Eeeecho/go-filebox/internal/pkg/xerr"
	"github.com/3Eeeecho/go-filebox/internal/repositories"
	"github.com/3Eeeecho/go-filebox/internal/services/explorer"
	"github.com/3Eeeecho/go-filebox/internal/services/share"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// RouterConfig 包含初始化路由所需的所有依赖
type RouterConfig struct {
	db          *gorm.DB
	redisClient *redis.Client
	engine      *storage.LocalStorage
	cfg         *config.Config
}

func NewRouterConfig(db *gorm.DB, redisClient *redis.Client, engine *storage.LocalStorage, cfg *config.Config) *RouterConfig {
	return &RouterConfig{
		db:          db,
		redisClient: redisClient,
		engine:      engine,
		cfg:         cfg,
	}
}

func InitRouter(routerCfg *RouterConfig) *gin.Engine {
	router := gin.Default()

	// 全局中间件
	router.Use(middlewares.Cors())

	// Health Check 路由
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 组装依赖链
	checker := storage.NewAdmissionChecker(&routerCfg.cfg.Storage)
	var cacheService *cache.RedisCache
	if routerCfg.redisClient != nil {
		cacheService = cache.NewRedisCache(routerCfg.redisClient)
	}
	fileService := explorer.NewFileService(routerCfg.engine, checker, cacheService, routerCfg.cfg)
	shareRepo := repositories.NewShareRepository(routerCfg.db)
	shareService := share.NewShareService(shareRepo, routerCfg.engine, routerCfg.cfg)

	fileHandler := handlers.NewFileHandler(fileService, routerCfg.cfg)
	shareHandler := handlers.NewShareHandler(shareService, routerCfg.cfg)

	v1 := router.Group("/api/v1")
	{
		// 文件相关路由
		fileGroup := v1.Group("/files")
		{
			fileGroup.GET("", fileHandler.ListFiles)
			fileGroup.POST("/upload", fileHandler.UploadFile)
			fileGroup.PUT("/upload/stream", fileHandler.UploadFileStream)
			fileGroup.GET("/download/:filename", fileHandler.DownloadFile)
			fileGroup.DELETE("/:filename", fileHandler.DeleteFile)
		}

		v1.GET("/storage", fileHandler.GetStorageInfo)

		// 分享管理路由
		shareGroup := v1.Group("/shares")
		{
			shareGroup.POST("", shareHandler.CreateShare)
			shareGroup.GET("/file/:filename", shareHandler.ListSharesForFile)
			shareGroup.DELETE("/:share_uuid", shareHandler.DeleteShare)
		}
	}

	// 面向下载者的公开分享路由
	shared := router.Group("/share")
	{
		shared.GET("/:share_uuid/details", shareHandler.GetShareDetails)
		shared.GET("/:share_uuid/download", shareHandler.DownloadSharedFile)
	}

	router.NoRoute(func(c *gin.Context) {
		xerr.Error(c, http.StatusNotFound, xerr.NotFoundCode, "请求的资源不存在")
	})

	return router
}
