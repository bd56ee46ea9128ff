package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config 结构体包含所有应用的配置
type Config struct {
	Server  ServerConfig  `mapstructure:"server"` // `mapstructure` 标签用于Viper绑定结构体
	SQLite  SQLiteConfig  `mapstructure:"sqlite"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"` // 生成分享链接时使用的外部访问地址
}

// SQLiteConfig 分享记录数据库配置
type SQLiteConfig struct {
	Path string `mapstructure:"path"` // 数据库文件路径
}

// RedisConfig Redis配置（可选的文件列表缓存）
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig 本地存储与上传准入策略配置
type StorageConfig struct {
	UploadDir      string  `mapstructure:"upload_dir"`      // 上传目录
	MaxFileSize    int64   `mapstructure:"max_file_size"`   // 单文件大小上限（字节）
	ChunkSize      int     `mapstructure:"chunk_size"`      // 流式写入的分块大小（字节）
	MinFreeSpace   uint64  `mapstructure:"min_free_space"`  // 上传后磁盘必须保留的最小空闲空间（字节）
	MemoryFraction float64 `mapstructure:"memory_fraction"` // 缓冲上传允许占用可用内存的最大比例
}

// zap日志配置
type LogConfig struct {
	OutputPath string `mapstructure:"output_path"`
	ErrorPath  string `mapstructure:"error_path"`
	Level      string `mapstructure:"level"`
}

// LoadConfig 加载配置
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")        // 配置文件名 (不带扩展名)
	viper.SetConfigType("yaml")          // 配置文件类型
	viper.AddConfigPath(".")             // 在当前目录查找配置文件
	viper.AddConfigPath("./configs")     // 也可以添加其他路径，例如 ./configs/
	viper.AddConfigPath("/etc/filebox/") // 生产环境常见路径

	// 读取环境变量，例如 FILEBOX_SERVER_PORT 对应 server.port
	viper.SetEnvPrefix("FILEBOX")
	viper.AutomaticEnv()

	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	// 1. 设置默认值 (如果配置文件和环境变量中都没有，则使用这些默认值)
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.base_url", "http://localhost:8080")
	viper.SetDefault("sqlite.path", "./data/filebox.db")
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("storage.upload_dir", "./uploads")
	viper.SetDefault("storage.max_file_size", int64(3)*1024*1024*1024) // 3GB
	viper.SetDefault("storage.chunk_size", 64*1024)                    // 64KB
	viper.SetDefault("storage.min_free_space", uint64(5)*1024*1024*1024)
	viper.SetDefault("storage.memory_fraction", 0.5)
	viper.SetDefault("log.output_path", "logs/app.log")
	viper.SetDefault("log.error_path", "logs/error.log")
	viper.SetDefault("log.level", "info")

	// 2. 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// 配置文件未找到，但这不是致命错误，依赖环境变量和默认值继续启动
			log.Println("Warning: config file not found, using environment variables or default values.")
		} else {
			// 其他读取错误，例如配置文件格式错误
			return nil, err
		}
	}

	// 3. 将读取到的配置绑定到结构体
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
