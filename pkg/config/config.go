package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// 存储驱动
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// 交易匹配策略
const (
	MatchFirstBuy = "first_buy"
	MatchFIFOLots = "fifo_lots"
)

// Config 应用配置
type Config struct {
	App struct {
		Name string `yaml:"name"`
		Env  string `yaml:"env"`
	} `yaml:"app"`

	Storage StorageConfig `yaml:"storage"`

	KV struct {
		Path string `yaml:"path"`
	} `yaml:"kv"`

	API struct {
		Port         string        `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"api"`

	Trade struct {
		Matching string `yaml:"matching"`
	} `yaml:"trade"`

	Scheduler SchedulerConfig `yaml:"scheduler"`

	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`

	Export struct {
		ShareTTL time.Duration `yaml:"share_ttl"`
	} `yaml:"export"`
}

// SchedulerConfig 定时任务配置，cron 表达式
type SchedulerConfig struct {
	CleanupSpec string `yaml:"cleanup_spec"`
	SyncSpec    string `yaml:"sync_spec"`
}

// StorageConfig 记录存储配置
type StorageConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Postgres struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		DBName   string `yaml:"dbname"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"postgres"`
}

// DSN 生成 postgres 连接串
func (s StorageConfig) DSN() string {
	pg := s.Postgres
	sslmode := pg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		pg.Host, pg.Port, pg.User, pg.Password, pg.DBName, sslmode)
}

// Default 返回可直接使用的默认配置
func Default() *Config {
	var config Config
	config.App.Name = "stock-review"
	config.App.Env = "dev"
	config.Storage.Driver = DriverSQLite
	config.Storage.Path = "data/review.db"
	config.Storage.Postgres.Host = "localhost"
	config.Storage.Postgres.Port = 5432
	config.Storage.Postgres.User = "postgres"
	config.Storage.Postgres.DBName = "stock_review"
	config.KV.Path = "data/kv.json"
	config.API.Port = "8080"
	config.API.ReadTimeout = 10 * time.Second
	config.API.WriteTimeout = 10 * time.Second
	config.Trade.Matching = MatchFirstBuy
	config.Scheduler.CleanupSpec = "@every 1h"
	config.Scheduler.SyncSpec = "@every 5m"
	config.Log.Level = "info"
	config.Export.ShareTTL = 7 * 24 * time.Hour
	return &config
}

// LoadConfig 从文件加载配置，未填写的项使用默认值
func LoadConfig(path string) (*Config, error) {
	// 读取配置文件
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析YAML
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 环境变量覆盖
	overrideFromEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("不支持的存储驱动: %s", c.Storage.Driver)
	}
	switch c.Trade.Matching {
	case MatchFirstBuy, MatchFIFOLots:
	default:
		return fmt.Errorf("不支持的交易匹配策略: %s", c.Trade.Matching)
	}
	return nil
}

// overrideFromEnv 使用环境变量覆盖配置
func overrideFromEnv(config *Config) {
	// 应用名称
	if env := os.Getenv("APP_NAME"); env != "" {
		config.App.Name = env
	}

	// 环境
	if env := os.Getenv("APP_ENV"); env != "" {
		config.App.Env = env
	}

	// 存储配置
	if env := os.Getenv("STORAGE_DRIVER"); env != "" {
		config.Storage.Driver = env
	}
	if env := os.Getenv("STORAGE_PATH"); env != "" {
		config.Storage.Path = env
	}
	if env := os.Getenv("DB_HOST"); env != "" {
		config.Storage.Postgres.Host = env
	}
	if env := os.Getenv("DB_PORT"); env != "" {
		var port int
		fmt.Sscanf(env, "%d", &port)
		if port > 0 {
			config.Storage.Postgres.Port = port
		}
	}
	if env := os.Getenv("DB_USER"); env != "" {
		config.Storage.Postgres.User = env
	}
	if env := os.Getenv("DB_PASSWORD"); env != "" {
		config.Storage.Postgres.Password = env
	}
	if env := os.Getenv("DB_NAME"); env != "" {
		config.Storage.Postgres.DBName = env
	}

	if env := os.Getenv("KV_PATH"); env != "" {
		config.KV.Path = env
	}

	// API配置
	if env := os.Getenv("API_PORT"); env != "" {
		config.API.Port = env
	}

	if env := os.Getenv("LOG_LEVEL"); env != "" {
		config.Log.Level = env
	}
	if env := os.Getenv("TRADE_MATCHING"); env != "" {
		config.Trade.Matching = env
	}
}

// GetConfigPath 获取配置文件路径，CONFIG_PATH 优先
func GetConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return GetDefaultConfigPath()
}

// GetDefaultConfigPath 获取默认配置文件路径
func GetDefaultConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev" // 默认开发环境
	}

	return fmt.Sprintf("configs/%s/app.yaml", env)
}
