package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"pixel-place/internal/domain"
	"pixel-place/internal/infra/setup"
	"pixel-place/internal/service"
)

// Config 结构体用于存储从环境变量或文件加载的配置
type Config struct {
	ServerPort         string
	CORSAllowedOrigins []string
	LogLevel           string
	AppEnv             string // development/production

	DB setup.DBOptions

	GridWidth           int
	GridHeight          int
	GridDefaultColor    string
	GridPalette         []string
	StorageWriteTimeout time.Duration
	ClientSendBuffer    int

	RedisAddr      string // 为空时不启用历史记录和审计 worker
	RedisPassword  string
	RedisDB        int
	KeyPrefix      string
	HistoryLimit   int
	AuditRetention time.Duration
}

// RedisEnabled 表示是否配置了 Redis
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// LoadConfig 加载 .env (如果存在) 后从环境变量读取配置
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // 忽略错误，允许只使用环境变量
	return ConfigFromEnv()
}

// ConfigFromEnv 从环境变量读取配置。格式错误的可选项记录警告并使用默认值。
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{
		ServerPort:         envString("SERVER_PORT", "8080"),
		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGIN", []string{"*"}),
		LogLevel:           envString("LOG_LEVEL", "info"),
		AppEnv:             envString("APP_ENV", "development"),
		DB: setup.DBOptions{
			Driver:   strings.ToLower(envString("DB_DRIVER", setup.DriverSQLite)),
			Path:     envString("DB_PATH", "./canvas.db"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Host:     envString("DB_HOST", "127.0.0.1"),
			Port:     envString("DB_PORT", "3306"),
			Name:     envString("DB_NAME", "place_db"),
		},
		GridWidth:           envInt("GRID_WIDTH", 25),
		GridHeight:          envInt("GRID_HEIGHT", 25),
		GridDefaultColor:    envString("GRID_DEFAULT_COLOR", "#FFFFFF"),
		GridPalette:         envList("GRID_PALETTE", nil),
		StorageWriteTimeout: envDuration("STORAGE_WRITE_TIMEOUT", service.DefaultWriteTimeout),
		ClientSendBuffer:    envInt("CLIENT_SEND_BUFFER", 256),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             envInt("REDIS_DB", 0),
		KeyPrefix:           envString("REDIS_KEY_PREFIX", "place:"),
		HistoryLimit:        envInt("HISTORY_LIMIT", 100),
		AuditRetention:      envDuration("AUDIT_RETENTION", 720*time.Hour),
	}

	if cfg.GridWidth <= 0 {
		logrus.Warnf("Invalid GRID_WIDTH %d, using default 25", cfg.GridWidth)
		cfg.GridWidth = 25
	}
	if cfg.GridHeight <= 0 {
		logrus.Warnf("Invalid GRID_HEIGHT %d, using default 25", cfg.GridHeight)
		cfg.GridHeight = 25
	}
	cfg.GridDefaultColor, cfg.GridPalette = sanitizeColors(cfg.GridDefaultColor, cfg.GridPalette)

	switch cfg.DB.Driver {
	case setup.DriverSQLite:
	case setup.DriverMySQL:
		// 无法连接存储是致命错误
		if cfg.DB.User == "" || cfg.DB.Name == "" {
			return nil, fmt.Errorf("environment variables DB_USER and DB_NAME must be set for mysql")
		}
	default:
		logrus.Warnf("Invalid DB_DRIVER '%s', using default '%s'", cfg.DB.Driver, setup.DriverSQLite)
		cfg.DB.Driver = setup.DriverSQLite
	}
	if cfg.ClientSendBuffer <= 0 {
		logrus.Warnf("Invalid CLIENT_SEND_BUFFER %d, using default 256", cfg.ClientSendBuffer)
		cfg.ClientSendBuffer = 256
	}
	if cfg.HistoryLimit <= 0 {
		logrus.Warnf("Invalid HISTORY_LIMIT %d, using default 100", cfg.HistoryLimit)
		cfg.HistoryLimit = 100
	}

	// 验证日志级别
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// sanitizeColors 规范化默认颜色和调色板。
// 无效的默认颜色回退为 #FFFFFF，无效的调色板项被丢弃；调色板不包含默认颜色时整个调色板被忽略。
func sanitizeColors(defaultColor string, palette []string) (string, []string) {
	normalized, err := domain.NormalizeColor(defaultColor)
	if err != nil {
		logrus.Warnf("Invalid GRID_DEFAULT_COLOR '%s', using default '#FFFFFF'", defaultColor)
		normalized = "#FFFFFF"
	}
	if len(palette) == 0 {
		return normalized, nil
	}

	var valid []string
	containsDefault := false
	for _, entry := range palette {
		color, err := domain.NormalizeColor(entry)
		if err != nil {
			logrus.Warnf("Ignoring invalid GRID_PALETTE entry '%s'", entry)
			continue
		}
		if color == normalized {
			containsDefault = true
		}
		valid = append(valid, color)
	}
	if !containsDefault {
		logrus.Warnf("GRID_PALETTE does not contain default color %s, ignoring palette", normalized)
		return normalized, nil
	}
	return normalized, valid
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logrus.Warnf("Invalid %s '%s', using default %d", key, raw, def)
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v < 0 {
		logrus.Warnf("Invalid %s '%s', using default %s", key, raw, def)
		return def
	}
	return v
}

// envList 解析逗号分隔的列表，忽略空项
func envList(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
