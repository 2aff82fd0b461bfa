package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "pixel-place/internal/handler/http"
	wsHandler "pixel-place/internal/handler/websocket"
	"pixel-place/internal/hub"
	gormpersistence "pixel-place/internal/infra/persistence/gorm"
	"pixel-place/internal/infra/setup"
	redisstate "pixel-place/internal/infra/state/redis"
	"pixel-place/internal/service"
	"pixel-place/internal/worker"
)

// App 结构体包含应用的所有组件和配置
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client         // 未配置 Redis 时为 nil
	AsynqClient *asynq.Client         // 未配置 Redis 时为 nil
	AsynqServer *worker.WorkerServer  // 未配置 Redis 时为 nil
	Grid        *service.GridService
	Hub         *hub.Hub
	HttpServer  *http.Server
}

// NewLogger 按配置初始化 logrus 标准 logger，各包通过 logrus 包级函数共用它
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.StandardLogger()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel) // cfg.LogLevel 已被 LoadConfig 验证
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	return log
}

// NewApp 创建并初始化应用的所有组件。网格在返回前已经从存储加载完毕。
func NewApp(ctx context.Context) (*App, error) {
	// 1. 加载配置
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	// 2. 初始化 Logger
	log := NewLogger(cfg)
	log.Infof("Logger initialized (Level: %s, Format: %T)", log.GetLevel().String(), log.Formatter)

	// 3. 初始化基础设施
	log.WithField("driver", cfg.DB.Driver).Info("Initializing database...")
	db, err := setup.InitDB(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		_ = setup.CloseDB(db)
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database initialized and migrated")

	app := &App{Config: cfg, Log: log, DB: db}

	// 4. 网格
	tileRepo := gormpersistence.NewGormTileRepository(db)
	grid, err := service.NewGridService(tileRepo, service.GridConfig{
		Width:        cfg.GridWidth,
		Height:       cfg.GridHeight,
		DefaultColor: cfg.GridDefaultColor,
		Palette:      cfg.GridPalette,
		WriteTimeout: cfg.StorageWriteTimeout,
	})
	if err != nil {
		app.closeStores()
		return nil, fmt.Errorf("failed to create GridService: %w", err)
	}
	if err := grid.LoadOrInit(ctx); err != nil {
		app.closeStores()
		return nil, fmt.Errorf("failed to load grid: %w", err)
	}
	app.Grid = grid

	// 5. 可选：Redis 历史记录和审计 worker
	var historyService *service.HistoryService
	if cfg.RedisEnabled() {
		redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			app.closeStores()
			return nil, fmt.Errorf("failed to init Redis: %w", err)
		}
		app.RedisClient = redisClient

		redisClientOpt := asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
		app.AsynqClient = asynq.NewClient(redisClientOpt)
		historyRepo := redisstate.NewRedisHistoryRepository(redisClient, cfg.KeyPrefix, cfg.HistoryLimit)
		historyService = service.NewHistoryService(historyRepo, app.AsynqClient)

		actionRepo := gormpersistence.NewGormActionRepository(db)
		app.AsynqServer = worker.NewWorkerServer(redisClientOpt, actionRepo, log, cfg.AuditRetention)
		log.Info("Redis history and audit worker enabled")
	} else {
		log.Info("REDIS_ADDR not set, commit history and audit log disabled")
	}

	// 6. Hub
	var recorder hub.CommitRecorder
	if historyService != nil {
		recorder = historyService
	}
	app.Hub = hub.NewHub(grid, recorder, cfg.ClientSendBuffer)

	// 7. Handlers 和路由
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	tileHandler := httpHandler.NewTileHandler(grid, historyService, cfg.HistoryLimit)
	ws := wsHandler.NewWebSocketHandler(app.Hub, cfg.CORSAllowedOrigins)
	router := NewRouter(log, cfg.CORSAllowedOrigins, tileHandler, ws)

	app.HttpServer = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("Application assembled successfully")
	return app, nil
}

// Start 启动应用的所有后台 Goroutine 和 HTTP 服务器
func (a *App) Start() error {
	a.Log.Info("Starting application background routines...")
	go a.Hub.Run()

	if a.AsynqServer != nil {
		if err := a.AsynqServer.Start(); err != nil {
			return err
		}
	}

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
	return nil
}

// Shutdown 优雅地关闭应用
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	// 1. 停止接收新连接
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if a.HttpServer != nil {
		if err := a.HttpServer.Shutdown(ctx); err != nil {
			a.Log.Errorf("Error shutting down HTTP server: %v", err)
		} else {
			a.Log.Info("HTTP server shut down gracefully.")
		}
	}

	// 2. 停止调度循环并关闭所有 WebSocket 连接 (hijack 的连接不受 HttpServer.Shutdown 管理)
	if a.Hub != nil {
		a.Hub.Stop()
	}

	// 3. 关闭 Worker Server
	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}

	a.closeStores()
	a.Log.Info("Application shutdown complete.")
}

func (a *App) closeStores() {
	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		}
	}
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		}
	}
	if a.DB != nil {
		if err := setup.CloseDB(a.DB); err != nil {
			a.Log.Errorf("Error closing database connection: %v", err)
		} else {
			a.Log.Info("Database connection closed.")
		}
	}
}
