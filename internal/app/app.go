package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"training_backend/internal/config"
	"training_backend/internal/controller"
	"training_backend/internal/repository"
	"training_backend/internal/service"
	"training_backend/pkg/configwatcher"
	"training_backend/pkg/database"
	"training_backend/pkg/lock"
	"training_backend/pkg/logger"
	"training_backend/pkg/monitoring"
	"training_backend/pkg/security"
	"training_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	training   *repository.TrainingRepository
	enrollment *repository.EnrollmentRepository
	level      *repository.LevelRepository
	attempt    *repository.ScenarioAttemptRepository
}

type services struct {
	scenario   *service.ScenarioService
	statistics *service.StatisticsService
	level      *service.LevelService
	importer   *service.ImportService
}

type controllers struct {
	scenario   *controller.ScenarioController
	statistics *controller.StatisticsController
	level      *controller.LevelController
	importer   *controller.ImportController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// applyConfig 热更新：只替换可在运行时变更的配置段
func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		training:   repository.NewTrainingRepository(db),
		enrollment: repository.NewEnrollmentRepository(db),
		level:      repository.NewLevelRepository(db),
		attempt:    repository.NewScenarioAttemptRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	// 多实例部署时用 Redis 锁保证同一学员同一关卡的提交串行
	var locker lock.Locker = lock.NewLocalLocker()
	if rdb != nil {
		locker = lock.NewRedisLocker(rdb, cfg.Scoring.LockTTL())
	}

	s := &services{
		scenario: service.NewScenarioService(repos.level, repos.attempt, locker, rdb, cfg.Scoring),
		statistics: service.NewStatisticsService(
			repos.training,
			repos.level,
			repos.attempt,
			repos.enrollment,
			repos.user,
			cfg.Scoring.RecentAttempts,
		),
		level:    service.NewLevelService(repos.level, repos.training),
		importer: service.NewImportService(db),
	}

	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.scenario.ApplyScoring(newCfg.Scoring)
		s.statistics.SetRecentLimit(newCfg.Scoring.RecentAttempts)
		logger.Log.Info("Scoring config applied",
			zap.Float64("defaultThreshold", newCfg.Scoring.DefaultThreshold),
			zap.Int("recentAttempts", newCfg.Scoring.RecentAttempts))
	})
	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		scenario:   controller.NewScenarioController(s.scenario),
		statistics: controller.NewStatisticsController(s.statistics),
		level:      controller.NewLevelController(s.level),
		importer:   controller.NewImportController(s.importer),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// NewApp 初始化日志、数据库、Redis（可选）以及全部路由。
// MigrateOnly 时只完成迁移，不构建路由。
func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	migrate := cfg.ForceMigrate || cfg.Server.Mode != "release"
	db, err := database.InitDB(&cfg.Database, migrate)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app, nil
	}
	// 导入模式：写入培训数据后退出，不启动服务
	if cfg.ImportFile != "" {
		summary, err := service.NewImportService(db).ImportFile(context.Background(), cfg.ImportFile)
		if err != nil {
			return nil, err
		}
		logger.Log.Info("Import finished",
			zap.Int("trainings", summary.Trainings),
			zap.Int("levelsCreated", summary.LevelsCreated),
			zap.Int("levelsUpdated", summary.LevelsUpdated),
			zap.Int("users", summary.Users),
			zap.Int("enrollments", summary.Enrollments))
		return app, nil
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			// Redis 不可用时降级为进程内锁，单实例仍可正常评分
			logger.Log.Warn("Failed to initialize redis, falling back to local locks", zap.Error(err))
		} else {
			logger.Log.Info("Redis connection established", zap.String("addr", database.RedisAddr(&cfg.Redis)))
			app.Redis = rdb
		}
	} else {
		logger.Log.Info("Redis disabled: using in-process attempt locks and no optimal path cache")
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("training-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, err
		}
		app.tracer = tp
	}

	app.mount()
	return app, nil
}

// mount 组装仓储、服务、控制器与路由
func (a *App) mount() {
	repos := a.initRepositories(a.DB)
	a.services = a.initServices(repos, a.Config, a.DB, a.Redis)
	controllers := a.initControllers(a.services, a.DB, a.Redis)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(a.Config.Server.Mode)
	router := gin.Default()
	a.Router = router

	a.setupMiddlewares(router, a.Config)
	a.registerRoutes(router, controllers, a.Config)
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		file := filepath.Join("configs", "config.yaml")
		if err := configwatcher.WatchConfig(ctx, file, a.applyConfig); err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}()

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	a.Close(shutdownCtx)

	logger.Log.Info("Server exiting")
}

// Close 释放外部连接
func (a *App) Close(ctx context.Context) {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = logger.Log.Sync()
}
