package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"llm_tutor_backend/internal/config"
	"llm_tutor_backend/internal/controller"
	"llm_tutor_backend/internal/repository"
	"llm_tutor_backend/internal/service"
	"llm_tutor_backend/pkg/clock"
	"llm_tutor_backend/pkg/configwatcher"
	"llm_tutor_backend/pkg/database"
	"llm_tutor_backend/pkg/logger"
	"llm_tutor_backend/pkg/monitoring"
	"llm_tutor_backend/pkg/security"
	"llm_tutor_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	metrics     *repository.MetricsRepository
	event       *repository.EventRepository
	skill       *repository.SkillRepository
	achievement *repository.AchievementRepository
	snapshot    *repository.SnapshotRepository
}

type services struct {
	achievement *service.AchievementService
	progress    *service.ProgressService
	statistics  *service.StatisticsService
	storage     *service.StorageService
	export      *service.ExportService
}

type controllers struct {
	progress    *controller.ProgressController
	achievement *controller.AchievementController
	statistics  *controller.StatisticsController
	export      *controller.ExportController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfigUpdate(cfg *config.Config) {
	a.Config.Progress = cfg.Progress
	a.Config.RateLimit = cfg.RateLimit
	a.Config.CORS = cfg.CORS
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
	logger.Log.Info("Config reloaded")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		metrics:     repository.NewMetricsRepository(db),
		event:       repository.NewEventRepository(db),
		skill:       repository.NewSkillRepository(db),
		achievement: repository.NewAchievementRepository(db),
		snapshot:    repository.NewSnapshotRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}
	clk := clock.System()

	s.achievement = service.NewAchievementService(repos.achievement, repos.skill)
	s.progress = service.NewProgressService(
		repos.metrics,
		repos.event,
		repos.skill,
		repos.snapshot,
		s.achievement,
		clk,
		db,
		rdb,
		time.Duration(cfg.Progress.CacheTTLSeconds)*time.Second,
	)
	s.statistics = service.NewStatisticsService(
		repos.event,
		repos.snapshot,
		clk,
		cfg.Progress.HistoryMaxSpanDays,
		cfg.Progress.TrendDays,
	)
	s.storage = service.NewStorageService(cfg)
	s.export = service.NewExportService(
		repos.metrics,
		repos.skill,
		repos.snapshot,
		repos.event,
		s.achievement,
		s.storage,
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		progress:    controller.NewProgressController(s.progress),
		achievement: controller.NewAchievementController(s.achievement),
		statistics:  controller.NewStatisticsController(s.statistics),
		export:      controller.NewExportController(s.export),
		health:      controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("llm-tutor-backend", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	// 热更新仅覆盖运行期可调的参数，端口与数据库连接不变
	app.RegisterConfigCallback(func(c *config.Config) {
		services.progress.CacheTTL = time.Duration(c.Progress.CacheTTLSeconds) * time.Second
		services.statistics.MaxSpanDays = c.Progress.HistoryMaxSpanDays
		services.statistics.TrendDays = c.Progress.TrendDays
	})
	go configwatcher.WatchConfig("configs/config.yaml", app.applyConfigUpdate)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
