package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"rewind_backend/internal/config"
	"rewind_backend/internal/controller"
	"rewind_backend/internal/middleware"
	"rewind_backend/internal/repository"
	"rewind_backend/internal/service"
	"rewind_backend/internal/util"
	"rewind_backend/pkg/configwatcher"
	"rewind_backend/pkg/database"
	"rewind_backend/pkg/logger"
	"rewind_backend/pkg/monitoring"
	"rewind_backend/pkg/security"
	"rewind_backend/pkg/tracing"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigFile 热加载监听的配置文件
var ConfigFile = filepath.Join("configs", "config.yaml")

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	allowlist       *security.OriginAllowlist
	premiumPaths    *middleware.PremiumPaths
	verifier        *security.TokenVerifier
	configCallbacks []func(*config.Config)
	cancel          context.CancelFunc
}

type repositories struct {
	user           *repository.UserRepository
	question       *repository.QuestionRepository
	userQuestion   *repository.UserQuestionRepository
	solution       *repository.SolutionRepository
	recording      *repository.RecordingRepository
	feedback       *repository.FeedbackRepository
	patternStats   *repository.PatternStatsRepository
	readinessEvent *repository.ReadinessEventRepository
	revision       *repository.RevisionRepository
	subscription   *repository.SubscriptionRepository
	payment        *repository.PaymentRepository
}

type services struct {
	patternStats *service.PatternStatsService
	readiness    *service.ReadinessService
	revision     *service.RevisionService
	userQuestion *service.UserQuestionService
	subscription *service.SubscriptionService
	payment      *service.PaymentService
	user         *service.UserService
	analysis     *service.AnalysisService
	analysisPool *service.AnalysisPool
	gemini       *service.GeminiClient
	whisper      *service.WhisperClient
	analytics    *service.AnalyticsService
	question     *service.QuestionService
	storage      *service.StorageService
}

type controllers struct {
	question     *controller.QuestionController
	userQuestion *controller.UserQuestionController
	solution     *controller.SolutionController
	recording    *controller.RecordingController
	revision     *controller.RevisionController
	readiness    *controller.ReadinessController
	analytics    *controller.AnalyticsController
	subscription *controller.SubscriptionController
	payment      *controller.PaymentController
	webhook      *controller.WebhookController
	health       *controller.HealthController
}

// RegisterConfigCallback 配置文件变更后依次调用
func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:           repository.NewUserRepository(db),
		question:       repository.NewQuestionRepository(db),
		userQuestion:   repository.NewUserQuestionRepository(db),
		solution:       repository.NewSolutionRepository(db),
		recording:      repository.NewRecordingRepository(db),
		feedback:       repository.NewFeedbackRepository(db),
		patternStats:   repository.NewPatternStatsRepository(db),
		readinessEvent: repository.NewReadinessEventRepository(db),
		revision:       repository.NewRevisionRepository(db),
		subscription:   repository.NewSubscriptionRepository(db),
		payment:        repository.NewPaymentRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	patternStats := service.NewPatternStatsService(repos.patternStats)
	readiness := service.NewReadinessService(
		db, repos.user, repos.readinessEvent, repos.userQuestion,
		repos.patternStats, repos.question, repos.revision,
	)
	revision := service.NewRevisionService(
		db, repos.revision, repos.userQuestion, repos.patternStats, repos.question, readiness,
	)
	userQuestion := service.NewUserQuestionService(
		db, repos.userQuestion, repos.question, repos.solution, repos.recording, repos.feedback,
		repos.revision, repos.patternStats, repos.readinessEvent, repos.user,
		patternStats, readiness, revision,
	)

	subscription := service.NewSubscriptionService(db, repos.subscription, repos.payment, rdb, cfg.Subscription.CacheTTL())

	// 未配置支付网关时保持接口为 nil，下单接口返回 503
	var gateway service.OrderGateway
	if cfg.Razorpay.Enabled() {
		gateway = service.NewRazorpayGateway(cfg.Razorpay)
	} else {
		logger.Log.Warn("Razorpay credentials missing, payments disabled")
	}
	payment := service.NewPaymentService(db, repos.payment, subscription, gateway, cfg.Razorpay)

	pool := service.NewAnalysisPool(cfg.Analysis.Workers, cfg.Analysis.QueueSize)
	pool.Start()
	gemini := service.NewGeminiClient(cfg.Gemini)
	whisper := service.NewWhisperClient(cfg.OpenAI)
	analysis := service.NewAnalysisService(
		repos.recording, repos.userQuestion, repos.solution, repos.feedback, gemini, whisper, pool,
	)

	return &services{
		patternStats: patternStats,
		readiness:    readiness,
		revision:     revision,
		userQuestion: userQuestion,
		subscription: subscription,
		payment:      payment,
		user:         service.NewUserService(db, repos.user, subscription),
		analysis:     analysis,
		analysisPool: pool,
		gemini:       gemini,
		whisper:      whisper,
		analytics:    service.NewAnalyticsService(repos.userQuestion, repos.question, repos.patternStats),
		question:     service.NewQuestionService(repos.question),
		storage:      service.NewStorageService(cfg, repos.userQuestion),
	}
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		question:     controller.NewQuestionController(s.question),
		userQuestion: controller.NewUserQuestionController(s.userQuestion),
		solution:     controller.NewSolutionController(s.userQuestion),
		recording:    controller.NewRecordingController(s.userQuestion, s.analysis, s.storage),
		revision:     controller.NewRevisionController(s.revision),
		readiness:    controller.NewReadinessController(s.readiness),
		analytics:    controller.NewAnalyticsController(s.analytics),
		subscription: controller.NewSubscriptionController(s.subscription),
		payment:      controller.NewPaymentController(s.payment),
		webhook:      controller.NewWebhookController(s.payment),
		health:       controller.NewHealthController(db, rdb),
	}
}

func newTokenVerifier(cfg *config.SupabaseConfig) *security.TokenVerifier {
	var jwks *security.JWKSCache
	if cfg.URL != "" {
		url := strings.TrimRight(cfg.URL, "/") + "/auth/v1/.well-known/jwks.json"
		jwks = security.NewJWKSCache(url, &http.Client{Timeout: 10 * time.Second})
	}
	return security.NewTokenVerifier(jwks, cfg.JWTSecret)
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(a.allowlist))
	router.Use(security.Secure())

	// 支付回调不受限流影响，网关重试时不能被拒
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window, func(c *gin.Context) bool {
		return c.Request.URL.Path == util.WebhookPath
	}))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(ctx context.Context, s *services, cfg *config.Config) {
	// 订阅过期清理
	go func() {
		ticker := time.NewTicker(cfg.Subscription.ReaperInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count, err := s.subscription.ExpireDue(ctx)
				if err != nil {
					logger.Log.Error("subscription reaper error", zap.Error(err))
					continue
				}
				if count > 0 {
					logger.Log.Info("Subscriptions expired", zap.Int64("count", count))
				}
			}
		}
	}()

	go func() {
		err := configwatcher.WatchConfig(ctx, ConfigFile, func(newCfg *config.Config) {
			for _, callback := range a.configCallbacks {
				callback(newCfg)
			}
		})
		if err != nil {
			logger.Log.Warn("Config watcher not started", zap.Error(err))
		}
	}()
}

// registerConfigCallbacks 可热更新的配置项：AI 密钥、跨域白名单、付费接口列表
func (a *App) registerConfigCallbacks(s *services) {
	a.RegisterConfigCallback(func(cfg *config.Config) {
		s.gemini.SetAPIKey(cfg.Gemini.APIKey)
		s.whisper.SetAPIKey(cfg.OpenAI.APIKey)
	})
	a.RegisterConfigCallback(func(cfg *config.Config) {
		a.allowlist.Set(cfg.CORS.AllowedOrigins)
	})
	a.RegisterConfigCallback(func(cfg *config.Config) {
		a.premiumPaths.Set(cfg.Subscription.PremiumPaths)
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	app.Redis = rdb
	app.allowlist = security.NewOriginAllowlist(cfg.CORS.AllowedOrigins)
	app.premiumPaths = middleware.NewPremiumPaths(cfg.Subscription.PremiumPaths)
	app.verifier = newTokenVerifier(&cfg.Supabase)

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("rewind-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, services)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	app.registerConfigCallbacks(services)
	app.startBackgroundTasks(ctx, services, cfg)

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

	if a.cancel != nil {
		a.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	// 等待进行中的分析任务，超时后放弃
	poolCtx, poolCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer poolCancel()
	if err := a.services.analysisPool.Stop(poolCtx); err != nil {
		logger.Log.Warn("Analysis pool stopped with pending jobs", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	log.Println("Server exiting")
}
