package app

import (
	"campaign_call_backend/internal/config"
	"campaign_call_backend/internal/controller"
	"campaign_call_backend/internal/repository"
	"campaign_call_backend/internal/service"
	"campaign_call_backend/pkg/database"
	"campaign_call_backend/pkg/logger"
	"campaign_call_backend/pkg/monitoring"
	"campaign_call_backend/pkg/security"
	"campaign_call_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	campaign   *repository.CampaignRepository
	voter      *repository.VoterRepository
	assignment *repository.CallAssignmentRepository
	call       *repository.VerificationCallRepository
	survey     *repository.SurveyRepository
	response   *repository.SurveyResponseRepository
}

type services struct {
	auth       *service.AuthService
	campaign   *service.CampaignService
	voter      *service.VoterService
	survey     *service.SurveyService
	assignment *service.CallAssignmentService
	call       *service.VerificationCallService
}

type controllers struct {
	auth       *controller.AuthController
	campaign   *controller.CampaignController
	voter      *controller.VoterController
	assignment *controller.CallAssignmentController
	call       *controller.VerificationCallController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig swaps in a hot-reloaded configuration and notifies every
// registered callback. Settings read once at startup (port, middleware
// chain) keep their old values until restart.
func (a *App) ReloadConfig(cfg *config.Config) {
	a.Config = cfg
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
	logger.Log.Info("configuration reloaded")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		campaign:   repository.NewCampaignRepository(db),
		voter:      repository.NewVoterRepository(db),
		assignment: repository.NewCallAssignmentRepository(db),
		call:       repository.NewVerificationCallRepository(db),
		survey:     repository.NewSurveyRepository(db),
		response:   repository.NewSurveyResponseRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.user, cfg)
	s.campaign = service.NewCampaignService(repos.campaign, repos.voter, repos.call)
	s.voter = service.NewVoterService(repos.voter, repos.campaign)
	s.survey = service.NewSurveyService(repos.survey, repos.campaign)
	s.assignment = service.NewCallAssignmentService(repos.assignment, repos.voter, repos.user, db, rdb)
	s.call = service.NewVerificationCallService(repos.call, repos.assignment, repos.voter, repos.survey, repos.response, db)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		campaign:   controller.NewCampaignController(s.campaign, s.survey),
		voter:      controller.NewVoterController(s.voter, s.call),
		assignment: controller.NewCallAssignmentController(s.assignment),
		call:       controller.NewVerificationCallController(s.call),
		health:     controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("campaign-call-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, repos, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

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
