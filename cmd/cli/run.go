package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	gormtracing "gorm.io/plugin/opentelemetry/tracing"

	"homedash/internal/config"
	"homedash/internal/handlers"
	"homedash/internal/middleware"
	"homedash/internal/models"
	"homedash/internal/observability"
	"homedash/internal/services"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the homedash backend",
	Run:   run,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func run(cmd *cobra.Command, args []string) {
	cfg := config.Load()
	if cfg.Server.Port == 0 {
		cfg = config.GetDefaultConfig()
	}

	if err := config.InitLogger(cfg); err != nil {
		logrus.Fatalf("Failed to initialize logger: %v", err)
	}

	if shutdown, err := observability.SetupTracing(context.Background(), cfg); err == nil {
		defer func() { _ = shutdown(context.Background()) }()
	} else {
		logrus.Warnf("init tracing: %v", err)
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		cfg.Database.Host, cfg.Database.User, cfg.Database.Password, cfg.Database.Name, cfg.Database.Port)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	}
	if cfg.Monitoring.Tracing.Enabled {
		_ = db.Use(gormtracing.NewPlugin())
	}

	if err := db.AutoMigrate(
		&models.Automation{}, &models.Trigger{}, &models.Condition{}, &models.Action{},
		&models.Camera{}, &models.EnergyReading{},
	); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}

	appLogger := logrus.StandardLogger()

	eventHub := services.NewEventHub()
	automationService := services.NewAutomationService(db, appLogger)
	automationService.SetEventHub(eventHub)
	cameraService := services.NewCameraService(db, appLogger)
	cameraService.SetEventHub(eventHub)
	energyService := services.NewEnergyService(db, appLogger, cfg.Energy)
	streamService := services.NewStreamService(cfg.WebRTC.STUNServer, eventHub, appLogger)

	go eventHub.Run()

	if cfg.Server.Host != "localhost" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, appLogger, eventHub, automationService, cameraService, energyService, streamService)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logrus.Infof("Starting server on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func setupRouter(
	cfg *config.Config,
	appLogger *logrus.Logger,
	eventHub *services.EventHub,
	automationService *services.AutomationService,
	cameraService *services.CameraService,
	energyService *services.EnergyService,
	streamService *services.StreamService,
) *gin.Engine {
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RateLimitMiddleware(cfg))
	router.Use(otelgin.Middleware("homedash"))

	healthHandler := handlers.NewHealthHandler()
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	if cfg.Monitoring.Enabled {
		path := cfg.Monitoring.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		metricsHandler := handlers.NewMetricsHandler(eventHub, streamService)
		router.GET(path, metricsHandler.Snapshot)
	}

	api := router.Group("/api")
	{
		feedHandler := handlers.NewEventFeedHandler(eventHub)
		api.GET("/ws", feedHandler.HandleWebSocket)
		api.GET("/ws/stats", feedHandler.GetStats)

		automationHandler := handlers.NewAutomationHandler(automationService, appLogger)
		handlers.RegisterAutomationRoutes(api, automationHandler)

		triggerHandler := handlers.NewTriggerHandler(automationService, appLogger)
		conditionHandler := handlers.NewConditionHandler(automationService, appLogger)
		actionHandler := handlers.NewActionHandler(automationService, appLogger)
		handlers.RegisterAutomationPartRoutes(api, triggerHandler, conditionHandler, actionHandler)

		cameraHandler := handlers.NewCameraHandler(cameraService, streamService, appLogger)
		handlers.RegisterCameraRoutes(api, cameraHandler)

		energyHandler := handlers.NewEnergyHandler(energyService, appLogger)
		handlers.RegisterEnergyRoutes(api, energyHandler)
	}

	return router
}
