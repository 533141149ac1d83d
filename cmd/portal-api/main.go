package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"contract-platform/contract-portal-backend/internal/audit"
	"contract-platform/contract-portal-backend/internal/auth"
	"contract-platform/contract-portal-backend/internal/changes"
	"contract-platform/contract-portal-backend/internal/codes"
	"contract-platform/contract-portal-backend/internal/config"
	"contract-platform/contract-portal-backend/internal/contracts"
	"contract-platform/contract-portal-backend/internal/dashboard"
	"contract-platform/contract-portal-backend/internal/middleware"
	"contract-platform/contract-portal-backend/internal/notifications"
	"contract-platform/contract-portal-backend/internal/payments"
	"contract-platform/contract-portal-backend/internal/quantities"
	"contract-platform/contract-portal-backend/internal/scheduler"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.GetDatabaseURL()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to access database pool", zap.Error(err))
	}
	defer sqlDB.Close()
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	if err := db.AutoMigrate(
		&auth.User{},
		&contracts.Contract{},
		&changes.ChangeRequest{},
		&changes.ApprovalTask{},
		&payments.PaymentRequest{},
		&quantities.QuantityRecord{},
		&notifications.Notification{},
		&audit.AuditLog{},
	); err != nil {
		logger.Fatal("Failed to migrate schema", zap.Error(err))
	}

	ctx := context.Background()

	// Repositories
	authRepo := auth.NewGormRepository(db)
	contractRepo := contracts.NewGormRepository(db)
	changeRepo := changes.NewGormRepository(db)
	paymentRepo := payments.NewGormRepository(db)
	quantityRepo := quantities.NewGormRepository(db)
	notificationRepo := notifications.NewGormRepository(db)

	if err := auth.SeedDemoUsers(ctx, authRepo); err != nil {
		logger.Warn("Demo user seed failed", zap.Error(err))
	}
	if err := contracts.SeedSampleContract(ctx, contractRepo); err != nil {
		logger.Warn("Sample contract seed failed", zap.Error(err))
	}

	// Services
	hub := notifications.NewHub(logger)
	notificationService := notifications.NewService(notificationRepo, hub, logger)
	auditService := audit.NewService(db, logger)

	authService := auth.NewService(authRepo, cfg.Security.JWTSecret, cfg.Security.TokenLifetime, logger)
	directory := auth.NewDirectory(authRepo, logger)

	codeGen := codes.NewGenerator()
	contractService := contracts.NewService(contractRepo, auditService, logger)
	changeService := changes.NewService(changeRepo, codeGen, notificationService, auditService, directory, logger)
	paymentService := payments.NewService(paymentRepo, codeGen, notificationService, auditService, logger)
	quantityService := quantities.NewService(quantityRepo, authService, auditService, logger)
	dashboardService := dashboard.NewService(contractRepo, changeService, paymentRepo, logger)

	// Handlers
	authHandler := auth.NewHandler(authService)
	contractHandler := contracts.NewHandler(contractService, logger)
	changeHandler := changes.NewHandler(changeService, logger)
	paymentHandler := payments.NewHandler(paymentService, logger)
	quantityHandler := quantities.NewHandler(quantityService, logger)
	notificationHandler := notifications.NewHandler(notificationService, hub, logger)
	auditHandler := audit.NewHandler(auditService, logger)
	dashboardHandler := dashboard.NewHandler(dashboardService, logger)

	// Deadline scanner
	c := cron.New()
	watcher := scheduler.NewDeadlineWatcher(contractRepo, notificationService, cfg.Scheduler.WarnBeforeDays, logger)
	if _, err := watcher.Register(c, cfg.Scheduler.DeadlineCron); err != nil {
		logger.Fatal("Failed to schedule deadline scan", zap.Error(err))
	}
	c.Start()
	defer c.Stop()

	// Setup Router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger))
	router.Use(middleware.CORS())

	// Register Routes
	public := router.Group("/api/v1")
	private := router.Group("/api/v1")
	private.Use(auth.Middleware(authService))
	{
		authHandler.RegisterRoutes(public, private)
		contractHandler.RegisterRoutes(private)
		changeHandler.RegisterRoutes(private)
		paymentHandler.RegisterRoutes(private)
		quantityHandler.RegisterRoutes(private)
		notificationHandler.RegisterRoutes(private)
		auditHandler.RegisterRoutes(private)
		dashboardHandler.RegisterRoutes(private)
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", srv.Addr))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
