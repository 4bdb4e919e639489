package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"soko_backend/internal/cache"
	"soko_backend/internal/config"
	"soko_backend/internal/documents"
	"soko_backend/internal/email"
	"soko_backend/internal/handlers"
	"soko_backend/internal/logger"
	"soko_backend/internal/models"
	"soko_backend/internal/repositories"
	"soko_backend/internal/routes"
	"soko_backend/internal/services"
	"soko_backend/internal/storage"
	"soko_backend/internal/validator"
	"soko_backend/internal/workers"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := gormDB.AutoMigrate(&models.User{}, &models.Seller{}); err != nil {
		logger.Fatal("Failed to run schema migration", "error", err)
	}

	if err := seedFirstAdmin(gormDB); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	router, migrationService := SetupRouter(cfg, gormDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Workers.VerifyInterval > 0 {
		worker := workers.NewVerifyWorker(migrationService, time.Duration(cfg.Workers.VerifyInterval)*time.Hour)
		worker.Start(ctx)
		logger.Info("Verify worker started", "interval_hours", cfg.Workers.VerifyInterval)
	}

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := router.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter wires storage, repositories, services and handlers into a
// gin engine. Returned separately so tests can mount it on httptest.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*gin.Engine, services.MigrationService) {
	objectStore, err := storage.NewObjectStore(storage.Config{
		Type:      "supabase",
		Bucket:    cfg.Storage.Bucket,
		Endpoint:  cfg.Storage.Endpoint,
		BaseURL:   cfg.Storage.BaseURL,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Region:    cfg.Storage.Region,
	})
	if err != nil {
		logger.Fatal("Failed to initialize object storage", "error", err)
	}

	legacyStore, err := storage.NewObjectStore(storage.Config{
		Type:     "local",
		BasePath: cfg.Storage.LegacyBasePath,
	})
	if err != nil {
		logger.Fatal("Failed to initialize legacy storage", "error", err)
	}
	logger.Info("Storage initialized", "bucket", cfg.Storage.Bucket, "legacy_path", cfg.Storage.LegacyBasePath)

	docStore := documents.NewStore(objectStore, cfg.Storage.Namespace)
	if created, err := docStore.EnsureBucket(context.Background()); err != nil {
		logger.WithError(err).Warn("could not ensure document bucket at startup")
	} else if created {
		logger.Info("Document bucket created", "bucket", cfg.Storage.Bucket)
	}

	sellerRepo := repositories.NewSellerRepository(gormDB)
	userRepo := repositories.NewUserRepository(gormDB)

	var notifier email.Notifier = email.NoopNotifier{}
	if cfg.SMTP.Host != "" {
		notifier = email.NewSMTPNotifier(cfg)
	} else {
		logger.Warn("SMTP not configured, decision notifications disabled")
	}

	listCache := cache.New(30 * time.Second)

	sellerService := services.NewSellerService(sellerRepo, userRepo, docStore, legacyStore, listCache)
	verificationService := services.NewVerificationService(sellerRepo, userRepo, notifier, listCache)
	migrationService := services.NewMigrationService(sellerRepo, docStore, legacyStore)

	v := validator.New()
	base := handlers.NewBaseHandler(v)
	sellerHandler := handlers.NewSellerHandler(base, sellerService, legacyStore)
	adminHandler := handlers.NewAdminHandler(base, verificationService, migrationService)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	routes.RegisterRoutes(router, sellerHandler, adminHandler)

	return router, migrationService
}

// seedFirstAdmin guarantees at least one admin account exists so the
// back-office is reachable on a fresh database.
func seedFirstAdmin(db *gorm.DB) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		return nil
	}

	var existing models.User
	err := db.Where("LOWER(email) = LOWER(?)", adminEmail).First(&existing).Error
	if err == nil {
		if existing.Role != models.UserRoleAdmin {
			return db.Model(&existing).Update("role", models.UserRoleAdmin).Error
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	logger.Info("Seeding first admin user", "email", adminEmail)
	return db.Create(&models.User{
		Email: adminEmail,
		Name:  "Administrator",
		Role:  models.UserRoleAdmin,
	}).Error
}
