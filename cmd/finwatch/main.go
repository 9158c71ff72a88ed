package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"finwatch/internal/api"
	"finwatch/internal/api/handlers"
	"finwatch/internal/repository"
	"finwatch/internal/service"
	"finwatch/internal/storage"
	"finwatch/pkg/auth"
	"finwatch/pkg/config"
	"finwatch/pkg/logger"
	"finwatch/pkg/postgres"

	"go.uber.org/zap"
)

// @title FinWatch API
// @version 1.0
// @description Financial document processing and anomaly detection service

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting FinWatch service")

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db, appLogger)
	docRepo := repository.NewDocumentRepository(db, appLogger)
	txRepo := repository.NewTransactionRepository(db, appLogger)
	anomalyRepo := repository.NewAnomalyRepository(db, appLogger)

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	blobs, err := storage.New(ctx, &cfg.Storage, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize blob storage", zap.Error(err))
	}

	provider, err := service.NewProvider(ctx, cfg, blobs, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize AI provider", zap.Error(err))
	}
	appLogger.Info("AI provider selected", zap.String("provider", provider.Name()))
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}

	authService := service.NewAuthService(userRepo, jwtManager, appLogger)
	docService := service.NewDocumentService(docRepo, txRepo, anomalyRepo, blobs, provider, appLogger)
	txService := service.NewTransactionService(txRepo, appLogger)
	anomalyService := service.NewAnomalyService(anomalyRepo, appLogger)

	authHandler := handlers.NewAuthHandler(authService, appLogger)
	docHandler := handlers.NewDocumentHandler(docService, appLogger)
	txHandler := handlers.NewTransactionHandler(txService, appLogger)
	anomalyHandler := handlers.NewAnomalyHandler(anomalyService, appLogger)

	uploadsDir := ""
	if local, ok := blobs.(*storage.LocalStore); ok {
		uploadsDir = local.BaseDir()
	}

	app := api.SetupRouter(authHandler, docHandler, txHandler, anomalyHandler, jwtManager, uploadsDir, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
