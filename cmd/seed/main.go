package main

import (
	"context"
	"log"
	"time"

	"finwatch/internal/models"
	"finwatch/internal/repository"
	"finwatch/pkg/auth"
	"finwatch/pkg/config"
	"finwatch/pkg/logger"
	"finwatch/pkg/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Seeds a demo user with a month of ordinary transactions so the anomaly
// scorer has a baseline to compare against.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db, appLogger)
	txRepo := repository.NewTransactionRepository(db, appLogger)

	appLogger.Info("Starting database seeding...")

	user, err := seedDemoUser(ctx, userRepo, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to seed demo user", zap.Error(err))
	}

	if err := seedTransactions(ctx, txRepo, user.ID); err != nil {
		appLogger.Fatal("Failed to seed transactions", zap.Error(err))
	}

	appLogger.Info("Database seeding completed successfully!")
}

func seedDemoUser(ctx context.Context, repo *repository.UserRepository, appLogger *zap.Logger) (*models.User, error) {
	const demoEmail = "demo@finwatch.local"

	if existing, err := repo.GetByEmail(ctx, demoEmail); err == nil {
		appLogger.Info("Demo user already exists", zap.String("user_id", existing.ID.String()))
		return existing, nil
	}

	hashed, err := auth.HashPassword("demo-password")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		ID:        uuid.New(),
		Username:  "demo",
		Email:     demoEmail,
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, err
	}

	appLogger.Info("Demo user created", zap.String("user_id", user.ID.String()))
	return user, nil
}

func seedTransactions(ctx context.Context, repo *repository.TransactionRepository, userID uuid.UUID) error {
	samples := []struct {
		merchant string
		category string
		amount   float64
		daysAgo  int
	}{
		{"Fresh Market", "Food", 42.10, 2},
		{"Fresh Market", "Food", 38.75, 9},
		{"Fresh Market", "Food", 45.30, 16},
		{"City Transit", "Transport", 12.00, 1},
		{"City Transit", "Transport", 12.00, 8},
		{"Power & Light Co", "Utilities", 85.40, 5},
		{"CloudFlix", "Entertainment", 14.99, 12},
		{"Corner Pharmacy", "Healthcare", 23.60, 20},
		{"Office Depot", "Office", 67.20, 25},
	}

	now := time.Now()
	for _, s := range samples {
		tx := &models.Transaction{
			ID:          uuid.New(),
			UserID:      userID,
			Merchant:    s.merchant,
			Amount:      s.amount,
			Currency:    "USD",
			Category:    s.category,
			Type:        models.TransactionTypeExpense,
			Status:      models.TransactionStatusCompleted,
			Description: s.category + " purchase at " + s.merchant,
			Date:        now.AddDate(0, 0, -s.daysAgo),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repo.Create(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}
