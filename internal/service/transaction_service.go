package service

import (
	"context"
	"errors"
	"time"

	"finwatch/internal/dto"
	"finwatch/internal/models"
	"finwatch/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionService handles manual transactions and listing. Transactions
// produced by the document pipeline flow through the same repository.
type TransactionService struct {
	transactionRepo *repository.TransactionRepository
	logger          *zap.Logger
}

func NewTransactionService(transactionRepo *repository.TransactionRepository, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

func (s *TransactionService) Create(ctx context.Context, userID uuid.UUID, req *dto.CreateTransactionRequest) (*models.Transaction, error) {
	txType := models.TransactionType(req.Type)
	if txType != models.TransactionTypeIncome {
		txType = models.TransactionTypeExpense
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, errors.New("invalid date, expected YYYY-MM-DD")
		}
		date = parsed
	}

	now := time.Now()
	tx := &models.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Merchant:    req.Merchant,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Category:    req.Category,
		Type:        txType,
		Status:      models.TransactionStatusCompleted,
		Description: req.Description,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.transactionRepo.Create(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("transaction created",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("user_id", userID.String()),
	)
	return tx, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, txID uuid.UUID) (*models.Transaction, error) {
	tx, err := s.transactionRepo.GetByID(ctx, txID)
	if err != nil {
		return nil, ErrTransactionNotFound
	}
	if tx.UserID != userID {
		return nil, ErrAccessDenied
	}
	return tx, nil
}

func (s *TransactionService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.transactionRepo.ListByUserID(ctx, userID, limit, offset)
}
