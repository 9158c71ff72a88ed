package service

import (
	"context"
	"fmt"
	"time"

	"finwatch/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// historyWindow bounds how many recent transactions the scorer sees.
const historyWindow = 100

// pipelineTimeout bounds one full extract-and-score run.
const pipelineTimeout = 5 * time.Minute

// runPipeline drives one document from processing to its terminal status.
// It runs detached from the upload request, so it builds its own context and
// funnels every failure, panics included, into failDocument.
func (s *DocumentService) runPipeline(docID, userID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("pipeline panic",
				zap.String("document_id", docID.String()),
				zap.Any("panic", r),
			)
			s.failDocument(docID, fmt.Errorf("internal error: %v", r))
		}
	}()

	if err := s.process(ctx, docID, userID); err != nil {
		s.logger.Error("pipeline failed",
			zap.String("document_id", docID.String()),
			zap.Error(err),
		)
		s.failDocument(docID, err)
	}
}

func (s *DocumentService) process(ctx context.Context, docID, userID uuid.UUID) error {
	doc, err := s.documents.GetByID(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	res, err := s.provider.Extract(ctx, doc.FileURL, doc.ContentType)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	doc.Status = models.DocumentStatusProcessed
	doc.Merchant = res.Merchant
	doc.Category = res.Category
	doc.Amount = res.Amount
	doc.Currency = res.Currency
	if txDate, err := time.Parse("2006-01-02", res.TransactionDate); err == nil {
		doc.TransactionDate = &txDate
	}
	doc.ExtractedData = map[string]any{
		"provider":    s.provider.Name(),
		"description": res.Description,
	}
	if res.ExtractedText != "" {
		doc.ExtractedData["extracted_text"] = sanitizeUTF8(res.ExtractedText)
	}

	// The document reaches processed before the transaction exists, so a
	// crash between the two leaves a processed document without one.
	if err := s.documents.Update(ctx, doc); err != nil {
		return fmt.Errorf("failed to finalize document: %w", err)
	}

	s.logger.Info("document processed",
		zap.String("document_id", docID.String()),
		zap.String("provider", s.provider.Name()),
		zap.String("merchant", res.Merchant),
		zap.Float64("amount", res.Amount),
	)

	tx, err := s.createTransaction(ctx, doc, res)
	if err != nil {
		return err
	}

	return s.scoreTransaction(ctx, userID, tx)
}

func (s *DocumentService) createTransaction(ctx context.Context, doc *models.Document, res *ExtractionResult) (*models.Transaction, error) {
	txType := models.TransactionType(res.Type)
	if txType != models.TransactionTypeIncome {
		txType = models.TransactionTypeExpense
	}

	date := time.Now()
	if doc.TransactionDate != nil {
		date = *doc.TransactionDate
	}

	now := time.Now()
	tx := &models.Transaction{
		ID:          uuid.New(),
		UserID:      doc.UserID,
		DocumentID:  &doc.ID,
		Merchant:    res.Merchant,
		Amount:      res.Amount,
		Currency:    res.Currency,
		Category:    res.Category,
		Type:        txType,
		Status:      models.TransactionStatusCompleted,
		Description: res.Description,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}

// scoreTransaction asks the provider whether the new transaction is
// anomalous given the user's recent history and records an anomaly when it
// is. A nil verdict means no anomaly.
func (s *DocumentService) scoreTransaction(ctx context.Context, userID uuid.UUID, tx *models.Transaction) error {
	history, err := s.transactions.ListRecentByUserID(ctx, userID, historyWindow)
	if err != nil {
		return fmt.Errorf("failed to load transaction history: %w", err)
	}

	verdict, err := s.provider.Score(ctx, tx, history)
	if err != nil {
		return fmt.Errorf("scoring failed: %w", err)
	}
	if verdict == nil || !verdict.IsAnomaly {
		return nil
	}

	now := time.Now()
	anomaly := &models.Anomaly{
		ID:             uuid.New(),
		UserID:         userID,
		TransactionID:  tx.ID,
		Type:           models.AnomalyTypeUnusualAmount,
		Severity:       models.SeverityForRisk(verdict.RiskScore),
		Description:    verdict.Reason,
		Status:         models.AnomalyStatusNew,
		RiskScore:      verdict.RiskScore,
		Recommendation: verdict.Recommendation,
		Provider:       s.provider.Name(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.anomalies.Create(ctx, anomaly); err != nil {
		return fmt.Errorf("failed to record anomaly: %w", err)
	}

	s.logger.Info("anomaly detected",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("severity", string(anomaly.Severity)),
		zap.Float64("risk_score", verdict.RiskScore),
	)
	return nil
}

// failDocument marks the document failed and stores the reason. It is the
// terminal write for every pipeline error, including ones raised after the
// document already reached processed. It runs on its own deadline because
// the pipeline context may already be expired.
func (s *DocumentService) failDocument(docID uuid.UUID, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	doc, err := s.documents.GetByID(ctx, docID)
	if err != nil {
		s.logger.Error("failed to load document for failure update",
			zap.String("document_id", docID.String()),
			zap.Error(err),
		)
		return
	}

	doc.Status = models.DocumentStatusFailed
	if doc.ExtractedData == nil {
		doc.ExtractedData = map[string]any{}
	}
	doc.ExtractedData["error"] = cause.Error()

	if err := s.documents.Update(ctx, doc); err != nil {
		s.logger.Error("failed to mark document as failed",
			zap.String("document_id", docID.String()),
			zap.Error(err),
		)
	}
}
