package service

import (
	"context"

	"finwatch/internal/models"
	"finwatch/internal/storage"
	"finwatch/pkg/config"

	"go.uber.org/zap"
)

// ExtractionResult holds the structured fields an AI provider extracts from
// one financial document.
type ExtractionResult struct {
	Merchant        string  `json:"merchant"`
	Category        string  `json:"category"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	TransactionDate string  `json:"transaction_date"`
	Type            string  `json:"type,omitempty"`
	Description     string  `json:"description"`
	ExtractedText   string  `json:"extracted_text,omitempty"`
}

// AnomalyVerdict is the scorer's assessment of a candidate transaction.
// A nil verdict is treated the same as IsAnomaly=false.
type AnomalyVerdict struct {
	IsAnomaly      bool    `json:"is_anomaly"`
	RiskScore      float64 `json:"risk_score"`
	Reason         string  `json:"reason"`
	Recommendation string  `json:"recommendation"`
}

// ExtractionProvider converts a stored document into structured transaction
// fields. Failures are reported via the returned error and handled at the
// pipeline boundary.
type ExtractionProvider interface {
	Name() string
	Extract(ctx context.Context, fileURL, contentType string) (*ExtractionResult, error)
}

// AnomalyScorer assesses a candidate transaction against a bounded window of
// the same user's recent transactions.
type AnomalyScorer interface {
	Name() string
	Score(ctx context.Context, tx *models.Transaction, history []*models.Transaction) (*AnomalyVerdict, error)
}

// Provider is an AI backend that can both extract and score.
type Provider interface {
	ExtractionProvider
	AnomalyScorer
}

// NewProvider selects the AI provider by configuration precedence: Gemini
// when its API key is configured, GigaChat otherwise. The choice is fixed at
// startup; a failing call is a pipeline failure, never a fallback to the
// other provider.
func NewProvider(ctx context.Context, cfg *config.Config, blobs storage.BlobStore, logger *zap.Logger) (Provider, error) {
	files := newFileResolver(cfg.Storage.UploadDir, blobs)
	if cfg.Gemini.APIKey != "" {
		return NewGeminiProvider(ctx, &cfg.Gemini, files, logger)
	}
	return NewGigaChatProvider(ctx, &cfg.GigaChat, files, logger)
}
