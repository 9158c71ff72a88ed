package models

import (
	"time"

	"github.com/google/uuid"
)

type DocumentType string

const (
	DocumentTypeReceipt   DocumentType = "receipt"
	DocumentTypeInvoice   DocumentType = "invoice"
	DocumentTypeStatement DocumentType = "statement"
)

// DocumentStatus is the processing lifecycle of an uploaded document.
// A document is created in processing state and is moved exactly once to
// processed or failed by the background pipeline.
type DocumentStatus string

const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusProcessed  DocumentStatus = "processed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

type Document struct {
	ID          uuid.UUID      `db:"id"`
	UserID      uuid.UUID      `db:"user_id"`
	Type        DocumentType   `db:"type"`
	FileName    string         `db:"file_name"`
	FileKey     string         `db:"file_key"`
	FileURL     string         `db:"file_url"`
	FileSize    int64          `db:"file_size"`
	ContentType string         `db:"content_type"`
	Status      DocumentStatus `db:"status"`

	// Filled by the pipeline when extraction succeeds.
	Merchant        string     `db:"merchant"`
	Category        string     `db:"category"`
	Amount          float64    `db:"amount"`
	Currency        string     `db:"currency"`
	TransactionDate *time.Time `db:"transaction_date"`

	// Free-form extraction payload: extracted text, description, the
	// provider that produced the result, or the failure reason.
	ExtractedData map[string]any `db:"extracted_data"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
