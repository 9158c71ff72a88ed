package models

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeExpense TransactionType = "expense"
	TransactionTypeIncome  TransactionType = "income"
)

type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusPending   TransactionStatus = "pending"
)

// Transaction is a confirmed financial operation. DocumentID is nil for
// transactions entered manually, outside the document pipeline.
type Transaction struct {
	ID          uuid.UUID         `db:"id"`
	UserID      uuid.UUID         `db:"user_id"`
	DocumentID  *uuid.UUID        `db:"document_id"`
	Merchant    string            `db:"merchant"`
	Amount      float64           `db:"amount"`
	Currency    string            `db:"currency"`
	Category    string            `db:"category"`
	Type        TransactionType   `db:"type"`
	Status      TransactionStatus `db:"status"`
	Description string            `db:"description"`
	Date        time.Time         `db:"date"`
	CreatedAt   time.Time         `db:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at"`
}
