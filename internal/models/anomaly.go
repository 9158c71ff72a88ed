package models

import (
	"time"

	"github.com/google/uuid"
)

type AnomalyType string

const (
	AnomalyTypeUnusualAmount AnomalyType = "unusual_amount"
)

type AnomalySeverity string

const (
	AnomalySeverityLow    AnomalySeverity = "low"
	AnomalySeverityMedium AnomalySeverity = "medium"
	AnomalySeverityHigh   AnomalySeverity = "high"
)

type AnomalyStatus string

const (
	AnomalyStatusNew       AnomalyStatus = "new"
	AnomalyStatusReviewed  AnomalyStatus = "reviewed"
	AnomalyStatusDismissed AnomalyStatus = "dismissed"
)

// Anomaly is raised when the scorer flags a transaction. At most one anomaly
// is created per transaction by the pipeline.
type Anomaly struct {
	ID             uuid.UUID       `db:"id"`
	UserID         uuid.UUID       `db:"user_id"`
	TransactionID  uuid.UUID       `db:"transaction_id"`
	Type           AnomalyType     `db:"type"`
	Severity       AnomalySeverity `db:"severity"`
	Description    string          `db:"description"`
	Status         AnomalyStatus   `db:"status"`
	RiskScore      float64         `db:"risk_score"`
	Recommendation string          `db:"recommendation"`
	Provider       string          `db:"provider"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// SeverityForRisk buckets a risk score in [0, 1] into a severity level.
// Boundaries: 0.7 belongs to medium, 0.4 belongs to low.
func SeverityForRisk(risk float64) AnomalySeverity {
	switch {
	case risk > 0.7:
		return AnomalySeverityHigh
	case risk > 0.4:
		return AnomalySeverityMedium
	default:
		return AnomalySeverityLow
	}
}
