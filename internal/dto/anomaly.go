package dto

type AnomalyResponse struct {
	ID             string  `json:"id"`
	TransactionID  string  `json:"transaction_id"`
	Type           string  `json:"type"`
	Severity       string  `json:"severity"`
	Description    string  `json:"description"`
	Status         string  `json:"status"`
	RiskScore      float64 `json:"risk_score"`
	Recommendation string  `json:"recommendation"`
	Provider       string  `json:"provider"`
	CreatedAt      string  `json:"created_at"`
}

type UpdateAnomalyStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=reviewed dismissed"`
}
