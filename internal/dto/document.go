package dto

type UploadDocumentRequest struct {
	Type string `json:"type" validate:"required,oneof=receipt invoice statement"`
}

type DocumentResponse struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	FileName        string         `json:"file_name"`
	FileSize        int64          `json:"file_size"`
	FileURL         string         `json:"file_url"`
	ContentType     string         `json:"content_type"`
	Status          string         `json:"status"`
	Merchant        string         `json:"merchant,omitempty"`
	Category        string         `json:"category,omitempty"`
	Amount          float64        `json:"amount,omitempty"`
	Currency        string         `json:"currency,omitempty"`
	TransactionDate string         `json:"transaction_date,omitempty"`
	ExtractedData   map[string]any `json:"extracted_data,omitempty"`
	CreatedAt       string         `json:"created_at"`
	UpdatedAt       string         `json:"updated_at"`
}

type ListDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}
