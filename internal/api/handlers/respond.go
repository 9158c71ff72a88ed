package handlers

import (
	"time"

	"finwatch/internal/dto"
	"finwatch/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userIDStr, ok := c.Locals("userID").(string)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, err
	}

	return userID, nil
}

func toDocumentResponse(doc *models.Document) dto.DocumentResponse {
	resp := dto.DocumentResponse{
		ID:            doc.ID.String(),
		Type:          string(doc.Type),
		FileName:      doc.FileName,
		FileSize:      doc.FileSize,
		FileURL:       doc.FileURL,
		ContentType:   doc.ContentType,
		Status:        string(doc.Status),
		Merchant:      doc.Merchant,
		Category:      doc.Category,
		Amount:        doc.Amount,
		Currency:      doc.Currency,
		ExtractedData: doc.ExtractedData,
		CreatedAt:     doc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     doc.UpdatedAt.Format(time.RFC3339),
	}
	if doc.TransactionDate != nil {
		resp.TransactionDate = doc.TransactionDate.Format("2006-01-02")
	}
	return resp
}

func toTransactionResponse(tx *models.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:          tx.ID.String(),
		Merchant:    tx.Merchant,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Category:    tx.Category,
		Type:        string(tx.Type),
		Status:      string(tx.Status),
		Description: tx.Description,
		Date:        tx.Date.Format("2006-01-02"),
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
	}
	if tx.DocumentID != nil {
		resp.DocumentID = tx.DocumentID.String()
	}
	return resp
}

func toAnomalyResponse(a *models.Anomaly) dto.AnomalyResponse {
	return dto.AnomalyResponse{
		ID:             a.ID.String(),
		TransactionID:  a.TransactionID.String(),
		Type:           string(a.Type),
		Severity:       string(a.Severity),
		Description:    a.Description,
		Status:         string(a.Status),
		RiskScore:      a.RiskScore,
		Recommendation: a.Recommendation,
		Provider:       a.Provider,
		CreatedAt:      a.CreatedAt.Format(time.RFC3339),
	}
}
