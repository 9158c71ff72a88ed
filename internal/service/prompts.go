package service

import (
	"fmt"
	"strings"

	"finwatch/internal/models"
)

const extractionPrompt = `You are a financial document parser for receipts, invoices and bank statements.

Task:
- Extract the single most relevant transaction from the attached document.
- Output STRICT JSON only (no comments, no trailing commas, no extra text).

The JSON object must have these fields:
- "merchant": string
- "category": string (e.g. "Office", "Food", "Transport", "Utilities", "Other")
- "amount": number (positive)
- "currency": string (ISO 4217 code, e.g. "USD")
- "transaction_date": string, ISO format "YYYY-MM-DD"
- "type": "expense" or "income", omit if unclear
- "description": string, one short sentence

Rules:
- If the date cannot be determined, use the document date.
- Return ONLY valid raw JSON. Do NOT wrap the response in code fences.
- Output must begin with "{" and end with "}".`

// extractFromTextPrompt structures already-extracted document text.
func extractFromTextPrompt(text string) string {
	return extractionPrompt + "\n\nDocument text:\n" + text
}

const scoringPromptHeader = `You are a financial anomaly detector. Assess whether the candidate transaction is anomalous for this user given their recent history.

Output STRICT JSON only, with these fields:
- "is_anomaly": boolean
- "risk_score": number between 0.0 and 1.0
- "reason": string, one short sentence
- "recommendation": string, one actionable suggestion

Rules:
- An empty history means there is no baseline; only flag clearly suspicious amounts.
- Return ONLY valid raw JSON, beginning with "{" and ending with "}".`

// scoringPrompt renders the candidate transaction and the history window
// into the scorer prompt.
func scoringPrompt(tx *models.Transaction, history []*models.Transaction) string {
	var b strings.Builder
	b.WriteString(scoringPromptHeader)
	b.WriteString("\n\nCandidate transaction:\n")
	writeTransactionLine(&b, tx)

	b.WriteString("\nRecent history (newest first):\n")
	if len(history) == 0 {
		b.WriteString("(none)\n")
	}
	for _, h := range history {
		writeTransactionLine(&b, h)
	}
	return b.String()
}

func writeTransactionLine(b *strings.Builder, tx *models.Transaction) {
	fmt.Fprintf(b, "- %s | %s | %.2f %s | %s | %s\n",
		tx.Date.Format("2006-01-02"), tx.Merchant, tx.Amount, tx.Currency, tx.Category, tx.Type)
}
