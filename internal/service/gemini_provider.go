package service

import (
	"context"
	"fmt"

	"finwatch/internal/models"
	"finwatch/pkg/config"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiProvider extracts and scores via the Google Gemini API. Documents
// are sent inline as multimodal blobs, so PDFs and images share one path.
type GeminiProvider struct {
	client *genai.Client
	model  string
	files  *fileResolver
	logger *zap.Logger
}

func NewGeminiProvider(ctx context.Context, cfg *config.GeminiConfig, files *fileResolver, logger *zap.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		model:  cfg.Model,
		files:  files,
		logger: logger,
	}, nil
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) Extract(ctx context.Context, fileURL, contentType string) (*ExtractionResult, error) {
	data, err := p.files.Read(ctx, fileURL)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: extractionPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: contentType,
						Data:     data,
					},
				},
			},
		},
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini extraction failed: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("gemini returned an empty extraction response")
	}
	p.logger.Debug("gemini extraction response", zap.Int("length", len(raw)))

	return parseExtractionJSON(raw)
}

func (p *GeminiProvider) Score(ctx context.Context, tx *models.Transaction, history []*models.Transaction) (*AnomalyVerdict, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: scoringPrompt(tx, history)}},
		},
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini scoring failed: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("gemini returned an empty scoring response")
	}

	return parseVerdictJSON(raw)
}
