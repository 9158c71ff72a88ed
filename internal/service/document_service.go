package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"finwatch/internal/models"
	"finwatch/internal/repository"
	"finwatch/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrAccessDenied     = errors.New("access denied")
	ErrEmptyFile        = errors.New("file is empty")
)

// Store interfaces are declared on the consumer side so the pipeline can be
// tested against in-memory fakes.
type documentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	ListByUserID(ctx context.Context, userID uuid.UUID, filter repository.DocumentFilter) ([]*models.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type transactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	ListRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Transaction, error)
}

type anomalyStore interface {
	Create(ctx context.Context, anomaly *models.Anomaly) error
}

// DocumentService owns the document lifecycle: synchronous upload and CRUD,
// plus the asynchronous processing pipeline started per upload.
type DocumentService struct {
	documents    documentStore
	transactions transactionStore
	anomalies    anomalyStore
	blobs        storage.BlobStore
	provider     Provider
	logger       *zap.Logger
}

func NewDocumentService(
	documents documentStore,
	transactions transactionStore,
	anomalies anomalyStore,
	blobs storage.BlobStore,
	provider Provider,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		documents:    documents,
		transactions: transactions,
		anomalies:    anomalies,
		blobs:        blobs,
		provider:     provider,
		logger:       logger,
	}
}

// Submit stores the uploaded file, creates the document record in processing
// state and kicks off the background pipeline. It returns as soon as the
// record exists; extraction and scoring happen asynchronously.
func (s *DocumentService) Submit(ctx context.Context, userID uuid.UUID, docType models.DocumentType, fileHeader *multipart.FileHeader) (*models.Document, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	put, err := s.blobs.Put(ctx, data, "documents", fileHeader.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	now := time.Now()
	doc := &models.Document{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        docType,
		FileName:    fileHeader.Filename,
		FileKey:     put.Key,
		FileURL:     put.URL,
		FileSize:    put.Size,
		ContentType: contentType,
		Status:      models.DocumentStatusProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.documents.Create(ctx, doc); err != nil {
		// The record never existed, so the stored blob is orphaned.
		if delErr := s.blobs.Delete(ctx, put.Key, string(doc.Type)); delErr != nil {
			s.logger.Warn("failed to clean up orphaned file",
				zap.String("file_key", put.Key),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	s.logger.Info("document submitted",
		zap.String("document_id", doc.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("type", string(docType)),
		zap.Int64("size", doc.FileSize),
	)

	go s.runPipeline(doc.ID, userID)

	return doc, nil
}

func (s *DocumentService) GetDocument(ctx context.Context, userID, docID uuid.UUID) (*models.Document, error) {
	doc, err := s.documents.GetByID(ctx, docID)
	if err != nil {
		return nil, ErrDocumentNotFound
	}
	if doc.UserID != userID {
		return nil, ErrAccessDenied
	}
	return doc, nil
}

func (s *DocumentService) ListDocuments(ctx context.Context, userID uuid.UUID, filter repository.DocumentFilter) ([]*models.Document, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.documents.ListByUserID(ctx, userID, filter)
}

// DeleteDocument removes the document record and makes a best-effort attempt
// to delete the stored file. Transactions created from the document are kept.
func (s *DocumentService) DeleteDocument(ctx context.Context, userID, docID uuid.UUID) error {
	doc, err := s.documents.GetByID(ctx, docID)
	if err != nil {
		return ErrDocumentNotFound
	}
	if doc.UserID != userID {
		return ErrAccessDenied
	}

	if err := s.documents.Delete(ctx, docID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if err := s.blobs.Delete(ctx, doc.FileKey, string(doc.Type)); err != nil {
		s.logger.Warn("failed to delete stored file",
			zap.String("document_id", docID.String()),
			zap.String("file_key", doc.FileKey),
			zap.Error(err),
		)
	}

	s.logger.Info("document deleted",
		zap.String("document_id", docID.String()),
		zap.String("user_id", userID.String()),
	)
	return nil
}
