package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"finwatch/internal/models"
	"finwatch/internal/repository"
	"finwatch/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDocStore struct {
	mu        sync.Mutex
	docs      map[uuid.UUID]*models.Document
	createErr error
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: make(map[uuid.UUID]*models.Document)}
}

func (s *fakeDocStore) Create(ctx context.Context, doc *models.Document) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *doc
	s.docs[doc.ID] = &copied
	return nil
}

func (s *fakeDocStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, errors.New("no rows in result set")
	}
	copied := *doc
	return &copied, nil
}

func (s *fakeDocStore) Update(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; !ok {
		return errors.New("no rows in result set")
	}
	copied := *doc
	s.docs[doc.ID] = &copied
	return nil
}

func (s *fakeDocStore) ListByUserID(ctx context.Context, userID uuid.UUID, filter repository.DocumentFilter) ([]*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Document
	for _, doc := range s.docs {
		if doc.UserID == userID {
			copied := *doc
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeDocStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

func (s *fakeDocStore) status(id uuid.UUID) models.DocumentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[id].Status
}

type fakeTxStore struct {
	mu             sync.Mutex
	txs            []*models.Transaction
	onCreate       func(tx *models.Transaction)
	requestedLimit int
	listErr        error
}

func (s *fakeTxStore) Create(ctx context.Context, tx *models.Transaction) error {
	if s.onCreate != nil {
		s.onCreate(tx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *tx
	s.txs = append(s.txs, &copied)
	return nil
}

func (s *fakeTxStore) ListRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestedLimit = limit
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*models.Transaction
	for _, tx := range s.txs {
		if tx.UserID == userID && len(out) < limit {
			copied := *tx
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeAnomalyStore struct {
	mu        sync.Mutex
	anomalies []*models.Anomaly
}

func (s *fakeAnomalyStore) Create(ctx context.Context, anomaly *models.Anomaly) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *anomaly
	s.anomalies = append(s.anomalies, &copied)
	return nil
}

type fakeBlobStore struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	deleted   []string
	deleteErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (s *fakeBlobStore) Put(ctx context.Context, data []byte, folder, fileName string) (*storage.PutResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := folder + "/" + uuid.New().String() + "-" + fileName
	s.blobs[key] = data
	return &storage.PutResult{Key: key, URL: "/uploads/" + key, Size: int64(len(data))}, nil
}

func (s *fakeBlobStore) Delete(ctx context.Context, key, kindHint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.blobs, key)
	return nil
}

type fakeProvider struct {
	extract func(ctx context.Context, fileURL, contentType string) (*ExtractionResult, error)
	score   func(ctx context.Context, tx *models.Transaction, history []*models.Transaction) (*AnomalyVerdict, error)
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Extract(ctx context.Context, fileURL, contentType string) (*ExtractionResult, error) {
	return p.extract(ctx, fileURL, contentType)
}

func (p *fakeProvider) Score(ctx context.Context, tx *models.Transaction, history []*models.Transaction) (*AnomalyVerdict, error) {
	return p.score(ctx, tx, history)
}

func okExtraction() *ExtractionResult {
	return &ExtractionResult{
		Merchant:        "Fresh Market",
		Category:        "Food",
		Amount:          42.10,
		Currency:        "USD",
		TransactionDate: "2026-08-20",
		Description:     "Groceries",
	}
}

func noAnomaly(ctx context.Context, tx *models.Transaction, history []*models.Transaction) (*AnomalyVerdict, error) {
	return &AnomalyVerdict{IsAnomaly: false, RiskScore: 0.1}, nil
}

type pipelineEnv struct {
	svc       *DocumentService
	docs      *fakeDocStore
	txs       *fakeTxStore
	anomalies *fakeAnomalyStore
	blobs     *fakeBlobStore
	provider  *fakeProvider
}

func newPipelineEnv() *pipelineEnv {
	env := &pipelineEnv{
		docs:      newFakeDocStore(),
		txs:       &fakeTxStore{},
		anomalies: &fakeAnomalyStore{},
		blobs:     newFakeBlobStore(),
		provider: &fakeProvider{
			extract: func(ctx context.Context, fileURL, contentType string) (*ExtractionResult, error) {
				return okExtraction(), nil
			},
			score: noAnomaly,
		},
	}
	env.svc = NewDocumentService(env.docs, env.txs, env.anomalies, env.blobs, env.provider, zap.NewNop())
	return env
}

func (env *pipelineEnv) seedDocument(userID uuid.UUID) *models.Document {
	doc := &models.Document{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        models.DocumentTypeReceipt,
		FileName:    "receipt.pdf",
		FileKey:     "documents/receipt.pdf",
		FileURL:     "/uploads/documents/receipt.pdf",
		ContentType: "application/pdf",
		Status:      models.DocumentStatusProcessing,
	}
	_ = env.docs.Create(context.Background(), doc)
	return doc
}

func uploadHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["file"][0]
}

func TestSubmitReturnsProcessingDocument(t *testing.T) {
	env := newPipelineEnv()
	userID := uuid.New()

	doc, err := env.svc.Submit(context.Background(), userID, models.DocumentTypeReceipt, uploadHeader(t, "receipt.pdf", []byte("%PDF-1.4 demo")))
	require.NoError(t, err)

	assert.Equal(t, models.DocumentStatusProcessing, doc.Status)
	assert.Equal(t, userID, doc.UserID)
	assert.NotEmpty(t, doc.FileKey)
	assert.NotEmpty(t, doc.FileURL)

	// The background pipeline finishes on its own.
	assert.Eventually(t, func() bool {
		return env.docs.status(doc.ID) == models.DocumentStatusProcessed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubmitRejectsEmptyFile(t *testing.T) {
	env := newPipelineEnv()

	_, err := env.svc.Submit(context.Background(), uuid.New(), models.DocumentTypeReceipt, uploadHeader(t, "empty.pdf", nil))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestSubmitCleansUpBlobWhenCreateFails(t *testing.T) {
	env := newPipelineEnv()
	env.docs.createErr = errors.New("db down")

	_, err := env.svc.Submit(context.Background(), uuid.New(), models.DocumentTypeReceipt, uploadHeader(t, "receipt.pdf", []byte("data")))
	require.Error(t, err)
	assert.Len(t, env.blobs.deleted, 1)
}

func TestPipelineProcessesDocumentBeforeTransaction(t *testing.T) {
	env := newPipelineEnv()
	userID := uuid.New()
	doc := env.seedDocument(userID)

	var statusAtTxCreate models.DocumentStatus
	env.txs.onCreate = func(tx *models.Transaction) {
		statusAtTxCreate = env.docs.status(doc.ID)
	}

	env.svc.runPipeline(doc.ID, userID)

	assert.Equal(t, models.DocumentStatusProcessed, statusAtTxCreate)

	require.Len(t, env.txs.txs, 1)
	tx := env.txs.txs[0]
	assert.Equal(t, doc.ID, *tx.DocumentID)
	assert.Equal(t, "Fresh Market", tx.Merchant)
	assert.Equal(t, 42.10, tx.Amount)
	assert.Equal(t, models.TransactionTypeExpense, tx.Type)
	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)

	stored, err := env.docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fresh Market", stored.Merchant)
	assert.Equal(t, "fake", stored.ExtractedData["provider"])
	require.NotNil(t, stored.TransactionDate)
	assert.Equal(t, "2026-08-20", stored.TransactionDate.Format("2006-01-02"))
}

func TestPipelineExtractionFailure(t *testing.T) {
	env := newPipelineEnv()
	userID := uuid.New()
	doc := env.seedDocument(userID)
	env.provider.extract = func(ctx context.Context, fileURL, contentType string) (*ExtractionResult, error) {
		return nil, errors.New("model unavailable")
	}

	env.svc.runPipeline(doc.ID, userID)

	stored, err := env.docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusFailed, stored.Status)
	assert.Contains(t, stored.ExtractedData["error"], "model unavailable")
	assert.Empty(t, env.txs.txs)
	assert.Empty(t, env.anomalies.anomalies)
}

func TestPipelineScoringFailureMarksDocumentFailed(t *testing.T) {
	env := newPipelineEnv()
	userID := uuid.New()
	doc := env.seedDocument(userID)
	env.provider.score = func(ctx context.Context, tx *models.Transaction, history []*models.Transaction) (*AnomalyVerdict, error) {
		return nil, errors.New("scoring timeout")
	}

	env.svc.runPipeline(doc.ID, userID)

	// The transaction survives but the document records the failure.
	assert.Len(t, env.txs.txs, 1)
	stored, err := env.docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusFailed, stored.Status)
	assert.Contains(t, stored.ExtractedData["error"], "scoring timeout")
}

func TestPipelinePanicMarksDocumentFailed(t *testing.T) {
	env := newPipelineEnv()
	userID := uuid.New()
	doc := env.seedDocument(userID)
	env.provider.extract = func(ctx context.Context, fileURL, contentType string) (*ExtractionResult, error) {
		panic("boom")
	}

	env.svc.runPipeline(doc.ID, userID)

	stored, err := env.docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusFailed, stored.Status)
	assert.Contains(t, stored.ExtractedData["error"], "boom")
}

func TestPipelineNoAnomalyOnNegativeVerdict(t *testing.T) {
	env := newPipelineEnv()
	userID := uuid.New()
	doc := env.seedDocument(userID)

	env.svc.runPipeline(doc.ID, userID)

	assert.Equal(t, models.DocumentStatusProcessed, env.docs.status(doc.ID))
	assert.Empty(t, env.anomalies.anomalies)
}

func TestPipelineNoAnomalyOnNilVerdict(t *testing.T) {
	env := newPipelineEnv()
	userID := uuid.New()
	doc := env.seedDocument(userID)
	env.provider.score = func(ctx context.Context, tx *models.Transaction, history []*models.Transaction) (*AnomalyVerdict, error) {
		return nil, nil
	}

	env.svc.runPipeline(doc.ID, userID)

	assert.Equal(t, models.DocumentStatusProcessed, env.docs.status(doc.ID))
	assert.Empty(t, env.anomalies.anomalies)
}

func TestPipelineRecordsAnomalyWithSeverity(t *testing.T) {
	cases := []struct {
		risk     float64
		severity models.AnomalySeverity
	}{
		{0.75, models.AnomalySeverityHigh},
		{0.7, models.AnomalySeverityMedium},
		{0.55, models.AnomalySeverityMedium},
		{0.4, models.AnomalySeverityLow},
		{0.2, models.AnomalySeverityLow},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("risk=%.2f", tc.risk), func(t *testing.T) {
			env := newPipelineEnv()
			userID := uuid.New()
			doc := env.seedDocument(userID)
			env.provider.score = func(ctx context.Context, tx *models.Transaction, history []*models.Transaction) (*AnomalyVerdict, error) {
				return &AnomalyVerdict{
					IsAnomaly:      true,
					RiskScore:      tc.risk,
					Reason:         "amount far above baseline",
					Recommendation: "verify the charge with the merchant",
				}, nil
			}

			env.svc.runPipeline(doc.ID, userID)

			require.Len(t, env.anomalies.anomalies, 1)
			anomaly := env.anomalies.anomalies[0]
			assert.Equal(t, tc.severity, anomaly.Severity)
			assert.Equal(t, models.AnomalyStatusNew, anomaly.Status)
			assert.Equal(t, models.AnomalyTypeUnusualAmount, anomaly.Type)
			assert.Equal(t, env.txs.txs[0].ID, anomaly.TransactionID)
			assert.Equal(t, tc.risk, anomaly.RiskScore)
			assert.Equal(t, "fake", anomaly.Provider)
		})
	}
}

func TestPipelineBoundsHistoryWindow(t *testing.T) {
	env := newPipelineEnv()
	userID := uuid.New()
	doc := env.seedDocument(userID)

	var historyLen int
	env.provider.score = func(ctx context.Context, tx *models.Transaction, history []*models.Transaction) (*AnomalyVerdict, error) {
		historyLen = len(history)
		return nil, nil
	}
	for i := 0; i < 150; i++ {
		_ = env.txs.Create(context.Background(), &models.Transaction{ID: uuid.New(), UserID: userID})
	}

	env.svc.runPipeline(doc.ID, userID)

	assert.Equal(t, historyWindow, env.txs.requestedLimit)
	assert.LessOrEqual(t, historyLen, historyWindow)
}

func TestPipelineHistoryFetchFailure(t *testing.T) {
	env := newPipelineEnv()
	userID := uuid.New()
	doc := env.seedDocument(userID)
	env.txs.listErr = errors.New("db timeout")

	env.svc.runPipeline(doc.ID, userID)

	stored, err := env.docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusFailed, stored.Status)
}

func TestGetDocumentOwnership(t *testing.T) {
	env := newPipelineEnv()
	owner := uuid.New()
	doc := env.seedDocument(owner)

	_, err := env.svc.GetDocument(context.Background(), uuid.New(), doc.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	got, err := env.svc.GetDocument(context.Background(), owner, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)

	_, err = env.svc.GetDocument(context.Background(), owner, uuid.New())
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDeleteDocumentBestEffortBlobDelete(t *testing.T) {
	env := newPipelineEnv()
	owner := uuid.New()
	doc := env.seedDocument(owner)
	env.blobs.deleteErr = errors.New("bucket unreachable")

	err := env.svc.DeleteDocument(context.Background(), owner, doc.ID)
	require.NoError(t, err)

	_, err = env.docs.GetByID(context.Background(), doc.ID)
	assert.Error(t, err)
	assert.Equal(t, []string{doc.FileKey}, env.blobs.deleted)
}

func TestDeleteDocumentOwnership(t *testing.T) {
	env := newPipelineEnv()
	doc := env.seedDocument(uuid.New())

	err := env.svc.DeleteDocument(context.Background(), uuid.New(), doc.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)
}
