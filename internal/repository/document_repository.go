package repository

import (
	"context"

	"finwatch/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var documentColumns = []string{
	"id", "user_id", "type", "file_name", "file_key", "file_url", "file_size",
	"content_type", "status", "merchant", "category", "amount", "currency",
	"transaction_date", "extracted_data", "created_at", "updated_at",
}

// DocumentFilter narrows document listings. Zero values mean "no filter".
type DocumentFilter struct {
	Status models.DocumentStatus
	Search string
	Limit  int
	Offset int
}

type DocumentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDocumentRepository(db *pgxpool.Pool, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := squirrel.Insert("documents").
		Columns(documentColumns...).
		Values(doc.ID, doc.UserID, doc.Type, doc.FileName, doc.FileKey, doc.FileURL, doc.FileSize,
			doc.ContentType, doc.Status, doc.Merchant, doc.Category, doc.Amount, doc.Currency,
			doc.TransactionDate, doc.ExtractedData, doc.CreatedAt, doc.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := squirrel.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var doc models.Document
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&doc.ID, &doc.UserID, &doc.Type, &doc.FileName, &doc.FileKey, &doc.FileURL, &doc.FileSize,
		&doc.ContentType, &doc.Status, &doc.Merchant, &doc.Category, &doc.Amount, &doc.Currency,
		&doc.TransactionDate, &doc.ExtractedData, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

// Update persists the mutable document fields: status and everything the
// pipeline fills in on finalize or failure.
func (r *DocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := squirrel.Update("documents").
		Set("status", doc.Status).
		Set("merchant", doc.Merchant).
		Set("category", doc.Category).
		Set("amount", doc.Amount).
		Set("currency", doc.Currency).
		Set("transaction_date", doc.TransactionDate).
		Set("extracted_data", doc.ExtractedData).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": doc.ID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *DocumentRepository) ListByUserID(ctx context.Context, userID uuid.UUID, filter DocumentFilter) ([]*models.Document, error) {
	query := squirrel.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(squirrel.Or{
			squirrel.ILike{"file_name": pattern},
			squirrel.ILike{"merchant": pattern},
		})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []*models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(
			&doc.ID, &doc.UserID, &doc.Type, &doc.FileName, &doc.FileKey, &doc.FileURL, &doc.FileSize,
			&doc.ContentType, &doc.Status, &doc.Merchant, &doc.Category, &doc.Amount, &doc.Currency,
			&doc.TransactionDate, &doc.ExtractedData, &doc.CreatedAt, &doc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		documents = append(documents, &doc)
	}

	return documents, rows.Err()
}

func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := squirrel.Delete("documents").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
