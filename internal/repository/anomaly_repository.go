package repository

import (
	"context"

	"finwatch/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var anomalyColumns = []string{
	"id", "user_id", "transaction_id", "type", "severity", "description",
	"status", "risk_score", "recommendation", "provider", "created_at", "updated_at",
}

type AnomalyRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAnomalyRepository(db *pgxpool.Pool, logger *zap.Logger) *AnomalyRepository {
	return &AnomalyRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AnomalyRepository) Create(ctx context.Context, anomaly *models.Anomaly) error {
	query := squirrel.Insert("anomalies").
		Columns(anomalyColumns...).
		Values(anomaly.ID, anomaly.UserID, anomaly.TransactionID, anomaly.Type, anomaly.Severity,
			anomaly.Description, anomaly.Status, anomaly.RiskScore, anomaly.Recommendation,
			anomaly.Provider, anomaly.CreatedAt, anomaly.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *AnomalyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Anomaly, error) {
	query := squirrel.Select(anomalyColumns...).
		From("anomalies").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var anomaly models.Anomaly
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&anomaly.ID, &anomaly.UserID, &anomaly.TransactionID, &anomaly.Type, &anomaly.Severity,
		&anomaly.Description, &anomaly.Status, &anomaly.RiskScore, &anomaly.Recommendation,
		&anomaly.Provider, &anomaly.CreatedAt, &anomaly.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &anomaly, nil
}

func (r *AnomalyRepository) ListByUserID(ctx context.Context, userID uuid.UUID, status models.AnomalyStatus, limit, offset int) ([]*models.Anomaly, error) {
	query := squirrel.Select(anomalyColumns...).
		From("anomalies").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)

	if status != "" {
		query = query.Where(squirrel.Eq{"status": status})
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

	var anomalies []*models.Anomaly
	for rows.Next() {
		var anomaly models.Anomaly
		if err := rows.Scan(
			&anomaly.ID, &anomaly.UserID, &anomaly.TransactionID, &anomaly.Type, &anomaly.Severity,
			&anomaly.Description, &anomaly.Status, &anomaly.RiskScore, &anomaly.Recommendation,
			&anomaly.Provider, &anomaly.CreatedAt, &anomaly.UpdatedAt,
		); err != nil {
			return nil, err
		}
		anomalies = append(anomalies, &anomaly)
	}

	return anomalies, rows.Err()
}

func (r *AnomalyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AnomalyStatus) error {
	query := squirrel.Update("anomalies").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
