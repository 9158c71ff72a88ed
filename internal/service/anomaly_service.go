package service

import (
	"context"
	"errors"

	"finwatch/internal/models"
	"finwatch/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrAnomalyNotFound = errors.New("anomaly not found")

type AnomalyService struct {
	anomalyRepo *repository.AnomalyRepository
	logger      *zap.Logger
}

func NewAnomalyService(anomalyRepo *repository.AnomalyRepository, logger *zap.Logger) *AnomalyService {
	return &AnomalyService{
		anomalyRepo: anomalyRepo,
		logger:      logger,
	}
}

func (s *AnomalyService) List(ctx context.Context, userID uuid.UUID, status models.AnomalyStatus, limit, offset int) ([]*models.Anomaly, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.anomalyRepo.ListByUserID(ctx, userID, status, limit, offset)
}

// UpdateStatus moves an anomaly to reviewed or dismissed after an ownership
// check.
func (s *AnomalyService) UpdateStatus(ctx context.Context, userID, anomalyID uuid.UUID, status models.AnomalyStatus) (*models.Anomaly, error) {
	anomaly, err := s.anomalyRepo.GetByID(ctx, anomalyID)
	if err != nil {
		return nil, ErrAnomalyNotFound
	}
	if anomaly.UserID != userID {
		return nil, ErrAccessDenied
	}

	if err := s.anomalyRepo.UpdateStatus(ctx, anomalyID, status); err != nil {
		return nil, err
	}
	anomaly.Status = status

	s.logger.Info("anomaly status updated",
		zap.String("anomaly_id", anomalyID.String()),
		zap.String("status", string(status)),
	)
	return anomaly, nil
}
