package handlers

import (
	"finwatch/internal/dto"
	"finwatch/internal/models"
	"finwatch/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AnomalyHandler struct {
	anomalyService *service.AnomalyService
	logger         *zap.Logger
}

func NewAnomalyHandler(anomalyService *service.AnomalyService, logger *zap.Logger) *AnomalyHandler {
	return &AnomalyHandler{
		anomalyService: anomalyService,
		logger:         logger,
	}
}

// ListAnomalies godoc
// @Summary List user's anomalies
// @Description Get flagged transactions, optionally filtered by review status
// @Tags anomalies
// @Produce json
// @Param status query string false "Filter by status: new, reviewed, dismissed"
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {array} dto.AnomalyResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/anomalies [get]
func (h *AnomalyHandler) ListAnomalies(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	status := models.AnomalyStatus(c.Query("status"))
	anomalies, err := h.anomalyService.List(c.Context(), userID, status, c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		h.logger.Error("failed to list anomalies", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list anomalies",
		})
	}

	resp := make([]dto.AnomalyResponse, 0, len(anomalies))
	for _, a := range anomalies {
		resp = append(resp, toAnomalyResponse(a))
	}

	return c.JSON(resp)
}

// UpdateAnomalyStatus godoc
// @Summary Review an anomaly
// @Description Mark an anomaly as reviewed or dismissed
// @Tags anomalies
// @Accept json
// @Produce json
// @Param id path string true "Anomaly ID"
// @Param request body dto.UpdateAnomalyStatusRequest true "New status"
// @Security Bearer
// @Success 200 {object} dto.AnomalyResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/anomalies/{id}/status [put]
func (h *AnomalyHandler) UpdateAnomalyStatus(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	anomalyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid anomaly ID",
		})
	}

	var req dto.UpdateAnomalyStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	status := models.AnomalyStatus(req.Status)
	if status != models.AnomalyStatusReviewed && status != models.AnomalyStatusDismissed {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Status must be reviewed or dismissed",
		})
	}

	anomaly, err := h.anomalyService.UpdateStatus(c.Context(), userID, anomalyID, status)
	if err != nil {
		switch err {
		case service.ErrAnomalyNotFound:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Anomaly not found",
			})
		case service.ErrAccessDenied:
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Access denied",
			})
		default:
			h.logger.Error("failed to update anomaly", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update anomaly",
			})
		}
	}

	return c.JSON(toAnomalyResponse(anomaly))
}
