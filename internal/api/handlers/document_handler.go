package handlers

import (
	"finwatch/internal/dto"
	"finwatch/internal/models"
	"finwatch/internal/repository"
	"finwatch/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	docService *service.DocumentService
	logger     *zap.Logger
}

func NewDocumentHandler(docService *service.DocumentService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		logger:     logger,
	}
}

// UploadDocument godoc
// @Summary Upload a financial document
// @Description Upload a receipt, invoice or statement. The document is stored immediately and processed in the background.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file (PDF or image)"
// @Param type formData string true "Document type: receipt, invoice, or statement"
// @Security Bearer
// @Success 201 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/documents/upload [post]
func (h *DocumentHandler) UploadDocument(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	var docType models.DocumentType
	switch c.FormValue("type") {
	case "receipt":
		docType = models.DocumentTypeReceipt
	case "invoice":
		docType = models.DocumentTypeInvoice
	case "statement":
		docType = models.DocumentTypeStatement
	case "":
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Type is required",
		})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document type",
		})
	}

	doc, err := h.docService.Submit(c.Context(), userID, docType, file)
	if err != nil {
		if err == service.ErrEmptyFile {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "File is empty",
			})
		}
		h.logger.Error("failed to upload document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to upload document",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(toDocumentResponse(doc))
}

// GetDocument godoc
// @Summary Get a document
// @Description Get a document with its processing status and extraction results
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {object} dto.DocumentResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	doc, err := h.docService.GetDocument(c.Context(), userID, docID)
	if err != nil {
		return documentError(c, err)
	}

	return c.JSON(toDocumentResponse(doc))
}

// ListDocuments godoc
// @Summary List user's documents
// @Description Get a paginated list of uploaded documents, optionally filtered by status or search term
// @Tags documents
// @Produce json
// @Param status query string false "Filter by status: processing, processed, failed"
// @Param search query string false "Search in file name and merchant"
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {object} dto.ListDocumentsResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/documents [get]
func (h *DocumentHandler) ListDocuments(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	filter := repository.DocumentFilter{
		Status: models.DocumentStatus(c.Query("status")),
		Search: c.Query("search"),
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}

	docs, err := h.docService.ListDocuments(c.Context(), userID, filter)
	if err != nil {
		h.logger.Error("failed to list documents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list documents",
		})
	}

	resp := dto.ListDocumentsResponse{
		Documents: make([]dto.DocumentResponse, 0, len(docs)),
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	}
	for _, doc := range docs {
		resp.Documents = append(resp.Documents, toDocumentResponse(doc))
	}

	return c.JSON(resp)
}

// DeleteDocument godoc
// @Summary Delete a document
// @Description Delete a document record and its stored file. Transactions created from the document are kept.
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 204
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/documents/{id} [delete]
func (h *DocumentHandler) DeleteDocument(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	if err := h.docService.DeleteDocument(c.Context(), userID, docID); err != nil {
		return documentError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func documentError(c *fiber.Ctx, err error) error {
	switch err {
	case service.ErrDocumentNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	case service.ErrAccessDenied:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Access denied",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
}
