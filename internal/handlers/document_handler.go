package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/uniworld-consultancy/case-service/internal/models"
	"github.com/uniworld-consultancy/case-service/internal/services"
	"github.com/uniworld-consultancy/case-service/internal/utils"
	"github.com/uniworld-consultancy/case-service/internal/validator"
)

type DocumentHandler struct {
	BaseHandler
	documentService services.DocumentService
	validator       *validator.Validator
}

func NewDocumentHandler(
	documentService services.DocumentService,
	validator *validator.Validator,
	logger utils.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		BaseHandler:     NewBaseHandler(logger),
		documentService: documentService,
		validator:       validator,
	}
}

// UploadDocument uploads a file against an application
// @Summary Upload document
// @Description Uploads a supporting document as multipart form data
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param application_id formData uint true "Application ID"
// @Param document_type formData string true "Document type"
// @Param file formData file true "Document file"
// @Success 201 {object} services.DocumentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Router /documents [post]
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	applicationID, err := strconv.ParseUint(c.PostForm("application_id"), 10, 64)
	if err != nil || applicationID == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid application_id form field",
		})
		return
	}

	documentType := c.PostForm("document_type")
	if documentType == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "document_type form field is required",
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "file form field is required",
			Details: err.Error(),
		})
		return
	}

	if fileHeader.Size > validator.MaxDocumentSize {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Message: fmt.Sprintf("file exceeds the %d MB limit", validator.MaxDocumentSize>>20),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to read uploaded file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	h.LogRequest(c, "Uploading document",
		"application_id", applicationID,
		"document_type", documentType,
		"file_name", fileHeader.Filename)

	req := &services.UploadDocumentRequest{
		ApplicationID: uint(applicationID),
		DocumentType:  models.DocumentType(documentType),
		FileName:      fileHeader.Filename,
		SizeBytes:     fileHeader.Size,
	}

	document, err := h.documentService.Upload(c.Request.Context(), req, file, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, document)
}

// GetDocument retrieves document metadata
// @Summary Get document
// @Tags documents
// @Produce json
// @Param id path uint true "Document ID"
// @Success 200 {object} services.DocumentResponse
// @Failure 404 {object} ErrorResponse
// @Router /documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	document, err := h.documentService.GetByID(c.Request.Context(), id, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, document)
}

// ListDocuments lists documents for an application
// @Summary List application documents
// @Tags documents
// @Produce json
// @Param application_id path uint true "Application ID"
// @Success 200 {array} services.DocumentResponse
// @Router /applications/{application_id}/documents [get]
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	applicationID := h.parseIDParam(c, "application_id")
	if applicationID == 0 {
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	documents, err := h.documentService.ListByApplication(c.Request.Context(), applicationID, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, documents)
}

// DownloadDocument streams the stored file back to the caller
// @Summary Download document
// @Tags documents
// @Produce octet-stream
// @Param id path uint true "Document ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /documents/{id}/download [get]
func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	download, err := h.documentService.Download(c.Request.Context(), id, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	defer download.Content.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.FileName))
	c.Header("Content-Type", download.ContentType)
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, download.Content); err != nil {
		h.LogError(c, err, "Failed to stream document", "document_id", id)
	}
}

// VerifyDocument marks a document as verified by staff
// @Summary Verify document
// @Tags documents
// @Produce json
// @Param id path uint true "Document ID"
// @Success 200 {object} services.DocumentResponse
// @Failure 403 {object} ErrorResponse
// @Router /documents/{id}/verify [post]
func (h *DocumentHandler) VerifyDocument(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	// Notes are optional, an empty body is fine
	var req struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&req)

	h.LogRequest(c, "Verifying document", "document_id", id)

	document, err := h.documentService.Verify(c.Request.Context(), id, req.Notes, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, document)
}

// DeleteDocument removes a document and its stored file
// @Summary Delete document
// @Tags documents
// @Param id path uint true "Document ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Router /documents/{id} [delete]
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Deleting document", "document_id", id)

	if err := h.documentService.Delete(c.Request.Context(), id, userID.(string)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
