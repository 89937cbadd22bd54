package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uniworld-consultancy/case-service/internal/models"
	"github.com/uniworld-consultancy/case-service/internal/services"
	"github.com/uniworld-consultancy/case-service/internal/utils"
	"github.com/uniworld-consultancy/case-service/internal/validator"
)

type ApplicationHandler struct {
	BaseHandler
	applicationService services.ApplicationService
	validator          *validator.Validator
}

func NewApplicationHandler(
	applicationService services.ApplicationService,
	validator *validator.Validator,
	logger utils.Logger,
) *ApplicationHandler {
	return &ApplicationHandler{
		BaseHandler:        NewBaseHandler(logger),
		applicationService: applicationService,
		validator:          validator,
	}
}

// CreateApplication submits a new visa application
// @Summary Submit application
// @Description Submits a new visa application for the authenticated client
// @Tags applications
// @Accept json
// @Produce json
// @Param application body services.CreateApplicationRequest true "Application data"
// @Success 201 {object} services.ApplicationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /applications [post]
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	var req services.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	application, err := h.applicationService.Create(c.Request.Context(), &req, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, application)
}

// GetApplication retrieves an application by ID
// @Summary Get application
// @Tags applications
// @Produce json
// @Param id path uint true "Application ID"
// @Success 200 {object} services.ApplicationResponse
// @Failure 404 {object} ErrorResponse
// @Router /applications/{id} [get]
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting application", "application_id", id)

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	application, err := h.applicationService.GetByID(c.Request.Context(), id, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, application)
}

// GetApplicationByRef retrieves an application by its reference number
// @Summary Get application by reference
// @Tags applications
// @Produce json
// @Param ref path string true "Application reference (APP-YYYYMM-NNNN)"
// @Success 200 {object} services.ApplicationResponse
// @Failure 404 {object} ErrorResponse
// @Router /applications/ref/{ref} [get]
func (h *ApplicationHandler) GetApplicationByRef(c *gin.Context) {
	ref := c.Param("ref")
	if ref == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Application reference is required",
		})
		return
	}

	h.LogRequest(c, "Getting application by reference", "application_ref", ref)

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	application, err := h.applicationService.GetByRef(c.Request.Context(), ref, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, application)
}

// ListApplications lists applications with filters
// @Summary List applications
// @Description Clients see their own applications, staff see all
// @Tags applications
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Param status query string false "Application status"
// @Param search query string false "Search query"
// @Success 200 {object} services.ApplicationListResponse
// @Router /applications [get]
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	h.LogRequest(c, "Listing applications")

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	req := h.parseApplicationListRequest(c)
	applications, err := h.applicationService.List(c.Request.Context(), req, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, applications)
}

// UpdateApplication updates editable application fields
// @Summary Update application
// @Tags applications
// @Accept json
// @Produce json
// @Param id path uint true "Application ID"
// @Param application body services.UpdateApplicationRequest true "Update data"
// @Success 200 {object} services.ApplicationResponse
// @Failure 403 {object} ErrorResponse
// @Router /applications/{id} [put]
func (h *ApplicationHandler) UpdateApplication(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating application", "application_id", id)

	var req services.UpdateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	application, err := h.applicationService.Update(c.Request.Context(), id, &req, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, application)
}

// UpdateApplicationStatus moves an application through the workflow
// @Summary Update application status
// @Tags applications
// @Accept json
// @Produce json
// @Param id path uint true "Application ID"
// @Param status body services.UpdateStatusRequest true "New status"
// @Success 200 {object} services.ApplicationResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /applications/{id}/status [put]
func (h *ApplicationHandler) UpdateApplicationStatus(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating application status", "application_id", id)

	var req services.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	application, err := h.applicationService.UpdateStatus(c.Request.Context(), id, &req, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, application)
}

// GetStatusHistory returns the audit trail of status changes
// @Summary Get status history
// @Tags applications
// @Produce json
// @Param id path uint true "Application ID"
// @Success 200 {array} models.ApplicationStatusHistory
// @Router /applications/{id}/history [get]
func (h *ApplicationHandler) GetStatusHistory(c *gin.Context) {
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

	history, err := h.applicationService.GetStatusHistory(c.Request.Context(), id, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

// DeleteApplication deletes an application
// @Summary Delete application
// @Tags applications
// @Param id path uint true "Application ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Router /applications/{id} [delete]
func (h *ApplicationHandler) DeleteApplication(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting application", "application_id", id)

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	if err := h.applicationService.Delete(c.Request.Context(), id, userID.(string)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetApplicationStats returns counts by status
// @Summary Application statistics
// @Tags applications
// @Produce json
// @Success 200 {object} services.ApplicationStats
// @Router /applications/stats [get]
func (h *ApplicationHandler) GetApplicationStats(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	stats, err := h.applicationService.Stats(c.Request.Context(), userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportApplications downloads the application register as a spreadsheet
// @Summary Export application register
// @Tags applications
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Router /applications/export [get]
func (h *ApplicationHandler) ExportApplications(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Exporting application register")

	data, err := h.applicationService.ExportRegister(c.Request.Context(), userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	fileName := fmt.Sprintf("applications_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ===== HELPER METHODS =====

func (h *ApplicationHandler) parseApplicationListRequest(c *gin.Context) *services.ApplicationListRequest {
	req := &services.ApplicationListRequest{
		Page:      1,
		Size:      20,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			req.Page = p
		}
	}

	if sizeStr := c.Query("size"); sizeStr != "" {
		if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
			req.Size = s
		}
	}

	if status := c.Query("status"); status != "" {
		appStatus := models.ApplicationStatus(status)
		req.Status = &appStatus
	}

	if visaType := c.Query("visa_type"); visaType != "" {
		vt := models.VisaType(visaType)
		req.VisaType = &vt
	}

	if destStr := c.Query("destination_id"); destStr != "" {
		if d, err := strconv.ParseUint(destStr, 10, 64); err == nil {
			destID := uint(d)
			req.DestinationID = &destID
		}
	}

	if staff := c.Query("assigned_staff"); staff != "" {
		req.AssignedStaff = &staff
	}

	if search := c.Query("search"); search != "" {
		req.Search = &search
	}

	return req
}
