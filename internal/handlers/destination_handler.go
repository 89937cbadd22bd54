package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniworld-consultancy/case-service/internal/services"
	"github.com/uniworld-consultancy/case-service/internal/utils"
	"github.com/uniworld-consultancy/case-service/internal/validator"
)

type DestinationHandler struct {
	BaseHandler
	destinationService services.DestinationService
	validator          *validator.Validator
}

func NewDestinationHandler(
	destinationService services.DestinationService,
	validator *validator.Validator,
	logger utils.Logger,
) *DestinationHandler {
	return &DestinationHandler{
		BaseHandler:        NewBaseHandler(logger),
		destinationService: destinationService,
		validator:          validator,
	}
}

// callerID returns the authenticated user ID or empty for anonymous
// catalog reads.
func callerID(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return ""
}

// CreateDestination creates a catalog entry
// @Summary Create study destination
// @Tags destinations
// @Accept json
// @Produce json
// @Param destination body services.CreateDestinationRequest true "Destination data"
// @Success 201 {object} models.StudyDestination
// @Failure 403 {object} ErrorResponse
// @Router /destinations [post]
func (h *DestinationHandler) CreateDestination(c *gin.Context) {
	var req services.CreateDestinationRequest
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

	destination, err := h.destinationService.Create(c.Request.Context(), &req, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, destination)
}

// ListDestinations lists the catalog
// @Summary List study destinations
// @Description Anonymous and client callers only see published entries
// @Tags destinations
// @Produce json
// @Param search query string false "Search query"
// @Success 200 {array} models.StudyDestination
// @Router /destinations [get]
func (h *DestinationHandler) ListDestinations(c *gin.Context) {
	var search *string
	if q := c.Query("search"); q != "" {
		search = &q
	}

	destinations, err := h.destinationService.List(c.Request.Context(), callerID(c), search)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, destinations)
}

// GetDestination retrieves a catalog entry by ID
// @Summary Get study destination
// @Tags destinations
// @Produce json
// @Param id path uint true "Destination ID"
// @Success 200 {object} models.StudyDestination
// @Failure 404 {object} ErrorResponse
// @Router /destinations/{id} [get]
func (h *DestinationHandler) GetDestination(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	destination, err := h.destinationService.GetByID(c.Request.Context(), id, callerID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, destination)
}

// GetDestinationBySlug retrieves a catalog entry by slug
// @Summary Get study destination by slug
// @Tags destinations
// @Produce json
// @Param slug path string true "Destination slug"
// @Success 200 {object} models.StudyDestination
// @Failure 404 {object} ErrorResponse
// @Router /destinations/slug/{slug} [get]
func (h *DestinationHandler) GetDestinationBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Destination slug is required",
		})
		return
	}

	destination, err := h.destinationService.GetBySlug(c.Request.Context(), slug, callerID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, destination)
}

// UpdateDestination updates a catalog entry
// @Summary Update study destination
// @Tags destinations
// @Accept json
// @Produce json
// @Param id path uint true "Destination ID"
// @Param destination body services.UpdateDestinationRequest true "Update data"
// @Success 200 {object} models.StudyDestination
// @Failure 403 {object} ErrorResponse
// @Router /destinations/{id} [put]
func (h *DestinationHandler) UpdateDestination(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateDestinationRequest
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

	destination, err := h.destinationService.Update(c.Request.Context(), id, &req, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, destination)
}

// DeleteDestination removes a catalog entry and its sections
// @Summary Delete study destination
// @Tags destinations
// @Param id path uint true "Destination ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Router /destinations/{id} [delete]
func (h *DestinationHandler) DeleteDestination(c *gin.Context) {
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

	h.LogRequest(c, "Deleting destination", "destination_id", id)

	if err := h.destinationService.Delete(c.Request.Context(), id, userID.(string)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
