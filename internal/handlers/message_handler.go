package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/uniworld-consultancy/case-service/internal/services"
	"github.com/uniworld-consultancy/case-service/internal/utils"
	"github.com/uniworld-consultancy/case-service/internal/validator"
)

type MessageHandler struct {
	BaseHandler
	messageService services.MessageService
	validator      *validator.Validator
}

func NewMessageHandler(
	messageService services.MessageService,
	validator *validator.Validator,
	logger utils.Logger,
) *MessageHandler {
	return &MessageHandler{
		BaseHandler:    NewBaseHandler(logger),
		messageService: messageService,
		validator:      validator,
	}
}

// SendMessage sends a message to another user
// @Summary Send message
// @Description Sends a message. Clients may omit the receiver to reach the consultancy team.
// @Tags messages
// @Accept json
// @Produce json
// @Param message body services.SendMessageRequest true "Message data"
// @Success 201 {object} services.MessageResponse
// @Failure 400 {object} ErrorResponse
// @Router /messages [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req services.SendMessageRequest
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

	message, err := h.messageService.Send(c.Request.Context(), &req, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// GetMessage retrieves a message by ID
// @Summary Get message
// @Description Retrieves a message. Reading as the receiver marks it read.
// @Tags messages
// @Produce json
// @Param id path uint true "Message ID"
// @Success 200 {object} services.MessageResponse
// @Failure 404 {object} ErrorResponse
// @Router /messages/{id} [get]
func (h *MessageHandler) GetMessage(c *gin.Context) {
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

	message, err := h.messageService.GetByID(c.Request.Context(), id, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, message)
}

// GetInbox lists received messages
// @Summary Inbox
// @Tags messages
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} services.MessageListResponse
// @Router /messages/inbox [get]
func (h *MessageHandler) GetInbox(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	page, size := h.parsePagination(c)
	messages, err := h.messageService.Inbox(c.Request.Context(), userID.(string), page, size)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// GetSent lists sent messages
// @Summary Sent messages
// @Tags messages
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} services.MessageListResponse
// @Router /messages/sent [get]
func (h *MessageHandler) GetSent(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	page, size := h.parsePagination(c)
	messages, err := h.messageService.Sent(c.Request.Context(), userID.(string), page, size)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// MarkMessageRead marks a received message as read
// @Summary Mark message read
// @Tags messages
// @Param id path uint true "Message ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Router /messages/{id}/read [post]
func (h *MessageHandler) MarkMessageRead(c *gin.Context) {
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

	if err := h.messageService.MarkRead(c.Request.Context(), id, userID.(string)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Message marked as read"})
}

// GetUnreadCount returns the caller's unread message count
// @Summary Unread count
// @Tags messages
// @Produce json
// @Success 200 {object} map[string]int64
// @Router /messages/unread-count [get]
func (h *MessageHandler) GetUnreadCount(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	count, err := h.messageService.UnreadCount(c.Request.Context(), userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// ===== HELPER METHODS =====

func (h *MessageHandler) parsePagination(c *gin.Context) (int, int) {
	page := 1
	size := 20

	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if sizeStr := c.Query("size"); sizeStr != "" {
		if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
			size = s
		}
	}

	return page, size
}
