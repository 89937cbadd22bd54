package services

import (
	"context"
	"io"
	"time"

	"github.com/uniworld-consultancy/case-service/internal/models"
	"github.com/uniworld-consultancy/case-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateApplicationRequest = validator.ApplicationCreateRequest
type UpdateApplicationRequest = validator.ApplicationUpdateRequest
type UpdateStatusRequest = validator.StatusUpdateRequest
type SendMessageRequest = validator.MessageCreateRequest
type CreateDestinationRequest = validator.DestinationCreateRequest
type UpdateDestinationRequest = validator.DestinationUpdateRequest

type ApplicationResponse struct {
	*models.Application
	CanEdit         bool `json:"can_edit"`
	CanDelete       bool `json:"can_delete"`
	CanChangeStatus bool `json:"can_change_status"`
}

type ApplicationListResponse struct {
	Applications []*ApplicationResponse `json:"applications"`
	Total        int64                  `json:"total"`
	Page         int                    `json:"page"`
	Size         int                    `json:"size"`
}

type ApplicationListRequest struct {
	Status        *models.ApplicationStatus `json:"status"`
	VisaType      *models.VisaType          `json:"visa_type"`
	DestinationID *uint                     `json:"destination_id"`
	AssignedStaff *string                   `json:"assigned_staff"`
	Search        *string                   `json:"search"`
	Page          int                       `json:"page"`
	Size          int                       `json:"size"`
	SortBy        string                    `json:"sort_by"`
	SortOrder     string                    `json:"sort_order"`
}

type ApplicationStats struct {
	Total    int64                              `json:"total"`
	ByStatus map[models.ApplicationStatus]int64 `json:"by_status"`
}

// ===== DOCUMENT RELATED DTOs =====

type UploadDocumentRequest = validator.DocumentUploadRequest

type DocumentResponse struct {
	*models.Document
	CanVerify bool `json:"can_verify"`
	CanDelete bool `json:"can_delete"`
}

type DocumentDownload struct {
	FileName    string
	ContentType string
	Content     io.ReadCloser
}

// ===== MESSAGE RELATED DTOs =====

type MessageResponse struct {
	*models.Message
	SenderName   string `json:"sender_name,omitempty"`
	ReceiverName string `json:"receiver_name,omitempty"`
}

type MessageListResponse struct {
	Messages []*MessageResponse `json:"messages"`
	Total    int64              `json:"total"`
	Unread   int64              `json:"unread"`
}

// ===== NOTIFICATION DTOs =====

type StatusChangeNotification struct {
	ApplicationRef string
	ClientID       string
	OldStatus      models.ApplicationStatus
	NewStatus      models.ApplicationStatus
	Reason         string
	OccurredAt     time.Time
}

type SubmissionNotification struct {
	ApplicationRef     string
	ClientID           string
	DestinationCountry string
	VisaType           string
}

// ===== SERVICE INTERFACES =====

type ApplicationService interface {
	Create(ctx context.Context, req *CreateApplicationRequest, clientID string) (*ApplicationResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*ApplicationResponse, error)
	GetByRef(ctx context.Context, applicationRef string, userID string) (*ApplicationResponse, error)
	List(ctx context.Context, req *ApplicationListRequest, userID string) (*ApplicationListResponse, error)
	Update(ctx context.Context, id uint, req *UpdateApplicationRequest, userID string) (*ApplicationResponse, error)
	UpdateStatus(ctx context.Context, id uint, req *UpdateStatusRequest, userID string) (*ApplicationResponse, error)
	GetStatusHistory(ctx context.Context, id uint, userID string) ([]models.ApplicationStatusHistory, error)
	Delete(ctx context.Context, id uint, userID string) error
	Stats(ctx context.Context, userID string) (*ApplicationStats, error)
	ExportRegister(ctx context.Context, userID string) ([]byte, error)
}

type DocumentService interface {
	Upload(ctx context.Context, req *UploadDocumentRequest, content io.Reader, uploaderID string) (*DocumentResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*DocumentResponse, error)
	ListByApplication(ctx context.Context, applicationID uint, userID string) ([]*DocumentResponse, error)
	Download(ctx context.Context, id uint, userID string) (*DocumentDownload, error)
	Verify(ctx context.Context, id uint, notes string, staffID string) (*DocumentResponse, error)
	Delete(ctx context.Context, id uint, userID string) error
}

type MessageService interface {
	Send(ctx context.Context, req *SendMessageRequest, senderID string) (*MessageResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*MessageResponse, error)
	Inbox(ctx context.Context, userID string, page, size int) (*MessageListResponse, error)
	Sent(ctx context.Context, userID string, page, size int) (*MessageListResponse, error)
	MarkRead(ctx context.Context, id uint, userID string) error
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

type DestinationService interface {
	Create(ctx context.Context, req *CreateDestinationRequest, userID string) (*models.StudyDestination, error)
	GetByID(ctx context.Context, id uint, userID string) (*models.StudyDestination, error)
	GetBySlug(ctx context.Context, slug string, userID string) (*models.StudyDestination, error)
	List(ctx context.Context, userID string, search *string) ([]models.StudyDestination, error)
	Update(ctx context.Context, id uint, req *UpdateDestinationRequest, userID string) (*models.StudyDestination, error)
	Delete(ctx context.Context, id uint, userID string) error
}

type NotificationService interface {
	// NotifyStatusChange sends the status change email to the client.
	// Failures are returned for logging but never block the workflow.
	NotifyStatusChange(ctx context.Context, notification *StatusChangeNotification) error
	// NotifySubmitted sends the submission acknowledgement email.
	NotifySubmitted(ctx context.Context, notification *SubmissionNotification) error
	// Run consumes status change events until ctx is cancelled
	Run(ctx context.Context) error
}

type ServiceManager interface {
	// Core service getters
	Application() ApplicationService
	Document() DocumentService
	Message() MessageService
	Destination() DestinationService
	Notification() NotificationService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
