package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/uniworld-consultancy/case-service/internal/models"
)

// ApplicationFilters narrows application listings. Nil fields are ignored.
type ApplicationFilters struct {
	ClientID      *string
	Status        *models.ApplicationStatus
	VisaType      *models.VisaType
	DestinationID *uint
	AssignedStaff *string
	Search        *string

	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// DocumentFilters narrows document listings.
type DocumentFilters struct {
	ApplicationID *uint
	DocumentType  *models.DocumentType
	Verified      *bool
	UploadedBy    *string

	Limit  int
	Offset int
}

// MessageFilters narrows message listings.
type MessageFilters struct {
	SenderID      *string
	ReceiverID    *string
	ApplicationID *uint
	IsRead        *bool
	ParticipantID *string

	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// DestinationFilters narrows catalog listings.
type DestinationFilters struct {
	PublishedOnly bool
	Search        *string

	Limit  int
	Offset int
}

// UserFilters narrows user listings.
type UserFilters struct {
	Role   *models.UserRole
	Search *string

	Limit  int
	Offset int
}

type ApplicationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, app *models.Application) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Application, error)
	GetByApplicationID(ctx context.Context, tx *gorm.DB, applicationID string) (*models.Application, error)
	List(ctx context.Context, tx *gorm.DB, filters ApplicationFilters) ([]models.Application, int64, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, updates map[string]interface{}) error
	// UpdateStatusCAS updates the status only when the stored version
	// matches expectedVersion, bumping the version on success. Returns
	// the number of rows affected.
	UpdateStatusCAS(ctx context.Context, tx *gorm.DB, id uint, expectedVersion int, updates map[string]interface{}) (int64, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	ExistsByApplicationID(ctx context.Context, tx *gorm.DB, applicationID string) (bool, error)
	CountByStatus(ctx context.Context, tx *gorm.DB) (map[models.ApplicationStatus]int64, error)
	AddStatusHistory(ctx context.Context, tx *gorm.DB, h *models.ApplicationStatusHistory) error
	GetStatusHistory(ctx context.Context, tx *gorm.DB, applicationID uint) ([]models.ApplicationStatusHistory, error)
}

type DocumentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, doc *models.Document) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Document, error)
	List(ctx context.Context, tx *gorm.DB, filters DocumentFilters) ([]models.Document, int64, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type MessageRepository interface {
	Create(ctx context.Context, tx *gorm.DB, msg *models.Message) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Message, error)
	List(ctx context.Context, tx *gorm.DB, filters MessageFilters) ([]models.Message, int64, error)
	MarkRead(ctx context.Context, tx *gorm.DB, id uint) error
	CountUnread(ctx context.Context, tx *gorm.DB, receiverID string) (int64, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type DestinationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, dest *models.StudyDestination) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.StudyDestination, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.StudyDestination, error)
	List(ctx context.Context, tx *gorm.DB, filters DestinationFilters) ([]models.StudyDestination, int64, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filters UserFilters) ([]models.User, error)
	ListStaff(ctx context.Context) ([]models.User, error)
}
