package validator

import (
	"github.com/uniworld-consultancy/case-service/internal/models"
)

// ApplicationCreateRequest represents the request structure for submitting applications
type ApplicationCreateRequest struct {
	VisaType           models.VisaType `json:"visa_type" validate:"required,visa_type"`
	DestinationID      *uint           `json:"destination_id"`
	DestinationCountry string          `json:"destination_country" validate:"required,min=2,max=100"`
	IntendedIntake     string          `json:"intended_intake" validate:"omitempty,max=50"`
	CourseName         string          `json:"course_name" validate:"omitempty,max=200"`
	InstitutionName    string          `json:"institution_name" validate:"omitempty,max=200"`

	HighestEducation string `json:"highest_education" validate:"omitempty,max=100"`
	CompletionYear   *int   `json:"completion_year" validate:"omitempty,completion_year"`
	EnglishTestType  string `json:"english_test_type" validate:"omitempty,max=50"`
	EnglishTestScore string `json:"english_test_score" validate:"omitempty,max=20"`

	HasVisaRefusal     bool   `json:"has_visa_refusal"`
	VisaRefusalDetails string `json:"visa_refusal_details" validate:"omitempty,max=2000"`

	Notes string `json:"notes" validate:"omitempty,max=2000"`
}

// ApplicationUpdateRequest represents the request structure for updating application details
type ApplicationUpdateRequest struct {
	IntendedIntake  *string `json:"intended_intake" validate:"omitempty,max=50"`
	CourseName      *string `json:"course_name" validate:"omitempty,max=200"`
	InstitutionName *string `json:"institution_name" validate:"omitempty,max=200"`

	HighestEducation *string `json:"highest_education" validate:"omitempty,max=100"`
	CompletionYear   *int    `json:"completion_year" validate:"omitempty,completion_year"`
	EnglishTestType  *string `json:"english_test_type" validate:"omitempty,max=50"`
	EnglishTestScore *string `json:"english_test_score" validate:"omitempty,max=20"`

	AssignedStaff *string `json:"assigned_staff" validate:"omitempty,max=255"`
	Notes         *string `json:"notes" validate:"omitempty,max=2000"`
}

// StatusUpdateRequest represents a staff status change
type StatusUpdateRequest struct {
	Status  models.ApplicationStatus `json:"status" validate:"required,application_status"`
	Reason  string                   `json:"reason" validate:"omitempty,max=2000"`
	Version *int                     `json:"version"`
}

// DocumentUploadRequest carries the metadata side of a file upload
type DocumentUploadRequest struct {
	ApplicationID uint                `json:"application_id" validate:"required"`
	DocumentType  models.DocumentType `json:"document_type" validate:"required,document_type"`
	FileName      string              `json:"file_name" validate:"required,max=255"`
	SizeBytes     int64               `json:"size_bytes" validate:"required,min=1"`
}

// MessageCreateRequest represents sending a message
type MessageCreateRequest struct {
	ReceiverID    string `json:"receiver_id" validate:"omitempty,max=255"`
	ApplicationID *uint  `json:"application_id"`
	Subject       string `json:"subject" validate:"omitempty,max=200"`
	Body          string `json:"body" validate:"required,min=1,max=5000"`
}

// DestinationCreateRequest represents creating a catalog entry
type DestinationCreateRequest struct {
	Name         string            `json:"name" validate:"required,min=2,max=100"`
	Slug         string            `json:"slug" validate:"required,min=2,max=120"`
	FlagEmoji    string            `json:"flag_emoji" validate:"omitempty,max=10"`
	Tagline      string            `json:"tagline" validate:"omitempty,max=200"`
	Overview     string            `json:"overview" validate:"omitempty,max=10000"`
	HeroImageURL string            `json:"hero_image_url" validate:"omitempty,url,max=500"`
	QuickFacts   map[string]string `json:"quick_facts"`
	IsPublished  bool              `json:"is_published"`
	DisplayOrder int               `json:"display_order" validate:"omitempty,min=0"`
}

// DestinationUpdateRequest represents updating a catalog entry
type DestinationUpdateRequest struct {
	Name         *string           `json:"name" validate:"omitempty,min=2,max=100"`
	Tagline      *string           `json:"tagline" validate:"omitempty,max=200"`
	Overview     *string           `json:"overview" validate:"omitempty,max=10000"`
	HeroImageURL *string           `json:"hero_image_url" validate:"omitempty,url,max=500"`
	QuickFacts   map[string]string `json:"quick_facts"`
	IsPublished  *bool             `json:"is_published"`
	DisplayOrder *int              `json:"display_order" validate:"omitempty,min=0"`
}
