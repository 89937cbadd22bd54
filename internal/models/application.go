package models

import (
	"time"

	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	StatusSubmitted    ApplicationStatus = "SUBMITTED"
	StatusUnderReview  ApplicationStatus = "UNDER_REVIEW"
	StatusDocsRequired ApplicationStatus = "DOCS_REQUIRED"
	StatusProcessing   ApplicationStatus = "PROCESSING"
	StatusApproved     ApplicationStatus = "APPROVED"
	StatusRejected     ApplicationStatus = "REJECTED"
)

// ValidApplicationStatuses lists every status the workflow recognises,
// in pipeline order.
var ValidApplicationStatuses = []ApplicationStatus{
	StatusSubmitted,
	StatusUnderReview,
	StatusDocsRequired,
	StatusProcessing,
	StatusApproved,
	StatusRejected,
}

// IsValid reports whether s is one of the recognised statuses.
func (s ApplicationStatus) IsValid() bool {
	for _, v := range ValidApplicationStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the workflow.
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// statusProgress maps each status to the percentage shown on the
// client's tracking view. Unknown statuses map to zero.
var statusProgress = map[ApplicationStatus]int{
	StatusSubmitted:    20,
	StatusUnderReview:  40,
	StatusDocsRequired: 50,
	StatusProcessing:   70,
	StatusApproved:     100,
	StatusRejected:     100,
}

// Progress returns the tracking percentage for the status.
func (s ApplicationStatus) Progress() int {
	return statusProgress[s]
}

type VisaType string

const (
	VisaStudent VisaType = "STUDENT"
	VisaWork    VisaType = "WORK"
	VisaVisit   VisaType = "VISIT"
	VisaPR      VisaType = "PR"
	VisaOther   VisaType = "OTHER"
)

type Application struct {
	ID            uint              `json:"id" gorm:"primaryKey"`
	ApplicationID string            `json:"application_id" gorm:"uniqueIndex;not null;size:20"`
	ClientID      string            `json:"client_id" gorm:"not null;size:255;index"`
	Status        ApplicationStatus `json:"status" gorm:"not null;size:20;default:SUBMITTED;index"`

	VisaType           VisaType `json:"visa_type" gorm:"not null;size:20"`
	DestinationID      *uint    `json:"destination_id" gorm:"index"`
	DestinationCountry string   `json:"destination_country" gorm:"not null;size:100"`
	IntendedIntake     string   `json:"intended_intake" gorm:"size:50"`
	CourseName         string   `json:"course_name" gorm:"size:200"`
	InstitutionName    string   `json:"institution_name" gorm:"size:200"`

	HighestEducation string `json:"highest_education" gorm:"size:100"`
	CompletionYear   *int   `json:"completion_year"`
	EnglishTestType  string `json:"english_test_type" gorm:"size:50"`
	EnglishTestScore string `json:"english_test_score" gorm:"size:20"`

	HasVisaRefusal     bool   `json:"has_visa_refusal" gorm:"default:false"`
	VisaRefusalDetails string `json:"visa_refusal_details" gorm:"type:text"`

	StatusReason  string `json:"status_reason" gorm:"type:text"`
	AssignedStaff string `json:"assigned_staff" gorm:"size:255;index"`
	Notes         string `json:"notes" gorm:"type:text"`

	// Version guards concurrent status updates.
	Version int `json:"version" gorm:"not null;default:1"`

	SubmittedAt time.Time      `json:"submitted_at"`
	DecisionAt  *time.Time     `json:"decision_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	Client      *User             `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Destination *StudyDestination `json:"destination,omitempty" gorm:"foreignKey:DestinationID"`
	Documents   []Document        `json:"documents,omitempty" gorm:"foreignKey:ApplicationID;references:ID"`

	// Computed on read, never stored.
	ProgressPercent int `json:"progress_percent" gorm:"-"`
}

func (Application) TableName() string {
	return "applications"
}

// ComputeProgress fills the derived tracking percentage.
func (a *Application) ComputeProgress() {
	a.ProgressPercent = a.Status.Progress()
}

// ApplicationStatusHistory records every status change for auditing.
type ApplicationStatusHistory struct {
	ID            uint              `json:"id" gorm:"primaryKey"`
	ApplicationID uint              `json:"application_id" gorm:"not null;index"`
	OldStatus     ApplicationStatus `json:"old_status" gorm:"size:20"`
	NewStatus     ApplicationStatus `json:"new_status" gorm:"not null;size:20"`
	Reason        string            `json:"reason" gorm:"type:text"`
	ChangedBy     string            `json:"changed_by" gorm:"size:255"`
	CreatedAt     time.Time         `json:"created_at"`
}

func (ApplicationStatusHistory) TableName() string {
	return "application_status_history"
}
