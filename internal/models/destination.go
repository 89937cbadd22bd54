package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StudyDestination is a published country page with its nested catalog
// sections. Unpublished destinations are invisible to clients.
type StudyDestination struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null;size:100"`
	Slug string `json:"slug" gorm:"uniqueIndex;not null;size:120"`

	FlagEmoji    string `json:"flag_emoji" gorm:"size:10"`
	Tagline      string `json:"tagline" gorm:"size:200"`
	Overview     string `json:"overview" gorm:"type:text"`
	HeroImageURL string `json:"hero_image_url" gorm:"size:500"`

	// QuickFacts holds free-form headline figures (capital, currency,
	// tuition range and the like) rendered on the country page.
	QuickFacts datatypes.JSON `json:"quick_facts" gorm:"type:jsonb"`

	IsPublished  bool `json:"is_published" gorm:"default:false;index"`
	DisplayOrder int  `json:"display_order" gorm:"default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Universities []DestinationUniversity  `json:"universities,omitempty" gorm:"foreignKey:DestinationID;constraint:OnDelete:CASCADE"`
	Intakes      []DestinationIntake      `json:"intakes,omitempty" gorm:"foreignKey:DestinationID;constraint:OnDelete:CASCADE"`
	Requirements []DestinationRequirement `json:"requirements,omitempty" gorm:"foreignKey:DestinationID;constraint:OnDelete:CASCADE"`
	CostItems    []DestinationCostItem    `json:"cost_items,omitempty" gorm:"foreignKey:DestinationID;constraint:OnDelete:CASCADE"`
	ProcessSteps []DestinationProcessStep `json:"process_steps,omitempty" gorm:"foreignKey:DestinationID;constraint:OnDelete:CASCADE"`
	FAQs         []DestinationFAQ         `json:"faqs,omitempty" gorm:"foreignKey:DestinationID;constraint:OnDelete:CASCADE"`
}

func (StudyDestination) TableName() string {
	return "study_destinations"
}

type DestinationUniversity struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	DestinationID uint   `json:"destination_id" gorm:"not null;index"`
	Name          string `json:"name" gorm:"not null;size:200"`
	City          string `json:"city" gorm:"size:100"`
	Ranking       string `json:"ranking" gorm:"size:50"`
	WebsiteURL    string `json:"website_url" gorm:"size:500"`
	DisplayOrder  int    `json:"display_order" gorm:"default:0"`
}

func (DestinationUniversity) TableName() string {
	return "destination_universities"
}

type DestinationIntake struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	DestinationID uint   `json:"destination_id" gorm:"not null;index"`
	Name          string `json:"name" gorm:"not null;size:100"`
	Months        string `json:"months" gorm:"size:100"`
	Note          string `json:"note" gorm:"size:300"`
	DisplayOrder  int    `json:"display_order" gorm:"default:0"`
}

func (DestinationIntake) TableName() string {
	return "destination_intakes"
}

type DestinationRequirement struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	DestinationID uint   `json:"destination_id" gorm:"not null;index"`
	Category      string `json:"category" gorm:"size:100"`
	Text          string `json:"text" gorm:"not null;type:text"`
	DisplayOrder  int    `json:"display_order" gorm:"default:0"`
}

func (DestinationRequirement) TableName() string {
	return "destination_requirements"
}

type DestinationCostItem struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	DestinationID uint   `json:"destination_id" gorm:"not null;index"`
	Label         string `json:"label" gorm:"not null;size:150"`
	AmountRange   string `json:"amount_range" gorm:"size:100"`
	Note          string `json:"note" gorm:"size:300"`
	DisplayOrder  int    `json:"display_order" gorm:"default:0"`
}

func (DestinationCostItem) TableName() string {
	return "destination_cost_items"
}

type DestinationProcessStep struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	DestinationID uint   `json:"destination_id" gorm:"not null;index"`
	StepNumber    int    `json:"step_number" gorm:"not null"`
	Title         string `json:"title" gorm:"not null;size:150"`
	Description   string `json:"description" gorm:"type:text"`
}

func (DestinationProcessStep) TableName() string {
	return "destination_process_steps"
}

type DestinationFAQ struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	DestinationID uint   `json:"destination_id" gorm:"not null;index"`
	Question      string `json:"question" gorm:"not null;size:300"`
	Answer        string `json:"answer" gorm:"not null;type:text"`
	DisplayOrder  int    `json:"display_order" gorm:"default:0"`
}

func (DestinationFAQ) TableName() string {
	return "destination_faqs"
}
