package models

import (
	"time"

	"gorm.io/gorm"
)

type DocumentType string

const (
	DocPassport             DocumentType = "PASSPORT"
	DocPhoto                DocumentType = "PHOTO"
	DocBankStatement        DocumentType = "BANK_STATEMENT"
	DocEmploymentLetter     DocumentType = "EMPLOYMENT_LETTER"
	DocInvitationLetter     DocumentType = "INVITATION_LETTER"
	DocEducationCertificate DocumentType = "EDUCATION_CERTIFICATE"
	DocTranscript           DocumentType = "TRANSCRIPT"
	DocEnglishTest          DocumentType = "ENGLISH_TEST"
	DocPoliceClearance      DocumentType = "POLICE_CLEARANCE"
	DocMedicalReport        DocumentType = "MEDICAL_REPORT"
	DocOther                DocumentType = "OTHER"
)

var ValidDocumentTypes = []DocumentType{
	DocPassport,
	DocPhoto,
	DocBankStatement,
	DocEmploymentLetter,
	DocInvitationLetter,
	DocEducationCertificate,
	DocTranscript,
	DocEnglishTest,
	DocPoliceClearance,
	DocMedicalReport,
	DocOther,
}

// IsValid reports whether t is one of the recognised document types.
func (t DocumentType) IsValid() bool {
	for _, v := range ValidDocumentTypes {
		if t == v {
			return true
		}
	}
	return false
}

type Document struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	ApplicationID uint         `json:"application_id" gorm:"not null;index"`
	DocumentType  DocumentType `json:"document_type" gorm:"not null;size:30"`

	FileName    string `json:"file_name" gorm:"not null;size:255"`
	StoragePath string `json:"storage_path" gorm:"not null;size:500"`
	ContentType string `json:"content_type" gorm:"size:100"`
	SizeBytes   int64  `json:"size_bytes" gorm:"not null"`

	UploadedBy string `json:"uploaded_by" gorm:"not null;size:255"`

	Verified          bool       `json:"verified" gorm:"default:false"`
	VerifiedBy        *string    `json:"verified_by" gorm:"size:255"`
	VerifiedAt        *time.Time `json:"verified_at"`
	VerificationNotes string     `json:"verification_notes" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Application *Application `json:"application,omitempty" gorm:"foreignKey:ApplicationID"`
}

func (Document) TableName() string {
	return "documents"
}
