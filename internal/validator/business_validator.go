package validator

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"github.com/uniworld-consultancy/case-service/internal/models"
)

// MaxDocumentSize is the upload ceiling for a single document.
const MaxDocumentSize = 10 << 20 // 10 MiB

// allowedExtensions is the closed set of upload extensions.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".doc":  true,
	".docx": true,
}

// allowedMIMETypes is the set of content types an upload may actually
// carry. Sniffed from magic bytes, not the client header.
var allowedMIMETypes = map[string]bool{
	"application/pdf":    true,
	"image/jpeg":         true,
	"image/png":          true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	// docx files are zip containers; some sniffers stop at the container type
	"application/zip": true,
}

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateApplicationCreate validates application submission business rules
func (bv *BusinessValidator) ValidateApplicationCreate(req *ApplicationCreateRequest) ValidationErrors {
	var errors ValidationErrors

	// Basic struct validation
	errors = append(errors, bv.Validate(req)...)

	// A declared refusal must come with its details
	if req.HasVisaRefusal && strings.TrimSpace(req.VisaRefusalDetails) == "" {
		errors = append(errors, ValidationError{
			Field:   "visa_refusal_details",
			Message: "details are required when a previous visa refusal is declared",
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateStatusTransition validates application status transitions. In
// strict mode only forward pipeline moves are allowed and terminal
// statuses are frozen; permissive mode accepts any recognised status,
// including reverting a decided application.
func (bv *BusinessValidator) ValidateStatusTransition(current, next models.ApplicationStatus, reason string, strict bool) ValidationErrors {
	var errors ValidationErrors

	if !next.IsValid() {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("%s is not a recognised status", next),
			Value:   next,
			Rule:    "application_status",
		})
		return errors
	}

	if !strict {
		return errors
	}

	if current.IsTerminal() && next != current {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot leave terminal status %s", current),
			Value:   next,
			Rule:    "status_transition",
		})
		return errors
	}

	allowedTransitions := map[models.ApplicationStatus][]models.ApplicationStatus{
		models.StatusSubmitted:    {models.StatusUnderReview},
		models.StatusUnderReview:  {models.StatusDocsRequired, models.StatusProcessing},
		models.StatusDocsRequired: {models.StatusUnderReview, models.StatusProcessing},
		models.StatusProcessing:   {models.StatusApproved, models.StatusRejected},
	}

	allowed := false
	for _, allowedStatus := range allowedTransitions[current] {
		if next == allowedStatus {
			allowed = true
			break
		}
	}

	if !allowed && next != current {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot transition from %s to %s", current, next),
			Value:   next,
			Rule:    "status_transition",
		})
	}

	// Rejections carry a reason so the client knows why
	if next == models.StatusRejected && strings.TrimSpace(reason) == "" {
		errors = append(errors, ValidationError{
			Field:   "reason",
			Message: "a reason is required when rejecting an application",
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateDocumentUpload validates an upload's metadata and content.
// Content is sniffed from magic bytes so a renamed executable does not
// slip through on its extension.
func (bv *BusinessValidator) ValidateDocumentUpload(req *DocumentUploadRequest, content []byte) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.SizeBytes > MaxDocumentSize {
		errors = append(errors, ValidationError{
			Field:   "file",
			Message: "file exceeds the 10 MiB upload limit",
			Value:   req.SizeBytes,
			Rule:    "max_size",
		})
	}

	ext := strings.ToLower(filepath.Ext(req.FileName))
	if !allowedExtensions[ext] {
		errors = append(errors, ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("file extension %q is not allowed", ext),
			Value:   req.FileName,
			Rule:    "file_extension",
		})
	}

	if len(content) > 0 {
		detected := mimetype.Detect(content)
		if !allowedMIMETypes[detected.String()] {
			errors = append(errors, ValidationError{
				Field:   "file",
				Message: fmt.Sprintf("file content type %s is not allowed", detected.String()),
				Value:   detected.String(),
				Rule:    "file_content",
			})
		}
	}

	return errors
}

// ValidateMessageCreate validates sending a message
func (bv *BusinessValidator) ValidateMessageCreate(req *MessageCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if strings.TrimSpace(req.Body) == "" {
		errors = append(errors, ValidationError{
			Field:   "body",
			Message: "message body cannot be blank",
			Rule:    "business_logic",
		})
	}

	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Visa type must be one of the recognised categories
	bv.validate.RegisterValidation("visa_type", func(fl validator.FieldLevel) bool {
		vType := models.VisaType(fl.Field().String())
		switch vType {
		case models.VisaStudent, models.VisaWork, models.VisaVisit, models.VisaPR, models.VisaOther:
			return true
		}
		return false
	})

	// Application status must be a recognised workflow status
	bv.validate.RegisterValidation("application_status", func(fl validator.FieldLevel) bool {
		return models.ApplicationStatus(fl.Field().String()).IsValid()
	})

	// Document type must be in the closed set
	bv.validate.RegisterValidation("document_type", func(fl validator.FieldLevel) bool {
		return models.DocumentType(fl.Field().String()).IsValid()
	})

	// Completion year must be plausible (1950 through next year)
	bv.validate.RegisterValidation("completion_year", func(fl validator.FieldLevel) bool {
		year := int(fl.Field().Int())
		return year >= 1950 && year <= time.Now().Year()+1
	})
}
