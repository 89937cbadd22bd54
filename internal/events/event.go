package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/uniworld-consultancy/case-service/internal/models"
)

// Event is the envelope every published event travels in
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

const (
	EventSource  = "case-service"
	EventVersion = "1.0"
)

// Event types
const (
	EventApplicationSubmitted     = "application.submitted"
	EventApplicationStatusChanged = "application.status_changed"
	EventDocumentUploaded         = "document.uploaded"
	EventDocumentVerified         = "document.verified"
	EventMessageSent              = "message.sent"
)

// NewEvent builds an envelope with a fresh ID and current timestamp
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ApplicationStatusChangedEvent is emitted on every status transition
type ApplicationStatusChangedEvent struct {
	ApplicationID  uint                     `json:"application_id"`
	ApplicationRef string                   `json:"application_ref"`
	ClientID       string                   `json:"client_id"`
	OldStatus      models.ApplicationStatus `json:"old_status"`
	NewStatus      models.ApplicationStatus `json:"new_status"`
	Reason         string                   `json:"reason,omitempty"`
	ChangedBy      string                   `json:"changed_by"`
	OccurredAt     time.Time                `json:"occurred_at"`
}

// ApplicationSubmittedEvent is emitted once when a case enters the pipeline
type ApplicationSubmittedEvent struct {
	ApplicationID      uint   `json:"application_id"`
	ApplicationRef     string `json:"application_ref"`
	ClientID           string `json:"client_id"`
	DestinationCountry string `json:"destination_country"`
	VisaType           string `json:"visa_type"`
}

// DocumentUploadedEvent is emitted when a client or staff uploads a file
type DocumentUploadedEvent struct {
	DocumentID    uint   `json:"document_id"`
	ApplicationID uint   `json:"application_id"`
	DocumentType  string `json:"document_type"`
	FileName      string `json:"file_name"`
	UploadedBy    string `json:"uploaded_by"`
}

// DocumentVerifiedEvent is emitted when staff marks a document verified
type DocumentVerifiedEvent struct {
	DocumentID    uint   `json:"document_id"`
	ApplicationID uint   `json:"application_id"`
	VerifiedBy    string `json:"verified_by"`
}

// MessageSentEvent is emitted when a message is created
type MessageSentEvent struct {
	MessageID  uint   `json:"message_id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Subject    string `json:"subject"`
}
