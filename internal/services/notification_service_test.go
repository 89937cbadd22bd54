package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/uniworld-consultancy/case-service/internal/events"
	"github.com/uniworld-consultancy/case-service/internal/mailer"
	"github.com/uniworld-consultancy/case-service/internal/models"
)

func newTestNotificationService() (*notificationService, *mockRepository, *mailer.MockMailer) {
	repo := newMockRepository()
	repo.addUser("client-1", "Amina Rahman", "amina@example.com", models.RoleClient)

	mock := mailer.NewMockMailer()
	service := NewNotificationService(repo, mock, newTestLogger(), nil).(*notificationService)
	return service, repo, mock
}

func approvalNotification() *StatusChangeNotification {
	return &StatusChangeNotification{
		ApplicationRef: "APP-202508-4321",
		ClientID:       "client-1",
		OldStatus:      models.StatusProcessing,
		NewStatus:      models.StatusApproved,
		OccurredAt:     time.Now(),
	}
}

func TestNotifyStatusChange(t *testing.T) {
	ctx := context.Background()

	t.Run("sends the status email to the client", func(t *testing.T) {
		service, _, mock := newTestNotificationService()

		if err := service.NotifyStatusChange(ctx, approvalNotification()); err != nil {
			t.Fatalf("NotifyStatusChange failed: %v", err)
		}

		sent := mock.SentEmails()
		if len(sent) != 1 {
			t.Fatalf("Expected 1 email, got %d", len(sent))
		}

		email := sent[0]
		if email.To != "amina@example.com" {
			t.Errorf("Expected recipient amina@example.com, got %s", email.To)
		}
		if !strings.Contains(email.Subject, "APP-202508-4321") {
			t.Errorf("Subject should carry the reference, got %q", email.Subject)
		}
		if !strings.Contains(email.HTMLBody, "Amina Rahman") {
			t.Error("Body should greet the client by name")
		}
		if !strings.Contains(email.HTMLBody, string(models.StatusApproved)) {
			t.Error("Body should name the new status")
		}
		if !strings.Contains(email.HTMLBody, "approved") {
			t.Error("Body should carry the approval line")
		}
		if strings.Contains(email.TextBody, "<") {
			t.Error("Plain-text body should have no HTML tags")
		}
	})

	t.Run("includes the staff reason when present", func(t *testing.T) {
		service, _, mock := newTestNotificationService()

		n := approvalNotification()
		n.NewStatus = models.StatusRejected
		n.Reason = "Bank statement does not cover the required period"

		if err := service.NotifyStatusChange(ctx, n); err != nil {
			t.Fatalf("NotifyStatusChange failed: %v", err)
		}

		sent := mock.SentEmails()
		if len(sent) != 1 {
			t.Fatalf("Expected 1 email, got %d", len(sent))
		}
		if !strings.Contains(sent[0].HTMLBody, n.Reason) {
			t.Error("Body should include the rejection reason")
		}
	})

	t.Run("unknown client is an error", func(t *testing.T) {
		service, _, mock := newTestNotificationService()

		n := approvalNotification()
		n.ClientID = "ghost"
		if err := service.NotifyStatusChange(ctx, n); err == nil {
			t.Fatal("Expected error for unknown client")
		}
		if len(mock.SentEmails()) != 0 {
			t.Error("No email should be sent for an unknown client")
		}
	})

	t.Run("mailer failure is returned", func(t *testing.T) {
		service, _, mock := newTestNotificationService()

		mock.FailNext = errors.New("smtp connection refused")
		if err := service.NotifyStatusChange(ctx, approvalNotification()); err == nil {
			t.Fatal("Expected mailer failure to surface")
		}
	})
}

func TestNotificationConsumer(t *testing.T) {
	ctx := context.Background()

	statusChangeMessage := func(t *testing.T) *message.Message {
		t.Helper()

		event := events.NewEvent(events.EventApplicationStatusChanged, &events.ApplicationStatusChangedEvent{
			ApplicationID:  1,
			ApplicationRef: "APP-202508-4321",
			ClientID:       "client-1",
			OldStatus:      models.StatusUnderReview,
			NewStatus:      models.StatusProcessing,
			ChangedBy:      "staff-1",
			OccurredAt:     time.Now(),
		})
		payload, err := json.Marshal(event)
		if err != nil {
			t.Fatalf("Failed to marshal event: %v", err)
		}
		return message.NewMessage(event.ID, payload)
	}

	t.Run("status change event produces an email", func(t *testing.T) {
		service, _, mock := newTestNotificationService()

		service.handleMessage(ctx, statusChangeMessage(t))

		sent := mock.SentEmails()
		if len(sent) != 1 {
			t.Fatalf("Expected 1 email, got %d", len(sent))
		}
		if !strings.Contains(sent[0].HTMLBody, string(models.StatusProcessing)) {
			t.Error("Email should carry the new status")
		}
	})

	t.Run("submission event produces an acknowledgement", func(t *testing.T) {
		service, _, mock := newTestNotificationService()

		event := events.NewEvent(events.EventApplicationSubmitted, &events.ApplicationSubmittedEvent{
			ApplicationID:      1,
			ApplicationRef:     "APP-202508-4321",
			ClientID:           "client-1",
			DestinationCountry: "Canada",
			VisaType:           string(models.VisaStudent),
		})
		payload, err := json.Marshal(event)
		if err != nil {
			t.Fatalf("Failed to marshal event: %v", err)
		}

		service.handleMessage(ctx, message.NewMessage(event.ID, payload))

		sent := mock.SentEmails()
		if len(sent) != 1 {
			t.Fatalf("Expected 1 acknowledgement email, got %d", len(sent))
		}
		if !strings.Contains(sent[0].Subject, "received") {
			t.Errorf("Subject should acknowledge receipt, got %q", sent[0].Subject)
		}
		if !strings.Contains(sent[0].HTMLBody, "APP-202508-4321") {
			t.Error("Body should carry the reference")
		}
	})

	t.Run("unrelated event types are ignored", func(t *testing.T) {
		service, _, mock := newTestNotificationService()

		event := events.NewEvent(events.EventDocumentUploaded, &events.DocumentUploadedEvent{
			DocumentID:    1,
			ApplicationID: 1,
			FileName:      "passport.pdf",
			UploadedBy:    "client-1",
		})
		payload, err := json.Marshal(event)
		if err != nil {
			t.Fatalf("Failed to marshal event: %v", err)
		}

		service.handleMessage(ctx, message.NewMessage(event.ID, payload))

		if len(mock.SentEmails()) != 0 {
			t.Errorf("Document events should not trigger emails, got %d", len(mock.SentEmails()))
		}
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		service, _, mock := newTestNotificationService()

		service.handleMessage(ctx, message.NewMessage("bad", []byte("not json")))

		if len(mock.SentEmails()) != 0 {
			t.Error("Malformed payloads should not trigger emails")
		}
	})

	t.Run("mailer failure does not stop the consumer", func(t *testing.T) {
		service, _, mock := newTestNotificationService()

		mock.FailNext = errors.New("smtp connection refused")
		service.handleMessage(ctx, statusChangeMessage(t))
		service.handleMessage(ctx, statusChangeMessage(t))

		if len(mock.SentEmails()) != 1 {
			t.Errorf("Expected the second delivery to succeed, got %d emails", len(mock.SentEmails()))
		}
	})

	t.Run("run without a subscriber is a clean no-op", func(t *testing.T) {
		service, _, _ := newTestNotificationService()

		if err := service.Run(ctx); err != nil {
			t.Errorf("Run without subscriber should return nil, got %v", err)
		}
	})
}
