package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/uniworld-consultancy/case-service/internal/events"
	"github.com/uniworld-consultancy/case-service/internal/mailer"
	"github.com/uniworld-consultancy/case-service/internal/models"
	"github.com/uniworld-consultancy/case-service/internal/repositories"
	"github.com/uniworld-consultancy/case-service/internal/utils"
)

// statusMessages maps each status to the line shown in the client email
var statusMessages = map[models.ApplicationStatus]string{
	models.StatusSubmitted:    "We have received your application and it is waiting for review.",
	models.StatusUnderReview:  "Our team is now reviewing your application.",
	models.StatusDocsRequired: "We need additional documents from you. Please log in and upload them.",
	models.StatusProcessing:   "Your application has been lodged and is being processed.",
	models.StatusApproved:     "Congratulations! Your application has been approved.",
	models.StatusRejected:     "Unfortunately your application was not successful this time.",
}

type notificationService struct {
	repo       repositories.Repository
	mailer     mailer.Mailer
	logger     *slog.Logger
	subscriber message.Subscriber
}

func NewNotificationService(repo repositories.Repository, m mailer.Mailer, logger *slog.Logger, subscriber message.Subscriber) NotificationService {
	return &notificationService{
		repo:       repo,
		mailer:     m,
		logger:     logger,
		subscriber: subscriber,
	}
}

// NotifyStatusChange sends the status change email to the client
func (s *notificationService) NotifyStatusChange(ctx context.Context, notification *StatusChangeNotification) error {
	client, err := s.repo.Users().GetByID(ctx, notification.ClientID)
	if err != nil {
		return fmt.Errorf("failed to resolve client for notification: %w", err)
	}

	subject := fmt.Sprintf("Application %s: status update", notification.ApplicationRef)
	htmlBody := s.renderStatusEmail(client.FullName, notification)

	email := mailer.Email{
		To:       client.Email,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: utils.StripHTMLTags(htmlBody),
	}

	if err := s.mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("failed to send status change email: %w", err)
	}

	s.logger.Info("Status change notification sent",
		"application_ref", notification.ApplicationRef,
		"client_id", notification.ClientID,
		"new_status", notification.NewStatus)

	return nil
}

// NotifySubmitted acknowledges a new submission by email
func (s *notificationService) NotifySubmitted(ctx context.Context, notification *SubmissionNotification) error {
	client, err := s.repo.Users().GetByID(ctx, notification.ClientID)
	if err != nil {
		return fmt.Errorf("failed to resolve client for notification: %w", err)
	}

	subject := fmt.Sprintf("Application %s received", notification.ApplicationRef)
	htmlBody := fmt.Sprintf(`<html><body>
<p>Dear %s,</p>
<p>Thank you for submitting your %s visa application for <strong>%s</strong>.</p>
<p>Your reference number is <strong>%s</strong>. %s</p>
<p>You can track your application progress any time from your dashboard.</p>
<p>Best regards,<br>UniWorld Consultancy</p>
</body></html>`,
		client.FullName, notification.VisaType, notification.DestinationCountry,
		notification.ApplicationRef, statusMessages[models.StatusSubmitted])

	email := mailer.Email{
		To:       client.Email,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: utils.StripHTMLTags(htmlBody),
	}

	if err := s.mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("failed to send submission email: %w", err)
	}

	s.logger.Info("Submission acknowledgement sent",
		"application_ref", notification.ApplicationRef,
		"client_id", notification.ClientID)

	return nil
}

// Run consumes status change events until ctx is cancelled. Email
// failures are logged and dropped, they never block the workflow.
func (s *notificationService) Run(ctx context.Context) error {
	if s.subscriber == nil {
		s.logger.Info("Notification consumer disabled, no subscriber configured")
		return nil
	}

	messages, err := s.subscriber.Subscribe(ctx, "case-service.applications")
	if err != nil {
		return fmt.Errorf("failed to subscribe to application events: %w", err)
	}

	s.logger.Info("Notification consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			s.handleMessage(ctx, msg)
			msg.Ack()
		}
	}
}

func (s *notificationService) handleMessage(ctx context.Context, msg *message.Message) {
	var envelope events.Event
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		s.logger.Error("Failed to decode event payload", "error", err, "message_id", msg.UUID)
		return
	}

	// Data round-trips through JSON, decode it into the typed payload
	data, err := json.Marshal(envelope.Data)
	if err != nil {
		s.logger.Error("Failed to re-encode event data", "error", err, "event_id", envelope.ID)
		return
	}

	switch envelope.Type {
	case events.EventApplicationStatusChanged:
		var payload events.ApplicationStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			s.logger.Error("Failed to decode status change event", "error", err, "event_id", envelope.ID)
			return
		}

		notification := &StatusChangeNotification{
			ApplicationRef: payload.ApplicationRef,
			ClientID:       payload.ClientID,
			OldStatus:      payload.OldStatus,
			NewStatus:      payload.NewStatus,
			Reason:         payload.Reason,
			OccurredAt:     payload.OccurredAt,
		}

		if err := s.NotifyStatusChange(ctx, notification); err != nil {
			s.logger.Error("Failed to deliver status notification",
				"error", err,
				"application_ref", payload.ApplicationRef)
		}

	case events.EventApplicationSubmitted:
		var payload events.ApplicationSubmittedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			s.logger.Error("Failed to decode submission event", "error", err, "event_id", envelope.ID)
			return
		}

		notification := &SubmissionNotification{
			ApplicationRef:     payload.ApplicationRef,
			ClientID:           payload.ClientID,
			DestinationCountry: payload.DestinationCountry,
			VisaType:           payload.VisaType,
		}

		if err := s.NotifySubmitted(ctx, notification); err != nil {
			s.logger.Error("Failed to deliver submission acknowledgement",
				"error", err,
				"application_ref", payload.ApplicationRef)
		}
	}
}

func (s *notificationService) renderStatusEmail(clientName string, n *StatusChangeNotification) string {
	statusLine := statusMessages[n.NewStatus]
	if statusLine == "" {
		statusLine = fmt.Sprintf("Your application status is now %s.", n.NewStatus)
	}

	reasonBlock := ""
	if n.Reason != "" {
		reasonBlock = fmt.Sprintf("<p><strong>Note from our team:</strong> %s</p>", n.Reason)
	}

	return fmt.Sprintf(`<html><body>
<p>Dear %s,</p>
<p>Your application <strong>%s</strong> has moved from <strong>%s</strong> to <strong>%s</strong>.</p>
<p>%s</p>
%s
<p>You can track your application progress any time from your dashboard.</p>
<p>Best regards,<br>UniWorld Consultancy</p>
</body></html>`,
		clientName, n.ApplicationRef, n.OldStatus, n.NewStatus, statusLine, reasonBlock)
}
