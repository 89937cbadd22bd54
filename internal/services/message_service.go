package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"github.com/uniworld-consultancy/case-service/internal/events"
	"github.com/uniworld-consultancy/case-service/internal/models"
	"github.com/uniworld-consultancy/case-service/internal/repositories"
	"github.com/uniworld-consultancy/case-service/internal/validator"
)

type messageService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher

	// rrMu guards the round-robin cursor for staff fallback routing
	rrMu     sync.Mutex
	rrCursor int
}

func NewMessageService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) MessageService {
	return &messageService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// Send creates a message. When the sender is a client and no receiver is
// named, the message is routed to staff round-robin so one person does
// not absorb every new enquiry.
func (s *messageService) Send(ctx context.Context, req *SendMessageRequest, senderID string) (*MessageResponse, error) {
	if errs := s.validator.GetBusinessValidator().ValidateMessageCreate(req); len(errs) > 0 {
		return nil, errs
	}

	sender, err := s.getUser(ctx, senderID)
	if err != nil {
		return nil, err
	}

	receiverID := req.ReceiverID
	if receiverID == "" {
		// Only client enquiries are routed automatically, staff name who
		// they are writing to
		if sender.Role.IsStaff() {
			return nil, validator.ValidationErrors{{
				Field:   "receiver_id",
				Message: "a receiver is required",
				Rule:    "business_logic",
			}}
		}
		receiverID, err = s.nextStaffReceiver(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		if receiverID == senderID {
			return nil, validator.ValidationErrors{{
				Field:   "receiver_id",
				Message: "cannot send a message to yourself",
				Value:   receiverID,
				Rule:    "business_logic",
			}}
		}
		receiver, err := s.getUser(ctx, receiverID)
		if err != nil {
			return nil, err
		}
		// Conversations cross the desk: clients write to staff and staff
		// write to clients
		if receiver.Role.IsStaff() == sender.Role.IsStaff() {
			return nil, validator.ValidationErrors{{
				Field:   "receiver_id",
				Message: fmt.Sprintf("%s cannot message %s", sender.Role, receiver.Role),
				Value:   receiverID,
				Rule:    "business_logic",
			}}
		}
	}

	// Messages pinned to an application must reference a case the sender
	// is allowed to see
	if req.ApplicationID != nil {
		application, err := s.repo.Applications().GetByID(ctx, nil, *req.ApplicationID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrApplicationNotFound
			}
			return nil, fmt.Errorf("failed to resolve application: %w", err)
		}
		if application.ClientID != senderID && !sender.Role.IsStaff() {
			return nil, NewPermissionError(senderID, *req.ApplicationID, "message", "send", "not owner or insufficient permissions")
		}
	}

	msg := &models.Message{
		SenderID:      senderID,
		ReceiverID:    receiverID,
		ApplicationID: req.ApplicationID,
		Subject:       req.Subject,
		Body:          req.Body,
		IsRead:        false,
	}

	if err := s.repo.Messages().Create(ctx, nil, msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	s.publishEvent(ctx, events.NewEvent(events.EventMessageSent, &events.MessageSentEvent{
		MessageID:  msg.ID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Subject:    msg.Subject,
	}))

	s.logger.Info("Message sent", "message_id", msg.ID, "sender_id", senderID, "receiver_id", receiverID)

	return &MessageResponse{
		Message:    msg,
		SenderName: sender.FullName,
	}, nil
}

func (s *messageService) GetByID(ctx context.Context, id uint, userID string) (*MessageResponse, error) {
	msg, err := s.getMessage(ctx, id)
	if err != nil {
		return nil, err
	}

	if msg.SenderID != userID && msg.ReceiverID != userID {
		user, err := s.getUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if user.Role != models.RoleAdmin {
			return nil, NewPermissionError(userID, id, "message", "read", "not a participant")
		}
	}

	// Opening a message as the receiver marks it read, exactly once
	if msg.ReceiverID == userID && !msg.IsRead {
		if err := s.repo.Messages().MarkRead(ctx, nil, id); err != nil {
			s.logger.Error("Failed to mark message read", "error", err, "message_id", id)
		} else {
			msg, err = s.getMessage(ctx, id)
			if err != nil {
				return nil, err
			}
		}
	}

	return &MessageResponse{Message: msg}, nil
}

func (s *messageService) Inbox(ctx context.Context, userID string, page, size int) (*MessageListResponse, error) {
	return s.listFor(ctx, userID, page, size, repositories.MessageFilters{ReceiverID: &userID})
}

func (s *messageService) Sent(ctx context.Context, userID string, page, size int) (*MessageListResponse, error) {
	return s.listFor(ctx, userID, page, size, repositories.MessageFilters{SenderID: &userID})
}

// MarkRead flips the read flag. Only the receiver can do it, and doing it
// twice is harmless.
func (s *messageService) MarkRead(ctx context.Context, id uint, userID string) error {
	msg, err := s.getMessage(ctx, id)
	if err != nil {
		return err
	}

	if msg.ReceiverID != userID {
		return NewPermissionError(userID, id, "message", "mark_read", "only the receiver can mark a message read")
	}

	return s.repo.Messages().MarkRead(ctx, nil, id)
}

func (s *messageService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.Messages().CountUnread(ctx, nil, userID)
}

// ===== HELPERS =====

func (s *messageService) listFor(ctx context.Context, userID string, page, size int, filters repositories.MessageFilters) (*MessageListResponse, error) {
	page, size = normalizePage(page, size)
	filters.Limit = size
	filters.Offset = (page - 1) * size

	messages, total, err := s.repo.Messages().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	unread, err := s.repo.Messages().CountUnread(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread messages: %w", err)
	}

	responses := make([]*MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, &MessageResponse{Message: &messages[i]})
	}

	return &MessageListResponse{
		Messages: responses,
		Total:    total,
		Unread:   unread,
	}, nil
}

// nextStaffReceiver picks the next staff member in rotation
func (s *messageService) nextStaffReceiver(ctx context.Context) (string, error) {
	staff, err := s.repo.Users().ListStaff(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list staff: %w", err)
	}
	if len(staff) == 0 {
		return "", ErrNoStaffAvailable
	}

	s.rrMu.Lock()
	defer s.rrMu.Unlock()

	receiver := staff[s.rrCursor%len(staff)]
	s.rrCursor++
	return receiver.ID, nil
}

func (s *messageService) getMessage(ctx context.Context, id uint) (*models.Message, error) {
	msg, err := s.repo.Messages().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

func (s *messageService) getUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *messageService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "error", err, "event_type", event.Type)
	}
}
