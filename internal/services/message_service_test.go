package services

import (
	"context"
	"errors"
	"testing"

	"github.com/uniworld-consultancy/case-service/internal/events"
	"github.com/uniworld-consultancy/case-service/internal/models"
	"github.com/uniworld-consultancy/case-service/internal/validator"
)

func newTestMessageService(withStaff bool) (MessageService, *mockRepository, *events.MockEventPublisher) {
	repo := newMockRepository()
	repo.addUser("client-1", "Amina Rahman", "amina@example.com", models.RoleClient)
	repo.addUser("client-2", "Tariq Hossain", "tariq@example.com", models.RoleClient)
	if withStaff {
		repo.addUser("staff-1", "Sadia Islam", "sadia@uniworld.example", models.RoleStaff)
		repo.addUser("staff-2", "Nadia Khan", "nadia@uniworld.example", models.RoleStaff)
	}

	publisher := events.NewMockEventPublisher(newTestLogger())
	service := NewMessageService(repo, nil, newTestLogger(), validator.New(), publisher)
	return service, repo, publisher
}

func TestMessageSend(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to a named receiver", func(t *testing.T) {
		service, _, publisher := newTestMessageService(true)

		resp, err := service.Send(ctx, &SendMessageRequest{
			ReceiverID: "staff-1",
			Subject:    "Question about my case",
			Body:       "When will my documents be checked?",
		}, "client-1")
		if err != nil {
			t.Fatalf("Send failed: %v", err)
		}

		if resp.ReceiverID != "staff-1" {
			t.Errorf("Expected receiver staff-1, got %s", resp.ReceiverID)
		}
		if resp.IsRead {
			t.Error("New messages must start unread")
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventMessageSent {
			t.Errorf("Expected one %s event, got %d", events.EventMessageSent, len(published))
		}
	})

	t.Run("empty receiver rotates across staff", func(t *testing.T) {
		service, _, _ := newTestMessageService(true)

		var receivers []string
		for i := 0; i < 3; i++ {
			resp, err := service.Send(ctx, &SendMessageRequest{Body: "Hello"}, "client-1")
			if err != nil {
				t.Fatalf("Send %d failed: %v", i, err)
			}
			receivers = append(receivers, resp.ReceiverID)
		}

		want := []string{"staff-1", "staff-2", "staff-1"}
		for i, receiver := range receivers {
			if receiver != want[i] {
				t.Errorf("Message %d routed to %s, want %s", i, receiver, want[i])
			}
		}
	})

	t.Run("no staff means no fallback receiver", func(t *testing.T) {
		service, _, _ := newTestMessageService(false)

		_, err := service.Send(ctx, &SendMessageRequest{Body: "Hello"}, "client-1")
		if !errors.Is(err, ErrNoStaffAvailable) {
			t.Errorf("Expected ErrNoStaffAvailable, got %v", err)
		}
	})

	t.Run("staff must name a receiver", func(t *testing.T) {
		service, _, _ := newTestMessageService(true)

		_, err := service.Send(ctx, &SendMessageRequest{Body: "Hello"}, "staff-1")
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("Expected validation errors, got %v", err)
		}
		if verrs[0].Field != "receiver_id" {
			t.Errorf("Expected receiver_id failure, got %s", verrs[0].Field)
		}
	})

	t.Run("clients cannot message each other", func(t *testing.T) {
		service, _, _ := newTestMessageService(true)

		_, err := service.Send(ctx, &SendMessageRequest{ReceiverID: "client-2", Body: "Hello"}, "client-1")
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("Expected validation errors, got %v", err)
		}
		if verrs[0].Field != "receiver_id" {
			t.Errorf("Expected receiver_id failure, got %s", verrs[0].Field)
		}
	})

	t.Run("staff cannot message staff", func(t *testing.T) {
		service, _, _ := newTestMessageService(true)

		_, err := service.Send(ctx, &SendMessageRequest{ReceiverID: "staff-2", Body: "Hello"}, "staff-1")
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("Expected validation errors, got %v", err)
		}
	})

	t.Run("self send is rejected", func(t *testing.T) {
		service, _, _ := newTestMessageService(true)

		_, err := service.Send(ctx, &SendMessageRequest{ReceiverID: "client-1", Body: "Hello me"}, "client-1")
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("Expected validation errors for self send, got %v", err)
		}
	})

	t.Run("blank body is rejected", func(t *testing.T) {
		service, _, _ := newTestMessageService(true)

		if _, err := service.Send(ctx, &SendMessageRequest{ReceiverID: "staff-1", Body: "   "}, "client-1"); err == nil {
			t.Fatal("Expected blank body to fail")
		}
	})

	t.Run("case-pinned message needs access to the case", func(t *testing.T) {
		service, repo, _ := newTestMessageService(true)
		app := seedApplication(t, repo, "client-1")

		if _, err := service.Send(ctx, &SendMessageRequest{
			ReceiverID:    "staff-1",
			ApplicationID: &app.ID,
			Body:          "About my application",
		}, "client-1"); err != nil {
			t.Errorf("Owner send failed: %v", err)
		}

		_, err := service.Send(ctx, &SendMessageRequest{
			ReceiverID:    "staff-1",
			ApplicationID: &app.ID,
			Body:          "About someone else's application",
		}, "client-2")
		if !IsPermissionError(err) {
			t.Errorf("Expected permission error, got %v", err)
		}
	})
}

func TestMessageRead(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestMessageService(true)

	resp, err := service.Send(ctx, &SendMessageRequest{ReceiverID: "staff-1", Body: "Hello"}, "client-1")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	t.Run("receiver opening the message marks it read", func(t *testing.T) {
		opened, err := service.GetByID(ctx, resp.ID, "staff-1")
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if !opened.IsRead {
			t.Error("Message should be read after the receiver opens it")
		}
		if opened.ReadAt == nil {
			t.Error("ReadAt should be stamped")
		}
	})

	t.Run("read timestamp is stable on reopen", func(t *testing.T) {
		first, err := service.GetByID(ctx, resp.ID, "staff-1")
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		second, err := service.GetByID(ctx, resp.ID, "staff-1")
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if !first.ReadAt.Equal(*second.ReadAt) {
			t.Error("ReadAt changed on reopen")
		}
	})

	t.Run("sender opening does not mark read", func(t *testing.T) {
		other, err := service.Send(ctx, &SendMessageRequest{ReceiverID: "staff-2", Body: "Second"}, "client-1")
		if err != nil {
			t.Fatalf("Send failed: %v", err)
		}

		seen, err := service.GetByID(ctx, other.ID, "client-1")
		if err != nil {
			t.Fatalf("GetByID as sender failed: %v", err)
		}
		if seen.IsRead {
			t.Error("Sender view must not mark the message read")
		}
	})

	t.Run("non-participant cannot read", func(t *testing.T) {
		_, err := service.GetByID(ctx, resp.ID, "client-2")
		if !IsPermissionError(err) {
			t.Errorf("Expected permission error, got %v", err)
		}
	})

	t.Run("only the receiver can mark read", func(t *testing.T) {
		another, err := service.Send(ctx, &SendMessageRequest{ReceiverID: "staff-1", Body: "Third"}, "client-1")
		if err != nil {
			t.Fatalf("Send failed: %v", err)
		}

		if err := service.MarkRead(ctx, another.ID, "client-1"); !IsPermissionError(err) {
			t.Errorf("Expected permission error, got %v", err)
		}
		if err := service.MarkRead(ctx, another.ID, "staff-1"); err != nil {
			t.Errorf("Receiver MarkRead failed: %v", err)
		}
		// Marking twice is harmless
		if err := service.MarkRead(ctx, another.ID, "staff-1"); err != nil {
			t.Errorf("Repeat MarkRead failed: %v", err)
		}
	})
}

func TestMessageBoxes(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestMessageService(true)

	for i := 0; i < 3; i++ {
		if _, err := service.Send(ctx, &SendMessageRequest{ReceiverID: "staff-1", Body: "Hello"}, "client-1"); err != nil {
			t.Fatalf("Send failed: %v", err)
		}
	}
	reply, err := service.Send(ctx, &SendMessageRequest{ReceiverID: "client-1", Body: "Hi back"}, "staff-1")
	if err != nil {
		t.Fatalf("Reply failed: %v", err)
	}

	t.Run("inbox and sent are partitioned", func(t *testing.T) {
		inbox, err := service.Inbox(ctx, "staff-1", 1, 20)
		if err != nil {
			t.Fatalf("Inbox failed: %v", err)
		}
		if inbox.Total != 3 {
			t.Errorf("Expected 3 inbox messages, got %d", inbox.Total)
		}

		sent, err := service.Sent(ctx, "client-1", 1, 20)
		if err != nil {
			t.Fatalf("Sent failed: %v", err)
		}
		if sent.Total != 3 {
			t.Errorf("Expected 3 sent messages, got %d", sent.Total)
		}
	})

	t.Run("unread count tracks reads", func(t *testing.T) {
		count, err := service.UnreadCount(ctx, "staff-1")
		if err != nil {
			t.Fatalf("UnreadCount failed: %v", err)
		}
		if count != 3 {
			t.Errorf("Expected 3 unread, got %d", count)
		}

		inbox, _ := service.Inbox(ctx, "staff-1", 1, 20)
		if err := service.MarkRead(ctx, inbox.Messages[0].ID, "staff-1"); err != nil {
			t.Fatalf("MarkRead failed: %v", err)
		}

		count, _ = service.UnreadCount(ctx, "staff-1")
		if count != 2 {
			t.Errorf("Expected 2 unread after reading one, got %d", count)
		}

		clientUnread, _ := service.UnreadCount(ctx, "client-1")
		if clientUnread != 1 {
			t.Errorf("Expected 1 unread for client, got %d", clientUnread)
		}
		if err := service.MarkRead(ctx, reply.ID, "client-1"); err != nil {
			t.Fatalf("MarkRead failed: %v", err)
		}
		clientUnread, _ = service.UnreadCount(ctx, "client-1")
		if clientUnread != 0 {
			t.Errorf("Expected 0 unread for client, got %d", clientUnread)
		}
	})
}
