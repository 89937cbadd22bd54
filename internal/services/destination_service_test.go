package services

import (
	"context"
	"errors"
	"testing"

	"github.com/uniworld-consultancy/case-service/internal/models"
	"github.com/uniworld-consultancy/case-service/internal/validator"
)

func newTestDestinationService() (DestinationService, *mockRepository) {
	repo := newMockRepository()
	repo.addUser("client-1", "Amina Rahman", "amina@example.com", models.RoleClient)
	repo.addUser("staff-1", "Sadia Islam", "sadia@uniworld.example", models.RoleStaff)
	repo.addUser("admin-1", "Rafiq Ahmed", "rafiq@uniworld.example", models.RoleAdmin)

	service := NewDestinationService(repo, nil, newTestLogger(), validator.New())
	return service, repo
}

func canadaRequest(published bool) *CreateDestinationRequest {
	return &CreateDestinationRequest{
		Name:        "Canada",
		Slug:        "canada",
		FlagEmoji:   "🇨🇦",
		Tagline:     "World-class universities with post-study work rights",
		QuickFacts:  map[string]string{"capital": "Ottawa", "currency": "CAD"},
		IsPublished: published,
	}
}

func TestDestinationCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("staff can create", func(t *testing.T) {
		service, _ := newTestDestinationService()

		dest, err := service.Create(ctx, canadaRequest(true), "staff-1")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if dest.Slug != "canada" {
			t.Errorf("Expected slug canada, got %s", dest.Slug)
		}
		if len(dest.QuickFacts) == 0 {
			t.Error("QuickFacts should be stored")
		}
	})

	t.Run("client cannot create", func(t *testing.T) {
		service, _ := newTestDestinationService()

		_, err := service.Create(ctx, canadaRequest(true), "client-1")
		if !IsPermissionError(err) {
			t.Errorf("Expected permission error, got %v", err)
		}
	})

	t.Run("invalid payload is rejected", func(t *testing.T) {
		service, _ := newTestDestinationService()

		req := canadaRequest(true)
		req.Name = "C"
		if _, err := service.Create(ctx, req, "staff-1"); err == nil {
			t.Fatal("Expected single-letter name to fail validation")
		}
	})
}

func TestDestinationPublishGating(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestDestinationService()

	draft, err := service.Create(ctx, canadaRequest(false), "staff-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	t.Run("client sees not found for an unpublished page", func(t *testing.T) {
		if _, err := service.GetByID(ctx, draft.ID, "client-1"); !errors.Is(err, ErrDestinationNotFound) {
			t.Errorf("Expected ErrDestinationNotFound, got %v", err)
		}
		if _, err := service.GetBySlug(ctx, "canada", "client-1"); !errors.Is(err, ErrDestinationNotFound) {
			t.Errorf("Expected ErrDestinationNotFound, got %v", err)
		}
	})

	t.Run("anonymous sees not found for an unpublished page", func(t *testing.T) {
		if _, err := service.GetByID(ctx, draft.ID, ""); !errors.Is(err, ErrDestinationNotFound) {
			t.Errorf("Expected ErrDestinationNotFound, got %v", err)
		}
	})

	t.Run("staff can read the draft", func(t *testing.T) {
		if _, err := service.GetByID(ctx, draft.ID, "staff-1"); err != nil {
			t.Errorf("Staff read failed: %v", err)
		}
	})

	t.Run("publishing makes it visible", func(t *testing.T) {
		published := true
		if _, err := service.Update(ctx, draft.ID, &UpdateDestinationRequest{IsPublished: &published}, "staff-1"); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		if _, err := service.GetByID(ctx, draft.ID, "client-1"); err != nil {
			t.Errorf("Client read of published page failed: %v", err)
		}
		if _, err := service.GetBySlug(ctx, "canada", ""); err != nil {
			t.Errorf("Anonymous read of published page failed: %v", err)
		}
	})
}

func TestDestinationList(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestDestinationService()

	if _, err := service.Create(ctx, canadaRequest(true), "staff-1"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	draft := canadaRequest(false)
	draft.Name = "Germany"
	draft.Slug = "germany"
	if _, err := service.Create(ctx, draft, "staff-1"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	t.Run("clients only see published entries", func(t *testing.T) {
		dests, err := service.List(ctx, "client-1", nil)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(dests) != 1 || dests[0].Name != "Canada" {
			t.Errorf("Expected only Canada, got %d entries", len(dests))
		}
	})

	t.Run("staff see drafts too", func(t *testing.T) {
		dests, err := service.List(ctx, "staff-1", nil)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(dests) != 2 {
			t.Errorf("Expected 2 entries for staff, got %d", len(dests))
		}
	})

	t.Run("search narrows by name", func(t *testing.T) {
		search := "ger"
		dests, err := service.List(ctx, "staff-1", &search)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(dests) != 1 || dests[0].Name != "Germany" {
			t.Errorf("Expected only Germany, got %d entries", len(dests))
		}
	})
}

func TestDestinationUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestDestinationService()

	dest, err := service.Create(ctx, canadaRequest(true), "staff-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	t.Run("client cannot update", func(t *testing.T) {
		tagline := "New tagline"
		_, err := service.Update(ctx, dest.ID, &UpdateDestinationRequest{Tagline: &tagline}, "client-1")
		if !IsPermissionError(err) {
			t.Errorf("Expected permission error, got %v", err)
		}
	})

	t.Run("staff update applies fields", func(t *testing.T) {
		tagline := "Study and settle"
		updated, err := service.Update(ctx, dest.ID, &UpdateDestinationRequest{Tagline: &tagline}, "staff-1")
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.Tagline != tagline {
			t.Errorf("Expected tagline %q, got %q", tagline, updated.Tagline)
		}
	})

	t.Run("delete is admin only", func(t *testing.T) {
		if err := service.Delete(ctx, dest.ID, "staff-1"); !IsPermissionError(err) {
			t.Errorf("Expected permission error for staff delete, got %v", err)
		}
		if err := service.Delete(ctx, dest.ID, "admin-1"); err != nil {
			t.Errorf("Admin delete failed: %v", err)
		}
		if _, err := service.GetByID(ctx, dest.ID, "admin-1"); !errors.Is(err, ErrDestinationNotFound) {
			t.Errorf("Expected ErrDestinationNotFound after delete, got %v", err)
		}
	})
}
