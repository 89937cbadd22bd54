package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/uniworld-consultancy/case-service/internal/models"
	"github.com/uniworld-consultancy/case-service/internal/repositories"
	"github.com/uniworld-consultancy/case-service/internal/validator"
)

type destinationService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewDestinationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) DestinationService {
	return &destinationService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *destinationService) Create(ctx context.Context, req *CreateDestinationRequest, userID string) (*models.StudyDestination, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if err := s.requireStaff(ctx, userID, 0, "create"); err != nil {
		return nil, err
	}

	quickFacts, err := marshalQuickFacts(req.QuickFacts)
	if err != nil {
		return nil, err
	}

	dest := &models.StudyDestination{
		Name:         req.Name,
		Slug:         req.Slug,
		FlagEmoji:    req.FlagEmoji,
		Tagline:      req.Tagline,
		Overview:     req.Overview,
		HeroImageURL: req.HeroImageURL,
		QuickFacts:   quickFacts,
		IsPublished:  req.IsPublished,
		DisplayOrder: req.DisplayOrder,
	}

	if err := s.repo.Destinations().Create(ctx, nil, dest); err != nil {
		return nil, fmt.Errorf("failed to create destination: %w", err)
	}

	s.logger.Info("Destination created", "destination_id", dest.ID, "name", dest.Name, "created_by", userID)
	return dest, nil
}

func (s *destinationService) GetByID(ctx context.Context, id uint, userID string) (*models.StudyDestination, error) {
	dest, err := s.getDestination(ctx, id)
	if err != nil {
		return nil, err
	}

	// Unpublished pages are invisible to clients
	if !dest.IsPublished {
		if err := s.requireStaff(ctx, userID, id, "read_unpublished"); err != nil {
			return nil, ErrDestinationNotFound
		}
	}

	return dest, nil
}

func (s *destinationService) GetBySlug(ctx context.Context, slug string, userID string) (*models.StudyDestination, error) {
	dest, err := s.repo.Destinations().GetBySlug(ctx, nil, slug)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDestinationNotFound
		}
		return nil, fmt.Errorf("failed to get destination: %w", err)
	}

	if !dest.IsPublished {
		if err := s.requireStaff(ctx, userID, dest.ID, "read_unpublished"); err != nil {
			return nil, ErrDestinationNotFound
		}
	}

	return dest, nil
}

func (s *destinationService) List(ctx context.Context, userID string, search *string) ([]models.StudyDestination, error) {
	publishedOnly := true
	if err := s.requireStaff(ctx, userID, 0, "list_all"); err == nil {
		publishedOnly = false
	}

	dests, _, err := s.repo.Destinations().List(ctx, nil, repositories.DestinationFilters{
		PublishedOnly: publishedOnly,
		Search:        search,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list destinations: %w", err)
	}

	return dests, nil
}

func (s *destinationService) Update(ctx context.Context, id uint, req *UpdateDestinationRequest, userID string) (*models.StudyDestination, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if err := s.requireStaff(ctx, userID, id, "update"); err != nil {
		return nil, err
	}

	if _, err := s.getDestination(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Tagline != nil {
		updates["tagline"] = *req.Tagline
	}
	if req.Overview != nil {
		updates["overview"] = *req.Overview
	}
	if req.HeroImageURL != nil {
		updates["hero_image_url"] = *req.HeroImageURL
	}
	if req.QuickFacts != nil {
		quickFacts, err := marshalQuickFacts(req.QuickFacts)
		if err != nil {
			return nil, err
		}
		updates["quick_facts"] = quickFacts
	}
	if req.IsPublished != nil {
		updates["is_published"] = *req.IsPublished
	}
	if req.DisplayOrder != nil {
		updates["display_order"] = *req.DisplayOrder
	}

	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		if err := s.repo.Destinations().Update(ctx, nil, id, updates); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrDestinationNotFound
			}
			return nil, fmt.Errorf("failed to update destination: %w", err)
		}
	}

	return s.getDestination(ctx, id)
}

func (s *destinationService) Delete(ctx context.Context, id uint, userID string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != models.RoleAdmin {
		return NewPermissionError(userID, id, "destination", "delete", "insufficient role permissions")
	}

	if err := s.repo.Destinations().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrDestinationNotFound
		}
		return fmt.Errorf("failed to delete destination: %w", err)
	}

	s.logger.Info("Destination deleted", "destination_id", id, "deleted_by", userID)
	return nil
}

// ===== HELPERS =====

func (s *destinationService) getDestination(ctx context.Context, id uint) (*models.StudyDestination, error) {
	dest, err := s.repo.Destinations().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDestinationNotFound
		}
		return nil, fmt.Errorf("failed to get destination: %w", err)
	}
	return dest, nil
}

func (s *destinationService) getUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *destinationService) requireStaff(ctx context.Context, userID string, resourceID uint, action string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Role.IsStaff() {
		return NewPermissionError(userID, resourceID, "destination", action, "insufficient role permissions")
	}
	return nil
}

func marshalQuickFacts(facts map[string]string) (datatypes.JSON, error) {
	if facts == nil {
		return nil, nil
	}
	data, err := json.Marshal(facts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode quick facts: %w", err)
	}
	return datatypes.JSON(data), nil
}
