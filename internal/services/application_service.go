package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/uniworld-consultancy/case-service/internal/events"
	"github.com/uniworld-consultancy/case-service/internal/models"
	"github.com/uniworld-consultancy/case-service/internal/repositories"
	"github.com/uniworld-consultancy/case-service/internal/validator"
)

// refGenerationAttempts bounds the retry loop for reference collisions.
const refGenerationAttempts = 5

type applicationService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher

	// strictTransitions switches the workflow to the forward-only
	// transition table. Permissive by default.
	strictTransitions bool
}

func NewApplicationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, strictTransitions bool) ApplicationService {
	return &applicationService{
		repo:              repo,
		db:                db,
		logger:            logger,
		validator:         validator,
		publisher:         publisher,
		strictTransitions: strictTransitions,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *applicationService) Create(ctx context.Context, req *CreateApplicationRequest, clientID string) (*ApplicationResponse, error) {
	s.logger.Info("Creating application", "client_id", clientID, "visa_type", req.VisaType)

	// Validate request with business rules
	if errs := s.validator.GetBusinessValidator().ValidateApplicationCreate(req); len(errs) > 0 {
		return nil, errs
	}

	destinationCountry := strings.TrimSpace(req.DestinationCountry)

	// Resolve the catalog destination when one is referenced. The country
	// name is denormalized at submission so later catalog edits do not
	// rewrite history.
	if req.DestinationID != nil {
		dest, err := s.repo.Destinations().GetByID(ctx, nil, *req.DestinationID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrDestinationNotFound
			}
			return nil, fmt.Errorf("failed to resolve destination: %w", err)
		}
		if !dest.IsPublished {
			return nil, ErrDestinationNotFound
		}
		destinationCountry = dest.Name
	}

	var application *models.Application
	err := s.withTx(ctx, func(txRepo repositories.Repository) error {
		ref, err := s.generateApplicationRef(ctx, txRepo)
		if err != nil {
			return err
		}

		now := time.Now()
		application = &models.Application{
			ApplicationID:      ref,
			ClientID:           clientID,
			Status:             models.StatusSubmitted,
			VisaType:           req.VisaType,
			DestinationID:      req.DestinationID,
			DestinationCountry: destinationCountry,
			IntendedIntake:     req.IntendedIntake,
			CourseName:         req.CourseName,
			InstitutionName:    req.InstitutionName,
			HighestEducation:   req.HighestEducation,
			CompletionYear:     req.CompletionYear,
			EnglishTestType:    req.EnglishTestType,
			EnglishTestScore:   req.EnglishTestScore,
			HasVisaRefusal:     req.HasVisaRefusal,
			VisaRefusalDetails: req.VisaRefusalDetails,
			Notes:              req.Notes,
			Version:            1,
			SubmittedAt:        now,
		}

		if err := txRepo.Applications().Create(ctx, nil, application); err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}

		history := &models.ApplicationStatusHistory{
			ApplicationID: application.ID,
			NewStatus:     models.StatusSubmitted,
			ChangedBy:     clientID,
		}
		return txRepo.Applications().AddStatusHistory(ctx, nil, history)
	})

	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewEvent(events.EventApplicationSubmitted, &events.ApplicationSubmittedEvent{
		ApplicationID:      application.ID,
		ApplicationRef:     application.ApplicationID,
		ClientID:           clientID,
		DestinationCountry: application.DestinationCountry,
		VisaType:           string(application.VisaType),
	}))

	s.logger.Info("Application created successfully",
		"application_id", application.ID,
		"application_ref", application.ApplicationID)

	application.ComputeProgress()
	return s.buildResponse(ctx, application, clientID)
}

func (s *applicationService) GetByID(ctx context.Context, id uint, userID string) (*ApplicationResponse, error) {
	application, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkAccess(ctx, application, userID, "read"); err != nil {
		return nil, err
	}

	return s.buildResponse(ctx, application, userID)
}

func (s *applicationService) GetByRef(ctx context.Context, applicationRef string, userID string) (*ApplicationResponse, error) {
	application, err := s.repo.Applications().GetByApplicationID(ctx, nil, applicationRef)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	if err := s.checkAccess(ctx, application, userID, "read"); err != nil {
		return nil, err
	}

	return s.buildResponse(ctx, application, userID)
}

func (s *applicationService) List(ctx context.Context, req *ApplicationListRequest, userID string) (*ApplicationListResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	filters := repositories.ApplicationFilters{
		Status:        req.Status,
		VisaType:      req.VisaType,
		DestinationID: req.DestinationID,
		AssignedStaff: req.AssignedStaff,
		Search:        req.Search,
		SortBy:        req.SortBy,
		SortOrder:     req.SortOrder,
	}

	// Clients only ever see their own applications
	if !user.Role.IsStaff() {
		filters.ClientID = &userID
	}

	page, size := normalizePage(req.Page, req.Size)
	filters.Limit = size
	filters.Offset = (page - 1) * size

	applications, total, err := s.repo.Applications().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	responses := make([]*ApplicationResponse, 0, len(applications))
	for i := range applications {
		app := applications[i]
		responses = append(responses, &ApplicationResponse{
			Application:     &app,
			CanEdit:         s.canEdit(&app, user),
			CanDelete:       user.Role == models.RoleAdmin,
			CanChangeStatus: user.Role.IsStaff() && !app.Status.IsTerminal(),
		})
	}

	return &ApplicationListResponse{
		Applications: responses,
		Total:        total,
		Page:         page,
		Size:         size,
	}, nil
}

func (s *applicationService) Update(ctx context.Context, id uint, req *UpdateApplicationRequest, userID string) (*ApplicationResponse, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	application, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !s.canEdit(application, user) {
		return nil, NewPermissionError(userID, id, "application", "update", "not owner or application no longer editable")
	}

	updates := map[string]interface{}{}
	if req.IntendedIntake != nil {
		updates["intended_intake"] = *req.IntendedIntake
	}
	if req.CourseName != nil {
		updates["course_name"] = *req.CourseName
	}
	if req.InstitutionName != nil {
		updates["institution_name"] = *req.InstitutionName
	}
	if req.HighestEducation != nil {
		updates["highest_education"] = *req.HighestEducation
	}
	if req.CompletionYear != nil {
		updates["completion_year"] = *req.CompletionYear
	}
	if req.EnglishTestType != nil {
		updates["english_test_type"] = *req.EnglishTestType
	}
	if req.EnglishTestScore != nil {
		updates["english_test_score"] = *req.EnglishTestScore
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	// Only staff can reassign a case
	if req.AssignedStaff != nil {
		if !user.Role.IsStaff() {
			return nil, NewPermissionError(userID, id, "application", "assign", "insufficient role permissions")
		}
		updates["assigned_staff"] = *req.AssignedStaff
	}

	if len(updates) == 0 {
		return s.buildResponse(ctx, application, userID)
	}
	updates["updated_at"] = time.Now()

	if err := s.repo.Applications().Update(ctx, nil, id, updates); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to update application: %w", err)
	}

	return s.GetByID(ctx, id, userID)
}

// UpdateStatus moves the application through the workflow. The update is
// guarded by an optimistic version check so two staff members cannot race
// each other silently. Every change lands in the history table and emits
// an event.
func (s *applicationService) UpdateStatus(ctx context.Context, id uint, req *UpdateStatusRequest, userID string) (*ApplicationResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Role.IsStaff() {
		return nil, NewPermissionError(userID, id, "application", "update_status", "insufficient role permissions")
	}

	application, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.GetBusinessValidator().ValidateStatusTransition(application.Status, req.Status, req.Reason, s.strictTransitions); len(errs) > 0 {
		return nil, errs
	}

	// No-op transitions change nothing and emit nothing
	if application.Status == req.Status {
		return s.buildResponse(ctx, application, userID)
	}

	expectedVersion := application.Version
	if req.Version != nil {
		expectedVersion = *req.Version
	}

	oldStatus := application.Status
	now := time.Now()

	updates := map[string]interface{}{
		"status":        req.Status,
		"status_reason": req.Reason,
		"updated_at":    now,
	}
	// Terminal statuses stamp the decision date
	if req.Status.IsTerminal() {
		updates["decision_at"] = now
	}

	err = s.withTx(ctx, func(txRepo repositories.Repository) error {
		affected, err := txRepo.Applications().UpdateStatusCAS(ctx, nil, id, expectedVersion, updates)
		if err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
		if affected == 0 {
			return ErrVersionConflict
		}

		history := &models.ApplicationStatusHistory{
			ApplicationID: id,
			OldStatus:     oldStatus,
			NewStatus:     req.Status,
			Reason:        req.Reason,
			ChangedBy:     userID,
		}
		return txRepo.Applications().AddStatusHistory(ctx, nil, history)
	})

	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewEvent(events.EventApplicationStatusChanged, &events.ApplicationStatusChangedEvent{
		ApplicationID:  id,
		ApplicationRef: application.ApplicationID,
		ClientID:       application.ClientID,
		OldStatus:      oldStatus,
		NewStatus:      req.Status,
		Reason:         req.Reason,
		ChangedBy:      userID,
		OccurredAt:     now,
	}))

	s.logger.Info("Application status updated",
		"application_id", id,
		"old_status", oldStatus,
		"new_status", req.Status,
		"changed_by", userID)

	return s.GetByID(ctx, id, userID)
}

func (s *applicationService) GetStatusHistory(ctx context.Context, id uint, userID string) ([]models.ApplicationStatusHistory, error) {
	application, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkAccess(ctx, application, userID, "read_history"); err != nil {
		return nil, err
	}

	return s.repo.Applications().GetStatusHistory(ctx, nil, id)
}

func (s *applicationService) Delete(ctx context.Context, id uint, userID string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != models.RoleAdmin {
		return NewPermissionError(userID, id, "application", "delete", "insufficient role permissions")
	}

	if err := s.repo.Applications().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrApplicationNotFound
		}
		return fmt.Errorf("failed to delete application: %w", err)
	}

	s.logger.Info("Application deleted", "application_id", id, "deleted_by", userID)
	return nil
}

func (s *applicationService) Stats(ctx context.Context, userID string) (*ApplicationStats, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Role.IsStaff() {
		return nil, NewPermissionError(userID, 0, "application", "view_stats", "insufficient role permissions")
	}

	counts, err := s.repo.Applications().CountByStatus(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate applications: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &ApplicationStats{
		Total:    total,
		ByStatus: counts,
	}, nil
}

// ===== HELPERS =====

// generateApplicationRef builds a reference of the form APP-YYYYMM-NNNN
// and retries on the rare collision. The suffix is random, not serial, so
// references do not leak case volume.
func (s *applicationService) generateApplicationRef(ctx context.Context, repo repositories.Repository) (string, error) {
	prefix := time.Now().Format("200601")

	for attempt := 0; attempt < refGenerationAttempts; attempt++ {
		suffix := 1000 + rand.Intn(9000)
		ref := fmt.Sprintf("APP-%s-%d", prefix, suffix)

		exists, err := repo.Applications().ExistsByApplicationID(ctx, nil, ref)
		if err != nil {
			return "", fmt.Errorf("failed to check reference uniqueness: %w", err)
		}
		if !exists {
			return ref, nil
		}

		s.logger.Warn("Application reference collision, retrying", "ref", ref, "attempt", attempt+1)
	}

	return "", fmt.Errorf("could not generate a unique application reference after %d attempts", refGenerationAttempts)
}

func (s *applicationService) getApplication(ctx context.Context, id uint) (*models.Application, error) {
	application, err := s.repo.Applications().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return application, nil
}

func (s *applicationService) getUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// checkAccess enforces the ownership rule: clients see their own cases,
// staff see everything.
func (s *applicationService) checkAccess(ctx context.Context, application *models.Application, userID, action string) error {
	if application.ClientID == userID {
		return nil
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role.IsStaff() {
		return nil
	}

	return NewPermissionError(userID, application.ID, "application", action, "not owner or insufficient permissions")
}

func (s *applicationService) canEdit(application *models.Application, user *models.User) bool {
	if application.Status.IsTerminal() {
		return user.Role == models.RoleAdmin
	}
	if user.Role.IsStaff() {
		return true
	}
	// Clients can amend their details while the case is still early
	return application.ClientID == user.ID &&
		(application.Status == models.StatusSubmitted || application.Status == models.StatusDocsRequired)
}

func (s *applicationService) buildResponse(ctx context.Context, application *models.Application, userID string) (*ApplicationResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ApplicationResponse{
		Application:     application,
		CanEdit:         s.canEdit(application, user),
		CanDelete:       user.Role == models.RoleAdmin,
		CanChangeStatus: user.Role.IsStaff() && !application.Status.IsTerminal(),
	}, nil
}

func (s *applicationService) withTx(ctx context.Context, fn func(txRepo repositories.Repository) error) error {
	return s.repo.WithTransaction(ctx, fn)
}

// publishEvent sends the event and logs failures without failing the
// operation. The database write already happened; losing an event is
// better than rolling back a committed case.
func (s *applicationService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "error", err, "event_type", event.Type)
	}
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
