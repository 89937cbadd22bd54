package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"gorm.io/gorm"

	"github.com/uniworld-consultancy/case-service/internal/events"
	"github.com/uniworld-consultancy/case-service/internal/models"
	"github.com/uniworld-consultancy/case-service/internal/repositories"
	"github.com/uniworld-consultancy/case-service/internal/storage"
	"github.com/uniworld-consultancy/case-service/internal/validator"
)

type documentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	storage   storage.FileStorage
	publisher events.EventPublisher
}

func NewDocumentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, fileStorage storage.FileStorage, publisher events.EventPublisher) DocumentService {
	return &documentService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		storage:   fileStorage,
		publisher: publisher,
	}
}

// Upload validates and stores a document. Every upload lands unverified;
// only staff can flip the flag later.
func (s *documentService) Upload(ctx context.Context, req *UploadDocumentRequest, content io.Reader, uploaderID string) (*DocumentResponse, error) {
	s.logger.Info("Uploading document",
		"application_id", req.ApplicationID,
		"document_type", req.DocumentType,
		"uploaded_by", uploaderID)

	application, err := s.getApplication(ctx, req.ApplicationID)
	if err != nil {
		return nil, err
	}

	user, err := s.getUser(ctx, uploaderID)
	if err != nil {
		return nil, err
	}
	if application.ClientID != uploaderID && !user.Role.IsStaff() {
		return nil, NewPermissionError(uploaderID, req.ApplicationID, "document", "upload", "not owner or insufficient permissions")
	}

	// Read the content up to one byte past the ceiling so oversized
	// uploads are rejected without buffering the whole stream.
	data, err := io.ReadAll(io.LimitReader(content, validator.MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	req.SizeBytes = int64(len(data))

	if errs := s.validator.GetBusinessValidator().ValidateDocumentUpload(req, data); len(errs) > 0 {
		return nil, errs
	}

	subdir := filepath.Join("applications", application.ApplicationID)
	storagePath, err := s.storage.Save(ctx, subdir, req.FileName, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	doc := &models.Document{
		ApplicationID: req.ApplicationID,
		DocumentType:  req.DocumentType,
		FileName:      req.FileName,
		StoragePath:   storagePath,
		ContentType:   mimetype.Detect(data).String(),
		SizeBytes:     req.SizeBytes,
		UploadedBy:    uploaderID,
		Verified:      false,
	}

	if err := s.repo.Documents().Create(ctx, nil, doc); err != nil {
		// The row failed, remove the orphaned file
		if delErr := s.storage.Delete(ctx, storagePath); delErr != nil {
			s.logger.Error("Failed to clean up stored file", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	s.publishEvent(ctx, events.NewEvent(events.EventDocumentUploaded, &events.DocumentUploadedEvent{
		DocumentID:    doc.ID,
		ApplicationID: doc.ApplicationID,
		DocumentType:  string(doc.DocumentType),
		FileName:      doc.FileName,
		UploadedBy:    uploaderID,
	}))

	s.logger.Info("Document uploaded", "document_id", doc.ID, "path", storagePath)

	return s.buildResponse(doc, user), nil
}

func (s *documentService) GetByID(ctx context.Context, id uint, userID string) (*DocumentResponse, error) {
	doc, user, err := s.getDocumentForUser(ctx, id, userID, "read")
	if err != nil {
		return nil, err
	}
	return s.buildResponse(doc, user), nil
}

func (s *documentService) ListByApplication(ctx context.Context, applicationID uint, userID string) ([]*DocumentResponse, error) {
	application, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if application.ClientID != userID && !user.Role.IsStaff() {
		return nil, NewPermissionError(userID, applicationID, "document", "list", "not owner or insufficient permissions")
	}

	docs, _, err := s.repo.Documents().List(ctx, nil, repositories.DocumentFilters{
		ApplicationID: &applicationID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	responses := make([]*DocumentResponse, 0, len(docs))
	for i := range docs {
		responses = append(responses, s.buildResponse(&docs[i], user))
	}
	return responses, nil
}

func (s *documentService) Download(ctx context.Context, id uint, userID string) (*DocumentDownload, error) {
	doc, _, err := s.getDocumentForUser(ctx, id, userID, "download")
	if err != nil {
		return nil, err
	}

	reader, err := s.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open stored document: %w", err)
	}

	return &DocumentDownload{
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		Content:     reader,
	}, nil
}

// Verify marks a document as checked by staff, with optional notes
func (s *documentService) Verify(ctx context.Context, id uint, notes string, staffID string) (*DocumentResponse, error) {
	user, err := s.getUser(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if !user.Role.IsStaff() {
		return nil, NewPermissionError(staffID, id, "document", "verify", "insufficient role permissions")
	}

	doc, err := s.getDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	if !doc.Verified {
		now := time.Now()
		err := s.repo.Documents().Update(ctx, nil, id, map[string]interface{}{
			"verified":           true,
			"verified_by":        staffID,
			"verified_at":        now,
			"verification_notes": notes,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to verify document: %w", err)
		}

		doc.Verified = true
		doc.VerifiedBy = &staffID
		doc.VerifiedAt = &now
		doc.VerificationNotes = notes

		s.publishEvent(ctx, events.NewEvent(events.EventDocumentVerified, &events.DocumentVerifiedEvent{
			DocumentID:    doc.ID,
			ApplicationID: doc.ApplicationID,
			VerifiedBy:    staffID,
		}))

		s.logger.Info("Document verified", "document_id", id, "verified_by", staffID)
	}

	return s.buildResponse(doc, user), nil
}

func (s *documentService) Delete(ctx context.Context, id uint, userID string) error {
	doc, user, err := s.getDocumentForUser(ctx, id, userID, "delete")
	if err != nil {
		return err
	}

	// Verified documents belong to the case record, staff only
	if doc.Verified && !user.Role.IsStaff() {
		return NewPermissionError(userID, id, "document", "delete", "verified documents can only be removed by staff")
	}

	if err := s.repo.Documents().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if err := s.storage.Delete(ctx, doc.StoragePath); err != nil {
		s.logger.Error("Failed to delete stored file", "error", err, "path", doc.StoragePath)
	}

	s.logger.Info("Document deleted", "document_id", id, "deleted_by", userID)
	return nil
}

// ===== HELPERS =====

func (s *documentService) getDocument(ctx context.Context, id uint) (*models.Document, error) {
	doc, err := s.repo.Documents().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

func (s *documentService) getApplication(ctx context.Context, id uint) (*models.Application, error) {
	application, err := s.repo.Applications().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return application, nil
}

func (s *documentService) getUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *documentService) getDocumentForUser(ctx context.Context, id uint, userID, action string) (*models.Document, *models.User, error) {
	doc, err := s.getDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	if user.Role.IsStaff() {
		return doc, user, nil
	}

	application, err := s.getApplication(ctx, doc.ApplicationID)
	if err != nil {
		return nil, nil, err
	}
	if application.ClientID != userID {
		return nil, nil, NewPermissionError(userID, id, "document", action, "not owner or insufficient permissions")
	}

	return doc, user, nil
}

func (s *documentService) buildResponse(doc *models.Document, user *models.User) *DocumentResponse {
	return &DocumentResponse{
		Document:  doc,
		CanVerify: user.Role.IsStaff() && !doc.Verified,
		CanDelete: user.Role.IsStaff() || doc.UploadedBy == user.ID,
	}
}

func (s *documentService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "error", err, "event_type", event.Type)
	}
}
