package services

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/uniworld-consultancy/case-service/internal/models"
	"github.com/uniworld-consultancy/case-service/internal/repositories"
)

// mockRepository is an in-memory Repository for service tests. It backs
// every sub-repository with plain maps so tests exercise the services
// without a database.
type mockRepository struct {
	applications *mockApplicationRepo
	documents    *mockDocumentRepo
	messages     *mockMessageRepo
	destinations *mockDestinationRepo
	users        *mockUserRepo
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		applications: &mockApplicationRepo{apps: make(map[uint]*models.Application)},
		documents:    &mockDocumentRepo{docs: make(map[uint]*models.Document)},
		messages:     &mockMessageRepo{msgs: make(map[uint]*models.Message)},
		destinations: &mockDestinationRepo{dests: make(map[uint]*models.StudyDestination)},
		users:        &mockUserRepo{users: make(map[string]*models.User)},
	}
}

func (m *mockRepository) Applications() repositories.ApplicationRepository { return m.applications }
func (m *mockRepository) Documents() repositories.DocumentRepository       { return m.documents }
func (m *mockRepository) Messages() repositories.MessageRepository         { return m.messages }
func (m *mockRepository) Destinations() repositories.DestinationRepository { return m.destinations }
func (m *mockRepository) Users() repositories.UserRepository               { return m.users }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// addUser seeds a user directly into the mock
func (m *mockRepository) addUser(id, name, email string, role models.UserRole) *models.User {
	user := &models.User{ID: id, FullName: name, Email: email, Role: role}
	m.users.mu.Lock()
	defer m.users.mu.Unlock()
	m.users.users[id] = user
	return user
}

// ===== APPLICATIONS =====

type mockApplicationRepo struct {
	mu      sync.Mutex
	apps    map[uint]*models.Application
	history []models.ApplicationStatusHistory
	nextID  uint
}

func (r *mockApplicationRepo) Create(_ context.Context, _ *gorm.DB, app *models.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	app.ID = r.nextID
	stored := *app
	r.apps[app.ID] = &stored
	return nil
}

func (r *mockApplicationRepo) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.apps[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	app := *stored
	app.ComputeProgress()
	return &app, nil
}

func (r *mockApplicationRepo) GetByApplicationID(_ context.Context, _ *gorm.DB, applicationID string) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, stored := range r.apps {
		if stored.ApplicationID == applicationID {
			app := *stored
			app.ComputeProgress()
			return &app, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *mockApplicationRepo) List(_ context.Context, _ *gorm.DB, filters repositories.ApplicationFilters) ([]models.Application, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Application
	for _, stored := range r.apps {
		if filters.ClientID != nil && stored.ClientID != *filters.ClientID {
			continue
		}
		if filters.Status != nil && stored.Status != *filters.Status {
			continue
		}
		if filters.VisaType != nil && stored.VisaType != *filters.VisaType {
			continue
		}
		app := *stored
		app.ComputeProgress()
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *mockApplicationRepo) Update(_ context.Context, _ *gorm.DB, id uint, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	app, ok := r.apps[id]
	if !ok {
		return repositories.ErrNotFound
	}
	for key, value := range updates {
		switch key {
		case "intended_intake":
			app.IntendedIntake = value.(string)
		case "course_name":
			app.CourseName = value.(string)
		case "institution_name":
			app.InstitutionName = value.(string)
		case "notes":
			app.Notes = value.(string)
		case "assigned_staff":
			app.AssignedStaff = value.(string)
		case "completion_year":
			year := value.(int)
			app.CompletionYear = &year
		case "updated_at":
			app.UpdatedAt = value.(time.Time)
		}
	}
	return nil
}

func (r *mockApplicationRepo) UpdateStatusCAS(_ context.Context, _ *gorm.DB, id uint, expectedVersion int, updates map[string]interface{}) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	app, ok := r.apps[id]
	if !ok || app.Version != expectedVersion {
		return 0, nil
	}
	if status, ok := updates["status"].(models.ApplicationStatus); ok {
		app.Status = status
	}
	if reason, ok := updates["status_reason"].(string); ok {
		app.StatusReason = reason
	}
	if updatedAt, ok := updates["updated_at"].(time.Time); ok {
		app.UpdatedAt = updatedAt
	}
	if decisionAt, ok := updates["decision_at"].(time.Time); ok {
		app.DecisionAt = &decisionAt
	}
	app.Version++
	return 1, nil
}

func (r *mockApplicationRepo) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.apps[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.apps, id)
	return nil
}

func (r *mockApplicationRepo) ExistsByApplicationID(_ context.Context, _ *gorm.DB, applicationID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, stored := range r.apps {
		if stored.ApplicationID == applicationID {
			return true, nil
		}
	}
	return false, nil
}

func (r *mockApplicationRepo) CountByStatus(_ context.Context, _ *gorm.DB) (map[models.ApplicationStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[models.ApplicationStatus]int64)
	for _, stored := range r.apps {
		counts[stored.Status]++
	}
	return counts, nil
}

func (r *mockApplicationRepo) AddStatusHistory(_ context.Context, _ *gorm.DB, h *models.ApplicationStatusHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h.ID = uint(len(r.history) + 1)
	h.CreatedAt = time.Now()
	r.history = append(r.history, *h)
	return nil
}

func (r *mockApplicationRepo) GetStatusHistory(_ context.Context, _ *gorm.DB, applicationID uint) ([]models.ApplicationStatusHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.ApplicationStatusHistory
	for _, h := range r.history {
		if h.ApplicationID == applicationID {
			out = append(out, h)
		}
	}
	return out, nil
}

// ===== DOCUMENTS =====

type mockDocumentRepo struct {
	mu     sync.Mutex
	docs   map[uint]*models.Document
	nextID uint
}

func (r *mockDocumentRepo) Create(_ context.Context, _ *gorm.DB, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	doc.ID = r.nextID
	stored := *doc
	r.docs[doc.ID] = &stored
	return nil
}

func (r *mockDocumentRepo) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.docs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	doc := *stored
	return &doc, nil
}

func (r *mockDocumentRepo) List(_ context.Context, _ *gorm.DB, filters repositories.DocumentFilters) ([]models.Document, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Document
	for _, stored := range r.docs {
		if filters.ApplicationID != nil && stored.ApplicationID != *filters.ApplicationID {
			continue
		}
		if filters.DocumentType != nil && stored.DocumentType != *filters.DocumentType {
			continue
		}
		if filters.Verified != nil && stored.Verified != *filters.Verified {
			continue
		}
		out = append(out, *stored)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *mockDocumentRepo) Update(_ context.Context, _ *gorm.DB, id uint, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return repositories.ErrNotFound
	}
	for key, value := range updates {
		switch key {
		case "verified":
			doc.Verified = value.(bool)
		case "verified_by":
			by := value.(string)
			doc.VerifiedBy = &by
		case "verified_at":
			at := value.(time.Time)
			doc.VerifiedAt = &at
		case "verification_notes":
			doc.VerificationNotes = value.(string)
		}
	}
	return nil
}

func (r *mockDocumentRepo) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.docs, id)
	return nil
}

// ===== MESSAGES =====

type mockMessageRepo struct {
	mu     sync.Mutex
	msgs   map[uint]*models.Message
	nextID uint
}

func (r *mockMessageRepo) Create(_ context.Context, _ *gorm.DB, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	msg.ID = r.nextID
	msg.CreatedAt = time.Now()
	stored := *msg
	r.msgs[msg.ID] = &stored
	return nil
}

func (r *mockMessageRepo) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.msgs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	msg := *stored
	return &msg, nil
}

func (r *mockMessageRepo) List(_ context.Context, _ *gorm.DB, filters repositories.MessageFilters) ([]models.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Message
	for _, stored := range r.msgs {
		if filters.SenderID != nil && stored.SenderID != *filters.SenderID {
			continue
		}
		if filters.ReceiverID != nil && stored.ReceiverID != *filters.ReceiverID {
			continue
		}
		if filters.IsRead != nil && stored.IsRead != *filters.IsRead {
			continue
		}
		out = append(out, *stored)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

// MarkRead mirrors the conditional SQL update: already-read messages are
// left untouched.
func (r *mockMessageRepo) MarkRead(_ context.Context, _ *gorm.DB, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg, ok := r.msgs[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if !msg.IsRead {
		now := time.Now()
		msg.IsRead = true
		msg.ReadAt = &now
	}
	return nil
}

func (r *mockMessageRepo) CountUnread(_ context.Context, _ *gorm.DB, receiverID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, stored := range r.msgs {
		if stored.ReceiverID == receiverID && !stored.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *mockMessageRepo) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.msgs[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.msgs, id)
	return nil
}

// ===== DESTINATIONS =====

type mockDestinationRepo struct {
	mu     sync.Mutex
	dests  map[uint]*models.StudyDestination
	nextID uint
}

func (r *mockDestinationRepo) Create(_ context.Context, _ *gorm.DB, dest *models.StudyDestination) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	dest.ID = r.nextID
	stored := *dest
	r.dests[dest.ID] = &stored
	return nil
}

func (r *mockDestinationRepo) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.StudyDestination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.dests[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	dest := *stored
	return &dest, nil
}

func (r *mockDestinationRepo) GetBySlug(_ context.Context, _ *gorm.DB, slug string) (*models.StudyDestination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, stored := range r.dests {
		if stored.Slug == slug {
			dest := *stored
			return &dest, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *mockDestinationRepo) List(_ context.Context, _ *gorm.DB, filters repositories.DestinationFilters) ([]models.StudyDestination, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.StudyDestination
	for _, stored := range r.dests {
		if filters.PublishedOnly && !stored.IsPublished {
			continue
		}
		if filters.Search != nil && !strings.Contains(strings.ToLower(stored.Name), strings.ToLower(*filters.Search)) {
			continue
		}
		out = append(out, *stored)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *mockDestinationRepo) Update(_ context.Context, _ *gorm.DB, id uint, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dest, ok := r.dests[id]
	if !ok {
		return repositories.ErrNotFound
	}
	for key, value := range updates {
		switch key {
		case "name":
			dest.Name = value.(string)
		case "tagline":
			dest.Tagline = value.(string)
		case "overview":
			dest.Overview = value.(string)
		case "is_published":
			dest.IsPublished = value.(bool)
		case "display_order":
			dest.DisplayOrder = value.(int)
		case "updated_at":
			dest.UpdatedAt = value.(time.Time)
		}
	}
	return nil
}

func (r *mockDestinationRepo) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.dests[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.dests, id)
	return nil
}

// ===== USERS =====

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (r *mockUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	user := *stored
	return &user, nil
}

func (r *mockUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, stored := range r.users {
		if stored.Email == email {
			user := *stored
			return &user, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *mockUserRepo) List(_ context.Context, filters repositories.UserFilters) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.User
	for _, stored := range r.users {
		if filters.Role != nil && stored.Role != *filters.Role {
			continue
		}
		out = append(out, *stored)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *mockUserRepo) ListStaff(_ context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.User
	for _, stored := range r.users {
		if stored.Role.IsStaff() {
			out = append(out, *stored)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ===== STORAGE =====

// mockFileStorage keeps stored files in memory
type mockFileStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMockFileStorage() *mockFileStorage {
	return &mockFileStorage{files: make(map[string][]byte)}
}

func (s *mockFileStorage) Save(_ context.Context, subdir, fileName string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	path := filepath.Join(subdir, fileName)
	s.files[path] = data
	return path, nil
}

func (s *mockFileStorage) Open(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.files[path]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *mockFileStorage) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	return nil
}
