package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"gorm.io/gorm"

	"github.com/uniworld-consultancy/case-service/internal/events"
	"github.com/uniworld-consultancy/case-service/internal/mailer"
	"github.com/uniworld-consultancy/case-service/internal/repositories"
	"github.com/uniworld-consultancy/case-service/internal/storage"
	"github.com/uniworld-consultancy/case-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	// Logging configuration
	EnableDebugLogging bool
	LogLevel           slog.Level

	// Workflow settings
	StrictTransitions bool

	// Service-specific configurations
	Application  ServiceConfig
	Document     ServiceConfig
	Message      ServiceConfig
	Destination  ServiceConfig
	Notification ServiceConfig

	// Global settings
	DefaultTimeout time.Duration
	MaxRetries     int
}

type ServiceConfig struct {
	Enabled         bool
	CacheEnabled    bool
	CacheTTL        time.Duration
	ValidationLevel ValidationLevel
	AuditingEnabled bool
}

type ValidationLevel int

const (
	ValidationBasic ValidationLevel = iota
	ValidationStrict
	ValidationFull
)

// ServiceDependencies bundles the external collaborators the services need
// beyond the repository and database handles.
type ServiceDependencies struct {
	Publisher  events.EventPublisher
	Subscriber message.Subscriber
	Storage    storage.FileStorage
	Mailer     mailer.Mailer
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	deps      ServiceDependencies
	config    ServiceManagerConfig

	// Service instances
	applicationService  ApplicationService
	documentService     DocumentService
	messageService      MessageService
	destinationService  DestinationService
	notificationService NotificationService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, deps ServiceDependencies, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		deps:      deps,
		config:    config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, deps ServiceDependencies) ServiceManager {
	return NewServiceManager(db, repo, logger, validator, deps, DefaultServiceManagerConfig())
}

// DefaultServiceManagerConfig returns the default per-service configuration
func DefaultServiceManagerConfig() ServiceManagerConfig {
	return ServiceManagerConfig{
		EnableDebugLogging: false,
		LogLevel:           slog.LevelInfo,
		StrictTransitions:  false,

		Application: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    true,
			CacheTTL:        5 * time.Minute,
			ValidationLevel: ValidationStrict,
			AuditingEnabled: true,
		},
		Document: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    false,
			CacheTTL:        0,
			ValidationLevel: ValidationFull,
			AuditingEnabled: true,
		},
		Message: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    true,
			CacheTTL:        1 * time.Minute,
			ValidationLevel: ValidationBasic,
			AuditingEnabled: false,
		},
		Destination: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    true,
			CacheTTL:        15 * time.Minute,
			ValidationLevel: ValidationStrict,
			AuditingEnabled: false,
		},
		Notification: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    false,
			CacheTTL:        0,
			ValidationLevel: ValidationBasic,
			AuditingEnabled: false,
		},

		DefaultTimeout: 30 * time.Second,
		MaxRetries:     3,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if err := sm.initializeServices(ctx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) initializeServices(ctx context.Context) error {
	if sm.config.Application.Enabled {
		sm.applicationService = NewApplicationService(sm.repo, sm.db, sm.logger, sm.validator, sm.deps.Publisher, sm.config.StrictTransitions)
		sm.logger.Info("Application service initialized")
	}

	if sm.config.Document.Enabled {
		if sm.deps.Storage == nil {
			return fmt.Errorf("document service requires a file storage backend")
		}
		sm.documentService = NewDocumentService(sm.repo, sm.db, sm.logger, sm.validator, sm.deps.Storage, sm.deps.Publisher)
		sm.logger.Info("Document service initialized")
	}

	if sm.config.Message.Enabled {
		sm.messageService = NewMessageService(sm.repo, sm.db, sm.logger, sm.validator, sm.deps.Publisher)
		sm.logger.Info("Message service initialized")
	}

	if sm.config.Destination.Enabled {
		sm.destinationService = NewDestinationService(sm.repo, sm.db, sm.logger, sm.validator)
		sm.logger.Info("Destination service initialized")
	}

	if sm.config.Notification.Enabled {
		if sm.deps.Mailer == nil {
			return fmt.Errorf("notification service requires a mailer")
		}
		sm.notificationService = NewNotificationService(sm.repo, sm.deps.Mailer, sm.logger, sm.deps.Subscriber)
		sm.logger.Info("Notification service initialized")
	}

	return nil
}

// Service getters
func (sm *serviceManager) Application() ApplicationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Application.Enabled && sm.applicationService != nil {
		return sm.applicationService
	}

	panic("application service not enabled or not initialized")
}

func (sm *serviceManager) Document() DocumentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Document.Enabled && sm.documentService != nil {
		return sm.documentService
	}

	panic("document service not enabled or not initialized")
}

func (sm *serviceManager) Message() MessageService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Message.Enabled && sm.messageService != nil {
		return sm.messageService
	}

	panic("message service not enabled or not initialized")
}

func (sm *serviceManager) Destination() DestinationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Destination.Enabled && sm.destinationService != nil {
		return sm.destinationService
	}

	panic("destination service not enabled or not initialized")
}

func (sm *serviceManager) Notification() NotificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Notification.Enabled && sm.notificationService != nil {
		return sm.notificationService
	}

	panic("notification service not enabled or not initialized")
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if repoManager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := repoManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("repository health check failed: %w", err)
		}
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.deps.Publisher != nil {
		if err := sm.deps.Publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	if repoManager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := repoManager.Shutdown(ctx); err != nil {
			sm.logger.Error("Failed to shutdown repository manager", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// ===== UTILITY METHODS =====

// GetConfig returns the service manager configuration
func (sm *serviceManager) GetConfig() ServiceManagerConfig {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.config
}

// IsInitialized returns whether the service manager has been initialized
func (sm *serviceManager) IsInitialized() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.initialized
}

// WithTimeout creates a context with the default timeout
func (sm *serviceManager) WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, sm.config.DefaultTimeout)
}

// ===== CONFIGURATION VALIDATION =====

// Validate validates the service manager configuration
func (config *ServiceManagerConfig) Validate() error {
	var errors []string

	if config.DefaultTimeout <= 0 {
		errors = append(errors, "default timeout must be positive")
	}

	if config.MaxRetries < 0 {
		errors = append(errors, "max retries cannot be negative")
	}

	sections := map[string]ServiceConfig{
		"application":  config.Application,
		"document":     config.Document,
		"message":      config.Message,
		"destination":  config.Destination,
		"notification": config.Notification,
	}
	for name, sc := range sections {
		if err := sc.validate(name); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func (sc *ServiceConfig) validate(serviceName string) error {
	if sc.CacheTTL < 0 {
		return fmt.Errorf("%s: cache TTL cannot be negative", serviceName)
	}

	if sc.ValidationLevel < ValidationBasic || sc.ValidationLevel > ValidationFull {
		return fmt.Errorf("%s: invalid validation level", serviceName)
	}

	return nil
}
