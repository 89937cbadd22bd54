package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/uniworld-consultancy/case-service/internal/cache"
	"github.com/uniworld-consultancy/case-service/internal/models"
	"github.com/uniworld-consultancy/case-service/internal/repositories"
)

type ApplicationPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewApplicationPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ApplicationRepository {
	return &ApplicationPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (a *ApplicationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

// Create inserts a new application and invalidates list caches
func (a *ApplicationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, app *models.Application) error {
	if err := a.getDB(tx).WithContext(ctx).Create(app).Error; err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, a.cacheManager.Application, fmt.Sprintf("client:%s:*", app.ClientID))
	cache.SafeInvalidatePattern(ctx, a.cacheManager.Application, "list:*")
	cache.SafeInvalidatePattern(ctx, a.cacheManager.Stats, "applications:*")

	return nil
}

// GetByID retrieves an application by primary key with caching
func (a *ApplicationPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Application, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var app models.Application

	err := a.cacheManager.Application.CacheOrExecute(ctx, cacheKey, &app, cache.ApplicationCacheConfig.TTL, func() (interface{}, error) {
		var dbApp models.Application
		err := a.getDB(tx).WithContext(ctx).
			Preload("Destination").
			Preload("Documents").
			First(&dbApp, id).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get application: %w", err)
		}
		return &dbApp, nil
	})

	if err != nil {
		return nil, err
	}

	app.ComputeProgress()
	return &app, nil
}

// GetByApplicationID retrieves an application by its public reference
func (a *ApplicationPostgreSQL) GetByApplicationID(ctx context.Context, tx *gorm.DB, applicationID string) (*models.Application, error) {
	var app models.Application
	err := a.getDB(tx).WithContext(ctx).
		Preload("Destination").
		Preload("Documents").
		Where("application_id = ?", applicationID).
		First(&app).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get application by reference: %w", err)
	}

	app.ComputeProgress()
	return &app, nil
}

// List retrieves applications with filters and pagination
func (a *ApplicationPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ApplicationFilters) ([]models.Application, int64, error) {
	query := a.getDB(tx).WithContext(ctx).Model(&models.Application{})

	query = a.helpers.ApplyApplicationFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = a.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var apps []models.Application
	if err := query.Preload("Destination").Find(&apps).Error; err != nil {
		return nil, 0, err
	}

	for i := range apps {
		apps[i].ComputeProgress()
	}

	return apps, total, nil
}

// Update applies partial updates and invalidates cache
func (a *ApplicationPostgreSQL) Update(ctx context.Context, tx *gorm.DB, id uint, updates map[string]interface{}) error {
	result := a.getDB(tx).WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update application: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	a.invalidateByID(ctx, tx, id)
	return nil
}

// UpdateStatusCAS performs a compare-and-swap status update guarded by the
// stored version. Zero rows affected means the version moved underneath us.
func (a *ApplicationPostgreSQL) UpdateStatusCAS(ctx context.Context, tx *gorm.DB, id uint, expectedVersion int, updates map[string]interface{}) (int64, error) {
	updates["version"] = expectedVersion + 1

	result := a.getDB(tx).WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update application status: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		a.invalidateByID(ctx, tx, id)
	}

	return result.RowsAffected, nil
}

// Delete soft deletes an application
func (a *ApplicationPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	var app models.Application
	if err := a.getDB(tx).WithContext(ctx).Select("id, client_id").First(&app, id).Error; err != nil {
		return fmt.Errorf("failed to get application before delete: %w", err)
	}

	if err := a.getDB(tx).WithContext(ctx).Delete(&models.Application{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}

	cache.InvalidateApplicationCache(ctx, a.cacheManager, id, app.ClientID)
	return nil
}

// ExistsByApplicationID reports whether the public reference is taken
func (a *ApplicationPostgreSQL) ExistsByApplicationID(ctx context.Context, tx *gorm.DB, applicationID string) (bool, error) {
	var count int64
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.Application{}).
		Where("application_id = ?", applicationID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check application reference: %w", err)
	}
	return count > 0, nil
}

// CountByStatus aggregates applications per status for dashboards
func (a *ApplicationPostgreSQL) CountByStatus(ctx context.Context, tx *gorm.DB) (map[models.ApplicationStatus]int64, error) {
	type row struct {
		Status models.ApplicationStatus
		Count  int64
	}

	var rows []row
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.Application{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count applications by status: %w", err)
	}

	counts := make(map[models.ApplicationStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// AddStatusHistory appends an audit record for a status change
func (a *ApplicationPostgreSQL) AddStatusHistory(ctx context.Context, tx *gorm.DB, h *models.ApplicationStatusHistory) error {
	if err := a.getDB(tx).WithContext(ctx).Create(h).Error; err != nil {
		return fmt.Errorf("failed to record status history: %w", err)
	}
	return nil
}

// GetStatusHistory returns the audit trail for an application, newest first
func (a *ApplicationPostgreSQL) GetStatusHistory(ctx context.Context, tx *gorm.DB, applicationID uint) ([]models.ApplicationStatusHistory, error) {
	var history []models.ApplicationStatusHistory
	err := a.getDB(tx).WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at DESC").
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}
	return history, nil
}

func (a *ApplicationPostgreSQL) invalidateByID(ctx context.Context, tx *gorm.DB, id uint) {
	var app models.Application
	if err := a.getDB(tx).WithContext(ctx).Select("id, client_id").First(&app, id).Error; err == nil {
		cache.InvalidateApplicationCache(ctx, a.cacheManager, id, app.ClientID)
		return
	}
	cache.SafeDelete(ctx, a.cacheManager.Application, fmt.Sprintf("id:%d", id))
	cache.SafeInvalidatePattern(ctx, a.cacheManager.Application, "list:*")
}
