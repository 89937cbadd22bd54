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

type DestinationPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewDestinationPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.DestinationRepository {
	return &DestinationPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (d *DestinationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return d.db
}

func (d *DestinationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, dest *models.StudyDestination) error {
	if err := d.getDB(tx).WithContext(ctx).Create(dest).Error; err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, d.cacheManager.Destination, "list:*")
	return nil
}

// GetByID retrieves a destination with all nested catalog sections
func (d *DestinationPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.StudyDestination, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var dest models.StudyDestination

	err := d.cacheManager.Destination.CacheOrExecute(ctx, cacheKey, &dest, cache.DestinationCacheConfig.TTL, func() (interface{}, error) {
		var dbDest models.StudyDestination
		err := d.preloadSections(d.getDB(tx).WithContext(ctx)).
			First(&dbDest, id).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get destination: %w", err)
		}
		return &dbDest, nil
	})

	if err != nil {
		return nil, err
	}
	return &dest, nil
}

// GetBySlug retrieves a destination page by its URL slug
func (d *DestinationPostgreSQL) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.StudyDestination, error) {
	cacheKey := fmt.Sprintf("slug:%s", slug)
	var dest models.StudyDestination

	err := d.cacheManager.Destination.CacheOrExecute(ctx, cacheKey, &dest, cache.DestinationCacheConfig.TTL, func() (interface{}, error) {
		var dbDest models.StudyDestination
		err := d.preloadSections(d.getDB(tx).WithContext(ctx)).
			Where("slug = ?", slug).
			First(&dbDest).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get destination by slug: %w", err)
		}
		return &dbDest, nil
	})

	if err != nil {
		return nil, err
	}
	return &dest, nil
}

func (d *DestinationPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.DestinationFilters) ([]models.StudyDestination, int64, error) {
	query := d.getDB(tx).WithContext(ctx).Model(&models.StudyDestination{})

	if filters.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if filters.Search != nil && *filters.Search != "" {
		query = query.Where("name ILIKE ?", "%"+*filters.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("display_order ASC, name ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var dests []models.StudyDestination
	if err := query.Find(&dests).Error; err != nil {
		return nil, 0, err
	}

	return dests, total, nil
}

func (d *DestinationPostgreSQL) Update(ctx context.Context, tx *gorm.DB, id uint, updates map[string]interface{}) error {
	result := d.getDB(tx).WithContext(ctx).
		Model(&models.StudyDestination{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update destination: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateDestinationCache(ctx, d.cacheManager, id)
	return nil
}

func (d *DestinationPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := d.getDB(tx).WithContext(ctx).Delete(&models.StudyDestination{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete destination: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateDestinationCache(ctx, d.cacheManager, id)
	return nil
}

func (d *DestinationPostgreSQL) preloadSections(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Universities", orderByDisplayOrder).
		Preload("Intakes", orderByDisplayOrder).
		Preload("Requirements", orderByDisplayOrder).
		Preload("CostItems", orderByDisplayOrder).
		Preload("ProcessSteps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_number ASC")
		}).
		Preload("FAQs", orderByDisplayOrder)
}

func orderByDisplayOrder(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC")
}
