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

type DocumentPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewDocumentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.DocumentRepository {
	return &DocumentPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (d *DocumentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return d.db
}

func (d *DocumentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, doc *models.Document) error {
	if err := d.getDB(tx).WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	// The parent application is cached with its documents preloaded
	d.invalidateApplication(ctx, doc.ApplicationID)
	return nil
}

func (d *DocumentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Document, error) {
	var doc models.Document
	err := d.getDB(tx).WithContext(ctx).
		Preload("Application").
		First(&doc, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

func (d *DocumentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.DocumentFilters) ([]models.Document, int64, error) {
	query := d.getDB(tx).WithContext(ctx).Model(&models.Document{})

	if filters.ApplicationID != nil {
		query = query.Where("application_id = ?", *filters.ApplicationID)
	}
	if filters.DocumentType != nil {
		query = query.Where("document_type = ?", *filters.DocumentType)
	}
	if filters.Verified != nil {
		query = query.Where("verified = ?", *filters.Verified)
	}
	if filters.UploadedBy != nil {
		query = query.Where("uploaded_by = ?", *filters.UploadedBy)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var docs []models.Document
	if err := query.Find(&docs).Error; err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

func (d *DocumentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, id uint, updates map[string]interface{}) error {
	applicationID := d.parentApplicationID(ctx, tx, id)

	result := d.getDB(tx).WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	d.invalidateApplication(ctx, applicationID)
	return nil
}

func (d *DocumentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	applicationID := d.parentApplicationID(ctx, tx, id)

	result := d.getDB(tx).WithContext(ctx).Delete(&models.Document{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	d.invalidateApplication(ctx, applicationID)
	return nil
}

func (d *DocumentPostgreSQL) parentApplicationID(ctx context.Context, tx *gorm.DB, id uint) uint {
	var doc models.Document
	if err := d.getDB(tx).WithContext(ctx).Select("id, application_id").First(&doc, id).Error; err != nil {
		return 0
	}
	return doc.ApplicationID
}

// invalidateApplication drops the cached parent application so its
// preloaded document list is not served stale.
func (d *DocumentPostgreSQL) invalidateApplication(ctx context.Context, applicationID uint) {
	if applicationID == 0 {
		return
	}
	cache.SafeDelete(ctx, d.cacheManager.Application, fmt.Sprintf("id:%d", applicationID))
}
