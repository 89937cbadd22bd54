package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/uniworld-consultancy/case-service/internal/cache"
	"github.com/uniworld-consultancy/case-service/internal/models"
	"github.com/uniworld-consultancy/case-service/internal/repositories"
)

type MessagePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewMessagePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.MessageRepository {
	return &MessagePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (m *MessagePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return m.db
}

func (m *MessagePostgreSQL) Create(ctx context.Context, tx *gorm.DB, msg *models.Message) error {
	if err := m.getDB(tx).WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	cache.InvalidateMessageCache(ctx, m.cacheManager, msg.SenderID, msg.ReceiverID)
	return nil
}

func (m *MessagePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Message, error) {
	var msg models.Message
	err := m.getDB(tx).WithContext(ctx).
		First(&msg, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &msg, nil
}

func (m *MessagePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.MessageFilters) ([]models.Message, int64, error) {
	query := m.getDB(tx).WithContext(ctx).Model(&models.Message{})

	query = m.helpers.ApplyMessageFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = m.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var messages []models.Message
	if err := query.Find(&messages).Error; err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// MarkRead flips the read flag once. Re-reading an already read message
// is a no-op so the read timestamp never moves.
func (m *MessagePostgreSQL) MarkRead(ctx context.Context, tx *gorm.DB, id uint) error {
	now := time.Now()
	result := m.getDB(tx).WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark message read: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		var msg models.Message
		if err := m.getDB(tx).WithContext(ctx).Select("id, sender_id, receiver_id").First(&msg, id).Error; err == nil {
			cache.InvalidateMessageCache(ctx, m.cacheManager, msg.SenderID, msg.ReceiverID)
		}
	}

	return nil
}

// CountUnread returns the unread message count for a receiver with caching
func (m *MessagePostgreSQL) CountUnread(ctx context.Context, tx *gorm.DB, receiverID string) (int64, error) {
	cacheKey := fmt.Sprintf("unread:%s", receiverID)
	var count int64

	err := m.cacheManager.Message.CacheOrExecute(ctx, cacheKey, &count, cache.MessageCacheConfig.TTL, func() (interface{}, error) {
		var dbCount int64
		err := m.getDB(tx).WithContext(ctx).
			Model(&models.Message{}).
			Where("receiver_id = ? AND is_read = ?", receiverID, false).
			Count(&dbCount).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count unread messages: %w", err)
		}
		return dbCount, nil
	})

	return count, err
}

func (m *MessagePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := m.getDB(tx).WithContext(ctx).Delete(&models.Message{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
