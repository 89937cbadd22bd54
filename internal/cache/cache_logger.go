package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// BatchInvalidate invalidates multiple patterns in batch
func BatchInvalidate(ctx context.Context, helper *CacheHelper, patterns []string) error {
	var lastErr error
	for _, pattern := range patterns {
		if err := helper.InvalidatePattern(ctx, pattern); err != nil {
			lastErr = err
			slog.ErrorContext(ctx, "Failed to invalidate pattern in batch",
				"error", err,
				"pattern", pattern)
		}
	}
	return lastErr
}

// InvalidateApplicationCache invalidates all application-related caches using pipeline
func InvalidateApplicationCache(ctx context.Context, cm *CacheManager, applicationID uint, clientID string) {
	// Delete specific keys using single call
	SafeDelete(ctx, cm.Application,
		fmt.Sprintf("id:%d", applicationID),
		fmt.Sprintf("details:%d", applicationID))

	// Invalidate patterns
	SafeInvalidatePattern(ctx, cm.Application, fmt.Sprintf("client:%s:*", clientID))
	SafeInvalidatePattern(ctx, cm.Application, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, "applications:*")
}

// InvalidateDestinationCache invalidates all destination catalog caches
func InvalidateDestinationCache(ctx context.Context, cm *CacheManager, destinationID uint) {
	SafeDelete(ctx, cm.Destination, fmt.Sprintf("id:%d", destinationID))
	SafeInvalidatePattern(ctx, cm.Destination, "slug:*")
	SafeInvalidatePattern(ctx, cm.Destination, "list:*")
}

// InvalidateMessageCache invalidates message counters for both participants
func InvalidateMessageCache(ctx context.Context, cm *CacheManager, senderID, receiverID string) {
	SafeInvalidatePattern(ctx, cm.Message, fmt.Sprintf("unread:%s*", senderID))
	SafeInvalidatePattern(ctx, cm.Message, fmt.Sprintf("unread:%s*", receiverID))
}
