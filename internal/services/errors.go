package services

import (
	"errors"
	"fmt"
)

// Sentinel errors for missing entities
var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrMessageNotFound     = errors.New("message not found")
	ErrDestinationNotFound = errors.New("destination not found")
	ErrUserNotFound        = errors.New("user not found")

	// ErrVersionConflict means a concurrent update won the race
	ErrVersionConflict = errors.New("application was modified concurrently, retry with the current version")

	// ErrNoStaffAvailable means messaging could not pick a receiver
	ErrNoStaffAvailable = errors.New("no staff available to receive the message")
)

// PermissionError describes a denied operation
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsPermissionError reports whether err is a permission denial
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsNotFoundError reports whether err is one of the missing-entity sentinels
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrApplicationNotFound) ||
		errors.Is(err, ErrDocumentNotFound) ||
		errors.Is(err, ErrMessageNotFound) ||
		errors.Is(err, ErrDestinationNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsConflictError reports whether err is a concurrency conflict
func IsConflictError(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}
