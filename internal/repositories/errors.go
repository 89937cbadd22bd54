package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when an entity does not exist.
var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err means the record was absent,
// whichever layer produced it.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
