package postgres

import (
	"gorm.io/gorm"

	"github.com/uniworld-consultancy/case-service/internal/repositories"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyApplicationFilters applies common filters to application queries
func (h *SharedHelpers) ApplyApplicationFilters(query *gorm.DB, filters repositories.ApplicationFilters) *gorm.DB {
	if filters.ClientID != nil {
		query = query.Where("client_id = ?", *filters.ClientID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.VisaType != nil {
		query = query.Where("visa_type = ?", *filters.VisaType)
	}
	if filters.DestinationID != nil {
		query = query.Where("destination_id = ?", *filters.DestinationID)
	}
	if filters.AssignedStaff != nil {
		query = query.Where("assigned_staff = ?", *filters.AssignedStaff)
	}
	if filters.Search != nil && *filters.Search != "" {
		like := "%" + *filters.Search + "%"
		query = query.Where(
			"application_id ILIKE ? OR destination_country ILIKE ? OR course_name ILIKE ? OR institution_name ILIKE ?",
			like, like, like, like)
	}
	return query
}

// ApplyMessageFilters applies common filters to message queries
func (h *SharedHelpers) ApplyMessageFilters(query *gorm.DB, filters repositories.MessageFilters) *gorm.DB {
	if filters.SenderID != nil {
		query = query.Where("sender_id = ?", *filters.SenderID)
	}
	if filters.ReceiverID != nil {
		query = query.Where("receiver_id = ?", *filters.ReceiverID)
	}
	if filters.ParticipantID != nil {
		query = query.Where("sender_id = ? OR receiver_id = ?", *filters.ParticipantID, *filters.ParticipantID)
	}
	if filters.ApplicationID != nil {
		query = query.Where("application_id = ?", *filters.ApplicationID)
	}
	if filters.IsRead != nil {
		query = query.Where("is_read = ?", *filters.IsRead)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"created_at":     true,
		"updated_at":     true,
		"submitted_at":   true,
		"id":             true,
		"application_id": true,
		"status":         true,
		"display_order":  true,
	}

	// Validate and set sort column
	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	// Validate and set sort order
	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
