package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleClient UserRole = "client"
	RoleStaff  UserRole = "staff"
	RoleAdmin  UserRole = "admin"
)

// IsStaff reports whether the role carries staff capability. Admins are
// treated as staff everywhere staff capability is checked.
func (r UserRole) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role     UserRole `json:"role" gorm:"-"`

	AvatarURL *string `json:"avatar_url" gorm:"size:500"`

	EmailVerified bool `json:"email_verified" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Optional role profiles
	ClientProfile *ClientProfile `json:"client_profile,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	StaffProfile  *StaffProfile  `json:"staff_profile,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// ClientProfile carries client-side contact and passport details.
type ClientProfile struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	UserID         string     `json:"user_id" gorm:"uniqueIndex;not null;size:255"`
	Phone          string     `json:"phone" gorm:"size:20"`
	Address        string     `json:"address" gorm:"type:text"`
	PassportNumber string     `json:"passport_number" gorm:"size:50"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	Country        string     `json:"country" gorm:"size:100"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StaffProfile carries staff department and designation details.
type StaffProfile struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	UserID      string `json:"user_id" gorm:"uniqueIndex;not null;size:255"`
	Phone       string `json:"phone" gorm:"size:20"`
	Department  string `json:"department" gorm:"size:100"`
	Designation string `json:"designation" gorm:"size:100"`
	IsAgent     bool   `json:"is_agent" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (ClientProfile) TableName() string {
	return "client_profiles"
}

func (StaffProfile) TableName() string {
	return "staff_profiles"
}
