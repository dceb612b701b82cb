package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/helmshare/helmshare-backend/pkg/enums"
)

// User represents the canonical identity entity. Notifications reference it
// but never own it.
type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email       string         `gorm:"type:text;not null;uniqueIndex"`
	FirstName   string         `gorm:"column:first_name;not null"`
	LastName    string         `gorm:"column:last_name;not null"`
	Role        enums.UserRole `gorm:"column:role;type:user_role;not null;default:'traveler'"`
	Timezone    *string        `gorm:"column:timezone"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	LastLoginAt *time.Time     `gorm:"column:last_login_at"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
