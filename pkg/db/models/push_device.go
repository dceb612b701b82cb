package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/helmshare/helmshare-backend/pkg/enums"
)

// PushDevice stores a registered push token for a user's device.
type PushDevice struct {
	ID         uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	Token      string             `gorm:"type:text;not null;uniqueIndex" json:"token"`
	Platform   enums.PushPlatform `gorm:"type:push_platform;not null" json:"platform"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	LastSeenAt time.Time          `gorm:"column:last_seen_at;autoUpdateTime" json:"lastSeenAt"`
}
