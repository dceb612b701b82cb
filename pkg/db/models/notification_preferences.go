package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/helmshare/helmshare-backend/pkg/enums"
)

// QuietHours is a local-time window during which non-urgent delivery is
// suppressed. Start and end are 24-hour "HH:MM" wall-clock strings; equal
// values mean a degenerate full-day window.
type QuietHours struct {
	Enabled  bool   `json:"enabled"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
}

// NotificationPreferences is the one-to-one preference record per user.
// Missing categoriesEnabled keys mean enabled; only an explicit false gates.
type NotificationPreferences struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"-"`
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex" json:"userId"`

	PushEnabled  bool `gorm:"column:push_enabled;not null;default:true" json:"pushEnabled"`
	EmailEnabled bool `gorm:"column:email_enabled;not null;default:true" json:"emailEnabled"`
	SMSEnabled   bool `gorm:"column:sms_enabled;not null;default:false" json:"smsEnabled"`

	CategoriesEnabled map[enums.NotificationCategory]bool `gorm:"column:categories_enabled;type:jsonb;serializer:json" json:"categoriesEnabled"`

	Frequency enums.NotificationFrequency `gorm:"column:frequency;type:notification_frequency;not null;default:'instant'" json:"frequency"`

	QuietHoursEnabled  bool   `gorm:"column:quiet_hours_enabled;not null;default:false" json:"-"`
	QuietHoursStart    string `gorm:"column:quiet_hours_start;type:text;not null;default:'22:00'" json:"-"`
	QuietHoursEnd      string `gorm:"column:quiet_hours_end;type:text;not null;default:'07:00'" json:"-"`
	QuietHoursTimezone string `gorm:"column:quiet_hours_timezone;type:text;not null;default:'UTC'" json:"-"`

	ChannelCategoryAllowlist map[enums.NotificationChannel][]enums.NotificationCategory `gorm:"column:channel_category_allowlist;type:jsonb;serializer:json" json:"channelCategoryAllowlist"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

// QuietHours assembles the window columns into one value.
func (p NotificationPreferences) QuietHours() QuietHours {
	return QuietHours{
		Enabled:  p.QuietHoursEnabled,
		Start:    p.QuietHoursStart,
		End:      p.QuietHoursEnd,
		Timezone: p.QuietHoursTimezone,
	}
}

// ChannelEnabled reports whether the given channel is switched on.
func (p NotificationPreferences) ChannelEnabled(channel enums.NotificationChannel) bool {
	switch channel {
	case enums.NotificationChannelPush:
		return p.PushEnabled
	case enums.NotificationChannelEmail:
		return p.EmailEnabled
	case enums.NotificationChannelSMS:
		return p.SMSEnabled
	default:
		return false
	}
}

// CategoryEnabled applies the absent-means-enabled rule.
func (p NotificationPreferences) CategoryEnabled(category enums.NotificationCategory) bool {
	if p.CategoriesEnabled == nil {
		return true
	}
	enabled, ok := p.CategoriesEnabled[category]
	if !ok {
		return true
	}
	return enabled
}

// ChannelAllowsCategory checks the per-channel category allowlist. A missing
// allowlist for a channel allows every category.
func (p NotificationPreferences) ChannelAllowsCategory(channel enums.NotificationChannel, category enums.NotificationCategory) bool {
	if p.ChannelCategoryAllowlist == nil {
		return true
	}
	allowed, ok := p.ChannelCategoryAllowlist[channel]
	if !ok {
		return true
	}
	for _, candidate := range allowed {
		if candidate == category {
			return true
		}
	}
	return false
}
