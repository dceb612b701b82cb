package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/helmshare/helmshare-backend/pkg/enums"
)

// Notification is one delivery-tracked notification instance. It is created
// exactly once per non-suppressed dispatch, never deleted by this service,
// and its delivery status only moves forward.
type Notification struct {
	ID       uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID   uuid.UUID                  `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	Type     enums.NotificationType     `gorm:"type:notification_type;not null" json:"type"`
	Category enums.NotificationCategory `gorm:"type:notification_category;not null" json:"category"`
	Priority enums.NotificationPriority `gorm:"type:notification_priority;not null;default:'medium'" json:"priority"`

	Title    string         `gorm:"type:text;not null" json:"title"`
	Message  string         `gorm:"type:text;not null" json:"message"`
	Metadata map[string]any `gorm:"column:metadata;type:jsonb;serializer:json" json:"metadata,omitempty"`

	DeliveryStatus   enums.DeliveryStatus `gorm:"column:delivery_status;type:delivery_status;not null;default:'pending'" json:"deliveryStatus"`
	GatewayMessageID *string              `gorm:"column:gateway_message_id;type:text" json:"gatewayMessageId,omitempty"`
	GatewayError     *string              `gorm:"column:gateway_error;type:text" json:"gatewayError,omitempty"`

	// Persisted untouched; sweeping is a future collaborator.
	ScheduledFor *time.Time `gorm:"column:scheduled_for;type:timestamptz" json:"scheduledFor,omitempty"`
	ExpiresAt    *time.Time `gorm:"column:expires_at;type:timestamptz" json:"expiresAt,omitempty"`

	ReadAt      *time.Time `gorm:"column:read_at;type:timestamptz" json:"readAt,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;type:timestamptz;default:now()" json:"createdAt"`
	SentAt      *time.Time `gorm:"column:sent_at;type:timestamptz" json:"sentAt,omitempty"`
	DeliveredAt *time.Time `gorm:"column:delivered_at;type:timestamptz" json:"deliveredAt,omitempty"`
}

// Read reports whether the notification was marked read.
func (n Notification) Read() bool {
	return n.ReadAt != nil
}
