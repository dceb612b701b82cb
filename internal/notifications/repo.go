package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/helmshare/helmshare-backend/pkg/db/models"
	"github.com/helmshare/helmshare-backend/pkg/enums"
	pkgerrors "github.com/helmshare/helmshare-backend/pkg/errors"
	"github.com/helmshare/helmshare-backend/pkg/pagination"
)

// ListParams narrows a user's notification feed.
type ListParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
	Category   *enums.NotificationCategory
}

// Repository is the persistence boundary for notification records. Delivery
// status transitions are compare-and-swap updates: a transition whose guard
// does not match leaves the row untouched and reports a state conflict.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, notification *models.Notification) error
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Notification, error)
	List(ctx context.Context, params ListParams) ([]models.Notification, *pagination.Cursor, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)

	MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)

	MarkSent(ctx context.Context, id uuid.UUID, gatewayMessageID string, at time.Time) error
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause string, at time.Time) error
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	return nil
}

func (r *repositoryImpl) Get(ctx context.Context, userID, id uuid.UUID) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&notification).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		return nil, fmt.Errorf("fetching notification: %w", err)
	}
	return &notification, nil
}

func (r *repositoryImpl) List(ctx context.Context, params ListParams) ([]models.Notification, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Where("user_id = ?", params.UserID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if params.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if params.Category != nil {
		query = query.Where("category = ?", *params.Category)
	}
	if params.Cursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)",
			params.Cursor.CreatedAt, params.Cursor.ID,
		)
	}

	var rows []models.Notification
	if err := query.Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("listing notifications: %w", err)
	}

	var next *pagination.Cursor
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return rows, next, nil
}

func (r *repositoryImpl) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead is idempotent: marking an already-read notification keeps its
// original read_at.
func (r *repositoryImpl) MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) (*models.Notification, error) {
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		UpdateColumn("read_at", at).Error
	if err != nil {
		return nil, fmt.Errorf("marking notification read: %w", err)
	}
	return r.Get(ctx, userID, id)
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		UpdateColumn("read_at", at)
	if result.Error != nil {
		return 0, fmt.Errorf("marking all notifications read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) MarkSent(ctx context.Context, id uuid.UUID, gatewayMessageID string, at time.Time) error {
	return r.transition(ctx, id,
		[]enums.DeliveryStatus{enums.DeliveryStatusPending},
		map[string]any{
			"delivery_status":    enums.DeliveryStatusSent,
			"sent_at":            at,
			"gateway_message_id": gatewayMessageID,
		},
	)
}

func (r *repositoryImpl) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.transition(ctx, id,
		[]enums.DeliveryStatus{enums.DeliveryStatusSent},
		map[string]any{
			"delivery_status": enums.DeliveryStatusDelivered,
			"delivered_at":    at,
		},
	)
}

// MarkFailed accepts both pending (gateway rejected the send) and sent (a
// later delivery receipt reported failure).
func (r *repositoryImpl) MarkFailed(ctx context.Context, id uuid.UUID, cause string, at time.Time) error {
	return r.transition(ctx, id,
		[]enums.DeliveryStatus{enums.DeliveryStatusPending, enums.DeliveryStatusSent},
		map[string]any{
			"delivery_status": enums.DeliveryStatusFailed,
			"gateway_error":   cause,
		},
	)
}

// transition performs a guarded status update. When zero rows match the guard
// it re-reads the row to distinguish a missing record from a lost race.
func (r *repositoryImpl) transition(ctx context.Context, id uuid.UUID, from []enums.DeliveryStatus, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND delivery_status IN ?", id, from).
		UpdateColumns(updates)
	if result.Error != nil {
		return fmt.Errorf("updating delivery status: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var current models.Notification
	err := r.db.WithContext(ctx).
		Select("delivery_status").
		Where("id = ?", id).
		First(&current).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		return fmt.Errorf("checking delivery status: %w", err)
	}

	return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery status transition disallowed").
		WithDetails(map[string]any{
			"currentStatus": current.DeliveryStatus,
			"targetStatus":  updates["delivery_status"],
		})
}
