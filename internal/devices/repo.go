package devices

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/helmshare/helmshare-backend/pkg/db/models"
)

// Repository persists registered push device tokens.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	// Upsert registers a token or, when the token already exists, reassigns
	// it to the given user and refreshes last_seen_at.
	Upsert(ctx context.Context, device *models.PushDevice) error

	// LatestForUser returns the most recently seen device, or nil when the
	// user has none registered.
	LatestForUser(ctx context.Context, userID uuid.UUID) (*models.PushDevice, error)

	Delete(ctx context.Context, userID uuid.UUID, token string) (int64, error)
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

func (r *repositoryImpl) Upsert(ctx context.Context, device *models.PushDevice) error {
	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}
	device.LastSeenAt = time.Now().UTC()

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "last_seen_at"}),
		}).
		Create(device).Error
	if err != nil {
		return fmt.Errorf("upserting push device: %w", err)
	}
	return nil
}

func (r *repositoryImpl) LatestForUser(ctx context.Context, userID uuid.UUID) (*models.PushDevice, error) {
	var device models.PushDevice
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_seen_at DESC").
		First(&device).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching push device: %w", err)
	}
	return &device, nil
}

func (r *repositoryImpl) Delete(ctx context.Context, userID uuid.UUID, token string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&models.PushDevice{})
	if result.Error != nil {
		return 0, fmt.Errorf("deleting push device: %w", result.Error)
	}
	return result.RowsAffected, nil
}
