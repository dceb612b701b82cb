package preferences

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/helmshare/helmshare-backend/pkg/db/models"
)

// Repository persists the one-row-per-user preference records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	// Find returns nil, nil when the user has no stored preferences.
	Find(ctx context.Context, userID uuid.UUID) (*models.NotificationPreferences, error)
	Upsert(ctx context.Context, prefs *models.NotificationPreferences) error
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

func (r *repositoryImpl) Find(ctx context.Context, userID uuid.UUID) (*models.NotificationPreferences, error) {
	var prefs models.NotificationPreferences
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&prefs).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching notification preferences: %w", err)
	}
	return &prefs, nil
}

func (r *repositoryImpl) Upsert(ctx context.Context, prefs *models.NotificationPreferences) error {
	if prefs.ID == uuid.Nil {
		prefs.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"push_enabled", "email_enabled", "sms_enabled",
				"categories_enabled", "frequency",
				"quiet_hours_enabled", "quiet_hours_start", "quiet_hours_end", "quiet_hours_timezone",
				"channel_category_allowlist", "updated_at",
			}),
		}).
		Create(prefs).Error
	if err != nil {
		return fmt.Errorf("upserting notification preferences: %w", err)
	}
	return nil
}
