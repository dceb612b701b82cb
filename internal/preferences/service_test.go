package preferences

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/helmshare/helmshare-backend/pkg/db/models"
	"github.com/helmshare/helmshare-backend/pkg/enums"
	pkgerrors "github.com/helmshare/helmshare-backend/pkg/errors"
	"github.com/helmshare/helmshare-backend/pkg/logger"
)

func newTestService(t *testing.T) Service {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, gdb.Exec(`
		CREATE TABLE notification_preferences (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			push_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			email_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			sms_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			categories_enabled TEXT,
			frequency TEXT NOT NULL DEFAULT 'instant',
			quiet_hours_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			quiet_hours_start TEXT NOT NULL DEFAULT '22:00',
			quiet_hours_end TEXT NOT NULL DEFAULT '07:00',
			quiet_hours_timezone TEXT NOT NULL DEFAULT 'UTC',
			channel_category_allowlist TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error)

	svc, err := NewService(NewRepository(gdb), logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return svc
}

func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

func TestGetReturnsDefaultsWhenAbsent(t *testing.T) {
	svc := newTestService(t)
	userID := uuid.New()

	prefs, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, userID, prefs.UserID)
	assert.True(t, prefs.PushEnabled)
	assert.True(t, prefs.EmailEnabled)
	assert.False(t, prefs.SMSEnabled)
	assert.False(t, prefs.QuietHoursEnabled)
	assert.Equal(t, enums.NotificationFrequencyInstant, prefs.Frequency)

	// defaults are materialized, not persisted
	stored, err := svc.ForUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestUpdatePersistsAndMerges(t *testing.T) {
	svc := newTestService(t)
	userID := uuid.New()
	ctx := context.Background()

	updated, err := svc.Update(ctx, userID, UpdateRequest{
		SMSEnabled: boolPtr(true),
		QuietHours: &models.QuietHours{Enabled: true, Start: "21:30", End: "06:30", Timezone: "Europe/Athens"},
	})
	require.NoError(t, err)
	assert.True(t, updated.SMSEnabled)
	assert.True(t, updated.QuietHoursEnabled)
	assert.Equal(t, "21:30", updated.QuietHoursStart)

	// second partial update keeps earlier fields
	updated, err = svc.Update(ctx, userID, UpdateRequest{
		PushEnabled: boolPtr(false),
		CategoriesEnabled: map[enums.NotificationCategory]bool{
			enums.NotificationCategoryMarketing: false,
		},
	})
	require.NoError(t, err)
	assert.False(t, updated.PushEnabled)
	assert.True(t, updated.SMSEnabled)
	assert.Equal(t, "Europe/Athens", updated.QuietHoursTimezone)

	stored, err := svc.ForUser(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.CategoryEnabled(enums.NotificationCategoryMarketing))
	assert.True(t, stored.CategoryEnabled(enums.NotificationCategoryTransaction))
}

func TestUpdateFrequencyAndAllowlist(t *testing.T) {
	svc := newTestService(t)
	userID := uuid.New()

	updated, err := svc.Update(context.Background(), userID, UpdateRequest{
		Frequency: strPtr("daily"),
		ChannelCategoryAllowlist: map[enums.NotificationChannel][]enums.NotificationCategory{
			enums.NotificationChannelEmail: {enums.NotificationCategoryMarketing},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.NotificationFrequencyDaily, updated.Frequency)
	assert.True(t, updated.ChannelAllowsCategory(enums.NotificationChannelEmail, enums.NotificationCategoryMarketing))
	assert.False(t, updated.ChannelAllowsCategory(enums.NotificationChannelEmail, enums.NotificationCategoryTransaction))
}

func TestUpdateRejectsBadInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  UpdateRequest
		code pkgerrors.Code
	}{
		{
			name: "bad quiet hours start",
			req:  UpdateRequest{QuietHours: &models.QuietHours{Start: "25:00", End: "07:00", Timezone: "UTC"}},
			code: pkgerrors.CodeConfiguration,
		},
		{
			name: "bad quiet hours timezone",
			req:  UpdateRequest{QuietHours: &models.QuietHours{Start: "22:00", End: "07:00", Timezone: "Mars/Olympus"}},
			code: pkgerrors.CodeConfiguration,
		},
		{
			name: "unknown frequency",
			req:  UpdateRequest{Frequency: strPtr("hourly")},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "unknown category key",
			req:  UpdateRequest{CategoriesEnabled: map[enums.NotificationCategory]bool{"gossip": false}},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "unknown allowlist channel",
			req: UpdateRequest{ChannelCategoryAllowlist: map[enums.NotificationChannel][]enums.NotificationCategory{
				"fax": {enums.NotificationCategoryMarketing},
			}},
			code: pkgerrors.CodeValidation,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Update(ctx, uuid.New(), tc.req)
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func TestUpdateEqualStartAndEndAllowed(t *testing.T) {
	svc := newTestService(t)

	updated, err := svc.Update(context.Background(), uuid.New(), UpdateRequest{
		QuietHours: &models.QuietHours{Enabled: true, Start: "09:00", End: "09:00", Timezone: "UTC"},
	})
	require.NoError(t, err)
	assert.Equal(t, "09:00", updated.QuietHoursStart)
	assert.Equal(t, "09:00", updated.QuietHoursEnd)
}
