package preferences

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/helmshare/helmshare-backend/pkg/db/models"
	"github.com/helmshare/helmshare-backend/pkg/enums"
	pkgerrors "github.com/helmshare/helmshare-backend/pkg/errors"
	"github.com/helmshare/helmshare-backend/pkg/logger"
)

var clockRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// UpdateRequest is a partial preference update. Nil fields keep their stored
// value; map fields replace the stored map wholesale when present.
type UpdateRequest struct {
	PushEnabled  *bool
	EmailEnabled *bool
	SMSEnabled   *bool

	CategoriesEnabled map[enums.NotificationCategory]bool
	Frequency         *string
	QuietHours        *models.QuietHours

	ChannelCategoryAllowlist map[enums.NotificationChannel][]enums.NotificationCategory
}

// Service manages per-user notification preferences. Reads materialize the
// platform defaults when the user has never saved preferences; defaults are
// not written back until the first update.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.NotificationPreferences, error)
	Update(ctx context.Context, userID uuid.UUID, req UpdateRequest) (*models.NotificationPreferences, error)

	// ForUser returns nil when the user has no stored preferences. The
	// dispatcher applies its own fail-open semantics on top.
	ForUser(ctx context.Context, userID uuid.UUID) (*models.NotificationPreferences, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Defaults returns the platform default preferences for a user.
func Defaults(userID uuid.UUID) *models.NotificationPreferences {
	return &models.NotificationPreferences{
		UserID:             userID,
		PushEnabled:        true,
		EmailEnabled:       true,
		SMSEnabled:         false,
		Frequency:          enums.NotificationFrequencyInstant,
		QuietHoursEnabled:  false,
		QuietHoursStart:    "22:00",
		QuietHoursEnd:      "07:00",
		QuietHoursTimezone: "UTC",
	}
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.NotificationPreferences, error) {
	prefs, err := s.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		return Defaults(userID), nil
	}
	return prefs, nil
}

func (s *service) ForUser(ctx context.Context, userID uuid.UUID) (*models.NotificationPreferences, error) {
	prefs, err := s.repo.Find(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading notification preferences")
	}
	return prefs, nil
}

func (s *service) Update(ctx context.Context, userID uuid.UUID, req UpdateRequest) (*models.NotificationPreferences, error) {
	if err := validateUpdate(req); err != nil {
		return nil, err
	}

	prefs, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	applyUpdate(prefs, req)

	if err := s.repo.Upsert(ctx, prefs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving notification preferences")
	}

	s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "notification preferences updated")
	return prefs, nil
}

func applyUpdate(prefs *models.NotificationPreferences, req UpdateRequest) {
	if req.PushEnabled != nil {
		prefs.PushEnabled = *req.PushEnabled
	}
	if req.EmailEnabled != nil {
		prefs.EmailEnabled = *req.EmailEnabled
	}
	if req.SMSEnabled != nil {
		prefs.SMSEnabled = *req.SMSEnabled
	}
	if req.CategoriesEnabled != nil {
		prefs.CategoriesEnabled = req.CategoriesEnabled
	}
	if req.Frequency != nil {
		// validated already
		frequency, _ := enums.ParseNotificationFrequency(*req.Frequency)
		prefs.Frequency = frequency
	}
	if req.QuietHours != nil {
		prefs.QuietHoursEnabled = req.QuietHours.Enabled
		prefs.QuietHoursStart = req.QuietHours.Start
		prefs.QuietHoursEnd = req.QuietHours.End
		prefs.QuietHoursTimezone = req.QuietHours.Timezone
	}
	if req.ChannelCategoryAllowlist != nil {
		prefs.ChannelCategoryAllowlist = req.ChannelCategoryAllowlist
	}
}

func validateUpdate(req UpdateRequest) error {
	for category := range req.CategoriesEnabled {
		if !category.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown category %q", category))
		}
	}
	if req.Frequency != nil {
		if _, err := enums.ParseNotificationFrequency(*req.Frequency); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid frequency")
		}
	}
	for channel, categories := range req.ChannelCategoryAllowlist {
		if !channel.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown channel %q", channel))
		}
		for _, category := range categories {
			if !category.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown category %q", category))
			}
		}
	}
	if req.QuietHours != nil {
		return validateQuietHours(*req.QuietHours)
	}
	return nil
}

// validateQuietHours rejects malformed windows at write time so dispatch never
// has to fail open on stored data.
func validateQuietHours(window models.QuietHours) error {
	if !clockRe.MatchString(window.Start) {
		return pkgerrors.New(pkgerrors.CodeConfiguration, fmt.Sprintf("quiet hours start %q is not HH:MM", window.Start))
	}
	if !clockRe.MatchString(window.End) {
		return pkgerrors.New(pkgerrors.CodeConfiguration, fmt.Sprintf("quiet hours end %q is not HH:MM", window.End))
	}
	if _, err := time.LoadLocation(window.Timezone); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, fmt.Sprintf("unknown timezone %q", window.Timezone))
	}
	return nil
}
