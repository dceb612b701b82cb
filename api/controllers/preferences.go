package controllers

import (
	"net/http"

	"github.com/helmshare/helmshare-backend/api/responses"
	"github.com/helmshare/helmshare-backend/api/validators"
	"github.com/helmshare/helmshare-backend/internal/preferences"
	"github.com/helmshare/helmshare-backend/pkg/db/models"
	"github.com/helmshare/helmshare-backend/pkg/enums"
	"github.com/helmshare/helmshare-backend/pkg/logger"
)

type quietHoursBody struct {
	Enabled  bool   `json:"enabled"`
	Start    string `json:"start" validate:"required"`
	End      string `json:"end" validate:"required"`
	Timezone string `json:"timezone" validate:"required"`
}

type updatePreferencesBody struct {
	PushEnabled  *bool `json:"pushEnabled"`
	EmailEnabled *bool `json:"emailEnabled"`
	SMSEnabled   *bool `json:"smsEnabled"`

	CategoriesEnabled map[enums.NotificationCategory]bool `json:"categoriesEnabled"`
	Frequency         *string                             `json:"frequency"`
	QuietHours        *quietHoursBody                     `json:"quietHours"`

	ChannelCategoryAllowlist map[enums.NotificationChannel][]enums.NotificationCategory `json:"channelCategoryAllowlist"`
}

func GetPreferences(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prefs, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, preferencesView(prefs))
	}
}

func UpdatePreferences(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updatePreferencesBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req := preferences.UpdateRequest{
			PushEnabled:              body.PushEnabled,
			EmailEnabled:             body.EmailEnabled,
			SMSEnabled:               body.SMSEnabled,
			CategoriesEnabled:        body.CategoriesEnabled,
			Frequency:                body.Frequency,
			ChannelCategoryAllowlist: body.ChannelCategoryAllowlist,
		}
		if body.QuietHours != nil {
			req.QuietHours = &models.QuietHours{
				Enabled:  body.QuietHours.Enabled,
				Start:    body.QuietHours.Start,
				End:      body.QuietHours.End,
				Timezone: body.QuietHours.Timezone,
			}
		}

		prefs, err := svc.Update(r.Context(), userID, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, preferencesView(prefs))
	}
}

// preferencesView flattens the stored record into the API shape, including
// the quiet-hours columns the model keeps out of its own JSON encoding.
func preferencesView(prefs *models.NotificationPreferences) map[string]any {
	return map[string]any{
		"userId":                   prefs.UserID,
		"pushEnabled":              prefs.PushEnabled,
		"emailEnabled":             prefs.EmailEnabled,
		"smsEnabled":               prefs.SMSEnabled,
		"categoriesEnabled":        prefs.CategoriesEnabled,
		"frequency":                prefs.Frequency,
		"quietHours":               prefs.QuietHours(),
		"channelCategoryAllowlist": prefs.ChannelCategoryAllowlist,
	}
}
