package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/helmshare/helmshare-backend/api/responses"
	"github.com/helmshare/helmshare-backend/api/validators"
	"github.com/helmshare/helmshare-backend/internal/notifications"
	"github.com/helmshare/helmshare-backend/pkg/enums"
	"github.com/helmshare/helmshare-backend/pkg/logger"
)

type dispatchBody struct {
	UserID       uuid.UUID      `json:"userId" validate:"required"`
	Title        string         `json:"title" validate:"required,max=200"`
	Message      string         `json:"message" validate:"required,max=2000"`
	Type         string         `json:"type" validate:"required"`
	Priority     string         `json:"priority"`
	Metadata     map[string]any `json:"metadata"`
	ScheduledFor *time.Time     `json:"scheduledFor"`
	ExpiresAt    *time.Time     `json:"expiresAt"`
}

// DispatchNotification is the admin entry point for ad-hoc sends. Event-driven
// notifications come in through the charter-events consumer instead.
func DispatchNotification(dispatcher notifications.Dispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body dispatchBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notification, err := dispatcher.Send(r.Context(), notifications.SendParams{
			UserID:       body.UserID,
			Title:        body.Title,
			Message:      body.Message,
			Type:         enums.NotificationType(body.Type),
			Priority:     enums.NotificationPriority(body.Priority),
			Metadata:     body.Metadata,
			ScheduledFor: body.ScheduledFor,
			ExpiresAt:    body.ExpiresAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if notification == nil {
			responses.WriteSuccess(w, map[string]any{"suppressed": true})
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, notification)
	}
}
