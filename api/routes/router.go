package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helmshare/helmshare-backend/api/controllers"
	"github.com/helmshare/helmshare-backend/api/middleware"
	"github.com/helmshare/helmshare-backend/internal/devices"
	"github.com/helmshare/helmshare-backend/internal/notifications"
	"github.com/helmshare/helmshare-backend/internal/preferences"
	"github.com/helmshare/helmshare-backend/pkg/config"
	"github.com/helmshare/helmshare-backend/pkg/db"
	"github.com/helmshare/helmshare-backend/pkg/enums"
	"github.com/helmshare/helmshare-backend/pkg/logger"
	"github.com/helmshare/helmshare-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger db.Pinger,
	redisPinger redis.Pinger,
	notificationsService notifications.Service,
	preferencesService preferences.Service,
	devicesService devices.Service,
	dispatcher notifications.Dispatcher,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbPinger, redisPinger))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Get("/unread-count", controllers.UnreadCount(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
			r.Get("/{notificationID}", controllers.GetNotification(notificationsService, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/{notificationID}/delivered", controllers.MarkNotificationDelivered(notificationsService, logg))
		})

		r.Route("/preferences/notifications", func(r chi.Router) {
			r.Get("/", controllers.GetPreferences(preferencesService, logg))
			r.Put("/", controllers.UpdatePreferences(preferencesService, logg))
		})

		r.Route("/devices", func(r chi.Router) {
			r.Post("/", controllers.RegisterDevice(devicesService, logg))
			r.Delete("/", controllers.UnregisterDevice(devicesService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.RequireRole(string(enums.UserRoleAdmin), logg),
		)

		r.Post("/notifications/dispatch", controllers.DispatchNotification(dispatcher, logg))
	})

	return r
}
