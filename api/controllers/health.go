package controllers

import (
	"net/http"

	"github.com/helmshare/helmshare-backend/api/responses"
	"github.com/helmshare/helmshare-backend/pkg/config"
	"github.com/helmshare/helmshare-backend/pkg/db"
	"github.com/helmshare/helmshare-backend/pkg/logger"
	"github.com/helmshare/helmshare-backend/pkg/redis"
)

const envHeader = "X-HelmShare-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports per-dependency status. Any failing dependency flips the
// response to 503 so the load balancer can drain the instance.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbPinger db.Pinger, redisPinger redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		check := func(name string, ping func() error) {
			if ping == nil {
				checks[name] = "skipped"
				return
			}
			if err := ping(); err != nil {
				checks[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(logg.WithField(r.Context(), "dependency", name), "readiness check failed", err)
				}
				return
			}
			checks[name] = "up"
		}

		if dbPinger != nil {
			check("postgres", func() error { return dbPinger.Ping(r.Context()) })
		}
		if redisPinger != nil {
			check("redis", func() error { return redisPinger.Ping(r.Context()) })
		}

		status := "ready"
		httpStatus := http.StatusOK
		if !healthy {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}

		responses.WriteSuccessStatus(w, httpStatus, map[string]any{
			"status": status,
			"checks": checks,
		})
	}
}
