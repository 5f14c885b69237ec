package controllers

import (
	"net/http"

	"github.com/campus-kds/canteen-backend/api/responses"
	"github.com/campus-kds/canteen-backend/pkg/config"
	"github.com/campus-kds/canteen-backend/pkg/db"
	"github.com/campus-kds/canteen-backend/pkg/errors"
	"github.com/campus-kds/canteen-backend/pkg/logger"
	"github.com/campus-kds/canteen-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Canteen-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing services. Redis is optional, so a nil
// redis pinger is skipped rather than failing readiness.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Canteen-Env", cfg.App.Env)

		if dbP == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeDependency, "database not configured"))
			return
		}
		if err := dbP.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeDependency, err, "database unreachable"))
			return
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeDependency, err, "redis unreachable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
