package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/matespatagonico/storefront/api/responses"
	"github.com/matespatagonico/storefront/pkg/config"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/matespatagonico/storefront/pkg/logger"
	"github.com/matespatagonico/storefront/pkg/redis"
)

const readyTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when Redis answers, since sessions live there.
func HealthReady(cfg *config.Config, logg *logger.Logger, redisClient redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		if redisClient == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "redis not configured"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := redisClient.Ping(ctx); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
