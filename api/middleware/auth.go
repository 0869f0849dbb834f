package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/matespatagonico/storefront/api/responses"
	"github.com/matespatagonico/storefront/api/validators"
	"github.com/matespatagonico/storefront/pkg/auth/session"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/matespatagonico/storefront/pkg/logger"
)

type sessionLoader interface {
	Load(ctx context.Context, sessionID string) (session.Credentials, error)
}

// Auth resolves the bearer session id into backend credentials and seeds the
// request context with them. Requests without a live session are rejected.
func Auth(sessions sessionLoader, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(sessions, logg, true)
}

// OptionalAuth behaves like Auth when a session is presented and lets
// anonymous requests through otherwise.
func OptionalAuth(sessions sessionLoader, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(sessions, logg, false)
}

func authenticate(sessions sessionLoader, logg *logger.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" && !required {
				next.ServeHTTP(w, r)
				return
			}

			sessionID, err := validators.BearerToken(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			creds, err := sessions.Load(r.Context(), sessionID)
			switch {
			case errors.Is(err, session.ErrSessionExpired):
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "session expired"))
				return
			case errors.Is(err, session.ErrSessionNotFound):
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "session unavailable"))
				return
			case err != nil:
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
				return
			}

			ac := creds.AuthContext()
			ctx := WithAuth(r.Context(), ac, sessionID)
			if logg != nil {
				ctx = logg.WithFields(logg.WithUserID(ctx, ac.UserID), map[string]any{"actor_role": ac.Role})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
