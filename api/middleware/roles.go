package middleware

import (
	"net/http"

	"github.com/matespatagonico/storefront/api/responses"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/matespatagonico/storefront/pkg/logger"
)

// RequireAdmin guards back-office routes. It must run after Auth.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac := AuthFromContext(r.Context())
			if !ac.Authenticated() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			if !ac.IsAdmin() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
