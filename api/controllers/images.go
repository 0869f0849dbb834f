package controllers

import (
	"net/http"
	"strings"

	"github.com/matespatagonico/storefront/api/responses"
	"github.com/matespatagonico/storefront/api/validators"
	"github.com/matespatagonico/storefront/internal/images"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/matespatagonico/storefront/pkg/logger"
)

const maxImageNameLen = 80

// ImageResolve answers with a displayable URL for ?ref. It never fails on the
// image itself; a missing or broken image yields a placeholder.
func ImageResolve(resolver ImageResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "image resolver unavailable"))
			return
		}

		query := r.URL.Query()
		name := validators.SanitizeString(query.Get("name"), maxImageNameLen)
		img := resolver.Resolve(r.Context(), strings.TrimSpace(query.Get("ref")), name, images.ParseSize(query.Get("size")))
		responses.WriteSuccess(w, img)
	}
}
