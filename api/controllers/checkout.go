package controllers

import (
	"net/http"

	"github.com/matespatagonico/storefront/api/middleware"
	"github.com/matespatagonico/storefront/api/responses"
	"github.com/matespatagonico/storefront/api/validators"
	"github.com/matespatagonico/storefront/internal/checkout"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/matespatagonico/storefront/pkg/logger"
)

// Checkout places an order for the caller's cart. When the order exists but
// the cart could not be cleared, the order is still returned under "data".
func Checkout(svc checkout.Service, shoppers ShopperLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		synchronizer, ok := cartFor(w, r, shoppers, logg)
		if !ok {
			return
		}

		var body checkout.Input
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Checkout(ctx, middleware.AuthFromContext(ctx), synchronizer, body)
		if err != nil {
			if result.Order.ID > 0 {
				responses.WriteErrorWithData(ctx, logg, w, err, result)
				return
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
