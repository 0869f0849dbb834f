package controllers

import (
	"net/http"

	"github.com/matespatagonico/storefront/api/middleware"
	"github.com/matespatagonico/storefront/api/responses"
	"github.com/matespatagonico/storefront/api/validators"
	"github.com/matespatagonico/storefront/internal/wishlist"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/matespatagonico/storefront/pkg/logger"
)

type wishlistToggleResponse struct {
	wishlist.ToggleResult
	ProductIDs []int64 `json:"product_ids"`
}

// WishlistFetch refetches membership and returns the liked product ids.
func WishlistFetch(shoppers ShopperLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		list, ok := wishlistFor(w, r, shoppers, logg)
		if !ok {
			return
		}

		if err := list.FetchMembership(ctx, middleware.AuthFromContext(ctx)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list.Snapshot())
	}
}

// WishlistToggle flips membership of the product. On a conflict the refreshed
// membership is returned next to the error so views can re-render.
func WishlistToggle(shoppers ShopperLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		list, ok := wishlistFor(w, r, shoppers, logg)
		if !ok {
			return
		}

		productID, err := validators.ParsePathID(r, "productID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := list.Toggle(ctx, middleware.AuthFromContext(ctx), productID)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
				responses.WriteErrorWithData(ctx, logg, w, err, list.Snapshot())
				return
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlistToggleResponse{
			ToggleResult: result,
			ProductIDs:   list.Snapshot().ProductIDs,
		})
	}
}

func wishlistFor(w http.ResponseWriter, r *http.Request, shoppers ShopperLookup, logg *logger.Logger) (*wishlist.Synchronizer, bool) {
	if shoppers == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wishlist unavailable"))
		return nil, false
	}
	shopper, err := shoppers.For(middleware.AuthFromContext(r.Context()))
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	return shopper.Wishlist, true
}
