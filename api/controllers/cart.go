package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/matespatagonico/storefront/api/middleware"
	"github.com/matespatagonico/storefront/api/responses"
	"github.com/matespatagonico/storefront/api/validators"
	"github.com/matespatagonico/storefront/internal/cart"
	"github.com/matespatagonico/storefront/internal/images"
	"github.com/matespatagonico/storefront/pkg/auth"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/matespatagonico/storefront/pkg/logger"
)

type addCartItemPayload struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"omitempty,min=1,max=10"`
}

type cartLineResponse struct {
	cart.Line
	Image *images.Image `json:"image,omitempty"`
}

type cartResponse struct {
	CartID    int64              `json:"cart_id,omitempty"`
	Lines     []cartLineResponse `json:"lines"`
	Total     decimal.Decimal    `json:"total"`
	ItemCount int                `json:"item_count"`
	Status    cart.Status        `json:"status"`
}

func newCartResponse(ctx context.Context, snap cart.Snapshot, resolver ImageResolver) cartResponse {
	lines := make([]cartLineResponse, 0, len(snap.Lines))
	for _, line := range snap.Lines {
		item := cartLineResponse{Line: line}
		if resolver != nil {
			img := resolver.Resolve(ctx, line.ImageRef, line.DisplayName, images.SizeThumbnail)
			item.Image = &img
		}
		lines = append(lines, item)
	}
	return cartResponse{
		CartID:    snap.CartID,
		Lines:     lines,
		Total:     snap.Total,
		ItemCount: snap.ItemCount(),
		Status:    snap.Status,
	}
}

// CartFetch refetches lines and total from the backend and returns the cart.
func CartFetch(shoppers ShopperLookup, resolver ImageResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		synchronizer, ok := cartFor(w, r, shoppers, logg)
		if !ok {
			return
		}

		if err := synchronizer.Refresh(ctx, middleware.AuthFromContext(ctx)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(ctx, synchronizer.Snapshot(), resolver))
	}
}

func CartAddItem(shoppers ShopperLookup, resolver ImageResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		synchronizer, ok := cartFor(w, r, shoppers, logg)
		if !ok {
			return
		}

		var body addCartItemPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if body.Quantity == 0 {
			body.Quantity = cart.MinQuantity
		}

		if err := synchronizer.AddItem(ctx, middleware.AuthFromContext(ctx), body.ProductID, body.Quantity); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(ctx, synchronizer.Snapshot(), resolver))
	}
}

func CartIncrement(shoppers ShopperLookup, resolver ImageResolver, logg *logger.Logger) http.HandlerFunc {
	return cartLineMutation(shoppers, resolver, logg, (*cart.Synchronizer).IncrementQuantity)
}

func CartDecrement(shoppers ShopperLookup, resolver ImageResolver, logg *logger.Logger) http.HandlerFunc {
	return cartLineMutation(shoppers, resolver, logg, (*cart.Synchronizer).DecrementQuantity)
}

func CartRemoveItem(shoppers ShopperLookup, resolver ImageResolver, logg *logger.Logger) http.HandlerFunc {
	return cartLineMutation(shoppers, resolver, logg, (*cart.Synchronizer).RemoveItem)
}

type lineMutation func(*cart.Synchronizer, context.Context, auth.Context, int64) error

func cartLineMutation(shoppers ShopperLookup, resolver ImageResolver, logg *logger.Logger, mutate lineMutation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		synchronizer, ok := cartFor(w, r, shoppers, logg)
		if !ok {
			return
		}

		productID, err := validators.ParsePathID(r, "productID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := mutate(synchronizer, ctx, middleware.AuthFromContext(ctx), productID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(ctx, synchronizer.Snapshot(), resolver))
	}
}

func cartFor(w http.ResponseWriter, r *http.Request, shoppers ShopperLookup, logg *logger.Logger) (*cart.Synchronizer, bool) {
	if shoppers == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
		return nil, false
	}
	shopper, err := shoppers.For(middleware.AuthFromContext(r.Context()))
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	return shopper.Cart, true
}
