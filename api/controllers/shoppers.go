package controllers

import (
	"context"

	"github.com/matespatagonico/storefront/internal/images"
	"github.com/matespatagonico/storefront/internal/sessions"
	"github.com/matespatagonico/storefront/pkg/auth"
)

// ShopperLookup hands out the caller's cart and wishlist synchronizers.
type ShopperLookup interface {
	For(ac auth.Context) (*sessions.Shopper, error)
}

// ImageResolver is optional wherever it is accepted; nil skips image resolution.
type ImageResolver interface {
	Resolve(ctx context.Context, ref, name string, size images.Size) images.Image
}
