package controllers

import (
	"net/http"
	"strings"

	"github.com/matespatagonico/storefront/api/middleware"
	"github.com/matespatagonico/storefront/api/responses"
	"github.com/matespatagonico/storefront/api/validators"
	"github.com/matespatagonico/storefront/internal/catalog"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/matespatagonico/storefront/pkg/logger"
)

type contentResponse[T any] struct {
	Content []T `json:"content"`
}

// CatalogProducts lists products. Supports ?category=1,2 &max_price=
// &sort=asc|desc and, for admins, ?include_inactive=true.
func CatalogProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		filter, err := productFilter(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		products, err := svc.ListProducts(ctx, middleware.AuthFromContext(ctx), filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, content(products))
	}
}

func CatalogProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := validators.ParsePathID(r, "productID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.GetProduct(ctx, middleware.AuthFromContext(ctx), productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func CatalogCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		categories, err := svc.ListCategories(ctx, middleware.AuthFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, content(categories))
	}
}

func CatalogDiscounts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		discounts, err := svc.ListDiscounts(ctx, middleware.AuthFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, discounts)
	}
}

func CatalogPaymentMethods(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		methods, err := svc.ListPaymentMethods(ctx, middleware.AuthFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, methods)
	}
}

func CatalogDeliveryTypes(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		types, err := svc.ListDeliveryTypes(ctx, middleware.AuthFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, types)
	}
}

func productFilter(r *http.Request) (catalog.ProductFilter, error) {
	categories, err := validators.ParseQueryIDs(r, "category")
	if err != nil {
		return catalog.ProductFilter{}, err
	}
	maxPrice, err := validators.ParseQueryDecimal(r, "max_price")
	if err != nil {
		return catalog.ProductFilter{}, err
	}

	sort := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("sort")))
	switch sort {
	case "", catalog.SortPriceAsc, catalog.SortPriceDesc:
	default:
		return catalog.ProductFilter{}, pkgerrors.New(pkgerrors.CodeValidation, "sort must be asc or desc").
			WithDetails(map[string]any{"field": "sort"})
	}

	return catalog.ProductFilter{
		CategoryIDs:     categories,
		MaxPrice:        maxPrice,
		Sort:            sort,
		IncludeInactive: strings.EqualFold(r.URL.Query().Get("include_inactive"), "true"),
	}, nil
}

// content wraps items the way the backend pages its lists. Nil becomes [].
func content[T any](items []T) contentResponse[T] {
	if items == nil {
		items = []T{}
	}
	return contentResponse[T]{Content: items}
}
