package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/matespatagonico/storefront/api/middleware"
	"github.com/matespatagonico/storefront/api/responses"
	"github.com/matespatagonico/storefront/api/validators"
	"github.com/matespatagonico/storefront/internal/catalog"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/matespatagonico/storefront/pkg/logger"
)

type productActivePayload struct {
	Active *bool `json:"active" validate:"required"`
}

type productIDsPayload struct {
	ProductIDs []int64 `json:"product_ids" validate:"required,min=1,dive,gt=0"`
}

type categoryIDsPayload struct {
	CategoryIDs []int64 `json:"category_ids" validate:"required,min=1,dive,gt=0"`
}

// maxProductFormBytes caps a product form including its images.
const maxProductFormBytes = 20 << 20

// adminAction runs fn after the catalog service nil check; fn writes the response.
func adminAction(svc catalog.Service, logg *logger.Logger, fn func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		if err := fn(w, r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
		}
	}
}

func AdminSetProductActive(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return adminAction(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		productID, err := validators.ParsePathID(r, "productID")
		if err != nil {
			return err
		}
		var body productActivePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		if err := svc.SetProductActive(r.Context(), middleware.AuthFromContext(r.Context()), productID, *body.Active); err != nil {
			return err
		}
		responses.WriteSuccess(w, map[string]any{"product_id": productID, "active": *body.Active})
		return nil
	})
}

// AdminCreateProduct streams the multipart product form to the backend without
// buffering it.
func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return adminAction(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		form, err := productForm(w, r)
		if err != nil {
			return err
		}
		product, err := svc.CreateProduct(r.Context(), middleware.AuthFromContext(r.Context()), form)
		if err != nil {
			return formSizeError(err)
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
		return nil
	})
}

func AdminUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return adminAction(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		productID, err := validators.ParsePathID(r, "productID")
		if err != nil {
			return err
		}
		form, err := productForm(w, r)
		if err != nil {
			return err
		}
		product, err := svc.UpdateProduct(r.Context(), middleware.AuthFromContext(r.Context()), productID, form)
		if err != nil {
			return formSizeError(err)
		}
		responses.WriteSuccess(w, product)
		return nil
	})
}

func productForm(w http.ResponseWriter, r *http.Request) (catalog.ProductForm, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return catalog.ProductForm{}, pkgerrors.New(pkgerrors.CodeValidation, "product form is required")
	}
	if r.ContentLength > maxProductFormBytes {
		return catalog.ProductForm{}, productFormTooLarge()
	}
	return catalog.ProductForm{
		ContentType: r.Header.Get("Content-Type"),
		Body:        http.MaxBytesReader(w, r.Body, maxProductFormBytes),
	}, nil
}

// formSizeError reports a body cut off by the size cap as a validation error
// rather than a backend transport failure.
func formSizeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return productFormTooLarge()
	}
	return err
}

func productFormTooLarge() error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product form exceeds %d MB", maxProductFormBytes>>20))
}

func AdminCreateCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return adminAction(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		var body catalog.DescriptionInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		category, err := svc.CreateCategory(r.Context(), middleware.AuthFromContext(r.Context()), body)
		if err != nil {
			return err
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
		return nil
	})
}

// AdminDeleteCategory deletes an empty category. A category that still holds
// products is kept and its products are deactivated instead.
func AdminDeleteCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return adminAction(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		categoryID, err := validators.ParsePathID(r, "categoryID")
		if err != nil {
			return err
		}
		result, err := svc.DeleteCategory(r.Context(), middleware.AuthFromContext(r.Context()), categoryID)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, result)
		return nil
	})
}

func AdminCreateDiscount(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return adminAction(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		var body catalog.DiscountInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		discount, err := svc.CreateDiscount(r.Context(), middleware.AuthFromContext(r.Context()), body)
		if err != nil {
			return err
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, discount)
		return nil
	})
}

func AdminUpdateDiscount(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return adminAction(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		discountID, err := validators.ParsePathID(r, "discountID")
		if err != nil {
			return err
		}
		var body catalog.DiscountInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		discount, err := svc.UpdateDiscount(r.Context(), middleware.AuthFromContext(r.Context()), discountID, body)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, discount)
		return nil
	})
}

func AdminDeleteDiscount(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return adminAction(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		discountID, err := validators.ParsePathID(r, "discountID")
		if err != nil {
			return err
		}
		if err := svc.DeleteDiscount(r.Context(), middleware.AuthFromContext(r.Context()), discountID); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	})
}

func AdminAssignDiscountToProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return adminAction(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		discountID, err := validators.ParsePathID(r, "discountID")
		if err != nil {
			return err
		}
		var body productIDsPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		if err := svc.AssignDiscountToProducts(r.Context(), middleware.AuthFromContext(r.Context()), discountID, body.ProductIDs); err != nil {
			return err
		}
		responses.WriteSuccess(w, map[string]any{"discount_id": discountID, "product_ids": body.ProductIDs})
		return nil
	})
}

// AdminAssignDiscountToCategories assigns one category at a time and stops at
// the first failure; the categories already assigned are reported either way.
func AdminAssignDiscountToCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		discountID, err := validators.ParsePathID(r, "discountID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body categoryIDsPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.AssignDiscountToCategories(ctx, middleware.AuthFromContext(ctx), discountID, body.CategoryIDs)
		if err != nil {
			if result != nil {
				responses.WriteErrorWithData(ctx, logg, w, err, result)
				return
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminCreatePaymentMethod(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return adminAction(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		var body catalog.DescriptionInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		method, err := svc.CreatePaymentMethod(r.Context(), middleware.AuthFromContext(r.Context()), body)
		if err != nil {
			return err
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, method)
		return nil
	})
}

func AdminUpdatePaymentMethod(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return adminAction(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		methodID, err := validators.ParsePathID(r, "methodID")
		if err != nil {
			return err
		}
		var body catalog.DescriptionInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		method, err := svc.UpdatePaymentMethod(r.Context(), middleware.AuthFromContext(r.Context()), methodID, body)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, method)
		return nil
	})
}

func AdminDeletePaymentMethod(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return adminAction(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		methodID, err := validators.ParsePathID(r, "methodID")
		if err != nil {
			return err
		}
		if err := svc.DeletePaymentMethod(r.Context(), middleware.AuthFromContext(r.Context()), methodID); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	})
}

func AdminCreateDeliveryType(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return adminAction(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		var body catalog.DescriptionInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		deliveryType, err := svc.CreateDeliveryType(r.Context(), middleware.AuthFromContext(r.Context()), body)
		if err != nil {
			return err
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, deliveryType)
		return nil
	})
}

func AdminUpdateDeliveryType(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return adminAction(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		typeID, err := validators.ParsePathID(r, "typeID")
		if err != nil {
			return err
		}
		var body catalog.DescriptionInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		deliveryType, err := svc.UpdateDeliveryType(r.Context(), middleware.AuthFromContext(r.Context()), typeID, body)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, deliveryType)
		return nil
	})
}

func AdminDeleteDeliveryType(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return adminAction(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		typeID, err := validators.ParsePathID(r, "typeID")
		if err != nil {
			return err
		}
		if err := svc.DeleteDeliveryType(r.Context(), middleware.AuthFromContext(r.Context()), typeID); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	})
}
