package catalog

import (
	"io"
	"mime"
	"strings"

	"github.com/matespatagonico/storefront/pkg/backend"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	SortPriceAsc  = "asc"
	SortPriceDesc = "desc"

	MinDiscountPercent = 1
	MaxDiscountPercent = 100
)

// ProductFilter narrows the product list. Zero values disable each filter.
type ProductFilter struct {
	CategoryIDs     []int64
	MaxPrice        decimal.Decimal
	Sort            string
	IncludeInactive bool
}

// ProductForm is a multipart product form relayed untouched to the backend:
// a JSON "products" (create) or "product" (update) part plus "images" files.
type ProductForm struct {
	ContentType string
	Body        io.Reader
}

func (f ProductForm) validate() error {
	if f.Body == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product form is required")
	}
	mediaType, params, err := mime.ParseMediaType(f.ContentType)
	if err != nil || mediaType != "multipart/form-data" || strings.TrimSpace(params["boundary"]) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product form must be multipart/form-data")
	}
	return nil
}

// DescriptionInput is the form shared by categories, payment methods and delivery types.
type DescriptionInput struct {
	Description string `json:"description" validate:"required,max=255"`
}

func (in DescriptionInput) normalize() (backend.DescriptionInput, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return backend.DescriptionInput{}, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	return backend.DescriptionInput{Description: desc}, nil
}

// DiscountInput is a percentage discount. DiscountType is the display label.
type DiscountInput struct {
	Amount       int    `json:"amount" validate:"required,min=1,max=100"`
	DiscountType string `json:"discount_type" validate:"required,max=255"`
}

func (in DiscountInput) normalize() (backend.DiscountInput, error) {
	label := strings.TrimSpace(in.DiscountType)
	if label == "" {
		return backend.DiscountInput{}, pkgerrors.New(pkgerrors.CodeValidation, "discount type is required")
	}
	if in.Amount < MinDiscountPercent || in.Amount > MaxDiscountPercent {
		return backend.DiscountInput{}, pkgerrors.New(pkgerrors.CodeValidation, "discount amount must be between 1 and 100").
			WithDetails(map[string]any{"amount": in.Amount})
	}
	return backend.DiscountInput{Amount: in.Amount, DiscountType: label}, nil
}

// CategoryDeletion reports what DeleteCategory did: either the category was
// deleted, or its products were deactivated and the category kept.
type CategoryDeletion struct {
	CategoryID  int64   `json:"category_id"`
	Deleted     bool    `json:"deleted"`
	Deactivated []int64 `json:"deactivated_product_ids,omitempty"`
}

type CategoryAssignment struct {
	DiscountID       int64   `json:"discount_id"`
	Assigned         []int64 `json:"assigned_category_ids"`
	FailedCategoryID int64   `json:"failed_category_id,omitempty"`
}
