package catalog

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/matespatagonico/storefront/pkg/auth"
	"github.com/matespatagonico/storefront/pkg/backend"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/matespatagonico/storefront/pkg/logger"
	"go.uber.org/multierr"
)

type catalogClient interface {
	Products(ctx context.Context, token string) ([]backend.Product, error)
	Product(ctx context.Context, token string, productID int64) (backend.Product, error)
	ProductsByCategory(ctx context.Context, token string, categoryID int64) ([]backend.Product, error)
	SetProductActive(ctx context.Context, token string, productID int64, active bool) error
	CreateProduct(ctx context.Context, token, contentType string, body io.Reader) (backend.Product, error)
	UpdateProduct(ctx context.Context, token string, productID int64, contentType string, body io.Reader) (backend.Product, error)

	Categories(ctx context.Context, token string) ([]backend.Category, error)
	CreateCategory(ctx context.Context, token string, in backend.DescriptionInput) (backend.Category, error)
	DeleteCategory(ctx context.Context, token string, categoryID int64) error

	Discounts(ctx context.Context, token string) ([]backend.Discount, error)
	CreateDiscount(ctx context.Context, token string, in backend.DiscountInput) (backend.Discount, error)
	UpdateDiscount(ctx context.Context, token string, discountID int64, in backend.DiscountInput) (backend.Discount, error)
	DeleteDiscount(ctx context.Context, token string, discountID int64) error
	AssignDiscountToProducts(ctx context.Context, token string, discountID int64, productIDs []int64) error
	AssignDiscountToCategory(ctx context.Context, token string, discountID, categoryID int64) error

	PaymentMethods(ctx context.Context, token string) ([]backend.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, token string, in backend.DescriptionInput) (backend.PaymentMethod, error)
	UpdatePaymentMethod(ctx context.Context, token string, methodID int64, in backend.DescriptionInput) (backend.PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, token string, methodID int64) error

	DeliveryTypes(ctx context.Context, token string) ([]backend.DeliveryType, error)
	CreateDeliveryType(ctx context.Context, token string, in backend.DescriptionInput) (backend.DeliveryType, error)
	UpdateDeliveryType(ctx context.Context, token string, typeID int64, in backend.DescriptionInput) (backend.DeliveryType, error)
	DeleteDeliveryType(ctx context.Context, token string, typeID int64) error
}

// Service exposes storefront catalog reads and back-office mutations.
type Service interface {
	ListProducts(ctx context.Context, ac auth.Context, filter ProductFilter) ([]backend.Product, error)
	GetProduct(ctx context.Context, ac auth.Context, productID int64) (*backend.Product, error)
	ListCategories(ctx context.Context, ac auth.Context) ([]backend.Category, error)
	ListDiscounts(ctx context.Context, ac auth.Context) ([]backend.Discount, error)
	ListPaymentMethods(ctx context.Context, ac auth.Context) ([]backend.PaymentMethod, error)
	ListDeliveryTypes(ctx context.Context, ac auth.Context) ([]backend.DeliveryType, error)

	SetProductActive(ctx context.Context, ac auth.Context, productID int64, active bool) error
	CreateProduct(ctx context.Context, ac auth.Context, form ProductForm) (*backend.Product, error)
	UpdateProduct(ctx context.Context, ac auth.Context, productID int64, form ProductForm) (*backend.Product, error)

	CreateCategory(ctx context.Context, ac auth.Context, in DescriptionInput) (*backend.Category, error)
	DeleteCategory(ctx context.Context, ac auth.Context, categoryID int64) (*CategoryDeletion, error)

	CreateDiscount(ctx context.Context, ac auth.Context, in DiscountInput) (*backend.Discount, error)
	UpdateDiscount(ctx context.Context, ac auth.Context, discountID int64, in DiscountInput) (*backend.Discount, error)
	DeleteDiscount(ctx context.Context, ac auth.Context, discountID int64) error
	AssignDiscountToProducts(ctx context.Context, ac auth.Context, discountID int64, productIDs []int64) error
	AssignDiscountToCategories(ctx context.Context, ac auth.Context, discountID int64, categoryIDs []int64) (*CategoryAssignment, error)

	CreatePaymentMethod(ctx context.Context, ac auth.Context, in DescriptionInput) (*backend.PaymentMethod, error)
	UpdatePaymentMethod(ctx context.Context, ac auth.Context, methodID int64, in DescriptionInput) (*backend.PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, ac auth.Context, methodID int64) error

	CreateDeliveryType(ctx context.Context, ac auth.Context, in DescriptionInput) (*backend.DeliveryType, error)
	UpdateDeliveryType(ctx context.Context, ac auth.Context, typeID int64, in DescriptionInput) (*backend.DeliveryType, error)
	DeleteDeliveryType(ctx context.Context, ac auth.Context, typeID int64) error
}

type ServiceParams struct {
	Client catalogClient
	Logger *logger.Logger
}

type service struct {
	client catalogClient
	logg   *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("catalog client is required")
	}
	return &service{client: params.Client, logg: params.Logger}, nil
}

// ListProducts applies the storefront filters locally. Inactive products are
// only visible to admins that ask for them.
func (s *service) ListProducts(ctx context.Context, ac auth.Context, filter ProductFilter) ([]backend.Product, error) {
	var (
		products []backend.Product
		err      error
	)
	if len(filter.CategoryIDs) == 1 {
		products, err = s.client.ProductsByCategory(ctx, ac.Token, filter.CategoryIDs[0])
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return []backend.Product{}, nil
		}
	} else {
		products, err = s.client.Products(ctx, ac.Token)
	}
	if err != nil {
		return nil, err
	}
	return filter.apply(products, ac.IsAdmin()), nil
}

func (s *service) GetProduct(ctx context.Context, ac auth.Context, productID int64) (*backend.Product, error) {
	if productID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id")
	}
	product, err := s.client.Product(ctx, ac.Token, productID)
	if err != nil {
		return nil, err
	}
	if !product.Enabled() && !ac.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &product, nil
}

func (s *service) ListCategories(ctx context.Context, ac auth.Context) ([]backend.Category, error) {
	return s.client.Categories(ctx, ac.Token)
}

func (s *service) ListDiscounts(ctx context.Context, ac auth.Context) ([]backend.Discount, error) {
	return s.client.Discounts(ctx, ac.Token)
}

func (s *service) ListPaymentMethods(ctx context.Context, ac auth.Context) ([]backend.PaymentMethod, error) {
	return s.client.PaymentMethods(ctx, ac.Token)
}

func (s *service) ListDeliveryTypes(ctx context.Context, ac auth.Context) ([]backend.DeliveryType, error) {
	return s.client.DeliveryTypes(ctx, ac.Token)
}

func (s *service) SetProductActive(ctx context.Context, ac auth.Context, productID int64, active bool) error {
	if err := requireAdmin(ac); err != nil {
		return err
	}
	if productID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product id")
	}
	return s.client.SetProductActive(ctx, ac.Token, productID, active)
}

func (s *service) CreateProduct(ctx context.Context, ac auth.Context, form ProductForm) (*backend.Product, error) {
	if err := requireAdmin(ac); err != nil {
		return nil, err
	}
	if err := form.validate(); err != nil {
		return nil, err
	}
	product, err := s.client.CreateProduct(ctx, ac.Token, form.ContentType, form.Body)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", product.ID), "product created")
	return &product, nil
}

func (s *service) UpdateProduct(ctx context.Context, ac auth.Context, productID int64, form ProductForm) (*backend.Product, error) {
	if err := requireAdmin(ac); err != nil {
		return nil, err
	}
	if productID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id")
	}
	if err := form.validate(); err != nil {
		return nil, err
	}
	product, err := s.client.UpdateProduct(ctx, ac.Token, productID, form.ContentType, form.Body)
	if err != nil {
		return nil, err
	}
	if product.ID == 0 {
		product.ID = productID
	}
	return &product, nil
}

func (s *service) CreateCategory(ctx context.Context, ac auth.Context, in DescriptionInput) (*backend.Category, error) {
	if err := requireAdmin(ac); err != nil {
		return nil, err
	}
	body, err := in.normalize()
	if err != nil {
		return nil, err
	}
	category, err := s.client.CreateCategory(ctx, ac.Token, body)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteCategory only deletes categories without products. When products
// still reference the category, the active ones are deactivated and the
// category is kept.
func (s *service) DeleteCategory(ctx context.Context, ac auth.Context, categoryID int64) (*CategoryDeletion, error) {
	if err := requireAdmin(ac); err != nil {
		return nil, err
	}
	if categoryID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category id")
	}
	products, err := s.client.Products(ctx, ac.Token)
	if err != nil {
		return nil, err
	}

	var inCategory []backend.Product
	for _, p := range products {
		if p.CategoryRefID() == categoryID {
			inCategory = append(inCategory, p)
		}
	}
	if len(inCategory) == 0 {
		if err := s.client.DeleteCategory(ctx, ac.Token, categoryID); err != nil {
			return nil, err
		}
		return &CategoryDeletion{CategoryID: categoryID, Deleted: true}, nil
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"category_id": categoryID, "products": len(inCategory)})
	result := &CategoryDeletion{CategoryID: categoryID, Deactivated: []int64{}}
	var errs error
	for _, p := range inCategory {
		if !p.Enabled() {
			continue
		}
		if err := s.client.SetProductActive(ctx, ac.Token, p.ID, false); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		result.Deactivated = append(result.Deactivated, p.ID)
	}
	if errs != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", errs.Error()), "category products partially deactivated")
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "could not deactivate every product in the category").
			WithDetails(map[string]any{"deactivated": result.Deactivated})
	}
	s.logg.Info(ctx, "category kept; products deactivated")
	return result, nil
}

func (s *service) CreateDiscount(ctx context.Context, ac auth.Context, in DiscountInput) (*backend.Discount, error) {
	if err := requireAdmin(ac); err != nil {
		return nil, err
	}
	body, err := in.normalize()
	if err != nil {
		return nil, err
	}
	discount, err := s.client.CreateDiscount(ctx, ac.Token, body)
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

func (s *service) UpdateDiscount(ctx context.Context, ac auth.Context, discountID int64, in DiscountInput) (*backend.Discount, error) {
	if err := requireAdmin(ac); err != nil {
		return nil, err
	}
	if discountID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount id")
	}
	body, err := in.normalize()
	if err != nil {
		return nil, err
	}
	discount, err := s.client.UpdateDiscount(ctx, ac.Token, discountID, body)
	if err != nil {
		return nil, err
	}
	if discount.ID == 0 {
		discount.ID = discountID
	}
	return &discount, nil
}

func (s *service) DeleteDiscount(ctx context.Context, ac auth.Context, discountID int64) error {
	if err := requireAdmin(ac); err != nil {
		return err
	}
	if discountID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid discount id")
	}
	return s.client.DeleteDiscount(ctx, ac.Token, discountID)
}

func (s *service) AssignDiscountToProducts(ctx context.Context, ac auth.Context, discountID int64, productIDs []int64) error {
	if err := requireAdmin(ac); err != nil {
		return err
	}
	if discountID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid discount id")
	}
	ids := positiveIDs(productIDs)
	if len(ids) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "select at least one product")
	}
	return s.client.AssignDiscountToProducts(ctx, ac.Token, discountID, ids)
}

// AssignDiscountToCategories assigns one category at a time and stops at the
// first failure; categories assigned before it stay assigned.
func (s *service) AssignDiscountToCategories(ctx context.Context, ac auth.Context, discountID int64, categoryIDs []int64) (*CategoryAssignment, error) {
	if err := requireAdmin(ac); err != nil {
		return nil, err
	}
	if discountID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount id")
	}
	ids := positiveIDs(categoryIDs)
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "select at least one category")
	}

	result := &CategoryAssignment{DiscountID: discountID, Assigned: make([]int64, 0, len(ids))}
	for _, categoryID := range ids {
		if err := s.client.AssignDiscountToCategory(ctx, ac.Token, discountID, categoryID); err != nil {
			result.FailedCategoryID = categoryID
			return result, err
		}
		result.Assigned = append(result.Assigned, categoryID)
	}
	return result, nil
}

func (s *service) CreatePaymentMethod(ctx context.Context, ac auth.Context, in DescriptionInput) (*backend.PaymentMethod, error) {
	if err := requireAdmin(ac); err != nil {
		return nil, err
	}
	body, err := in.normalize()
	if err != nil {
		return nil, err
	}
	method, err := s.client.CreatePaymentMethod(ctx, ac.Token, body)
	if err != nil {
		return nil, err
	}
	return &method, nil
}

func (s *service) UpdatePaymentMethod(ctx context.Context, ac auth.Context, methodID int64, in DescriptionInput) (*backend.PaymentMethod, error) {
	if err := requireAdmin(ac); err != nil {
		return nil, err
	}
	if methodID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method id")
	}
	body, err := in.normalize()
	if err != nil {
		return nil, err
	}
	method, err := s.client.UpdatePaymentMethod(ctx, ac.Token, methodID, body)
	if err != nil {
		return nil, err
	}
	if method.ID == 0 {
		method.ID = methodID
	}
	return &method, nil
}

func (s *service) DeletePaymentMethod(ctx context.Context, ac auth.Context, methodID int64) error {
	if err := requireAdmin(ac); err != nil {
		return err
	}
	if methodID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method id")
	}
	return s.client.DeletePaymentMethod(ctx, ac.Token, methodID)
}

func (s *service) CreateDeliveryType(ctx context.Context, ac auth.Context, in DescriptionInput) (*backend.DeliveryType, error) {
	if err := requireAdmin(ac); err != nil {
		return nil, err
	}
	body, err := in.normalize()
	if err != nil {
		return nil, err
	}
	deliveryType, err := s.client.CreateDeliveryType(ctx, ac.Token, body)
	if err != nil {
		return nil, err
	}
	return &deliveryType, nil
}

func (s *service) UpdateDeliveryType(ctx context.Context, ac auth.Context, typeID int64, in DescriptionInput) (*backend.DeliveryType, error) {
	if err := requireAdmin(ac); err != nil {
		return nil, err
	}
	if typeID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery type id")
	}
	body, err := in.normalize()
	if err != nil {
		return nil, err
	}
	deliveryType, err := s.client.UpdateDeliveryType(ctx, ac.Token, typeID, body)
	if err != nil {
		return nil, err
	}
	if deliveryType.ID == 0 {
		deliveryType.ID = typeID
	}
	return &deliveryType, nil
}

func (s *service) DeleteDeliveryType(ctx context.Context, ac auth.Context, typeID int64) error {
	if err := requireAdmin(ac); err != nil {
		return err
	}
	if typeID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery type id")
	}
	return s.client.DeleteDeliveryType(ctx, ac.Token, typeID)
}

func requireAdmin(ac auth.Context) error {
	if !ac.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !ac.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}

// positiveIDs drops non-positive and repeated ids, keeping first-seen order.
func positiveIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (f ProductFilter) apply(products []backend.Product, admin bool) []backend.Product {
	var categories map[int64]struct{}
	if len(f.CategoryIDs) > 0 {
		categories = make(map[int64]struct{}, len(f.CategoryIDs))
		for _, id := range f.CategoryIDs {
			categories[id] = struct{}{}
		}
	}

	out := make([]backend.Product, 0, len(products))
	for _, p := range products {
		if !p.Enabled() && !(admin && f.IncludeInactive) {
			continue
		}
		if categories != nil {
			if _, ok := categories[p.CategoryRefID()]; !ok {
				continue
			}
		}
		if f.MaxPrice.IsPositive() && p.Price.GreaterThan(f.MaxPrice) {
			continue
		}
		out = append(out, p)
	}

	switch strings.ToLower(strings.TrimSpace(f.Sort)) {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	}
	return out
}
