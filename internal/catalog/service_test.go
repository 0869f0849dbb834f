package catalog

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/matespatagonico/storefront/pkg/auth"
	"github.com/matespatagonico/storefront/pkg/backend"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	products        []backend.Product
	byCategoryErr   error
	toggled         map[int64]bool
	toggleErr       map[int64]error
	deletedCategory []int64
	assigned        []int64
	assignFail      int64
	productAssign   []int64
	createdDiscount backend.DiscountInput
	createdMethod   backend.DescriptionInput
	productForms    []string
	formTypes       []string
}

func newFakeCatalog(products ...backend.Product) *fakeCatalog {
	return &fakeCatalog{products: products, toggled: map[int64]bool{}, toggleErr: map[int64]error{}}
}

func (f *fakeCatalog) Products(ctx context.Context, token string) ([]backend.Product, error) {
	return f.products, nil
}

func (f *fakeCatalog) Product(ctx context.Context, token string, productID int64) (backend.Product, error) {
	for _, p := range f.products {
		if p.ID == productID {
			return p, nil
		}
	}
	return backend.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "missing")
}

func (f *fakeCatalog) ProductsByCategory(ctx context.Context, token string, categoryID int64) ([]backend.Product, error) {
	if f.byCategoryErr != nil {
		return nil, f.byCategoryErr
	}
	var out []backend.Product
	for _, p := range f.products {
		if p.CategoryRefID() == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) SetProductActive(ctx context.Context, token string, productID int64, active bool) error {
	if err := f.toggleErr[productID]; err != nil {
		return err
	}
	f.toggled[productID] = active
	return nil
}

func (f *fakeCatalog) CreateProduct(ctx context.Context, token, contentType string, body io.Reader) (backend.Product, error) {
	raw, _ := io.ReadAll(body)
	f.productForms = append(f.productForms, string(raw))
	f.formTypes = append(f.formTypes, contentType)
	return backend.Product{ID: 30, Name: "Mate Imperial"}, nil
}

func (f *fakeCatalog) UpdateProduct(ctx context.Context, token string, productID int64, contentType string, body io.Reader) (backend.Product, error) {
	raw, _ := io.ReadAll(body)
	f.productForms = append(f.productForms, string(raw))
	f.formTypes = append(f.formTypes, contentType)
	return backend.Product{Name: "Mate Imperial"}, nil
}

func (f *fakeCatalog) Categories(ctx context.Context, token string) ([]backend.Category, error) {
	return []backend.Category{{ID: 1, Description: "Mates"}}, nil
}

func (f *fakeCatalog) CreateCategory(ctx context.Context, token string, in backend.DescriptionInput) (backend.Category, error) {
	return backend.Category{ID: 9, Description: in.Description}, nil
}

func (f *fakeCatalog) DeleteCategory(ctx context.Context, token string, categoryID int64) error {
	f.deletedCategory = append(f.deletedCategory, categoryID)
	return nil
}

func (f *fakeCatalog) Discounts(ctx context.Context, token string) ([]backend.Discount, error) {
	return nil, nil
}

func (f *fakeCatalog) CreateDiscount(ctx context.Context, token string, in backend.DiscountInput) (backend.Discount, error) {
	f.createdDiscount = in
	return backend.Discount{ID: 5, Amount: in.Amount, DiscountType: in.DiscountType}, nil
}

func (f *fakeCatalog) UpdateDiscount(ctx context.Context, token string, discountID int64, in backend.DiscountInput) (backend.Discount, error) {
	return backend.Discount{Amount: in.Amount, DiscountType: in.DiscountType}, nil
}

func (f *fakeCatalog) DeleteDiscount(ctx context.Context, token string, discountID int64) error {
	return nil
}

func (f *fakeCatalog) AssignDiscountToProducts(ctx context.Context, token string, discountID int64, productIDs []int64) error {
	f.productAssign = productIDs
	return nil
}

func (f *fakeCatalog) AssignDiscountToCategory(ctx context.Context, token string, discountID, categoryID int64) error {
	if categoryID == f.assignFail {
		return pkgerrors.New(pkgerrors.CodeDependency, "backend failed")
	}
	f.assigned = append(f.assigned, categoryID)
	return nil
}

func (f *fakeCatalog) PaymentMethods(ctx context.Context, token string) ([]backend.PaymentMethod, error) {
	return nil, nil
}

func (f *fakeCatalog) CreatePaymentMethod(ctx context.Context, token string, in backend.DescriptionInput) (backend.PaymentMethod, error) {
	f.createdMethod = in
	return backend.PaymentMethod{ID: 2, Description: in.Description}, nil
}

func (f *fakeCatalog) UpdatePaymentMethod(ctx context.Context, token string, methodID int64, in backend.DescriptionInput) (backend.PaymentMethod, error) {
	return backend.PaymentMethod{Description: in.Description}, nil
}

func (f *fakeCatalog) DeletePaymentMethod(ctx context.Context, token string, methodID int64) error {
	return nil
}

func (f *fakeCatalog) DeliveryTypes(ctx context.Context, token string) ([]backend.DeliveryType, error) {
	return nil, nil
}

func (f *fakeCatalog) CreateDeliveryType(ctx context.Context, token string, in backend.DescriptionInput) (backend.DeliveryType, error) {
	return backend.DeliveryType{ID: 3, Description: in.Description}, nil
}

func (f *fakeCatalog) UpdateDeliveryType(ctx context.Context, token string, typeID int64, in backend.DescriptionInput) (backend.DeliveryType, error) {
	return backend.DeliveryType{Description: in.Description}, nil
}

func (f *fakeCatalog) DeleteDeliveryType(ctx context.Context, token string, typeID int64) error {
	return nil
}

var (
	admin    = auth.Context{UserID: 1, Token: "tok", Role: "ADMIN"}
	customer = auth.Context{UserID: 2, Token: "tok", Role: "USER"}
)

func boolPtr(v bool) *bool { return &v }

func product(id, category int64, price int64, active bool) backend.Product {
	return backend.Product{
		ID:         id,
		Name:       "p",
		CategoryID: category,
		Price:      decimal.NewFromInt(price),
		BasePrice:  decimal.NewFromInt(price),
		IsActive:   boolPtr(active),
	}
}

func newTestService(t *testing.T, client *fakeCatalog) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Client: client})
	require.NoError(t, err)
	return svc
}

func ids(products []backend.Product) []int64 {
	out := make([]int64, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestAdminOperationsRequireRole(t *testing.T) {
	svc := newTestService(t, newFakeCatalog())
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, customer, DescriptionInput{Description: "Bombillas"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	err = svc.DeletePaymentMethod(ctx, auth.Context{}, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	err = svc.SetProductActive(ctx, customer, 1, false)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestListProductsFiltersAndSorts(t *testing.T) {
	client := newFakeCatalog(
		product(1, 10, 3000, true),
		product(2, 10, 1000, true),
		product(3, 20, 2000, true),
		product(4, 10, 500, false),
	)
	svc := newTestService(t, client)
	ctx := context.Background()

	got, err := svc.ListProducts(ctx, customer, ProductFilter{Sort: SortPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 1}, ids(got))

	got, err = svc.ListProducts(ctx, customer, ProductFilter{CategoryIDs: []int64{10, 20}, MaxPrice: decimal.NewFromInt(2000), Sort: SortPriceDesc})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2}, ids(got))

	got, err = svc.ListProducts(ctx, admin, ProductFilter{CategoryIDs: []int64{10}, IncludeInactive: true, Sort: SortPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 2, 1}, ids(got))

	got, err = svc.ListProducts(ctx, customer, ProductFilter{CategoryIDs: []int64{10}, IncludeInactive: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids(got))
}

func TestListProductsUnknownCategoryIsEmpty(t *testing.T) {
	client := newFakeCatalog()
	client.byCategoryErr = pkgerrors.New(pkgerrors.CodeNotFound, "no category")
	svc := newTestService(t, client)

	got, err := svc.ListProducts(context.Background(), customer, ProductFilter{CategoryIDs: []int64{99}})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetProductHidesInactiveFromShoppers(t *testing.T) {
	svc := newTestService(t, newFakeCatalog(product(4, 10, 500, false)))

	_, err := svc.GetProduct(context.Background(), customer, 4)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	p, err := svc.GetProduct(context.Background(), admin, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), p.ID)
}

func TestDeleteCategoryWithoutProductsDeletes(t *testing.T) {
	client := newFakeCatalog(product(1, 10, 100, true))
	svc := newTestService(t, client)

	res, err := svc.DeleteCategory(context.Background(), admin, 20)
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.Equal(t, []int64{20}, client.deletedCategory)
	assert.Empty(t, client.toggled)
}

func TestDeleteCategoryWithProductsDeactivatesInstead(t *testing.T) {
	client := newFakeCatalog(
		product(1, 10, 100, true),
		product(2, 10, 100, false),
		product(3, 20, 100, true),
	)
	svc := newTestService(t, client)

	res, err := svc.DeleteCategory(context.Background(), admin, 10)
	require.NoError(t, err)
	assert.False(t, res.Deleted)
	assert.Equal(t, []int64{1}, res.Deactivated)
	assert.Empty(t, client.deletedCategory)
	assert.Equal(t, map[int64]bool{1: false}, client.toggled)
}

func TestDeleteCategoryPartialDeactivation(t *testing.T) {
	client := newFakeCatalog(product(1, 10, 100, true), product(2, 10, 100, true))
	client.toggleErr[1] = pkgerrors.New(pkgerrors.CodeTransport, "down")
	svc := newTestService(t, client)

	res, err := svc.DeleteCategory(context.Background(), admin, 10)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	require.NotNil(t, res)
	assert.Equal(t, []int64{2}, res.Deactivated)
	assert.Empty(t, client.deletedCategory)
}

func TestAssignDiscountToCategoriesStopsAtFirstFailure(t *testing.T) {
	client := newFakeCatalog()
	client.assignFail = 30
	svc := newTestService(t, client)

	res, err := svc.AssignDiscountToCategories(context.Background(), admin, 5, []int64{10, 20, 30, 40})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Equal(t, []int64{10, 20}, res.Assigned)
	assert.Equal(t, int64(30), res.FailedCategoryID)
	assert.Equal(t, []int64{10, 20}, client.assigned)
}

func TestAssignDiscountToProductsDedupes(t *testing.T) {
	client := newFakeCatalog()
	svc := newTestService(t, client)

	err := svc.AssignDiscountToProducts(context.Background(), admin, 5, []int64{3, 0, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4}, client.productAssign)

	err = svc.AssignDiscountToProducts(context.Background(), admin, 5, []int64{0, -1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateDiscountValidatesPercentage(t *testing.T) {
	client := newFakeCatalog()
	svc := newTestService(t, client)
	ctx := context.Background()

	_, err := svc.CreateDiscount(ctx, admin, DiscountInput{Amount: 101, DiscountType: "Verano"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateDiscount(ctx, admin, DiscountInput{Amount: 15, DiscountType: "  "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	d, err := svc.CreateDiscount(ctx, admin, DiscountInput{Amount: 15, DiscountType: " Verano "})
	require.NoError(t, err)
	assert.Equal(t, "Verano", client.createdDiscount.DiscountType)
	assert.Equal(t, 15, d.Amount)

	updated, err := svc.UpdateDiscount(ctx, admin, 8, DiscountInput{Amount: 20, DiscountType: "Invierno"})
	require.NoError(t, err)
	assert.Equal(t, int64(8), updated.ID)
}

func TestDescriptionCRUD(t *testing.T) {
	client := newFakeCatalog()
	svc := newTestService(t, client)
	ctx := context.Background()

	_, err := svc.CreatePaymentMethod(ctx, admin, DescriptionInput{Description: ""})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	method, err := svc.CreatePaymentMethod(ctx, admin, DescriptionInput{Description: " Transferencia "})
	require.NoError(t, err)
	assert.Equal(t, "Transferencia", method.Description)

	updated, err := svc.UpdateDeliveryType(ctx, admin, 4, DescriptionInput{Description: "Retiro en local"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), updated.ID)

	require.NoError(t, svc.DeleteDeliveryType(ctx, admin, 4))
	assert.True(t, pkgerrors.IsCode(svc.DeleteDeliveryType(ctx, admin, 0), pkgerrors.CodeValidation))
}

func TestProductFormsAreRelayed(t *testing.T) {
	client := newFakeCatalog()
	svc := newTestService(t, client)
	ctx := context.Background()
	const ctype = "multipart/form-data; boundary=xyz"

	created, err := svc.CreateProduct(ctx, admin, ProductForm{ContentType: ctype, Body: strings.NewReader("--xyz--")})
	require.NoError(t, err)
	assert.Equal(t, int64(30), created.ID)

	updated, err := svc.UpdateProduct(ctx, admin, 12, ProductForm{ContentType: ctype, Body: strings.NewReader("--xyz--")})
	require.NoError(t, err)
	assert.Equal(t, int64(12), updated.ID)

	assert.Equal(t, []string{"--xyz--", "--xyz--"}, client.productForms)
	assert.Equal(t, []string{ctype, ctype}, client.formTypes)
}

func TestProductFormsRejectBadInput(t *testing.T) {
	client := newFakeCatalog()
	svc := newTestService(t, client)
	ctx := context.Background()
	form := ProductForm{ContentType: "multipart/form-data; boundary=xyz", Body: strings.NewReader("")}

	_, err := svc.CreateProduct(ctx, customer, form)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.CreateProduct(ctx, admin, ProductForm{ContentType: "application/json", Body: strings.NewReader("{}")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateProduct(ctx, admin, ProductForm{ContentType: "multipart/form-data", Body: strings.NewReader("")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateProduct(ctx, admin, 0, form)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	assert.Empty(t, client.productForms)
}
