package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matespatagonico/storefront/internal/catalog"
	"github.com/matespatagonico/storefront/pkg/auth"
	"github.com/matespatagonico/storefront/pkg/backend"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
)

// stubCatalog embeds the interface so only the methods under test need bodies.
type stubCatalog struct {
	catalog.Service

	filter     catalog.ProductFilter
	products   []backend.Product
	assignment *catalog.CategoryAssignment
	err        error
	active     *bool
	form       catalog.ProductForm
	formBody   string
	formID     int64
}

func (s *stubCatalog) ListProducts(ctx context.Context, ac auth.Context, filter catalog.ProductFilter) ([]backend.Product, error) {
	s.filter = filter
	return s.products, s.err
}

func (s *stubCatalog) ListCategories(ctx context.Context, ac auth.Context) ([]backend.Category, error) {
	return nil, s.err
}

func (s *stubCatalog) SetProductActive(ctx context.Context, ac auth.Context, productID int64, active bool) error {
	s.active = &active
	return s.err
}

func (s *stubCatalog) CreateProduct(ctx context.Context, ac auth.Context, form catalog.ProductForm) (*backend.Product, error) {
	return s.readForm(0, form)
}

func (s *stubCatalog) UpdateProduct(ctx context.Context, ac auth.Context, productID int64, form catalog.ProductForm) (*backend.Product, error) {
	return s.readForm(productID, form)
}

// readForm drains the form the way the backend client would.
func (s *stubCatalog) readForm(productID int64, form catalog.ProductForm) (*backend.Product, error) {
	s.form = form
	s.formID = productID
	raw, err := io.ReadAll(form.Body)
	if err != nil {
		return nil, pkgerrors.FromTransport(err, "products request failed")
	}
	s.formBody = string(raw)
	if s.err != nil {
		return nil, s.err
	}
	if productID == 0 {
		productID = 30
	}
	return &backend.Product{ID: productID, Name: "Mate Imperial"}, nil
}

func (s *stubCatalog) AssignDiscountToCategories(ctx context.Context, ac auth.Context, discountID int64, categoryIDs []int64) (*catalog.CategoryAssignment, error) {
	return s.assignment, s.err
}

var adminAuth = auth.Context{UserID: 1, Token: "admin-token", Role: auth.RoleAdmin}

func TestCatalogProductsParsesFilter(t *testing.T) {
	svc := &stubCatalog{products: []backend.Product{{ID: 4, Name: "Mate imperial"}}}

	resp := httptest.NewRecorder()
	CatalogProducts(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet,
		"/api/v1/catalog/products?category=2,3&max_price=2500.50&sort=DESC&include_inactive=true", "", adminAuth, nil))

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, []int64{2, 3}, svc.filter.CategoryIDs)
	assert.True(t, svc.filter.MaxPrice.Equal(decimal.RequireFromString("2500.50")))
	assert.Equal(t, catalog.SortPriceDesc, svc.filter.Sort)
	assert.True(t, svc.filter.IncludeInactive)

	body := decode[contentResponse[backend.Product]](t, resp)
	require.Len(t, body.Data.Content, 1)
	assert.Equal(t, int64(4), body.Data.Content[0].ID)
}

func TestCatalogProductsRejectsBadQuery(t *testing.T) {
	for _, query := range []string{"?sort=sideways", "?max_price=-1", "?category=x"} {
		resp := httptest.NewRecorder()
		CatalogProducts(&stubCatalog{}, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/catalog/products"+query, "", auth.Context{}, nil))
		assert.Equal(t, http.StatusBadRequest, resp.Code, query)
	}
}

func TestCatalogCategoriesEmptyContent(t *testing.T) {
	resp := httptest.NewRecorder()
	CatalogCategories(&stubCatalog{}, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/catalog/categories", "", auth.Context{}, nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"data":{"content":[]}}`, resp.Body.String())
}

func TestAdminSetProductActiveRequiresFlag(t *testing.T) {
	svc := &stubCatalog{}
	params := map[string]string{"productID": "4"}

	resp := httptest.NewRecorder()
	AdminSetProductActive(svc, nil).ServeHTTP(resp, newRequest(http.MethodPatch, "/api/v1/admin/products/4/active", `{}`, adminAuth, params))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Nil(t, svc.active)

	resp = httptest.NewRecorder()
	AdminSetProductActive(svc, nil).ServeHTTP(resp, newRequest(http.MethodPatch, "/api/v1/admin/products/4/active", `{"active":false}`, adminAuth, params))
	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, svc.active)
	assert.False(t, *svc.active)
}

func multipartProductForm(t *testing.T, file []byte) (string, *bytes.Buffer) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("products", `{"name":"Mate Imperial","basePrice":9000,"stock":3,"categoryId":1}`))
	part, err := mw.CreateFormFile("images", "mate.png")
	require.NoError(t, err)
	_, err = part.Write(file)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return mw.FormDataContentType(), body
}

func TestAdminCreateProductStreamsForm(t *testing.T) {
	svc := &stubCatalog{}
	ctype, body := multipartProductForm(t, []byte("png-bytes"))
	sent := body.String()

	req := newRequest(http.MethodPost, "/api/v1/admin/products", sent, adminAuth, nil)
	req.Header.Set("Content-Type", ctype)
	resp := httptest.NewRecorder()
	AdminCreateProduct(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, ctype, svc.form.ContentType)
	assert.Equal(t, sent, svc.formBody)
	assert.Equal(t, int64(30), decode[backend.Product](t, resp).Data.ID)
}

func TestAdminUpdateProductUsesPathID(t *testing.T) {
	svc := &stubCatalog{}
	ctype, body := multipartProductForm(t, nil)

	req := newRequest(http.MethodPut, "/api/v1/admin/products/12", body.String(), adminAuth, map[string]string{"productID": "12"})
	req.Header.Set("Content-Type", ctype)
	resp := httptest.NewRecorder()
	AdminUpdateProduct(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, int64(12), svc.formID)

	resp = httptest.NewRecorder()
	AdminUpdateProduct(svc, nil).ServeHTTP(resp, newRequest(http.MethodPut, "/api/v1/admin/products/x", body.String(), adminAuth, map[string]string{"productID": "x"}))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAdminProductFormRejectsMissingAndOversizedBodies(t *testing.T) {
	svc := &stubCatalog{}

	resp := httptest.NewRecorder()
	AdminCreateProduct(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/admin/products", "", adminAuth, nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	ctype, body := multipartProductForm(t, bytes.Repeat([]byte{'x'}, maxProductFormBytes))
	req := newRequest(http.MethodPost, "/api/v1/admin/products", body.String(), adminAuth, nil)
	req.Header.Set("Content-Type", ctype)
	resp = httptest.NewRecorder()
	AdminCreateProduct(svc, nil).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "product form exceeds")

	// Without a declared length the cap is enforced while streaming.
	req = newRequest(http.MethodPost, "/api/v1/admin/products", body.String(), adminAuth, nil)
	req.Header.Set("Content-Type", ctype)
	req.ContentLength = -1
	resp = httptest.NewRecorder()
	AdminCreateProduct(svc, nil).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "product form exceeds")
}

func TestAdminAssignDiscountToCategoriesReportsPartialProgress(t *testing.T) {
	svc := &stubCatalog{
		assignment: &catalog.CategoryAssignment{DiscountID: 5, Assigned: []int64{2}, FailedCategoryID: 3},
		err:        pkgerrors.New(pkgerrors.CodeNotFound, "category not found"),
	}

	resp := httptest.NewRecorder()
	AdminAssignDiscountToCategories(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost,
		"/api/v1/admin/discounts/5/categories", `{"category_ids":[2,3,4]}`, adminAuth, map[string]string{"discountID": "5"}))

	assert.Equal(t, http.StatusNotFound, resp.Code)
	body := decode[catalog.CategoryAssignment](t, resp)
	assert.Equal(t, []int64{2}, body.Data.Assigned)
	assert.Equal(t, int64(3), body.Data.FailedCategoryID)
}

func TestImageResolveUsesQuery(t *testing.T) {
	resolver := &stubResolver{}
	resp := httptest.NewRecorder()
	ImageResolve(resolver, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/images?ref=/img/7&name=Bombilla&size=card", "", auth.Context{}, nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"/img/7"}, resolver.refs)
	assert.Contains(t, resp.Body.String(), "Bombilla")
}
