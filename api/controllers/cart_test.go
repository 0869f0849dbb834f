package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matespatagonico/storefront/internal/images"
	"github.com/matespatagonico/storefront/pkg/auth"
)

type stubResolver struct {
	refs []string
}

func (s *stubResolver) Resolve(ctx context.Context, ref, name string, size images.Size) images.Image {
	s.refs = append(s.refs, ref)
	return images.Image{URL: "https://placehold.co/100x100?text=" + name, Placeholder: true}
}

func TestCartAddIncrementDecrement(t *testing.T) {
	fake := newFakeBackend()
	registry := newRegistry(t, fake)

	resp := httptest.NewRecorder()
	CartAddItem(registry, nil, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":4,"quantity":2}`, shopperAuth, nil))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	body := decode[cartResponse](t, resp)
	require.Len(t, body.Data.Lines, 1)
	assert.Equal(t, int64(4), body.Data.Lines[0].ProductID)
	assert.Equal(t, 2, body.Data.Lines[0].Quantity)
	assert.True(t, body.Data.Total.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, int64(55), body.Data.CartID)

	resp = httptest.NewRecorder()
	CartIncrement(registry, nil, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/cart/items/4/increment", "", shopperAuth, map[string]string{"productID": "4"}))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 3, decode[cartResponse](t, resp).Data.ItemCount)

	resp = httptest.NewRecorder()
	CartDecrement(registry, nil, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/cart/items/4/decrement", "", shopperAuth, map[string]string{"productID": "4"}))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 2, fake.items[4])
}

func TestCartIncrementAtMaximumIsRejected(t *testing.T) {
	fake := newFakeBackend()
	fake.items[9] = 10
	registry := newRegistry(t, fake)

	// Load the current cart first so the bound is checked against it.
	CartFetch(registry, nil, nil).ServeHTTP(httptest.NewRecorder(), newRequest(http.MethodGet, "/api/v1/cart", "", shopperAuth, nil))

	resp := httptest.NewRecorder()
	CartIncrement(registry, nil, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/cart/items/9/increment", "", shopperAuth, map[string]string{"productID": "9"}))
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "STATE_CONFLICT", decode[cartResponse](t, resp).Error.Code)
	assert.Equal(t, 10, fake.items[9])
}

func TestCartDecrementLastUnitRemovesLine(t *testing.T) {
	fake := newFakeBackend()
	fake.items[9] = 1
	registry := newRegistry(t, fake)
	CartFetch(registry, nil, nil).ServeHTTP(httptest.NewRecorder(), newRequest(http.MethodGet, "/api/v1/cart", "", shopperAuth, nil))

	resp := httptest.NewRecorder()
	CartDecrement(registry, nil, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/cart/items/9/decrement", "", shopperAuth, map[string]string{"productID": "9"}))
	require.Equal(t, http.StatusOK, resp.Code)
	body := decode[cartResponse](t, resp)
	assert.Empty(t, body.Data.Lines)
	assert.True(t, body.Data.Total.IsZero())
}

func TestCartFetchResolvesThumbnails(t *testing.T) {
	fake := newFakeBackend()
	fake.items[4] = 1
	resolver := &stubResolver{}

	resp := httptest.NewRecorder()
	CartFetch(newRegistry(t, fake), resolver, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/cart", "", shopperAuth, nil))
	require.Equal(t, http.StatusOK, resp.Code)

	body := decode[cartResponse](t, resp)
	require.Len(t, body.Data.Lines, 1)
	require.NotNil(t, body.Data.Lines[0].Image)
	assert.True(t, body.Data.Lines[0].Image.Placeholder)
	assert.Len(t, resolver.refs, 1)
}

func TestCartRejectsBadInput(t *testing.T) {
	registry := newRegistry(t, newFakeBackend())

	resp := httptest.NewRecorder()
	CartAddItem(registry, nil, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":4,"quantity":11}`, shopperAuth, nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = httptest.NewRecorder()
	CartRemoveItem(registry, nil, nil).ServeHTTP(resp, newRequest(http.MethodDelete, "/api/v1/cart/items/abc", "", shopperAuth, map[string]string{"productID": "abc"}))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = httptest.NewRecorder()
	CartFetch(registry, nil, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/cart", "", auth.Context{}, nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
