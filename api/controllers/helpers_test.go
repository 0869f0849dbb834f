package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/matespatagonico/storefront/api/middleware"
	"github.com/matespatagonico/storefront/internal/sessions"
	"github.com/matespatagonico/storefront/pkg/auth"
	"github.com/matespatagonico/storefront/pkg/backend"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
)

var shopperAuth = auth.Context{UserID: 8, Token: "backend-token", Role: "USER"}

// fakeBackend keeps one cart and one favorites list in memory.
type fakeBackend struct {
	mu        sync.Mutex
	items     map[int64]int
	prices    map[int64]decimal.Decimal
	favorites []int64
	clearErr  error
	adjustErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		items: map[int64]int{},
		prices: map[int64]decimal.Decimal{
			4: decimal.NewFromInt(1500),
			9: decimal.NewFromInt(800),
		},
	}
}

func (f *fakeBackend) CartItems(ctx context.Context, token string, userID int64) ([]backend.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	items := make([]backend.CartItem, 0, len(f.items))
	for productID, qty := range f.items {
		price := f.prices[productID]
		items = append(items, backend.CartItem{
			Cart:       55,
			Product:    productID,
			Name:       "Yerba",
			Quantity:   qty,
			UnitPrice:  price,
			TotalPrice: price.Mul(decimal.NewFromInt(int64(qty))),
		})
	}
	return items, nil
}

func (f *fakeBackend) CartTotal(ctx context.Context, token string, userID int64) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := decimal.Zero
	for productID, qty := range f.items {
		total = total.Add(f.prices[productID].Mul(decimal.NewFromInt(int64(qty))))
	}
	return total, nil
}

func (f *fakeBackend) AdjustCartItem(ctx context.Context, token string, userID, productID int64, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adjustErr != nil {
		return f.adjustErr
	}
	f.items[productID] += delta
	if f.items[productID] <= 0 {
		delete(f.items, productID)
	}
	return nil
}

func (f *fakeBackend) RemoveCartItem(ctx context.Context, token string, userID, productID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, productID)
	return nil
}

func (f *fakeBackend) ClearCart(ctx context.Context, token string, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	f.items = map[int64]int{}
	return nil
}

func (f *fakeBackend) FavoriteList(ctx context.Context, token string, userID int64) (backend.FavoriteList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return backend.FavoriteList{ID: 70, ProductIDs: append([]int64(nil), f.favorites...)}, nil
}

func (f *fakeBackend) CreateFavoriteList(ctx context.Context, token string, userID int64) (backend.FavoriteList, error) {
	return backend.FavoriteList{ID: 70}, nil
}

func (f *fakeBackend) AddFavorite(ctx context.Context, token string, listID, productID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.favorites = append(f.favorites, productID)
	return nil
}

func (f *fakeBackend) RemoveFavorite(ctx context.Context, token string, listID, productID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.favorites[:0]
	for _, id := range f.favorites {
		if id != productID {
			kept = append(kept, id)
		}
	}
	f.favorites = kept
	return nil
}

func newRegistry(t *testing.T, fake *fakeBackend) *sessions.Registry {
	t.Helper()
	registry, err := sessions.NewRegistry(sessions.RegistryParams{Client: fake})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return registry
}

// newRequest seeds auth and chi url params the way the router would.
func newRequest(method, target, body string, ac auth.Context, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithAuth(ctx, ac, "session-1")
	return req.WithContext(ctx)
}

type envelope[T any] struct {
	Data  T `json:"data"`
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", resp.Body.String(), err)
	}
	return out
}
