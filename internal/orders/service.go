package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/matespatagonico/storefront/pkg/auth"
	"github.com/matespatagonico/storefront/pkg/backend"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/matespatagonico/storefront/pkg/logger"
	"github.com/matespatagonico/storefront/pkg/pagination"
)

type ordersClient interface {
	UserOrders(ctx context.Context, token string, userID int64) ([]backend.Order, error)
}

// Service lists the signed-in user's order history.
type Service interface {
	ListUserOrders(ctx context.Context, ac auth.Context, params pagination.Params) (*Page, error)
}

type Page struct {
	Orders     []backend.Order `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type ServiceParams struct {
	Client ordersClient
	Logger *logger.Logger
}

type service struct {
	client ordersClient
	logg   *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("orders client is required")
	}
	return &service{client: params.Client, logg: params.Logger}, nil
}

// ListUserOrders returns orders newest first. A user with no orders gets an
// empty page even when the backend answers 404.
func (s *service) ListUserOrders(ctx context.Context, ac auth.Context, params pagination.Params) (*Page, error) {
	if !ac.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	orders, err := s.client.UserOrders(ctx, ac.Token, ac.UserID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return &Page{Orders: []backend.Order{}}, nil
		}
		return nil, err
	}

	sort.SliceStable(orders, func(i, j int) bool {
		di, dj := orderDate(orders[i]), orderDate(orders[j])
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return orders[i].ID > orders[j].ID
	})

	page := make([]backend.Order, 0, limit)
	next := ""
	for _, order := range orders {
		if cursor != nil && !cursor.Before(orderDate(order), order.ID) {
			continue
		}
		if len(page) == limit {
			last := page[len(page)-1]
			next = pagination.EncodeCursor(pagination.Cursor{Date: orderDate(last), ID: last.ID})
			break
		}
		page = append(page, order)
	}
	return &Page{Orders: page, NextCursor: next}, nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// orderDate parses the backend's date; unparseable dates sort last.
func orderDate(order backend.Order) time.Time {
	raw := strings.TrimSpace(order.Date)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
