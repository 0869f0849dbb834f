package backend

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

// CartItems returns the raw cart records of a user.
func (c *Client) CartItems(ctx context.Context, token string, userID int64) ([]CartItem, error) {
	var items []CartItem
	err := c.do(ctx, request{
		op:     "cart.items",
		method: http.MethodGet,
		path:   idPath("/cart/items/%d", userID),
		token:  token,
	}, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// CartTotal returns the server-computed cart total.
func (c *Client) CartTotal(ctx context.Context, token string, userID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := c.do(ctx, request{
		op:     "cart.total",
		method: http.MethodGet,
		path:   idPath("/cart/total/%d", userID),
		token:  token,
	}, &total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// AdjustCartItem applies a signed quantity delta to a product line.
func (c *Client) AdjustCartItem(ctx context.Context, token string, userID, productID int64, delta int) error {
	return c.do(ctx, request{
		op:     "cart.add_item",
		method: http.MethodPut,
		path:   idPath("/cart/addItem/%d", userID),
		token:  token,
		body:   CartAdjustment{Product: productID, Quantity: delta},
	}, nil)
}

// RemoveCartItem drops a product line.
func (c *Client) RemoveCartItem(ctx context.Context, token string, userID, productID int64) error {
	return c.do(ctx, request{
		op:     "cart.remove_item",
		method: http.MethodPut,
		path:   idPath("/cart/removeItem/%d/%d", userID, productID),
		token:  token,
	}, nil)
}

func (c *Client) ClearCart(ctx context.Context, token string, userID int64) error {
	return c.do(ctx, request{
		op:     "cart.clear",
		method: http.MethodDelete,
		path:   idPath("/cart/clearCart/%d", userID),
		token:  token,
	}, nil)
}
