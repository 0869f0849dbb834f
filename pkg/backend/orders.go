package backend

import (
	"context"
	"net/http"
)

// CreateOrder places an order for the given cart.
func (c *Client) CreateOrder(ctx context.Context, token string, req CheckoutRequest) (Order, error) {
	var order Order
	err := c.do(ctx, request{
		op:     "orders.checkout",
		method: http.MethodPost,
		path:   "/orders/checkout",
		token:  token,
		body:   req,
	}, &order)
	return order, err
}

func (c *Client) UserOrders(ctx context.Context, token string, userID int64) ([]Order, error) {
	var orders list[Order]
	err := c.do(ctx, request{
		op:     "orders.list",
		method: http.MethodGet,
		path:   idPath("/orders/user/%d", userID),
		token:  token,
	}, &orders)
	return []Order(orders), err
}
