package backend

import (
	"context"
	"net/http"
)

// FavoriteList fetches the user's favorite list. A missing list is a NOT_FOUND error.
func (c *Client) FavoriteList(ctx context.Context, token string, userID int64) (FavoriteList, error) {
	var fav FavoriteList
	err := c.do(ctx, request{
		op:     "favorites.get",
		method: http.MethodGet,
		path:   idPath("/favorite-list/user/%d", userID),
		token:  token,
	}, &fav)
	return fav, err
}

func (c *Client) CreateFavoriteList(ctx context.Context, token string, userID int64) (FavoriteList, error) {
	var fav FavoriteList
	err := c.do(ctx, request{
		op:     "favorites.create",
		method: http.MethodPost,
		path:   idPath("/favorite-list/create/%d", userID),
		token:  token,
	}, &fav)
	return fav, err
}

func (c *Client) AddFavorite(ctx context.Context, token string, listID, productID int64) error {
	return c.do(ctx, request{
		op:     "favorites.add",
		method: http.MethodPut,
		path:   idPath("/favorite-list/%d/product-add", listID),
		token:  token,
		body:   FavoriteAdd{ID: productID, ProductID: productID},
	}, nil)
}

func (c *Client) RemoveFavorite(ctx context.Context, token string, listID, productID int64) error {
	return c.do(ctx, request{
		op:     "favorites.remove",
		method: http.MethodDelete,
		path:   idPath("/favorite-list/%d/product-delete/%d", listID, productID),
		token:  token,
	}, nil)
}
