package backend

import (
	"context"
	"io"
	"net/http"
)

// Products lists the catalog. Reads are public; token may be empty.
func (c *Client) Products(ctx context.Context, token string) ([]Product, error) {
	var products list[Product]
	err := c.do(ctx, request{op: "products.list", method: http.MethodGet, path: "/products", token: token}, &products)
	return []Product(products), err
}

func (c *Client) Product(ctx context.Context, token string, productID int64) (Product, error) {
	var product Product
	err := c.do(ctx, request{
		op:     "products.get",
		method: http.MethodGet,
		path:   idPath("/products/search/id/%d", productID),
		token:  token,
	}, &product)
	return product, err
}

func (c *Client) ProductsByCategory(ctx context.Context, token string, categoryID int64) ([]Product, error) {
	var products list[Product]
	err := c.do(ctx, request{
		op:     "products.by_category",
		method: http.MethodGet,
		path:   idPath("/products/search/category/%d", categoryID),
		token:  token,
	}, &products)
	return []Product(products), err
}

// CreateProduct forwards a multipart product form to POST /products.
// contentType must carry the multipart boundary of body.
func (c *Client) CreateProduct(ctx context.Context, token, contentType string, body io.Reader) (Product, error) {
	var product Product
	err := c.do(ctx, request{
		op:          "products.create",
		method:      http.MethodPost,
		path:        "/products",
		token:       token,
		raw:         body,
		contentType: contentType,
	}, &product)
	return product, err
}

// UpdateProduct forwards a multipart product form to PUT /products/put/{id}.
func (c *Client) UpdateProduct(ctx context.Context, token string, productID int64, contentType string, body io.Reader) (Product, error) {
	var product Product
	err := c.do(ctx, request{
		op:          "products.update",
		method:      http.MethodPut,
		path:        idPath("/products/put/%d", productID),
		token:       token,
		raw:         body,
		contentType: contentType,
	}, &product)
	return product, err
}

// SetProductActive deactivates with DELETE /products/delete/{id} and
// reactivates with PATCH /products/activate/{id}. Products are never hard-deleted.
func (c *Client) SetProductActive(ctx context.Context, token string, productID int64, active bool) error {
	req := request{
		op:     "products.deactivate",
		method: http.MethodDelete,
		path:   idPath("/products/delete/%d", productID),
		token:  token,
	}
	if active {
		req.op = "products.activate"
		req.method = http.MethodPatch
		req.path = idPath("/products/activate/%d", productID)
	}
	return c.do(ctx, req, nil)
}

func (c *Client) Categories(ctx context.Context, token string) ([]Category, error) {
	var categories list[Category]
	err := c.do(ctx, request{op: "categories.list", method: http.MethodGet, path: "/categories", token: token}, &categories)
	return []Category(categories), err
}

func (c *Client) CreateCategory(ctx context.Context, token string, in DescriptionInput) (Category, error) {
	var category Category
	err := c.do(ctx, request{
		op:     "categories.create",
		method: http.MethodPost,
		path:   "/categories",
		token:  token,
		body:   in,
	}, &category)
	return category, err
}

func (c *Client) DeleteCategory(ctx context.Context, token string, categoryID int64) error {
	return c.do(ctx, request{
		op:     "categories.delete",
		method: http.MethodDelete,
		path:   idPath("/categories/%d", categoryID),
		token:  token,
	}, nil)
}

func (c *Client) Discounts(ctx context.Context, token string) ([]Discount, error) {
	var discounts list[Discount]
	err := c.do(ctx, request{op: "discounts.list", method: http.MethodGet, path: "/discounts", token: token}, &discounts)
	return []Discount(discounts), err
}

func (c *Client) CreateDiscount(ctx context.Context, token string, in DiscountInput) (Discount, error) {
	var discount Discount
	err := c.do(ctx, request{
		op:     "discounts.create",
		method: http.MethodPost,
		path:   "/discounts",
		token:  token,
		body:   in,
	}, &discount)
	return discount, err
}

func (c *Client) UpdateDiscount(ctx context.Context, token string, discountID int64, in DiscountInput) (Discount, error) {
	var discount Discount
	err := c.do(ctx, request{
		op:     "discounts.update",
		method: http.MethodPut,
		path:   idPath("/discounts/update/%d", discountID),
		token:  token,
		body:   in,
	}, &discount)
	return discount, err
}

func (c *Client) DeleteDiscount(ctx context.Context, token string, discountID int64) error {
	return c.do(ctx, request{
		op:     "discounts.delete",
		method: http.MethodDelete,
		path:   idPath("/discounts/%d", discountID),
		token:  token,
	}, nil)
}

// AssignDiscountToProducts sends the product ids as a bare JSON array.
func (c *Client) AssignDiscountToProducts(ctx context.Context, token string, discountID int64, productIDs []int64) error {
	if productIDs == nil {
		productIDs = []int64{}
	}
	return c.do(ctx, request{
		op:     "discounts.assign_products",
		method: http.MethodPut,
		path:   idPath("/discounts/%d/products", discountID),
		token:  token,
		body:   productIDs,
	}, nil)
}

func (c *Client) AssignDiscountToCategory(ctx context.Context, token string, discountID, categoryID int64) error {
	return c.do(ctx, request{
		op:     "discounts.assign_category",
		method: http.MethodPut,
		path:   idPath("/discounts/%d/category/%d", discountID, categoryID),
		token:  token,
	}, nil)
}

func (c *Client) PaymentMethods(ctx context.Context, token string) ([]PaymentMethod, error) {
	var methods list[PaymentMethod]
	err := c.do(ctx, request{op: "payment_methods.list", method: http.MethodGet, path: "/payment_methods", token: token}, &methods)
	return []PaymentMethod(methods), err
}

func (c *Client) CreatePaymentMethod(ctx context.Context, token string, in DescriptionInput) (PaymentMethod, error) {
	var method PaymentMethod
	err := c.do(ctx, request{
		op:     "payment_methods.create",
		method: http.MethodPost,
		path:   "/payment_methods",
		token:  token,
		body:   in,
	}, &method)
	return method, err
}

func (c *Client) UpdatePaymentMethod(ctx context.Context, token string, methodID int64, in DescriptionInput) (PaymentMethod, error) {
	var method PaymentMethod
	err := c.do(ctx, request{
		op:     "payment_methods.update",
		method: http.MethodPut,
		path:   idPath("/payment_methods/%d", methodID),
		token:  token,
		body:   in,
	}, &method)
	return method, err
}

func (c *Client) DeletePaymentMethod(ctx context.Context, token string, methodID int64) error {
	return c.do(ctx, request{
		op:     "payment_methods.delete",
		method: http.MethodDelete,
		path:   idPath("/payment_methods/delete/%d", methodID),
		token:  token,
	}, nil)
}

func (c *Client) DeliveryTypes(ctx context.Context, token string) ([]DeliveryType, error) {
	var types list[DeliveryType]
	err := c.do(ctx, request{op: "delivery_types.list", method: http.MethodGet, path: "/deliveryType", token: token}, &types)
	return []DeliveryType(types), err
}

func (c *Client) CreateDeliveryType(ctx context.Context, token string, in DescriptionInput) (DeliveryType, error) {
	var dt DeliveryType
	err := c.do(ctx, request{
		op:     "delivery_types.create",
		method: http.MethodPost,
		path:   "/deliveryType",
		token:  token,
		body:   in,
	}, &dt)
	return dt, err
}

func (c *Client) UpdateDeliveryType(ctx context.Context, token string, typeID int64, in DescriptionInput) (DeliveryType, error) {
	var dt DeliveryType
	err := c.do(ctx, request{
		op:     "delivery_types.update",
		method: http.MethodPut,
		path:   idPath("/deliveryType/%d", typeID),
		token:  token,
		body:   in,
	}, &dt)
	return dt, err
}

func (c *Client) DeleteDeliveryType(ctx context.Context, token string, typeID int64) error {
	return c.do(ctx, request{
		op:     "delivery_types.delete",
		method: http.MethodDelete,
		path:   idPath("/deliveryType/%d", typeID),
		token:  token,
	}, nil)
}
