package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Ref is an identifier the backend sends either as a JSON number or string.
type Ref string

func (r *Ref) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*r = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*r = Ref(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return err
	}
	*r = Ref(n.String())
	return nil
}

func (r Ref) String() string { return string(r) }

// CartItem is one record of GET /cart/items/{userId}.
type CartItem struct {
	Cart       int64           `json:"cart"`
	Product    int64           `json:"product"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	ImagesURL  []string        `json:"imagesURL"`
	Image      *struct {
		ID Ref `json:"id"`
	} `json:"image"`
}

// ImageRef returns the first image URL, else the image id, else "".
func (i CartItem) ImageRef() string {
	for _, u := range i.ImagesURL {
		if strings.TrimSpace(u) != "" {
			return strings.TrimSpace(u)
		}
	}
	if i.Image != nil {
		return i.Image.ID.String()
	}
	return ""
}

// CartAdjustment is the body of PUT /cart/addItem/{userId}. Quantity is a signed delta.
type CartAdjustment struct {
	Product  int64 `json:"product"`
	Quantity int   `json:"quantity"`
}

// FavoriteList is the user's favorites resource. The backend answers either
// {id, products:[{id}]} or a bare product array; a bare array carries no list id.
type FavoriteList struct {
	ID         int64
	ProductIDs []int64
}

func (f *FavoriteList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = FavoriteList{}
		return nil
	}
	if trimmed[0] == '[' {
		var products []idOnly
		if err := json.Unmarshal(trimmed, &products); err != nil {
			return err
		}
		*f = FavoriteList{ProductIDs: collectIDs(products)}
		return nil
	}
	var payload struct {
		ID       int64    `json:"id"`
		Products []idOnly `json:"products"`
	}
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return err
	}
	*f = FavoriteList{ID: payload.ID, ProductIDs: collectIDs(payload.Products)}
	return nil
}

type idOnly struct {
	ID int64 `json:"id"`
}

func collectIDs(items []idOnly) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

// FavoriteAdd is the body of PUT /favorite-list/{listId}/product-add.
type FavoriteAdd struct {
	ID        int64 `json:"id"`
	ProductID int64 `json:"productId"`
}

// Credentials is the result of a login or registration.
type Credentials struct {
	Token string
	User  User
}

// User is the storefront account as returned by the backend.
type User struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Surname string `json:"surname,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Role    string `json:"role,omitempty"`
}

// LoginRequest is the body of POST /v1/auth/authenticate.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /v1/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Phone    string `json:"phone,omitempty"`
}

// ProfileUpdate is the body of PUT /users/{id}.
type ProfileUpdate struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Surname string `json:"surname,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// CheckoutRequest is the body of POST /orders/checkout.
type CheckoutRequest struct {
	CartID        int64 `json:"cartId"`
	UserID        int64 `json:"userId"`
	DeliveryType  int64 `json:"deliveryType"`
	PaymentMethod int64 `json:"paymentMethod"`
}

type Order struct {
	ID     int64           `json:"id"`
	Date   string          `json:"date,omitempty"`
	Total  decimal.Decimal `json:"total"`
	Status string          `json:"status,omitempty"`
}

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	BasePrice   decimal.Decimal `json:"basePrice"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  int64           `json:"categoryId,omitempty"`
	Category    *CategoryRef    `json:"category,omitempty"`
	DiscountID  int64           `json:"discountId,omitempty"`
	ImagesURL   []string        `json:"imagesURL,omitempty"`
	Active      *bool           `json:"active,omitempty"`
	IsActive    *bool           `json:"isActive,omitempty"`
}

// Enabled reports whether the product is sellable. The backend has used both
// "active" and "isActive"; a product carrying neither is treated as active.
func (p Product) Enabled() bool {
	if p.Active != nil {
		return *p.Active
	}
	if p.IsActive != nil {
		return *p.IsActive
	}
	return true
}

// CategoryRefID returns categoryId, falling back to the nested category.
func (p Product) CategoryRefID() int64 {
	if p.CategoryID > 0 {
		return p.CategoryID
	}
	if p.Category != nil {
		return p.Category.ID
	}
	return 0
}

// CategoryRef is a product's category, sent either as {"id": n, ...} or a bare id.
type CategoryRef struct {
	ID          int64
	Description string
}

func (c *CategoryRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj struct {
			ID          int64  `json:"id"`
			Description string `json:"description"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		c.ID, c.Description = obj.ID, obj.Description
		return nil
	}
	var id Ref
	if err := id.UnmarshalJSON(trimmed); err != nil {
		return err
	}
	n, _ := strconv.ParseInt(id.String(), 10, 64)
	c.ID = n
	return nil
}

func (c CategoryRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          int64  `json:"id"`
		Description string `json:"description,omitempty"`
	}{c.ID, c.Description})
}

// Discounted reports whether the effective price is below the base price.
func (p Product) Discounted() bool {
	return p.Price.IsPositive() && p.Price.LessThan(p.BasePrice)
}

type Category struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
}

type Discount struct {
	ID           int64  `json:"id"`
	Amount       int    `json:"amount"`
	DiscountType string `json:"discountType"`
}

// DiscountInput is the body used to create or update a discount.
type DiscountInput struct {
	Amount       int    `json:"amount"`
	DiscountType string `json:"discountType"`
}

type PaymentMethod struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
}

type DeliveryType struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
}

// DescriptionInput is the body shared by categories, payment methods and delivery types.
type DescriptionInput struct {
	Description string `json:"description"`
}

// ImageEnvelope is the JSON document served for an image reference.
type ImageEnvelope struct {
	File string `json:"file"`
}

// list decodes either a bare JSON array or a Spring page ({"content": [...]}).
type list[T any] []T

func (l *list[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var page struct {
		Content []T `json:"content"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return err
	}
	*l = page.Content
	return nil
}
