package cart

import (
	"fmt"
	"strings"

	"github.com/matespatagonico/storefront/pkg/backend"
	"github.com/shopspring/decimal"
)

const (
	MinQuantity = 1
	MaxQuantity = 10
)

// Status is the synchronizer's position in Idle -> Loading -> Idle.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
)

// Line is one product's presence in the cart. LineTotal is server computed.
type Line struct {
	ProductID   int64           `json:"product_id"`
	DisplayName string          `json:"display_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	ImageRef    string          `json:"image_ref,omitempty"`
}

// Snapshot is a point-in-time copy of the cart state safe to hand to views.
type Snapshot struct {
	Lines  []Line          `json:"lines"`
	Total  decimal.Decimal `json:"total"`
	CartID int64           `json:"cart_id,omitempty"`
	Status Status          `json:"status"`
	Err    error           `json:"-"`
}

// Line returns the line for productID, if present.
func (s Snapshot) Line(productID int64) (Line, bool) {
	for _, line := range s.Lines {
		if line.ProductID == productID {
			return line, true
		}
	}
	return Line{}, false
}

func (s Snapshot) Empty() bool {
	return len(s.Lines) == 0
}

// ItemCount is the number of units across all lines.
func (s Snapshot) ItemCount() int {
	count := 0
	for _, line := range s.Lines {
		count += line.Quantity
	}
	return count
}

func placeholderName(productID int64) string {
	return fmt.Sprintf("Producto %d", productID)
}

func lineFromItem(item backend.CartItem) Line {
	name := strings.TrimSpace(item.Name)
	if name == "" {
		name = placeholderName(item.Product)
	}
	return Line{
		ProductID:   item.Product,
		DisplayName: name,
		UnitPrice:   item.UnitPrice,
		Quantity:    item.Quantity,
		LineTotal:   item.TotalPrice,
		ImageRef:    item.ImageRef(),
	}
}

func linesFromItems(items []backend.CartItem) ([]Line, int64) {
	lines := make([]Line, 0, len(items))
	var cartID int64
	for _, item := range items {
		if cartID == 0 && item.Cart > 0 {
			cartID = item.Cart
		}
		lines = append(lines, lineFromItem(item))
	}
	return lines, cartID
}
