package checkout

import (
	"fmt"

	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
)

// QuantityInput describes one cart line to verify before an order is placed.
type QuantityInput struct {
	ProductID   int64
	ProductName string
	Quantity    int
}

// QuantityViolation is returned to callers when a line is out of bounds.
type QuantityViolation struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int    `json:"quantity"`
	Min         int    `json:"min"`
	Max         int    `json:"max"`
}

// ValidateQuantities ensures every line holds between min and max units.
func ValidateQuantities(items []QuantityInput, min, max int) error {
	var violations []QuantityViolation
	for _, item := range items {
		if item.Quantity >= min && item.Quantity <= max {
			continue
		}
		violations = append(violations, QuantityViolation{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Min:         min,
			Max:         max,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("quantity out of range for %d item(s)", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
