package checkout

import (
	"context"
	"fmt"

	"github.com/matespatagonico/storefront/internal/cart"
	"github.com/matespatagonico/storefront/pkg/auth"
	"github.com/matespatagonico/storefront/pkg/backend"
	pkgcheckout "github.com/matespatagonico/storefront/pkg/checkout"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/matespatagonico/storefront/pkg/logger"
)

// CartState is the slice of the cart synchronizer checkout depends on. The
// cart stays held from the refresh until the clear.
type CartState interface {
	Checkout(ctx context.Context, ac auth.Context, place func(context.Context, cart.Snapshot) error) (cart.CheckoutOutcome, error)
}

type orderCreator interface {
	CreateOrder(ctx context.Context, token string, req backend.CheckoutRequest) (backend.Order, error)
}

type selectionSource interface {
	PaymentMethods(ctx context.Context, token string) ([]backend.PaymentMethod, error)
	DeliveryTypes(ctx context.Context, token string) ([]backend.DeliveryType, error)
}

// Service places orders for the current cart.
type Service interface {
	Checkout(ctx context.Context, ac auth.Context, cartState CartState, input Input) (Result, error)
}

// Input carries the shopper's selections.
type Input struct {
	DeliveryTypeID  int64 `json:"delivery_type_id" validate:"required,gt=0"`
	PaymentMethodID int64 `json:"payment_method_id" validate:"required,gt=0"`
}

type Result struct {
	Order       backend.Order `json:"order"`
	CartCleared bool          `json:"cart_cleared"`
}

type ServiceParams struct {
	Orders orderCreator
	// Selections, when set, is used to reject unknown delivery types and
	// payment methods before an order is attempted.
	Selections selectionSource
	Logger     *logger.Logger
}

type service struct {
	orders     orderCreator
	selections selectionSource
	logg       *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("order creator required")
	}
	return &service{
		orders:     params.Orders,
		selections: params.Selections,
		logg:       params.Logger,
	}, nil
}

// Checkout refreshes the cart, creates the order and only then clears the
// cart. A failed order never touches the cart. When the order succeeds but the
// clear fails the order is returned alongside a DEPENDENCY_ERROR.
func (s *service) Checkout(ctx context.Context, ac auth.Context, cartState CartState, input Input) (Result, error) {
	if !ac.Authenticated() {
		return Result{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if cartState == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeInternal, "cart state missing")
	}
	if input.DeliveryTypeID <= 0 || input.PaymentMethodID <= 0 {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "select a payment method and a delivery type")
	}
	ctx = s.logg.WithOperation(s.logg.WithUserID(ctx, ac.UserID), "checkout")

	if err := s.validateSelections(ctx, ac, input); err != nil {
		return Result{}, err
	}

	var order backend.Order
	outcome, err := cartState.Checkout(ctx, ac, func(ctx context.Context, snap cart.Snapshot) error {
		if snap.Empty() {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		if snap.CartID <= 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart id not reported by the backend")
		}
		if err := pkgcheckout.ValidateQuantities(quantityInputs(snap.Lines), cart.MinQuantity, cart.MaxQuantity); err != nil {
			return err
		}

		placed, err := s.orders.CreateOrder(ctx, ac.Token, backend.CheckoutRequest{
			CartID:        snap.CartID,
			UserID:        ac.UserID,
			DeliveryType:  input.DeliveryTypeID,
			PaymentMethod: input.PaymentMethodID,
		})
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "order creation failed; cart left intact")
			return err
		}
		order = placed
		s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID), "order created")
		return nil
	})
	if err != nil && !outcome.Placed {
		return Result{}, err
	}

	result := Result{Order: order, CartCleared: outcome.Cleared}
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "order_id", order.ID), "order created but cart clear failed", err)
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order placed but the cart could not be cleared").
			WithDetails(map[string]any{"order_id": order.ID})
	}
	return result, nil
}

func (s *service) validateSelections(ctx context.Context, ac auth.Context, input Input) error {
	if s.selections == nil {
		return nil
	}
	methods, err := s.selections.PaymentMethods(ctx, ac.Token)
	if err != nil {
		return err
	}
	if !containsPaymentMethod(methods, input.PaymentMethodID) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
			WithDetails(map[string]any{"payment_method_id": input.PaymentMethodID})
	}
	types, err := s.selections.DeliveryTypes(ctx, ac.Token)
	if err != nil {
		return err
	}
	if !containsDeliveryType(types, input.DeliveryTypeID) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery type").
			WithDetails(map[string]any{"delivery_type_id": input.DeliveryTypeID})
	}
	return nil
}

func quantityInputs(lines []cart.Line) []pkgcheckout.QuantityInput {
	out := make([]pkgcheckout.QuantityInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, pkgcheckout.QuantityInput{
			ProductID:   line.ProductID,
			ProductName: line.DisplayName,
			Quantity:    line.Quantity,
		})
	}
	return out
}

func containsPaymentMethod(methods []backend.PaymentMethod, id int64) bool {
	for _, m := range methods {
		if m.ID == id {
			return true
		}
	}
	return false
}

func containsDeliveryType(types []backend.DeliveryType, id int64) bool {
	for _, t := range types {
		if t.ID == id {
			return true
		}
	}
	return false
}
