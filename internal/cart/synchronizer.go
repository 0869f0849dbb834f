package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/matespatagonico/storefront/pkg/auth"
	"github.com/matespatagonico/storefront/pkg/backend"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/matespatagonico/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

type cartClient interface {
	CartItems(ctx context.Context, token string, userID int64) ([]backend.CartItem, error)
	CartTotal(ctx context.Context, token string, userID int64) (decimal.Decimal, error)
	AdjustCartItem(ctx context.Context, token string, userID, productID int64, delta int) error
	RemoveCartItem(ctx context.Context, token string, userID, productID int64) error
	ClearCart(ctx context.Context, token string, userID int64) error
}

// Synchronizer mediates every cart mutation through the backend and keeps the
// local lines and total equal to what the backend last reported. Operations on
// one Synchronizer run one at a time; callers queue behind the in-flight one.
type Synchronizer struct {
	client cartClient
	logg   *logger.Logger
	userID int64

	sem chan struct{}

	mu     sync.RWMutex
	lines  []Line
	total  decimal.Decimal
	cartID int64
	status Status
	err    error
}

// SynchronizerParams groups the dependencies of a cart synchronizer.
type SynchronizerParams struct {
	Client cartClient
	Logger *logger.Logger
	UserID int64
}

// NewSynchronizer builds the cart state for a single user.
func NewSynchronizer(params SynchronizerParams) (*Synchronizer, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("cart client required")
	}
	if params.UserID <= 0 {
		return nil, fmt.Errorf("cart user id required")
	}
	return &Synchronizer{
		client: params.Client,
		logg:   params.Logger,
		userID: params.UserID,
		sem:    make(chan struct{}, 1),
		total:  decimal.Zero,
		status: StatusIdle,
	}, nil
}

// Snapshot returns a copy of the current state. It never blocks on an
// in-flight operation.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := make([]Line, len(s.lines))
	copy(lines, s.lines)
	return Snapshot{
		Lines:  lines,
		Total:  s.total,
		CartID: s.cartID,
		Status: s.status,
		Err:    s.err,
	}
}

// ClearError drops the recorded operation error.
func (s *Synchronizer) ClearError() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
}

// FetchLines reloads the cart lines. A missing cart is an empty cart. On
// failure the previous lines are kept.
func (s *Synchronizer) FetchLines(ctx context.Context, ac auth.Context) error {
	return s.run(ctx, ac, "cart.fetch_lines", func(ctx context.Context) error {
		return s.fetchLines(ctx, ac)
	})
}

// FetchTotal reloads the server-computed total. On failure the previous total is kept.
func (s *Synchronizer) FetchTotal(ctx context.Context, ac auth.Context) error {
	return s.run(ctx, ac, "cart.fetch_total", func(ctx context.Context) error {
		return s.fetchTotal(ctx, ac)
	})
}

// Refresh reloads lines and total.
func (s *Synchronizer) Refresh(ctx context.Context, ac auth.Context) error {
	return s.run(ctx, ac, "cart.refresh", func(ctx context.Context) error {
		return s.refresh(ctx, ac)
	})
}

// AddItem sends a positive delta for productID and refetches. A quantity that
// would push the line past MaxQuantity is rejected without a backend call.
func (s *Synchronizer) AddItem(ctx context.Context, ac auth.Context, productID int64, quantity int) error {
	if err := validateProduct(productID); err != nil {
		return err
	}
	if quantity < MinQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	return s.run(ctx, ac, "cart.add_item", func(ctx context.Context) error {
		current := s.quantityOf(productID)
		if current+quantity > MaxQuantity {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("a line holds at most %d units", MaxQuantity)).
				WithDetails(map[string]any{"product_id": productID, "quantity": current})
		}
		return s.adjust(ctx, ac, productID, quantity)
	})
}

// RemoveItem drops the line for productID and refetches.
func (s *Synchronizer) RemoveItem(ctx context.Context, ac auth.Context, productID int64) error {
	if err := validateProduct(productID); err != nil {
		return err
	}
	return s.run(ctx, ac, "cart.remove_item", func(ctx context.Context) error {
		return s.remove(ctx, ac, productID)
	})
}

// IncrementQuantity adds one unit. At MaxQuantity it is rejected with no backend call.
func (s *Synchronizer) IncrementQuantity(ctx context.Context, ac auth.Context, productID int64) error {
	if err := validateProduct(productID); err != nil {
		return err
	}
	return s.run(ctx, ac, "cart.increment", func(ctx context.Context) error {
		if s.quantityOf(productID) >= MaxQuantity {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("quantity already at maximum of %d", MaxQuantity)).
				WithDetails(map[string]any{"product_id": productID})
		}
		return s.adjust(ctx, ac, productID, 1)
	})
}

// DecrementQuantity removes one unit. A line at quantity 1 is removed
// entirely so that quantity is never observably 0.
func (s *Synchronizer) DecrementQuantity(ctx context.Context, ac auth.Context, productID int64) error {
	if err := validateProduct(productID); err != nil {
		return err
	}
	return s.run(ctx, ac, "cart.decrement", func(ctx context.Context) error {
		line, ok := s.line(productID)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart").
				WithDetails(map[string]any{"product_id": productID})
		}
		if line.Quantity <= MinQuantity {
			return s.remove(ctx, ac, productID)
		}
		return s.adjust(ctx, ac, productID, -1)
	})
}

// Clear empties the cart on the backend, then locally. Only call it after an
// order has been acknowledged.
func (s *Synchronizer) Clear(ctx context.Context, ac auth.Context) error {
	return s.run(ctx, ac, "cart.clear", func(ctx context.Context) error {
		return s.clear(ctx, ac)
	})
}

// CheckoutOutcome reports how far a checkout got while the cart was held.
type CheckoutOutcome struct {
	Placed  bool
	Cleared bool
}

// Checkout holds the cart for a whole checkout: it refreshes, hands the fresh
// snapshot to place and clears the cart only when place succeeds. Mutations
// from other requests wait until the clear is done, so nothing added while
// the order is being created can be wiped without being ordered.
func (s *Synchronizer) Checkout(ctx context.Context, ac auth.Context, place func(context.Context, Snapshot) error) (CheckoutOutcome, error) {
	var outcome CheckoutOutcome
	if place == nil {
		return outcome, pkgerrors.New(pkgerrors.CodeInternal, "checkout placement missing")
	}
	err := s.run(ctx, ac, "cart.checkout", func(ctx context.Context) error {
		if err := s.refresh(ctx, ac); err != nil {
			return err
		}
		if err := place(ctx, s.Snapshot()); err != nil {
			return err
		}
		outcome.Placed = true
		if err := s.clear(ctx, ac); err != nil {
			return err
		}
		outcome.Cleared = true
		return nil
	})
	return outcome, err
}

// run serializes fn behind any in-flight operation, drives the status field
// and records the resulting error.
func (s *Synchronizer) run(ctx context.Context, ac auth.Context, op string, fn func(context.Context) error) error {
	if err := s.authorize(ac); err != nil {
		return err
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return pkgerrors.FromTransport(ctx.Err(), op+" cancelled while waiting")
	}
	defer func() { <-s.sem }()

	ctx = s.logg.WithOperation(s.logg.WithUserID(ctx, s.userID), op)

	s.mu.Lock()
	s.status = StatusLoading
	s.err = nil
	s.mu.Unlock()

	err := fn(ctx)

	s.mu.Lock()
	s.status = StatusIdle
	s.err = err
	s.mu.Unlock()

	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart operation failed")
		return err
	}
	s.logg.Debug(ctx, "cart operation completed")
	return nil
}

func (s *Synchronizer) authorize(ac auth.Context) error {
	if !ac.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if ac.UserID != s.userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "cart belongs to another user")
	}
	return nil
}

func (s *Synchronizer) adjust(ctx context.Context, ac auth.Context, productID int64, delta int) error {
	if err := s.client.AdjustCartItem(ctx, ac.Token, s.userID, productID, delta); err != nil {
		return err
	}
	return s.refresh(ctx, ac)
}

func (s *Synchronizer) clear(ctx context.Context, ac auth.Context) error {
	if err := s.client.ClearCart(ctx, ac.Token, s.userID); err != nil {
		return err
	}
	s.mu.Lock()
	s.lines = nil
	s.total = decimal.Zero
	s.cartID = 0
	s.mu.Unlock()
	return nil
}

func (s *Synchronizer) remove(ctx context.Context, ac auth.Context, productID int64) error {
	if err := s.client.RemoveCartItem(ctx, ac.Token, s.userID, productID); err != nil {
		return err
	}
	return s.refresh(ctx, ac)
}

// refresh always attempts both reads so a failed lines read still picks up the total.
func (s *Synchronizer) refresh(ctx context.Context, ac auth.Context) error {
	return multierr.Combine(s.fetchLines(ctx, ac), s.fetchTotal(ctx, ac))
}

func (s *Synchronizer) fetchLines(ctx context.Context, ac auth.Context) error {
	items, err := s.client.CartItems(ctx, ac.Token, s.userID)
	if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return err
	}
	lines, cartID := linesFromItems(items)
	s.mu.Lock()
	s.lines = lines
	s.cartID = cartID
	s.mu.Unlock()
	return nil
}

func (s *Synchronizer) fetchTotal(ctx context.Context, ac auth.Context) error {
	total, err := s.client.CartTotal(ctx, ac.Token, s.userID)
	if err != nil {
		if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return err
		}
		total = decimal.Zero
	}
	s.mu.Lock()
	s.total = total
	s.mu.Unlock()
	return nil
}

func (s *Synchronizer) line(productID int64) (Line, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, line := range s.lines {
		if line.ProductID == productID {
			return line, true
		}
	}
	return Line{}, false
}

func (s *Synchronizer) quantityOf(productID int64) int {
	line, _ := s.line(productID)
	return line.Quantity
}

func validateProduct(productID int64) error {
	if productID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	return nil
}
