package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matespatagonico/storefront/internal/cart"
	"github.com/matespatagonico/storefront/internal/wishlist"
	"github.com/matespatagonico/storefront/pkg/auth"
	"github.com/matespatagonico/storefront/pkg/backend"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/matespatagonico/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// shopperClient is everything the per-user synchronizers need from the backend.
type shopperClient interface {
	CartItems(ctx context.Context, token string, userID int64) ([]backend.CartItem, error)
	CartTotal(ctx context.Context, token string, userID int64) (decimal.Decimal, error)
	AdjustCartItem(ctx context.Context, token string, userID, productID int64, delta int) error
	RemoveCartItem(ctx context.Context, token string, userID, productID int64) error
	ClearCart(ctx context.Context, token string, userID int64) error

	FavoriteList(ctx context.Context, token string, userID int64) (backend.FavoriteList, error)
	CreateFavoriteList(ctx context.Context, token string, userID int64) (backend.FavoriteList, error)
	AddFavorite(ctx context.Context, token string, listID, productID int64) error
	RemoveFavorite(ctx context.Context, token string, listID, productID int64) error
}

// Shopper groups the cart and wishlist of one signed-in user.
type Shopper struct {
	UserID   int64
	Cart     *cart.Synchronizer
	Wishlist *wishlist.Synchronizer

	lastSeen time.Time
	// sessions counts logins bootstrapped by this process and not yet released.
	sessions int
}

// Registry owns one Shopper per user id. Requests for the same user share the
// same synchronizers, which is what serializes their mutations.
type Registry struct {
	client shopperClient
	logg   *logger.Logger
	now    func() time.Time

	mu       sync.Mutex
	shoppers map[int64]*Shopper
}

type RegistryParams struct {
	Client shopperClient
	Logger *logger.Logger
}

func NewRegistry(params RegistryParams) (*Registry, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("backend client is required")
	}
	return &Registry{
		client:   params.Client,
		logg:     params.Logger,
		now:      time.Now,
		shoppers: make(map[int64]*Shopper),
	}, nil
}

// For returns the shopper for the authenticated user, creating it on first use.
func (r *Registry) For(ac auth.Context) (*Shopper, error) {
	if !ac.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if shopper, ok := r.shoppers[ac.UserID]; ok {
		shopper.lastSeen = r.now()
		return shopper, nil
	}

	cartSync, err := cart.NewSynchronizer(cart.SynchronizerParams{
		Client: r.client,
		Logger: r.logg,
		UserID: ac.UserID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build cart")
	}
	wishSync, err := wishlist.NewSynchronizer(wishlist.SynchronizerParams{
		Client: r.client,
		Logger: r.logg,
		UserID: ac.UserID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build wishlist")
	}

	shopper := &Shopper{
		UserID:   ac.UserID,
		Cart:     cartSync,
		Wishlist: wishSync,
		lastSeen: r.now(),
	}
	r.shoppers[ac.UserID] = shopper
	return shopper, nil
}

// Bootstrap loads cart lines, cart total and wishlist membership for a user
// who just signed in. Both loads are attempted even if one fails.
func (r *Registry) Bootstrap(ctx context.Context, ac auth.Context) error {
	shopper, err := r.For(ac)
	if err != nil {
		return err
	}
	r.mu.Lock()
	shopper.sessions++
	r.mu.Unlock()
	return multierr.Combine(
		shopper.Cart.Refresh(ctx, ac),
		shopper.Wishlist.FetchMembership(ctx, ac),
	)
}

// Release is called when one of the user's sessions ends. The shopper is
// forgotten only once its last known session is released; shoppers whose
// sessions predate this process are left to Sweep. Reports whether it dropped.
func (r *Registry) Release(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	shopper, ok := r.shoppers[userID]
	if !ok || shopper.sessions <= 0 {
		return false
	}
	shopper.sessions--
	if shopper.sessions > 0 {
		return false
	}
	delete(r.shoppers, userID)
	return true
}

// Sweep drops shoppers idle for longer than maxIdle and reports how many went.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, shopper := range r.shoppers {
		if shopper.lastSeen.Before(cutoff) {
			delete(r.shoppers, id)
			dropped++
		}
	}
	return dropped
}

// Run sweeps idle shoppers every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 || maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(maxIdle); n > 0 {
				r.logg.Debug(r.logg.WithField(ctx, "dropped", n), "idle shoppers swept")
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shoppers)
}
