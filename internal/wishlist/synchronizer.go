package wishlist

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/matespatagonico/storefront/pkg/auth"
	"github.com/matespatagonico/storefront/pkg/backend"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/matespatagonico/storefront/pkg/logger"
)

type favoritesClient interface {
	FavoriteList(ctx context.Context, token string, userID int64) (backend.FavoriteList, error)
	CreateFavoriteList(ctx context.Context, token string, userID int64) (backend.FavoriteList, error)
	AddFavorite(ctx context.Context, token string, listID, productID int64) error
	RemoveFavorite(ctx context.Context, token string, listID, productID int64) error
}

// Synchronizer keeps the set of favorited product ids in sync with the
// user's favorites list. The list is resolved lazily and created at most once.
type Synchronizer struct {
	client favoritesClient
	logg   *logger.Logger
	userID int64

	sem chan struct{}

	mu        sync.RWMutex
	members   []int64
	listID    int64
	listState ListState
	status    Status
	err       error
}

type SynchronizerParams struct {
	Client favoritesClient
	Logger *logger.Logger
	UserID int64
}

func NewSynchronizer(params SynchronizerParams) (*Synchronizer, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("favorites client required")
	}
	if params.UserID <= 0 {
		return nil, fmt.Errorf("wishlist user id required")
	}
	return &Synchronizer{
		client:    params.Client,
		logg:      params.Logger,
		userID:    params.UserID,
		sem:       make(chan struct{}, 1),
		listState: ListUnresolved,
		status:    StatusIdle,
	}, nil
}

func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, len(s.members))
	copy(ids, s.members)
	return Snapshot{
		ProductIDs: ids,
		ListID:     s.listID,
		ListState:  s.listState,
		Status:     s.status,
		Err:        s.err,
	}
}

func (s *Synchronizer) Contains(productID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return containsID(s.members, productID)
}

// FetchMembership reloads the favorited product ids. A missing list means no
// favorites yet and is not an error.
func (s *Synchronizer) FetchMembership(ctx context.Context, ac auth.Context) error {
	return s.run(ctx, ac, "wishlist.fetch", StatusLoading, func(ctx context.Context) error {
		return s.fetchMembership(ctx, ac)
	})
}

// ResolveListID returns the favorites list id, creating the list only when
// the backend reports none exists.
func (s *Synchronizer) ResolveListID(ctx context.Context, ac auth.Context) (int64, error) {
	var listID int64
	err := s.run(ctx, ac, "wishlist.resolve_list", StatusLoading, func(ctx context.Context) error {
		id, err := s.resolveListID(ctx, ac)
		listID = id
		return err
	})
	return listID, err
}

// Toggle flips the membership of productID. Membership is refetched before
// choosing between add and remove. A conflicting answer from the backend
// resynchronizes membership and returns a CONFLICT error.
func (s *Synchronizer) Toggle(ctx context.Context, ac auth.Context, productID int64) (ToggleResult, error) {
	if productID <= 0 {
		return ToggleResult{}, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	result := ToggleResult{ProductID: productID}
	err := s.run(ctx, ac, "wishlist.toggle", StatusToggling, func(ctx context.Context) error {
		if err := s.fetchMembership(ctx, ac); err != nil {
			return err
		}
		listID, err := s.resolveListID(ctx, ac)
		if err != nil {
			return err
		}

		member := s.Contains(productID)
		if member {
			err = s.client.RemoveFavorite(ctx, ac.Token, listID, productID)
		} else {
			err = s.client.AddFavorite(ctx, ac.Token, listID, productID)
		}
		if err != nil {
			if isMembershipConflict(err) {
				if syncErr := s.fetchMembership(ctx, ac); syncErr != nil {
					s.logg.Warn(s.logg.WithField(ctx, "error", syncErr.Error()), "wishlist resync after conflict failed")
				}
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "wishlist changed elsewhere; membership was refreshed").
					WithDetails(map[string]any{"product_id": productID})
			}
			return err
		}

		s.mu.Lock()
		if member {
			s.members = removeID(s.members, productID)
		} else if !containsID(s.members, productID) {
			s.members = append(s.members, productID)
		}
		s.mu.Unlock()
		result.InWishlist = !member
		return nil
	})
	if err != nil {
		return ToggleResult{}, err
	}
	return result, nil
}

func (s *Synchronizer) run(ctx context.Context, ac auth.Context, op string, busy Status, fn func(context.Context) error) error {
	if !ac.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if ac.UserID != s.userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "wishlist belongs to another user")
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return pkgerrors.FromTransport(ctx.Err(), op+" cancelled while waiting")
	}
	defer func() { <-s.sem }()

	ctx = s.logg.WithOperation(s.logg.WithUserID(ctx, s.userID), op)

	s.mu.Lock()
	s.status = busy
	s.err = nil
	s.mu.Unlock()

	err := fn(ctx)

	s.mu.Lock()
	s.status = StatusIdle
	s.err = err
	s.mu.Unlock()

	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "wishlist operation failed")
		return err
	}
	s.logg.Debug(ctx, "wishlist operation completed")
	return nil
}

func (s *Synchronizer) fetchMembership(ctx context.Context, ac auth.Context) error {
	list, err := s.client.FavoriteList(ctx, ac.Token, s.userID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			s.mu.Lock()
			s.members = nil
			s.mu.Unlock()
			return nil
		}
		return err
	}
	s.mu.Lock()
	s.members = dedupe(list.ProductIDs)
	if list.ID > 0 && s.listID == 0 {
		s.listID = list.ID
		s.listState = ListResolved
	}
	s.mu.Unlock()
	return nil
}

func (s *Synchronizer) resolveListID(ctx context.Context, ac auth.Context) (int64, error) {
	s.mu.Lock()
	if s.listID > 0 {
		id := s.listID
		s.mu.Unlock()
		return id, nil
	}
	s.listState = ListResolving
	s.mu.Unlock()

	id, err := s.lookupOrCreate(ctx, ac)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.listState = ListUnresolved
		return 0, err
	}
	s.listID = id
	s.listState = ListResolved
	return id, nil
}

func (s *Synchronizer) lookupOrCreate(ctx context.Context, ac auth.Context) (int64, error) {
	list, err := s.client.FavoriteList(ctx, ac.Token, s.userID)
	switch {
	case err == nil && list.ID > 0:
		return list.ID, nil
	case err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		return 0, err
	}

	created, err := s.client.CreateFavoriteList(ctx, ac.Token, s.userID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) ||
			pkgerrors.IsCode(err, pkgerrors.CodeForbidden) ||
			pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return 0, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "sign in to use favorites")
		}
		return 0, err
	}
	if created.ID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "favorites list was created without an id")
	}
	s.logg.Info(s.logg.WithField(ctx, "list_id", created.ID), "favorites list created")
	return created.ID, nil
}

// isMembershipConflict matches 409s and the 400s the backend sends for
// "already in list" style rejections.
func isMembershipConflict(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil {
		return false
	}
	switch typed.Code() {
	case pkgerrors.CodeConflict:
		return true
	case pkgerrors.CodeValidation:
		msg := strings.ToLower(typed.Message())
		return strings.Contains(msg, "already") || strings.Contains(msg, "ya existe") || strings.Contains(msg, "ya está")
	}
	return false
}

func containsID(ids []int64, id int64) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func dedupe(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !containsID(out, id) {
			out = append(out, id)
		}
	}
	return out
}
