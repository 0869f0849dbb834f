package wishlist

import (
	"context"
	"sync"
	"testing"

	"github.com/matespatagonico/storefront/pkg/auth"
	"github.com/matespatagonico/storefront/pkg/backend"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFavorites struct {
	mu       sync.Mutex
	listID   int64
	products []int64

	getErr    error
	createErr error
	addErr    error
	onAdd     func(f *fakeFavorites)

	gets, creates, adds, removes int
}

func (f *fakeFavorites) FavoriteList(ctx context.Context, token string, userID int64) (backend.FavoriteList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return backend.FavoriteList{}, f.getErr
	}
	if f.listID == 0 {
		return backend.FavoriteList{}, pkgerrors.New(pkgerrors.CodeNotFound, "no list")
	}
	ids := append([]int64(nil), f.products...)
	return backend.FavoriteList{ID: f.listID, ProductIDs: ids}, nil
}

func (f *fakeFavorites) CreateFavoriteList(ctx context.Context, token string, userID int64) (backend.FavoriteList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return backend.FavoriteList{}, f.createErr
	}
	f.listID = 77
	return backend.FavoriteList{ID: f.listID}, nil
}

func (f *fakeFavorites) AddFavorite(ctx context.Context, token string, listID, productID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds++
	if f.onAdd != nil {
		f.onAdd(f)
	}
	if f.addErr != nil {
		return f.addErr
	}
	f.products = append(f.products, productID)
	return nil
}

func (f *fakeFavorites) RemoveFavorite(ctx context.Context, token string, listID, productID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes++
	out := f.products[:0]
	for _, id := range f.products {
		if id != productID {
			out = append(out, id)
		}
	}
	f.products = out
	return nil
}

var shopper = auth.Context{UserID: 5, Token: "tok"}

func newTestSynchronizer(t *testing.T, fake *fakeFavorites) *Synchronizer {
	t.Helper()
	s, err := NewSynchronizer(SynchronizerParams{Client: fake, UserID: shopper.UserID})
	require.NoError(t, err)
	return s
}

func TestToggleCreatesListThenAdds(t *testing.T) {
	fake := &fakeFavorites{}
	s := newTestSynchronizer(t, fake)

	result, err := s.Toggle(context.Background(), shopper, 42)
	require.NoError(t, err)
	assert.True(t, result.InWishlist)
	assert.Equal(t, 1, fake.creates)
	assert.Equal(t, 1, fake.adds)

	snap := s.Snapshot()
	assert.Equal(t, []int64{42}, snap.ProductIDs)
	assert.Equal(t, int64(77), snap.ListID)
	assert.Equal(t, ListResolved, snap.ListState)
	assert.Equal(t, StatusIdle, snap.Status)
}

func TestToggleTwiceRestoresMembership(t *testing.T) {
	fake := &fakeFavorites{listID: 3, products: []int64{1}}
	s := newTestSynchronizer(t, fake)
	ctx := context.Background()
	require.NoError(t, s.FetchMembership(ctx, shopper))
	before := s.Snapshot().ProductIDs

	first, err := s.Toggle(ctx, shopper, 42)
	require.NoError(t, err)
	assert.True(t, first.InWishlist)
	second, err := s.Toggle(ctx, shopper, 42)
	require.NoError(t, err)
	assert.False(t, second.InWishlist)

	assert.Equal(t, before, s.Snapshot().ProductIDs)
	assert.Equal(t, 0, fake.creates)
}

func TestToggleRemovesExistingMember(t *testing.T) {
	fake := &fakeFavorites{listID: 3, products: []int64{42, 8}}
	s := newTestSynchronizer(t, fake)

	result, err := s.Toggle(context.Background(), shopper, 42)
	require.NoError(t, err)
	assert.False(t, result.InWishlist)
	assert.Equal(t, 1, fake.removes)
	assert.Equal(t, []int64{8}, s.Snapshot().ProductIDs)
}

func TestToggleRefetchesBeforeChoosingDirection(t *testing.T) {
	fake := &fakeFavorites{listID: 3}
	s := newTestSynchronizer(t, fake)
	ctx := context.Background()
	require.NoError(t, s.FetchMembership(ctx, shopper))
	assert.False(t, s.Contains(42))

	// another tab favorited 42 after our last read
	fake.products = []int64{42}

	result, err := s.Toggle(ctx, shopper, 42)
	require.NoError(t, err)
	assert.False(t, result.InWishlist)
	assert.Equal(t, 0, fake.adds)
	assert.Equal(t, 1, fake.removes)
}

func TestResolveListIDNeverCreatesTwice(t *testing.T) {
	fake := &fakeFavorites{}
	s := newTestSynchronizer(t, fake)
	ctx := context.Background()

	first, err := s.ResolveListID(ctx, shopper)
	require.NoError(t, err)
	second, err := s.ResolveListID(ctx, shopper)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fake.creates)

	other := newTestSynchronizer(t, fake)
	third, err := other.ResolveListID(ctx, shopper)
	require.NoError(t, err)
	assert.Equal(t, first, third)
	assert.Equal(t, 1, fake.creates, "existing list must be fetched, not recreated")
}

func TestUnauthenticatedToggleSendsNothing(t *testing.T) {
	fake := &fakeFavorites{}
	s := newTestSynchronizer(t, fake)

	_, err := s.Toggle(context.Background(), auth.Context{}, 42)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	assert.Zero(t, fake.gets+fake.creates+fake.adds+fake.removes)
}

func TestCreateNotFoundSignalsAuthRequired(t *testing.T) {
	fake := &fakeFavorites{createErr: pkgerrors.New(pkgerrors.CodeNotFound, "user not found")}
	s := newTestSynchronizer(t, fake)

	_, err := s.Toggle(context.Background(), shopper, 42)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	snap := s.Snapshot()
	assert.Equal(t, ListUnresolved, snap.ListState)
	assert.True(t, pkgerrors.IsCode(snap.Err, pkgerrors.CodeUnauthorized))
	assert.Zero(t, fake.adds)
}

func TestResolveFailureIsTerminalForToggle(t *testing.T) {
	fake := &fakeFavorites{createErr: pkgerrors.New(pkgerrors.CodeDependency, "boom")}
	s := newTestSynchronizer(t, fake)

	_, err := s.Toggle(context.Background(), shopper, 42)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Zero(t, fake.adds)
	assert.Empty(t, s.Snapshot().ProductIDs)
}

func TestConflictResynchronizes(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{name: "409", err: pkgerrors.New(pkgerrors.CodeConflict, "conflict")},
		{name: "400 already", err: pkgerrors.New(pkgerrors.CodeValidation, "Product already in favorites")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeFavorites{listID: 3, addErr: tc.err}
			fake.onAdd = func(f *fakeFavorites) { f.products = []int64{42} }
			s := newTestSynchronizer(t, fake)

			_, err := s.Toggle(context.Background(), shopper, 42)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
			assert.True(t, s.Contains(42), "membership should reflect the server after resync")
			assert.Equal(t, 2, fake.gets)
		})
	}
}

func TestOtherAddFailureIsNotConflict(t *testing.T) {
	fake := &fakeFavorites{listID: 3, addErr: pkgerrors.New(pkgerrors.CodeValidation, "invalid product")}
	s := newTestSynchronizer(t, fake)

	_, err := s.Toggle(context.Background(), shopper, 42)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.False(t, s.Contains(42))
}

func TestFetchMembershipNotFoundIsEmpty(t *testing.T) {
	fake := &fakeFavorites{}
	s := newTestSynchronizer(t, fake)

	require.NoError(t, s.FetchMembership(context.Background(), shopper))
	snap := s.Snapshot()
	assert.Empty(t, snap.ProductIDs)
	assert.Nil(t, snap.Err)
	assert.Equal(t, ListUnresolved, snap.ListState)
}

func TestFetchMembershipErrorKeepsState(t *testing.T) {
	fake := &fakeFavorites{listID: 3, products: []int64{1, 2}}
	s := newTestSynchronizer(t, fake)
	ctx := context.Background()
	require.NoError(t, s.FetchMembership(ctx, shopper))

	fake.getErr = pkgerrors.New(pkgerrors.CodeTransport, "down")
	err := s.FetchMembership(ctx, shopper)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeTransport))
	assert.Equal(t, []int64{1, 2}, s.Snapshot().ProductIDs)
}

func TestForeignUserRejected(t *testing.T) {
	s := newTestSynchronizer(t, &fakeFavorites{})
	_, err := s.Toggle(context.Background(), auth.Context{UserID: 6, Token: "x"}, 42)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}
