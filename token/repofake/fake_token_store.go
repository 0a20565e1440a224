package tokenfakerepo

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-shop-admin/token"
)

var _ token.Store = (*FakeTokenStore)(nil)

// FakeTokenStore keeps the pair in memory. It also backs short-lived CLI runs (TOKEN_STORE=memory).
type FakeTokenStore struct {
	pair token.Pair
	sets int
	lock sync.RWMutex
}

func NewFakeTokenStore() *FakeTokenStore {
	return &FakeTokenStore{}
}

// NewFakeTokenStoreWith returns a store that already holds pair.
func NewFakeTokenStoreWith(pair token.Pair) *FakeTokenStore {
	return &FakeTokenStore{pair: pair}
}

func (ts *FakeTokenStore) Get(_ context.Context) (token.Pair, error) {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return ts.pair, nil
}

func (ts *FakeTokenStore) Set(_ context.Context, pair token.Pair) error {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	ts.pair = pair
	ts.sets++
	return nil
}

func (ts *FakeTokenStore) Clear(_ context.Context) error {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	ts.pair = token.Pair{}
	return nil
}

// Sets returns how many times Set has been called.
func (ts *FakeTokenStore) Sets() int {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return ts.sets
}
