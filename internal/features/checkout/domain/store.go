package domain

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store serializes cart mutations through Reduce. One Store belongs to one session.
type Store struct {
	mu    sync.RWMutex
	state State
	newID func() string
}

// NewStore returns an empty store that issues uuid line ids.
func NewStore() *Store {
	return &Store{newID: func() string { return uuid.NewString() }}
}

// Dispatch applies a and returns the committed state.
// AddItem without a LineID receives a fresh one.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if add, ok := a.(AddItem); ok && add.Item.LineID == "" {
		add.Item.LineID = s.newID()
		a = add
	}
	s.state = Reduce(s.state, a)
	return s.state.Clone()
}

// Snapshot returns a consistent copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Total returns the sum of item prices.
func (s *Store) Total() decimal.Decimal {
	return s.Snapshot().Total()
}

// DiscountedTotal returns the total after the applied coupon.
func (s *Store) DiscountedTotal() decimal.Decimal {
	return s.Snapshot().DiscountedTotal()
}
