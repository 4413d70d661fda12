// Package memory is an in-process Entity Store. All records live behind one
// mutex; Do runs a function under that mutex and restores a snapshot when it
// fails, which gives the same all-or-nothing contract as a database transaction.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/google/uuid"
)

type Store struct {
	mu sync.Mutex
	state
}

type state struct {
	rides    map[uuid.UUID]*models.Ride
	drivers  map[uuid.UUID]*models.Driver
	ledgers  map[uuid.UUID]*models.Ledger
	riders   map[uuid.UUID]*models.Rider
	payouts  map[uuid.UUID]*models.Payout
	receipts map[uuid.UUID]*models.Receipt
	settings models.Settings
}

func New() *Store {
	return &Store{state: state{
		rides:    make(map[uuid.UUID]*models.Ride),
		drivers:  make(map[uuid.UUID]*models.Driver),
		ledgers:  make(map[uuid.UUID]*models.Ledger),
		riders:   make(map[uuid.UUID]*models.Rider),
		payouts:  make(map[uuid.UUID]*models.Payout),
		receipts: make(map[uuid.UUID]*models.Receipt),
		settings: models.DefaultSettings(),
	}}
}

type txKey struct{ s *Store }

// lock acquires the store mutex unless ctx already runs inside Do.
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{s}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Do implements trm.TxManager.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{s}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			s.state = snap
			panic(p)
		}
		if err != nil {
			s.state = snap
		}
	}()

	return fn(context.WithValue(ctx, txKey{s}, struct{}{}))
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (st *state) clone() state {
	c := state{
		rides:    make(map[uuid.UUID]*models.Ride, len(st.rides)),
		drivers:  make(map[uuid.UUID]*models.Driver, len(st.drivers)),
		ledgers:  make(map[uuid.UUID]*models.Ledger, len(st.ledgers)),
		riders:   make(map[uuid.UUID]*models.Rider, len(st.riders)),
		payouts:  make(map[uuid.UUID]*models.Payout, len(st.payouts)),
		receipts: maps.Clone(st.receipts), // receipts are never mutated
		settings: st.settings,
	}
	for id, r := range st.rides {
		c.rides[id] = r.Clone()
	}
	for id, d := range st.drivers {
		c.drivers[id] = d.Clone()
	}
	for id, l := range st.ledgers {
		c.ledgers[id] = l.Clone()
	}
	for id, r := range st.riders {
		c.riders[id] = r.Clone()
	}
	for id, p := range st.payouts {
		c.payouts[id] = p.Clone()
	}
	return c
}

// Repos returns the per-entity views of the store.
func (s *Store) Rides() *RideRepo { return &RideRepo{s} }
func (s *Store) Drivers() *DriverRepo { return &DriverRepo{s} }
func (s *Store) Riders() *RiderRepo { return &RiderRepo{s} }
func (s *Store) Ledger() *LedgerRepo { return &LedgerRepo{s} }
func (s *Store) Receipts() *ReceiptRepo { return &ReceiptRepo{s} }
func (s *Store) Settings() *SettingsRepo { return &SettingsRepo{s} }
