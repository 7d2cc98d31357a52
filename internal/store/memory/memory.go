// Package memory provides the in-process store driver. Journal contents live
// only as long as the process, matching the auction state itself.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/jensholdgaard/auctiondesk/internal/clock"
	"github.com/jensholdgaard/auctiondesk/internal/config"
	"github.com/jensholdgaard/auctiondesk/internal/event"
	"github.com/jensholdgaard/auctiondesk/internal/store"
)

func init() {
	store.Register("memory", open)
}

func open(_ context.Context, _ config.DatabaseConfig, clk clock.Clock) (*store.Repositories, error) {
	return &store.Repositories{
		Events: NewEventStore(clk),
		Sales:  NewSaleRepo(clk),
		Closer: store.NopCloser{},
		Ping:   func(context.Context) error { return nil },
	}, nil
}

// EventStore implements event.Store in memory.
type EventStore struct {
	mu     sync.RWMutex
	events []event.Event
	clock  clock.Clock
}

// NewEventStore returns an empty EventStore.
func NewEventStore(clk clock.Clock) *EventStore {
	return &EventStore{clock: clk}
}

func (s *EventStore) Append(_ context.Context, events ...event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range events {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = s.clock.Now().UTC()
		}
		s.events = append(s.events, e)
	}
	return nil
}

func (s *EventStore) Load(_ context.Context, aggregateID string) ([]event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []event.Event
	for _, e := range s.events {
		if e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b event.Event) int {
		switch {
		case a.Version < b.Version:
			return -1
		case a.Version > b.Version:
			return 1
		}
		return 0
	})
	return out, nil
}

func (s *EventStore) LoadByType(_ context.Context, eventType event.Type) ([]event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []event.Event
	for _, e := range s.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out, nil
}

// SaleRepo implements store.SaleRepository in memory.
type SaleRepo struct {
	mu    sync.RWMutex
	sales []store.Sale
	clock clock.Clock
}

// NewSaleRepo returns an empty SaleRepo.
func NewSaleRepo(clk clock.Clock) *SaleRepo {
	return &SaleRepo{clock: clk}
}

func (r *SaleRepo) Record(_ context.Context, s *store.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.SoldAt.IsZero() {
		s.SoldAt = r.clock.Now().UTC()
	}
	r.sales = append(r.sales, *s)
	return nil
}

func (r *SaleRepo) ListBySession(_ context.Context, sessionID string) ([]store.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []store.Sale{}
	for _, s := range r.sales {
		if s.SessionID == sessionID {
			out = append(out, s)
		}
	}
	return out, nil
}
