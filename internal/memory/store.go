// Package memory provides a process-local Store used by the memory backend and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/incari/credit-tractor-app-sub000/internal/core"
	"github.com/incari/credit-tractor-app-sub000/internal/ports"
)

type Store struct {
	mu       sync.Mutex
	payments map[string]core.Payment
	cards    map[string]core.CreditCard
	settings map[string]core.Settings
	// order keeps listings stable in insertion order.
	order []string
	newID func() string
}

func New() *Store {
	return &Store{
		payments: map[string]core.Payment{},
		cards:    map[string]core.CreditCard{},
		settings: map[string]core.Settings{},
		newID:    func() string { return uuid.NewString() },
	}
}

var _ ports.Store = (*Store)(nil)

func (s *Store) ListPayments(_ context.Context, userID string) ([]core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Payment{}
	for _, id := range s.order {
		if p, ok := s.payments[id]; ok && p.UserID == userID {
			out = append(out, clonePayment(p))
		}
	}
	return out, nil
}

func (s *Store) GetPayment(_ context.Context, userID, id string) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok || p.UserID != userID {
		return core.Payment{}, fmt.Errorf("payment %s: %w", id, ports.ErrNotFound)
	}
	return clonePayment(p), nil
}

// CreatePayment stores p under a fresh ID.
func (s *Store) CreatePayment(_ context.Context, p core.Payment) (core.Payment, error) {
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.newID()
	p = clonePayment(p)
	s.payments[p.ID] = p
	s.order = append(s.order, p.ID)
	return clonePayment(p), nil
}

func (s *Store) UpdatePayment(_ context.Context, p core.Payment) (core.Payment, error) {
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.payments[p.ID]
	if !ok || existing.UserID != p.UserID {
		return core.Payment{}, fmt.Errorf("payment %s: %w", p.ID, ports.ErrNotFound)
	}
	s.payments[p.ID] = clonePayment(p)
	return clonePayment(p), nil
}

func (s *Store) DeletePayment(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok || p.UserID != userID {
		return fmt.Errorf("payment %s: %w", id, ports.ErrNotFound)
	}
	delete(s.payments, id)
	return nil
}

func (s *Store) ListCards(_ context.Context, userID string) ([]core.CreditCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.CreditCard{}
	for _, id := range s.order {
		if c, ok := s.cards[id]; ok && c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) GetCard(_ context.Context, userID, id string) (core.CreditCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok || c.UserID != userID {
		return core.CreditCard{}, fmt.Errorf("card %s: %w", id, ports.ErrNotFound)
	}
	return c, nil
}

func (s *Store) CreateCard(_ context.Context, c core.CreditCard) (core.CreditCard, error) {
	if err := c.Validate(); err != nil {
		return core.CreditCard{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.newID()
	s.cards[c.ID] = c
	s.order = append(s.order, c.ID)
	return c, nil
}

func (s *Store) DeleteCard(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok || c.UserID != userID {
		return fmt.Errorf("card %s: %w", id, ports.ErrNotFound)
	}
	delete(s.cards, id)
	return nil
}

func (s *Store) GetSettings(_ context.Context, userID string) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[userID]
	if !ok {
		return core.Settings{}, fmt.Errorf("settings for %s: %w", userID, ports.ErrNotFound)
	}
	return st, nil
}

func (s *Store) SaveSettings(_ context.Context, st core.Settings) (core.Settings, error) {
	if err := st.Validate(); err != nil {
		return core.Settings{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[st.UserID] = st
	return st, nil
}

// ListUsers returns the sorted IDs of users owning payments.
func (s *Store) ListUsers(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	for _, p := range s.payments {
		seen[p.UserID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Close() error { return nil }

func clonePayment(p core.Payment) core.Payment {
	p.PaidInstallments = core.NewIndexSet(p.PaidInstallments.Sorted()...)
	return p
}
