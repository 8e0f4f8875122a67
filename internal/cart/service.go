package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/feastlyapp/feastly-backend/pkg/errors"
	"github.com/feastlyapp/feastly-backend/pkg/logger"
	"github.com/feastlyapp/feastly-backend/pkg/types"
)

const persistTimeout = 5 * time.Second

// Service owns the in-memory cart state for every active user and keeps the
// key-value mirror in sync. State is authoritative in memory; persistence is
// fire-and-forget through a single in-order writer, so mutations never block
// on storage.
type Service struct {
	adapter *Adapter
	logg    *logger.Logger

	mu     sync.Mutex
	states map[string]State

	writes chan persistRequest
	done   chan struct{}
	closed bool
}

type persistRequest struct {
	userID string
	items  []LineItem
}

// NewService builds the cart service and starts its persistence writer.
// bufferSize bounds how many pending writes may queue before best-effort
// dropping kicks in.
func NewService(adapter *Adapter, logg *logger.Logger, bufferSize int) (*Service, error) {
	if adapter == nil {
		return nil, fmt.Errorf("persistence adapter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if bufferSize <= 0 {
		bufferSize = 64
	}

	s := &Service{
		adapter: adapter,
		logg:    logg,
		states:  make(map[string]State),
		writes:  make(chan persistRequest, bufferSize),
		done:    make(chan struct{}),
	}
	go s.writer()
	return s, nil
}

// writer serializes all mirror writes. Each request carries the full item
// list, so last write wins and no interleaving is possible.
func (s *Service) writer() {
	defer close(s.done)
	for req := range s.writes {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		s.adapter.Persist(ctx, req.userID, req.items)
		cancel()
	}
}

// Close stops accepting writes and drains the queue.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.writes)
	s.mu.Unlock()
	<-s.done
}

// enqueuePersistLocked hands the snapshot to the writer without blocking the
// mutation. A full queue drops the write; a later mutation re-mirrors the
// full list. Callers must hold s.mu, which also fences against Close.
func (s *Service) enqueuePersistLocked(ctx context.Context, userID string, items []LineItem) {
	if s.closed {
		return
	}
	select {
	case s.writes <- persistRequest{userID: userID, items: items}:
	default:
		s.logg.Warn(s.logg.WithUserID(ctx, userID), "cart persist queue full, dropping write")
	}
}

// stateLocked returns the user's current state, hydrating from the mirror on
// first access. Callers must hold s.mu.
func (s *Service) stateLocked(ctx context.Context, userID string) State {
	if st, ok := s.states[userID]; ok {
		return st
	}
	st := s.adapter.Hydrate(ctx, userID)
	s.states[userID] = st
	return st
}

// Get returns the user's items and derived totals.
func (s *Service) Get(ctx context.Context, userID string) (State, Totals, error) {
	if userID == "" {
		return State{}, Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	s.mu.Lock()
	st := s.stateLocked(ctx, userID)
	s.mu.Unlock()
	return st, ComputeTotals(st.Items), nil
}

// AddItem adds or merges a line and mirrors the new state.
func (s *Service) AddItem(ctx context.Context, userID string, item CatalogItem, quantity int, customizations types.Customizations) (State, Totals, error) {
	if userID == "" {
		return State{}, Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if item.ID == "" {
		return State{}, Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if quantity < 1 {
		return State{}, Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if item.Price.IsNegative() {
		return State{}, Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}

	s.mu.Lock()
	st := AddItem(s.stateLocked(ctx, userID), item, quantity, customizations)
	s.states[userID] = st
	s.enqueuePersistLocked(ctx, userID, st.Items)
	s.mu.Unlock()

	return st, ComputeTotals(st.Items), nil
}

// UpdateQuantity sets a line's quantity; non-positive values remove the line.
// An unknown line handle is a silent no-op.
func (s *Service) UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) (State, Totals, error) {
	if userID == "" {
		return State{}, Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	s.mu.Lock()
	prev := s.stateLocked(ctx, userID)
	st := UpdateQuantity(prev, lineID, quantity)
	s.states[userID] = st
	s.enqueuePersistLocked(ctx, userID, st.Items)
	s.mu.Unlock()

	return st, ComputeTotals(st.Items), nil
}

// RemoveItem drops a line. An unknown line handle is a silent no-op.
func (s *Service) RemoveItem(ctx context.Context, userID, lineID string) (State, Totals, error) {
	if userID == "" {
		return State{}, Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	s.mu.Lock()
	st := RemoveItem(s.stateLocked(ctx, userID), lineID)
	s.states[userID] = st
	s.enqueuePersistLocked(ctx, userID, st.Items)
	s.mu.Unlock()

	return st, ComputeTotals(st.Items), nil
}

// Clear empties the cart and mirrors the empty list.
func (s *Service) Clear(ctx context.Context, userID string) (State, Totals, error) {
	if userID == "" {
		return State{}, Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	s.mu.Lock()
	st := Clear(s.stateLocked(ctx, userID))
	s.states[userID] = st
	s.enqueuePersistLocked(ctx, userID, st.Items)
	s.mu.Unlock()

	return st, ComputeTotals(st.Items), nil
}
