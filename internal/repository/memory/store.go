// Package memory provides an in-process transactional implementation of
// repository.Store. Transactions run one at a time against a cloned state
// that replaces the committed state only when the callback succeeds.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
)

type partKey struct {
	workOrderID string
	partID      string
}

type state struct {
	users         map[string]domain.User
	assets        map[string]domain.Asset
	tickets       map[string]domain.Ticket
	workOrders    map[string]domain.WorkOrder
	parts         map[string]domain.Part
	workOrderPart map[partKey]domain.WorkOrderPart
	inventory     []domain.InventoryTransaction
	photos        []domain.WorkOrderPhoto
	feedback      map[string]domain.Feedback
	statusChanges []domain.StatusChange
}

func newState() *state {
	return &state{
		users:         map[string]domain.User{},
		assets:        map[string]domain.Asset{},
		tickets:       map[string]domain.Ticket{},
		workOrders:    map[string]domain.WorkOrder{},
		parts:         map[string]domain.Part{},
		workOrderPart: map[partKey]domain.WorkOrderPart{},
		feedback:      map[string]domain.Feedback{},
	}
}

func (s *state) clone() *state {
	c := &state{
		users:         make(map[string]domain.User, len(s.users)),
		assets:        make(map[string]domain.Asset, len(s.assets)),
		tickets:       make(map[string]domain.Ticket, len(s.tickets)),
		workOrders:    make(map[string]domain.WorkOrder, len(s.workOrders)),
		parts:         make(map[string]domain.Part, len(s.parts)),
		workOrderPart: make(map[partKey]domain.WorkOrderPart, len(s.workOrderPart)),
		inventory:     append([]domain.InventoryTransaction(nil), s.inventory...),
		photos:        append([]domain.WorkOrderPhoto(nil), s.photos...),
		feedback:      make(map[string]domain.Feedback, len(s.feedback)),
		statusChanges: append([]domain.StatusChange(nil), s.statusChanges...),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.assets {
		c.assets[k] = v
	}
	for k, v := range s.tickets {
		c.tickets[k] = v
	}
	for k, v := range s.workOrders {
		c.workOrders[k] = cloneWorkOrder(v)
	}
	for k, v := range s.parts {
		c.parts[k] = v
	}
	for k, v := range s.workOrderPart {
		c.workOrderPart[k] = v
	}
	for k, v := range s.feedback {
		c.feedback[k] = v
	}
	return c
}

// Store is the in-memory repository.Store.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the clock used for generated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{state: newState(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repositories returns repositories that lock the store for each call.
func (s *Store) Repositories() repository.Repositories {
	return s.bind(&lockedView{store: s})
}

// WithinTx serialises transactions; fn sees a private copy of the state which
// becomes the committed state only if fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	if err := fn(ctx, s.bind(&txView{state: working})); err != nil {
		return err
	}
	s.state = working
	return nil
}

// view gives repositories access to a state under whatever locking applies.
type view interface {
	do(fn func(st *state) error) error
}

type lockedView struct {
	store *Store
}

func (v *lockedView) do(fn func(st *state) error) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.state)
}

// txView runs with the store mutex already held by WithinTx.
type txView struct {
	state *state
}

func (v *txView) do(fn func(st *state) error) error {
	return fn(v.state)
}

func (s *Store) bind(v view) repository.Repositories {
	return repository.Repositories{
		Users:         &userRepository{view: v, now: s.now},
		Assets:        &assetRepository{view: v, now: s.now},
		Tickets:       &ticketRepository{view: v, now: s.now},
		WorkOrders:    &workOrderRepository{view: v, now: s.now},
		Parts:         &partRepository{view: v},
		Inventory:     &inventoryRepository{view: v, now: s.now},
		Photos:        &photoRepository{view: v, now: s.now},
		Feedback:      &feedbackRepository{view: v, now: s.now},
		StatusChanges: &statusChangeRepository{view: v, now: s.now},
	}
}

func cloneWorkOrder(wo domain.WorkOrder) domain.WorkOrder {
	c := wo
	c.AssignedToID = cloneString(wo.AssignedToID)
	c.TicketID = cloneString(wo.TicketID)
	if wo.Approvals.Maintenance != nil {
		a := *wo.Approvals.Maintenance
		c.Approvals.Maintenance = &a
	}
	if wo.Approvals.Production != nil {
		a := *wo.Approvals.Production
		c.Approvals.Production = &a
	}
	c.Record.ActualStartAt = cloneTime(wo.Record.ActualStartAt)
	c.Record.CompletedAt = cloneTime(wo.Record.CompletedAt)
	c.Parts = nil
	c.Photos = nil
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
