package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/repository/memory"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type recordingHandler struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingHandler) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingHandler) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	t         *testing.T
	ctx       context.Context
	mu        sync.Mutex
	now       time.Time
	store     *memory.Store
	svc       *MaintenanceService
	recorder  *recordingHandler
	requester *domain.User
	tech      *domain.User
	otherTech *domain.User
	manager   *domain.User
	admin     *domain.User
	asset     *domain.Asset
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, ctx: context.Background(), now: fixedNow}
	clock := func() time.Time {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.now
	}
	store := memory.NewStore(memory.WithClock(clock))
	dispatcher := events.NewInMemoryDispatcher()
	recorder := &recordingHandler{}
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, recorder.handle)
	}

	f.store = store
	f.recorder = recorder
	f.svc = NewMaintenanceService(MaintenanceDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Clock:      clock,
	})
	f.requester = f.user("requester@example.com", domain.RoleRequester)
	f.tech = f.user("tech@example.com", domain.RoleTechnician)
	f.otherTech = f.user("tech2@example.com", domain.RoleTechnician)
	f.manager = f.user("manager@example.com", domain.RoleManager)
	f.admin = f.user("admin@example.com", domain.RoleAdmin)

	f.asset = &domain.Asset{Name: "Press 4", Criticality: 3}
	require.NoError(t, store.Repositories().Assets.Create(f.ctx, f.asset))
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fixture) repos() repository.Repositories {
	return f.store.Repositories()
}

func (f *fixture) user(email string, role domain.Role) *domain.User {
	f.t.Helper()
	u := &domain.User{Name: email, Email: email, Role: role, Active: true}
	require.NoError(f.t, f.repos().Users.Create(f.ctx, u))
	return u
}

func (f *fixture) part(name string, stock int) *domain.Part {
	f.t.Helper()
	p := &domain.Part{Name: name, QuantityOnHand: stock}
	require.NoError(f.t, f.repos().Parts.Create(f.ctx, p))
	return p
}

func (f *fixture) stock(partID string) int {
	f.t.Helper()
	p, err := f.repos().Parts.GetByID(f.ctx, partID)
	require.NoError(f.t, err)
	return p.QuantityOnHand
}

func (f *fixture) ticket() *domain.Ticket {
	f.t.Helper()
	assetID := f.asset.ID
	ticket, err := f.svc.CreateTicket(f.ctx, f.requester.ID, TicketInput{
		Title:       "Hydraulic leak",
		Description: "Oil under press 4",
		AssetID:     &assetID,
	})
	require.NoError(f.t, err)
	return ticket
}

// workOrderFromTicket returns an on_hold work order with the tech assigned.
func (f *fixture) workOrderFromTicket() (*domain.Ticket, *domain.WorkOrder) {
	f.t.Helper()
	ticket := f.ticket()
	wo, err := f.svc.CreateWorkOrderFromTicket(f.ctx, ticket.ID, f.manager.ID)
	require.NoError(f.t, err)
	wo, err = f.svc.AssignTechnician(f.ctx, wo.ID, f.tech.ID, f.manager.ID)
	require.NoError(f.t, err)
	return ticket, wo
}

func (f *fixture) openWorkOrder() (*domain.Ticket, *domain.WorkOrder) {
	f.t.Helper()
	ticket, wo := f.workOrderFromTicket()
	_, err := f.svc.ApproveMaintenance(f.ctx, wo.ID, f.manager.ID)
	require.NoError(f.t, err)
	wo, err = f.svc.ApproveProduction(f.ctx, wo.ID, f.admin.ID)
	require.NoError(f.t, err)
	require.Equal(f.t, domain.WorkOrderStatusOpen, wo.Status)
	return ticket, wo
}

func (f *fixture) inProgressWorkOrder() (*domain.Ticket, *domain.WorkOrder) {
	f.t.Helper()
	ticket, wo := f.openWorkOrder()
	wo, err := f.svc.StartWork(f.ctx, wo.ID, f.tech.ID)
	require.NoError(f.t, err)
	return ticket, wo
}

func (f *fixture) completedWorkOrder() (*domain.Ticket, *domain.WorkOrder) {
	f.t.Helper()
	ticket, wo := f.inProgressWorkOrder()
	wo, err := f.svc.CompleteWork(f.ctx, wo.ID, CompletionData{RootCause: "worn seal", ActionTaken: "replaced seal"}, f.tech.ID)
	require.NoError(f.t, err)
	return ticket, wo
}

func (f *fixture) resolvedTicket() *domain.Ticket {
	f.t.Helper()
	ticket, _ := f.completedWorkOrder()
	ticket, err := f.svc.ResolveTicket(f.ctx, ticket.ID, f.manager.ID)
	require.NoError(f.t, err)
	return ticket
}
