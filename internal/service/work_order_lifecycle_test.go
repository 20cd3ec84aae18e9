package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

func TestCreateWorkOrderFromTicket(t *testing.T) {
	f := newFixture(t)
	ticket := f.ticket()

	wo, err := f.svc.CreateWorkOrderFromTicket(f.ctx, ticket.ID, f.manager.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkOrderStatusOnHold, wo.Status)
	assert.Equal(t, domain.DefaultWorkOrderPriority, wo.Priority)
	assert.Equal(t, ticket.Title, wo.Title)
	assert.Equal(t, ticket.Description, wo.Description)
	assert.Equal(t, f.asset.ID, wo.AssetID)
	require.NotNil(t, wo.TicketID)
	assert.Equal(t, ticket.ID, *wo.TicketID)

	stored, err := f.repos().Tickets.GetByID(f.ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPending, stored.Status)

	_, err = f.svc.CreateWorkOrderFromTicket(f.ctx, ticket.ID, f.admin.ID)
	requireCode(t, err, apperrors.CodeConflict)

	linked, err := f.repos().WorkOrders.GetByTicketID(f.ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, wo.ID, linked.ID)
	assert.Subset(t, f.recorder.types(), []events.EventType{events.EventWorkOrderCreated, events.EventTicketStatusChanged})
}

func TestCreateWorkOrderFromTicketRejections(t *testing.T) {
	t.Run("requester", func(t *testing.T) {
		f := newFixture(t)
		ticket := f.ticket()
		_, err := f.svc.CreateWorkOrderFromTicket(f.ctx, ticket.ID, f.requester.ID)
		requireCode(t, err, apperrors.CodeForbidden)
	})

	t.Run("resolved ticket", func(t *testing.T) {
		f := newFixture(t)
		assetID := f.asset.ID
		ticket := &domain.Ticket{Title: "old", AssetID: &assetID, RequesterID: f.requester.ID, Status: domain.TicketStatusResolved}
		require.NoError(t, f.repos().Tickets.Create(f.ctx, ticket))
		_, err := f.svc.CreateWorkOrderFromTicket(f.ctx, ticket.ID, f.manager.ID)
		requireCode(t, err, apperrors.CodeInvalidState)
	})

	t.Run("ticket without asset", func(t *testing.T) {
		f := newFixture(t)
		ticket, err := f.svc.CreateTicket(f.ctx, f.requester.ID, TicketInput{Title: "no asset"})
		require.NoError(t, err)
		_, err = f.svc.CreateWorkOrderFromTicket(f.ctx, ticket.ID, f.manager.ID)
		requireCode(t, err, apperrors.CodePreconditionFailed)

		stored, err := f.repos().Tickets.GetByID(f.ctx, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusOpen, stored.Status)
	})

	t.Run("unknown ticket", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateWorkOrderFromTicket(f.ctx, "missing", f.manager.ID)
		requireCode(t, err, apperrors.CodeNotFound)
	})
}

func TestConcurrentCreateFromTicketYieldsOneWorkOrder(t *testing.T) {
	f := newFixture(t)
	ticket := f.ticket()

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateWorkOrderFromTicket(f.ctx, ticket.ID, f.manager.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireCode(t, err, apperrors.CodeConflict)
	}
	assert.Equal(t, 1, succeeded)
}

func TestApprovalGate(t *testing.T) {
	orders := map[string][]domain.ApprovalTrack{
		"maintenance first": {domain.ApprovalTrackMaintenance, domain.ApprovalTrackProduction},
		"production first":  {domain.ApprovalTrackProduction, domain.ApprovalTrackMaintenance},
	}
	for name, tracks := range orders {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			_, wo := f.workOrderFromTicket()

			approve := func(track domain.ApprovalTrack) (*domain.WorkOrder, error) {
				if track == domain.ApprovalTrackMaintenance {
					return f.svc.ApproveMaintenance(f.ctx, wo.ID, f.manager.ID)
				}
				return f.svc.ApproveProduction(f.ctx, wo.ID, f.admin.ID)
			}

			first, err := approve(tracks[0])
			require.NoError(t, err)
			assert.Equal(t, domain.WorkOrderStatusOnHold, first.Status)
			assert.NotNil(t, first.Approvals.For(tracks[0]))
			assert.Nil(t, first.Approvals.For(tracks[1]))

			second, err := approve(tracks[1])
			require.NoError(t, err)
			assert.Equal(t, domain.WorkOrderStatusOpen, second.Status)
			assert.True(t, second.Approvals.IsFullyApproved())

			stored, err := f.repos().WorkOrders.GetByID(f.ctx, wo.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.WorkOrderStatusOpen, stored.Status)
		})
	}
}

func TestReapprovalConflictsWithoutRestamp(t *testing.T) {
	f := newFixture(t)
	_, wo := f.workOrderFromTicket()

	_, err := f.svc.ApproveMaintenance(f.ctx, wo.ID, f.manager.ID)
	require.NoError(t, err)

	f.advance(time.Hour)
	_, err = f.svc.ApproveMaintenance(f.ctx, wo.ID, f.admin.ID)
	requireCode(t, err, apperrors.CodeConflict)

	stored, err := f.repos().WorkOrders.GetByID(f.ctx, wo.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Approvals.Maintenance)
	assert.True(t, stored.Approvals.Maintenance.ApprovedAt.Equal(fixedNow))
	assert.Equal(t, f.manager.ID, stored.Approvals.Maintenance.ApproverID)
	assert.Equal(t, domain.WorkOrderStatusOnHold, stored.Status)
}

func TestApprovalRejections(t *testing.T) {
	f := newFixture(t)
	_, wo := f.workOrderFromTicket()

	_, err := f.svc.ApproveProduction(f.ctx, wo.ID, f.tech.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	standalone, err := f.svc.CreateWorkOrder(f.ctx, f.manager.ID, WorkOrderInput{Title: "Inspect", AssetID: f.asset.ID})
	require.NoError(t, err)
	_, err = f.svc.ApproveMaintenance(f.ctx, standalone.ID, f.manager.ID)
	requireCode(t, err, apperrors.CodeInvalidState)

	_, err = f.svc.ApproveMaintenance(f.ctx, "missing", f.manager.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	_, open := f.openWorkOrder()
	_, err = f.svc.ApproveProduction(f.ctx, open.ID, f.manager.ID)
	requireCode(t, err, apperrors.CodeInvalidState)
}

func TestConcurrentApprovalsOpenWorkOrder(t *testing.T) {
	f := newFixture(t)
	_, wo := f.workOrderFromTicket()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := f.svc.ApproveMaintenance(f.ctx, wo.ID, f.manager.ID)
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := f.svc.ApproveProduction(f.ctx, wo.ID, f.admin.ID)
		assert.NoError(t, err)
	}()
	wg.Wait()

	stored, err := f.repos().WorkOrders.GetByID(f.ctx, wo.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkOrderStatusOpen, stored.Status)
}

func TestStartWork(t *testing.T) {
	t.Run("requester cannot start", func(t *testing.T) {
		f := newFixture(t)
		_, wo := f.openWorkOrder()
		_, err := f.svc.StartWork(f.ctx, wo.ID, f.requester.ID)
		requireCode(t, err, apperrors.CodeForbidden)
	})

	t.Run("unassigned technician cannot start", func(t *testing.T) {
		f := newFixture(t)
		_, wo := f.openWorkOrder()
		_, err := f.svc.StartWork(f.ctx, wo.ID, f.otherTech.ID)
		requireCode(t, err, apperrors.CodeForbidden)
	})

	t.Run("must be open", func(t *testing.T) {
		f := newFixture(t)
		_, wo := f.workOrderFromTicket()
		_, err := f.svc.StartWork(f.ctx, wo.ID, f.tech.ID)
		requireCode(t, err, apperrors.CodeInvalidState)
	})

	t.Run("manager may start unassigned work", func(t *testing.T) {
		f := newFixture(t)
		_, wo := f.openWorkOrder()
		started, err := f.svc.StartWork(f.ctx, wo.ID, f.manager.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.WorkOrderStatusInProgress, started.Status)
	})

	t.Run("assignee starts", func(t *testing.T) {
		f := newFixture(t)
		_, wo := f.openWorkOrder()
		started, err := f.svc.StartWork(f.ctx, wo.ID, f.tech.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.WorkOrderStatusInProgress, started.Status)
		require.NotNil(t, started.Record.ActualStartAt)
		assert.True(t, started.Record.ActualStartAt.Equal(fixedNow))
	})
}

func TestCompleteWorkConsumesParts(t *testing.T) {
	f := newFixture(t)
	_, wo := f.inProgressWorkOrder()
	seal := f.part("seal kit", 10)

	done, err := f.svc.CompleteWork(f.ctx, wo.ID, CompletionData{
		RootCause:            "worn seal",
		ActionTaken:          "replaced seal",
		NextOSRecommendation: "inspect in 90 days",
		PartsUsed:            []PartUsage{{PartID: seal.ID, QuantityUsed: 4}},
		Photos:               []PhotoInput{{StorageKey: "wo/1/after.jpg", FileName: "after.jpg", MimeType: "image/jpeg", SizeBytes: 2048}},
	}, f.tech.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.WorkOrderStatusCompleted, done.Status)
	require.NotNil(t, done.Record.CompletedAt)
	assert.Equal(t, "worn seal", done.Record.RootCause)
	assert.Equal(t, 6, f.stock(seal.ID))

	ledger, err := f.svc.PartLedger(f.ctx, seal.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, domain.InventoryTransactionDeduction, ledger[0].Type)
	assert.Equal(t, 4, ledger[0].QuantityChanged)
	assert.Equal(t, f.tech.ID, ledger[0].UserID)
	require.NotNil(t, ledger[0].WorkOrderID)
	assert.Equal(t, wo.ID, *ledger[0].WorkOrderID)

	loaded, err := f.svc.GetWorkOrder(f.ctx, wo.ID, f.requester.Actor())
	require.NoError(t, err)
	require.Len(t, loaded.Parts, 1)
	assert.Equal(t, 4, loaded.Parts[0].QuantityUsed)
	require.Len(t, loaded.Photos, 1)
	assert.Equal(t, f.tech.ID, loaded.Photos[0].UploadedByID)

	assert.Contains(t, f.recorder.types(), events.EventInventoryDeducted)
}

func TestCompleteWorkSumsAndSkipsLines(t *testing.T) {
	f := newFixture(t)
	_, wo := f.inProgressWorkOrder()
	filter := f.part("filter", 20)

	_, err := f.svc.CompleteWork(f.ctx, wo.ID, CompletionData{
		PartsUsed: []PartUsage{
			{PartID: filter.ID, QuantityUsed: 2},
			{PartID: "", QuantityUsed: 5},
			{PartID: filter.ID, QuantityUsed: 0},
			{PartID: filter.ID, QuantityUsed: -3},
			{PartID: filter.ID, QuantityUsed: 3},
		},
	}, f.tech.ID)
	require.NoError(t, err)

	assert.Equal(t, 15, f.stock(filter.ID))
	parts, err := f.repos().WorkOrders.ListParts(f.ctx, wo.ID)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, 5, parts[0].QuantityUsed)
}

func TestCompleteWorkIsAllOrNothing(t *testing.T) {
	cases := map[string]struct {
		data func(a, b *domain.Part) CompletionData
		code string
	}{
		"unknown part mid-list": {
			data: func(a, b *domain.Part) CompletionData {
				return CompletionData{
					RootCause: "x",
					PartsUsed: []PartUsage{{PartID: a.ID, QuantityUsed: 1}, {PartID: "does-not-exist", QuantityUsed: 1}, {PartID: b.ID, QuantityUsed: 1}},
					Photos:    []PhotoInput{{StorageKey: "k"}},
				}
			},
			code: apperrors.CodeNotFound,
		},
		"insufficient stock": {
			data: func(a, b *domain.Part) CompletionData {
				return CompletionData{
					PartsUsed: []PartUsage{{PartID: a.ID, QuantityUsed: 1}, {PartID: b.ID, QuantityUsed: 99}},
					Photos:    []PhotoInput{{StorageKey: "k"}},
				}
			},
			code: apperrors.CodeValidation,
		},
		"photo without storage key": {
			data: func(a, _ *domain.Part) CompletionData {
				return CompletionData{
					PartsUsed: []PartUsage{{PartID: a.ID, QuantityUsed: 1}},
					Photos:    []PhotoInput{{FileName: "orphan.jpg"}},
				}
			},
			code: apperrors.CodeValidation,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			_, wo := f.inProgressWorkOrder()
			a := f.part("bearing", 10)
			b := f.part("belt", 10)
			before := len(f.recorder.types())

			_, err := f.svc.CompleteWork(f.ctx, wo.ID, tc.data(a, b), f.tech.ID)
			requireCode(t, err, tc.code)

			assert.Equal(t, 10, f.stock(a.ID))
			assert.Equal(t, 10, f.stock(b.ID))
			stored, err := f.repos().WorkOrders.GetByID(f.ctx, wo.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.WorkOrderStatusInProgress, stored.Status)
			assert.Nil(t, stored.Record.CompletedAt)

			parts, err := f.repos().WorkOrders.ListParts(f.ctx, wo.ID)
			require.NoError(t, err)
			assert.Empty(t, parts)
			txns, err := f.repos().Inventory.ListByWorkOrder(f.ctx, wo.ID)
			require.NoError(t, err)
			assert.Empty(t, txns)
			photos, err := f.repos().Photos.ListByWorkOrder(f.ctx, wo.ID)
			require.NoError(t, err)
			assert.Empty(t, photos)
			assert.Len(t, f.recorder.types(), before, "no events after a rollback")
		})
	}
}

func TestCompleteWorkRejections(t *testing.T) {
	f := newFixture(t)
	_, open := f.openWorkOrder()
	_, err := f.svc.CompleteWork(f.ctx, open.ID, CompletionData{}, f.tech.ID)
	requireCode(t, err, apperrors.CodeInvalidState)

	_, err = f.svc.StartWork(f.ctx, open.ID, f.tech.ID)
	require.NoError(t, err)
	_, err = f.svc.CompleteWork(f.ctx, open.ID, CompletionData{}, f.otherTech.ID)
	requireCode(t, err, apperrors.CodeForbidden)
	_, err = f.svc.CompleteWork(f.ctx, open.ID, CompletionData{}, f.requester.ID)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestConcurrentCompletionsDoNotLoseDecrements(t *testing.T) {
	f := newFixture(t)
	oil := f.part("hydraulic oil", 100)

	const workers = 12
	ids := make([]string, 0, workers)
	for i := 0; i < workers; i++ {
		_, wo := f.inProgressWorkOrder()
		ids = append(ids, wo.ID)
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, err := f.svc.CompleteWork(f.ctx, id, CompletionData{
				RootCause: fmt.Sprintf("job %d", i),
				PartsUsed: []PartUsage{{PartID: oil.ID, QuantityUsed: 3}},
			}, f.tech.ID)
			assert.NoError(t, err)
		}(i, id)
	}
	wg.Wait()

	assert.Equal(t, 100-3*workers, f.stock(oil.ID))
	ledger, err := f.svc.PartLedger(f.ctx, oil.ID)
	require.NoError(t, err)
	assert.Len(t, ledger, workers)
}

func TestAssignTechnician(t *testing.T) {
	f := newFixture(t)
	_, wo := f.workOrderFromTicket()

	_, err := f.svc.AssignTechnician(f.ctx, wo.ID, f.otherTech.ID, f.tech.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.AssignTechnician(f.ctx, wo.ID, f.requester.ID, f.manager.ID)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.AssignTechnician(f.ctx, wo.ID, "missing", f.manager.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	reassigned, err := f.svc.AssignTechnician(f.ctx, wo.ID, f.otherTech.ID, f.manager.ID)
	require.NoError(t, err)
	assert.True(t, reassigned.IsAssignedTo(f.otherTech.ID))

	_, done := f.completedWorkOrder()
	_, err = f.svc.AssignTechnician(f.ctx, done.ID, f.otherTech.ID, f.manager.ID)
	requireCode(t, err, apperrors.CodeInvalidState)
}

func TestCreateStandaloneWorkOrder(t *testing.T) {
	f := newFixture(t)

	wo, err := f.svc.CreateWorkOrder(f.ctx, f.manager.ID, WorkOrderInput{Title: "Quarterly inspection", AssetID: f.asset.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.WorkOrderStatusAwaitingApproval, wo.Status)
	assert.Equal(t, domain.DefaultWorkOrderPriority, wo.Priority)
	assert.Nil(t, wo.TicketID)

	_, err = f.svc.CreateWorkOrder(f.ctx, f.manager.ID, WorkOrderInput{Title: "x", AssetID: f.asset.ID, Priority: 9})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.CreateWorkOrder(f.ctx, f.tech.ID, WorkOrderInput{Title: "x", AssetID: f.asset.ID})
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.CreateWorkOrder(f.ctx, f.manager.ID, WorkOrderInput{Title: "x", AssetID: "missing"})
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestPartLedgerUnknownPart(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PartLedger(f.ctx, "missing")
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestConsolidateParts(t *testing.T) {
	got := consolidateParts([]PartUsage{
		{PartID: "b", QuantityUsed: 1},
		{PartID: " a ", QuantityUsed: 2},
		{PartID: "b", QuantityUsed: 4},
		{PartID: "c", QuantityUsed: 0},
		{PartID: "", QuantityUsed: 7},
	})
	assert.Equal(t, []PartUsage{{PartID: "a", QuantityUsed: 2}, {PartID: "b", QuantityUsed: 5}}, got)
}
