package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkOrderTransitions(t *testing.T) {
	cases := []struct {
		from, to WorkOrderStatus
		allowed  bool
	}{
		{WorkOrderStatusOnHold, WorkOrderStatusOpen, true},
		{WorkOrderStatusOpen, WorkOrderStatusInProgress, true},
		{WorkOrderStatusInProgress, WorkOrderStatusCompleted, true},
		{WorkOrderStatusOnHold, WorkOrderStatusInProgress, false},
		{WorkOrderStatusOpen, WorkOrderStatusCompleted, false},
		{WorkOrderStatusAwaitingApproval, WorkOrderStatusOpen, false},
		{WorkOrderStatusCompleted, WorkOrderStatusOpen, false},
		{WorkOrderStatusClosed, WorkOrderStatusOpen, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
	assert.False(t, WorkOrderStatus("paused").Valid())
	assert.True(t, WorkOrderStatusCompleted.IsFinished())
	assert.False(t, WorkOrderStatusInProgress.IsFinished())
}

func TestApprovals(t *testing.T) {
	var a Approvals
	assert.False(t, a.IsFullyApproved())
	assert.Nil(t, a.For(ApprovalTrackProduction))

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	a.Record(ApprovalTrackProduction, Approval{ApproverID: "p", ApprovedAt: at})
	assert.False(t, a.IsFullyApproved())
	if assert.NotNil(t, a.For(ApprovalTrackProduction)) {
		assert.Equal(t, "p", a.For(ApprovalTrackProduction).ApproverID)
	}

	a.Record(ApprovalTrackMaintenance, Approval{ApproverID: "m", ApprovedAt: at})
	assert.True(t, a.IsFullyApproved())
	assert.False(t, ApprovalTrack("quality").Valid())
}

func TestWorkOrderPermissions(t *testing.T) {
	tech := "tech-1"
	wo := &WorkOrder{AssignedToID: &tech}

	assert.True(t, CanExecuteWork(Actor{ID: tech, Role: RoleTechnician}, wo))
	assert.False(t, CanExecuteWork(Actor{ID: "tech-2", Role: RoleTechnician}, wo))
	assert.False(t, CanExecuteWork(Actor{ID: "req", Role: RoleRequester}, wo))
	assert.True(t, CanExecuteWork(Actor{ID: "mgr", Role: RoleManager}, wo))
	assert.True(t, CanExecuteWork(Actor{ID: "adm", Role: RoleAdmin}, &WorkOrder{}))

	assert.True(t, CanViewWorkOrder(Actor{ID: "req", Role: RoleRequester}, wo))
	assert.False(t, CanViewWorkOrder(Actor{ID: "x", Role: Role("guest")}, wo))
}
