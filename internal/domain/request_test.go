package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestItem(t *testing.T) *InventoryItem {
	t.Helper()
	item, err := NewInventoryItem("co-1", "", "u-admin", ItemAttributes{Code: "flt-01", Name: "Filter"}, testNow)
	require.NoError(t, err)
	return item
}

func newTestRequest(t *testing.T, source Location) *InventoryRequest {
	t.Helper()
	r, err := NewInventoryRequest(NewRequestParams{
		WorkOrderID: "wo-1",
		Item:        newTestItem(t),
		Quantity:    5,
		Source:      source,
		Destination: Location{ID: "co-2", Type: LocationWarehouse, CompanyID: "co-2"},
		RequestedBy: "u-tech",
		CompanyID:   "co-2",
	}, testNow)
	require.NoError(t, err)
	return r
}

func TestNewInventoryRequest(t *testing.T) {
	r := newTestRequest(t, Location{})

	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, UrgencyNormal, r.Urgency)
	assert.Equal(t, "FLT-01", r.ItemCode)
	require.Len(t, r.StatusHistory, 1)
	require.Len(t, r.GetDomainEvents(), 1)
	assert.Equal(t, "inventory.request.created", r.GetDomainEvents()[0].EventType())

	_, err := NewInventoryRequest(NewRequestParams{
		WorkOrderID: "wo-1", Item: newTestItem(t), Quantity: 0,
		Destination: NewLocation("site-1", LocationSite), RequestedBy: "u", CompanyID: "co",
	}, testNow)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestInventoryRequest_UpdateOnlyWhilePending(t *testing.T) {
	r := newTestRequest(t, Location{})
	qty := int64(8)
	urgent := UrgencyUrgent
	require.NoError(t, r.Update(RequestChanges{Quantity: &qty, Urgency: &urgent}, "u-tech", testNow))
	assert.Equal(t, int64(8), r.QuantityRequested)
	assert.Equal(t, UrgencyUrgent, r.Urgency)

	require.NoError(t, r.Reject("u-boss", "no budget", testNow))
	assert.ErrorIs(t, r.Update(RequestChanges{Quantity: &qty}, "u-tech", testNow), ErrRequestNotEditable)
}

func TestInventoryRequest_ApprovalQuantity(t *testing.T) {
	r := newTestRequest(t, Location{})

	qty, err := r.ApprovalQuantity(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), qty)

	three := int64(3)
	qty, err = r.ApprovalQuantity(&three)
	require.NoError(t, err)
	assert.Equal(t, int64(3), qty)

	six := int64(6)
	_, err = r.ApprovalQuantity(&six)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestInventoryRequest_InterCompanyLifecycle(t *testing.T) {
	r := newTestRequest(t, Location{})
	source := Location{ID: "co-1", Type: LocationWarehouse, CompanyID: "co-1"}

	require.NoError(t, r.Approve("u-boss", 5, "ok", source, testNow))
	assert.Equal(t, StatusApproved, r.Status)
	assert.True(t, r.IsInterCompany())
	assert.Equal(t, "co-1", r.SourceCompanyID)

	require.NoError(t, r.DeliverFromWarehouse("u-wh1", testNow))
	assert.Equal(t, StatusInTransit, r.Status)

	require.NoError(t, r.ReceiveAtDestination("u-wh2", testNow))
	assert.Equal(t, StatusReadyForPickup, r.Status)

	require.NoError(t, r.ConfirmReceipt("u-tech", testNow))
	assert.Equal(t, StatusDelivered, r.Status)
	require.NotNil(t, r.QuantityDelivered)
	assert.Equal(t, int64(5), *r.QuantityDelivered)

	var statuses []RequestStatus
	for _, h := range r.StatusHistory {
		statuses = append(statuses, h.Status)
	}
	assert.Equal(t, []RequestStatus{
		StatusPending, StatusApproved, StatusInTransit,
		StatusReceivedAtDestination, StatusReadyForPickup, StatusDelivered,
	}, statuses)
	assert.Len(t, r.GetDomainEvents(), 5)
}

func TestInventoryRequest_IntraCompanySkipsTransit(t *testing.T) {
	r := newTestRequest(t, Location{})
	require.NoError(t, r.Approve("u-boss", 5, "", Location{ID: "co-2", Type: LocationWarehouse, CompanyID: "co-2"}, testNow))
	assert.False(t, r.IsInterCompany())

	require.NoError(t, r.DeliverFromWarehouse("u-wh", testNow))
	assert.Equal(t, StatusReadyForPickup, r.Status)
	assert.ErrorIs(t, r.ReceiveAtDestination("u-wh", testNow), ErrRequestNotEditable)
}

func TestInventoryRequest_TerminalStatesRejectTransitions(t *testing.T) {
	r := newTestRequest(t, Location{})
	require.NoError(t, r.Reject("u-boss", "no budget", testNow))
	assert.Equal(t, StatusRejected, r.Status)
	assert.True(t, r.Status.IsTerminal())

	assert.ErrorIs(t, r.Approve("u-boss", 5, "", NewLocation("co-1", LocationWarehouse), testNow), ErrRequestNotEditable)
	assert.ErrorIs(t, r.Cancel("u-tech", "", testNow), ErrRequestNotEditable)
	assert.ErrorIs(t, r.DeliverFromWarehouse("u-wh", testNow), ErrRequestNotEditable)
}

func TestRequestStatus_Transitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusApproved))
	assert.True(t, StatusApproved.CanTransitionTo(StatusInTransit))
	assert.False(t, StatusApproved.CanTransitionTo(StatusDelivered))
	assert.False(t, StatusDelivered.CanTransitionTo(StatusPending))
	assert.True(t, StatusDelivered.IsValid())
	assert.False(t, RequestStatus("LOST").IsValid())
}

func TestInventoryRequest_MarkApprovedFromMovement(t *testing.T) {
	r := newTestRequest(t, Location{})
	m := NewTransferMovement(TransferCommand{
		InventoryItemID: r.InventoryItemID,
		From:            Location{ID: "co-1", Type: LocationWarehouse, CompanyID: "co-1"},
		To:              r.Destination(),
		Quantity:        4,
		RequestID:       r.ID,
		ActorID:         "u-boss",
	}, "", "", testNow)

	require.NoError(t, r.MarkApprovedFromMovement(m, testNow))
	assert.Equal(t, StatusApproved, r.Status)
	assert.Equal(t, "u-boss", r.ReviewedBy)
	assert.Equal(t, int64(4), *r.QuantityApproved)
	assert.Equal(t, "co-1", r.SourceLocationID)

	other := newTestRequest(t, Location{})
	assert.ErrorIs(t, other.MarkApprovedFromMovement(m, testNow), ErrInvalidMovement)
}

func TestInventoryRequest_ApproveTakesOwnerFromSource(t *testing.T) {
	r := newTestRequest(t, Location{CompanyID: "co-9"})
	assert.Equal(t, "co-9", r.SourceCompanyID)

	require.NoError(t, r.Approve("u-boss", 5, "", Location{ID: "co-2", Type: LocationWarehouse, CompanyID: "co-2"}, testNow))
	assert.Equal(t, "co-2", r.SourceCompanyID)
	assert.Equal(t, "co-2", r.SourceOwner())
	assert.False(t, r.IsInterCompany())

	require.NoError(t, r.DeliverFromWarehouse("u-wh", testNow))
	assert.Equal(t, StatusReadyForPickup, r.Status)
}

func TestInventoryRequest_TransitionsOutsideTableFail(t *testing.T) {
	r := newTestRequest(t, Location{})
	r.Status = StatusApproved
	version := r.Version

	err := r.ConfirmReceipt("u-tech", testNow)
	require.ErrorIs(t, err, ErrRequestNotEditable)
	assert.Contains(t, err.Error(), "cannot move from APPROVED to DELIVERED")
	assert.Nil(t, r.QuantityDelivered)
	assert.Empty(t, r.ReceivedBy)

	r.Status = StatusInTransit
	assert.ErrorIs(t, r.Cancel("u-tech", "", testNow), ErrRequestNotEditable)
	assert.ErrorIs(t, r.Reject("u-boss", "", testNow), ErrRequestNotEditable)
	assert.Empty(t, r.ReviewedBy)

	assert.Equal(t, version, r.Version)
	assert.Len(t, r.StatusHistory, 1)
	assert.Len(t, r.GetDomainEvents(), 1)
}

func TestInventoryRequest_MarkApprovedFromMovementKeepsRecordedQuantity(t *testing.T) {
	r := newTestRequest(t, Location{})
	m := NewTransferMovement(TransferCommand{
		InventoryItemID: r.InventoryItemID,
		From:            Location{ID: "co-1", Type: LocationWarehouse, CompanyID: "co-1"},
		To:              r.Destination(),
		Quantity:        5,
		RequestID:       r.ID,
		ActorID:         "u-boss",
	}, "", "", testNow)
	r.QuantityRequested = 2

	require.NoError(t, r.MarkApprovedFromMovement(m, testNow))
	assert.Equal(t, StatusApproved, r.Status)
	require.NotNil(t, r.QuantityApproved)
	assert.Equal(t, int64(5), *r.QuantityApproved)
	assert.Equal(t, "co-1", r.SourceCompanyID)
	assert.True(t, r.IsInterCompany())

	assert.ErrorIs(t, r.MarkApprovedFromMovement(m, testNow), ErrRequestNotEditable)
}
