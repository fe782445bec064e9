package workflow

import (
	"testing"
	"time"

	"shopcrm/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTransitions(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{model.EstimateStatusDraft, model.EstimateStatusSent, true},
		{model.EstimateStatusSent, model.EstimateStatusApproved, true},
		{model.EstimateStatusSent, model.EstimateStatusDeclined, true},
		{model.EstimateStatusSent, model.EstimateStatusExpired, true},
		{model.EstimateStatusDraft, model.EstimateStatusApproved, false},
		{model.EstimateStatusApproved, model.EstimateStatusSent, false}, // no path back
		{model.EstimateStatusDeclined, model.EstimateStatusSent, false},
		{model.EstimateStatusExpired, model.EstimateStatusDraft, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(KindEstimate, tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestWorkOrderTransitions(t *testing.T) {
	order := []string{
		model.WorkOrderStatusPending,
		model.WorkOrderStatusInProgress,
		model.WorkOrderStatusQualityCheck,
		model.WorkOrderStatusCompleted,
		model.WorkOrderStatusPickedUp,
	}

	for i, from := range order {
		for j, to := range order {
			want := j == i+1
			assert.Equal(t, want, CanTransition(KindWorkOrder, from, to),
				"%s -> %s", from, to)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, IsTerminal(KindEstimate, model.EstimateStatusDeclined))
	assert.True(t, IsTerminal(KindEstimate, model.EstimateStatusExpired))
	assert.True(t, IsTerminal(KindWorkOrder, model.WorkOrderStatusPickedUp))
	assert.False(t, IsTerminal(KindWorkOrder, model.WorkOrderStatusCompleted))
	assert.False(t, IsTerminal(KindEstimate, model.EstimateStatusDraft))
	// unknown states are not terminal, they are invalid
	assert.False(t, IsTerminal(KindEstimate, "nonsense"))
}

func TestEstimateActions(t *testing.T) {
	assert.ElementsMatch(t, []string{ActionSend, ActionDelete},
		EstimateActions(model.EstimateStatusDraft, false))
	assert.ElementsMatch(t, []string{ActionApprove, ActionDecline, ActionExpire, ActionDelete},
		EstimateActions(model.EstimateStatusSent, false))
	assert.ElementsMatch(t, []string{ActionConvert, ActionDelete},
		EstimateActions(model.EstimateStatusApproved, false))
	// converted estimates lose both convert and delete
	assert.Empty(t, EstimateActions(model.EstimateStatusApproved, true))
	assert.ElementsMatch(t, []string{ActionDelete},
		EstimateActions(model.EstimateStatusDeclined, false))
}

func TestCanDeleteEstimate(t *testing.T) {
	woID := uint(7)
	assert.True(t, CanDeleteEstimate(&model.Estimate{Status: model.EstimateStatusSent}))
	assert.True(t, CanDeleteEstimate(&model.Estimate{Status: model.EstimateStatusApproved}))
	assert.False(t, CanDeleteEstimate(&model.Estimate{
		Status:               model.EstimateStatusApproved,
		ConvertedWorkOrderID: &woID,
	}))
}

func TestCanConvertEstimate(t *testing.T) {
	woID := uint(7)
	assert.True(t, CanConvertEstimate(&model.Estimate{Status: model.EstimateStatusApproved}))
	assert.False(t, CanConvertEstimate(&model.Estimate{Status: model.EstimateStatusSent}))
	assert.False(t, CanConvertEstimate(&model.Estimate{
		Status:               model.EstimateStatusApproved,
		ConvertedWorkOrderID: &woID,
	}))
}

func TestBuildWorkOrderCopiesByValue(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	est := &model.Estimate{
		ID:          42,
		TenantID:    3,
		CustomerID:  10,
		VehicleID:   20,
		Status:      model.EstimateStatusApproved,
		ServiceType: "brakes",
		Description: "front pads and rotors",
		Priority:    "high",
		Total:       489.99,
	}

	wo := BuildWorkOrder(est, now)

	assert.Equal(t, model.WorkOrderStatusPending, wo.Status)
	assert.Equal(t, est.TenantID, wo.TenantID)
	assert.Equal(t, est.CustomerID, wo.CustomerID)
	assert.Equal(t, est.VehicleID, wo.VehicleID)
	assert.Equal(t, est.Total, wo.Total)
	assert.Equal(t, est.ServiceType, wo.ServiceType)
	assert.Equal(t, est.Priority, wo.Priority)
	assert.Equal(t, est.ID, *wo.EstimateID)

	// the copy never mutates the estimate
	assert.Equal(t, uint(42), est.ID)
	assert.Equal(t, model.EstimateStatusApproved, est.Status)
	assert.Nil(t, est.ConvertedWorkOrderID)
}

func TestCloneLineItems(t *testing.T) {
	partID := uint(5)
	items := []model.LineItem{
		{ID: 1, TenantID: 3, ParentType: model.LineItemParentEstimate, ParentID: 42,
			Description: "labor", Quantity: 2, UnitPrice: 120, ItemType: model.LineItemTypeLabor},
		{ID: 2, TenantID: 3, ParentType: model.LineItemParentEstimate, ParentID: 42,
			Description: "brake pads", Quantity: 1, UnitPrice: 249.99, ItemType: model.LineItemTypePart, PartID: &partID},
	}

	clones := CloneLineItems(items, 99)

	assert.Len(t, clones, len(items))
	for i, clone := range clones {
		assert.Zero(t, clone.ID, "clone must get a fresh id on insert")
		assert.Equal(t, model.LineItemParentWorkOrder, clone.ParentType)
		assert.Equal(t, uint(99), clone.ParentID)
		assert.Equal(t, items[i].Description, clone.Description)
		assert.Equal(t, items[i].Quantity, clone.Quantity)
		assert.Equal(t, items[i].UnitPrice, clone.UnitPrice)
		assert.Equal(t, items[i].ItemType, clone.ItemType)
		assert.Equal(t, items[i].PartID, clone.PartID)
	}

	// originals keep their parent
	assert.Equal(t, model.LineItemParentEstimate, items[0].ParentType)
	assert.Equal(t, uint(42), items[0].ParentID)
}
