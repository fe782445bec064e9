// Package workflow holds the single authoritative transition table for
// estimates and work orders. Every handler consults this table instead of
// keeping its own per-screen conditionals.
package workflow

import (
	"time"

	"shopcrm/internal/model"
)

// Kind selects which state machine a record follows
type Kind string

const (
	KindEstimate  Kind = "estimate"
	KindWorkOrder Kind = "work_order"
)

// Action names used by AllowedActions
const (
	ActionSend    = "send"
	ActionApprove = "approve"
	ActionDecline = "decline"
	ActionExpire  = "expire"
	ActionConvert = "convert"
	ActionDelete  = "delete"
	ActionAdvance = "advance"
)

// transitions lists the legal happy-path moves. There is no path back, e.g.
// an approved estimate cannot return to sent.
var transitions = map[Kind]map[string][]string{
	KindEstimate: {
		model.EstimateStatusDraft:    {model.EstimateStatusSent},
		model.EstimateStatusSent:     {model.EstimateStatusApproved, model.EstimateStatusDeclined, model.EstimateStatusExpired},
		model.EstimateStatusApproved: {},
		model.EstimateStatusDeclined: {},
		model.EstimateStatusExpired:  {},
	},
	KindWorkOrder: {
		model.WorkOrderStatusPending:      {model.WorkOrderStatusInProgress},
		model.WorkOrderStatusInProgress:   {model.WorkOrderStatusQualityCheck},
		model.WorkOrderStatusQualityCheck: {model.WorkOrderStatusCompleted},
		model.WorkOrderStatusCompleted:    {model.WorkOrderStatusPickedUp},
		model.WorkOrderStatusPickedUp:     {},
	},
}

// CanTransition reports whether the move from -> to is in the table
func CanTransition(kind Kind, from, to string) bool {
	for _, next := range transitions[kind][from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStates returns the legal targets from a state
func NextStates(kind Kind, from string) []string {
	return transitions[kind][from]
}

// IsTerminal reports whether a state has no outgoing transitions
func IsTerminal(kind Kind, state string) bool {
	moves, known := transitions[kind][state]
	return known && len(moves) == 0
}

// EstimateActions returns the actions available on an estimate. Any estimate
// is deletable until it has been converted; conversion is only available
// from approved and only once.
func EstimateActions(status string, converted bool) []string {
	var actions []string
	for _, next := range transitions[KindEstimate][status] {
		switch next {
		case model.EstimateStatusSent:
			actions = append(actions, ActionSend)
		case model.EstimateStatusApproved:
			actions = append(actions, ActionApprove)
		case model.EstimateStatusDeclined:
			actions = append(actions, ActionDecline)
		case model.EstimateStatusExpired:
			actions = append(actions, ActionExpire)
		}
	}
	if status == model.EstimateStatusApproved && !converted {
		actions = append(actions, ActionConvert)
	}
	if !converted {
		actions = append(actions, ActionDelete)
	}
	return actions
}

// WorkOrderActions returns the actions available on a work order
func WorkOrderActions(status string) []string {
	if IsTerminal(KindWorkOrder, status) {
		return nil
	}
	return []string{ActionAdvance}
}

// CanDeleteEstimate returns the single source of truth for estimate deletion
func CanDeleteEstimate(e *model.Estimate) bool {
	return !e.Converted()
}

// CanConvertEstimate reports whether the estimate may become a work order
func CanConvertEstimate(e *model.Estimate) bool {
	return e.Status == model.EstimateStatusApproved && !e.Converted()
}

// BuildWorkOrder creates the pending work order an approved estimate converts
// into, copying service type, description, priority and total. Line items are
// cloned separately by CloneLineItems; the estimate itself is not touched.
func BuildWorkOrder(e *model.Estimate, now time.Time) model.WorkOrder {
	estimateID := e.ID
	return model.WorkOrder{
		TenantID:    e.TenantID,
		CustomerID:  e.CustomerID,
		VehicleID:   e.VehicleID,
		EstimateID:  &estimateID,
		Status:      model.WorkOrderStatusPending,
		ServiceType: e.ServiceType,
		Description: e.Description,
		Priority:    e.Priority,
		Total:       e.Total,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CloneLineItems copies estimate line items by value onto a work order.
// The clones get fresh IDs on insert; the originals keep their parent.
func CloneLineItems(items []model.LineItem, workOrderID uint) []model.LineItem {
	clones := make([]model.LineItem, 0, len(items))
	for _, item := range items {
		clones = append(clones, model.LineItem{
			TenantID:    item.TenantID,
			ParentType:  model.LineItemParentWorkOrder,
			ParentID:    workOrderID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			ItemType:    item.ItemType,
			PartID:      item.PartID,
		})
	}
	return clones
}
