package tasks

import (
	"partsdesk/parts"
	"partsdesk/store"
)

// Status is a fulfillment task state, tracked by the assigned party
// independently of the order it belongs to.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSeparated Status = "separated"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// validTransitions defines which task transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusSeparated, StatusSent, StatusCancelled},
	StatusSeparated: {StatusSent, StatusCancelled},
	StatusSent:      {StatusDelivered, StatusCancelled},
}

// CanTransition checks if a task status transition is allowed.
func CanTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the status is a terminal state.
func IsTerminal(s Status) bool {
	return s == StatusDelivered || s == StatusCancelled
}

// ValidStatus reports whether s is a known task state.
func ValidStatus(s Status) bool {
	if _, ok := validTransitions[s]; ok {
		return true
	}
	return IsTerminal(s)
}

// mirrorStatus maps a task status to the order status it should be mirrored
// as, given the kind of party handling the task. The synchronizer and the
// reconciler both read this one table. The delivered mapping stays at
// waiting_delivery on purpose: only an explicit admin receipt moves an order
// to available and creates warehouse stock.
func mirrorStatus(taskStatus Status, partyKind string) parts.Status {
	switch taskStatus {
	case StatusPending:
		if partyKind == store.PartyPartner {
			return parts.StatusAssignedToPartner
		}
		return parts.StatusAssignedToSupplier
	case StatusSeparated:
		if partyKind == store.PartyPartner {
			return parts.StatusPartnerProcessing
		}
		return parts.StatusSupplierProcessing
	case StatusSent, StatusDelivered:
		return parts.StatusWaitingDelivery
	case StatusCancelled:
		return parts.StatusCancelled
	}
	return ""
}
