package parts

// Status is an order lifecycle state. Transition validity is checked in one
// place (CanTransition); nothing else compares raw status strings.
type Status string

const (
	// Entry states: a technician request or an admin-originated order.
	StatusRequested Status = "requested"
	StatusPending   Status = "pending"

	// Admin confirmed intent to procure.
	StatusAdminOrdered Status = "admin_ordered"

	// Routed to a fulfillment party.
	StatusAssignedToPartner  Status = "assigned_to_partner"
	StatusPartnerProcessing  Status = "partner_processing"
	StatusAssignedToSupplier Status = "assigned_to_supplier"
	StatusSupplierProcessing Status = "supplier_processing"

	// Procurement confirmed, awaiting physical receipt.
	StatusWaitingDelivery Status = "waiting_delivery"

	// Received into warehouse / allocated and used.
	StatusAvailable Status = "available"
	StatusConsumed  Status = "consumed"

	// Terminal states.
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
	StatusRemoved   Status = "removed_from_ordering"
)

// Urgency tiers
const (
	UrgencyNormal = "normal"
	UrgencyHigh   = "high"
	UrgencyUrgent = "urgent"
)

// Warranty classification
const (
	InWarranty    = "in_warranty"
	OutOfWarranty = "out_of_warranty"
)

// validTransitions defines which status transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusRequested: {StatusAdminOrdered, StatusCancelled, StatusRemoved},
	StatusPending: {StatusAdminOrdered, StatusAssignedToPartner, StatusAssignedToSupplier,
		StatusCancelled, StatusRemoved},
	StatusAdminOrdered: {StatusAssignedToPartner, StatusAssignedToSupplier,
		StatusWaitingDelivery, StatusAvailable, StatusCancelled, StatusRemoved},
	StatusAssignedToPartner:  {StatusPartnerProcessing, StatusWaitingDelivery, StatusCancelled},
	StatusPartnerProcessing:  {StatusWaitingDelivery, StatusCancelled},
	StatusAssignedToSupplier: {StatusSupplierProcessing, StatusWaitingDelivery, StatusCancelled},
	StatusSupplierProcessing: {StatusWaitingDelivery, StatusCancelled},
	StatusWaitingDelivery:    {StatusAvailable, StatusCancelled},
	StatusAvailable:          {StatusConsumed, StatusDelivered},
}

// CanTransition checks if a status transition is allowed.
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
	return s == StatusConsumed || s == StatusDelivered || s == StatusCancelled || s == StatusRemoved
}

// IsEntry returns true for the two equivalent entry states.
func IsEntry(s Status) bool {
	return s == StatusRequested || s == StatusPending
}

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s Status) bool {
	if _, ok := validTransitions[s]; ok {
		return true
	}
	return IsTerminal(s)
}

// ValidUrgency reports whether u is a known urgency tier.
func ValidUrgency(u string) bool {
	return u == UrgencyNormal || u == UrgencyHigh || u == UrgencyUrgent
}

// ValidWarranty reports whether w is a known warranty classification.
func ValidWarranty(w string) bool {
	return w == InWarranty || w == OutOfWarranty
}
