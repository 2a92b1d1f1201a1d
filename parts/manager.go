package parts

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"partsdesk/faults"
	"partsdesk/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Manager handles the part-order lifecycle state machine.
type Manager struct {
	db      *store.DB
	emitter EventEmitter
	topic   string
}

// NewManager creates an order manager. topic is the notification topic for
// outbox messages.
func NewManager(db *store.DB, emitter EventEmitter, topic string) *Manager {
	return &Manager{
		db:      db,
		emitter: emitter,
		topic:   topic,
	}
}

// RequestInput describes a new part request.
type RequestInput struct {
	ServiceID     *int64
	TechnicianID  *int64
	PartName      string
	PartNumber    string
	Quantity      int64
	Urgency       string
	Warranty      string
	Description   string
	EstimatedCost string
	AdminNotes    string
}

func (in *RequestInput) validate() error {
	if len(in.PartName) < 2 {
		return faults.New(faults.Validation, "part name must have at least 2 characters")
	}
	if in.Quantity <= 0 {
		return faults.New(faults.Validation, "quantity must be positive, got %d", in.Quantity)
	}
	if in.Urgency == "" {
		in.Urgency = UrgencyNormal
	}
	if !ValidUrgency(in.Urgency) {
		return faults.New(faults.Validation, "unknown urgency %q", in.Urgency)
	}
	if in.Warranty == "" {
		in.Warranty = OutOfWarranty
	}
	if !ValidWarranty(in.Warranty) {
		return faults.New(faults.Validation, "unknown warranty status %q", in.Warranty)
	}
	if in.EstimatedCost != "" {
		if _, err := decimal.NewFromString(in.EstimatedCost); err != nil {
			return faults.New(faults.Validation, "estimated cost %q is not a number", in.EstimatedCost)
		}
	}
	return nil
}

// RequestPart creates a technician-originated order in the requested state.
func (m *Manager) RequestPart(in RequestInput) (*store.PartOrder, error) {
	return m.create(in, StatusRequested)
}

// CreateDirectOrder creates an admin-originated order in the pending state.
// Admin orders may have no originating service or technician.
func (m *Manager) CreateDirectOrder(in RequestInput) (*store.PartOrder, error) {
	return m.create(in, StatusPending)
}

func (m *Manager) create(in RequestInput, entry Status) (*store.PartOrder, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	o := &store.PartOrder{
		UUID:         uuid.New().String(),
		PartName:     in.PartName,
		PartNumber:   in.PartNumber,
		Quantity:     in.Quantity,
		Description:  in.Description,
		Urgency:      in.Urgency,
		Warranty:     in.Warranty,
		Status:       string(entry),
		ServiceID:    in.ServiceID,
		TechnicianID: in.TechnicianID,
		AdminNotes:   in.AdminNotes,
	}
	if in.EstimatedCost != "" {
		o.EstimatedCost = &in.EstimatedCost
	}

	orderID, err := m.db.CreateOrder(o)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	m.emitter.EmitOrderCreated(orderID, o.UUID, string(entry))
	return m.db.GetOrder(orderID)
}

// Get loads an order, translating a missing row to a not-found fault.
func (m *Manager) Get(orderID int64) (*store.PartOrder, error) {
	o, err := m.db.GetOrder(orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, faults.New(faults.NotFound, "order %d not found", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// Approve moves an entry-state order to admin_ordered. Only an admin actor
// calls this; approving an order in any other state is a conflict, never a
// silent success. The optimistic status check guards concurrent approvals.
func (m *Manager) Approve(orderID int64, actor string) (*store.PartOrder, error) {
	order, err := m.Get(orderID)
	if err != nil {
		return nil, err
	}

	from := Status(order.Status)
	if !IsEntry(from) {
		return nil, faults.New(faults.Conflict, "cannot approve order %d in status %s", orderID, from)
	}

	ok, err := m.db.UpdateOrderStatusFrom(orderID, string(from), string(StatusAdminOrdered))
	if err != nil {
		return nil, fmt.Errorf("approve order: %w", err)
	}
	if !ok {
		return nil, faults.New(faults.Conflict, "order %d changed status concurrently", orderID)
	}

	if err := m.db.InsertOrderHistory(orderID, string(from), string(StatusAdminOrdered), actor, "approved for procurement"); err != nil {
		log.Printf("insert order history: %v", err)
	}
	m.emitter.EmitOrderStatusChanged(orderID, order.UUID, string(from), string(StatusAdminOrdered))
	m.Notify("order_approved", order, actor)

	return m.db.GetOrder(orderID)
}

// Transition moves an order to a new status with validation. Used for all
// generic moves (cancel, remove, processing mirrors, consumed).
func (m *Manager) Transition(orderID int64, to Status, actor, detail string) (*store.PartOrder, error) {
	order, err := m.Get(orderID)
	if err != nil {
		return nil, err
	}

	from := Status(order.Status)
	if from == to {
		return nil, faults.New(faults.Conflict, "order %d is already %s", orderID, to)
	}
	if IsTerminal(from) {
		return nil, faults.New(faults.Conflict, "order %d is already in terminal state %s", orderID, from)
	}
	if !CanTransition(from, to) {
		return nil, faults.New(faults.Conflict, "invalid transition from %s to %s", from, to)
	}

	ok, err := m.db.UpdateOrderStatusFrom(orderID, string(from), string(to))
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if !ok {
		return nil, faults.New(faults.Conflict, "order %d changed status concurrently", orderID)
	}

	if err := m.db.InsertOrderHistory(orderID, string(from), string(to), actor, detail); err != nil {
		log.Printf("insert order history: %v", err)
	}
	m.emitter.EmitOrderStatusChanged(orderID, order.UUID, string(from), string(to))

	return m.db.GetOrder(orderID)
}

// Receive marks a part as physically received and creates the warehouse
// stock item. This is the unique point where stock is created; quantity and
// the supplier-quoted cost carry over, falling back to the estimated cost
// when no actual cost is known.
func (m *Manager) Receive(orderID int64, actualCost, location, notes, actor string) (*store.PartOrder, *store.StockItem, error) {
	order, err := m.Get(orderID)
	if err != nil {
		return nil, nil, err
	}

	from := Status(order.Status)
	if from != StatusWaitingDelivery && from != StatusAdminOrdered {
		return nil, nil, faults.New(faults.Conflict, "cannot receive order %d in status %s", orderID, from)
	}

	unitCost := order.EstimatedCost
	if actualCost != "" {
		if _, err := decimal.NewFromString(actualCost); err != nil {
			return nil, nil, faults.New(faults.Validation, "actual cost %q is not a number", actualCost)
		}
		unitCost = &actualCost
	} else if order.ActualCost != nil {
		unitCost = order.ActualCost
	}

	// Claim the order before touching the warehouse. Stock only ever exists
	// for an order that actually made it to available, so a lost race leaves
	// nothing behind and the winner's retry sees a clean state.
	ok, err := m.db.UpdateOrderStatusFrom(orderID, string(from), string(StatusAvailable))
	if err != nil {
		return nil, nil, fmt.Errorf("update order status: %w", err)
	}
	if !ok {
		return nil, nil, faults.New(faults.Conflict, "order %d changed status concurrently", orderID)
	}

	if actualCost != "" {
		if err := m.db.UpdateOrderActualCost(orderID, actualCost); err != nil {
			m.releaseReceipt(orderID, from)
			return nil, nil, fmt.Errorf("update actual cost: %w", err)
		}
	}

	item := &store.StockItem{
		PartName:   order.PartName,
		PartNumber: order.PartNumber,
		Quantity:   order.Quantity,
		UnitCost:   unitCost,
		Location:   location,
		Warranty:   order.Warranty,
		OrderID:    &order.ID,
		ServiceID:  order.ServiceID,
		Notes:      notes,
	}
	stockID, err := m.db.CreateStockItem(item)
	if err != nil {
		m.releaseReceipt(orderID, from)
		// The unique origin-order constraint is the only one on this insert.
		return nil, nil, faults.Wrap(faults.Conflict, err, "order %d already has a stock item", orderID)
	}

	if err := m.db.AppendActivity(&store.ActivityEntry{
		StockItemID:  stockID,
		Action:       "received",
		PrevQuantity: 0,
		NewQuantity:  order.Quantity,
		Actor:        actor,
		ServiceID:    order.ServiceID,
		Detail:       fmt.Sprintf("received from order %s", order.UUID),
	}); err != nil {
		log.Printf("append receive activity: %v", err)
	}

	if err := m.db.InsertOrderHistory(orderID, string(from), string(StatusAvailable), actor, "received into warehouse"); err != nil {
		log.Printf("insert order history: %v", err)
	}

	m.emitter.EmitOrderStatusChanged(orderID, order.UUID, string(from), string(StatusAvailable))
	m.emitter.EmitOrderReceived(orderID, stockID, order.Quantity)
	m.Notify("order_received", order, actor)

	updated, err := m.db.GetOrder(orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("reload order: %w", err)
	}
	stock, err := m.db.GetStockItem(stockID)
	if err != nil {
		return nil, nil, fmt.Errorf("reload stock item: %w", err)
	}
	return updated, stock, nil
}

// releaseReceipt puts a claimed order back into its pre-receipt status after
// a failed receive. Best-effort; the order stays claimed if this loses too.
func (m *Manager) releaseReceipt(orderID int64, from Status) {
	if _, err := m.db.UpdateOrderStatusFrom(orderID, string(StatusAvailable), string(from)); err != nil {
		log.Printf("release receipt of order %d: %v", orderID, err)
	}
}

// Delete removes an order record. Refused while an active task or any
// allocation references it; cancellation is the supported path for those.
func (m *Manager) Delete(orderID int64) error {
	if _, err := m.Get(orderID); err != nil {
		return err
	}

	activeTasks, err := m.db.CountTasksForOrder(orderID)
	if err != nil {
		return fmt.Errorf("count tasks: %w", err)
	}
	if activeTasks > 0 {
		return faults.New(faults.Conflict, "order %d has %d active tasks, cancel instead of deleting", orderID, activeTasks)
	}

	allocs, err := m.db.CountAllocationsForOrder(orderID)
	if err != nil {
		return fmt.Errorf("count allocations: %w", err)
	}
	if allocs > 0 {
		return faults.New(faults.Conflict, "order %d stock has %d allocations, it cannot be deleted", orderID, allocs)
	}

	if err := m.db.DeleteOrder(orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// ListByStatus returns orders in a given lifecycle state.
func (m *Manager) ListByStatus(status Status) ([]store.PartOrder, error) {
	if !ValidStatus(status) {
		return nil, faults.New(faults.Validation, "unknown status %q", status)
	}
	return m.db.ListOrdersByStatus(string(status))
}

// NotificationMessage is the outbound notification JSON. Content templating
// is the dispatcher's concern; this carries only the trigger facts.
type NotificationMessage struct {
	Event     string `json:"event"`
	OrderUUID string `json:"order_uuid"`
	PartName  string `json:"part_name"`
	Quantity  int64  `json:"quantity"`
	Status    string `json:"status"`
	Urgency   string `json:"urgency"`
	PartyName string `json:"party_name,omitempty"`
	Actor     string `json:"actor,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Notify enqueues a notification to the outbox. Fire-and-forget: an enqueue
// failure is logged and never blocks the transition that triggered it.
func (m *Manager) Notify(event string, order *store.PartOrder, actor string) {
	msg := NotificationMessage{
		Event:     event,
		OrderUUID: order.UUID,
		PartName:  order.PartName,
		Quantity:  order.Quantity,
		Status:    order.Status,
		Urgency:   order.Urgency,
		PartyName: order.AssignedPartyName,
		Actor:     actor,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	payload, _ := json.Marshal(msg)
	if _, err := m.db.EnqueueOutbox(m.topic, payload, event, &order.ID); err != nil {
		log.Printf("enqueue notification %s for order %s: %v", event, order.UUID, err)
	}
}
