// Package warehouse tracks received stock and its allocation to technicians.
// Every quantity change appends one immutable activity-log entry; the log is
// the audit trail and is never rewritten.
package warehouse

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"partsdesk/faults"
	"partsdesk/parts"
	"partsdesk/store"
)

// Allocation markers
const (
	AllocationAllocated = "allocated"
	AllocationConsumed  = "consumed"
	AllocationReturned  = "returned"
)

// EventEmitter is the interface the warehouse package uses to emit events.
type EventEmitter interface {
	EmitStockAllocated(stockItemID, allocationID, quantity int64)
	EmitStockReturned(stockItemID, allocationID, quantity int64)
}

// Manager handles stock allocation and returns.
type Manager struct {
	db      *store.DB
	orders  *parts.Manager
	emitter EventEmitter
}

// NewManager creates a warehouse manager. The order manager closes the loop:
// emptying stock that originated from an order consumes that order.
func NewManager(db *store.DB, orders *parts.Manager, emitter EventEmitter) *Manager {
	return &Manager{
		db:      db,
		orders:  orders,
		emitter: emitter,
	}
}

// AllocateInput describes a stock allocation request.
type AllocateInput struct {
	StockItemID  int64
	ServiceID    int64
	TechnicianID int64
	Quantity     int64
	Actor        string
	Notes        string
}

// Allocate binds a quantity of a stock item to a technician and service,
// decrementing on-hand quantity. Refused when the requested quantity exceeds
// what is on hand; a refused allocation changes nothing.
func (m *Manager) Allocate(in AllocateInput) (*store.Allocation, error) {
	if in.Quantity <= 0 {
		return nil, faults.New(faults.Validation, "allocation quantity must be positive, got %d", in.Quantity)
	}
	if in.ServiceID <= 0 || in.TechnicianID <= 0 {
		return nil, faults.New(faults.Validation, "allocation requires a service and a technician")
	}

	item, err := m.GetStockItem(in.StockItemID)
	if err != nil {
		return nil, err
	}

	// The conditional decrement is the no-negative-stock guard: it fails
	// atomically without a partial write when not enough is on hand.
	ok, err := m.db.TakeStockQuantity(item.ID, in.Quantity)
	if err != nil {
		return nil, fmt.Errorf("take stock quantity: %w", err)
	}
	if !ok {
		return nil, faults.New(faults.InsufficientStock,
			"stock item %d has %d on hand, cannot allocate %d", item.ID, item.Quantity, in.Quantity)
	}

	allocID, err := m.db.CreateAllocation(&store.Allocation{
		StockItemID:  item.ID,
		ServiceID:    in.ServiceID,
		TechnicianID: in.TechnicianID,
		Quantity:     in.Quantity,
		AllocatedBy:  in.Actor,
		Status:       AllocationAllocated,
		Notes:        in.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create allocation: %w", err)
	}

	// Log against the applied row, not the earlier read: another writer may
	// have moved the quantity between the read and the decrement.
	onHand := item.Quantity - in.Quantity
	if current, err := m.db.GetStockItem(item.ID); err == nil {
		onHand = current.Quantity
	}

	serviceID := in.ServiceID
	if err := m.db.AppendActivity(&store.ActivityEntry{
		StockItemID:  item.ID,
		Action:       "allocated",
		PrevQuantity: onHand + in.Quantity,
		NewQuantity:  onHand,
		Actor:        in.Actor,
		ServiceID:    &serviceID,
		Detail:       fmt.Sprintf("allocated to technician %d", in.TechnicianID),
	}); err != nil {
		log.Printf("append allocate activity: %v", err)
	}

	m.emitter.EmitStockAllocated(item.ID, allocID, in.Quantity)
	m.consumeOriginOrder(item, in.Actor)

	return m.db.GetAllocation(allocID)
}

// Return restores an allocation's quantity to stock and terminally marks the
// allocation returned.
func (m *Manager) Return(allocationID int64, actor, detail string) (*store.Allocation, error) {
	alloc, err := m.getAllocation(allocationID)
	if err != nil {
		return nil, err
	}
	if alloc.Status != AllocationAllocated {
		return nil, faults.New(faults.Conflict, "allocation %d is already %s", allocationID, alloc.Status)
	}

	item, err := m.GetStockItem(alloc.StockItemID)
	if err != nil {
		return nil, err
	}

	if err := m.db.AddStockQuantity(item.ID, alloc.Quantity); err != nil {
		return nil, fmt.Errorf("restore stock quantity: %w", err)
	}
	if err := m.db.MarkAllocation(allocationID, AllocationReturned); err != nil {
		return nil, fmt.Errorf("mark allocation returned: %w", err)
	}

	onHand := item.Quantity + alloc.Quantity
	if current, err := m.db.GetStockItem(item.ID); err == nil {
		onHand = current.Quantity
	}

	if err := m.db.AppendActivity(&store.ActivityEntry{
		StockItemID:  item.ID,
		Action:       "returned",
		PrevQuantity: onHand - alloc.Quantity,
		NewQuantity:  onHand,
		Actor:        actor,
		ServiceID:    &alloc.ServiceID,
		Detail:       detail,
	}); err != nil {
		log.Printf("append return activity: %v", err)
	}

	m.emitter.EmitStockReturned(item.ID, allocationID, alloc.Quantity)

	return m.db.GetAllocation(allocationID)
}

// MarkConsumed terminally marks an allocation as used on its service.
func (m *Manager) MarkConsumed(allocationID int64) (*store.Allocation, error) {
	alloc, err := m.getAllocation(allocationID)
	if err != nil {
		return nil, err
	}
	if alloc.Status != AllocationAllocated {
		return nil, faults.New(faults.Conflict, "allocation %d is already %s", allocationID, alloc.Status)
	}
	if err := m.db.MarkAllocation(allocationID, AllocationConsumed); err != nil {
		return nil, fmt.Errorf("mark allocation consumed: %w", err)
	}
	return m.db.GetAllocation(allocationID)
}

// GetStockItem loads a stock item, translating a missing row to not-found.
func (m *Manager) GetStockItem(id int64) (*store.StockItem, error) {
	item, err := m.db.GetStockItem(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, faults.New(faults.NotFound, "stock item %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get stock item: %w", err)
	}
	return item, nil
}

func (m *Manager) getAllocation(id int64) (*store.Allocation, error) {
	alloc, err := m.db.GetAllocation(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, faults.New(faults.NotFound, "allocation %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get allocation: %w", err)
	}
	return alloc, nil
}

// consumeOriginOrder advances the originating order to consumed when an
// allocation empties its stock. Best-effort relative to the allocation: a
// failed transition is logged, the allocation stands.
func (m *Manager) consumeOriginOrder(item *store.StockItem, actor string) {
	if item.OrderID == nil {
		return
	}
	current, err := m.db.GetStockItem(item.ID)
	if err != nil || current.Quantity > 0 {
		return
	}
	order, err := m.orders.Get(*item.OrderID)
	if err != nil {
		log.Printf("consume origin order %d: %v", *item.OrderID, err)
		return
	}
	if parts.Status(order.Status) != parts.StatusAvailable {
		return
	}
	if _, err := m.orders.Transition(order.ID, parts.StatusConsumed, actor, "stock fully allocated"); err != nil {
		log.Printf("consume origin order %d: %v", order.ID, err)
	}
}
