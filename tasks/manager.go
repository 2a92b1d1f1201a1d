package tasks

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"partsdesk/faults"
	"partsdesk/parts"
	"partsdesk/routing"
	"partsdesk/store"

	"github.com/google/uuid"
)

// Manager owns fulfillment tasks: creation through routing, the party-facing
// status updates, and the best-effort mirror into the order record.
type Manager struct {
	db      *store.DB
	orders  *parts.Manager
	router  *routing.Engine
	emitter EventEmitter
}

// NewManager creates a task manager. The order manager is injected so the
// mirror path goes through the one central transition check.
func NewManager(db *store.DB, orders *parts.Manager, router *routing.Engine, emitter EventEmitter) *Manager {
	return &Manager{
		db:      db,
		orders:  orders,
		router:  router,
		emitter: emitter,
	}
}

// AssignResult is the outcome of routing an order to a fulfillment party.
type AssignResult struct {
	Order *store.PartOrder `json:"order"`
	Task  *store.Task      `json:"task,omitempty"`
	// Resolved is false when no routing rule matched. The order stays
	// unassigned; manual assignment remains possible.
	Resolved bool   `json:"resolved"`
	Rule     string `json:"rule,omitempty"`
}

// Assign routes an order to a fulfillment party by brand and creates its
// task. partyKind restricts the registry to suppliers or partners; empty
// means both. Valid only from the pending or admin_ordered states, and only
// once: the assignment reference is mutually exclusive.
func (m *Manager) Assign(orderID int64, brand, partyKind, actor string) (*AssignResult, error) {
	if partyKind != "" && partyKind != store.PartySupplier && partyKind != store.PartyPartner {
		return nil, faults.New(faults.Validation, "unknown party kind %q", partyKind)
	}

	order, err := m.orders.Get(orderID)
	if err != nil {
		return nil, err
	}
	if order.SupplierPartyID != nil || order.PartnerPartyID != nil {
		return nil, faults.New(faults.Conflict, "order %d is already assigned to %s", orderID, order.AssignedPartyName)
	}
	from := parts.Status(order.Status)
	if from != parts.StatusPending && from != parts.StatusAdminOrdered {
		return nil, faults.New(faults.Conflict, "cannot assign order %d in status %s", orderID, from)
	}

	registry, err := m.db.ListActiveParties(partyKind)
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}

	res, err := m.router.Resolve(registry, brand)
	if err != nil {
		return nil, err
	}
	if res == nil {
		log.Printf("routing unresolved for order %d brand %q, awaiting manual assignment", orderID, brand)
		return &AssignResult{Order: order, Resolved: false}, nil
	}

	task, err := m.assignParty(order, res.Party, actor, fmt.Sprintf("routed by %s rule for brand %q", res.Rule, brand))
	if err != nil {
		return nil, err
	}

	updated, err := m.db.GetOrder(orderID)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}
	return &AssignResult{Order: updated, Task: task, Resolved: true, Rule: res.Rule}, nil
}

// AssignManual assigns an order to an explicitly chosen party, bypassing the
// routing engine. Same state rules as Assign.
func (m *Manager) AssignManual(orderID, partyID int64, actor string) (*AssignResult, error) {
	order, err := m.orders.Get(orderID)
	if err != nil {
		return nil, err
	}
	if order.SupplierPartyID != nil || order.PartnerPartyID != nil {
		return nil, faults.New(faults.Conflict, "order %d is already assigned to %s", orderID, order.AssignedPartyName)
	}
	from := parts.Status(order.Status)
	if from != parts.StatusPending && from != parts.StatusAdminOrdered {
		return nil, faults.New(faults.Conflict, "cannot assign order %d in status %s", orderID, from)
	}

	party, err := m.db.GetParty(partyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, faults.New(faults.NotFound, "party %d not found", partyID)
	}
	if err != nil {
		return nil, fmt.Errorf("get party: %w", err)
	}

	task, err := m.assignParty(order, party, actor, "assigned manually")
	if err != nil {
		return nil, err
	}

	updated, err := m.db.GetOrder(orderID)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}
	return &AssignResult{Order: updated, Task: task, Resolved: true}, nil
}

func (m *Manager) assignParty(order *store.PartOrder, party *store.Party, actor, detail string) (*store.Task, error) {
	partner := party.Kind == store.PartyPartner
	newStatus := mirrorStatus(StatusPending, party.Kind)

	if err := m.db.AssignOrderParty(order.ID, party.ID, partner, string(newStatus)); err != nil {
		return nil, fmt.Errorf("assign order party: %w", err)
	}

	taskID, err := m.db.CreateTask(uuid.New().String(), order.ID, party.ID, string(StatusPending))
	if err != nil {
		// The partial unique index on active tasks rejects a second task
		// for the same order.
		return nil, faults.Wrap(faults.Conflict, err, "order %d already has an active task", order.ID)
	}

	if err := m.db.InsertOrderHistory(order.ID, order.Status, string(newStatus), actor, detail); err != nil {
		log.Printf("insert order history: %v", err)
	}

	m.emitter.EmitTaskCreated(taskID, order.ID, party.ID)
	order.AssignedPartyName = party.Name
	m.orders.Notify("order_assigned", order, actor)

	return m.db.GetTask(taskID)
}

// AdvanceResult carries the updated task plus a non-fatal synchronization
// warning. SyncWarning never aborts the task update that produced it.
type AdvanceResult struct {
	Task *store.Task `json:"task"`
	// SyncWarning is set when mirroring the status into the order record
	// failed. The stores reconcile on the next sweep or admin inspection.
	SyncWarning string `json:"sync_warning,omitempty"`
}

// Advance moves a task to a new status, then mirrors the change into the
// parent order. The mirror is best-effort: its failure is logged and
// surfaced as a warning, never rolled back into the task update.
func (m *Manager) Advance(taskID int64, to Status, actor string) (*AdvanceResult, error) {
	if !ValidStatus(to) {
		return nil, faults.New(faults.Validation, "unknown task status %q", to)
	}

	task, err := m.Get(taskID)
	if err != nil {
		return nil, err
	}

	from := Status(task.Status)
	if IsTerminal(from) {
		return nil, faults.New(faults.Conflict, "task %d is already in terminal state %s", taskID, from)
	}
	if !CanTransition(from, to) {
		return nil, faults.New(faults.Conflict, "invalid task transition from %s to %s", from, to)
	}

	ok, err := m.db.UpdateTaskStatusFrom(taskID, string(from), string(to))
	if err != nil {
		return nil, fmt.Errorf("update task status: %w", err)
	}
	if !ok {
		return nil, faults.New(faults.Conflict, "task %d changed status concurrently", taskID)
	}
	m.emitter.EmitTaskStatusChanged(taskID, task.OrderID, string(from), string(to))

	res := &AdvanceResult{}
	if warn := m.syncOrder(task, to, actor); warn != nil {
		log.Printf("sync order %d for task %d: %v", task.OrderID, taskID, warn)
		res.SyncWarning = warn.Error()
	}

	if order, err := m.orders.Get(task.OrderID); err == nil {
		m.orders.Notify("task_"+string(to), order, actor)
	}

	res.Task, err = m.db.GetTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("reload task: %w", err)
	}
	return res, nil
}

// UpdateTracking sets the tracking number and party notes on a task.
func (m *Manager) UpdateTracking(taskID int64, trackingNumber, notes string) (*store.Task, error) {
	if _, err := m.Get(taskID); err != nil {
		return nil, err
	}
	if err := m.db.UpdateTaskTracking(taskID, trackingNumber, notes); err != nil {
		return nil, fmt.Errorf("update task tracking: %w", err)
	}
	return m.db.GetTask(taskID)
}

// Get loads a task, translating a missing row to a not-found fault.
func (m *Manager) Get(taskID int64) (*store.Task, error) {
	task, err := m.db.GetTask(taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, faults.New(faults.NotFound, "task %d not found", taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// ListForParty returns a fulfillment party's work queue.
func (m *Manager) ListForParty(partyID int64) ([]store.Task, error) {
	return m.db.ListTasksForParty(partyID)
}

// syncOrder mirrors a task status into the parent order. Returns the
// non-fatal warning when the mirror could not be applied.
func (m *Manager) syncOrder(task *store.Task, to Status, actor string) error {
	target := mirrorStatus(to, task.PartyKind)
	if target == "" {
		return nil
	}

	order, err := m.orders.Get(task.OrderID)
	if err != nil {
		return err
	}
	if parts.Status(order.Status) == target {
		return nil
	}

	_, err = m.orders.Transition(task.OrderID, target, actor,
		fmt.Sprintf("mirrored from task %s status %s", task.UUID, to))
	return err
}
