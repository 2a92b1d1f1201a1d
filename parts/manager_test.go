package parts

import (
	"path/filepath"
	"testing"

	"partsdesk/faults"
	"partsdesk/store"
)

type nopEmitter struct{}

func (nopEmitter) EmitOrderCreated(int64, string, string)               {}
func (nopEmitter) EmitOrderStatusChanged(int64, string, string, string) {}
func (nopEmitter) EmitOrderReceived(int64, int64, int64)                {}

func testManager(t *testing.T) (*Manager, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewManager(db, nopEmitter{}, "test/notifications"), db
}

func TestRequestPartValidation(t *testing.T) {
	m, _ := testManager(t)

	cases := []struct {
		name string
		in   RequestInput
	}{
		{"short name", RequestInput{PartName: "X", Quantity: 1}},
		{"zero quantity", RequestInput{PartName: "Door Gasket", Quantity: 0}},
		{"negative quantity", RequestInput{PartName: "Door Gasket", Quantity: -3}},
		{"bad urgency", RequestInput{PartName: "Door Gasket", Quantity: 1, Urgency: "yesterday"}},
		{"bad cost", RequestInput{PartName: "Door Gasket", Quantity: 1, EstimatedCost: "cheap"}},
	}
	for _, c := range cases {
		if _, err := m.RequestPart(c.in); !faults.Is(err, faults.Validation) {
			t.Errorf("%s: expected validation fault, got %v", c.name, err)
		}
	}
}

func TestRequestPartDefaults(t *testing.T) {
	m, _ := testManager(t)

	order, err := m.RequestPart(RequestInput{PartName: "Drain Pump", Quantity: 1})
	if err != nil {
		t.Fatalf("request part: %v", err)
	}
	if order.Status != string(StatusRequested) {
		t.Errorf("expected status requested, got %s", order.Status)
	}
	if order.Urgency != UrgencyNormal {
		t.Errorf("expected default urgency normal, got %s", order.Urgency)
	}
	if order.Warranty != OutOfWarranty {
		t.Errorf("expected default warranty out_of_warranty, got %s", order.Warranty)
	}
	if order.UUID == "" {
		t.Error("expected a UUID")
	}
}

func TestApprove(t *testing.T) {
	m, db := testManager(t)

	order, err := m.RequestPart(RequestInput{PartName: "Drain Pump", Quantity: 1})
	if err != nil {
		t.Fatalf("request part: %v", err)
	}

	approved, err := m.Approve(order.ID, "admin")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != string(StatusAdminOrdered) {
		t.Errorf("expected admin_ordered, got %s", approved.Status)
	}

	// Approving again is a conflict, never a silent success.
	if _, err := m.Approve(order.ID, "admin"); !faults.Is(err, faults.Conflict) {
		t.Errorf("expected conflict on double approve, got %v", err)
	}

	history, err := db.ListOrderHistory(order.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
	if history[0].OldStatus != string(StatusRequested) || history[0].NewStatus != string(StatusAdminOrdered) {
		t.Errorf("unexpected history entry: %+v", history[0])
	}
}

func TestTransitionRules(t *testing.T) {
	m, _ := testManager(t)

	order, _ := m.CreateDirectOrder(RequestInput{PartName: "Heating Element", Quantity: 2})

	// pending -> waiting_delivery skips procurement, rejected.
	if _, err := m.Transition(order.ID, StatusWaitingDelivery, "admin", ""); !faults.Is(err, faults.Conflict) {
		t.Errorf("expected conflict for invalid transition, got %v", err)
	}

	// Same-status transition is a conflict.
	if _, err := m.Transition(order.ID, StatusPending, "admin", ""); !faults.Is(err, faults.Conflict) {
		t.Errorf("expected conflict for same-status transition, got %v", err)
	}

	cancelled, err := m.Transition(order.ID, StatusCancelled, "admin", "customer withdrew")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != string(StatusCancelled) {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}

	// Terminal orders never move again.
	if _, err := m.Transition(order.ID, StatusPending, "admin", ""); !faults.Is(err, faults.Conflict) {
		t.Errorf("expected conflict on terminal order, got %v", err)
	}
}

func TestTransitionNotFound(t *testing.T) {
	m, _ := testManager(t)
	if _, err := m.Transition(9999, StatusCancelled, "admin", ""); !faults.Is(err, faults.NotFound) {
		t.Errorf("expected not-found fault, got %v", err)
	}
}

func TestReceiveCreatesStock(t *testing.T) {
	m, db := testManager(t)

	order, _ := m.CreateDirectOrder(RequestInput{
		PartName: "Compressor Relay", PartNumber: "CR-291", Quantity: 2,
		EstimatedCost: "14.50",
	})
	if _, err := m.Approve(order.ID, "admin"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := m.Transition(order.ID, StatusWaitingDelivery, "admin", "ordered from supplier"); err != nil {
		t.Fatalf("to waiting_delivery: %v", err)
	}

	updated, stock, err := m.Receive(order.ID, "13.90", "shelf B3", "", "admin")
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if updated.Status != string(StatusAvailable) {
		t.Errorf("expected available, got %s", updated.Status)
	}
	if stock.Quantity != 2 {
		t.Errorf("expected stock quantity 2, got %d", stock.Quantity)
	}
	if stock.UnitCost == nil || *stock.UnitCost != "13.90" {
		t.Errorf("expected actual cost on stock, got %v", stock.UnitCost)
	}
	if stock.OrderID == nil || *stock.OrderID != order.ID {
		t.Errorf("expected stock to reference order %d, got %v", order.ID, stock.OrderID)
	}

	activity, err := db.ListActivity(stock.ID)
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(activity) != 1 || activity[0].Action != "received" {
		t.Fatalf("expected a single received activity entry, got %+v", activity)
	}
	if activity[0].PrevQuantity != 0 || activity[0].NewQuantity != 2 {
		t.Errorf("expected quantity 0 -> 2, got %d -> %d", activity[0].PrevQuantity, activity[0].NewQuantity)
	}
}

func TestReceiveFallsBackToEstimatedCost(t *testing.T) {
	m, _ := testManager(t)

	order, _ := m.CreateDirectOrder(RequestInput{
		PartName: "Thermostat", Quantity: 1, EstimatedCost: "22.00",
	})
	m.Approve(order.ID, "admin")

	// admin_ordered receives directly, no waiting_delivery stop.
	_, stock, err := m.Receive(order.ID, "", "", "", "admin")
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if stock.UnitCost == nil || *stock.UnitCost != "22.00" {
		t.Errorf("expected estimated cost fallback, got %v", stock.UnitCost)
	}
}

func TestReceiveWrongState(t *testing.T) {
	m, _ := testManager(t)

	order, _ := m.RequestPart(RequestInput{PartName: "Fan Motor", Quantity: 1})
	if _, _, err := m.Receive(order.ID, "", "", "", "admin"); !faults.Is(err, faults.Conflict) {
		t.Errorf("expected conflict receiving a requested order, got %v", err)
	}
}

func TestReceiveFailureLeavesOrderUnclaimed(t *testing.T) {
	m, db := testManager(t)

	order, _ := m.CreateDirectOrder(RequestInput{PartName: "Pressure Switch", Quantity: 1})
	if _, err := m.Approve(order.ID, "admin"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// A stock item already referencing the order makes the warehouse insert
	// fail; the receive must then put the order back where it was.
	if _, err := db.CreateStockItem(&store.StockItem{
		PartName: "Pressure Switch", Quantity: 1, OrderID: &order.ID,
	}); err != nil {
		t.Fatalf("pre-create stock: %v", err)
	}

	if _, _, err := m.Receive(order.ID, "", "", "", "admin"); !faults.Is(err, faults.Conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	reloaded, err := m.Get(order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Status != string(StatusAdminOrdered) {
		t.Errorf("expected order back in admin_ordered, got %s", reloaded.Status)
	}

	items, err := db.ListStockItems()
	if err != nil {
		t.Fatalf("list stock: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected only the pre-existing stock item, got %d", len(items))
	}
	activity, err := db.ListActivity(items[0].ID)
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(activity) != 0 {
		t.Errorf("expected no activity from the failed receive, got %+v", activity)
	}
}

func TestDeleteRefusedWithAllocations(t *testing.T) {
	m, db := testManager(t)

	order, _ := m.CreateDirectOrder(RequestInput{PartName: "Door Hinge", Quantity: 1})
	m.Approve(order.ID, "admin")
	_, stock, err := m.Receive(order.ID, "", "", "", "admin")
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if _, err := db.CreateAllocation(&store.Allocation{
		StockItemID: stock.ID, ServiceID: 1, TechnicianID: 1, Quantity: 1,
		AllocatedBy: "admin", Status: "allocated",
	}); err != nil {
		t.Fatalf("create allocation: %v", err)
	}

	if err := m.Delete(order.ID); !faults.Is(err, faults.Conflict) {
		t.Errorf("expected conflict deleting order with allocations, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	m, _ := testManager(t)

	order, _ := m.CreateDirectOrder(RequestInput{PartName: "Water Valve", Quantity: 1})
	if err := m.Delete(order.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(order.ID); !faults.Is(err, faults.NotFound) {
		t.Errorf("expected not-found after delete, got %v", err)
	}
}
