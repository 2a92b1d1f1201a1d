package warehouse

import (
	"path/filepath"
	"testing"

	"partsdesk/faults"
	"partsdesk/parts"
	"partsdesk/store"
)

type nopOrderEmitter struct{}

func (nopOrderEmitter) EmitOrderCreated(int64, string, string)               {}
func (nopOrderEmitter) EmitOrderStatusChanged(int64, string, string, string) {}
func (nopOrderEmitter) EmitOrderReceived(int64, int64, int64)                {}

type nopEmitter struct{}

func (nopEmitter) EmitStockAllocated(int64, int64, int64) {}
func (nopEmitter) EmitStockReturned(int64, int64, int64)  {}

func testManager(t *testing.T) (*Manager, *parts.Manager, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	orders := parts.NewManager(db, nopOrderEmitter{}, "test/notifications")
	return NewManager(db, orders, nopEmitter{}), orders, db
}

// receivedOrder runs an order through to available and returns it with its
// stock item.
func receivedOrder(t *testing.T, orders *parts.Manager, name string, qty int64) (*store.PartOrder, *store.StockItem) {
	t.Helper()
	order, err := orders.CreateDirectOrder(parts.RequestInput{PartName: name, Quantity: qty})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := orders.Approve(order.ID, "admin"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	order, stock, err := orders.Receive(order.ID, "", "shelf A1", "", "admin")
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	return order, stock
}

func TestAllocate(t *testing.T) {
	m, orders, db := testManager(t)
	_, stock := receivedOrder(t, orders, "Compressor Relay", 5)

	alloc, err := m.Allocate(AllocateInput{
		StockItemID: stock.ID, ServiceID: 10, TechnicianID: 3, Quantity: 2, Actor: "admin",
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if alloc.Status != AllocationAllocated || alloc.Quantity != 2 {
		t.Errorf("unexpected allocation: %+v", alloc)
	}

	item, _ := m.GetStockItem(stock.ID)
	if item.Quantity != 3 {
		t.Errorf("expected on-hand 3, got %d", item.Quantity)
	}

	activity, _ := db.ListActivity(stock.ID)
	// received + allocated
	if len(activity) != 2 {
		t.Fatalf("expected 2 activity entries, got %d", len(activity))
	}
	last := activity[len(activity)-1]
	if last.Action != "allocated" || last.PrevQuantity != 5 || last.NewQuantity != 3 {
		t.Errorf("unexpected allocation activity: %+v", last)
	}
}

func TestAllocateValidation(t *testing.T) {
	m, orders, _ := testManager(t)
	_, stock := receivedOrder(t, orders, "Thermostat", 1)

	cases := []AllocateInput{
		{StockItemID: stock.ID, ServiceID: 10, TechnicianID: 3, Quantity: 0},
		{StockItemID: stock.ID, ServiceID: 10, TechnicianID: 3, Quantity: -1},
		{StockItemID: stock.ID, ServiceID: 0, TechnicianID: 3, Quantity: 1},
		{StockItemID: stock.ID, ServiceID: 10, TechnicianID: 0, Quantity: 1},
	}
	for i, in := range cases {
		in.Actor = "admin"
		if _, err := m.Allocate(in); !faults.Is(err, faults.Validation) {
			t.Errorf("case %d: expected validation fault, got %v", i, err)
		}
	}
}

func TestAllocateInsufficientStock(t *testing.T) {
	m, orders, db := testManager(t)
	_, stock := receivedOrder(t, orders, "Door Gasket", 2)

	_, err := m.Allocate(AllocateInput{
		StockItemID: stock.ID, ServiceID: 10, TechnicianID: 3, Quantity: 3, Actor: "admin",
	})
	if !faults.Is(err, faults.InsufficientStock) {
		t.Fatalf("expected insufficient-stock fault, got %v", err)
	}

	// A refused allocation changes nothing.
	item, _ := m.GetStockItem(stock.ID)
	if item.Quantity != 2 {
		t.Errorf("quantity must be untouched, got %d", item.Quantity)
	}
	allocs, _ := db.ListAllocationsForStockItem(stock.ID)
	if len(allocs) != 0 {
		t.Errorf("expected no allocation rows, got %d", len(allocs))
	}
	activity, _ := db.ListActivity(stock.ID)
	if len(activity) != 1 {
		t.Errorf("expected only the received entry, got %d", len(activity))
	}
}

func TestAllocateMissingStockItem(t *testing.T) {
	m, _, _ := testManager(t)
	_, err := m.Allocate(AllocateInput{StockItemID: 999, ServiceID: 1, TechnicianID: 1, Quantity: 1, Actor: "admin"})
	if !faults.Is(err, faults.NotFound) {
		t.Errorf("expected not-found fault, got %v", err)
	}
}

func TestReturnRestoresQuantity(t *testing.T) {
	m, orders, db := testManager(t)
	_, stock := receivedOrder(t, orders, "Water Pump", 4)

	alloc, err := m.Allocate(AllocateInput{
		StockItemID: stock.ID, ServiceID: 10, TechnicianID: 3, Quantity: 3, Actor: "admin",
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	returned, err := m.Return(alloc.ID, "admin", "wrong part for the model")
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.Status != AllocationReturned {
		t.Errorf("expected returned, got %s", returned.Status)
	}

	item, _ := m.GetStockItem(stock.ID)
	if item.Quantity != 4 {
		t.Errorf("expected quantity restored to 4, got %d", item.Quantity)
	}

	// Returned is terminal for the allocation.
	if _, err := m.Return(alloc.ID, "admin", ""); !faults.Is(err, faults.Conflict) {
		t.Errorf("expected conflict on double return, got %v", err)
	}

	activity, _ := db.ListActivity(stock.ID)
	last := activity[len(activity)-1]
	if last.Action != "returned" || last.PrevQuantity != 1 || last.NewQuantity != 4 {
		t.Errorf("unexpected return activity: %+v", last)
	}
}

func TestActivityLogStaysContiguous(t *testing.T) {
	m, orders, db := testManager(t)
	_, stock := receivedOrder(t, orders, "Drain Pump", 5)

	first, err := m.Allocate(AllocateInput{
		StockItemID: stock.ID, ServiceID: 10, TechnicianID: 3, Quantity: 2, Actor: "admin",
	})
	if err != nil {
		t.Fatalf("first allocate: %v", err)
	}
	if _, err := m.Allocate(AllocateInput{
		StockItemID: stock.ID, ServiceID: 11, TechnicianID: 4, Quantity: 1, Actor: "admin",
	}); err != nil {
		t.Fatalf("second allocate: %v", err)
	}
	if _, err := m.Return(first.ID, "admin", "not needed"); err != nil {
		t.Fatalf("return: %v", err)
	}

	activity, err := db.ListActivity(stock.ID)
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(activity) != 4 {
		t.Fatalf("expected 4 activity entries, got %d", len(activity))
	}

	// Each entry's before quantity picks up exactly where the previous
	// entry left off; gaps would mean the log lied about a change.
	for i := 1; i < len(activity); i++ {
		if activity[i].PrevQuantity != activity[i-1].NewQuantity {
			t.Errorf("entry %d (%s) starts at %d, previous ended at %d",
				i, activity[i].Action, activity[i].PrevQuantity, activity[i-1].NewQuantity)
		}
	}
	last := activity[len(activity)-1]
	if last.Action != "returned" || last.NewQuantity != 4 {
		t.Errorf("unexpected final entry: %+v", last)
	}
}

func TestMarkConsumed(t *testing.T) {
	m, orders, _ := testManager(t)
	_, stock := receivedOrder(t, orders, "Heating Element", 2)

	alloc, _ := m.Allocate(AllocateInput{
		StockItemID: stock.ID, ServiceID: 10, TechnicianID: 3, Quantity: 1, Actor: "tech3",
	})

	consumed, err := m.MarkConsumed(alloc.ID)
	if err != nil {
		t.Fatalf("mark consumed: %v", err)
	}
	if consumed.Status != AllocationConsumed {
		t.Errorf("expected consumed, got %s", consumed.Status)
	}

	// Consumed allocations cannot be returned.
	if _, err := m.Return(alloc.ID, "admin", ""); !faults.Is(err, faults.Conflict) {
		t.Errorf("expected conflict returning a consumed allocation, got %v", err)
	}
}

func TestEmptyingStockConsumesOriginOrder(t *testing.T) {
	m, orders, _ := testManager(t)
	order, stock := receivedOrder(t, orders, "Compressor Relay", 2)

	if _, err := m.Allocate(AllocateInput{
		StockItemID: stock.ID, ServiceID: 10, TechnicianID: 3, Quantity: 1, Actor: "admin",
	}); err != nil {
		t.Fatalf("first allocate: %v", err)
	}
	o, _ := orders.Get(order.ID)
	if o.Status != string(parts.StatusAvailable) {
		t.Fatalf("order must stay available with stock on hand, got %s", o.Status)
	}

	if _, err := m.Allocate(AllocateInput{
		StockItemID: stock.ID, ServiceID: 11, TechnicianID: 4, Quantity: 1, Actor: "admin",
	}); err != nil {
		t.Fatalf("second allocate: %v", err)
	}

	item, _ := m.GetStockItem(stock.ID)
	if item.Quantity != 0 {
		t.Fatalf("expected empty stock, got %d", item.Quantity)
	}
	o, _ = orders.Get(order.ID)
	if o.Status != string(parts.StatusConsumed) {
		t.Errorf("expected origin order consumed, got %s", o.Status)
	}
}
