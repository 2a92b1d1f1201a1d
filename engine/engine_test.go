package engine

import (
	"path/filepath"
	"testing"

	"partsdesk/config"
	"partsdesk/parts"
	"partsdesk/store"
	"partsdesk/tasks"
	"partsdesk/warehouse"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Defaults()
	cfg.Sync.ReconcileInterval = 0 // sweep manually in tests

	eng := New(Config{AppConfig: cfg, DB: db})
	eng.Start()
	t.Cleanup(eng.Stop)
	return eng
}

// Full procurement round trip: request, approve, route to a priority-group
// partner, fulfill, receive, allocate to exhaustion.
func TestProcurementRoundTrip(t *testing.T) {
	eng := testEngine(t)
	db := eng.DB()

	// Registry: a generic supplier plus the ComPlus priority partner.
	if _, err := db.CreateParty(store.PartySupplier, "Candy Spares Ltd", "", "", "Candy", 0); err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	if _, err := db.CreateParty(store.PartyPartner, "ComPlus", "", "", "", 0); err != nil {
		t.Fatalf("create partner: %v", err)
	}

	var events []EventType
	eng.Events.Subscribe(func(evt Event) { events = append(events, evt.Type) })

	techID := int64(3)
	order, err := eng.Orders().RequestPart(parts.RequestInput{
		TechnicianID: &techID,
		PartName:     "Compressor Relay",
		PartNumber:   "CR-291",
		Quantity:     2,
		Urgency:      parts.UrgencyHigh,
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if _, err := eng.Orders().Approve(order.ID, "admin"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// Candy is in the default ComPlus priority group, so the group outranks
	// the supplier's exact brand match.
	res, err := eng.Tasks().Assign(order.ID, "Candy", "", "admin")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !res.Resolved || res.Order.AssignedPartyName != "ComPlus" {
		t.Fatalf("expected ComPlus via priority group, got %+v", res)
	}
	if res.Order.Status != string(parts.StatusAssignedToPartner) {
		t.Fatalf("expected assigned_to_partner, got %s", res.Order.Status)
	}

	// Partner works the task; each step mirrors into the order.
	for _, s := range []tasks.Status{tasks.StatusSeparated, tasks.StatusSent, tasks.StatusDelivered} {
		adv, err := eng.Tasks().Advance(res.Task.ID, s, "complus")
		if err != nil {
			t.Fatalf("advance to %s: %v", s, err)
		}
		if adv.SyncWarning != "" {
			t.Fatalf("unexpected sync warning at %s: %s", s, adv.SyncWarning)
		}
	}
	o, _ := eng.Orders().Get(order.ID)
	if o.Status != string(parts.StatusWaitingDelivery) {
		t.Fatalf("expected waiting_delivery before receipt, got %s", o.Status)
	}

	// Admin receives the part into the warehouse.
	o, stock, err := eng.Orders().Receive(order.ID, "13.90", "shelf B3", "", "admin")
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if o.Status != string(parts.StatusAvailable) || stock.Quantity != 2 {
		t.Fatalf("unexpected receipt outcome: order=%s stock=%d", o.Status, stock.Quantity)
	}

	// Two allocations exhaust the stock and consume the origin order.
	for i, svc := range []int64{10, 11} {
		if _, err := eng.Warehouse().Allocate(warehouse.AllocateInput{
			StockItemID: stock.ID, ServiceID: svc, TechnicianID: techID,
			Quantity: 1, Actor: "admin",
		}); err != nil {
			t.Fatalf("allocation %d: %v", i+1, err)
		}
	}

	item, _ := eng.Warehouse().GetStockItem(stock.ID)
	if item.Quantity != 0 {
		t.Errorf("expected empty stock, got %d", item.Quantity)
	}
	o, _ = eng.Orders().Get(order.ID)
	if o.Status != string(parts.StatusConsumed) {
		t.Errorf("expected consumed origin order, got %s", o.Status)
	}

	// The audit trail records receipt and both allocations.
	activity, _ := db.ListActivity(stock.ID)
	if len(activity) != 3 {
		t.Errorf("expected 3 activity entries, got %d", len(activity))
	}

	// Event flow covered creation through allocation.
	seen := map[EventType]bool{}
	for _, e := range events {
		seen[e] = true
	}
	for _, want := range []EventType{EventOrderCreated, EventOrderStatusChanged, EventTaskCreated,
		EventTaskStatusChanged, EventOrderReceived, EventStockAllocated} {
		if !seen[want] {
			t.Errorf("missing event %s", want)
		}
	}

	// Every transition along the way queued a notification.
	pending, _ := db.ListPendingOutbox(50)
	if len(pending) == 0 {
		t.Error("expected queued notifications in the outbox")
	}
}
