package www

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"partsdesk/config"
	"partsdesk/engine"
	"partsdesk/parts"
	"partsdesk/store"
	"partsdesk/warehouse"

	"github.com/go-chi/chi/v5"
)

func testHandlers(t *testing.T) *Handlers {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Defaults()
	cfg.Sync.ReconcileInterval = 0

	eng := engine.New(engine.Config{AppConfig: cfg, DB: db})
	eng.Start()
	t.Cleanup(eng.Stop)

	return &Handlers{engine: eng, sessions: newSessionStore("")}
}

// authedRequest builds a request carrying a session principal and chi URL
// params, bypassing the router the way the middleware would have set it up.
func authedRequest(method, target string, p principal, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := context.WithValue(req.Context(), principalKey, p)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
}

func TestConsumeAllocationOwnership(t *testing.T) {
	h := testHandlers(t)
	db := h.engine.DB()

	tech1ID, err := db.CreateUser("tech1", "x", store.RoleTechnician, nil)
	if err != nil {
		t.Fatalf("create tech1: %v", err)
	}
	if _, err := db.CreateUser("tech2", "x", store.RoleTechnician, nil); err != nil {
		t.Fatalf("create tech2: %v", err)
	}

	order, err := h.engine.Orders().CreateDirectOrder(parts.RequestInput{PartName: "Drain Pump", Quantity: 3})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := h.engine.Orders().Approve(order.ID, "admin"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	_, stock, err := h.engine.Orders().Receive(order.ID, "", "shelf A1", "", "admin")
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	alloc, err := h.engine.Warehouse().Allocate(warehouse.AllocateInput{
		StockItemID: stock.ID, ServiceID: 10, TechnicianID: tech1ID, Quantity: 1, Actor: "admin",
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	id := strconv.FormatInt(alloc.ID, 10)
	target := "/api/allocations/" + id + "/consume"
	params := map[string]string{"id": id}

	// Another technician's consume is refused and changes nothing.
	w := httptest.NewRecorder()
	h.apiConsumeAllocation(w, authedRequest(http.MethodPost, target,
		principal{Username: "tech2", Role: store.RoleTechnician}, params))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another technician, got %d", w.Code)
	}
	if a, _ := db.GetAllocation(alloc.ID); a.Status != warehouse.AllocationAllocated {
		t.Fatalf("allocation must stay allocated, got %s", a.Status)
	}

	// The owning technician may consume it.
	w = httptest.NewRecorder()
	h.apiConsumeAllocation(w, authedRequest(http.MethodPost, target,
		principal{Username: "tech1", Role: store.RoleTechnician}, params))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for the owner, got %d: %s", w.Code, w.Body.String())
	}
	if a, _ := db.GetAllocation(alloc.ID); a.Status != warehouse.AllocationConsumed {
		t.Fatalf("expected consumed, got %s", a.Status)
	}

	// Admins are not bound by ownership.
	second, err := h.engine.Warehouse().Allocate(warehouse.AllocateInput{
		StockItemID: stock.ID, ServiceID: 11, TechnicianID: tech1ID, Quantity: 1, Actor: "admin",
	})
	if err != nil {
		t.Fatalf("second allocate: %v", err)
	}
	sid := strconv.FormatInt(second.ID, 10)
	w = httptest.NewRecorder()
	h.apiConsumeAllocation(w, authedRequest(http.MethodPost, "/api/allocations/"+sid+"/consume",
		principal{Username: "admin", Role: store.RoleAdmin}, map[string]string{"id": sid}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", w.Code, w.Body.String())
	}
}

func TestConsumeAllocationMissing(t *testing.T) {
	h := testHandlers(t)
	if _, err := h.engine.DB().CreateUser("tech1", "x", store.RoleTechnician, nil); err != nil {
		t.Fatalf("create tech1: %v", err)
	}

	w := httptest.NewRecorder()
	h.apiConsumeAllocation(w, authedRequest(http.MethodPost, "/api/allocations/999/consume",
		principal{Username: "tech1", Role: store.RoleTechnician}, map[string]string{"id": "999"}))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a missing allocation, got %d", w.Code)
	}
}
