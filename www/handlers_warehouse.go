package www

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"partsdesk/store"
	"partsdesk/warehouse"
)

// --- Warehouse (admin portal) ---

func (h *Handlers) apiListStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.engine.DB().ListStockItems()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, items)
}

func (h *Handlers) apiGetStock(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid stock item ID")
		return
	}
	item, err := h.engine.Warehouse().GetStockItem(id)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, item)
}

func (h *Handlers) apiStockActivity(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid stock item ID")
		return
	}
	if _, err := h.engine.Warehouse().GetStockItem(id); err != nil {
		writeFault(w, err)
		return
	}
	entries, err := h.engine.DB().ListActivity(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, entries)
}

func (h *Handlers) apiStockAllocations(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid stock item ID")
		return
	}
	if _, err := h.engine.Warehouse().GetStockItem(id); err != nil {
		writeFault(w, err)
		return
	}
	allocs, err := h.engine.DB().ListAllocationsForStockItem(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, allocs)
}

func (h *Handlers) apiAllocateStock(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid stock item ID")
		return
	}
	var req struct {
		ServiceID    int64  `json:"service_id"`
		TechnicianID int64  `json:"technician_id"`
		Quantity     int64  `json:"quantity"`
		Notes        string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	alloc, err := h.engine.Warehouse().Allocate(warehouse.AllocateInput{
		StockItemID:  id,
		ServiceID:    req.ServiceID,
		TechnicianID: req.TechnicianID,
		Quantity:     req.Quantity,
		Actor:        h.principal(r).Username,
		Notes:        req.Notes,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, alloc)
}

func (h *Handlers) apiReturnAllocation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid allocation ID")
		return
	}
	var req struct {
		Detail string `json:"detail"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	alloc, err := h.engine.Warehouse().Return(id, h.principal(r).Username, req.Detail)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, alloc)
}

func (h *Handlers) apiConsumeAllocation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid allocation ID")
		return
	}

	// Technicians may only consume their own allocations.
	p := h.principal(r)
	if p.Role == store.RoleTechnician {
		existing, err := h.engine.DB().GetAllocation(id)
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "allocation not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		user, err := h.engine.DB().GetUser(p.Username)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if existing.TechnicianID != user.ID {
			writeError(w, http.StatusForbidden, "allocation belongs to another technician")
			return
		}
	}

	alloc, err := h.engine.Warehouse().MarkConsumed(id)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, alloc)
}

func (h *Handlers) apiListMyAllocations(w http.ResponseWriter, r *http.Request) {
	p := h.principal(r)
	user, err := h.engine.DB().GetUser(p.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	allocs, err := h.engine.DB().ListAllocationsForTechnician(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, allocs)
}
