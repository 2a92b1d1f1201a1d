package www

import (
	"encoding/json"
	"net/http"

	"partsdesk/parts"
)

// --- Order operations (admin portal) ---

func (h *Handlers) apiListOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" {
		orders, err := h.engine.Orders().ListByStatus(parts.Status(status))
		if err != nil {
			writeFault(w, err)
			return
		}
		writeJSON(w, orders)
		return
	}
	orders, err := h.engine.DB().ListOrders()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, orders)
}

func (h *Handlers) apiCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PartName      string `json:"part_name"`
		PartNumber    string `json:"part_number"`
		Quantity      int64  `json:"quantity"`
		Urgency       string `json:"urgency"`
		Warranty      string `json:"warranty"`
		Description   string `json:"description"`
		EstimatedCost string `json:"estimated_cost"`
		AdminNotes    string `json:"admin_notes"`
		ServiceID     int64  `json:"service_id"`
		TechnicianID  int64  `json:"technician_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := parts.RequestInput{
		PartName:      req.PartName,
		PartNumber:    req.PartNumber,
		Quantity:      req.Quantity,
		Urgency:       req.Urgency,
		Warranty:      req.Warranty,
		Description:   req.Description,
		EstimatedCost: req.EstimatedCost,
		AdminNotes:    req.AdminNotes,
	}
	if req.ServiceID > 0 {
		in.ServiceID = &req.ServiceID
	}
	if req.TechnicianID > 0 {
		in.TechnicianID = &req.TechnicianID
	}

	order, err := h.engine.Orders().CreateDirectOrder(in)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handlers) apiGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}
	order, err := h.engine.Orders().Get(id)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handlers) apiOrderHistory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}
	if _, err := h.engine.Orders().Get(id); err != nil {
		writeFault(w, err)
		return
	}
	history, err := h.engine.DB().ListOrderHistory(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, history)
}

func (h *Handlers) apiApproveOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}
	order, err := h.engine.Orders().Approve(id, h.principal(r).Username)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handlers) apiAssignOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}
	var req struct {
		Brand     string `json:"brand"`
		PartyKind string `json:"party_kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.engine.Tasks().Assign(id, req.Brand, req.PartyKind, h.principal(r).Username)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handlers) apiAssignOrderManual(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}
	var req struct {
		PartyID int64 `json:"party_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.engine.Tasks().AssignManual(id, req.PartyID, h.principal(r).Username)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handlers) apiReceiveOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}
	var req struct {
		ActualCost string `json:"actual_cost"`
		Location   string `json:"location"`
		Notes      string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, stock, err := h.engine.Orders().Receive(id, req.ActualCost, req.Location, req.Notes, h.principal(r).Username)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"order": order, "stock_item": stock})
}

func (h *Handlers) apiCancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transitionOrder(w, r, parts.StatusCancelled, "cancelled by admin")
}

func (h *Handlers) apiRemoveOrder(w http.ResponseWriter, r *http.Request) {
	h.transitionOrder(w, r, parts.StatusRemoved, "removed from ordering")
}

func (h *Handlers) transitionOrder(w http.ResponseWriter, r *http.Request, to parts.Status, defaultDetail string) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}
	var req struct {
		Detail string `json:"detail"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	if req.Detail == "" {
		req.Detail = defaultDetail
	}

	order, err := h.engine.Orders().Transition(id, to, h.principal(r).Username, req.Detail)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handlers) apiUpdateOrderNotes(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}
	var req struct {
		AdminNotes    string `json:"admin_notes"`
		SupplierNotes string `json:"supplier_notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.engine.Orders().Get(id); err != nil {
		writeFault(w, err)
		return
	}
	if err := h.engine.DB().UpdateOrderNotes(id, req.AdminNotes, req.SupplierNotes); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	order, err := h.engine.Orders().Get(id)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handlers) apiDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}
	if err := h.engine.Orders().Delete(id); err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// --- Technician portal ---

func (h *Handlers) apiRequestPart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ServiceID     int64  `json:"service_id"`
		PartName      string `json:"part_name"`
		PartNumber    string `json:"part_number"`
		Quantity      int64  `json:"quantity"`
		Urgency       string `json:"urgency"`
		Warranty      string `json:"warranty"`
		Description   string `json:"description"`
		EstimatedCost string `json:"estimated_cost"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := h.principal(r)
	user, err := h.engine.DB().GetUser(p.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	in := parts.RequestInput{
		TechnicianID:  &user.ID,
		PartName:      req.PartName,
		PartNumber:    req.PartNumber,
		Quantity:      req.Quantity,
		Urgency:       req.Urgency,
		Warranty:      req.Warranty,
		Description:   req.Description,
		EstimatedCost: req.EstimatedCost,
	}
	if req.ServiceID > 0 {
		in.ServiceID = &req.ServiceID
	}

	order, err := h.engine.Orders().RequestPart(in)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handlers) apiListMyRequests(w http.ResponseWriter, r *http.Request) {
	p := h.principal(r)
	user, err := h.engine.DB().GetUser(p.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	orders, err := h.engine.DB().ListOrdersByTechnician(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, orders)
}
