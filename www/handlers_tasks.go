package www

import (
	"encoding/json"
	"net/http"

	"partsdesk/store"
	"partsdesk/tasks"
)

// --- Partner / supplier portal ---

// taskForParty loads a task and verifies it belongs to the caller's party.
// Party users only ever see their own work queue.
func (h *Handlers) taskForParty(w http.ResponseWriter, r *http.Request) (*store.Task, bool) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task ID")
		return nil, false
	}
	task, err := h.engine.Tasks().Get(id)
	if err != nil {
		writeFault(w, err)
		return nil, false
	}
	if task.PartyID != h.principal(r).PartyID {
		writeError(w, http.StatusForbidden, "task belongs to another party")
		return nil, false
	}
	return task, true
}

func (h *Handlers) apiListTasks(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.Tasks().ListForParty(h.principal(r).PartyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, list)
}

func (h *Handlers) apiGetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.taskForParty(w, r)
	if !ok {
		return
	}
	writeJSON(w, task)
}

func (h *Handlers) apiAdvanceTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.taskForParty(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.engine.Tasks().Advance(task.ID, tasks.Status(req.Status), h.principal(r).Username)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handlers) apiUpdateTaskTracking(w http.ResponseWriter, r *http.Request) {
	task, ok := h.taskForParty(w, r)
	if !ok {
		return
	}
	var req struct {
		TrackingNumber string `json:"tracking_number"`
		Notes          string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.engine.Tasks().UpdateTracking(task.ID, req.TrackingNumber, req.Notes)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, updated)
}
