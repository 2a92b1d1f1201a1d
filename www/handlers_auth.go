package www

import (
	"encoding/json"
	"net/http"

	"partsdesk/store"
)

func (h *Handlers) apiLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}

	db := h.engine.DB()

	// First login on a fresh install bootstraps the admin account.
	exists, _ := db.AdminExists()
	if !exists {
		hash, err := hashPassword(req.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if _, err := db.CreateUser(req.Username, hash, store.RoleAdmin, nil); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create admin user")
			return
		}
		h.sessions.setPrincipal(w, r, principal{Username: req.Username, Role: store.RoleAdmin})
		writeJSON(w, map[string]string{"username": req.Username, "role": store.RoleAdmin})
		return
	}

	user, err := db.GetUser(req.Username)
	if err != nil || !checkPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	p := principal{Username: user.Username, Role: user.Role}
	if user.PartyID != nil {
		p.PartyID = *user.PartyID
	}
	h.sessions.setPrincipal(w, r, p)
	writeJSON(w, map[string]string{"username": user.Username, "role": user.Role})
}

func (h *Handlers) apiLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.clear(w, r)
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiMe(w http.ResponseWriter, r *http.Request) {
	p := h.principal(r)
	writeJSON(w, map[string]interface{}{
		"username": p.Username,
		"role":     p.Role,
		"party_id": p.PartyID,
	})
}

func (h *Handlers) apiChangePassword(w http.ResponseWriter, r *http.Request) {
	p := h.principal(r)
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, http.StatusBadRequest, "new password must have at least 8 characters")
		return
	}

	db := h.engine.DB()
	user, err := db.GetUser(p.Username)
	if err != nil || !checkPassword(req.CurrentPassword, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "current password incorrect")
		return
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := db.UpdateUserPassword(p.Username, hash); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.engine.DB().ListUsers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, users)
}

func (h *Handlers) apiCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
		PartyID  int64  `json:"party_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch req.Role {
	case store.RoleAdmin, store.RoleTechnician, store.RolePartner, store.RoleSupplier:
	default:
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}
	if (req.Role == store.RolePartner || req.Role == store.RoleSupplier) && req.PartyID <= 0 {
		writeError(w, http.StatusBadRequest, "partner and supplier users require a party")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must have at least 8 characters")
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var partyID *int64
	if req.PartyID > 0 {
		partyID = &req.PartyID
	}
	id, err := h.engine.DB().CreateUser(req.Username, hash, req.Role, partyID)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, map[string]int64{"id": id})
}
