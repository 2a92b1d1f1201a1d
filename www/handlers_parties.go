package www

import (
	"encoding/json"
	"net/http"
	"strings"

	"partsdesk/config"
	"partsdesk/store"
)

// --- Fulfillment party registry (admin portal) ---

func (h *Handlers) apiListParties(w http.ResponseWriter, r *http.Request) {
	parties, err := h.engine.DB().ListParties()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, parties)
}

func (h *Handlers) apiCreateParty(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind         string   `json:"kind"`
		Name         string   `json:"name"`
		ContactEmail string   `json:"contact_email"`
		ContactPhone string   `json:"contact_phone"`
		Brands       []string `json:"brands"`
		Priority     int64    `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Kind != store.PartySupplier && req.Kind != store.PartyPartner {
		writeError(w, http.StatusBadRequest, "kind must be supplier or partner")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}

	id, err := h.engine.DB().CreateParty(req.Kind, req.Name, req.ContactEmail, req.ContactPhone,
		strings.Join(req.Brands, ","), req.Priority)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	party, err := h.engine.DB().GetParty(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, party)
}

func (h *Handlers) apiUpdateParty(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid party ID")
		return
	}
	var req struct {
		ContactEmail string   `json:"contact_email"`
		ContactPhone string   `json:"contact_phone"`
		Brands       []string `json:"brands"`
		Priority     int64    `json:"priority"`
		Active       bool     `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.DB().UpdateParty(id, req.ContactEmail, req.ContactPhone,
		strings.Join(req.Brands, ","), req.Priority, req.Active); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	party, err := h.engine.DB().GetParty(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "party not found")
		return
	}
	writeJSON(w, party)
}

func (h *Handlers) apiDeleteParty(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid party ID")
		return
	}
	if err := h.engine.DB().DeleteParty(id); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// --- Config (admin portal) ---

func (h *Handlers) apiUpdateRouting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PriorityGroups []config.PriorityGroup `json:"priority_groups"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := h.engine.AppConfig()
	cfg.Lock()
	cfg.Routing.PriorityGroups = req.PriorityGroups
	cfg.Unlock()

	if err := cfg.Save(h.engine.ConfigPath()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Takes effect on restart; the running engine keeps its routing table.
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiUpdateMessaging(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Backend           string   `json:"backend"`
		MQTTBroker        string   `json:"mqtt_broker"`
		MQTTPort          int      `json:"mqtt_port"`
		KafkaBrokers      []string `json:"kafka_brokers"`
		NotificationTopic string   `json:"notification_topic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Backend != "mqtt" && req.Backend != "kafka" {
		writeError(w, http.StatusBadRequest, "backend must be mqtt or kafka")
		return
	}

	cfg := h.engine.AppConfig()
	cfg.Lock()
	cfg.Messaging.Backend = req.Backend
	if req.MQTTBroker != "" {
		cfg.Messaging.MQTT.Broker = req.MQTTBroker
	}
	if req.MQTTPort > 0 {
		cfg.Messaging.MQTT.Port = req.MQTTPort
	}
	if len(req.KafkaBrokers) > 0 {
		cfg.Messaging.Kafka.Brokers = req.KafkaBrokers
	}
	if req.NotificationTopic != "" {
		cfg.Messaging.NotificationTopic = req.NotificationTopic
	}
	cfg.Unlock()

	if err := cfg.Save(h.engine.ConfigPath()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
