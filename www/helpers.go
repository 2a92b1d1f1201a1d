package www

import (
	"encoding/json"
	"net/http"
	"strconv"

	"partsdesk/faults"

	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeFault maps a domain fault to its HTTP status.
func writeFault(w http.ResponseWriter, err error) {
	switch faults.KindOf(err) {
	case faults.Validation:
		writeError(w, http.StatusBadRequest, err.Error())
	case faults.NotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case faults.Conflict, faults.InsufficientStock:
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func parseID(r *http.Request, param string) (int64, error) {
	s := chi.URLParam(r, param)
	return strconv.ParseInt(s, 10, 64)
}
