package www

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"partsdesk/faults"
)

func TestWriteFaultStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{faults.New(faults.Validation, "bad input"), http.StatusBadRequest},
		{faults.New(faults.NotFound, "order 7 not found"), http.StatusNotFound},
		{faults.New(faults.Conflict, "already assigned"), http.StatusConflict},
		{faults.New(faults.InsufficientStock, "2 on hand"), http.StatusConflict},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		writeFault(rec, c.err)
		if rec.Code != c.want {
			t.Errorf("writeFault(%v) = %d, want %d", c.err, rec.Code, c.want)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("body not JSON: %v", err)
		}
		if body["error"] == "" {
			t.Error("expected an error message in the body")
		}
	}
}
