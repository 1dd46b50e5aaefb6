// Package handlers is the HTTP surface of the scheduling service.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkrylova/slotserve/services/scheduling-service/internal/booking"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/storage"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/timeutil"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError maps the domain error taxonomy onto HTTP statuses. Unknown
// errors become opaque 500s; their detail belongs in the log, not the body.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, timeutil.ErrFormat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, booking.ErrDoubleBooking):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, booking.ErrSlotTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
