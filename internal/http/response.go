package http

import (
	"encoding/json"
	"net/http"

	applog "expensetracker/internal/log"
	"expensetracker/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeStoreError translates a classified store failure into an HTTP
// status. Unknown failures are logged and reported as a bad gateway,
// since the store sits behind us.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch store.KindOf(err) {
	case store.KindUnauthorized:
		writeError(w, http.StatusUnauthorized, "not signed in")
	case store.KindRateLimited:
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "too many requests upstream")
	case store.KindConflict:
		writeError(w, http.StatusConflict, "already exists")
	case store.KindNotFound:
		writeError(w, http.StatusNotFound, "not found")
	case store.KindInvalid:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "store error",
			applog.FieldError, err.Error(),
			applog.FieldPath, r.URL.Path)
		writeError(w, http.StatusBadGateway, "data service unavailable")
	}
}
