package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"cashbook/internal/core"
	"cashbook/internal/docsync"
	applog "cashbook/internal/log"
)

// errorResponse is the body of every non-2xx API response. Stale is true
// when local state mutated but the remote write failed, so what the client
// holds is ahead of what is persisted.
type errorResponse struct {
	Error string `json:"error"`
	Stale bool   `json:"stale,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

var validationErrors = []error{
	core.ErrInvalidYear,
	core.ErrDuplicateYear,
	core.ErrUnknownYear,
	core.ErrEmptyCategory,
	core.ErrDuplicateCategory,
	core.ErrEmptyDescription,
	core.ErrInvalidAmount,
	core.ErrUnknownType,
	core.ErrUnknownMonth,
	core.ErrUnresolvedMonth,
	core.ErrIndexOutOfRange,
}

func isValidationError(err error) bool {
	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// writeServiceError maps service failures onto HTTP statuses. Validation
// failures reject the request before any state changed. A sync failure means
// the in-memory ledger already holds the change and only persistence failed.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var syncErr *docsync.SyncError
	if errors.As(err, &syncErr) {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "persist failed, local state ahead of remote",
			applog.FieldOperation, syncErr.Op,
			applog.FieldDocPath, syncErr.Path,
			applog.FieldError, syncErr.Err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: syncErr.Error(), Stale: true})
		return
	}
	if isValidationError(err) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	applog.FromContext(r.Context()).ErrorContext(r.Context(), "request failed",
		applog.FieldError, err)
	writeError(w, http.StatusInternalServerError, err.Error())
}
