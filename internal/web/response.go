package web

// response.go writes every API response in one envelope:
//
//	{"success": bool, "data": ..., "error": "...", "code": "...",
//	 "errors": [...], "message": "...", "pagination": {...}}
//
// Errors are mapped through core.MapError. The technical error is logged
// with the request ID; the client sees only the user message and code.

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JonMunkholm/salesdash/internal/core"
	"github.com/JonMunkholm/salesdash/internal/logging"
)

// Envelope is the JSON body of every API response.
type Envelope struct {
	Success    bool                   `json:"success"`
	Data       any                    `json:"data"`
	Error      string                 `json:"error,omitempty"`
	Code       string                 `json:"code,omitempty"`
	Action     string                 `json:"action,omitempty"`
	Errors     []core.ValidationError `json:"errors,omitempty"`
	Message    string                 `json:"message,omitempty"`
	Pagination *core.Pagination       `json:"pagination,omitempty"`
}

// statusByCode maps user message codes to HTTP statuses. Unlisted codes are 500.
var statusByCode = map[string]int{
	"VAL007":  http.StatusBadRequest,
	"FILE001": http.StatusRequestEntityTooLarge,
	"FILE002": http.StatusUnprocessableEntity,
	"FILE004": http.StatusBadRequest,
	"FILE005": http.StatusBadRequest,
	"FILE006": http.StatusUnsupportedMediaType,
	"FILE007": http.StatusUnsupportedMediaType,
	"UPL002":  http.StatusServiceUnavailable,
	"NF001":   http.StatusNotFound,
	"NF002":   http.StatusMethodNotAllowed,
	"AUTH001": http.StatusUnauthorized,
	"AUTH002": http.StatusForbidden,
	"RATE001": http.StatusTooManyRequests,
}

// statusFor returns the HTTP status for a mapped error.
func statusFor(msg core.UserMessage) int {
	if status, ok := statusByCode[msg.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

// respondData writes a 200 success envelope.
func respondData(w http.ResponseWriter, r *http.Request, data any) {
	writeJSON(w, r, http.StatusOK, Envelope{Success: true, Data: data})
}

// respondPage writes a success envelope with pagination.
func respondPage(w http.ResponseWriter, r *http.Request, data any, p core.Pagination) {
	writeJSON(w, r, http.StatusOK, Envelope{Success: true, Data: data, Pagination: &p})
}

// respondError maps err to a user message and writes it with the status
// its code implies.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	respondErrorStatus(w, r, 0, err)
}

// respondErrorStatus is respondError with an explicit status; 0 derives the
// status from the mapped code.
func respondErrorStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := core.MapError(err)
	if status == 0 {
		status = statusFor(msg)
	}

	log := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		log.Error("request error", args...)
	} else {
		log.Warn("request rejected", args...)
	}

	body := Envelope{
		Success: false,
		Error:   msg.Message,
		Code:    msg.Code,
		Action:  msg.Action,
	}
	var verrs core.ValidationErrors
	if errors.As(err, &verrs) {
		body.Errors = verrs
	}
	writeJSON(w, r, status, body)
}
