package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/report"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`

	ItemID     int64       `json:"item_id,omitempty"`
	Expiration *model.Date `json:"expiration,omitempty"`
	Requested  *int        `json:"requested,omitempty"`
	Available  *int        `json:"available,omitempty"`
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, errorBody{Error: message})
}

// serviceError maps an inventory or report error onto an HTTP response.
// Store failures are logged with their cause and answered generically.
func serviceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalid *inventory.ValidationError
		short   *inventory.InsufficientStockError
	)
	switch {
	case errors.As(err, &invalid):
		jsonResponse(w, http.StatusBadRequest, errorBody{Error: invalid.Error(), Field: invalid.Field})
	case errors.As(err, &short):
		jsonResponse(w, http.StatusConflict, errorBody{
			Error:      "insufficient stock",
			ItemID:     short.ItemID,
			Expiration: &short.Expiration,
			Requested:  &short.Requested,
			Available:  &short.Available,
		})
	case errors.Is(err, inventory.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, inventory.ErrConflict):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, inventory.ErrUnauthenticated):
		jsonError(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, inventory.ErrForbidden):
		jsonError(w, http.StatusForbidden, "insufficient permissions")
	case errors.Is(err, report.ErrUnavailable):
		jsonError(w, http.StatusServiceUnavailable, "report not available")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

// pathID parses the {id} path parameter.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// queryID parses an optional positive ID query parameter.
func queryID(r *http.Request, name string) (*int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, false
	}
	return &id, true
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
