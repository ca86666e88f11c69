package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/zaloga/internal/inventory"
)

// AccountsHandler handles account management endpoints (admin only).
type AccountsHandler struct {
	Service *inventory.Service
}

type setPasswordRequest struct {
	Password string `json:"password"`
}

// List handles GET /api/accounts.
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Service.ListAccounts(r.Context())
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, nonNil(accounts))
}

// Get handles GET /api/accounts/{id}.
func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	account, err := h.Service.GetAccount(r.Context(), id)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, account)
}

// Create handles POST /api/accounts.
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req inventory.NewAccount
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.Service.CreateAccount(r.Context(), GetClaims(r.Context()), req)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, account)
}

// Update handles PATCH /api/accounts/{id}.
func (h *AccountsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	var req inventory.AccountPatch
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.Service.UpdateAccount(r.Context(), GetClaims(r.Context()), id, req)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, account)
}

// SetPassword handles PUT /api/accounts/{id}/password. Own passwords go
// through PUT /api/auth/password, which checks the current one.
func (h *AccountsHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	var req setPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	if err := h.Service.SetPassword(r.Context(), claims, id, "", req.Password); err != nil {
		serviceError(w, r, err)
		return
	}

	slog.Info("password reset via api", "login", claims.Login, "account", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// Delete handles DELETE /api/accounts/{id}?replacement=N. Moves performed
// by the account are reassigned to the replacement.
func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	replacement, ok := queryID(r, "replacement")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid replacement id")
		return
	}

	claims := GetClaims(r.Context())
	if err := h.Service.DeleteAccount(r.Context(), claims, id, replacement); err != nil {
		serviceError(w, r, err)
		return
	}

	slog.Info("account deleted via api", "login", claims.Login, "account", id)
	w.WriteHeader(http.StatusNoContent)
}
