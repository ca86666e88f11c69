package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	DB        *db.DB
	Service   *inventory.Service
	JWTSecret string
	TokenTTL  time.Duration
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	AccountID int64     `json:"account_id"`
	Admin     bool      `json:"admin"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Login == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "login and password required")
		return
	}

	account, err := h.Service.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		slog.Warn("login failed", "login", req.Login, "remote", r.RemoteAddr)
		if errors.Is(err, inventory.ErrUnauthenticated) {
			jsonError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		serviceError(w, r, err)
		return
	}

	ttl := h.TokenTTL
	if ttl <= 0 {
		ttl = auth.DefaultTokenTTL
	}
	token, err := auth.GenerateToken(h.JWTSecret, account.ID, account.Login, account.Admin, ttl)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("account logged in", "login", account.Login, "admin", account.Admin)
	jsonResponse(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(ttl).UTC(),
		AccountID: account.ID,
		Admin:     account.Admin,
	})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	expires := time.Now().Add(auth.DefaultTokenTTL)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, expires); err != nil {
		slog.Error("failed to revoke token", "login", claims.Login, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("account logged out", "login", claims.Login)
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		jsonError(w, http.StatusBadRequest, "current and new password required")
		return
	}

	err := h.Service.SetPassword(r.Context(), claims, claims.AccountID(), req.CurrentPassword, req.NewPassword)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	slog.Info("account changed own password", "login", claims.Login)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}
