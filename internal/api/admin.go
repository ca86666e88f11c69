package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/inventory"
)

// AdminHandler handles maintenance endpoints.
type AdminHandler struct {
	DB      *db.DB
	Service *inventory.Service
}

type rebuildResponse struct {
	Corrected int64 `json:"corrected"`
}

// RebuildProjection handles POST /api/admin/rebuild-projection.
func (h *AdminHandler) RebuildProjection(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	n, err := h.Service.RebuildProjection(r.Context(), claims)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	slog.Info("projection rebuilt via api", "login", claims.Login, "corrected", n)
	jsonResponse(w, http.StatusOK, rebuildResponse{Corrected: n})
}

// Health handles GET /healthz.
func (h *AdminHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.PingContext(r.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		jsonError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
