package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/model"
)

// ItemsHandler handles item CRUD endpoints.
type ItemsHandler struct {
	Service *inventory.Service
}

// List handles GET /api/items. It accepts the optional category and q
// query parameters.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	category, ok := queryID(r, "category")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	filter := model.ItemFilter{Query: strings.TrimSpace(r.URL.Query().Get("q"))}
	if category != nil {
		filter.CategoryID = *category
	}

	items, err := h.Service.ListItems(r.Context(), filter)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, nonNil(items))
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req inventory.NewItem
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Service.CreateItem(r.Context(), GetClaims(r.Context()), req)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.Service.GetItem(r.Context(), id)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PATCH /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req inventory.ItemUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Service.UpdateItem(r.Context(), GetClaims(r.Context()), id, req)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}. The item is tombstoned and keeps
// its history.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	claims := GetClaims(r.Context())
	if err := h.Service.DeleteItem(r.Context(), claims, id); err != nil {
		serviceError(w, r, err)
		return
	}

	slog.Info("item deleted via api", "login", claims.Login, "item", id)
	w.WriteHeader(http.StatusNoContent)
}

// Attributes handles GET /api/items/{id}/attributes.
func (h *ItemsHandler) Attributes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	attrs, err := h.Service.ItemAttributes(r.Context(), id)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, nonNil(attrs))
}
