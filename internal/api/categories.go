package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/model"
)

// CategoriesHandler handles category CRUD endpoints. Reads are open to any
// account; changes require the administrator role.
type CategoriesHandler struct {
	Service *inventory.Service
}

type createCategoryRequest struct {
	Name     string `json:"name"`
	SubCatOf *int64 `json:"sub_cat_of"`
	Color    string `json:"color"`
	Note     string `json:"note"`
}

// List handles GET /api/categories.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.ListCategories(r.Context())
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, nonNil(categories))
}

// Get handles GET /api/categories/{id}.
func (h *CategoriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	category, err := h.Service.GetCategory(r.Context(), id)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, category)
}

// Create handles POST /api/categories.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := h.Service.CreateCategory(r.Context(), GetClaims(r.Context()), model.Category{
		Name:     req.Name,
		SubCatOf: req.SubCatOf,
		Color:    req.Color,
		Note:     req.Note,
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, category)
}

// Update handles PATCH /api/categories/{id}. A sub_cat_of of 0 moves the
// category to the root.
func (h *CategoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	var req model.CategoryPatch
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := h.Service.UpdateCategory(r.Context(), GetClaims(r.Context()), id, req)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, category)
}

// Delete handles DELETE /api/categories/{id}?replacement=N. The replacement
// is required when the category still holds items.
func (h *CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	replacement, ok := queryID(r, "replacement")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid replacement id")
		return
	}

	claims := GetClaims(r.Context())
	if err := h.Service.DeleteCategory(r.Context(), claims, id, replacement); err != nil {
		serviceError(w, r, err)
		return
	}

	slog.Info("category deleted via api", "login", claims.Login, "category", id)
	w.WriteHeader(http.StatusNoContent)
}
