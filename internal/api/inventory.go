package api

import (
	"net/http"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/model"
)

// StockHandler handles stock movements of a single item.
type StockHandler struct {
	Service *inventory.Service
}

type supplyRequest struct {
	Amount     int        `json:"amount"`
	Expiration model.Date `json:"expiration"`
	Note       string     `json:"note"`
}

type offtakeRequest struct {
	Debits   []inventory.Debit `json:"debits"`
	Disposal bool              `json:"disposal"`
	Note     string            `json:"note"`
}

// Supply handles POST /api/items/{id}/supply.
func (h *StockHandler) Supply(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req supplyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	move, err := h.Service.Supply(r.Context(), GetClaims(r.Context()), inventory.SupplyInput{
		ItemID:     id,
		Amount:     req.Amount,
		Expiration: req.Expiration,
		Note:       req.Note,
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, move)
}

// Offtake handles POST /api/items/{id}/offtake. Either every debit is
// applied or none is.
func (h *StockHandler) Offtake(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req offtakeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	move, err := h.Service.Offtake(r.Context(), GetClaims(r.Context()), inventory.OfftakeInput{
		ItemID:   id,
		Debits:   req.Debits,
		Disposal: req.Disposal,
		Note:     req.Note,
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, move)
}

// Lots handles GET /api/items/{id}/lots.
func (h *StockHandler) Lots(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	lots, err := h.Service.ItemLots(r.Context(), id)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, nonNil(lots))
}

// History handles GET /api/items/{id}/history.
func (h *StockHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	history, err := h.Service.ItemHistory(r.Context(), id)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, nonNil(history))
}
