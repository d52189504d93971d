package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	items := s.store.cartItems(userIDFrom(r.Context()))
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"data": items})
}

type addCartItemRequest struct {
	VariantID int64 `json:"producto_variante_id"`
	Quantity  int   `json:"cantidad"`
}

func (s *Server) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	item, err := s.store.addToCart(userIDFrom(r.Context()), req.VariantID, req.Quantity)
	switch {
	case errors.Is(err, errVariantNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errInsufficientStock):
		s.writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.writeJSON(w, http.StatusCreated, item)
	}
}

type updateCartItemRequest struct {
	Quantity int `json:"cantidad"`
}

func (s *Server) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req updateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err = s.store.updateCartItem(userIDFrom(r.Context()), itemID, req.Quantity)
	switch {
	case errors.Is(err, errItemNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errInvalidQuantity):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "updated"})
	}
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := s.store.removeCartItem(userIDFrom(r.Context()), itemID); err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "removed"})
}
