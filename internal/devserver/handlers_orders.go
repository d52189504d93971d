package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"venezia-storefront/internal/checkout"
	"venezia-storefront/internal/order"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	u := s.store.user(userID)
	if u == nil {
		s.writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}

	var draft checkout.OrderDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !draft.Method.Valid() {
		s.writeError(w, http.StatusUnprocessableEntity, "unknown payment method")
		return
	}

	// Shipping fields default to the profile; the profile must be complete
	// before any order can be placed.
	if draft.Address == "" {
		draft.Address = u.Profile.Address
	}
	if draft.City == "" {
		draft.City = u.Profile.City
	}
	if draft.Phone == "" {
		draft.Phone = u.Profile.Phone
	}
	if draft.PostalCode == "" {
		draft.PostalCode = u.Profile.PostalCode
	}
	if draft.Address == "" || draft.City == "" || draft.Phone == "" {
		s.writeCodedError(w, http.StatusUnprocessableEntity,
			"PROFILE_INCOMPLETE", "Completa tu dirección y teléfono antes de ordenar")
		return
	}

	o, err := s.store.createOrder(userID,
		draft.Address, draft.City, draft.Phone, draft.PostalCode,
		string(draft.Method), draft.Note)
	if errors.Is(err, errCartEmpty) {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.log.Info("order created",
		zap.Int64("order_id", o.ID),
		zap.Int64("user_id", userID),
		zap.String("metodo_pago", o.Method))
	s.writeJSON(w, http.StatusCreated, map[string]interface{}{"pedido": o})
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	u := s.store.user(userIDFrom(r.Context()))
	if u == nil {
		s.writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}

	status := order.Status(r.URL.Query().Get("estado"))
	if status != "" && !status.Valid() {
		s.writeError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	orders := s.store.listOrders(u.ID, u.IsAdmin(), status)
	if orders == nil {
		orders = []order.Order{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"data": orders})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	err = s.store.transitionOrder(orderID, order.StatusCancelled)
	switch {
	case errors.Is(err, errOrderNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errInvalidTransition):
		s.writeError(w, http.StatusConflict, "only pending orders can be cancelled")
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "cancelled"})
	}
}

type updateStatusRequest struct {
	Status order.Status `json:"estado"`
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Status.Valid() {
		s.writeError(w, http.StatusUnprocessableEntity, "unknown status")
		return
	}

	err = s.store.transitionOrder(orderID, req.Status)
	switch {
	case errors.Is(err, errOrderNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errInvalidTransition):
		s.writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "updated"})
	}
}
