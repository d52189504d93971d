package devserver

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"venezia-storefront/internal/checkout"
	"venezia-storefront/internal/order"

	"go.uber.org/zap"
)

type initWompiRequest struct {
	OrderID int64 `json:"pedido_id"`
}

// handleInitWompi issues single-use transaction parameters for a pending
// gateway order. The integrity signature follows Wompi's scheme:
// sha256(reference + amount_in_cents + currency + integrity_secret).
func (s *Server) handleInitWompi(w http.ResponseWriter, r *http.Request) {
	var req initWompiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o := s.store.getOrder(req.OrderID)
	if o == nil {
		s.writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if o.Method != string(checkout.MethodWompi) {
		s.writeError(w, http.StatusConflict, "order is not a gateway order")
		return
	}
	if o.Status != order.StatusPending {
		s.writeError(w, http.StatusConflict, "order is not awaiting payment")
		return
	}

	now := time.Now().UTC()
	amountInCents := int64(o.Total * 100)
	reference := fmt.Sprintf("VENEZIA-%d-%d", o.ID, now.Unix())

	raw := fmt.Sprintf("%s%d%s%s", reference, amountInCents, "COP", s.wompiIntegrity)
	sum := sha256.Sum256([]byte(raw))

	params := checkout.GatewayParams{
		PublicKey:     s.wompiPublicKey,
		Currency:      "COP",
		AmountInCents: amountInCents,
		Reference:     reference,
		RedirectURL:   s.wompiRedirectURL,
		Signature: &checkout.GatewaySignature{
			Integrity:      hex.EncodeToString(sum[:]),
			ExpirationTime: now.Add(15 * time.Minute).Format(time.RFC3339),
		},
	}

	s.log.Info("wompi transaction initialized",
		zap.Int64("order_id", o.ID),
		zap.String("reference", reference),
		zap.Int64("amount_in_cents", amountInCents))
	s.writeJSON(w, http.StatusOK, params)
}
