package api

import (
	"context"
	"net/http"

	"venezia-storefront/internal/checkout"
)

type initWompiRequest struct {
	OrderID int64 `json:"pedido_id"`
}

// InitWompiTransaction obtains the single-use gateway transaction params for
// an order. The params are passed through to the gateway unmodified.
func (c *Client) InitWompiTransaction(ctx context.Context, orderID int64) (*checkout.GatewayParams, error) {
	var params checkout.GatewayParams
	if err := c.do(ctx, http.MethodPost, "/payments/wompi/init", initWompiRequest{OrderID: orderID}, &params); err != nil {
		return nil, err
	}
	return &params, nil
}

var _ checkout.PaymentsAPI = (*Client)(nil)
