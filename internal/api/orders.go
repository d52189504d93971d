package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"venezia-storefront/internal/checkout"
	"venezia-storefront/internal/order"
)

type createOrderResponse struct {
	Order struct {
		ID     int64  `json:"id"`
		Status string `json:"estado"`
	} `json:"pedido"`
}

// CreateOrder submits shipping fields, payment method and note. The backend
// consumes the server-side cart into the new order.
func (c *Client) CreateOrder(ctx context.Context, draft checkout.OrderDraft) (*checkout.CreatedOrder, error) {
	var resp createOrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", draft, &resp); err != nil {
		return nil, err
	}
	return &checkout.CreatedOrder{
		ID:     resp.Order.ID,
		Status: resp.Order.Status,
	}, nil
}

// ListOrders fetches orders, optionally filtered by status.
func (c *Client) ListOrders(ctx context.Context, status order.Status) ([]order.Order, error) {
	path := "/orders"
	if status != "" {
		path += "?estado=" + url.QueryEscape(status.String())
	}

	var orders []order.Order
	if err := c.doList(ctx, http.MethodGet, path, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CancelOrder cancels a pending order. The backend enforces the pending-only
// rule as well; local callers should have checked it already.
func (c *Client) CancelOrder(ctx context.Context, orderID int64) error {
	path := fmt.Sprintf("/orders/%d/cancel", orderID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

type updateStatusRequest struct {
	Status order.Status `json:"estado"`
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int64, status order.Status) error {
	path := fmt.Sprintf("/orders/%d/status", orderID)
	return c.do(ctx, http.MethodPut, path, updateStatusRequest{Status: status}, nil)
}

var _ order.API = (*Client)(nil)
var _ checkout.OrdersAPI = (*Client)(nil)
