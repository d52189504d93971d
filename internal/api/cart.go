package api

import (
	"context"
	"fmt"
	"net/http"

	"venezia-storefront/internal/cart"
)

// GetCart returns the authoritative cart for the current identity.
func (c *Client) GetCart(ctx context.Context) ([]cart.Item, error) {
	var items []cart.Item
	if err := c.doList(ctx, http.MethodGet, "/cart", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

type addCartRequest struct {
	VariantID int64 `json:"producto_variante_id"`
	Quantity  int   `json:"cantidad"`
}

func (c *Client) AddCartItem(ctx context.Context, variantID int64, quantity int) error {
	return c.do(ctx, http.MethodPost, "/cart", addCartRequest{
		VariantID: variantID,
		Quantity:  quantity,
	}, nil)
}

type updateCartRequest struct {
	Quantity int `json:"cantidad"`
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, quantity int) error {
	path := fmt.Sprintf("/cart/%d", itemID)
	return c.do(ctx, http.MethodPut, path, updateCartRequest{Quantity: quantity}, nil)
}

func (c *Client) RemoveCartItem(ctx context.Context, itemID int64) error {
	path := fmt.Sprintf("/cart/%d", itemID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
