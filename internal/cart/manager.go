package cart

import (
	"context"
	"sync"

	"venezia-storefront/internal/logger"

	"go.uber.org/zap"
)

// API is the backend surface the manager drives.
type API interface {
	GetCart(ctx context.Context) ([]Item, error)
	AddCartItem(ctx context.Context, variantID int64, quantity int) error
	UpdateCartItem(ctx context.Context, itemID int64, quantity int) error
	RemoveCartItem(ctx context.Context, itemID int64) error
}

// Manager is the single writer for the cart snapshot. Every mutation goes
// through the API and is followed by a refresh, so the visible state always
// reflects the last known-good server state. Other components read through
// Items/Count/Subtotal and never call the cart API directly.
type Manager struct {
	mu            sync.Mutex
	api           API
	items         []Item
	count         int
	authenticated bool
}

func NewManager(api API) *Manager {
	return &Manager{api: api}
}

// OnIdentityChange is wired to the session store's subscription. A new
// identity forces a reload; losing the identity forces an empty cart.
func (m *Manager) OnIdentityChange(ctx context.Context, authenticated bool) {
	m.mu.Lock()
	m.authenticated = authenticated
	if !authenticated {
		m.items = nil
		m.count = 0
	}
	m.mu.Unlock()

	if authenticated {
		m.Refresh(ctx)
	}
}

// Refresh fetches the authoritative cart. With no authenticated identity it
// resets to an empty cart. On fetch failure it logs and leaves the prior
// snapshot untouched; it never propagates the error.
func (m *Manager) Refresh(ctx context.Context) {
	m.mu.Lock()
	authenticated := m.authenticated
	m.mu.Unlock()

	if !authenticated {
		m.mu.Lock()
		m.items = nil
		m.count = 0
		m.mu.Unlock()
		return
	}

	items, err := m.api.GetCart(ctx)
	if err != nil {
		logger.FromCtx(ctx).Error("error refreshing cart", zap.Error(err))
		return
	}

	count := 0
	for _, it := range items {
		count += it.Quantity
	}

	m.mu.Lock()
	m.items = items
	m.count = count
	m.mu.Unlock()
}

// Add puts a variant in the cart and resynchronizes. The error is returned
// so the caller can surface feedback; the snapshot itself is already
// consistent either way.
func (m *Manager) Add(ctx context.Context, variantID int64, quantity int) error {
	if err := m.requireAuth(); err != nil {
		return err
	}
	if quantity < 1 {
		return ErrQuantityOutOfRange
	}

	if err := m.api.AddCartItem(ctx, variantID, quantity); err != nil {
		logger.FromCtx(ctx).Error("error adding to cart",
			zap.Int64("variant_id", variantID),
			zap.Int("quantity", quantity),
			zap.Error(err),
		)
		m.Refresh(ctx)
		return err
	}

	m.Refresh(ctx)
	return nil
}

// UpdateQuantity changes a line's quantity. Requests outside [1, stock_max]
// are rejected locally, without an API call.
func (m *Manager) UpdateQuantity(ctx context.Context, itemID int64, quantity int) error {
	if err := m.requireAuth(); err != nil {
		return err
	}

	m.mu.Lock()
	item, ok := m.findLocked(itemID)
	m.mu.Unlock()
	if !ok {
		return ErrItemNotFound
	}
	if quantity < 1 || quantity > item.StockMax {
		return ErrQuantityOutOfRange
	}

	if err := m.api.UpdateCartItem(ctx, itemID, quantity); err != nil {
		logger.FromCtx(ctx).Error("error updating cart quantity",
			zap.Int64("item_id", itemID),
			zap.Int("quantity", quantity),
			zap.Error(err),
		)
		m.Refresh(ctx)
		return err
	}

	m.Refresh(ctx)
	return nil
}

// Remove deletes a line and resynchronizes.
func (m *Manager) Remove(ctx context.Context, itemID int64) error {
	if err := m.requireAuth(); err != nil {
		return err
	}

	if err := m.api.RemoveCartItem(ctx, itemID); err != nil {
		logger.FromCtx(ctx).Error("error removing from cart",
			zap.Int64("item_id", itemID),
			zap.Error(err),
		)
		m.Refresh(ctx)
		return err
	}

	m.Refresh(ctx)
	return nil
}

// Items returns a copy of the current snapshot.
func (m *Manager) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out
}

// Count is the sum of per-item quantities, recomputed on every refresh.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Subtotal sums discounted line totals over the snapshot.
func (m *Manager) Subtotal() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0.0
	for _, it := range m.items {
		total += it.LineTotal()
	}
	return total
}

// ClearLocal drops the cached snapshot without touching the backend. Used
// after a successful checkout, where the backend has already consumed the
// cart into the order.
func (m *Manager) ClearLocal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = nil
	m.count = 0
}

func (m *Manager) requireAuth() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.authenticated {
		return ErrNotAuthenticated
	}
	return nil
}

func (m *Manager) findLocked(itemID int64) (Item, bool) {
	for _, it := range m.items {
		if it.ID == itemID {
			return it, true
		}
	}
	return Item{}, false
}
