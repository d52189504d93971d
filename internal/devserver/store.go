package devserver

import (
	"sync"
	"time"

	"venezia-storefront/internal/cart"
	"venezia-storefront/internal/order"
	"venezia-storefront/internal/session"

	"golang.org/x/crypto/bcrypt"
)

// variant is a purchasable product configuration with its own price and
// stock count.
type variant struct {
	ID          int64
	ProductName string
	UnitPrice   float64
	Discount    float64
	Stock       int
	ImageURL    string
	Attributes  map[string]string
}

type account struct {
	User         session.User
	PasswordHash string
}

// store holds the stub backend's state in memory. Good enough for local
// development and integration tests; deliberately not durable.
type store struct {
	mu sync.Mutex

	accounts map[int64]*account
	byEmail  map[string]int64

	variants map[int64]*variant

	carts      map[int64][]cart.Item // keyed by user ID
	nextItemID int64

	orders      map[int64]*order.Order
	orderOwners map[int64]int64
	nextOrderID int64
}

func newStore() *store {
	s := &store{
		accounts:    make(map[int64]*account),
		byEmail:     make(map[string]int64),
		variants:    make(map[int64]*variant),
		carts:       make(map[int64][]cart.Item),
		orders:      make(map[int64]*order.Order),
		orderOwners: make(map[int64]int64),
		nextItemID:  1,
		nextOrderID: 1,
	}
	s.seed()
	return s
}

// seed loads a demo catalog and two accounts (admin / client). Passwords
// are bcrypt-hashed exactly like the real backend stores them.
func (s *store) seed() {
	s.addAccount(session.User{
		ID:     1,
		Email:  "admin@veneziapizzas.co",
		Name:   "Admin",
		RoleID: session.RoleAdmin,
		Profile: session.Profile{
			Address: "Carrera 7 # 12-34",
			City:    "Bogotá",
			Phone:   "3000000001",
		},
	}, "admin123")

	s.addAccount(session.User{
		ID:     2,
		Email:  "cliente@veneziapizzas.co",
		Name:   "Cliente Demo",
		RoleID: session.RoleClient,
		Profile: session.Profile{
			Address: "Calle 10 # 4-21",
			City:    "Bogotá",
			Phone:   "3001234567",
		},
	}, "cliente123")

	for _, v := range []*variant{
		{ID: 11, ProductName: "Pizza Margarita", UnitPrice: 50000, Stock: 10,
			Attributes: map[string]string{"tamaño": "mediana"}},
		{ID: 22, ProductName: "Pizza Pepperoni", UnitPrice: 30000, Stock: 5,
			Attributes: map[string]string{"tamaño": "personal"}},
		{ID: 33, ProductName: "Lasaña Boloñesa", UnitPrice: 42000, Discount: 10, Stock: 8},
	} {
		s.variants[v.ID] = v
	}
}

func (s *store) addAccount(u session.User, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	s.accounts[u.ID] = &account{User: u, PasswordHash: string(hash)}
	s.byEmail[u.Email] = u.ID
}

func (s *store) authenticate(email, password string) *session.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil
	}
	acct := s.accounts[id]
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return nil
	}
	u := acct.User
	return &u
}

func (s *store) user(id int64) *session.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return nil
	}
	u := acct.User
	return &u
}

func (s *store) updateProfile(id int64, p session.Profile) *session.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return nil
	}
	acct.User.Profile = p
	u := acct.User
	return &u
}

func (s *store) cartItems(userID int64) []cart.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	out := make([]cart.Item, len(items))
	copy(out, items)
	return out
}

func (s *store) addToCart(userID, variantID int64, qty int) (cart.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.variants[variantID]
	if !ok {
		return cart.Item{}, errVariantNotFound
	}

	items := s.carts[userID]
	for i := range items {
		if items[i].VariantID == variantID {
			if items[i].Quantity+qty > v.Stock {
				return cart.Item{}, errInsufficientStock
			}
			items[i].Quantity += qty
			return items[i], nil
		}
	}

	if qty > v.Stock {
		return cart.Item{}, errInsufficientStock
	}

	item := cart.Item{
		ID:              s.nextItemID,
		VariantID:       v.ID,
		ProductName:     v.ProductName,
		Quantity:        qty,
		UnitPrice:       v.UnitPrice,
		DiscountPercent: v.Discount,
		StockMax:        v.Stock,
		ImageURL:        v.ImageURL,
		Attributes:      v.Attributes,
	}
	s.nextItemID++
	s.carts[userID] = append(items, item)
	return item, nil
}

func (s *store) updateCartItem(userID, itemID int64, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	for i := range items {
		if items[i].ID == itemID {
			if qty < 1 || qty > items[i].StockMax {
				return errInvalidQuantity
			}
			items[i].Quantity = qty
			return nil
		}
	}
	return errItemNotFound
}

func (s *store) removeCartItem(userID, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	for i := range items {
		if items[i].ID == itemID {
			s.carts[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return errItemNotFound
}

// createOrder consumes the user's cart into a new pending order.
func (s *store) createOrder(userID int64, address, city, phone, postal, method, note string) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	if len(items) == 0 {
		return nil, errCartEmpty
	}

	var total float64
	lines := make([]order.Line, 0, len(items))
	for _, it := range items {
		total += it.LineTotal()
		lines = append(lines, order.Line{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			ImageURL:    it.ImageURL,
		})
	}

	o := &order.Order{
		ID:         s.nextOrderID,
		CreatedAt:  time.Now().UTC(),
		Status:     order.StatusPending,
		Total:      total,
		Address:    address,
		City:       city,
		Phone:      phone,
		PostalCode: postal,
		Method:     method,
		Note:       note,
		Items:      lines,
	}
	s.nextOrderID++
	s.orders[o.ID] = o
	s.orderOwners[o.ID] = userID
	delete(s.carts, userID)
	return o, nil
}

func (s *store) listOrders(userID int64, isAdmin bool, status order.Status) []order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []order.Order
	for id, o := range s.orders {
		if !isAdmin && s.orderOwners[id] != userID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, *o)
	}
	return out
}

func (s *store) getOrder(orderID int64) *order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil
	}
	cp := *o
	return &cp
}

func (s *store) transitionOrder(orderID int64, to order.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return errOrderNotFound
	}
	if !order.CanTransition(o.Status, to) {
		return errInvalidTransition
	}
	o.Status = to
	return nil
}
