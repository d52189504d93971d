package order

import "time"

// Status values match the backend's wire labels.
type Status string

const (
	StatusPending   Status = "pendiente"
	StatusPaid      Status = "pagado"
	StatusSeen      Status = "visto"
	StatusPacked    Status = "empacado"
	StatusShipped   Status = "enviado"
	StatusDelivered Status = "entregado"
	StatusCancelled Status = "cancelado"
	StatusRefunded  Status = "reembolsado"
)

func (s Status) String() string { return string(s) }

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusSeen, StatusPacked,
		StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRefunded
}

// Next returns the single next status on the operator-driven fulfilment
// path. Skipping ahead is never offered.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusPending:
		return StatusSeen, true
	case StatusPaid:
		return StatusSeen, true
	case StatusSeen:
		return StatusPacked, true
	case StatusPacked:
		return StatusShipped, true
	case StatusShipped:
		return StatusDelivered, true
	}
	return "", false
}

// CanCancel: cancellation is only available while the order is still
// pending. Everywhere else it must be rejected before any network call.
func (s Status) CanCancel() bool {
	return s == StatusPending
}

// PostPayment reports whether the order has been paid at some point, which
// makes it eligible for an administrative refund.
func (s Status) PostPayment() bool {
	switch s {
	case StatusPaid, StatusSeen, StatusPacked, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

// CanTransition validates a requested transition against the workflow
// rules: strictly sequential fulfilment, cancel only from pending, refund
// from any post-payment state.
func CanTransition(from, to Status) bool {
	if to == StatusCancelled {
		return from.CanCancel()
	}
	if to == StatusRefunded {
		return from.PostPayment()
	}
	if from == StatusPending && to == StatusPaid {
		// Payment confirmation, driven by the gateway rather than the operator.
		return true
	}
	next, ok := from.Next()
	return ok && next == to
}

// Line is a denormalized order line for display.
type Line struct {
	ProductName string  `json:"producto_nombre"`
	Quantity    int     `json:"cantidad"`
	UnitPrice   float64 `json:"precio_unitario"`
	ImageURL    string  `json:"imagen_url"`
}

// Order is immutable once created except for its status.
type Order struct {
	ID         int64     `json:"id"`
	CreatedAt  time.Time `json:"fecha"`
	Status     Status    `json:"estado"`
	Total      float64   `json:"total"`
	Address    string    `json:"direccion_envio"`
	City       string    `json:"ciudad"`
	Phone      string    `json:"telefono"`
	PostalCode string    `json:"codigo_postal,omitempty"`
	Method     string    `json:"metodo_pago"`
	Note       string    `json:"notas_cliente,omitempty"`
	Items      []Line    `json:"items"`
}
