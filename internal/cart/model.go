package cart

// Item is the client's cached copy of a backend cart line. The backend owns
// it; the manager refreshes the copy after every mutation.
type Item struct {
	ID              int64             `json:"id"`
	VariantID       int64             `json:"producto_variante_id"`
	ProductName     string            `json:"producto_nombre"`
	Quantity        int               `json:"cantidad"`
	UnitPrice       float64           `json:"precio_unitario"`
	DiscountPercent float64           `json:"descuento"`
	StockMax        int               `json:"stock_max"`
	ImageURL        string            `json:"imagen_url"`
	Attributes      map[string]string `json:"atributos,omitempty"`
}

// LineTotal applies the discount percent to the line.
func (i Item) LineTotal() float64 {
	unit := i.UnitPrice * (100 - i.DiscountPercent) / 100
	return unit * float64(i.Quantity)
}
