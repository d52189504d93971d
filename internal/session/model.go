package session

// Profile holds the shipping subset of a customer account. Field tags match
// the backend payload names.
type Profile struct {
	Address    string `json:"direccion"`
	City       string `json:"ciudad"`
	Region     string `json:"departamento"`
	Phone      string `json:"numero_telefono"`
	PostalCode string `json:"codigo_postal"`
}

// MissingShippingFields returns the backend field names that must be filled
// before an order can be created.
func (p Profile) MissingShippingFields() []string {
	var missing []string
	if p.Address == "" {
		missing = append(missing, "direccion")
	}
	if p.City == "" {
		missing = append(missing, "ciudad")
	}
	if p.Phone == "" {
		missing = append(missing, "numero_telefono")
	}
	return missing
}

// ShippingComplete reports whether address, city and phone are all set.
func (p Profile) ShippingComplete() bool {
	return len(p.MissingShippingFields()) == 0
}

type User struct {
	ID      int64   `json:"id"`
	Email   string  `json:"email"`
	Name    string  `json:"nombre"`
	RoleID  int     `json:"rol_id"`
	Profile Profile `json:"perfil"`
}

const (
	RoleAdmin  = 1
	RoleClient = 3
)

func (u *User) IsAdmin() bool {
	return u != nil && u.RoleID == RoleAdmin
}
