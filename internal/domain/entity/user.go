package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
)

// UserStatusActive estado requerido para recibir stock.
const UserStatusActive = "active"

// User representa un usuario del sistema. La administración de usuarios es externa;
// aquí solo se lee para validar consumidores.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      string // admin, bodeguero, vendedor
	Status    string // active, inactive, suspended
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active indica si el usuario puede operar o recibir stock.
func (u *User) Active() bool {
	return u != nil && u.Status == UserStatusActive
}
