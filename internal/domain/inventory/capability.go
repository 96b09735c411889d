package inventory

import "github.com/jhoicas/almacen-api/internal/domain/entity"

// Capability permiso explícito que el llamador entrega al coordinador.
// El valor cero no tiene privilegios elevados.
type Capability struct {
	elevated bool
}

// StandardCapability capacidad sin privilegios.
func StandardCapability() Capability { return Capability{} }

// ElevatedCapability capacidad que permite SCRAP y LOST.
func ElevatedCapability() Capability { return Capability{elevated: true} }

// CapabilityForRole resuelve la capacidad a partir del rol del token.
func CapabilityForRole(role string) Capability {
	if role == entity.RoleAdmin {
		return ElevatedCapability()
	}
	return StandardCapability()
}

// Elevated indica si la capacidad permite acciones privilegiadas.
func (c Capability) Elevated() bool { return c.elevated }
