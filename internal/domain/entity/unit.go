package entity

import "time"

// UnitStatus estado del ciclo de vida de una unidad serializada.
type UnitStatus string

const (
	UnitStatusInStock  UnitStatus = "IN_STOCK"
	UnitStatusAcquired UnitStatus = "ACQUIRED"
	UnitStatusInRepair UnitStatus = "IN_REPAIR"
	UnitStatusScrapped UnitStatus = "SCRAPPED"
	UnitStatusLost     UnitStatus = "LOST"
)

// Terminal indica si el estado no admite más transiciones.
func (s UnitStatus) Terminal() bool {
	return s == UnitStatusScrapped || s == UnitStatusLost
}

// Valid indica si s es uno de los estados conocidos.
func (s UnitStatus) Valid() bool {
	switch s {
	case UnitStatusInStock, UnitStatusAcquired, UnitStatusInRepair, UnitStatusScrapped, UnitStatusLost:
		return true
	}
	return false
}

// Unit representa un artículo físico individual de un producto con rastreo por unidad.
// Los campos de asignación (Acquired*, AssignedToUserID) solo tienen valor mientras la unidad está ACQUIRED.
// Nunca se borra: SCRAPPED y LOST se conservan para auditoría.
type Unit struct {
	ID               string
	Code             string // único, se imprime en la etiqueta QR
	ProductID        string
	Status           UnitStatus
	SerialNumber     string
	PartNumber       string
	AssetTag         string
	Notes            string
	AcquiredAt       *time.Time
	AcquiredByUserID string
	AssignedToUserID string
	AcquiredReason   string
	InvoiceID        string // ingreso que creó la unidad
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UnitAssignment datos que se estampan al asignar una unidad a un consumidor.
type UnitAssignment struct {
	AcquiredAt       time.Time
	AcquiredByUserID string
	AssignedToUserID string
	Reason           string
}

// UnitStatusChange cambio condicional de estado (compare-and-swap sobre (UnitID, From)).
// Assignment nil limpia los campos de asignación.
type UnitStatusChange struct {
	UnitID     string
	From       UnitStatus
	To         UnitStatus
	Assignment *UnitAssignment
	ChangedAt  time.Time
}
