package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de evento del libro de movimientos.
type MovementType string

const (
	MovementTypeIN        MovementType = "IN"
	MovementTypeOUT       MovementType = "OUT"
	MovementTypeRETURN    MovementType = "RETURN"
	MovementTypeREPAIROUT MovementType = "REPAIR_OUT"
	MovementTypeREPAIRIN  MovementType = "REPAIR_IN"
	MovementTypeSCRAP     MovementType = "SCRAP"
	MovementTypeLOST      MovementType = "LOST"
)

// Valid indica si t es un tipo de movimiento conocido.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeIN, MovementTypeOUT, MovementTypeRETURN, MovementTypeREPAIROUT,
		MovementTypeREPAIRIN, MovementTypeSCRAP, MovementTypeLOST:
		return true
	}
	return false
}

// Movement entrada inmutable del libro de movimientos: una por cambio de estado o por
// incremento/decremento a granel. Nunca se actualiza ni se elimina.
type Movement struct {
	ID                string
	Type              MovementType
	Quantity          int // 1 para unidades, N a granel
	StockDelta        int // efecto con signo sobre Product.Quantity
	ProductID         string
	UnitID            string
	InvoiceID         string
	RequestID         string
	Reason            string
	CostCenter        string
	Notes             string
	UnitCost          *decimal.Decimal // solo en ingresos valorizados
	PerformedByUserID string
	AssignedToUserID  string
	CreatedAt         time.Time
}
