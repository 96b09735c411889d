package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllocateRequest body para POST /api/inventory/allocations.
type AllocateRequest struct {
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	ConsumerID string `json:"consumer_id,omitempty"` // vacío = el usuario autenticado
	Reason     string `json:"reason,omitempty"`
	CostCenter string `json:"cost_center,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// AllocationResponse resultado de una asignación.
type AllocationResponse struct {
	ProductID         string        `json:"product_id"`
	Quantity          int           `json:"quantity"`
	RemainingQuantity int           `json:"remaining_quantity"`
	ProductStatus     string        `json:"product_status"`
	MovementID        string        `json:"movement_id"`
	Unit              *UnitResponse `json:"unit,omitempty"`
}

// IntakeUnitRequest unidad física en un ingreso.
type IntakeUnitRequest struct {
	Code         string `json:"code,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	PartNumber   string `json:"part_number,omitempty"`
	AssetTag     string `json:"asset_tag,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// IntakeRequest body para POST /api/inventory/intake. Quantity o Units, no ambos.
type IntakeRequest struct {
	ProductID string              `json:"product_id"`
	Quantity  int                 `json:"quantity,omitempty"`
	Units     []IntakeUnitRequest `json:"units,omitempty"`
	InvoiceID string              `json:"invoice_id,omitempty"`
	UnitCost  *decimal.Decimal    `json:"unit_cost,omitempty"`
	Reason    string              `json:"reason,omitempty"`
	Notes     string              `json:"notes,omitempty"`
}

// IntakeResponse resultado de un ingreso.
type IntakeResponse struct {
	ProductID     string         `json:"product_id"`
	Quantity      int            `json:"quantity"`
	ProductStatus string         `json:"product_status"`
	MovementIDs   []string       `json:"movement_ids"`
	Units         []UnitResponse `json:"units,omitempty"`
}

// FulfillItemRequest línea de una requisición aprobada.
type FulfillItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// FulfillRequest body para POST /api/inventory/requests/:id/fulfill.
type FulfillRequest struct {
	Ref        string               `json:"ref,omitempty"`
	ConsumerID string               `json:"consumer_id"`
	CostCenter string               `json:"cost_center,omitempty"`
	Items      []FulfillItemRequest `json:"items"`
}

// FulfillResponse asignaciones de la requisición, en el orden de las líneas.
type FulfillResponse struct {
	RequestID   string               `json:"request_id"`
	Allocations []AllocationResponse `json:"allocations"`
}

// UnitActionRequest body para POST /api/units/:code/actions.
type UnitActionRequest struct {
	Action     string `json:"action"`
	Reason     string `json:"reason,omitempty"`
	CostCenter string `json:"cost_center,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// UnitActionResponse resultado de una transición.
type UnitActionResponse struct {
	Unit            UnitResponse `json:"unit"`
	PreviousStatus  string       `json:"previous_status"`
	MovementID      string       `json:"movement_id"`
	ProductQuantity int          `json:"product_quantity"`
	ProductStatus   string       `json:"product_status"`
}

// UnitResponse salida de una unidad.
type UnitResponse struct {
	ID               string     `json:"id"`
	Code             string     `json:"code"`
	ProductID        string     `json:"product_id"`
	Status           string     `json:"status"`
	SerialNumber     string     `json:"serial_number,omitempty"`
	PartNumber       string     `json:"part_number,omitempty"`
	AssetTag         string     `json:"asset_tag,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	AcquiredAt       *time.Time `json:"acquired_at,omitempty"`
	AcquiredByUserID string     `json:"acquired_by_user_id,omitempty"`
	AssignedToUserID string     `json:"assigned_to_user_id,omitempty"`
	AcquiredReason   string     `json:"acquired_reason,omitempty"`
	InvoiceID        string     `json:"invoice_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// UnitListResponse lista paginada de unidades.
type UnitListResponse struct {
	Items []UnitResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// MovementResponse entrada del libro de movimientos.
type MovementResponse struct {
	ID                string           `json:"id"`
	Type              string           `json:"type"`
	Quantity          int              `json:"quantity"`
	StockDelta        int              `json:"stock_delta"`
	ProductID         string           `json:"product_id"`
	UnitID            string           `json:"unit_id,omitempty"`
	InvoiceID         string           `json:"invoice_id,omitempty"`
	RequestID         string           `json:"request_id,omitempty"`
	Reason            string           `json:"reason,omitempty"`
	CostCenter        string           `json:"cost_center,omitempty"`
	Notes             string           `json:"notes,omitempty"`
	UnitCost          *decimal.Decimal `json:"unit_cost,omitempty"`
	PerformedByUserID string           `json:"performed_by_user_id,omitempty"`
	AssignedToUserID  string           `json:"assigned_to_user_id,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// MovementQuery filtros de GET /api/inventory/movements.
type MovementQuery struct {
	ProductID string     `query:"product_id"`
	UnitID    string     `query:"unit_id"`
	RequestID string     `query:"request_id"`
	Type      string     `query:"type"`
	From      *time.Time `query:"-"`
	To        *time.Time `query:"-"`
	PageRequest
}
