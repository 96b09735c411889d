package dto

import "time"

// CreateProductRequest entrada para crear un producto. El stock entra solo por ingresos.
type CreateProductRequest struct {
	SKU         string `json:"sku" validate:"required,min=1,max=100"`
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          string    `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ReconcileResponse resultado de POST /api/products/:id/reconcile.
type ReconcileResponse struct {
	ProductID      string `json:"product_id"`
	UnitTracked    bool   `json:"unit_tracked"`
	QuantityBefore int    `json:"quantity_before"`
	QuantityAfter  int    `json:"quantity_after"`
	LedgerBalance  int    `json:"ledger_balance"`
	LedgerDrift    int    `json:"ledger_drift"`
	Status         string `json:"status"`
	Consistent     bool   `json:"consistent"`
}
