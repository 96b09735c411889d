package entity

import "time"

// Estados derivados del producto (función pura de Quantity, ver inventory.StockStatusFor).
const (
	ProductStatusAvailable = "Available"
	ProductStatusStockLow  = "Stock Low"
	ProductStatusStockOut  = "Stock Out"
)

// Product representa un producto del inventario.
// Quantity es el stock a granel o, si el producto rastrea unidades, el número de unidades IN_STOCK.
// Solo el coordinador de asignación modifica Quantity y Status.
type Product struct {
	ID          string
	SKU         string // código único, prefijo de los códigos de unidad
	Name        string
	Description string
	Quantity    int
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
