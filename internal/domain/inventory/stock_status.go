package inventory

import "github.com/jhoicas/almacen-api/internal/domain/entity"

// LowStockThreshold cantidad máxima considerada "Stock Low".
const LowStockThreshold = 20

// StockStatusFor deriva el estado del producto a partir de su cantidad.
// Available si q > 20, Stock Low si 0 < q <= 20, Stock Out si q == 0.
func StockStatusFor(quantity int) string {
	switch {
	case quantity > LowStockThreshold:
		return entity.ProductStatusAvailable
	case quantity > 0:
		return entity.ProductStatusStockLow
	default:
		return entity.ProductStatusStockOut
	}
}

// InStockDelta efecto de un cambio de estado de unidad sobre el conteo de unidades IN_STOCK.
func InStockDelta(from, to entity.UnitStatus) int {
	d := 0
	if to == entity.UnitStatusInStock {
		d++
	}
	if from == entity.UnitStatusInStock {
		d--
	}
	return d
}
