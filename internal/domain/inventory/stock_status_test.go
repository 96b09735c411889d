package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/inventory"
)

func TestStockStatusFor(t *testing.T) {
	cases := map[int]string{
		0:   entity.ProductStatusStockOut,
		1:   entity.ProductStatusStockLow,
		20:  entity.ProductStatusStockLow,
		21:  entity.ProductStatusAvailable,
		500: entity.ProductStatusAvailable,
	}
	for q, want := range cases {
		assert.Equal(t, want, inventory.StockStatusFor(q), "cantidad %d", q)
	}
}

func TestInStockDelta(t *testing.T) {
	assert.Equal(t, -1, inventory.InStockDelta(entity.UnitStatusInStock, entity.UnitStatusAcquired))
	assert.Equal(t, 1, inventory.InStockDelta(entity.UnitStatusAcquired, entity.UnitStatusInStock))
	assert.Equal(t, 1, inventory.InStockDelta(entity.UnitStatusInRepair, entity.UnitStatusInStock))
	assert.Equal(t, 0, inventory.InStockDelta(entity.UnitStatusAcquired, entity.UnitStatusInRepair))
	assert.Equal(t, 0, inventory.InStockDelta(entity.UnitStatusAcquired, entity.UnitStatusScrapped))
	assert.Equal(t, -1, inventory.InStockDelta(entity.UnitStatusInStock, entity.UnitStatusLost))
}
