package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	invdomain "github.com/jhoicas/almacen-api/internal/domain/inventory"
)

func TestReconcile_RequiereCapacidadElevada(t *testing.T) {
	db := newMemDB()
	product := db.addProduct("X")
	_, err := newCoordinator(db, 0).ReconcileProduct(context.Background(), product, invdomain.StandardCapability())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestReconcile_ProductoConsistente(t *testing.T) {
	db := newMemDB()
	product := db.addProduct("LAPTOP")
	db.addUnit(product, entity.UnitStatusInStock, baseTime)
	db.addUnit(product, entity.UnitStatusAcquired, baseTime.Add(time.Minute))
	before := db.state()

	res, err := newCoordinator(db, 0).ReconcileProduct(context.Background(), product, invdomain.ElevatedCapability())
	require.NoError(t, err)
	assert.True(t, res.UnitTracked)
	assert.True(t, res.Consistent)
	assert.Equal(t, 1, res.QuantityAfter)
	assert.Equal(t, 1, res.LedgerBalance)
	assert.Equal(t, before, db.state())
}

func TestReconcile_CorrigeContadorDesincronizado(t *testing.T) {
	db := newMemDB()
	product := db.addProduct("LAPTOP")
	db.addUnit(product, entity.UnitStatusInStock, baseTime)
	db.addUnit(product, entity.UnitStatusInStock, baseTime.Add(time.Minute))
	p := db.st.products[product]
	p.Quantity, p.Status = 40, entity.ProductStatusAvailable
	db.st.products[product] = p

	res, err := newCoordinator(db, 0).ReconcileProduct(context.Background(), product, invdomain.ElevatedCapability())
	require.NoError(t, err)
	assert.False(t, res.Consistent)
	assert.Equal(t, 40, res.QuantityBefore)
	assert.Equal(t, 2, res.QuantityAfter)
	assert.Equal(t, 2, res.LedgerBalance)
	assert.Zero(t, res.LedgerDrift, "el libro ya explicaba las unidades")
	assert.Equal(t, entity.ProductStatusStockLow, res.Status)

	stored := productByID(t, db, product)
	assert.Equal(t, 2, stored.Quantity)
	assert.Equal(t, entity.ProductStatusStockLow, stored.Status)
	assertInvariants(t, db)
}

func TestReconcile_UnidadesContraLibroNoEscribeAjuste(t *testing.T) {
	db := newMemDB()
	product := db.addProduct("MONITOR")
	lost := db.addUnit(product, entity.UnitStatusInStock, baseTime)
	db.addUnit(product, entity.UnitStatusInStock, baseTime.Add(time.Minute))
	db.addUnit(product, entity.UnitStatusInStock, baseTime.Add(2*time.Minute))
	// Una unidad cambia de estado fuera del motor: ni contador ni libro se enteran.
	u := db.st.units[lost.ID]
	u.Status = entity.UnitStatusLost
	db.st.units[lost.ID] = u
	movementsBefore := len(db.state().movements)
	coord := newCoordinator(db, 0)

	res, err := coord.ReconcileProduct(context.Background(), product, invdomain.ElevatedCapability())
	require.NoError(t, err)
	assert.Equal(t, 3, res.QuantityBefore)
	assert.Equal(t, 2, res.QuantityAfter)
	assert.Equal(t, 3, res.LedgerBalance)
	assert.Equal(t, -1, res.LedgerDrift)
	assert.False(t, res.Consistent)
	assert.Len(t, db.state().movements, movementsBefore, "la reconciliación no escribe en el libro")

	// El contador ya coincide con las unidades pero el libro sigue sin explicarlo.
	res, err = coord.ReconcileProduct(context.Background(), product, invdomain.ElevatedCapability())
	require.NoError(t, err)
	assert.Equal(t, res.QuantityBefore, res.QuantityAfter)
	assert.Equal(t, -1, res.LedgerDrift)
	assert.False(t, res.Consistent)
	assert.Equal(t, 2, productByID(t, db, product).Quantity)
}

func TestReconcile_GranelSoloRecalculaEstado(t *testing.T) {
	db := newMemDB()
	product := db.addProduct("PAPEL")
	db.addBulk(product, 25)
	p := db.st.products[product]
	p.Status = entity.ProductStatusStockOut
	db.st.products[product] = p

	res, err := newCoordinator(db, 0).ReconcileProduct(context.Background(), product, invdomain.ElevatedCapability())
	require.NoError(t, err)
	assert.False(t, res.UnitTracked)
	assert.True(t, res.Consistent)
	assert.Equal(t, entity.ProductStatusAvailable, productByID(t, db, product).Status)

	_, err = newCoordinator(db, 0).ReconcileProduct(context.Background(), uuid.New().String(), invdomain.ElevatedCapability())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = newCoordinator(db, 0).ReconcileProduct(context.Background(), "no-existe", invdomain.ElevatedCapability())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
