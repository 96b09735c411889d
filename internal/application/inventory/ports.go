package inventory

import (
	"context"

	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Es el único camino para obtener puertos de escritura de stock, unidades y libro de movimientos:
// quien no recibe un TxRunner no puede modificarlos.
// Los abortos por serialización o deadlock deben devolverse envueltos en domain.ErrUnitRaceCondition.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductStockRepository,
		unitStore repository.UnitStore,
		ledger repository.MovementLedger,
	) error) error
}
