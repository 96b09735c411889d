package inventory

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	invdomain "github.com/jhoicas/almacen-api/internal/domain/inventory"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// ReconcileResult comparación entre contador agregado, unidades y libro.
// LedgerDrift = QuantityAfter - LedgerBalance: lo que el libro no explica tras la corrección.
type ReconcileResult struct {
	ProductID      string
	UnitTracked    bool
	QuantityBefore int
	QuantityAfter  int
	LedgerBalance  int
	LedgerDrift    int
	Status         string
	Consistent     bool
}

// ReconcileProduct recalcula el contador agregado de un producto (requiere capacidad elevada).
// Con unidades, quantity pasa a ser el conteo de unidades IN_STOCK; en todos los casos el estado
// se recalcula y se compara con el saldo del libro (suma de stock_delta). No escribe movimientos:
// no hay cambio físico de stock. Si las unidades y el libro discrepan, quantity sigue a las unidades
// y la conservación quantity == saldo del libro queda rota: LedgerDrift lo reporta en cada
// reconciliación hasta que un ingreso o transición registrado lo compense.
func (c *AllocationCoordinator) ReconcileProduct(ctx context.Context, productID string, capability invdomain.Capability) (*ReconcileResult, error) {
	ctx, span := tracer.Start(ctx, "ReconcileProduct", trace.WithAttributes(
		attribute.String("product.id", productID),
	))
	defer span.End()

	if !capability.Elevated() {
		return nil, endSpan(span, domain.ErrForbidden)
	}
	if !domain.ValidID(productID) {
		return nil, endSpan(span, domain.ErrInvalidInput)
	}

	var result *ReconcileResult
	err := c.txRunner.Run(ctx, func(
		productRepo repository.ProductStockRepository,
		unitStore repository.UnitStore,
		ledger repository.MovementLedger,
	) error {
		product, err := productRepo.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		tracked, err := unitStore.CountByProduct(ctx, product.ID)
		if err != nil {
			return err
		}
		res := &ReconcileResult{
			ProductID:      product.ID,
			UnitTracked:    tracked > 0,
			QuantityBefore: product.Quantity,
			QuantityAfter:  product.Quantity,
		}
		if res.UnitTracked {
			inStock, err := unitStore.CountByStatus(ctx, product.ID, entity.UnitStatusInStock)
			if err != nil {
				return err
			}
			if inStock != product.Quantity {
				if err := productRepo.SetQuantity(ctx, product.ID, inStock); err != nil {
					return err
				}
			}
			res.QuantityAfter = inStock
		}
		res.Status = invdomain.StockStatusFor(res.QuantityAfter)
		if err := productRepo.UpdateStatus(ctx, product.ID, res.Status); err != nil {
			return err
		}
		res.LedgerBalance, err = ledger.StockBalance(ctx, product.ID)
		if err != nil {
			return err
		}
		res.LedgerDrift = res.QuantityAfter - res.LedgerBalance
		res.Consistent = res.QuantityBefore == res.QuantityAfter && res.LedgerDrift == 0
		result = res
		return nil
	})
	if err != nil {
		return nil, endSpan(span, err)
	}

	ev := c.log.Info()
	if !result.Consistent {
		ev = c.log.Warn()
	}
	ev.Str("product_id", result.ProductID).
		Int("before", result.QuantityBefore).
		Int("after", result.QuantityAfter).
		Int("ledger", result.LedgerBalance).
		Int("ledger_drift", result.LedgerDrift).
		Bool("consistent", result.Consistent).
		Msg("reconciliación de producto")
	return result, nil
}
