package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// RequestReasonPrefix prefijo del motivo de los movimientos generados por una requisición.
const RequestReasonPrefix = "Requisição "

// FulfillmentItem línea de una requisición aprobada.
type FulfillmentItem struct {
	ProductID string
	Quantity  int
}

// FulfillmentInput requisición aprobada a despachar.
type FulfillmentInput struct {
	RequestID         string
	Ref               string
	ConsumerID        string
	PerformedByUserID string
	CostCenter        string
	Items             []FulfillmentItem
}

// FulfillmentResult asignaciones realizadas, en el orden de las líneas.
type FulfillmentResult struct {
	RequestID   string
	Allocations []AllocationResult
}

// FulfillRequest asigna todas las líneas de la requisición en una sola transacción.
// No hay despacho parcial: ErrNoUnitInStock o ErrInsufficientStock en cualquier línea revierte todo.
// ErrUnitQuantityMustBeOne se devuelve como error de validación (el usuario debe dividir la línea).
// ErrUnitRaceCondition reintenta la requisición completa.
// Una requisición que ya tiene movimientos se rechaza con ErrConflict.
// Las líneas se bloquean en orden de ProductID; el resultado conserva el orden de entrada.
func (c *AllocationCoordinator) FulfillRequest(ctx context.Context, in FulfillmentInput) (*FulfillmentResult, error) {
	ctx, span := tracer.Start(ctx, "FulfillRequest", trace.WithAttributes(
		attribute.String("request.id", in.RequestID),
		attribute.Int("items", len(in.Items)),
	))
	defer span.End()

	if in.RequestID == "" || len(in.Items) == 0 {
		return nil, endSpan(span, domain.ErrInvalidInput)
	}
	ref := in.Ref
	if ref == "" {
		ref = in.RequestID
	}
	allocations := make([]AllocationInput, 0, len(in.Items))
	for _, item := range in.Items {
		a := AllocationInput{
			ProductID:         item.ProductID,
			Quantity:          item.Quantity,
			ConsumerID:        in.ConsumerID,
			PerformedByUserID: in.PerformedByUserID,
			Reason:            RequestReasonPrefix + ref,
			RequestID:         in.RequestID,
			CostCenter:        in.CostCenter,
		}
		if !domain.ValidID(a.ProductID) || a.Quantity < 1 {
			return nil, endSpan(span, domain.ErrInvalidInput)
		}
		allocations = append(allocations, a)
	}
	// Consumidor único para toda la requisición: se valida una vez.
	if err := c.validateAllocation(ctx, allocations[0]); err != nil {
		return nil, endSpan(span, err)
	}

	// Orden de bloqueo fijo: dos requisiciones con los mismos productos no se cruzan.
	lockOrder := make([]int, len(allocations))
	for i := range lockOrder {
		lockOrder[i] = i
	}
	sort.SliceStable(lockOrder, func(x, y int) bool {
		return allocations[lockOrder[x]].ProductID < allocations[lockOrder[y]].ProductID
	})

	var result *FulfillmentResult
	err := c.withRaceRetry(ctx, "fulfill", func() error {
		return c.txRunner.Run(ctx, func(
			productRepo repository.ProductStockRepository,
			unitStore repository.UnitStore,
			ledger repository.MovementLedger,
		) error {
			fulfilled, err := ledger.RequestFulfilled(ctx, in.RequestID)
			if err != nil {
				return err
			}
			if fulfilled {
				return fmt.Errorf("requisición %s ya despachada: %w", in.RequestID, domain.ErrConflict)
			}
			now := time.Now()
			out := &FulfillmentResult{RequestID: in.RequestID, Allocations: make([]AllocationResult, len(allocations))}
			for _, i := range lockOrder {
				a := allocations[i]
				res, err := c.allocateInTx(ctx, productRepo, unitStore, ledger, a, now)
				if err != nil {
					return fmt.Errorf("línea %d (producto %s): %w", i+1, a.ProductID, err)
				}
				out.Allocations[i] = *res
			}
			result = out
			return nil
		})
	})
	if err != nil {
		return nil, endSpan(span, err)
	}

	c.log.Info().
		Str("request_id", in.RequestID).
		Int("items", len(result.Allocations)).
		Str("consumer_id", in.ConsumerID).
		Msg("requisición despachada")
	return result, nil
}
