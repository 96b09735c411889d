package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	invdomain "github.com/jhoicas/almacen-api/internal/domain/inventory"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// TransitionInput acción sobre una unidad identificada por su código.
type TransitionInput struct {
	UnitCode          string
	Action            invdomain.Action
	Reason            string
	CostCenter        string
	Notes             string
	PerformedByUserID string
	Capability        invdomain.Capability
}

// TransitionResult resultado de una transición de unidad.
type TransitionResult struct {
	Unit            *entity.Unit
	PreviousStatus  entity.UnitStatus
	MovementID      string
	ProductQuantity int
	ProductStatus   string
}

// TransitionUnit aplica RETURN, REPAIR_OUT, REPAIR_IN, SCRAP o LOST según la tabla de transiciones.
// Escribe un movimiento y ajusta el contador del producto solo si cambia el número de unidades IN_STOCK.
func (c *AllocationCoordinator) TransitionUnit(ctx context.Context, in TransitionInput) (*TransitionResult, error) {
	ctx, span := tracer.Start(ctx, "TransitionUnit", trace.WithAttributes(
		attribute.String("unit.code", in.UnitCode),
		attribute.String("action", string(in.Action)),
	))
	defer span.End()

	if in.UnitCode == "" {
		return nil, endSpan(span, domain.ErrInvalidInput)
	}
	if _, ok := invdomain.RuleFor(in.Action); !ok {
		return nil, endSpan(span, domain.ErrInvalidInput)
	}

	var result *TransitionResult
	err := c.txRunner.Run(ctx, func(
		productRepo repository.ProductStockRepository,
		unitStore repository.UnitStore,
		ledger repository.MovementLedger,
	) error {
		var err error
		result, err = c.transitionInTx(ctx, productRepo, unitStore, ledger, in, time.Now())
		return err
	})
	if err != nil {
		return nil, endSpan(span, err)
	}

	c.log.Info().
		Str("unit_code", result.Unit.Code).
		Str("action", string(in.Action)).
		Str("from", string(result.PreviousStatus)).
		Str("to", string(result.Unit.Status)).
		Str("movement_id", result.MovementID).
		Msg("transición de unidad aplicada")
	return result, nil
}

func (c *AllocationCoordinator) transitionInTx(
	ctx context.Context,
	productRepo repository.ProductStockRepository,
	unitStore repository.UnitStore,
	ledger repository.MovementLedger,
	in TransitionInput,
	now time.Time,
) (*TransitionResult, error) {
	unit, err := unitStore.GetByCode(ctx, in.UnitCode)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, domain.ErrNotFound
	}
	rule, err := invdomain.Transition(unit.Status, in.Action, in.Capability)
	if err != nil {
		return nil, err
	}

	from := unit.Status
	ok, err := unitStore.TrySetUnitStatus(ctx, entity.UnitStatusChange{
		UnitID:    unit.ID,
		From:      from,
		To:        rule.To,
		ChangedAt: now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		c.log.Warn().Str("unit_id", unit.ID).Str("action", string(in.Action)).Msg("carrera por unidad detectada")
		return nil, domain.ErrUnitRaceCondition
	}

	mov := &entity.Movement{
		ID:                uuid.New().String(),
		Type:              rule.Movement,
		Quantity:          1,
		StockDelta:        invdomain.InStockDelta(from, rule.To),
		ProductID:         unit.ProductID,
		UnitID:            unit.ID,
		Reason:            in.Reason,
		CostCenter:        in.CostCenter,
		Notes:             in.Notes,
		PerformedByUserID: in.PerformedByUserID,
		AssignedToUserID:  unit.AssignedToUserID, // quien tenía la unidad
		CreatedAt:         now,
	}
	if err := ledger.Append(ctx, mov); err != nil {
		return nil, err
	}

	var qty int
	var status string
	if mov.StockDelta != 0 {
		qty, status, err = applyUnitStockDelta(ctx, productRepo, unit.ProductID, mov.StockDelta)
		if err != nil {
			return nil, err
		}
	} else {
		product, err := productRepo.GetByID(ctx, unit.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.ErrNotFound
		}
		qty, status = product.Quantity, product.Status
	}

	unit.Status = rule.To
	unit.AcquiredAt = nil
	unit.AcquiredByUserID = ""
	unit.AssignedToUserID = ""
	unit.AcquiredReason = ""
	unit.UpdatedAt = now

	return &TransitionResult{
		Unit:            unit,
		PreviousStatus:  from,
		MovementID:      mov.ID,
		ProductQuantity: qty,
		ProductStatus:   status,
	}, nil
}
