package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	invdomain "github.com/jhoicas/almacen-api/internal/domain/inventory"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
	"github.com/jhoicas/almacen-api/pkg/logger"
)

var tracer = otel.Tracer("almacen-api/inventory")

// DefaultMaxRaceRetries reintentos por defecto ante ErrUnitRaceCondition.
const DefaultMaxRaceRetries = 3

// AllocationCoordinator es el único componente que modifica a la vez el estado de las unidades,
// el contador agregado del producto y el libro de movimientos. Cada operación corre en una sola
// transacción y escribe exactamente un movimiento por cambio de estado.
type AllocationCoordinator struct {
	txRunner       TxRunner
	userRepo       repository.UserRepository
	log            *logger.Logger
	maxRaceRetries int
}

// NewAllocationCoordinator construye el coordinador. maxRaceRetries <= 0 usa DefaultMaxRaceRetries.
func NewAllocationCoordinator(
	txRunner TxRunner,
	userRepo repository.UserRepository,
	log *logger.Logger,
	maxRaceRetries int,
) *AllocationCoordinator {
	if maxRaceRetries <= 0 {
		maxRaceRetries = DefaultMaxRaceRetries
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AllocationCoordinator{
		txRunner:       txRunner,
		userRepo:       userRepo,
		log:            log,
		maxRaceRetries: maxRaceRetries,
	}
}

// AllocationInput intención de consumo: N unidades del producto para un consumidor.
type AllocationInput struct {
	ProductID         string
	Quantity          int
	ConsumerID        string
	PerformedByUserID string // vacío = el propio consumidor
	Reason            string
	RequestID         string
	CostCenter        string
	Notes             string
}

// AllocationResult resultado de una asignación.
// Unit es nil para productos a granel.
type AllocationResult struct {
	ProductID         string
	Unit              *entity.Unit
	Quantity          int
	RemainingQuantity int
	ProductStatus     string
	MovementID        string
}

// AllocateForConsumption asigna stock a un consumidor.
// Producto con unidades: exactamente 1, la unidad IN_STOCK más antigua pasa a ACQUIRED con
// compare-and-swap; si otra operación la tomó primero devuelve ErrUnitRaceCondition sin efectos.
// Producto a granel: decrementa quantity si alcanza, si no ErrInsufficientStock.
func (c *AllocationCoordinator) AllocateForConsumption(ctx context.Context, in AllocationInput) (*AllocationResult, error) {
	ctx, span := tracer.Start(ctx, "AllocateForConsumption", trace.WithAttributes(
		attribute.String("product.id", in.ProductID),
		attribute.Int("quantity", in.Quantity),
	))
	defer span.End()

	if err := c.validateAllocation(ctx, in); err != nil {
		return nil, endSpan(span, err)
	}

	var result *AllocationResult
	err := c.txRunner.Run(ctx, func(
		productRepo repository.ProductStockRepository,
		unitStore repository.UnitStore,
		ledger repository.MovementLedger,
	) error {
		var err error
		result, err = c.allocateInTx(ctx, productRepo, unitStore, ledger, in, time.Now())
		return err
	})
	if err != nil {
		return nil, endSpan(span, err)
	}

	ev := c.log.Info().
		Str("product_id", result.ProductID).
		Int("quantity", result.Quantity).
		Int("remaining", result.RemainingQuantity).
		Str("consumer_id", in.ConsumerID).
		Str("movement_id", result.MovementID)
	if result.Unit != nil {
		ev = ev.Str("unit_code", result.Unit.Code)
	}
	ev.Msg("stock asignado")
	return result, nil
}

// validateAllocation valida la entrada y que el consumidor sea un principal activo.
func (c *AllocationCoordinator) validateAllocation(ctx context.Context, in AllocationInput) error {
	if !domain.ValidID(in.ProductID) || in.ConsumerID == "" || in.Quantity < 1 {
		return domain.ErrInvalidInput
	}
	consumer, err := c.userRepo.GetByID(ctx, in.ConsumerID)
	if err != nil {
		return err
	}
	if consumer == nil {
		return domain.ErrUserNotFound
	}
	if !consumer.Active() {
		return fmt.Errorf("consumidor %s inactivo: %w", consumer.ID, domain.ErrInvalidInput)
	}
	return nil
}

// allocateInTx ejecuta la asignación con los repositorios de la transacción del llamador.
func (c *AllocationCoordinator) allocateInTx(
	ctx context.Context,
	productRepo repository.ProductStockRepository,
	unitStore repository.UnitStore,
	ledger repository.MovementLedger,
	in AllocationInput,
	now time.Time,
) (*AllocationResult, error) {
	product, err := productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	tracked, err := unitStore.CountByProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	if tracked > 0 {
		return c.allocateUnit(ctx, productRepo, unitStore, ledger, product, in, now)
	}
	return c.allocateBulk(ctx, productRepo, ledger, product, in, now)
}

// allocateUnit: selecciona FIFO, compare-and-swap IN_STOCK -> ACQUIRED, movimiento OUT, agregado.
func (c *AllocationCoordinator) allocateUnit(
	ctx context.Context,
	productRepo repository.ProductStockRepository,
	unitStore repository.UnitStore,
	ledger repository.MovementLedger,
	product *entity.Product,
	in AllocationInput,
	now time.Time,
) (*AllocationResult, error) {
	if in.Quantity != 1 {
		return nil, domain.ErrUnitQuantityMustBeOne
	}
	unit, err := unitStore.FindOldestInStock(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, domain.ErrNoUnitInStock
	}

	performedBy := in.PerformedByUserID
	if performedBy == "" {
		performedBy = in.ConsumerID
	}
	assignment := &entity.UnitAssignment{
		AcquiredAt:       now,
		AcquiredByUserID: performedBy,
		AssignedToUserID: in.ConsumerID,
		Reason:           in.Reason,
	}
	ok, err := unitStore.TrySetUnitStatus(ctx, entity.UnitStatusChange{
		UnitID:     unit.ID,
		From:       entity.UnitStatusInStock,
		To:         entity.UnitStatusAcquired,
		Assignment: assignment,
		ChangedAt:  now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		c.log.Warn().Str("unit_id", unit.ID).Str("product_id", product.ID).Msg("carrera por unidad detectada")
		return nil, domain.ErrUnitRaceCondition
	}

	mov := &entity.Movement{
		ID:                uuid.New().String(),
		Type:              entity.MovementTypeOUT,
		Quantity:          1,
		StockDelta:        invdomain.InStockDelta(entity.UnitStatusInStock, entity.UnitStatusAcquired),
		ProductID:         product.ID,
		UnitID:            unit.ID,
		RequestID:         in.RequestID,
		Reason:            in.Reason,
		CostCenter:        in.CostCenter,
		Notes:             in.Notes,
		PerformedByUserID: performedBy,
		AssignedToUserID:  in.ConsumerID,
		CreatedAt:         now,
	}
	if err := ledger.Append(ctx, mov); err != nil {
		return nil, err
	}
	qty, status, err := applyUnitStockDelta(ctx, productRepo, product.ID, mov.StockDelta)
	if err != nil {
		return nil, err
	}

	unit.Status = entity.UnitStatusAcquired
	unit.AcquiredAt = &assignment.AcquiredAt
	unit.AcquiredByUserID = assignment.AcquiredByUserID
	unit.AssignedToUserID = assignment.AssignedToUserID
	unit.AcquiredReason = assignment.Reason
	unit.UpdatedAt = now

	return &AllocationResult{
		ProductID:         product.ID,
		Unit:              unit,
		Quantity:          1,
		RemainingQuantity: qty,
		ProductStatus:     status,
		MovementID:        mov.ID,
	}, nil
}

// allocateBulk: decremento condicional (quantity >= N), movimiento OUT, estado recalculado.
func (c *AllocationCoordinator) allocateBulk(
	ctx context.Context,
	productRepo repository.ProductStockRepository,
	ledger repository.MovementLedger,
	product *entity.Product,
	in AllocationInput,
	now time.Time,
) (*AllocationResult, error) {
	qty, status, err := applyStockDelta(ctx, productRepo, product.ID, -in.Quantity)
	if err != nil {
		return nil, err
	}
	performedBy := in.PerformedByUserID
	if performedBy == "" {
		performedBy = in.ConsumerID
	}
	mov := &entity.Movement{
		ID:                uuid.New().String(),
		Type:              entity.MovementTypeOUT,
		Quantity:          in.Quantity,
		StockDelta:        -in.Quantity,
		ProductID:         product.ID,
		RequestID:         in.RequestID,
		Reason:            in.Reason,
		CostCenter:        in.CostCenter,
		Notes:             in.Notes,
		PerformedByUserID: performedBy,
		AssignedToUserID:  in.ConsumerID,
		CreatedAt:         now,
	}
	if err := ledger.Append(ctx, mov); err != nil {
		return nil, err
	}
	return &AllocationResult{
		ProductID:         product.ID,
		Quantity:          in.Quantity,
		RemainingQuantity: qty,
		ProductStatus:     status,
		MovementID:        mov.ID,
	}, nil
}

// applyStockDelta ajusta el contador agregado y persiste el estado derivado en la misma tx.
func applyStockDelta(ctx context.Context, productRepo repository.ProductStockRepository, productID string, delta int) (int, string, error) {
	qty, err := productRepo.AdjustQuantity(ctx, productID, delta)
	if err != nil {
		return 0, "", err
	}
	status := invdomain.StockStatusFor(qty)
	if err := productRepo.UpdateStatus(ctx, productID, status); err != nil {
		return 0, "", err
	}
	return qty, status, nil
}

// applyUnitStockDelta igual que applyStockDelta para productos con unidades: ahí el contador
// refleja unidades IN_STOCK, así que un decremento imposible indica desincronización, no falta de stock.
func applyUnitStockDelta(ctx context.Context, productRepo repository.ProductStockRepository, productID string, delta int) (int, string, error) {
	qty, status, err := applyStockDelta(ctx, productRepo, productID, delta)
	if errors.Is(err, domain.ErrInsufficientStock) {
		return 0, "", fmt.Errorf("contador agregado desincronizado para %s: %w", productID, domain.ErrConflict)
	}
	return qty, status, err
}

func endSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
