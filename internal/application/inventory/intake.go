package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	invdomain "github.com/jhoicas/almacen-api/internal/domain/inventory"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// IntakeUnitInput un artículo físico recibido.
type IntakeUnitInput struct {
	Code         string // opcional; si está vacío se genera <SKU>-<8 hex>
	SerialNumber string
	PartNumber   string
	AssetTag     string
	Notes        string
}

// IntakeInput ingreso de stock. Exactamente uno de Quantity (granel) o Units (rastreo por unidad).
type IntakeInput struct {
	ProductID         string
	Quantity          int
	Units             []IntakeUnitInput
	InvoiceID         string
	UnitCost          *decimal.Decimal
	Reason            string
	Notes             string
	PerformedByUserID string
}

// IntakeResult resultado de un ingreso.
type IntakeResult struct {
	ProductID     string
	Units         []*entity.Unit
	MovementIDs   []string
	Quantity      int
	ProductStatus string
}

// ReceiveStock registra un ingreso (movimiento IN). Es, junto con RETURN y REPAIR_IN,
// la única vía por la que aumenta el stock.
func (c *AllocationCoordinator) ReceiveStock(ctx context.Context, in IntakeInput) (*IntakeResult, error) {
	ctx, span := tracer.Start(ctx, "ReceiveStock", trace.WithAttributes(
		attribute.String("product.id", in.ProductID),
		attribute.Int("quantity", in.Quantity),
		attribute.Int("units", len(in.Units)),
	))
	defer span.End()

	if err := validateIntake(in); err != nil {
		return nil, endSpan(span, err)
	}

	var result *IntakeResult
	err := c.txRunner.Run(ctx, func(
		productRepo repository.ProductStockRepository,
		unitStore repository.UnitStore,
		ledger repository.MovementLedger,
	) error {
		// Bloquea el producto: dos ingresos concurrentes no pueden decidir distinto si rastrea unidades.
		product, err := productRepo.GetForUpdate(ctx, in.ProductID)
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
		now := time.Now()
		if len(in.Units) > 0 {
			if tracked == 0 && product.Quantity > 0 {
				return fmt.Errorf("producto %s tiene stock a granel: %w", product.ID, domain.ErrInvalidInput)
			}
			result, err = receiveUnits(ctx, productRepo, unitStore, ledger, product, in, now)
			return err
		}
		if tracked > 0 {
			return fmt.Errorf("producto %s rastrea unidades: %w", product.ID, domain.ErrInvalidInput)
		}
		result, err = receiveBulk(ctx, productRepo, ledger, product, in, now)
		return err
	})
	if err != nil {
		return nil, endSpan(span, err)
	}

	c.log.Info().
		Str("product_id", result.ProductID).
		Int("units", len(result.Units)).
		Int("quantity", result.Quantity).
		Str("invoice_id", in.InvoiceID).
		Msg("ingreso de stock registrado")
	return result, nil
}

func validateIntake(in IntakeInput) error {
	if !domain.ValidID(in.ProductID) {
		return domain.ErrInvalidInput
	}
	if (in.Quantity > 0) == (len(in.Units) > 0) || in.Quantity < 0 {
		return domain.ErrInvalidInput
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return domain.ErrInvalidInput
	}
	seen := make(map[string]struct{}, len(in.Units))
	for _, u := range in.Units {
		if u.Code == "" {
			continue
		}
		if _, dup := seen[u.Code]; dup {
			return fmt.Errorf("código %s repetido: %w", u.Code, domain.ErrDuplicate)
		}
		seen[u.Code] = struct{}{}
	}
	return nil
}

func receiveBulk(
	ctx context.Context,
	productRepo repository.ProductStockRepository,
	ledger repository.MovementLedger,
	product *entity.Product,
	in IntakeInput,
	now time.Time,
) (*IntakeResult, error) {
	qty, status, err := applyStockDelta(ctx, productRepo, product.ID, in.Quantity)
	if err != nil {
		return nil, err
	}
	mov := &entity.Movement{
		ID:                uuid.New().String(),
		Type:              entity.MovementTypeIN,
		Quantity:          in.Quantity,
		StockDelta:        in.Quantity,
		ProductID:         product.ID,
		InvoiceID:         in.InvoiceID,
		Reason:            in.Reason,
		Notes:             in.Notes,
		UnitCost:          in.UnitCost,
		PerformedByUserID: in.PerformedByUserID,
		CreatedAt:         now,
	}
	if err := ledger.Append(ctx, mov); err != nil {
		return nil, err
	}
	return &IntakeResult{
		ProductID:     product.ID,
		MovementIDs:   []string{mov.ID},
		Quantity:      qty,
		ProductStatus: status,
	}, nil
}

func receiveUnits(
	ctx context.Context,
	productRepo repository.ProductStockRepository,
	unitStore repository.UnitStore,
	ledger repository.MovementLedger,
	product *entity.Product,
	in IntakeInput,
	now time.Time,
) (*IntakeResult, error) {
	result := &IntakeResult{ProductID: product.ID}
	for _, item := range in.Units {
		code := item.Code
		if code == "" {
			code = NewUnitCode(product.SKU)
		}
		unit := &entity.Unit{
			ID:           uuid.New().String(),
			Code:         code,
			ProductID:    product.ID,
			Status:       entity.UnitStatusInStock,
			SerialNumber: item.SerialNumber,
			PartNumber:   item.PartNumber,
			AssetTag:     item.AssetTag,
			Notes:        item.Notes,
			InvoiceID:    in.InvoiceID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := unitStore.Create(ctx, unit); err != nil {
			return nil, err
		}
		mov := &entity.Movement{
			ID:                uuid.New().String(),
			Type:              entity.MovementTypeIN,
			Quantity:          1,
			StockDelta:        invdomain.InStockDelta("", entity.UnitStatusInStock),
			ProductID:         product.ID,
			UnitID:            unit.ID,
			InvoiceID:         in.InvoiceID,
			Reason:            in.Reason,
			Notes:             in.Notes,
			UnitCost:          in.UnitCost,
			PerformedByUserID: in.PerformedByUserID,
			CreatedAt:         now,
		}
		if err := ledger.Append(ctx, mov); err != nil {
			return nil, err
		}
		result.Units = append(result.Units, unit)
		result.MovementIDs = append(result.MovementIDs, mov.ID)
	}
	qty, status, err := applyStockDelta(ctx, productRepo, product.ID, len(in.Units))
	if err != nil {
		return nil, err
	}
	result.Quantity = qty
	result.ProductStatus = status
	return result, nil
}

// NewUnitCode genera un código legible para etiqueta QR: <SKU>-<8 hex en mayúsculas>.
func NewUnitCode(sku string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	prefix := strings.ToUpper(strings.TrimSpace(sku))
	if prefix == "" {
		prefix = "U"
	}
	return prefix + "-" + suffix
}
