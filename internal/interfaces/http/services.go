package http

import (
	"context"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/application/inventory"
	"github.com/jhoicas/almacen-api/internal/application/usecase"
	invdomain "github.com/jhoicas/almacen-api/internal/domain/inventory"
)

// InventoryService operaciones del coordinador de asignación expuestas por HTTP.
type InventoryService interface {
	AllocateWithRetry(ctx context.Context, in inventory.AllocationInput) (*inventory.AllocationResult, error)
	ReceiveStock(ctx context.Context, in inventory.IntakeInput) (*inventory.IntakeResult, error)
	FulfillRequest(ctx context.Context, in inventory.FulfillmentInput) (*inventory.FulfillmentResult, error)
	TransitionUnit(ctx context.Context, in inventory.TransitionInput) (*inventory.TransitionResult, error)
	ReconcileProduct(ctx context.Context, productID string, capability invdomain.Capability) (*inventory.ReconcileResult, error)
}

// ProductService catálogo de productos.
type ProductService interface {
	Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ProductResponse, error)
	List(ctx context.Context, status string, page dto.PageRequest) (*dto.ProductListResponse, error)
}

// UnitService consultas de unidades.
type UnitService interface {
	GetByCode(ctx context.Context, code string) (*dto.UnitResponse, error)
	ListByProduct(ctx context.Context, productID, status string, page dto.PageRequest) (*dto.UnitListResponse, error)
	History(ctx context.Context, code string, page dto.PageRequest) (*dto.MovementListResponse, error)
}

// MovementService consultas del libro.
type MovementService interface {
	List(ctx context.Context, q dto.MovementQuery) (*dto.MovementListResponse, error)
}

var (
	_ InventoryService = (*inventory.AllocationCoordinator)(nil)
	_ ProductService   = (*usecase.ProductUseCase)(nil)
	_ UnitService      = (*usecase.UnitUseCase)(nil)
	_ MovementService  = (*usecase.MovementUseCase)(nil)
)

func toAllocationResponse(r *inventory.AllocationResult) dto.AllocationResponse {
	return dto.AllocationResponse{
		ProductID:         r.ProductID,
		Quantity:          r.Quantity,
		RemainingQuantity: r.RemainingQuantity,
		ProductStatus:     r.ProductStatus,
		MovementID:        r.MovementID,
		Unit:              usecase.ToUnitResponse(r.Unit),
	}
}
