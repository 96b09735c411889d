package repository

import (
	"context"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// UnitFilter filtros para listar unidades.
type UnitFilter struct {
	ProductID string
	Status    entity.UnitStatus // vacío = todos
	Limit     int
	Offset    int
}

// UnitRepository puerto de solo lectura para el registro de unidades.
type UnitRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Unit, error)
	GetByCode(ctx context.Context, code string) (*entity.Unit, error)
	List(ctx context.Context, filter UnitFilter) ([]*entity.Unit, error)
}

// UnitStore registro de unidades atado a la transacción del coordinador.
type UnitStore interface {
	Create(ctx context.Context, unit *entity.Unit) error
	GetByCode(ctx context.Context, code string) (*entity.Unit, error)
	// CountByProduct cuenta todas las unidades creadas alguna vez para el producto.
	CountByProduct(ctx context.Context, productID string) (int, error)
	CountByStatus(ctx context.Context, productID string, status entity.UnitStatus) (int, error)
	// FindOldestInStock devuelve la unidad IN_STOCK más antigua (FIFO por created_at, id) o nil.
	FindOldestInStock(ctx context.Context, productID string) (*entity.Unit, error)
	// TrySetUnitStatus aplica el cambio solo si la unidad sigue en change.From.
	// false significa que otra operación concurrente ganó la carrera.
	TrySetUnitStatus(ctx context.Context, change entity.UnitStatusChange) (bool, error)
}
