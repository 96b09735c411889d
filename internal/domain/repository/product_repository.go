package repository

import (
	"context"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// ProductRepository puerto de lectura y alta de catálogo para Product.
// No expone escritura de Quantity ni Status: eso solo ocurre en ProductStockRepository dentro de una tx.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	List(ctx context.Context, status string, limit, offset int) ([]*entity.Product, error)
}

// ProductStockRepository contador agregado, atado a la transacción del coordinador.
type ProductStockRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// AdjustQuantity suma delta a quantity solo si el resultado no queda negativo.
	// Devuelve la nueva cantidad o domain.ErrInsufficientStock.
	AdjustQuantity(ctx context.Context, id string, delta int) (int, error)
	// SetQuantity fija la cantidad (reconciliación, con la fila bloqueada).
	SetQuantity(ctx context.Context, id string, quantity int) error
	UpdateStatus(ctx context.Context, id, status string) error
}
