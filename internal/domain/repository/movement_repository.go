package repository

import (
	"context"
	"time"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// MovementFilter filtros para consultar el libro de movimientos.
type MovementFilter struct {
	ProductID string
	UnitID    string
	RequestID string
	Type      entity.MovementType
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// MovementRepository puerto de solo lectura del libro (reportes e historial).
type MovementRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	List(ctx context.Context, filter MovementFilter) ([]*entity.Movement, error)
	CountByUnit(ctx context.Context, unitID string) (int, error)
}

// MovementLedger libro de movimientos atado a la transacción del coordinador: solo inserta.
type MovementLedger interface {
	Append(ctx context.Context, movement *entity.Movement) error
	// StockBalance suma de stock_delta de todos los movimientos del producto.
	StockBalance(ctx context.Context, productID string) (int, error)
	// RequestFulfilled indica si la requisición ya tiene movimientos. Hasta el fin de la
	// transacción ningún otro despacho de la misma requisición puede pasar esta comprobación.
	RequestFulfilled(ctx context.Context, requestID string) (bool, error)
}
