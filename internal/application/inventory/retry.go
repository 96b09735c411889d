package inventory

import (
	"context"
	"errors"

	"github.com/jhoicas/almacen-api/internal/domain"
)

// AllocateWithRetry reintenta la intención completa (nueva selección de unidad) cuando pierde una
// carrera, hasta maxRaceRetries veces. Cualquier otro error se devuelve de inmediato.
func (c *AllocationCoordinator) AllocateWithRetry(ctx context.Context, in AllocationInput) (*AllocationResult, error) {
	var result *AllocationResult
	err := c.withRaceRetry(ctx, "allocate", func() error {
		var err error
		result, err = c.AllocateForConsumption(ctx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// withRaceRetry ejecuta fn y la repite solo ante domain.ErrUnitRaceCondition.
// Cada intento es una transacción nueva: nunca se reintenta un sub-paso.
func (c *AllocationCoordinator) withRaceRetry(ctx context.Context, op string, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !errors.Is(err, domain.ErrUnitRaceCondition) {
			return err
		}
		if attempt >= c.maxRaceRetries {
			c.log.Warn().Str("op", op).Int("attempts", attempt+1).Msg("reintentos agotados por carrera de unidad")
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.log.Debug().Str("op", op).Int("attempt", attempt+1).Msg("reintentando tras carrera de unidad")
	}
}
