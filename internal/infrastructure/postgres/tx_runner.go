package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/almacen-api/internal/application/inventory"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

var tracer = otel.Tracer("almacen-api/postgres")

// TxOptions parámetros de cada transacción del coordinador.
type TxOptions struct {
	IsoLevel         pgx.TxIsoLevel
	StatementTimeout time.Duration // 0 = sin SET LOCAL
}

// IsoLevelFromString traduce DB_ISOLATION (read_committed, repeatable_read, serializable).
func IsoLevelFromString(s string) (pgx.TxIsoLevel, error) {
	switch s {
	case "", "read_committed":
		return pgx.ReadCommitted, nil
	case "repeatable_read":
		return pgx.RepeatableRead, nil
	case "serializable":
		return pgx.Serializable, nil
	}
	return "", fmt.Errorf("nivel de aislamiento desconocido: %q", s)
}

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Es el único constructor de los repositorios de escritura (stock, unidades, libro).
type TxRunner struct {
	pool *pgxpool.Pool
	opts TxOptions
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, opts TxOptions) *TxRunner {
	if opts.IsoLevel == "" {
		opts.IsoLevel = pgx.ReadCommitted
	}
	return &TxRunner{pool: pool, opts: opts}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	productRepo repository.ProductStockRepository,
	unitStore repository.UnitStore,
	ledger repository.MovementLedger,
) error) (err error) {
	ctx, span := tracer.Start(ctx, "postgres.tx", trace.WithAttributes(
		attribute.String("db.isolation", string(r.opts.IsoLevel)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: r.opts.IsoLevel, AccessMode: pgx.ReadWrite})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// Rollback con contexto propio: si ctx ya se canceló la tx igual debe cerrarse.
		if rbErr := tx.Rollback(context.Background()); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Error().Err(rbErr).Msg("rollback transaction")
		}
	}()

	if r.opts.StatementTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL statement_timeout = %d", r.opts.StatementTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	if err := fn(newProductStockRepo(tx), newUnitStore(tx), newMovementLedger(tx)); err != nil {
		return classifyTxError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classifyTxError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// classifyTxError marca serialización y deadlock como carrera para que el coordinador
// repita la intención completa. El error de Postgres sigue accesible con errors.As.
func classifyTxError(err error) error {
	if err == nil || errors.Is(err, domain.ErrUnitRaceCondition) || !isSerializationFailure(err) {
		return err
	}
	log.Warn().Err(err).Msg("transacción abortada por serialización, se reintentará")
	return fmt.Errorf("%w: %w", domain.ErrUnitRaceCondition, err)
}
