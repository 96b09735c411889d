package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

var (
	_ repository.MovementRepository = (*MovementRepo)(nil)
	_ repository.MovementLedger     = (*movementLedger)(nil)
)

const movementColumns = `id, type, quantity, stock_delta, product_id, unit_id, invoice_id, request_id, reason,
	cost_center, notes, unit_cost, performed_by_user_id, assigned_to_user_id, created_at`

type movementRow struct {
	ID                string           `db:"id"`
	Type              string           `db:"type"`
	Quantity          int              `db:"quantity"`
	StockDelta        int              `db:"stock_delta"`
	ProductID         string           `db:"product_id"`
	UnitID            *string          `db:"unit_id"`
	InvoiceID         *string          `db:"invoice_id"`
	RequestID         *string          `db:"request_id"`
	Reason            *string          `db:"reason"`
	CostCenter        *string          `db:"cost_center"`
	Notes             *string          `db:"notes"`
	UnitCost          *decimal.Decimal `db:"unit_cost"`
	PerformedByUserID *string          `db:"performed_by_user_id"`
	AssignedToUserID  *string          `db:"assigned_to_user_id"`
	CreatedAt         time.Time        `db:"created_at"`
}

func (r *movementRow) toEntity() *entity.Movement {
	return &entity.Movement{
		ID:                r.ID,
		Type:              entity.MovementType(r.Type),
		Quantity:          r.Quantity,
		StockDelta:        r.StockDelta,
		ProductID:         r.ProductID,
		UnitID:            deref(r.UnitID),
		InvoiceID:         deref(r.InvoiceID),
		RequestID:         deref(r.RequestID),
		Reason:            deref(r.Reason),
		CostCenter:        deref(r.CostCenter),
		Notes:             deref(r.Notes),
		UnitCost:          r.UnitCost,
		PerformedByUserID: deref(r.PerformedByUserID),
		AssignedToUserID:  deref(r.AssignedToUserID),
		CreatedAt:         r.CreatedAt,
	}
}

// MovementRepo lectura del libro de movimientos (historial y reportes).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador de lectura del libro.
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	var row movementRow
	err := pgxscan.Get(ctx, r.q, &row, `SELECT `+movementColumns+` FROM stock_movements WHERE id = $1`, id)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return row.toEntity(), nil
}

// List devuelve movimientos en orden cronológico (created_at, id).
func (r *MovementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.Movement, error) {
	l, o := clampPage(filter.Limit, filter.Offset)
	qb := psql.Select(movementColumns).From("stock_movements").OrderBy("created_at", "id").Limit(l).Offset(o)
	if filter.ProductID != "" {
		qb = qb.Where("product_id = ?", filter.ProductID)
	}
	if filter.UnitID != "" {
		qb = qb.Where("unit_id = ?", filter.UnitID)
	}
	if filter.RequestID != "" {
		qb = qb.Where("request_id = ?", filter.RequestID)
	}
	if filter.Type != "" {
		qb = qb.Where("type = ?", string(filter.Type))
	}
	if filter.From != nil {
		qb = qb.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		qb = qb.Where("created_at < ?", *filter.To)
	}
	sql, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list movements: %w", err)
	}
	var rows []*movementRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	list := make([]*entity.Movement, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toEntity())
	}
	return list, nil
}

// CountByUnit número de movimientos registrados para una unidad.
func (r *MovementRepo) CountByUnit(ctx context.Context, unitID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements WHERE unit_id = $1`, unitID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}
	return n, nil
}

// movementLedger solo inserta. Solo lo construye TxRunner.
type movementLedger struct {
	q Querier
}

func newMovementLedger(q Querier) *movementLedger {
	return &movementLedger{q: q}
}

func (l *movementLedger) Append(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO stock_movements (id, type, quantity, stock_delta, product_id, unit_id, invoice_id, request_id,
			reason, cost_center, notes, unit_cost, performed_by_user_id, assigned_to_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := l.q.Exec(ctx, query,
		m.ID, string(m.Type), m.Quantity, m.StockDelta, m.ProductID, nullIfEmpty(m.UnitID),
		nullIfEmpty(m.InvoiceID), nullIfEmpty(m.RequestID), nullIfEmpty(m.Reason), nullIfEmpty(m.CostCenter),
		nullIfEmpty(m.Notes), m.UnitCost, nullIfEmpty(m.PerformedByUserID), nullIfEmpty(m.AssignedToUserID),
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// RequestFulfilled toma un advisory lock de transacción sobre la requisición y consulta
// idx_stock_movements_request. Dos despachos simultáneos se serializan en el lock.
func (l *movementLedger) RequestFulfilled(ctx context.Context, requestID string) (bool, error) {
	if _, err := l.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('request:' || $1))`, requestID); err != nil {
		return false, fmt.Errorf("lock request: %w", err)
	}
	var exists bool
	err := l.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM stock_movements WHERE request_id = $1)`, requestID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("request fulfilled: %w", err)
	}
	return exists, nil
}

func (l *movementLedger) StockBalance(ctx context.Context, productID string) (int, error) {
	var n int
	err := l.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(stock_delta), 0) FROM stock_movements WHERE product_id = $1`, productID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("stock balance: %w", err)
	}
	return n, nil
}
