package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

var (
	_ repository.UnitRepository = (*UnitRepo)(nil)
	_ repository.UnitStore      = (*unitStore)(nil)
)

const unitColumns = `id, code, product_id, status, serial_number, part_number, asset_tag, notes,
	acquired_at, acquired_by_user_id, assigned_to_user_id, acquired_reason, invoice_id, created_at, updated_at`

// unitRow fila de units con columnas opcionales como punteros.
type unitRow struct {
	ID               string     `db:"id"`
	Code             string     `db:"code"`
	ProductID        string     `db:"product_id"`
	Status           string     `db:"status"`
	SerialNumber     *string    `db:"serial_number"`
	PartNumber       *string    `db:"part_number"`
	AssetTag         *string    `db:"asset_tag"`
	Notes            *string    `db:"notes"`
	AcquiredAt       *time.Time `db:"acquired_at"`
	AcquiredByUserID *string    `db:"acquired_by_user_id"`
	AssignedToUserID *string    `db:"assigned_to_user_id"`
	AcquiredReason   *string    `db:"acquired_reason"`
	InvoiceID        *string    `db:"invoice_id"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

func (r *unitRow) toEntity() *entity.Unit {
	return &entity.Unit{
		ID:               r.ID,
		Code:             r.Code,
		ProductID:        r.ProductID,
		Status:           entity.UnitStatus(r.Status),
		SerialNumber:     deref(r.SerialNumber),
		PartNumber:       deref(r.PartNumber),
		AssetTag:         deref(r.AssetTag),
		Notes:            deref(r.Notes),
		AcquiredAt:       r.AcquiredAt,
		AcquiredByUserID: deref(r.AcquiredByUserID),
		AssignedToUserID: deref(r.AssignedToUserID),
		AcquiredReason:   deref(r.AcquiredReason),
		InvoiceID:        deref(r.InvoiceID),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// UnitRepo lectura del registro de unidades (consultas por código QR y listados).
type UnitRepo struct {
	q Querier
}

// NewUnitRepository construye el adaptador de lectura de unidades.
func NewUnitRepository(q Querier) *UnitRepo {
	return &UnitRepo{q: q}
}

// GetByID obtiene una unidad por ID.
func (r *UnitRepo) GetByID(ctx context.Context, id string) (*entity.Unit, error) {
	return getUnit(ctx, r.q, `SELECT `+unitColumns+` FROM units WHERE id = $1`, id)
}

// GetByCode obtiene una unidad por su código.
func (r *UnitRepo) GetByCode(ctx context.Context, code string) (*entity.Unit, error) {
	return getUnit(ctx, r.q, `SELECT `+unitColumns+` FROM units WHERE code = $1`, code)
}

// List lista unidades en orden FIFO (created_at, id).
func (r *UnitRepo) List(ctx context.Context, filter repository.UnitFilter) ([]*entity.Unit, error) {
	l, o := clampPage(filter.Limit, filter.Offset)
	qb := psql.Select(unitColumns).From("units").OrderBy("created_at", "id").Limit(l).Offset(o)
	if filter.ProductID != "" {
		qb = qb.Where("product_id = ?", filter.ProductID)
	}
	if filter.Status != "" {
		qb = qb.Where("status = ?", string(filter.Status))
	}
	sql, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list units: %w", err)
	}
	var rows []*unitRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	list := make([]*entity.Unit, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toEntity())
	}
	return list, nil
}

// unitStore escritura del registro de unidades. Solo lo construye TxRunner.
type unitStore struct {
	q Querier
}

func newUnitStore(q Querier) *unitStore {
	return &unitStore{q: q}
}

func (s *unitStore) Create(ctx context.Context, unit *entity.Unit) error {
	query := `
		INSERT INTO units (id, code, product_id, status, serial_number, part_number, asset_tag, notes, invoice_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.q.Exec(ctx, query,
		unit.ID, unit.Code, unit.ProductID, string(unit.Status),
		nullIfEmpty(unit.SerialNumber), nullIfEmpty(unit.PartNumber), nullIfEmpty(unit.AssetTag),
		nullIfEmpty(unit.Notes), nullIfEmpty(unit.InvoiceID), unit.CreatedAt, unit.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("código de unidad %s: %w", unit.Code, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert unit: %w", err)
	}
	return nil
}

func (s *unitStore) GetByCode(ctx context.Context, code string) (*entity.Unit, error) {
	return getUnit(ctx, s.q, `SELECT `+unitColumns+` FROM units WHERE code = $1`, code)
}

func (s *unitStore) CountByProduct(ctx context.Context, productID string) (int, error) {
	var n int
	if err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM units WHERE product_id = $1`, productID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count units: %w", err)
	}
	return n, nil
}

func (s *unitStore) CountByStatus(ctx context.Context, productID string, status entity.UnitStatus) (int, error) {
	var n int
	err := s.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM units WHERE product_id = $1 AND status = $2`, productID, string(status),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count units by status: %w", err)
	}
	return n, nil
}

// FindOldestInStock lectura sin bloqueo: la exclusión la garantiza TrySetUnitStatus.
func (s *unitStore) FindOldestInStock(ctx context.Context, productID string) (*entity.Unit, error) {
	return getUnit(ctx, s.q, `
		SELECT `+unitColumns+` FROM units
		WHERE product_id = $1 AND status = 'IN_STOCK'
		ORDER BY created_at, id
		LIMIT 1`, productID)
}

// TrySetUnitStatus UPDATE condicionado al estado esperado; 0 filas = otra tx ganó.
func (s *unitStore) TrySetUnitStatus(ctx context.Context, change entity.UnitStatusChange) (bool, error) {
	var acquiredAt *time.Time
	var acquiredBy, assignedTo, reason *string
	if a := change.Assignment; a != nil {
		at := a.AcquiredAt
		acquiredAt = &at
		acquiredBy = nullIfEmpty(a.AcquiredByUserID)
		assignedTo = nullIfEmpty(a.AssignedToUserID)
		reason = nullIfEmpty(a.Reason)
	}
	query := `
		UPDATE units SET status = $3, acquired_at = $4, acquired_by_user_id = $5,
			assigned_to_user_id = $6, acquired_reason = $7, updated_at = $8
		WHERE id = $1 AND status = $2`
	tag, err := s.q.Exec(ctx, query,
		change.UnitID, string(change.From), string(change.To),
		acquiredAt, acquiredBy, assignedTo, reason, change.ChangedAt,
	)
	if err != nil {
		return false, fmt.Errorf("update unit status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func getUnit(ctx context.Context, q Querier, query string, args ...any) (*entity.Unit, error) {
	var row unitRow
	if err := pgxscan.Get(ctx, q, &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get unit: %w", err)
	}
	return row.toEntity(), nil
}
