package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository      = (*ProductRepo)(nil)
	_ repository.ProductStockRepository = (*productStockRepo)(nil)
)

const productColumns = `id, sku, name, description, quantity, status, created_at, updated_at`

// ProductRepo catálogo de productos sobre PostgreSQL (pool o tx).
// No escribe quantity ni status después del alta.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (id, sku, name, description, quantity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.SKU, product.Name, product.Description,
		product.Quantity, product.Status, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return getProduct(ctx, r.q, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetBySKU obtiene un producto por SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return getProduct(ctx, r.q, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
}

// List lista productos ordenados por nombre, opcionalmente filtrados por estado derivado.
func (r *ProductRepo) List(ctx context.Context, status string, limit, offset int) ([]*entity.Product, error) {
	l, o := clampPage(limit, offset)
	qb := psql.Select(productColumns).From("products").OrderBy("name", "id").Limit(l).Offset(o)
	if status != "" {
		qb = qb.Where("status = ?", status)
	}
	sql, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list products: %w", err)
	}
	var list []*entity.Product
	if err := pgxscan.Select(ctx, r.q, &list, sql, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return list, nil
}

// productStockRepo contador agregado. Solo lo construye TxRunner.
type productStockRepo struct {
	q Querier
}

func newProductStockRepo(q Querier) *productStockRepo {
	return &productStockRepo{q: q}
}

func (r *productStockRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return getProduct(ctx, r.q, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r *productStockRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return getProduct(ctx, r.q, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

// AdjustQuantity decremento/incremento condicional: la fila no se toca si quedaría negativa.
func (r *productStockRepo) AdjustQuantity(ctx context.Context, id string, delta int) (int, error) {
	query := `
		UPDATE products SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING quantity`
	var qty int
	err := r.q.QueryRow(ctx, query, id, delta).Scan(&qty)
	if err == nil {
		return qty, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("adjust quantity: %w", err)
	}
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check product: %w", err)
	}
	if !exists {
		return 0, domain.ErrNotFound
	}
	return 0, domain.ErrInsufficientStock
}

func (r *productStockRepo) SetQuantity(ctx context.Context, id string, quantity int) error {
	if quantity < 0 {
		return domain.ErrInvalidInput
	}
	tag, err := r.q.Exec(ctx, `UPDATE products SET quantity = $2, updated_at = now() WHERE id = $1`, id, quantity)
	if err != nil {
		return fmt.Errorf("set quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *productStockRepo) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.q.Exec(ctx, `UPDATE products SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update product status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func getProduct(ctx context.Context, q Querier, query string, args ...any) (*entity.Product, error) {
	var p entity.Product
	err := q.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.Quantity, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}
