package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, sku, name, kind, source_lot_id, presentation, grind_size, package_size, price, cost, stock_quantity, stock_min, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	_, err := r.q.Exec(ctx, `INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`, productArgs(product)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: SKU %s", domain.ErrDuplicate, product.SKU)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// CreateIfAbsent inserta el producto si el SKU no existe. No aborta la transacción ante el conflicto.
func (r *ProductRepo) CreateIfAbsent(ctx context.Context, product *entity.Product) (bool, error) {
	cmd, err := r.q.Exec(ctx, `INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (sku) DO NOTHING`, productArgs(product)...)
	if err != nil {
		return false, fmt.Errorf("insert product if absent: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func productArgs(p *entity.Product) []any {
	var presentation *string
	if p.Presentation != "" {
		s := string(p.Presentation)
		presentation = &s
	}
	return []any{
		p.ID, p.SKU, p.Name, p.Kind, p.SourceLotID, presentation, nullString(p.GrindSize),
		nullString(p.PackageSize), p.Price, p.Cost, p.StockQuantity, p.StockMin, p.CreatedAt, p.UpdatedAt,
	}
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if !isUUID(id) {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetBySKU obtiene un producto por SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
}

// GetForUpdate obtiene el producto y bloquea la fila para update (SELECT FOR UPDATE).
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	if !isUUID(id) {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

// UpdateStock escribe la proyección de stock (solo la usa el ledger).
func (r *ProductRepo) UpdateStock(ctx context.Context, id string, quantity decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx, `UPDATE products SET stock_quantity = $2, updated_at = now() WHERE id = $1`, id, quantity)
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	return nil
}

// UpdatePricing fija precio, costo y punto de reorden.
func (r *ProductRepo) UpdatePricing(ctx context.Context, id string, price, cost *decimal.Decimal, stockMin decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET price = $2, cost = $3, stock_min = $4, updated_at = now() WHERE id = $1`,
		id, price, cost, stockMin,
	)
	if err != nil {
		return fmt.Errorf("update product pricing: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	return nil
}

// List lista productos con paginación en orden de creación.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	limit, offset = pageArgs(limit, offset)
	return r.list(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id LIMIT $1 OFFSET $2`, limit, offset)
}

// ListBelowMinimum lista productos cuyo stock está por debajo de stock_min.
func (r *ProductRepo) ListBelowMinimum(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	limit, offset = pageArgs(limit, offset)
	return r.list(ctx, `SELECT `+productColumns+` FROM products
		WHERE stock_quantity < stock_min ORDER BY (stock_min - stock_quantity) DESC, id LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *ProductRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *ProductRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	var presentation, grind, size *string
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Kind, &p.SourceLotID, &presentation, &grind, &size,
		&p.Price, &p.Cost, &p.StockQuantity, &p.StockMin, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Presentation = entity.Presentation(fromNull(presentation))
	p.GrindSize = fromNull(grind)
	p.PackageSize = fromNull(size)
	return &p, nil
}
