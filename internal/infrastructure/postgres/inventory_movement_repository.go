package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

const movementColumns = `id, seq, product_id, type, quantity, quantity_before, quantity_after, reason, reference, actor_id, created_at`

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx). Solo inserta.
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Create persiste un movimiento y llena Seq con el valor asignado por la secuencia.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	query := `
		INSERT INTO inventory_movements (id, product_id, type, quantity, quantity_before, quantity_after, reason, reference, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.ProductID, m.Type, m.Quantity, m.QuantityBefore, m.QuantityAfter,
		m.Reason, nullString(m.Reference), nullString(m.ActorID), m.CreatedAt,
	).Scan(&m.Seq)
	if err != nil {
		return fmt.Errorf("create inventory movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *InventoryMovementRepo) GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error) {
	if !isUUID(id) {
		return nil, nil
	}
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM inventory_movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// List lista movimientos filtrados, más recientes primero, con el total para paginar.
func (r *InventoryMovementRepo) List(ctx context.Context, filter entity.MovementFilter, limit, offset int) ([]*entity.InventoryMovement, int, error) {
	if filter.ProductID != "" && !isUUID(filter.ProductID) {
		return nil, 0, nil
	}
	limit, offset = pageArgs(limit, offset)
	var conds []string
	var args []any
	pos := 1
	if filter.ProductID != "" {
		conds = append(conds, fmt.Sprintf("product_id = $%d", pos))
		args = append(args, filter.ProductID)
		pos++
	}
	if filter.Type != "" {
		conds = append(conds, fmt.Sprintf("type = $%d", pos))
		args = append(args, filter.Type)
		pos++
	}
	if filter.From != nil {
		conds = append(conds, fmt.Sprintf("created_at >= $%d", pos))
		args = append(args, *filter.From)
		pos++
	}
	if filter.To != nil {
		conds = append(conds, fmt.Sprintf("created_at <= $%d", pos))
		args = append(args, *filter.To)
		pos++
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM inventory_movements`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM inventory_movements%s ORDER BY created_at DESC, seq DESC LIMIT $%d OFFSET $%d`,
		movementColumns, where, pos, pos+1)
	args = append(args, limit, offset)
	list, err := r.list(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListForReplay devuelve todos los movimientos del producto por seq. El seq se asigna con la fila del producto
// bloqueada, así que es el orden de commit aunque created_at venga de relojes distintos.
func (r *InventoryMovementRepo) ListForReplay(ctx context.Context, productID string) ([]*entity.InventoryMovement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM inventory_movements WHERE product_id = $1 ORDER BY seq`, productID)
}

func (r *InventoryMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.InventoryMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.InventoryMovement, error) {
	var m entity.InventoryMovement
	var reference, actor *string
	if err := row.Scan(&m.ID, &m.Seq, &m.ProductID, &m.Type, &m.Quantity, &m.QuantityBefore, &m.QuantityAfter,
		&m.Reason, &reference, &actor, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Reference = fromNull(reference)
	m.ActorID = fromNull(actor)
	return &m, nil
}
