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

var _ repository.LotRepository = (*LotRepo)(nil)

const lotColumns = `id, code, stage, quantity, attributes, parent_lot_id, version, created_at, updated_at`

// LotRepo implementación del puerto LotRepository sobre PostgreSQL (usable con pool o tx).
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador de persistencia para lotes. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

// Create persiste un lote nuevo con versión 1.
func (r *LotRepo) Create(ctx context.Context, lot *entity.Lot) error {
	if lot.Version == 0 {
		lot.Version = 1
	}
	query := `
		INSERT INTO lots (` + lotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		lot.ID, lot.Code, lot.Stage, lot.Quantity, lot.Attributes, lot.ParentLotID,
		lot.Version, lot.CreatedAt, lot.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: código de lote %s", domain.ErrDuplicate, lot.Code)
		}
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por ID. Devuelve nil, nil si no existe.
func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.Lot, error) {
	if !isUUID(id) {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1`, id)
}

// GetByCode obtiene un lote por código.
func (r *LotRepo) GetByCode(ctx context.Context, code string) (*entity.Lot, error) {
	return r.getOne(ctx, `SELECT `+lotColumns+` FROM lots WHERE code = $1`, code)
}

// GetForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE).
func (r *LotRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lot, error) {
	if !isUUID(id) {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1 FOR UPDATE`, id)
}

// UpdateQuantityAndStage escribe cantidad y etapa solo si la versión coincide.
func (r *LotRepo) UpdateQuantityAndStage(ctx context.Context, id string, expectedVersion int, quantity decimal.Decimal, stage entity.LotStage) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE lots SET quantity = $3, stage = $4, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2`,
		id, expectedVersion, quantity, stage,
	)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: lote %s quedaría con cantidad %s", domain.ErrInvalidQuantity, id, quantity.String())
		}
		return fmt.Errorf("update lot: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return &domain.StateError{Entity: "lote", ID: id, Current: "modificado concurrentemente", Expected: fmt.Sprintf("versión %d", expectedVersion)}
	}
	return nil
}

// ListByStage lista lotes de una etapa en orden de creación. stage vacío = todas.
func (r *LotRepo) ListByStage(ctx context.Context, stage entity.LotStage, limit, offset int) ([]*entity.Lot, error) {
	limit, offset = pageArgs(limit, offset)
	query := `SELECT ` + lotColumns + ` FROM lots WHERE ($1 = '' OR stage = $1) ORDER BY created_at, id LIMIT $2 OFFSET $3`
	return r.list(ctx, query, string(stage), limit, offset)
}

// ListChildren lista los lotes derivados directamente de parentID.
func (r *LotRepo) ListChildren(ctx context.Context, parentID string) ([]*entity.Lot, error) {
	return r.list(ctx, `SELECT `+lotColumns+` FROM lots WHERE parent_lot_id = $1 ORDER BY created_at, id`, parentID)
}

func (r *LotRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Lot, error) {
	lot, err := scanLot(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return lot, nil
}

func (r *LotRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Lot, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()
	var list []*entity.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		list = append(list, lot)
	}
	return list, rows.Err()
}

func scanLot(row pgx.Row) (*entity.Lot, error) {
	var l entity.Lot
	if err := row.Scan(&l.ID, &l.Code, &l.Stage, &l.Quantity, &l.Attributes, &l.ParentLotID,
		&l.Version, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}
