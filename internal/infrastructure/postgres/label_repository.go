package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

var _ repository.LabelRepository = (*LabelRepo)(nil)

const labelColumns = `id, code, packaged_batch_id, sequence, snapshot, created_by, created_at`

// LabelRepo etiquetas sobre PostgreSQL. Solo inserta.
type LabelRepo struct {
	q Querier
}

// NewLabelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLabelRepository(q Querier) *LabelRepo {
	return &LabelRepo{q: q}
}

// LockBatch toma un advisory lock de transacción por lote empacado; se libera en commit/rollback.
func (r *LabelRepo) LockBatch(ctx context.Context, packagedBatchID string) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, packagedBatchID); err != nil {
		return fmt.Errorf("lock label batch: %w", err)
	}
	return nil
}

// MaxSequence devuelve la secuencia más alta emitida para el lote (0 si no hay).
func (r *LabelRepo) MaxSequence(ctx context.Context, packagedBatchID string) (int, error) {
	var max int
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence), 0) FROM labels WHERE packaged_batch_id = $1`, packagedBatchID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max label sequence: %w", err)
	}
	return max, nil
}

// Create persiste una etiqueta.
func (r *LabelRepo) Create(ctx context.Context, l *entity.Label) error {
	_, err := r.q.Exec(ctx, `INSERT INTO labels (`+labelColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID, l.Code, l.PackagedBatchID, l.Sequence, l.Snapshot, nullString(l.CreatedBy), l.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: etiqueta %s", domain.ErrDuplicate, l.Code)
		}
		return fmt.Errorf("insert label: %w", err)
	}
	return nil
}

// ListByBatch lista las etiquetas de un lote empacado por secuencia.
func (r *LabelRepo) ListByBatch(ctx context.Context, packagedBatchID string) ([]*entity.Label, error) {
	rows, err := r.q.Query(ctx, `SELECT `+labelColumns+` FROM labels WHERE packaged_batch_id = $1 ORDER BY sequence`, packagedBatchID)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()
	var list []*entity.Label
	for rows.Next() {
		l, err := scanLabel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// GetByCode obtiene una etiqueta por código.
func (r *LabelRepo) GetByCode(ctx context.Context, code string) (*entity.Label, error) {
	l, err := scanLabel(r.q.QueryRow(ctx, `SELECT `+labelColumns+` FROM labels WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get label: %w", err)
	}
	return l, nil
}

func scanLabel(row pgx.Row) (*entity.Label, error) {
	var l entity.Label
	var createdBy *string
	var snapshot []byte
	if err := row.Scan(&l.ID, &l.Code, &l.PackagedBatchID, &l.Sequence, &snapshot, &createdBy, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.Snapshot = snapshot
	l.CreatedBy = fromNull(createdBy)
	return &l, nil
}
