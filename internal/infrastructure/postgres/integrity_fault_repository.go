package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

var _ repository.IntegrityFaultRepository = (*IntegrityFaultRepo)(nil)

// IntegrityFaultRepo historial de divergencias sobre PostgreSQL.
type IntegrityFaultRepo struct {
	q Querier
}

// NewIntegrityFaultRepository construye el adaptador.
func NewIntegrityFaultRepository(q Querier) *IntegrityFaultRepo {
	return &IntegrityFaultRepo{q: q}
}

// Create registra una divergencia.
func (r *IntegrityFaultRepo) Create(ctx context.Context, f *entity.IntegrityFault) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO integrity_faults (id, product_id, stored_quantity, replayed_quantity, movement_count, detail, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.ProductID, f.StoredQuantity, f.ReplayedQuantity, f.MovementCount, f.Detail, f.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("insert integrity fault: %w", err)
	}
	return nil
}

// List lista divergencias, más recientes primero. productID vacío = todas.
func (r *IntegrityFaultRepo) List(ctx context.Context, productID string, limit, offset int) ([]*entity.IntegrityFault, error) {
	limit, offset = pageArgs(limit, offset)
	rows, err := r.q.Query(ctx, `
		SELECT id, product_id, stored_quantity, replayed_quantity, movement_count, detail, detected_at
		FROM integrity_faults WHERE ($1 = '' OR product_id::text = $1)
		ORDER BY detected_at DESC, id LIMIT $2 OFFSET $3`, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list integrity faults: %w", err)
	}
	defer rows.Close()
	var list []*entity.IntegrityFault
	for rows.Next() {
		var f entity.IntegrityFault
		if err := rows.Scan(&f.ID, &f.ProductID, &f.StoredQuantity, &f.ReplayedQuantity, &f.MovementCount,
			&f.Detail, &f.DetectedAt); err != nil {
			return nil, fmt.Errorf("scan integrity fault: %w", err)
		}
		list = append(list, &f)
	}
	return list, rows.Err()
}
