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

var _ repository.BatchRepository = (*BatchRepo)(nil)

const (
	roastingColumns = `id, lot_id, source_lot_id, quantity_sent, target_temp, status, created_by, created_at, updated_at`
	roastedColumns  = `id, roasting_batch_id, lot_id, roasted_weight, roast_level, actual_temp, minutes, weight_loss_percent, status, created_by, created_at, updated_at`
	storageColumns  = `id, roasted_batch_id, lot_id, location, container_type, container_count, conditions, status, created_by, created_at, updated_at`
	packagedColumns = `id, storage_batch_id, lot_id, acidity, body, balance, score, presentation, grind_size, package_size, unit_count, product_id, status, created_by, created_at, updated_at`
)

// BatchRepo registros por etapa sobre PostgreSQL, una tabla por etapa (usable con pool o tx).
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

// advance actualiza el estado solo si el actual es from; si no afectó filas, el registro cambió antes.
func (r *BatchRepo) advance(ctx context.Context, table, entityName, id string, from, to entity.BatchStatus) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE `+table+` SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return fmt.Errorf("advance %s status: %w", table, err)
	}
	if cmd.RowsAffected() == 0 {
		return &domain.StateError{Entity: entityName, ID: id, Current: "distinto de " + string(from), Expected: string(from)}
	}
	return nil
}

// --- Tostión ---

// CreateRoasting persiste un RoastingBatch.
func (r *BatchRepo) CreateRoasting(ctx context.Context, b *entity.RoastingBatch) error {
	_, err := r.q.Exec(ctx, `INSERT INTO roasting_batches (`+roastingColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.LotID, b.SourceLotID, b.QuantitySent, b.TargetTemp, b.Status, nullString(b.CreatedBy), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: tostión para el lote %s", domain.ErrDuplicate, b.LotID)
		}
		return fmt.Errorf("insert roasting batch: %w", err)
	}
	return nil
}

// GetRoasting obtiene un RoastingBatch. nil, nil si no existe.
func (r *BatchRepo) GetRoasting(ctx context.Context, id string) (*entity.RoastingBatch, error) {
	return r.getRoasting(ctx, `SELECT `+roastingColumns+` FROM roasting_batches WHERE id = $1`, id)
}

// GetRoastingForUpdate obtiene y bloquea un RoastingBatch.
func (r *BatchRepo) GetRoastingForUpdate(ctx context.Context, id string) (*entity.RoastingBatch, error) {
	return r.getRoasting(ctx, `SELECT `+roastingColumns+` FROM roasting_batches WHERE id = $1 FOR UPDATE`, id)
}

// AdvanceRoastingStatus avanza el estado de la tostión.
func (r *BatchRepo) AdvanceRoastingStatus(ctx context.Context, id string, from, to entity.BatchStatus) error {
	return r.advance(ctx, "roasting_batches", "tostión", id, from, to)
}

// ListRoasting lista tostiones por estado (vacío = todas) en orden de creación.
func (r *BatchRepo) ListRoasting(ctx context.Context, status entity.BatchStatus, limit, offset int) ([]*entity.RoastingBatch, error) {
	limit, offset = pageArgs(limit, offset)
	rows, err := r.q.Query(ctx, `SELECT `+roastingColumns+` FROM roasting_batches
		WHERE ($1 = '' OR status = $1) ORDER BY created_at, id LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list roasting batches: %w", err)
	}
	defer rows.Close()
	var list []*entity.RoastingBatch
	for rows.Next() {
		b, err := scanRoasting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan roasting batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func (r *BatchRepo) getRoasting(ctx context.Context, query, id string) (*entity.RoastingBatch, error) {
	if !isUUID(id) {
		return nil, nil
	}
	b, err := scanRoasting(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get roasting batch: %w", err)
	}
	return b, nil
}

func scanRoasting(row pgx.Row) (*entity.RoastingBatch, error) {
	var b entity.RoastingBatch
	var createdBy *string
	if err := row.Scan(&b.ID, &b.LotID, &b.SourceLotID, &b.QuantitySent, &b.TargetTemp, &b.Status,
		&createdBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.CreatedBy = fromNull(createdBy)
	return &b, nil
}

// --- Tostado ---

// CreateRoasted persiste un RoastedBatch. La tostión solo puede retirarse una vez (UNIQUE).
func (r *BatchRepo) CreateRoasted(ctx context.Context, b *entity.RoastedBatch) error {
	_, err := r.q.Exec(ctx, `INSERT INTO roasted_batches (`+roastedColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		b.ID, b.RoastingBatchID, b.LotID, b.RoastedWeight, b.RoastLevel, b.ActualTemp, b.Minutes,
		b.WeightLossPercent, b.Status, nullString(b.CreatedBy), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.StateError{Entity: "tostión", ID: b.RoastingBatchID, Current: string(entity.StatusCompleted), Expected: string(entity.StatusInRoasting)}
		}
		return fmt.Errorf("insert roasted batch: %w", err)
	}
	return nil
}

// GetRoasted obtiene un RoastedBatch.
func (r *BatchRepo) GetRoasted(ctx context.Context, id string) (*entity.RoastedBatch, error) {
	return r.getRoasted(ctx, `SELECT `+roastedColumns+` FROM roasted_batches WHERE id = $1`, id)
}

// GetRoastedForUpdate obtiene y bloquea un RoastedBatch.
func (r *BatchRepo) GetRoastedForUpdate(ctx context.Context, id string) (*entity.RoastedBatch, error) {
	return r.getRoasted(ctx, `SELECT `+roastedColumns+` FROM roasted_batches WHERE id = $1 FOR UPDATE`, id)
}

// AdvanceRoastedStatus avanza el estado del tostado.
func (r *BatchRepo) AdvanceRoastedStatus(ctx context.Context, id string, from, to entity.BatchStatus) error {
	return r.advance(ctx, "roasted_batches", "tostado", id, from, to)
}

// ListRoasted lista tostados por estado.
func (r *BatchRepo) ListRoasted(ctx context.Context, status entity.BatchStatus, limit, offset int) ([]*entity.RoastedBatch, error) {
	limit, offset = pageArgs(limit, offset)
	rows, err := r.q.Query(ctx, `SELECT `+roastedColumns+` FROM roasted_batches
		WHERE ($1 = '' OR status = $1) ORDER BY created_at, id LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list roasted batches: %w", err)
	}
	defer rows.Close()
	var list []*entity.RoastedBatch
	for rows.Next() {
		b, err := scanRoasted(rows)
		if err != nil {
			return nil, fmt.Errorf("scan roasted batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func (r *BatchRepo) getRoasted(ctx context.Context, query, id string) (*entity.RoastedBatch, error) {
	if !isUUID(id) {
		return nil, nil
	}
	b, err := scanRoasted(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get roasted batch: %w", err)
	}
	return b, nil
}

func scanRoasted(row pgx.Row) (*entity.RoastedBatch, error) {
	var b entity.RoastedBatch
	var createdBy *string
	if err := row.Scan(&b.ID, &b.RoastingBatchID, &b.LotID, &b.RoastedWeight, &b.RoastLevel, &b.ActualTemp,
		&b.Minutes, &b.WeightLossPercent, &b.Status, &createdBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.CreatedBy = fromNull(createdBy)
	return &b, nil
}

// --- Almacenamiento ---

// CreateStorage persiste un StorageBatch.
func (r *BatchRepo) CreateStorage(ctx context.Context, b *entity.StorageBatch) error {
	_, err := r.q.Exec(ctx, `INSERT INTO storage_batches (`+storageColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.RoastedBatchID, b.LotID, b.Location, b.ContainerType, b.ContainerCount, nullString(b.Conditions),
		b.Status, nullString(b.CreatedBy), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.StateError{Entity: "tostado", ID: b.RoastedBatchID, Current: string(entity.StatusStored), Expected: string(entity.StatusReadyForStorage)}
		}
		return fmt.Errorf("insert storage batch: %w", err)
	}
	return nil
}

// GetStorage obtiene un StorageBatch.
func (r *BatchRepo) GetStorage(ctx context.Context, id string) (*entity.StorageBatch, error) {
	return r.getStorage(ctx, `SELECT `+storageColumns+` FROM storage_batches WHERE id = $1`, id)
}

// GetStorageForUpdate obtiene y bloquea un StorageBatch.
func (r *BatchRepo) GetStorageForUpdate(ctx context.Context, id string) (*entity.StorageBatch, error) {
	return r.getStorage(ctx, `SELECT `+storageColumns+` FROM storage_batches WHERE id = $1 FOR UPDATE`, id)
}

// AdvanceStorageStatus avanza el estado del almacenamiento.
func (r *BatchRepo) AdvanceStorageStatus(ctx context.Context, id string, from, to entity.BatchStatus) error {
	return r.advance(ctx, "storage_batches", "almacenamiento", id, from, to)
}

// ListStorage lista almacenamientos por estado.
func (r *BatchRepo) ListStorage(ctx context.Context, status entity.BatchStatus, limit, offset int) ([]*entity.StorageBatch, error) {
	limit, offset = pageArgs(limit, offset)
	rows, err := r.q.Query(ctx, `SELECT `+storageColumns+` FROM storage_batches
		WHERE ($1 = '' OR status = $1) ORDER BY created_at, id LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list storage batches: %w", err)
	}
	defer rows.Close()
	var list []*entity.StorageBatch
	for rows.Next() {
		b, err := scanStorage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan storage batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func (r *BatchRepo) getStorage(ctx context.Context, query, id string) (*entity.StorageBatch, error) {
	if !isUUID(id) {
		return nil, nil
	}
	b, err := scanStorage(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get storage batch: %w", err)
	}
	return b, nil
}

func scanStorage(row pgx.Row) (*entity.StorageBatch, error) {
	var b entity.StorageBatch
	var conditions, createdBy *string
	if err := row.Scan(&b.ID, &b.RoastedBatchID, &b.LotID, &b.Location, &b.ContainerType, &b.ContainerCount,
		&conditions, &b.Status, &createdBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Conditions = fromNull(conditions)
	b.CreatedBy = fromNull(createdBy)
	return &b, nil
}

// --- Empaque ---

// CreatePackaged persiste un PackagedBatch.
func (r *BatchRepo) CreatePackaged(ctx context.Context, b *entity.PackagedBatch) error {
	_, err := r.q.Exec(ctx, `INSERT INTO packaged_batches (`+packagedColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		b.ID, b.StorageBatchID, b.LotID, b.Acidity, b.Body, b.Balance, b.Score, b.Presentation,
		nullString(b.GrindSize), b.PackageSize, b.UnitCount, b.ProductID, b.Status, nullString(b.CreatedBy),
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.StateError{Entity: "almacenamiento", ID: b.StorageBatchID, Current: string(entity.StatusPackaged), Expected: string(entity.StatusReadyForPackaging)}
		}
		return fmt.Errorf("insert packaged batch: %w", err)
	}
	return nil
}

// GetPackaged obtiene un PackagedBatch.
func (r *BatchRepo) GetPackaged(ctx context.Context, id string) (*entity.PackagedBatch, error) {
	if !isUUID(id) {
		return nil, nil
	}
	b, err := scanPackaged(r.q.QueryRow(ctx, `SELECT `+packagedColumns+` FROM packaged_batches WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get packaged batch: %w", err)
	}
	return b, nil
}

// ListPackaged lista empaques en orden de creación.
func (r *BatchRepo) ListPackaged(ctx context.Context, limit, offset int) ([]*entity.PackagedBatch, error) {
	limit, offset = pageArgs(limit, offset)
	rows, err := r.q.Query(ctx, `SELECT `+packagedColumns+` FROM packaged_batches ORDER BY created_at, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list packaged batches: %w", err)
	}
	defer rows.Close()
	var list []*entity.PackagedBatch
	for rows.Next() {
		b, err := scanPackaged(rows)
		if err != nil {
			return nil, fmt.Errorf("scan packaged batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func scanPackaged(row pgx.Row) (*entity.PackagedBatch, error) {
	var b entity.PackagedBatch
	var grind, createdBy *string
	if err := row.Scan(&b.ID, &b.StorageBatchID, &b.LotID, &b.Acidity, &b.Body, &b.Balance, &b.Score,
		&b.Presentation, &grind, &b.PackageSize, &b.UnitCount, &b.ProductID, &b.Status, &createdBy,
		&b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.GrindSize = fromNull(grind)
	b.CreatedBy = fromNull(createdBy)
	return &b, nil
}
