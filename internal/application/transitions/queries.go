package transitions

import (
	"context"
	"fmt"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// Estados válidos por etapa para los listados.
var stageStatuses = map[string][]entity.BatchStatus{
	"roasting": {entity.StatusInRoasting, entity.StatusCompleted},
	"roasted":  {entity.StatusReadyForStorage, entity.StatusStored},
	"storage":  {entity.StatusReadyForPackaging, entity.StatusPackaged},
}

func checkStatus(stage string, status entity.BatchStatus) error {
	if status == "" {
		return nil
	}
	for _, s := range stageStatuses[stage] {
		if s == status {
			return nil
		}
	}
	return fmt.Errorf("%w: estado %q no aplica a %s", domain.ErrInvalidInput, status, stage)
}

// ListRoasting tostiones por estado (vacío = todas), para encontrar trabajo pendiente.
func (e *Engine) ListRoasting(ctx context.Context, status entity.BatchStatus, limit, offset int) ([]*entity.RoastingBatch, error) {
	if err := checkStatus("roasting", status); err != nil {
		return nil, err
	}
	return e.batches.ListRoasting(ctx, status, limit, offset)
}

// ListRoasted tostados por estado.
func (e *Engine) ListRoasted(ctx context.Context, status entity.BatchStatus, limit, offset int) ([]*entity.RoastedBatch, error) {
	if err := checkStatus("roasted", status); err != nil {
		return nil, err
	}
	return e.batches.ListRoasted(ctx, status, limit, offset)
}

// ListStorage almacenamientos por estado.
func (e *Engine) ListStorage(ctx context.Context, status entity.BatchStatus, limit, offset int) ([]*entity.StorageBatch, error) {
	if err := checkStatus("storage", status); err != nil {
		return nil, err
	}
	return e.batches.ListStorage(ctx, status, limit, offset)
}

// ListPackaged empaques en orden de creación.
func (e *Engine) ListPackaged(ctx context.Context, limit, offset int) ([]*entity.PackagedBatch, error) {
	return e.batches.ListPackaged(ctx, limit, offset)
}
