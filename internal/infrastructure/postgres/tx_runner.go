package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var _ repository.TxRunner = (*TxRunner)(nil)

var tracer = otel.Tracer("github.com/jhoicas/Trazabilidad-api/postgres")

// TxObserver recibe la duración y el resultado de cada transacción (métricas).
type TxObserver interface {
	ObserveTx(d time.Duration, err error)
}

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool     *pgxpool.Pool
	observer TxObserver
}

// NewTxRunner construye el runner con el pool. observer puede ser nil.
func NewTxRunner(pool *pgxpool.Pool, observer TxObserver) *TxRunner {
	return &TxRunner{pool: pool, observer: observer}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los errores de negocio de fn se devuelven tal cual; el resto se reporta como ErrStoreUnavailable.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	ctx, span := tracer.Start(ctx, "postgres.tx")
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if r.observer != nil {
			r.observer.ObserveTx(time.Since(start), err)
		}
	}()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", domain.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := repository.Repositories{
		Lots:      NewLotRepository(tx),
		Batches:   NewBatchRepository(tx),
		Products:  NewProductRepository(tx),
		Movements: NewInventoryMovementRepository(tx),
		Labels:    NewLabelRepository(tx),
	}

	if err := fn(ctx, repos); err != nil {
		return storeError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit transaction: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// storeError conserva los errores de negocio y oculta el detalle del almacenamiento del resto.
func storeError(err error) error {
	if domain.IsBusinessError(err) || errors.Is(err, domain.ErrIntegrityFault) || errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
