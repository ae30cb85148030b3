package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Trazabilidad-api/internal/application/ports"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/inventory"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// StockProjector reconstruye el stock desde el ledger y lo compara con la proyección.
// Nunca corrige: registra la divergencia y la reporta.
type StockProjector struct {
	tx       repository.TxRunner
	products repository.ProductRepository
	faults   repository.IntegrityFaultRepository
	metrics  ports.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// NewStockProjector construye el proyector.
func NewStockProjector(
	tx repository.TxRunner,
	products repository.ProductRepository,
	faults repository.IntegrityFaultRepository,
	metrics ports.Metrics,
	log *logger.Logger,
) *StockProjector {
	return &StockProjector{
		tx:       tx,
		products: products,
		faults:   faults,
		metrics:  ports.OrNoop(metrics),
		log:      log.Named("projector"),
		now:      time.Now,
	}
}

// VerifyReport resultado de verificar un producto.
type VerifyReport struct {
	ProductID     string
	Stored        decimal.Decimal
	Replayed      decimal.Decimal
	MovementCount int
	Consistent    bool
	Detail        string
}

// Verify reproduce todos los movimientos del producto desde cero.
// La lectura bloquea el producto para que ningún movimiento concurrente se cuele entre saldo y ledger.
// Ante divergencia devuelve el reporte junto con *domain.IntegrityError.
func (p *StockProjector) Verify(ctx context.Context, productID string) (*VerifyReport, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: producto requerido", domain.ErrInvalidInput)
	}
	var (
		stored decimal.Decimal
		res    inventory.ReplayResult
		detail string
	)
	err := p.tx.Run(ctx, func(ctx context.Context, repos repository.Repositories) error {
		product, err := repos.Products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
		}
		movements, err := repos.Movements.ListForReplay(ctx, productID)
		if err != nil {
			return err
		}
		stored = product.StockQuantity
		res, detail = inventory.Reconcile(stored, movements)
		return nil
	})
	if err != nil {
		return nil, err
	}

	report := &VerifyReport{
		ProductID:     productID,
		Stored:        stored,
		Replayed:      res.Balance,
		MovementCount: res.Count,
		Consistent:    detail == "",
		Detail:        detail,
	}
	if report.Consistent {
		return report, nil
	}

	fault := &entity.IntegrityFault{
		ID:               uuid.New().String(),
		ProductID:        productID,
		StoredQuantity:   stored,
		ReplayedQuantity: res.Balance,
		MovementCount:    res.Count,
		Detail:           detail,
		DetectedAt:       p.now().UTC(),
	}
	if err := p.faults.Create(ctx, fault); err != nil {
		p.log.Error().Err(err).Str("product_id", productID).Msg("no se pudo registrar la falla de integridad")
	}
	p.metrics.ObserveIntegrityFault(productID)
	p.log.Error().Str("product_id", productID).Str("stored", stored.String()).
		Str("replayed", res.Balance.String()).Int("movements", res.Count).Str("detail", detail).
		Msg("divergencia entre stock y ledger")
	return report, &domain.IntegrityError{ProductID: productID, Stored: stored, Replayed: res.Balance, Detail: detail}
}

// AuditSummary resultado de verificar todos los productos.
type AuditSummary struct {
	Checked int
	Faults  []*VerifyReport
}

// VerifyAll recorre todos los productos por páginas. Las divergencias se acumulan; cualquier otro error corta.
func (p *StockProjector) VerifyAll(ctx context.Context, pageSize int) (*AuditSummary, error) {
	if pageSize <= 0 || pageSize > 500 {
		pageSize = 100
	}
	summary := &AuditSummary{}
	for offset := 0; ; offset += pageSize {
		page, err := p.products.List(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, product := range page {
			report, err := p.Verify(ctx, product.ID)
			if err != nil && !errors.Is(err, domain.ErrIntegrityFault) {
				return nil, err
			}
			summary.Checked++
			if report != nil && !report.Consistent {
				summary.Faults = append(summary.Faults, report)
			}
		}
		if len(page) < pageSize {
			break
		}
	}
	p.log.Info().Int("checked", summary.Checked).Int("faults", len(summary.Faults)).Msg("auditoría de stock terminada")
	return summary, nil
}

// ListFaults historial de divergencias, más recientes primero. productID vacío = todas.
func (p *StockProjector) ListFaults(ctx context.Context, productID string, limit, offset int) ([]*entity.IntegrityFault, error) {
	return p.faults.List(ctx, productID, limit, offset)
}
