// Package inventory contiene el ledger de movimientos y el proyector que verifica el stock contra él.
package inventory

import (
	"context"
	"fmt"
	"strings"
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

// Ledger registra movimientos de inventario de forma transaccional con bloqueo de fila
// (SELECT FOR UPDATE) sobre el producto. Es el único que escribe Product.StockQuantity.
type Ledger struct {
	tx        repository.TxRunner
	movements repository.InventoryMovementRepository
	metrics   ports.Metrics
	log       *logger.Logger
	now       func() time.Time
}

// NewLedger construye el ledger. movements es el repositorio sin transacción (listados).
func NewLedger(tx repository.TxRunner, movements repository.InventoryMovementRepository, metrics ports.Metrics, log *logger.Logger) *Ledger {
	return &Ledger{
		tx:        tx,
		movements: movements,
		metrics:   ports.OrNoop(metrics),
		log:       log.Named("ledger"),
		now:       time.Now,
	}
}

// AppendInput entrada de un movimiento. Para adjust, Quantity es el saldo objetivo.
type AppendInput struct {
	ProductID string
	Type      entity.MovementType
	Quantity  decimal.Decimal
	Reason    string
	Reference string
	ActorID   string
}

func (in AppendInput) validate() error {
	if in.ProductID == "" {
		return fmt.Errorf("%w: producto requerido", domain.ErrInvalidInput)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, in.Type)
	}
	if strings.TrimSpace(in.Reason) == "" {
		return fmt.Errorf("%w: motivo requerido", domain.ErrInvalidInput)
	}
	return nil
}

// Append abre su propia transacción y registra el movimiento.
func (l *Ledger) Append(ctx context.Context, in AppendInput) (*entity.InventoryMovement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var mov *entity.InventoryMovement
	err := l.tx.Run(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		mov, err = l.AppendInTx(ctx, repos, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// AppendInTx registra el movimiento con los repositorios de la transacción del llamador (ej. empaque).
// Bloquea el producto, calcula el saldo, inserta el movimiento y escribe la proyección.
func (l *Ledger) AppendInTx(ctx context.Context, repos repository.Repositories, in AppendInput) (*entity.InventoryMovement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	product, err := repos.Products.GetForUpdate(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, in.ProductID)
	}
	res, err := inventory.ApplyMovement(product.StockQuantity, in.Type, in.Quantity)
	if err != nil {
		return nil, err
	}
	mov := &entity.InventoryMovement{
		ID:             uuid.New().String(),
		ProductID:      product.ID,
		Type:           in.Type,
		Quantity:       res.Recorded,
		QuantityBefore: product.StockQuantity,
		QuantityAfter:  res.After,
		Reason:         strings.TrimSpace(in.Reason),
		Reference:      in.Reference,
		ActorID:        in.ActorID,
		CreatedAt:      l.now().UTC(),
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	if err := repos.Products.UpdateStock(ctx, product.ID, res.After); err != nil {
		return nil, err
	}
	l.metrics.ObserveMovement(mov.Type)
	l.log.Info().Str("product_id", product.ID).Str("type", string(mov.Type)).
		Str("quantity", mov.Quantity.String()).Str("before", mov.QuantityBefore.String()).
		Str("after", mov.QuantityAfter.String()).Str("reference", mov.Reference).Msg("movimiento registrado")
	return mov, nil
}

// List lista movimientos filtrados (más recientes primero) y el total para paginar.
func (l *Ledger) List(ctx context.Context, filter entity.MovementFilter, limit, offset int) ([]*entity.InventoryMovement, int, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, 0, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, filter.Type)
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, 0, fmt.Errorf("%w: from posterior a to", domain.ErrInvalidInput)
	}
	return l.movements.List(ctx, filter, limit, offset)
}
