// Package transitions implementa el motor de transiciones de etapa: verde → tostión → tostado →
// almacenado → empacado. Cada operación es una sola transacción con las filas leídas bloqueadas.
package transitions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Trazabilidad-api/internal/application/inventory"
	"github.com/jhoicas/Trazabilidad-api/internal/application/lots"
	"github.com/jhoicas/Trazabilidad-api/internal/application/ports"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/process"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/jhoicas/Trazabilidad-api/transitions")

// Tipos de transición para métricas y trazas.
const (
	KindSendToRoast   = "send_to_roast"
	KindRetrieveRoast = "retrieve_roast"
	KindStoreRoasted  = "store_roasted"
	KindPackage       = "package"
)

// ReasonPackaging motivo de los movimientos creados al empacar como vendible.
const ReasonPackaging = "packaging"

// Engine aplica las transiciones de etapa.
type Engine struct {
	tx      repository.TxRunner
	batches repository.BatchRepository
	deriver LotDeriver
	stock   StockAppender
	metrics ports.Metrics
	log     *logger.Logger
	now     func() time.Time
}

// NewEngine construye el motor. batches es el repositorio sin transacción (listados).
func NewEngine(
	tx repository.TxRunner,
	batches repository.BatchRepository,
	deriver LotDeriver,
	stock StockAppender,
	metrics ports.Metrics,
	log *logger.Logger,
) *Engine {
	return &Engine{
		tx:      tx,
		batches: batches,
		deriver: deriver,
		stock:   stock,
		metrics: ports.OrNoop(metrics),
		log:     log.Named("transitions"),
		now:     time.Now,
	}
}

// observe cierra el span y registra la métrica de la transición.
func (e *Engine) observe(span trace.Span, kind string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	e.metrics.ObserveTransition(kind, time.Since(start), err)
}

// SendToRoastInput datos para enviar café verde a tostión.
type SendToRoastInput struct {
	GreenLotID string
	Weight     decimal.Decimal
	TargetTemp *decimal.Decimal
	ActorID    string
}

// SendToRoastResult tostión creada, lote derivado y lo que queda en el lote verde.
type SendToRoastResult struct {
	Batch           *entity.RoastingBatch
	Lot             *entity.Lot
	SourceRemaining decimal.Decimal
}

// SendToRoast deriva un lote en tostión del lote verde y crea su RoastingBatch.
// El lote verde conserva su etapa; solo se descuenta el peso enviado.
func (e *Engine) SendToRoast(ctx context.Context, in SendToRoastInput) (res *SendToRoastResult, err error) {
	ctx, span := tracer.Start(ctx, "transitions.send_to_roast", trace.WithAttributes(
		attribute.String("lot.id", in.GreenLotID), attribute.String("weight", in.Weight.String())))
	defer func(start time.Time) { e.observe(span, KindSendToRoast, start, err) }(time.Now())

	if in.GreenLotID == "" {
		return nil, fmt.Errorf("%w: lote verde requerido", domain.ErrInvalidInput)
	}
	if !in.Weight.IsPositive() {
		return nil, fmt.Errorf("%w: peso %s debe ser mayor que 0", domain.ErrInvalidQuantity, in.Weight.String())
	}
	if err := process.CheckQuantity("peso", in.Weight); err != nil {
		return nil, err
	}
	if err := checkTemp("temperatura objetivo", in.TargetTemp); err != nil {
		return nil, err
	}

	err = e.tx.Run(ctx, func(ctx context.Context, repos repository.Repositories) error {
		child, parent, err := e.deriver.DeriveChild(ctx, repos.Lots, lots.DeriveInput{
			ParentID:            in.GreenLotID,
			Quantity:            in.Weight,
			ChildStage:          entity.LotStageSentToRoast,
			RequiredParentStage: entity.LotStageGreen,
		})
		if err != nil {
			return err
		}
		now := e.now().UTC()
		batch := &entity.RoastingBatch{
			ID:           uuid.New().String(),
			LotID:        child.ID,
			SourceLotID:  parent.ID,
			QuantitySent: in.Weight,
			TargetTemp:   in.TargetTemp,
			Status:       entity.StatusInRoasting,
			CreatedBy:    in.ActorID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := repos.Batches.CreateRoasting(ctx, batch); err != nil {
			return err
		}
		res = &SendToRoastResult{Batch: batch, Lot: child, SourceRemaining: parent.Quantity}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("roasting_batch_id", res.Batch.ID).Str("lot_id", res.Lot.ID).
		Str("source_lot_id", in.GreenLotID).Str("weight", in.Weight.String()).
		Str("source_remaining", res.SourceRemaining.String()).Msg("café enviado a tostión")
	return res, nil
}

// RetrieveRoastInput datos para retirar una tostión.
type RetrieveRoastInput struct {
	RoastingBatchID string
	RoastedWeight   decimal.Decimal
	RoastLevel      string
	ActualTemp      *decimal.Decimal
	Minutes         *int
	ActorID         string
}

// RetrieveRoast registra el resultado de la tostión, calcula la merma y deja el lote como tostado.
// Una tostión solo se retira una vez.
func (e *Engine) RetrieveRoast(ctx context.Context, in RetrieveRoastInput) (batch *entity.RoastedBatch, err error) {
	ctx, span := tracer.Start(ctx, "transitions.retrieve_roast", trace.WithAttributes(
		attribute.String("roasting_batch.id", in.RoastingBatchID)))
	defer func(start time.Time) { e.observe(span, KindRetrieveRoast, start, err) }(time.Now())

	if in.RoastingBatchID == "" {
		return nil, fmt.Errorf("%w: tostión requerida", domain.ErrInvalidInput)
	}
	if !in.RoastedWeight.IsPositive() {
		return nil, fmt.Errorf("%w: peso tostado %s debe ser mayor que 0", domain.ErrInvalidQuantity, in.RoastedWeight.String())
	}
	if err := process.CheckQuantity("peso tostado", in.RoastedWeight); err != nil {
		return nil, err
	}
	if err := checkTemp("temperatura real", in.ActualTemp); err != nil {
		return nil, err
	}
	level := strings.TrimSpace(in.RoastLevel)
	if level == "" {
		return nil, fmt.Errorf("%w: nivel de tostión requerido", domain.ErrInvalidInput)
	}
	if in.Minutes != nil && *in.Minutes < 0 {
		return nil, fmt.Errorf("%w: minutos negativos", domain.ErrInvalidInput)
	}

	err = e.tx.Run(ctx, func(ctx context.Context, repos repository.Repositories) error {
		roasting, err := repos.Batches.GetRoastingForUpdate(ctx, in.RoastingBatchID)
		if err != nil {
			return err
		}
		if roasting == nil {
			return fmt.Errorf("%w: tostión %s", domain.ErrNotFound, in.RoastingBatchID)
		}
		if roasting.Status != entity.StatusInRoasting {
			return &domain.StateError{Entity: "tostión", ID: roasting.ID, Current: string(roasting.Status), Expected: string(entity.StatusInRoasting)}
		}
		if in.RoastedWeight.GreaterThan(roasting.QuantitySent) {
			return fmt.Errorf("%w: peso tostado %s supera lo enviado %s",
				domain.ErrInvalidQuantity, in.RoastedWeight.String(), roasting.QuantitySent.String())
		}
		if err := advanceLot(ctx, repos.Lots, roasting.LotID, entity.LotStageRoasted, &in.RoastedWeight); err != nil {
			return err
		}
		if err := repos.Batches.AdvanceRoastingStatus(ctx, roasting.ID, entity.StatusInRoasting, entity.StatusCompleted); err != nil {
			return err
		}
		now := e.now().UTC()
		batch = &entity.RoastedBatch{
			ID:                uuid.New().String(),
			RoastingBatchID:   roasting.ID,
			LotID:             roasting.LotID,
			RoastedWeight:     in.RoastedWeight,
			RoastLevel:        level,
			ActualTemp:        in.ActualTemp,
			Minutes:           in.Minutes,
			WeightLossPercent: process.WeightLossPercent(roasting.QuantitySent, in.RoastedWeight),
			Status:            entity.StatusReadyForStorage,
			CreatedBy:         in.ActorID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		return repos.Batches.CreateRoasted(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("roasted_batch_id", batch.ID).Str("roasting_batch_id", in.RoastingBatchID).
		Str("lot_id", batch.LotID).Str("weight_loss_percent", batch.WeightLossPercent.String()).Msg("tostión retirada")
	return batch, nil
}

// StoreRoastedInput datos para almacenar café tostado.
type StoreRoastedInput struct {
	RoastedBatchID string
	Location       string
	ContainerType  string
	ContainerCount int
	Conditions     string
	ActorID        string
}

// StoreRoasted registra el almacenamiento del café tostado.
func (e *Engine) StoreRoasted(ctx context.Context, in StoreRoastedInput) (batch *entity.StorageBatch, err error) {
	ctx, span := tracer.Start(ctx, "transitions.store_roasted", trace.WithAttributes(
		attribute.String("roasted_batch.id", in.RoastedBatchID)))
	defer func(start time.Time) { e.observe(span, KindStoreRoasted, start, err) }(time.Now())

	location := strings.TrimSpace(in.Location)
	containerType := strings.TrimSpace(in.ContainerType)
	switch {
	case in.RoastedBatchID == "":
		return nil, fmt.Errorf("%w: tostado requerido", domain.ErrInvalidInput)
	case location == "" || containerType == "":
		return nil, fmt.Errorf("%w: ubicación y tipo de contenedor son requeridos", domain.ErrInvalidInput)
	case in.ContainerCount <= 0:
		return nil, fmt.Errorf("%w: cantidad de contenedores debe ser mayor que 0", domain.ErrInvalidInput)
	}

	err = e.tx.Run(ctx, func(ctx context.Context, repos repository.Repositories) error {
		roasted, err := repos.Batches.GetRoastedForUpdate(ctx, in.RoastedBatchID)
		if err != nil {
			return err
		}
		if roasted == nil {
			return fmt.Errorf("%w: tostado %s", domain.ErrNotFound, in.RoastedBatchID)
		}
		if roasted.Status != entity.StatusReadyForStorage {
			return &domain.StateError{Entity: "tostado", ID: roasted.ID, Current: string(roasted.Status), Expected: string(entity.StatusReadyForStorage)}
		}
		if err := advanceLot(ctx, repos.Lots, roasted.LotID, entity.LotStageStored, nil); err != nil {
			return err
		}
		if err := repos.Batches.AdvanceRoastedStatus(ctx, roasted.ID, entity.StatusReadyForStorage, entity.StatusStored); err != nil {
			return err
		}
		now := e.now().UTC()
		batch = &entity.StorageBatch{
			ID:             uuid.New().String(),
			RoastedBatchID: roasted.ID,
			LotID:          roasted.LotID,
			Location:       location,
			ContainerType:  containerType,
			ContainerCount: in.ContainerCount,
			Conditions:     strings.TrimSpace(in.Conditions),
			Status:         entity.StatusReadyForPackaging,
			CreatedBy:      in.ActorID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return repos.Batches.CreateStorage(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("storage_batch_id", batch.ID).Str("roasted_batch_id", in.RoastedBatchID).
		Str("lot_id", batch.LotID).Str("location", location).Msg("café tostado almacenado")
	return batch, nil
}

// PackageInput datos para empacar café almacenado.
type PackageInput struct {
	StorageBatchID     string
	Acidity            decimal.Decimal
	Body               decimal.Decimal
	Balance            decimal.Decimal
	Presentation       entity.Presentation
	GrindSize          string
	PackageSize        string
	UnitCount          int
	AddToSellableStock bool
	ActorID            string
}

func (in PackageInput) validate() error {
	switch {
	case in.StorageBatchID == "":
		return fmt.Errorf("%w: almacenamiento requerido", domain.ErrInvalidInput)
	case !in.Presentation.Valid():
		return fmt.Errorf("%w: presentación %q", domain.ErrInvalidInput, in.Presentation)
	case in.Presentation == entity.PresentationGround && strings.TrimSpace(in.GrindSize) == "":
		return fmt.Errorf("%w: el café molido requiere tamaño de molienda", domain.ErrInvalidInput)
	case strings.TrimSpace(in.PackageSize) == "":
		return fmt.Errorf("%w: tamaño de empaque requerido", domain.ErrInvalidInput)
	case in.UnitCount <= 0:
		return fmt.Errorf("%w: unidades debe ser mayor que 0", domain.ErrInvalidInput)
	}
	for name, v := range map[string]decimal.Decimal{"acidez": in.Acidity, "cuerpo": in.Body, "balance": in.Balance} {
		if !process.ValidSensory(v) {
			return fmt.Errorf("%w: %s %s fuera de [0, %s]", domain.ErrInvalidInput, name, v.String(), process.MaxSensoryScore.String())
		}
	}
	return nil
}

// PackageResult empaque creado; Product y Movement solo si se agregó al stock vendible.
type PackageResult struct {
	Batch    *entity.PackagedBatch
	Product  *entity.Product
	Movement *entity.InventoryMovement
}

// Package registra el empaque y el perfil sensorial. Con AddToSellableStock crea o reutiliza el producto
// derivado del linaje y registra la entrada en el ledger, en la misma transacción.
func (e *Engine) Package(ctx context.Context, in PackageInput) (res *PackageResult, err error) {
	ctx, span := tracer.Start(ctx, "transitions.package", trace.WithAttributes(
		attribute.String("storage_batch.id", in.StorageBatchID), attribute.Int("units", in.UnitCount),
		attribute.Bool("sellable", in.AddToSellableStock)))
	defer func(start time.Time) { e.observe(span, KindPackage, start, err) }(time.Now())

	if err := in.validate(); err != nil {
		return nil, err
	}
	grind := strings.TrimSpace(in.GrindSize)
	if in.Presentation == entity.PresentationWholeBean {
		grind = ""
	}
	size := strings.TrimSpace(in.PackageSize)

	err = e.tx.Run(ctx, func(ctx context.Context, repos repository.Repositories) error {
		storage, err := repos.Batches.GetStorageForUpdate(ctx, in.StorageBatchID)
		if err != nil {
			return err
		}
		if storage == nil {
			return fmt.Errorf("%w: almacenamiento %s", domain.ErrNotFound, in.StorageBatchID)
		}
		if storage.Status != entity.StatusReadyForPackaging {
			return &domain.StateError{Entity: "almacenamiento", ID: storage.ID, Current: string(storage.Status), Expected: string(entity.StatusReadyForPackaging)}
		}
		if err := advanceLot(ctx, repos.Lots, storage.LotID, entity.LotStagePackaged, nil); err != nil {
			return err
		}
		if err := repos.Batches.AdvanceStorageStatus(ctx, storage.ID, entity.StatusReadyForPackaging, entity.StatusPackaged); err != nil {
			return err
		}

		now := e.now().UTC()
		batch := &entity.PackagedBatch{
			ID:             uuid.New().String(),
			StorageBatchID: storage.ID,
			LotID:          storage.LotID,
			Acidity:        in.Acidity,
			Body:           in.Body,
			Balance:        in.Balance,
			Score:          process.CupScore(in.Acidity, in.Body, in.Balance),
			Presentation:   in.Presentation,
			GrindSize:      grind,
			PackageSize:    size,
			UnitCount:      in.UnitCount,
			Status:         entity.StatusReadyForSale,
			CreatedBy:      in.ActorID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		res = &PackageResult{Batch: batch}

		if in.AddToSellableStock {
			product, err := e.sellableProduct(ctx, repos, storage.LotID, in.Presentation, grind, size, now)
			if err != nil {
				return err
			}
			batch.ProductID = &product.ID
			res.Product = product
		}
		if err := repos.Batches.CreatePackaged(ctx, batch); err != nil {
			return err
		}
		if res.Product == nil {
			return nil
		}
		mov, err := e.stock.AppendInTx(ctx, repos, inventory.AppendInput{
			ProductID: res.Product.ID,
			Type:      entity.MovementTypeIn,
			Quantity:  decimal.NewFromInt(int64(in.UnitCount)),
			Reason:    ReasonPackaging,
			Reference: batch.ID,
			ActorID:   in.ActorID,
		})
		if err != nil {
			return err
		}
		res.Movement = mov
		res.Product.StockQuantity = mov.QuantityAfter
		return nil
	})
	if err != nil {
		return nil, err
	}
	ev := e.log.Info().Str("packaged_batch_id", res.Batch.ID).Str("lot_id", res.Batch.LotID).
		Str("score", res.Batch.Score.String()).Int("units", res.Batch.UnitCount)
	if res.Product != nil {
		ev = ev.Str("product_id", res.Product.ID).Str("sku", res.Product.SKU)
	}
	ev.Msg("café empacado")
	return res, nil
}

// sellableProduct obtiene o crea el producto lot_derived cuyo SKU sale del lote de cosecha.
// Precio y costo quedan sin definir hasta la operación explícita de precios.
// Un producto con ese SKU que no sea lot_derived del mismo lote raíz es ErrDuplicate.
func (e *Engine) sellableProduct(ctx context.Context, repos repository.Repositories, lotID string,
	presentation entity.Presentation, grind, size string, now time.Time) (*entity.Product, error) {
	lot, err := repos.Lots.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, fmt.Errorf("%w: lote %s del empaque no existe", domain.ErrIntegrityFault, lotID)
	}
	root, err := lots.Root(ctx, repos.Lots, lot)
	if err != nil {
		return nil, err
	}
	sku := process.DeriveSKU(root.Code, presentation, grind, size)
	rootID := root.ID
	candidate := &entity.Product{
		ID:            uuid.New().String(),
		SKU:           sku,
		Name:          productName(root.Attributes, presentation, grind, size),
		Kind:          entity.ProductKindLotDerived,
		SourceLotID:   &rootID,
		Presentation:  presentation,
		GrindSize:     grind,
		PackageSize:   size,
		StockQuantity: decimal.Zero,
		StockMin:      decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := repos.Products.CreateIfAbsent(ctx, candidate); err != nil {
		return nil, err
	}
	product, err := repos.Products.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s no quedó registrado", domain.ErrStoreUnavailable, sku)
	}
	if product.Kind != entity.ProductKindLotDerived || product.SourceLotID == nil || *product.SourceLotID != root.ID {
		return nil, fmt.Errorf("%w: el SKU %s ya pertenece a un producto que no deriva del lote %s", domain.ErrDuplicate, sku, root.Code)
	}
	return product, nil
}

func productName(attrs entity.LotAttributes, presentation entity.Presentation, grind, size string) string {
	parts := []string{"Café", attrs.Farm}
	if attrs.Variety != "" {
		parts = append(parts, attrs.Variety)
	}
	if presentation == entity.PresentationGround {
		parts = append(parts, "molido")
		if grind != "" {
			parts = append(parts, grind)
		}
	} else {
		parts = append(parts, "en grano")
	}
	parts = append(parts, size)
	return strings.Join(parts, " ")
}

// advanceLot bloquea el lote, valida el paso de etapa y lo escribe con control de versión.
// quantity nil conserva la cantidad actual.
func advanceLot(ctx context.Context, repo repository.LotRepository, lotID string, next entity.LotStage, quantity *decimal.Decimal) error {
	lot, err := repo.GetForUpdate(ctx, lotID)
	if err != nil {
		return err
	}
	if lot == nil {
		return fmt.Errorf("%w: lote %s del registro de etapa no existe", domain.ErrIntegrityFault, lotID)
	}
	if !lot.Stage.CanAdvanceTo(next) {
		return &domain.StateError{Entity: "lote", ID: lot.ID, Current: string(lot.Stage), Expected: "etapa previa a " + string(next)}
	}
	qty := lot.Quantity
	if quantity != nil {
		qty = *quantity
	}
	return repo.UpdateQuantityAndStage(ctx, lot.ID, lot.Version, qty, next)
}

// checkTemp valida una temperatura opcional contra NUMERIC(6, 2).
func checkTemp(field string, temp *decimal.Decimal) error {
	if temp != nil && !process.FitsNumeric(*temp, 6, 2) {
		return fmt.Errorf("%w: %s %s admite hasta 2 decimales y 4 dígitos enteros", domain.ErrInvalidInput, field, temp.String())
	}
	return nil
}
