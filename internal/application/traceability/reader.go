// Package traceability arma la vista de procedencia de un empaque y emite sus etiquetas.
// Solo lee lotes y registros de etapa; las etiquetas son append-only.
package traceability

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Trazabilidad-api/internal/application/lots"
	"github.com/jhoicas/Trazabilidad-api/internal/application/ports"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/process"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

// MaxLabelsPerRequest tope de etiquetas por solicitud.
const MaxLabelsPerRequest = 500

// Reader lector de trazabilidad y emisor de etiquetas.
type Reader struct {
	tx           repository.TxRunner
	lots         repository.LotRepository
	batches      repository.BatchRepository
	products     repository.ProductRepository
	labels       repository.LabelRepository
	renderer     LabelRenderer
	archive      ports.LabelArchive
	traceBaseURL string
	log          *logger.Logger
	now          func() time.Time
}

// Config dependencias opcionales del lector. Renderer nil deshabilita el PDF; Archive nil no archiva.
type Config struct {
	Renderer     LabelRenderer
	Archive      ports.LabelArchive
	TraceBaseURL string
}

// NewReader construye el lector con repositorios sin transacción.
func NewReader(
	tx repository.TxRunner,
	lotRepo repository.LotRepository,
	batches repository.BatchRepository,
	products repository.ProductRepository,
	labels repository.LabelRepository,
	cfg Config,
	log *logger.Logger,
) *Reader {
	return &Reader{
		tx:           tx,
		lots:         lotRepo,
		batches:      batches,
		products:     products,
		labels:       labels,
		renderer:     cfg.Renderer,
		archive:      cfg.Archive,
		traceBaseURL: strings.TrimRight(cfg.TraceBaseURL, "/"),
		log:          log.Named("traceability"),
		now:          time.Now,
	}
}

// TraceBaseURL prefijo público de los QR.
func (r *Reader) TraceBaseURL() string { return r.traceBaseURL }

// Provenance arma la vista aplanada del empaque: cosecha, linaje, tostión, almacenamiento, perfil y SKU.
func (r *Reader) Provenance(ctx context.Context, packagedBatchID string) (*ProvenanceView, error) {
	packaged, err := r.batches.GetPackaged(ctx, packagedBatchID)
	if err != nil {
		return nil, err
	}
	if packaged == nil {
		return nil, fmt.Errorf("%w: empaque %s", domain.ErrNotFound, packagedBatchID)
	}
	storage, err := r.batches.GetStorage(ctx, packaged.StorageBatchID)
	if err != nil {
		return nil, err
	}
	if storage == nil {
		return nil, fmt.Errorf("%w: almacenamiento %s del empaque %s no existe", domain.ErrIntegrityFault, packaged.StorageBatchID, packaged.ID)
	}
	roasted, err := r.batches.GetRoasted(ctx, storage.RoastedBatchID)
	if err != nil {
		return nil, err
	}
	if roasted == nil {
		return nil, fmt.Errorf("%w: tostado %s del empaque %s no existe", domain.ErrIntegrityFault, storage.RoastedBatchID, packaged.ID)
	}
	roasting, err := r.batches.GetRoasting(ctx, roasted.RoastingBatchID)
	if err != nil {
		return nil, err
	}
	if roasting == nil {
		return nil, fmt.Errorf("%w: tostión %s del empaque %s no existe", domain.ErrIntegrityFault, roasted.RoastingBatchID, packaged.ID)
	}
	lot, err := r.lots.GetByID(ctx, packaged.LotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, fmt.Errorf("%w: lote %s del empaque %s no existe", domain.ErrIntegrityFault, packaged.LotID, packaged.ID)
	}
	ancestors, err := lots.WalkAncestors(ctx, r.lots, lot)
	if err != nil {
		return nil, err
	}
	chain := append([]*entity.Lot{lot}, ancestors...)
	root := chain[len(chain)-1]

	view := &ProvenanceView{
		PackagedBatchID: packaged.ID,
		LotID:           lot.ID,
		LotCode:         lot.Code,
		Origin: OriginView{
			LotID:       root.ID,
			LotCode:     root.Code,
			Farm:        root.Attributes.Farm,
			Variety:     root.Attributes.Variety,
			Process:     root.Attributes.Process,
			Altitude:    root.Attributes.Altitude,
			Producer:    root.Attributes.Producer,
			Climate:     root.Attributes.Climate,
			Aroma:       root.Attributes.Aroma,
			Notes:       root.Attributes.Notes,
			RemainingKg: root.Quantity,
			HarvestedAt: root.CreatedAt,
		},
		Roast: RoastView{
			RoastingBatchID:   roasting.ID,
			RoastedBatchID:    roasted.ID,
			QuantitySent:      roasting.QuantitySent,
			TargetTemp:        roasting.TargetTemp,
			RoastedWeight:     roasted.RoastedWeight,
			RoastLevel:        roasted.RoastLevel,
			ActualTemp:        roasted.ActualTemp,
			Minutes:           roasted.Minutes,
			WeightLossPercent: roasted.WeightLossPercent,
			SentAt:            roasting.CreatedAt,
			RoastedAt:         roasted.CreatedAt,
		},
		Storage: StorageView{
			StorageBatchID: storage.ID,
			Location:       storage.Location,
			ContainerType:  storage.ContainerType,
			ContainerCount: storage.ContainerCount,
			Conditions:     storage.Conditions,
			StoredAt:       storage.CreatedAt,
		},
		Sensory: SensoryView{
			Acidity: packaged.Acidity,
			Body:    packaged.Body,
			Balance: packaged.Balance,
			Score:   packaged.Score,
		},
		Packaging: PackagingView{
			Presentation: packaged.Presentation,
			GrindSize:    packaged.GrindSize,
			PackageSize:  packaged.PackageSize,
			UnitCount:    packaged.UnitCount,
			PackagedAt:   packaged.CreatedAt,
		},
		GeneratedAt: r.now().UTC(),
	}
	for _, l := range chain {
		view.Lineage = append(view.Lineage, LineageStep{LotID: l.ID, Code: l.Code, Stage: l.Stage, Quantity: l.Quantity})
	}
	if packaged.ProductID != nil {
		view.Packaging.ProductID = *packaged.ProductID
		product, err := r.products.GetByID(ctx, *packaged.ProductID)
		if err != nil {
			return nil, err
		}
		if product != nil {
			view.Packaging.SKU = product.SKU
		}
	}
	return view, nil
}

// GenerateLabels emite count etiquetas nuevas para el empaque. La secuencia continúa tras las existentes;
// el snapshot es la vista de procedencia al momento de emitir.
// Si hay archivo configurado, el PDF de las etiquetas nuevas se guarda en labels/<empaque>/<primera>-<última>.pdf.
func (r *Reader) GenerateLabels(ctx context.Context, packagedBatchID string, count int, actorID string) ([]*entity.Label, error) {
	if count < 1 || count > MaxLabelsPerRequest {
		return nil, fmt.Errorf("%w: cantidad de etiquetas %d fuera de [1, %d]", domain.ErrInvalidInput, count, MaxLabelsPerRequest)
	}
	view, err := r.Provenance(ctx, packagedBatchID)
	if err != nil {
		return nil, err
	}
	snapshot, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("serializar snapshot: %w", err)
	}

	var created []*entity.Label
	err = r.tx.Run(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Labels.LockBatch(ctx, packagedBatchID); err != nil {
			return err
		}
		last, err := repos.Labels.MaxSequence(ctx, packagedBatchID)
		if err != nil {
			return err
		}
		now := r.now().UTC()
		created = make([]*entity.Label, 0, count)
		for i := 1; i <= count; i++ {
			label := &entity.Label{
				ID:              uuid.New().String(),
				Code:            process.LabelCode(now),
				PackagedBatchID: packagedBatchID,
				Sequence:        last + i,
				Snapshot:        snapshot,
				CreatedBy:       actorID,
				CreatedAt:       now,
			}
			if err := repos.Labels.Create(ctx, label); err != nil {
				return err
			}
			created = append(created, label)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Info().Str("packaged_batch_id", packagedBatchID).Int("count", count).
		Int("first_sequence", created[0].Sequence).Int("last_sequence", created[len(created)-1].Sequence).
		Msg("etiquetas emitidas")

	r.archiveLabels(ctx, view, created)
	return created, nil
}

// archiveLabels guarda el PDF de las etiquetas recién emitidas. Las etiquetas ya quedaron registradas,
// así que una falla del archivo solo se reporta en el log.
func (r *Reader) archiveLabels(ctx context.Context, view *ProvenanceView, created []*entity.Label) {
	if r.archive == nil || r.renderer == nil || len(created) == 0 {
		return
	}
	pdf, err := r.renderer.RenderLabels(ctx, view, created, r.traceBaseURL)
	if err != nil {
		r.log.Warn().Err(err).Str("packaged_batch_id", view.PackagedBatchID).Msg("no se pudo generar el PDF para archivar")
		return
	}
	key := ArchiveKey(view.PackagedBatchID, created[0].Sequence, created[len(created)-1].Sequence)
	if err := r.archive.Put(ctx, key, pdf, "application/pdf"); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("no se pudo archivar el PDF de etiquetas")
		return
	}
	r.log.Info().Str("key", key).Int("bytes", len(pdf)).Msg("PDF de etiquetas archivado")
}

// ArchiveKey llave del PDF archivado para un rango de secuencias.
func ArchiveKey(packagedBatchID string, first, last int) string {
	return fmt.Sprintf("labels/%s/%06d-%06d.pdf", packagedBatchID, first, last)
}

// ListLabels etiquetas del empaque por secuencia.
func (r *Reader) ListLabels(ctx context.Context, packagedBatchID string) ([]*entity.Label, error) {
	packaged, err := r.batches.GetPackaged(ctx, packagedBatchID)
	if err != nil {
		return nil, err
	}
	if packaged == nil {
		return nil, fmt.Errorf("%w: empaque %s", domain.ErrNotFound, packagedBatchID)
	}
	return r.labels.ListByBatch(ctx, packagedBatchID)
}

// RenderLabelsPDF genera el PDF con todas las etiquetas emitidas del empaque.
func (r *Reader) RenderLabelsPDF(ctx context.Context, packagedBatchID string) ([]byte, error) {
	if r.renderer == nil {
		return nil, fmt.Errorf("%w: generador de PDF no configurado", domain.ErrStoreUnavailable)
	}
	view, err := r.Provenance(ctx, packagedBatchID)
	if err != nil {
		return nil, err
	}
	list, err := r.labels.ListByBatch(ctx, packagedBatchID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: el empaque %s no tiene etiquetas", domain.ErrNotFound, packagedBatchID)
	}
	return r.renderer.RenderLabels(ctx, view, list, r.traceBaseURL)
}

// LabelSnapshot devuelve la procedencia congelada en la etiqueta con ese código (lo que abre el QR).
func (r *Reader) LabelSnapshot(ctx context.Context, code string) (*entity.Label, *ProvenanceView, error) {
	label, err := r.labels.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, nil, err
	}
	if label == nil {
		return nil, nil, fmt.Errorf("%w: etiqueta %s", domain.ErrNotFound, code)
	}
	var view ProvenanceView
	if err := json.Unmarshal(label.Snapshot, &view); err != nil {
		return nil, nil, fmt.Errorf("%w: snapshot de la etiqueta %s ilegible", domain.ErrIntegrityFault, code)
	}
	return label, &view, nil
}
