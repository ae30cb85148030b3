// Package lots implementa el registro de lotes: alta de cosechas, derivación de lotes hijos
// y recorrido del linaje.
package lots

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/process"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// MaxLineageDepth profundidad máxima de los recorridos de linaje.
const MaxLineageDepth = 64

// LotRegistry crea lotes y responde consultas de linaje.
// lots es el repositorio sin transacción; DeriveChild recibe el de la transacción del llamador.
type LotRegistry struct {
	lots repository.LotRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewLotRegistry construye el registro.
func NewLotRegistry(lots repository.LotRepository, log *logger.Logger) *LotRegistry {
	return &LotRegistry{lots: lots, log: log.Named("lots"), now: time.Now}
}

// Create registra un lote raíz con el código dado. DuplicateCode si el código ya existe.
func (r *LotRegistry) Create(ctx context.Context, code string, attrs entity.LotAttributes, stage entity.LotStage, quantity decimal.Decimal) (*entity.Lot, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: código de lote requerido", domain.ErrInvalidInput)
	}
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: etapa %q desconocida", domain.ErrInvalidInput, stage)
	}
	if quantity.IsNegative() {
		return nil, fmt.Errorf("%w: cantidad %s negativa", domain.ErrInvalidQuantity, quantity.String())
	}
	if err := process.CheckQuantity("cantidad", quantity); err != nil {
		return nil, err
	}
	existing, err := r.lots.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: código de lote %s", domain.ErrDuplicate, code)
	}
	now := r.now().UTC()
	lot := &entity.Lot{
		ID:         uuid.New().String(),
		Code:       code,
		Stage:      stage,
		Quantity:   quantity,
		Attributes: attrs,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.lots.Create(ctx, lot); err != nil {
		return nil, err
	}
	r.log.Info().Str("lot_id", lot.ID).Str("code", lot.Code).Str("stage", string(stage)).
		Str("quantity", quantity.String()).Msg("lote registrado")
	return lot, nil
}

// RegisterHarvest registra café verde recibido de una finca. El código se genera a partir de la finca y la fecha.
func (r *LotRegistry) RegisterHarvest(ctx context.Context, in dto.RegisterHarvestRequest) (*entity.Lot, error) {
	attrs := entity.LotAttributes{
		Farm:     strings.TrimSpace(in.Farm),
		Variety:  strings.TrimSpace(in.Variety),
		Process:  strings.TrimSpace(in.Process),
		Altitude: strings.TrimSpace(in.Altitude),
		Producer: strings.TrimSpace(in.Producer),
		Climate:  strings.TrimSpace(in.Climate),
		Aroma:    strings.TrimSpace(in.Aroma),
		Notes:    strings.TrimSpace(in.Notes),
	}
	if attrs.Farm == "" || attrs.Variety == "" || attrs.Process == "" {
		return nil, fmt.Errorf("%w: finca, variedad y proceso son requeridos", domain.ErrInvalidInput)
	}
	if !in.WeightKg.IsPositive() {
		return nil, fmt.Errorf("%w: peso %s debe ser mayor que 0", domain.ErrInvalidInput, in.WeightKg.String())
	}
	if !process.FitsNumeric(in.WeightKg, process.QuantityPrecision, process.QuantityScale) {
		return nil, fmt.Errorf("%w: peso %s admite hasta %d decimales", domain.ErrInvalidInput, in.WeightKg.String(), process.QuantityScale)
	}
	return r.Create(ctx, process.HarvestLotCode(attrs.Farm, r.now()), attrs, entity.LotStageGreen, in.WeightKg)
}

// DeriveInput datos para derivar un lote hijo.
// ChildCode vacío genera uno a partir del código del padre. Attributes nil hereda los del padre.
// RequiredParentStage vacío acepta cualquier etapa.
type DeriveInput struct {
	ParentID            string
	ChildCode           string
	Quantity            decimal.Decimal
	ChildStage          entity.LotStage
	Attributes          *entity.LotAttributes
	RequiredParentStage entity.LotStage
}

// DeriveChild bloquea el padre, le descuenta Quantity e inserta el hijo, todo con lots de la transacción del llamador.
// Devuelve el hijo y el padre ya actualizado.
func (r *LotRegistry) DeriveChild(ctx context.Context, lots repository.LotRepository, in DeriveInput) (*entity.Lot, *entity.Lot, error) {
	if in.ParentID == "" {
		return nil, nil, fmt.Errorf("%w: lote padre requerido", domain.ErrInvalidInput)
	}
	if !in.Quantity.IsPositive() {
		return nil, nil, fmt.Errorf("%w: cantidad %s debe ser mayor que 0", domain.ErrInvalidQuantity, in.Quantity.String())
	}
	if err := process.CheckQuantity("cantidad", in.Quantity); err != nil {
		return nil, nil, err
	}
	if !in.ChildStage.Valid() {
		return nil, nil, fmt.Errorf("%w: etapa %q desconocida", domain.ErrInvalidInput, in.ChildStage)
	}
	parent, err := lots.GetForUpdate(ctx, in.ParentID)
	if err != nil {
		return nil, nil, err
	}
	if parent == nil {
		return nil, nil, fmt.Errorf("%w: lote %s", domain.ErrNotFound, in.ParentID)
	}
	if in.RequiredParentStage != "" && parent.Stage != in.RequiredParentStage {
		return nil, nil, &domain.StateError{Entity: "lote", ID: parent.ID, Current: string(parent.Stage), Expected: string(in.RequiredParentStage)}
	}
	if in.Quantity.GreaterThan(parent.Quantity) {
		return nil, nil, &domain.QuantityError{Entity: "lote", ID: parent.ID, Requested: in.Quantity, Available: parent.Quantity}
	}

	remaining := parent.Quantity.Sub(in.Quantity)
	if err := lots.UpdateQuantityAndStage(ctx, parent.ID, parent.Version, remaining, parent.Stage); err != nil {
		return nil, nil, err
	}
	parent.Quantity = remaining
	parent.Version++

	now := r.now().UTC()
	attrs := parent.Attributes
	if in.Attributes != nil {
		attrs = *in.Attributes
	}
	code := strings.TrimSpace(in.ChildCode)
	if code == "" {
		code = process.ChildLotCode(parent.Code, in.ChildStage, now)
	}
	parentID := parent.ID
	child := &entity.Lot{
		ID:          uuid.New().String(),
		Code:        code,
		Stage:       in.ChildStage,
		Quantity:    in.Quantity,
		Attributes:  attrs,
		ParentLotID: &parentID,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := lots.Create(ctx, child); err != nil {
		return nil, nil, err
	}
	return child, parent, nil
}

// GetByCodeOrID busca primero por ID y luego por código.
func (r *LotRegistry) GetByCodeOrID(ctx context.Context, ref string) (*entity.Lot, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: referencia de lote requerida", domain.ErrInvalidInput)
	}
	lot, err := r.lots.GetByID(ctx, ref)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		if lot, err = r.lots.GetByCode(ctx, ref); err != nil {
			return nil, err
		}
	}
	if lot == nil {
		return nil, fmt.Errorf("%w: lote %s", domain.ErrNotFound, ref)
	}
	return lot, nil
}

// ListByStage lista lotes de una etapa en orden de creación. stage vacío lista todas.
func (r *LotRegistry) ListByStage(ctx context.Context, stage entity.LotStage, limit, offset int) ([]*entity.Lot, error) {
	if stage != "" && !stage.Valid() {
		return nil, fmt.Errorf("%w: etapa %q desconocida", domain.ErrInvalidInput, stage)
	}
	return r.lots.ListByStage(ctx, stage, limit, offset)
}

// Ancestors devuelve la cadena de padres desde el más cercano hasta el lote de cosecha.
func (r *LotRegistry) Ancestors(ctx context.Context, id string) ([]*entity.Lot, error) {
	lot, err := r.lots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, fmt.Errorf("%w: lote %s", domain.ErrNotFound, id)
	}
	return WalkAncestors(ctx, r.lots, lot)
}

// WalkAncestors recorre ParentLotID desde lot. Un ciclo o una cadena más profunda que MaxLineageDepth
// es una falla de integridad; un padre inexistente también.
func WalkAncestors(ctx context.Context, lots repository.LotRepository, lot *entity.Lot) ([]*entity.Lot, error) {
	visited := map[string]bool{lot.ID: true}
	var chain []*entity.Lot
	current := lot
	for !current.IsRoot() {
		if len(chain) >= MaxLineageDepth {
			return nil, fmt.Errorf("%w: linaje de %s supera %d niveles", domain.ErrIntegrityFault, lot.ID, MaxLineageDepth)
		}
		parentID := *current.ParentLotID
		if visited[parentID] {
			return nil, fmt.Errorf("%w: ciclo en el linaje de %s en %s", domain.ErrIntegrityFault, lot.ID, parentID)
		}
		visited[parentID] = true
		parent, err := lots.GetByID(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, fmt.Errorf("%w: lote padre %s de %s no existe", domain.ErrIntegrityFault, parentID, current.ID)
		}
		chain = append(chain, parent)
		current = parent
	}
	return chain, nil
}

// Root devuelve el lote de cosecha del que desciende lot (el mismo si es raíz).
func Root(ctx context.Context, lots repository.LotRepository, lot *entity.Lot) (*entity.Lot, error) {
	chain, err := WalkAncestors(ctx, lots, lot)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return lot, nil
	}
	return chain[len(chain)-1], nil
}

// Descendants devuelve todos los lotes derivados de id en anchura (hijos primero).
func (r *LotRegistry) Descendants(ctx context.Context, id string) ([]*entity.Lot, error) {
	lot, err := r.lots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, fmt.Errorf("%w: lote %s", domain.ErrNotFound, id)
	}
	type item struct {
		id    string
		depth int
	}
	visited := map[string]bool{lot.ID: true}
	queue := []item{{id: lot.ID}}
	var out []*entity.Lot
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= MaxLineageDepth {
			return nil, fmt.Errorf("%w: descendencia de %s supera %d niveles", domain.ErrIntegrityFault, lot.ID, MaxLineageDepth)
		}
		children, err := r.lots.ListChildren(ctx, cur.id)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if visited[c.ID] {
				return nil, fmt.Errorf("%w: ciclo en la descendencia de %s en %s", domain.ErrIntegrityFault, lot.ID, c.ID)
			}
			visited[c.ID] = true
			out = append(out, c)
			queue = append(queue, item{id: c.ID, depth: cur.depth + 1})
		}
	}
	return out, nil
}
