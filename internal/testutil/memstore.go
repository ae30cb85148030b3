// Package testutil contiene un almacenamiento en memoria con la semántica de los repositorios PostgreSQL,
// para probar los casos de uso sin base de datos.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/process"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// Operaciones que admiten fallas inyectadas con Store.Fail.
const (
	OpLotCreate      = "lots.Create"
	OpLotUpdate      = "lots.UpdateQuantityAndStage"
	OpRoastingCreate = "batches.CreateRoasting"
	OpRoastedCreate  = "batches.CreateRoasted"
	OpStorageCreate  = "batches.CreateStorage"
	OpPackagedCreate = "batches.CreatePackaged"
	OpProductUpdate  = "products.UpdateStock"
	OpMovementCreate = "movements.Create"
	OpLabelCreate    = "labels.Create"
	OpFaultCreate    = "faults.Create"
	OpProductLock    = "products.GetForUpdate"
)

// table filas por id más el orden de inserción (equivale a ORDER BY created_at, id).
type table[T any] struct {
	rows  map[string]T
	order []string
}

func newTable[T any]() table[T] {
	return table[T]{rows: map[string]T{}}
}

func (t table[T]) clone() table[T] {
	c := table[T]{rows: make(map[string]T, len(t.rows)), order: append([]string(nil), t.order...)}
	for k, v := range t.rows {
		c.rows[k] = v
	}
	return c
}

func (t *table[T]) insert(id string, v T) {
	t.rows[id] = v
	t.order = append(t.order, id)
}

func (t table[T]) all() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

type state struct {
	lots      table[entity.Lot]
	roasting  table[entity.RoastingBatch]
	roasted   table[entity.RoastedBatch]
	storage   table[entity.StorageBatch]
	packaged  table[entity.PackagedBatch]
	products  table[entity.Product]
	movements []entity.InventoryMovement
	labels    []entity.Label
	faults    []entity.IntegrityFault
	seq       int64
}

func newState() *state {
	return &state{
		lots:     newTable[entity.Lot](),
		roasting: newTable[entity.RoastingBatch](),
		roasted:  newTable[entity.RoastedBatch](),
		storage:  newTable[entity.StorageBatch](),
		packaged: newTable[entity.PackagedBatch](),
		products: newTable[entity.Product](),
	}
}

func (s *state) clone() *state {
	return &state{
		lots:      s.lots.clone(),
		roasting:  s.roasting.clone(),
		roasted:   s.roasted.clone(),
		storage:   s.storage.clone(),
		packaged:  s.packaged.clone(),
		products:  s.products.clone(),
		movements: append([]entity.InventoryMovement(nil), s.movements...),
		labels:    append([]entity.Label(nil), s.labels...),
		faults:    append([]entity.IntegrityFault(nil), s.faults...),
		seq:       s.seq,
	}
}

// Store base en memoria. Run serializa las transacciones con un único mutex, lo que cubre
// los bloqueos de fila; ante error restaura el estado previo (rollback).
type Store struct {
	mu       sync.Mutex
	st       *state
	failures map[string]error
	txCount  int
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{st: newState(), failures: map[string]error{}}
}

var _ repository.TxRunner = (*Store)(nil)

// Run ejecuta fn con repositorios atados a la "transacción" y confirma o revierte.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: begin transaction: %v", domain.ErrStoreUnavailable, err)
	}
	s.txCount++
	backup := s.st.clone()
	if err := fn(ctx, s.repos(true)); err != nil {
		s.st = backup
		if domain.IsBusinessError(err) || errors.Is(err, domain.ErrIntegrityFault) || errors.Is(err, domain.ErrStoreUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Repositories repositorios sin transacción; cada llamada toma el mutex por separado.
func (s *Store) Repositories() repository.Repositories {
	return s.repos(false)
}

// Faults repositorio del historial de fallas de integridad.
func (s *Store) Faults() repository.IntegrityFaultRepository {
	return faultRepo{view{s: s}}
}

// Fail hace que la operación op devuelva err hasta que se llame ClearFailures.
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// ClearFailures elimina las fallas inyectadas.
func (s *Store) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]error{}
}

// Transactions cantidad de transacciones iniciadas.
func (s *Store) Transactions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txCount
}

// CorruptStock sobrescribe el stock proyectado sin pasar por el ledger (simula un bug o un UPDATE manual).
func (s *Store) CorruptStock(productID string, quantity decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products.rows[productID]
	if !ok {
		return
	}
	p.StockQuantity = quantity
	s.st.products.rows[productID] = p
}

// MovementCount total de filas del ledger.
func (s *Store) MovementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.movements)
}

// RoastedCount total de registros de tostado.
func (s *Store) RoastedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.roasted.rows)
}

func (s *Store) repos(inTx bool) repository.Repositories {
	v := view{s: s, inTx: inTx}
	return repository.Repositories{
		Lots:      lotRepo{v},
		Batches:   batchRepo{v},
		Products:  productRepo{v},
		Movements: movementRepo{v},
		Labels:    labelRepo{v},
	}
}

// view acceso al estado: dentro de Run el mutex ya está tomado.
type view struct {
	s    *Store
	inTx bool
}

func (v view) do(op string, fn func(st *state) error) error {
	if !v.inTx {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
	}
	if op != "" {
		if err := v.s.failures[op]; err != nil {
			return err
		}
	}
	return fn(v.s.st)
}

func page[T any](rows []T, limit, offset int) []T {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func ptr[T any](v T) *T { return &v }

// numericColumns exige que cada valor quepa en NUMERIC(14, 3). PostgreSQL redondearía en silencio;
// aquí la escritura falla para que un valor sin validar no pase desapercibido en las pruebas.
func numericColumns(values map[string]decimal.Decimal) error {
	for column, v := range values {
		if !process.FitsNumeric(v, process.QuantityPrecision, process.QuantityScale) {
			return fmt.Errorf("numeric field overflow: %s = %s no cabe en NUMERIC(14, 3)", column, v.String())
		}
	}
	return nil
}

// ---- lots ----

type lotRepo struct{ view }

func (r lotRepo) Create(_ context.Context, lot *entity.Lot) error {
	return r.do(OpLotCreate, func(st *state) error {
		if err := numericColumns(map[string]decimal.Decimal{"lots.quantity": lot.Quantity}); err != nil {
			return err
		}
		for _, l := range st.lots.rows {
			if l.Code == lot.Code {
				return fmt.Errorf("%w: código de lote %s", domain.ErrDuplicate, lot.Code)
			}
		}
		if lot.Version == 0 {
			lot.Version = 1
		}
		st.lots.insert(lot.ID, *lot)
		return nil
	})
}

func (r lotRepo) GetByID(_ context.Context, id string) (out *entity.Lot, err error) {
	err = r.do("", func(st *state) error {
		if l, ok := st.lots.rows[id]; ok {
			out = ptr(l)
		}
		return nil
	})
	return out, err
}

func (r lotRepo) GetByCode(_ context.Context, code string) (out *entity.Lot, err error) {
	err = r.do("", func(st *state) error {
		for _, l := range st.lots.rows {
			if l.Code == code {
				out = ptr(l)
			}
		}
		return nil
	})
	return out, err
}

func (r lotRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lot, error) {
	return r.GetByID(ctx, id)
}

func (r lotRepo) UpdateQuantityAndStage(_ context.Context, id string, expectedVersion int, quantity decimal.Decimal, stage entity.LotStage) error {
	return r.do(OpLotUpdate, func(st *state) error {
		l, ok := st.lots.rows[id]
		if !ok || l.Version != expectedVersion {
			return &domain.StateError{Entity: "lote", ID: id, Current: "modificado concurrentemente", Expected: fmt.Sprintf("versión %d", expectedVersion)}
		}
		if quantity.IsNegative() {
			return fmt.Errorf("%w: lote %s quedaría con cantidad %s", domain.ErrInvalidQuantity, id, quantity.String())
		}
		if err := numericColumns(map[string]decimal.Decimal{"lots.quantity": quantity}); err != nil {
			return err
		}
		l.Quantity = quantity
		l.Stage = stage
		l.Version++
		st.lots.rows[id] = l
		return nil
	})
}

func (r lotRepo) ListByStage(_ context.Context, stage entity.LotStage, limit, offset int) (out []*entity.Lot, err error) {
	err = r.do("", func(st *state) error {
		var all []*entity.Lot
		for _, l := range st.lots.all() {
			if stage == "" || l.Stage == stage {
				all = append(all, ptr(l))
			}
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

func (r lotRepo) ListChildren(_ context.Context, parentID string) (out []*entity.Lot, err error) {
	err = r.do("", func(st *state) error {
		for _, l := range st.lots.all() {
			if l.ParentLotID != nil && *l.ParentLotID == parentID {
				out = append(out, ptr(l))
			}
		}
		return nil
	})
	return out, err
}

// ---- stage records ----

type batchRepo struct{ view }

func statusMismatch(entityName, id string, from entity.BatchStatus) error {
	return &domain.StateError{Entity: entityName, ID: id, Current: "distinto de " + string(from), Expected: string(from)}
}

func (r batchRepo) CreateRoasting(_ context.Context, b *entity.RoastingBatch) error {
	return r.do(OpRoastingCreate, func(st *state) error {
		if err := numericColumns(map[string]decimal.Decimal{"roasting_batches.quantity_sent": b.QuantitySent}); err != nil {
			return err
		}
		for _, x := range st.roasting.rows {
			if x.LotID == b.LotID {
				return fmt.Errorf("%w: tostión para el lote %s", domain.ErrDuplicate, b.LotID)
			}
		}
		st.roasting.insert(b.ID, *b)
		return nil
	})
}

func (r batchRepo) GetRoasting(_ context.Context, id string) (out *entity.RoastingBatch, err error) {
	err = r.do("", func(st *state) error {
		if b, ok := st.roasting.rows[id]; ok {
			out = ptr(b)
		}
		return nil
	})
	return out, err
}

func (r batchRepo) GetRoastingForUpdate(ctx context.Context, id string) (*entity.RoastingBatch, error) {
	return r.GetRoasting(ctx, id)
}

func (r batchRepo) AdvanceRoastingStatus(_ context.Context, id string, from, to entity.BatchStatus) error {
	return r.do("", func(st *state) error {
		b, ok := st.roasting.rows[id]
		if !ok || b.Status != from {
			return statusMismatch("tostión", id, from)
		}
		b.Status = to
		st.roasting.rows[id] = b
		return nil
	})
}

func (r batchRepo) ListRoasting(_ context.Context, status entity.BatchStatus, limit, offset int) (out []*entity.RoastingBatch, err error) {
	err = r.do("", func(st *state) error {
		var all []*entity.RoastingBatch
		for _, b := range st.roasting.all() {
			if status == "" || b.Status == status {
				all = append(all, ptr(b))
			}
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

func (r batchRepo) CreateRoasted(_ context.Context, b *entity.RoastedBatch) error {
	return r.do(OpRoastedCreate, func(st *state) error {
		if err := numericColumns(map[string]decimal.Decimal{"roasted_batches.roasted_weight": b.RoastedWeight}); err != nil {
			return err
		}
		for _, x := range st.roasted.rows {
			if x.RoastingBatchID == b.RoastingBatchID {
				return &domain.StateError{Entity: "tostión", ID: b.RoastingBatchID, Current: string(entity.StatusCompleted), Expected: string(entity.StatusInRoasting)}
			}
		}
		st.roasted.insert(b.ID, *b)
		return nil
	})
}

func (r batchRepo) GetRoasted(_ context.Context, id string) (out *entity.RoastedBatch, err error) {
	err = r.do("", func(st *state) error {
		if b, ok := st.roasted.rows[id]; ok {
			out = ptr(b)
		}
		return nil
	})
	return out, err
}

func (r batchRepo) GetRoastedForUpdate(ctx context.Context, id string) (*entity.RoastedBatch, error) {
	return r.GetRoasted(ctx, id)
}

func (r batchRepo) AdvanceRoastedStatus(_ context.Context, id string, from, to entity.BatchStatus) error {
	return r.do("", func(st *state) error {
		b, ok := st.roasted.rows[id]
		if !ok || b.Status != from {
			return statusMismatch("tostado", id, from)
		}
		b.Status = to
		st.roasted.rows[id] = b
		return nil
	})
}

func (r batchRepo) ListRoasted(_ context.Context, status entity.BatchStatus, limit, offset int) (out []*entity.RoastedBatch, err error) {
	err = r.do("", func(st *state) error {
		var all []*entity.RoastedBatch
		for _, b := range st.roasted.all() {
			if status == "" || b.Status == status {
				all = append(all, ptr(b))
			}
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

func (r batchRepo) CreateStorage(_ context.Context, b *entity.StorageBatch) error {
	return r.do(OpStorageCreate, func(st *state) error {
		for _, x := range st.storage.rows {
			if x.RoastedBatchID == b.RoastedBatchID {
				return &domain.StateError{Entity: "tostado", ID: b.RoastedBatchID, Current: string(entity.StatusStored), Expected: string(entity.StatusReadyForStorage)}
			}
		}
		st.storage.insert(b.ID, *b)
		return nil
	})
}

func (r batchRepo) GetStorage(_ context.Context, id string) (out *entity.StorageBatch, err error) {
	err = r.do("", func(st *state) error {
		if b, ok := st.storage.rows[id]; ok {
			out = ptr(b)
		}
		return nil
	})
	return out, err
}

func (r batchRepo) GetStorageForUpdate(ctx context.Context, id string) (*entity.StorageBatch, error) {
	return r.GetStorage(ctx, id)
}

func (r batchRepo) AdvanceStorageStatus(_ context.Context, id string, from, to entity.BatchStatus) error {
	return r.do("", func(st *state) error {
		b, ok := st.storage.rows[id]
		if !ok || b.Status != from {
			return statusMismatch("almacenamiento", id, from)
		}
		b.Status = to
		st.storage.rows[id] = b
		return nil
	})
}

func (r batchRepo) ListStorage(_ context.Context, status entity.BatchStatus, limit, offset int) (out []*entity.StorageBatch, err error) {
	err = r.do("", func(st *state) error {
		var all []*entity.StorageBatch
		for _, b := range st.storage.all() {
			if status == "" || b.Status == status {
				all = append(all, ptr(b))
			}
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

func (r batchRepo) CreatePackaged(_ context.Context, b *entity.PackagedBatch) error {
	return r.do(OpPackagedCreate, func(st *state) error {
		for _, x := range st.packaged.rows {
			if x.StorageBatchID == b.StorageBatchID {
				return &domain.StateError{Entity: "almacenamiento", ID: b.StorageBatchID, Current: string(entity.StatusPackaged), Expected: string(entity.StatusReadyForPackaging)}
			}
		}
		st.packaged.insert(b.ID, *b)
		return nil
	})
}

func (r batchRepo) GetPackaged(_ context.Context, id string) (out *entity.PackagedBatch, err error) {
	err = r.do("", func(st *state) error {
		if b, ok := st.packaged.rows[id]; ok {
			out = ptr(b)
		}
		return nil
	})
	return out, err
}

func (r batchRepo) ListPackaged(_ context.Context, limit, offset int) (out []*entity.PackagedBatch, err error) {
	err = r.do("", func(st *state) error {
		var all []*entity.PackagedBatch
		for _, b := range st.packaged.all() {
			all = append(all, ptr(b))
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

// ---- products ----

type productRepo struct{ view }

func skuTaken(st *state, sku string) bool {
	for _, p := range st.products.rows {
		if p.SKU == sku {
			return true
		}
	}
	return false
}

func productColumns(p *entity.Product) map[string]decimal.Decimal {
	return map[string]decimal.Decimal{"products.stock_quantity": p.StockQuantity, "products.stock_min": p.StockMin}
}

func (r productRepo) Create(_ context.Context, p *entity.Product) error {
	return r.do("", func(st *state) error {
		if err := numericColumns(productColumns(p)); err != nil {
			return err
		}
		if skuTaken(st, p.SKU) {
			return fmt.Errorf("%w: SKU %s", domain.ErrDuplicate, p.SKU)
		}
		st.products.insert(p.ID, *p)
		return nil
	})
}

func (r productRepo) CreateIfAbsent(_ context.Context, p *entity.Product) (created bool, err error) {
	err = r.do("", func(st *state) error {
		if err := numericColumns(productColumns(p)); err != nil {
			return err
		}
		if skuTaken(st, p.SKU) {
			return nil
		}
		st.products.insert(p.ID, *p)
		created = true
		return nil
	})
	return created, err
}

func (r productRepo) GetByID(_ context.Context, id string) (out *entity.Product, err error) {
	err = r.do("", func(st *state) error {
		if p, ok := st.products.rows[id]; ok {
			out = ptr(p)
		}
		return nil
	})
	return out, err
}

func (r productRepo) GetBySKU(_ context.Context, sku string) (out *entity.Product, err error) {
	err = r.do("", func(st *state) error {
		for _, p := range st.products.rows {
			if p.SKU == sku {
				out = ptr(p)
			}
		}
		return nil
	})
	return out, err
}

func (r productRepo) GetForUpdate(_ context.Context, id string) (out *entity.Product, err error) {
	err = r.do(OpProductLock, func(st *state) error {
		if p, ok := st.products.rows[id]; ok {
			out = ptr(p)
		}
		return nil
	})
	return out, err
}

func (r productRepo) UpdateStock(_ context.Context, id string, quantity decimal.Decimal) error {
	return r.do(OpProductUpdate, func(st *state) error {
		p, ok := st.products.rows[id]
		if !ok {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
		if quantity.IsNegative() {
			return fmt.Errorf("check violation: stock_quantity %s", quantity.String())
		}
		if err := numericColumns(map[string]decimal.Decimal{"products.stock_quantity": quantity}); err != nil {
			return err
		}
		p.StockQuantity = quantity
		st.products.rows[id] = p
		return nil
	})
}

func (r productRepo) UpdatePricing(_ context.Context, id string, price, cost *decimal.Decimal, stockMin decimal.Decimal) error {
	return r.do("", func(st *state) error {
		p, ok := st.products.rows[id]
		if !ok {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
		if err := numericColumns(map[string]decimal.Decimal{"products.stock_min": stockMin}); err != nil {
			return err
		}
		p.Price, p.Cost, p.StockMin = price, cost, stockMin
		st.products.rows[id] = p
		return nil
	})
}

func (r productRepo) List(_ context.Context, limit, offset int) (out []*entity.Product, err error) {
	err = r.do("", func(st *state) error {
		var all []*entity.Product
		for _, p := range st.products.all() {
			all = append(all, ptr(p))
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

func (r productRepo) ListBelowMinimum(_ context.Context, limit, offset int) (out []*entity.Product, err error) {
	err = r.do("", func(st *state) error {
		var all []*entity.Product
		for _, p := range st.products.all() {
			if p.BelowMinimum() {
				all = append(all, ptr(p))
			}
		}
		sort.SliceStable(all, func(i, j int) bool {
			di := all[i].StockMin.Sub(all[i].StockQuantity)
			dj := all[j].StockMin.Sub(all[j].StockQuantity)
			if !di.Equal(dj) {
				return di.GreaterThan(dj)
			}
			return all[i].ID < all[j].ID
		})
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

// ---- ledger ----

type movementRepo struct{ view }

func (r movementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	return r.do(OpMovementCreate, func(st *state) error {
		if err := numericColumns(map[string]decimal.Decimal{
			"inventory_movements.quantity":        m.Quantity,
			"inventory_movements.quantity_before": m.QuantityBefore,
			"inventory_movements.quantity_after":  m.QuantityAfter,
		}); err != nil {
			return err
		}
		st.seq++
		m.Seq = st.seq
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r movementRepo) GetByID(_ context.Context, id string) (out *entity.InventoryMovement, err error) {
	err = r.do("", func(st *state) error {
		for _, m := range st.movements {
			if m.ID == id {
				out = ptr(m)
			}
		}
		return nil
	})
	return out, err
}

func (r movementRepo) List(_ context.Context, f entity.MovementFilter, limit, offset int) (out []*entity.InventoryMovement, total int, err error) {
	err = r.do("", func(st *state) error {
		var all []*entity.InventoryMovement
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if f.ProductID != "" && m.ProductID != f.ProductID {
				continue
			}
			if f.Type != "" && m.Type != f.Type {
				continue
			}
			if f.From != nil && m.CreatedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && m.CreatedAt.After(*f.To) {
				continue
			}
			all = append(all, ptr(m))
		}
		sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
		total = len(all)
		out = page(all, limit, offset)
		return nil
	})
	return out, total, err
}

func (r movementRepo) ListForReplay(_ context.Context, productID string) (out []*entity.InventoryMovement, err error) {
	err = r.do("", func(st *state) error {
		for _, m := range st.movements {
			if m.ProductID == productID {
				out = append(out, ptr(m))
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
		return nil
	})
	return out, err
}

// ---- labels ----

type labelRepo struct{ view }

// LockBatch no hace nada: Run ya serializa las transacciones.
func (r labelRepo) LockBatch(context.Context, string) error { return nil }

func (r labelRepo) MaxSequence(_ context.Context, packagedBatchID string) (maxSeq int, err error) {
	err = r.do("", func(st *state) error {
		for _, l := range st.labels {
			if l.PackagedBatchID == packagedBatchID && l.Sequence > maxSeq {
				maxSeq = l.Sequence
			}
		}
		return nil
	})
	return maxSeq, err
}

func (r labelRepo) Create(_ context.Context, label *entity.Label) error {
	return r.do(OpLabelCreate, func(st *state) error {
		for _, l := range st.labels {
			if l.Code == label.Code || (l.PackagedBatchID == label.PackagedBatchID && l.Sequence == label.Sequence) {
				return fmt.Errorf("%w: etiqueta %s", domain.ErrDuplicate, label.Code)
			}
		}
		st.labels = append(st.labels, *label)
		return nil
	})
}

func (r labelRepo) ListByBatch(_ context.Context, packagedBatchID string) (out []*entity.Label, err error) {
	err = r.do("", func(st *state) error {
		for _, l := range st.labels {
			if l.PackagedBatchID == packagedBatchID {
				out = append(out, ptr(l))
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
		return nil
	})
	return out, err
}

func (r labelRepo) GetByCode(_ context.Context, code string) (out *entity.Label, err error) {
	err = r.do("", func(st *state) error {
		for _, l := range st.labels {
			if l.Code == code {
				out = ptr(l)
			}
		}
		return nil
	})
	return out, err
}

// ---- integrity faults ----

type faultRepo struct{ view }

func (r faultRepo) Create(_ context.Context, f *entity.IntegrityFault) error {
	return r.do(OpFaultCreate, func(st *state) error {
		st.faults = append(st.faults, *f)
		return nil
	})
}

func (r faultRepo) List(_ context.Context, productID string, limit, offset int) (out []*entity.IntegrityFault, err error) {
	err = r.do("", func(st *state) error {
		var all []*entity.IntegrityFault
		for i := len(st.faults) - 1; i >= 0; i-- {
			if productID == "" || st.faults[i].ProductID == productID {
				all = append(all, ptr(st.faults[i]))
			}
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}
