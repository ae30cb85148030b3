package dto

import (
	"time"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// Para adjust, quantity es el saldo objetivo.
type RegisterMovementRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Type      string          `json:"type" validate:"required,oneof=in out adjust loss return"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reason    string          `json:"reason" validate:"required,max=200"`
	Reference string          `json:"reference,omitempty" validate:"max=120"`
}

// MovementResponse fila del ledger.
type MovementResponse struct {
	ID             string              `json:"id"`
	Seq            int64               `json:"seq"`
	ProductID      string              `json:"product_id"`
	Type           entity.MovementType `json:"type"`
	Quantity       decimal.Decimal     `json:"quantity"`
	QuantityBefore decimal.Decimal     `json:"quantity_before"`
	QuantityAfter  decimal.Decimal     `json:"quantity_after"`
	Reason         string              `json:"reason"`
	Reference      string              `json:"reference,omitempty"`
	ActorID        string              `json:"actor_id,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

// MovementListResponse página del ledger.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// VerifyResponse resultado de reconstruir el stock de un producto.
type VerifyResponse struct {
	ProductID     string          `json:"product_id"`
	Stored        decimal.Decimal `json:"stored_quantity"`
	Replayed      decimal.Decimal `json:"replayed_quantity"`
	MovementCount int             `json:"movement_count"`
	Consistent    bool            `json:"consistent"`
	Detail        string          `json:"detail,omitempty"`
}

// IntegrityFaultResponse divergencia registrada.
type IntegrityFaultResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	StoredQuantity   decimal.Decimal `json:"stored_quantity"`
	ReplayedQuantity decimal.Decimal `json:"replayed_quantity"`
	MovementCount    int             `json:"movement_count"`
	Detail           string          `json:"detail"`
	DetectedAt       time.Time       `json:"detected_at"`
}

// AuditResponse resultado de verificar todos los productos.
type AuditResponse struct {
	Checked int              `json:"checked"`
	Faults  []VerifyResponse `json:"faults"`
}

// ToMovementResponse convierte la entidad a su respuesta.
func ToMovementResponse(m *entity.InventoryMovement) MovementResponse {
	return MovementResponse{
		ID: m.ID, Seq: m.Seq, ProductID: m.ProductID, Type: m.Type, Quantity: m.Quantity,
		QuantityBefore: m.QuantityBefore, QuantityAfter: m.QuantityAfter, Reason: m.Reason,
		Reference: m.Reference, ActorID: m.ActorID, CreatedAt: m.CreatedAt,
	}
}

// ToIntegrityFaultResponse convierte la entidad a su respuesta.
func ToIntegrityFaultResponse(f *entity.IntegrityFault) IntegrityFaultResponse {
	return IntegrityFaultResponse{
		ID: f.ID, ProductID: f.ProductID, StoredQuantity: f.StoredQuantity, ReplayedQuantity: f.ReplayedQuantity,
		MovementCount: f.MovementCount, Detail: f.Detail, DetectedAt: f.DetectedAt,
	}
}
