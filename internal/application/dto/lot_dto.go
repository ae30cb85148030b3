package dto

import (
	"time"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// RegisterHarvestRequest body para POST /api/lots/harvest.
type RegisterHarvestRequest struct {
	Farm     string          `json:"farm" validate:"required,max=120"`
	Variety  string          `json:"variety" validate:"required,max=80"`
	Process  string          `json:"process" validate:"required,max=80"`
	Climate  string          `json:"climate" validate:"max=120"`
	Aroma    string          `json:"aroma" validate:"max=120"`
	Notes    string          `json:"notes" validate:"max=1000"`
	Altitude string          `json:"altitude,omitempty" validate:"max=40"`
	Producer string          `json:"producer,omitempty" validate:"max=120"`
	WeightKg decimal.Decimal `json:"weight_kg"`
}

// LotResponse representación pública de un lote.
type LotResponse struct {
	ID          string               `json:"id"`
	Code        string               `json:"code"`
	Stage       entity.LotStage      `json:"stage"`
	Quantity    decimal.Decimal      `json:"quantity_kg"`
	Attributes  entity.LotAttributes `json:"attributes"`
	ParentLotID *string              `json:"parent_lot_id,omitempty"`
	Version     int                  `json:"version"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// LotListResponse listado paginado de lotes.
type LotListResponse struct {
	Items []LotResponse `json:"items"`
	Page  PageResponse  `json:"page"`
}

// ToLotResponse convierte la entidad a su respuesta.
func ToLotResponse(l *entity.Lot) LotResponse {
	return LotResponse{
		ID:          l.ID,
		Code:        l.Code,
		Stage:       l.Stage,
		Quantity:    l.Quantity,
		Attributes:  l.Attributes,
		ParentLotID: l.ParentLotID,
		Version:     l.Version,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

// ToLotResponses convierte una lista; nunca devuelve nil.
func ToLotResponses(list []*entity.Lot) []LotResponse {
	out := make([]LotResponse, 0, len(list))
	for _, l := range list {
		out = append(out, ToLotResponse(l))
	}
	return out
}
