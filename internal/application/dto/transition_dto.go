package dto

import (
	"time"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SendToRoastRequest body para POST /api/transitions/send-to-roast.
type SendToRoastRequest struct {
	LotID      string           `json:"lot_id" validate:"required"`
	WeightKg   decimal.Decimal  `json:"weight_kg"`
	TargetTemp *decimal.Decimal `json:"target_temp,omitempty"`
}

// RetrieveRoastRequest body para POST /api/transitions/retrieve-roast.
type RetrieveRoastRequest struct {
	RoastingBatchID string           `json:"roasting_batch_id" validate:"required"`
	RoastedWeightKg decimal.Decimal  `json:"roasted_weight_kg"`
	RoastLevel      string           `json:"roast_level" validate:"required,max=40"`
	ActualTemp      *decimal.Decimal `json:"actual_temp,omitempty"`
	Minutes         *int             `json:"minutes,omitempty" validate:"omitempty,min=0,max=600"`
}

// StoreRoastedRequest body para POST /api/transitions/store-roasted.
type StoreRoastedRequest struct {
	RoastedBatchID string `json:"roasted_batch_id" validate:"required"`
	Location       string `json:"location" validate:"required,max=120"`
	ContainerType  string `json:"container_type" validate:"required,max=60"`
	ContainerCount int    `json:"container_count" validate:"required,min=1"`
	Conditions     string `json:"conditions,omitempty" validate:"max=500"`
}

// PackageRequest body para POST /api/transitions/package.
type PackageRequest struct {
	StorageBatchID     string          `json:"storage_batch_id" validate:"required"`
	Acidity            decimal.Decimal `json:"acidity"`
	Body               decimal.Decimal `json:"body"`
	Balance            decimal.Decimal `json:"balance"`
	Presentation       string          `json:"presentation" validate:"required,oneof=whole_bean ground"`
	GrindSize          string          `json:"grind_size,omitempty" validate:"required_if=Presentation ground,max=40"`
	PackageSize        string          `json:"package_size" validate:"required,max=20"`
	UnitCount          int             `json:"unit_count" validate:"required,min=1"`
	AddToSellableStock bool            `json:"add_to_sellable_stock"`
}

// RoastingBatchResponse tostión creada o consultada. Lot es el lote derivado que viaja por las etapas.
type RoastingBatchResponse struct {
	ID              string             `json:"id"`
	LotID           string             `json:"lot_id"`
	SourceLotID     string             `json:"source_lot_id"`
	QuantitySent    decimal.Decimal    `json:"quantity_sent_kg"`
	TargetTemp      *decimal.Decimal   `json:"target_temp,omitempty"`
	Status          entity.BatchStatus `json:"status"`
	CreatedBy       string             `json:"created_by,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	Lot             *LotResponse       `json:"lot,omitempty"`
	SourceRemaining *decimal.Decimal   `json:"source_remaining_kg,omitempty"`
}

// RoastedBatchResponse resultado de retirar la tostión.
type RoastedBatchResponse struct {
	ID                string             `json:"id"`
	RoastingBatchID   string             `json:"roasting_batch_id"`
	LotID             string             `json:"lot_id"`
	RoastedWeight     decimal.Decimal    `json:"roasted_weight_kg"`
	RoastLevel        string             `json:"roast_level"`
	ActualTemp        *decimal.Decimal   `json:"actual_temp,omitempty"`
	Minutes           *int               `json:"minutes,omitempty"`
	WeightLossPercent decimal.Decimal    `json:"weight_loss_percent"`
	Status            entity.BatchStatus `json:"status"`
	CreatedBy         string             `json:"created_by,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
}

// StorageBatchResponse café almacenado.
type StorageBatchResponse struct {
	ID             string             `json:"id"`
	RoastedBatchID string             `json:"roasted_batch_id"`
	LotID          string             `json:"lot_id"`
	Location       string             `json:"location"`
	ContainerType  string             `json:"container_type"`
	ContainerCount int                `json:"container_count"`
	Conditions     string             `json:"conditions,omitempty"`
	Status         entity.BatchStatus `json:"status"`
	CreatedBy      string             `json:"created_by,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// PackagedBatchResponse café empacado. ProductID y Movement solo si se volvió vendible.
type PackagedBatchResponse struct {
	ID             string              `json:"id"`
	StorageBatchID string              `json:"storage_batch_id"`
	LotID          string              `json:"lot_id"`
	Acidity        decimal.Decimal     `json:"acidity"`
	Body           decimal.Decimal     `json:"body"`
	Balance        decimal.Decimal     `json:"balance"`
	Score          decimal.Decimal     `json:"score"`
	Presentation   entity.Presentation `json:"presentation"`
	GrindSize      string              `json:"grind_size,omitempty"`
	PackageSize    string              `json:"package_size"`
	UnitCount      int                 `json:"unit_count"`
	ProductID      *string             `json:"product_id,omitempty"`
	Status         entity.BatchStatus  `json:"status"`
	CreatedBy      string              `json:"created_by,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	Movement       *MovementResponse   `json:"movement,omitempty"`
}

// ToRoastingBatchResponse convierte la entidad a su respuesta.
func ToRoastingBatchResponse(b *entity.RoastingBatch) RoastingBatchResponse {
	return RoastingBatchResponse{
		ID: b.ID, LotID: b.LotID, SourceLotID: b.SourceLotID, QuantitySent: b.QuantitySent,
		TargetTemp: b.TargetTemp, Status: b.Status, CreatedBy: b.CreatedBy, CreatedAt: b.CreatedAt,
	}
}

// ToRoastedBatchResponse convierte la entidad a su respuesta.
func ToRoastedBatchResponse(b *entity.RoastedBatch) RoastedBatchResponse {
	return RoastedBatchResponse{
		ID: b.ID, RoastingBatchID: b.RoastingBatchID, LotID: b.LotID, RoastedWeight: b.RoastedWeight,
		RoastLevel: b.RoastLevel, ActualTemp: b.ActualTemp, Minutes: b.Minutes,
		WeightLossPercent: b.WeightLossPercent, Status: b.Status, CreatedBy: b.CreatedBy, CreatedAt: b.CreatedAt,
	}
}

// ToStorageBatchResponse convierte la entidad a su respuesta.
func ToStorageBatchResponse(b *entity.StorageBatch) StorageBatchResponse {
	return StorageBatchResponse{
		ID: b.ID, RoastedBatchID: b.RoastedBatchID, LotID: b.LotID, Location: b.Location,
		ContainerType: b.ContainerType, ContainerCount: b.ContainerCount, Conditions: b.Conditions,
		Status: b.Status, CreatedBy: b.CreatedBy, CreatedAt: b.CreatedAt,
	}
}

// ToPackagedBatchResponse convierte la entidad a su respuesta.
func ToPackagedBatchResponse(b *entity.PackagedBatch) PackagedBatchResponse {
	return PackagedBatchResponse{
		ID: b.ID, StorageBatchID: b.StorageBatchID, LotID: b.LotID, Acidity: b.Acidity, Body: b.Body,
		Balance: b.Balance, Score: b.Score, Presentation: b.Presentation, GrindSize: b.GrindSize,
		PackageSize: b.PackageSize, UnitCount: b.UnitCount, ProductID: b.ProductID, Status: b.Status,
		CreatedBy: b.CreatedBy, CreatedAt: b.CreatedAt,
	}
}
