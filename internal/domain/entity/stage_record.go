package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus estado local de un registro de etapa. Solo avanza.
type BatchStatus string

// Estados por etapa.
const (
	StatusInRoasting        BatchStatus = "in_roasting"
	StatusCompleted         BatchStatus = "completed"
	StatusReadyForStorage   BatchStatus = "ready_for_storage"
	StatusStored            BatchStatus = "stored"
	StatusReadyForPackaging BatchStatus = "ready_for_packaging"
	StatusPackaged          BatchStatus = "packaged"
	StatusReadyForSale      BatchStatus = "ready_for_sale"
)

var statusNext = map[BatchStatus]BatchStatus{
	StatusInRoasting:        StatusCompleted,
	StatusReadyForStorage:   StatusStored,
	StatusReadyForPackaging: StatusPackaged,
}

// CanAdvanceTo indica si el registro puede pasar de s a next.
func (s BatchStatus) CanAdvanceTo(next BatchStatus) bool {
	n, ok := statusNext[s]
	return ok && n == next
}

// Presentation presentación del café empacado.
type Presentation string

const (
	PresentationWholeBean Presentation = "whole_bean"
	PresentationGround    Presentation = "ground"
)

// Valid indica si la presentación es conocida.
func (p Presentation) Valid() bool {
	return p == PresentationWholeBean || p == PresentationGround
}

// RoastingBatch café enviado a tostión. LotID es el lote derivado que viaja por las etapas.
type RoastingBatch struct {
	ID           string
	LotID        string
	SourceLotID  string
	QuantitySent decimal.Decimal
	TargetTemp   *decimal.Decimal
	Status       BatchStatus
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RoastedBatch resultado de retirar una tostión. WeightLossPercent es la merma registrada.
type RoastedBatch struct {
	ID                string
	RoastingBatchID   string
	LotID             string
	RoastedWeight     decimal.Decimal
	RoastLevel        string
	ActualTemp        *decimal.Decimal
	Minutes           *int
	WeightLossPercent decimal.Decimal
	Status            BatchStatus
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// StorageBatch café tostado almacenado a la espera de empaque.
type StorageBatch struct {
	ID             string
	RoastedBatchID string
	LotID          string
	Location       string
	ContainerType  string
	ContainerCount int
	Conditions     string
	Status         BatchStatus
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PackagedBatch café empacado con su perfil sensorial. ProductID se llena si se volvió vendible.
type PackagedBatch struct {
	ID             string
	StorageBatchID string
	LotID          string
	Acidity        decimal.Decimal
	Body           decimal.Decimal
	Balance        decimal.Decimal
	Score          decimal.Decimal
	Presentation   Presentation
	GrindSize      string
	PackageSize    string
	UnitCount      int
	ProductID      *string
	Status         BatchStatus
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
