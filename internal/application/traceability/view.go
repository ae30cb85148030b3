package traceability

import (
	"time"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProvenanceView vista aplanada de un empaque hasta su cosecha. Es también el snapshot de cada etiqueta.
type ProvenanceView struct {
	PackagedBatchID string        `json:"packaged_batch_id"`
	LotID           string        `json:"lot_id"`
	LotCode         string        `json:"lot_code"`
	Origin          OriginView    `json:"origin"`
	Lineage         []LineageStep `json:"lineage"`
	Roast           RoastView     `json:"roast"`
	Storage         StorageView   `json:"storage"`
	Sensory         SensoryView   `json:"sensory"`
	Packaging       PackagingView `json:"packaging"`
	GeneratedAt     time.Time     `json:"generated_at"`
}

// OriginView lote de cosecha y sus atributos de procedencia.
type OriginView struct {
	LotID       string          `json:"lot_id"`
	LotCode     string          `json:"lot_code"`
	Farm        string          `json:"farm"`
	Variety     string          `json:"variety"`
	Process     string          `json:"process"`
	Altitude    string          `json:"altitude,omitempty"`
	Producer    string          `json:"producer,omitempty"`
	Climate     string          `json:"climate,omitempty"`
	Aroma       string          `json:"aroma,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	RemainingKg decimal.Decimal `json:"remaining_kg"`
	HarvestedAt time.Time       `json:"harvested_at"`
}

// LineageStep un lote de la cadena, del empaque hacia la cosecha.
type LineageStep struct {
	LotID    string          `json:"lot_id"`
	Code     string          `json:"code"`
	Stage    entity.LotStage `json:"stage"`
	Quantity decimal.Decimal `json:"quantity_kg"`
}

// RoastView perfil de tostión.
type RoastView struct {
	RoastingBatchID   string           `json:"roasting_batch_id"`
	RoastedBatchID    string           `json:"roasted_batch_id"`
	QuantitySent      decimal.Decimal  `json:"quantity_sent_kg"`
	TargetTemp        *decimal.Decimal `json:"target_temp,omitempty"`
	RoastedWeight     decimal.Decimal  `json:"roasted_weight_kg"`
	RoastLevel        string           `json:"roast_level"`
	ActualTemp        *decimal.Decimal `json:"actual_temp,omitempty"`
	Minutes           *int             `json:"minutes,omitempty"`
	WeightLossPercent decimal.Decimal  `json:"weight_loss_percent"`
	SentAt            time.Time        `json:"sent_at"`
	RoastedAt         time.Time        `json:"roasted_at"`
}

// StorageView almacenamiento previo al empaque.
type StorageView struct {
	StorageBatchID string    `json:"storage_batch_id"`
	Location       string    `json:"location"`
	ContainerType  string    `json:"container_type"`
	ContainerCount int       `json:"container_count"`
	Conditions     string    `json:"conditions,omitempty"`
	StoredAt       time.Time `json:"stored_at"`
}

// SensoryView perfil sensorial.
type SensoryView struct {
	Acidity decimal.Decimal `json:"acidity"`
	Body    decimal.Decimal `json:"body"`
	Balance decimal.Decimal `json:"balance"`
	Score   decimal.Decimal `json:"score"`
}

// PackagingView empaque y SKU vendible, si existe.
type PackagingView struct {
	Presentation entity.Presentation `json:"presentation"`
	GrindSize    string              `json:"grind_size,omitempty"`
	PackageSize  string              `json:"package_size"`
	UnitCount    int                 `json:"unit_count"`
	ProductID    string              `json:"product_id,omitempty"`
	SKU          string              `json:"sku,omitempty"`
	PackagedAt   time.Time           `json:"packaged_at"`
}
