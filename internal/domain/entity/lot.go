package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LotStage etapa de proceso en la que se encuentra un lote físico.
type LotStage string

// Etapas del pipeline verde → tostión → empaque.
const (
	LotStageGreen       LotStage = "green"
	LotStageSentToRoast LotStage = "sent_to_roast"
	LotStageRoasted     LotStage = "roasted"
	LotStageStored      LotStage = "stored"
	LotStagePackaged    LotStage = "packaged"
)

// lotStageNext transiciones permitidas de etapa para un lote derivado.
// Un lote verde nunca cambia de etapa: se consume vía DeriveChild.
var lotStageNext = map[LotStage]LotStage{
	LotStageSentToRoast: LotStageRoasted,
	LotStageRoasted:     LotStageStored,
	LotStageStored:      LotStagePackaged,
}

// Valid indica si la etapa es conocida.
func (s LotStage) Valid() bool {
	switch s {
	case LotStageGreen, LotStageSentToRoast, LotStageRoasted, LotStageStored, LotStagePackaged:
		return true
	}
	return false
}

// CanAdvanceTo indica si el lote puede pasar de s a next.
func (s LotStage) CanAdvanceTo(next LotStage) bool {
	n, ok := lotStageNext[s]
	return ok && n == next
}

// LotAttributes atributos estáticos de procedencia heredados por los lotes derivados.
type LotAttributes struct {
	Farm     string `json:"farm"`
	Variety  string `json:"variety"`
	Process  string `json:"process"`
	Altitude string `json:"altitude,omitempty"`
	Producer string `json:"producer,omitempty"`
	Climate  string `json:"climate,omitempty"`
	Aroma    string `json:"aroma,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Lot cantidad física trazable (kg) en una etapa. ParentLotID vacío = lote de cosecha.
// Quantity es lo que queda disponible; nunca es negativa.
type Lot struct {
	ID          string
	Code        string // único global
	Stage       LotStage
	Quantity    decimal.Decimal
	Attributes  LotAttributes
	ParentLotID *string
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsRoot indica si el lote no tiene padre (ingreso de cosecha).
func (l *Lot) IsRoot() bool {
	return l.ParentLotID == nil || *l.ParentLotID == ""
}
