package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento del ledger.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementTypeIn     MovementType = "in"     // entrada
	MovementTypeOut    MovementType = "out"    // salida
	MovementTypeAdjust MovementType = "adjust" // ajuste a un valor absoluto
	MovementTypeLoss   MovementType = "loss"   // merma
	MovementTypeReturn MovementType = "return" // devolución
)

// Valid indica si el tipo es conocido.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeAdjust, MovementTypeLoss, MovementTypeReturn:
		return true
	}
	return false
}

// InventoryMovement fila inmutable del ledger. Seq es el orden de inserción por producto.
// Quantity es lo registrado: magnitud para in/out/loss/return, delta con signo para adjust.
type InventoryMovement struct {
	ID             string
	Seq            int64
	ProductID      string
	Type           MovementType
	Quantity       decimal.Decimal
	QuantityBefore decimal.Decimal
	QuantityAfter  decimal.Decimal
	Reason         string
	Reference      string
	ActorID        string
	CreatedAt      time.Time
}

// MovementFilter filtros de listado del ledger.
type MovementFilter struct {
	ProductID string
	Type      MovementType
	From      *time.Time
	To        *time.Time
}
