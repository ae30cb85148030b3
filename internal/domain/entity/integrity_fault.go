package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// IntegrityFault divergencia detectada entre Product.StockQuantity y el replay del ledger.
// Se registra y se reporta; nunca se corrige automáticamente.
type IntegrityFault struct {
	ID               string
	ProductID        string
	StoredQuantity   decimal.Decimal
	ReplayedQuantity decimal.Decimal
	MovementCount    int
	Detail           string
	DetectedAt       time.Time
}
