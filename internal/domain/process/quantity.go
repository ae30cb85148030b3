package process

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
)

// Las columnas de cantidad (kg y unidades) son NUMERIC(14, 3): una cantidad con más decimales
// se redondearía al guardarse y el padre y el hijo de una división dejarían de sumar lo mismo.
const (
	QuantityPrecision = 14
	QuantityScale     = 3
)

// FitsNumeric indica si q cabe en NUMERIC(precision, scale) sin redondeo ni desbordamiento.
func FitsNumeric(q decimal.Decimal, precision, scale int32) bool {
	if !q.Equal(q.Truncate(scale)) {
		return false
	}
	return q.Abs().LessThan(decimal.New(1, precision-scale))
}

// CheckQuantity rechaza con ErrInvalidQuantity una cantidad que no cabe en las columnas de cantidad.
func CheckQuantity(field string, q decimal.Decimal) error {
	if !FitsNumeric(q, QuantityPrecision, QuantityScale) {
		return fmt.Errorf("%w: %s %s admite hasta %d decimales y %d dígitos enteros",
			domain.ErrInvalidQuantity, field, q.String(), QuantityScale, QuantityPrecision-QuantityScale)
	}
	return nil
}
