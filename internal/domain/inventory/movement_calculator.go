package inventory

import (
	"fmt"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/process"
	"github.com/shopspring/decimal"
)

// MovementResult saldo resultante y cantidad que queda registrada en el movimiento.
type MovementResult struct {
	After    decimal.Decimal
	Recorded decimal.Decimal
}

// ApplyMovement calcula el saldo después de un movimiento (servicio de dominio, función pura).
//
//	in/return:  after = before + q
//	out/loss:   after = max(0, before - q), registrado = before - after
//	adjust:     q es el saldo objetivo, registrado = q - before
func ApplyMovement(before decimal.Decimal, t entity.MovementType, q decimal.Decimal) (MovementResult, error) {
	if !t.Valid() {
		return MovementResult{}, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, t)
	}
	if q.IsNegative() || (t != entity.MovementTypeAdjust && q.IsZero()) {
		return MovementResult{}, fmt.Errorf("%w: %s con cantidad %s", domain.ErrInvalidQuantity, t, q.String())
	}
	if err := process.CheckQuantity(string(t), q); err != nil {
		return MovementResult{}, err
	}
	var res MovementResult
	switch t {
	case entity.MovementTypeIn, entity.MovementTypeReturn:
		res = MovementResult{After: before.Add(q), Recorded: q}
	case entity.MovementTypeOut, entity.MovementTypeLoss:
		after := decimal.Max(decimal.Zero, before.Sub(q))
		res = MovementResult{After: after, Recorded: before.Sub(after)}
	default:
		res = MovementResult{After: q, Recorded: q.Sub(before)}
	}
	if err := process.CheckQuantity("saldo resultante de "+string(t), res.After); err != nil {
		return MovementResult{}, err
	}
	return res, nil
}

// SignedDelta devuelve el efecto con signo de un movimiento ya registrado sobre el saldo.
func SignedDelta(t entity.MovementType, recorded decimal.Decimal) decimal.Decimal {
	switch t {
	case entity.MovementTypeOut, entity.MovementTypeLoss:
		return recorded.Neg()
	default:
		return recorded
	}
}
