package inventory

import (
	"fmt"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ReplayResult resultado de reconstruir el saldo desde cero.
// Fault vacío indica que la secuencia es consistente consigo misma.
type ReplayResult struct {
	Balance decimal.Decimal
	Count   int
	Fault   string
}

// Replay reconstruye el saldo sumando los deltas con signo en orden de Seq ascendente.
// Verifica además que cada movimiento encadene con el anterior y que su aritmética before/after cuadre.
func Replay(movements []*entity.InventoryMovement) ReplayResult {
	res := ReplayResult{Balance: decimal.Zero}
	for _, m := range movements {
		if res.Fault == "" {
			if !m.QuantityBefore.Equal(res.Balance) {
				res.Fault = fmt.Sprintf("movimiento %s: before %s no encadena con saldo %s",
					m.ID, m.QuantityBefore.String(), res.Balance.String())
			} else if expected := m.QuantityBefore.Add(SignedDelta(m.Type, m.Quantity)); !expected.Equal(m.QuantityAfter) {
				res.Fault = fmt.Sprintf("movimiento %s: after %s, esperado %s",
					m.ID, m.QuantityAfter.String(), expected.String())
			} else if m.QuantityAfter.IsNegative() {
				res.Fault = fmt.Sprintf("movimiento %s: saldo negativo %s", m.ID, m.QuantityAfter.String())
			}
		}
		res.Balance = res.Balance.Add(SignedDelta(m.Type, m.Quantity))
		res.Count++
	}
	return res
}

// Reconcile compara el saldo almacenado contra el replay. Devuelve el detalle de la falla o "".
func Reconcile(stored decimal.Decimal, movements []*entity.InventoryMovement) (ReplayResult, string) {
	res := Replay(movements)
	if res.Fault != "" {
		return res, res.Fault
	}
	if !res.Balance.Equal(stored) {
		return res, fmt.Sprintf("saldo almacenado %s difiere del replay %s (%d movimientos)",
			stored.String(), res.Balance.String(), res.Count)
	}
	return res, ""
}
