// Package process contiene las reglas puras del pipeline de tostión: merma, puntaje de taza
// y la derivación determinística de códigos y SKU a partir del linaje.
package process

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	three   = decimal.NewFromInt(3)
	// MaxSensoryScore tope de cada atributo sensorial.
	MaxSensoryScore = decimal.NewFromInt(10)
)

// WeightLossPercent merma de tostión: round(((enviado - tostado) / enviado) * 100, 2).
// El llamador garantiza 0 < tostado <= enviado.
func WeightLossPercent(sent, roasted decimal.Decimal) decimal.Decimal {
	if !sent.IsPositive() {
		return decimal.Zero
	}
	return sent.Sub(roasted).Mul(hundred).Div(sent).Round(2)
}

// CupScore puntaje de taza: round((acidez + cuerpo + balance) / 3, 1).
func CupScore(acidity, body, balance decimal.Decimal) decimal.Decimal {
	return acidity.Add(body).Add(balance).Div(three).Round(1)
}

// ValidSensory indica si un atributo sensorial está en [0, 10] con máximo dos decimales.
func ValidSensory(v decimal.Decimal) bool {
	return !v.IsNegative() && v.LessThanOrEqual(MaxSensoryScore) && v.Equal(v.Truncate(2))
}
