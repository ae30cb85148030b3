package process_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/process"
)

func TestWeightLossPercent(t *testing.T) {
	cases := []struct {
		sent, roasted int64
		want          string
	}{
		{50, 42, "16.00"},
		{12, 10, "16.67"},
		{20, 20, "0.00"},
		{3, 1, "66.67"},
	}
	for _, tc := range cases {
		got := process.WeightLossPercent(decimal.NewFromInt(tc.sent), decimal.NewFromInt(tc.roasted))
		assert.Equal(t, tc.want, got.StringFixed(2), "enviado=%d tostado=%d", tc.sent, tc.roasted)
	}
}

func TestCupScore(t *testing.T) {
	got := process.CupScore(decimal.NewFromInt(8), decimal.NewFromInt(7), decimal.NewFromInt(9))
	assert.Equal(t, "8.0", got.StringFixed(1))

	got = process.CupScore(decimal.RequireFromString("8.5"), decimal.NewFromInt(7), decimal.NewFromInt(9))
	assert.Equal(t, "8.2", got.StringFixed(1))
}

func TestValidSensory(t *testing.T) {
	assert.True(t, process.ValidSensory(decimal.Zero))
	assert.True(t, process.ValidSensory(decimal.NewFromInt(10)))
	assert.False(t, process.ValidSensory(decimal.RequireFromString("10.5")))
	assert.False(t, process.ValidSensory(decimal.NewFromInt(-1)))
	assert.False(t, process.ValidSensory(decimal.RequireFromString("8.125")), "la columna guarda dos decimales")
}

func TestCheckQuantity_EscalaYRango(t *testing.T) {
	for _, ok := range []string{"0.001", "20", "1.250", "1.2500", "99999999999.999"} {
		assert.NoError(t, process.CheckQuantity("peso", decimal.RequireFromString(ok)), ok)
	}
	for _, bad := range []string{"0.0005", "0.0004", "19.9995", "100000000000"} {
		err := process.CheckQuantity("peso", decimal.RequireFromString(bad))
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity, bad)
	}
	assert.True(t, process.FitsNumeric(decimal.RequireFromString("9999.99"), 6, 2))
	assert.False(t, process.FitsNumeric(decimal.RequireFromString("10000"), 6, 2))
}

func TestFarmPrefix(t *testing.T) {
	assert.Equal(t, "FLE", process.FarmPrefix("Finca La Esperanza"))
	assert.Equal(t, "CHIR", process.FarmPrefix("Chiroso"))
	assert.Equal(t, "EPA", process.FarmPrefix("El Páramo Alto"))
	assert.Equal(t, "LOT", process.FarmPrefix("  "))
}

func TestHarvestLotCode_Formato(t *testing.T) {
	at := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	code := process.HarvestLotCode("Finca La Esperanza", at)
	assert.True(t, strings.HasPrefix(code, "FLE-20261018-"), code)
	assert.Len(t, code, len("FLE-20261018-")+8)

	other := process.HarvestLotCode("Finca La Esperanza", at)
	assert.NotEqual(t, code, other, "dos cosechas el mismo día deben tener códigos distintos")
}

func TestDeriveSKU_Deterministico(t *testing.T) {
	a := process.DeriveSKU("FLE-20261018-AB12CD34", entity.PresentationWholeBean, "", "500g")
	b := process.DeriveSKU("FLE-20261018-AB12CD34", entity.PresentationWholeBean, "", "500g")
	assert.Equal(t, a, b)
	assert.Equal(t, "CAF-FLE-20261018-AB12CD34-WB-500G", a)

	ground := process.DeriveSKU("FLE-20261018-AB12CD34", entity.PresentationGround, "Media Fina", "250 g")
	assert.Equal(t, "CAF-FLE-20261018-AB12CD34-GR-MEDIA-FINA-250-G", ground)
	assert.NotEqual(t, a, ground)
}
