package process

import (
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/oklog/ulid/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

var upper = cases.Upper(language.Spanish)

// FarmPrefix abreviatura de la finca para códigos de lote: iniciales si tiene varias palabras,
// las primeras cuatro letras si es una sola. "Finca La Esperanza" → "FLE".
func FarmPrefix(farm string) string {
	words := strings.FieldsFunc(slug.Make(farm), func(r rune) bool { return r == '-' })
	if len(words) == 0 {
		return "LOT"
	}
	if len(words) == 1 {
		w := words[0]
		if len(w) > 4 {
			w = w[:4]
		}
		return upper.String(w)
	}
	var b strings.Builder
	for i, w := range words {
		if i == 4 {
			break
		}
		b.WriteByte(w[0])
	}
	return upper.String(b.String())
}

// HarvestLotCode código de un lote de cosecha: <FINCA>-<AAAAMMDD>-<sufijo ULID>.
func HarvestLotCode(farm string, at time.Time) string {
	return FarmPrefix(farm) + "-" + at.Format("20060102") + "-" + ulidTail(at)
}

// ChildLotCode código de un lote derivado: <código padre>-<marca de etapa><sufijo ULID>.
func ChildLotCode(parentCode string, stage entity.LotStage, at time.Time) string {
	mark := "D"
	if stage == entity.LotStageSentToRoast {
		mark = "T"
	}
	return parentCode + "-" + mark + ulidTail(at)
}

// LabelCode código único de etiqueta.
func LabelCode(at time.Time) string {
	return "LBL-" + ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
}

func ulidTail(at time.Time) string {
	id := ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
	return id[len(id)-8:]
}

// DeriveSKU SKU determinístico para un empaque vendible: el mismo lote de origen, presentación,
// molienda y tamaño siempre producen el mismo SKU, así el producto se reutiliza.
//
//	CAF-<código lote raíz>-<WB | GR-<molienda>>-<tamaño>
func DeriveSKU(rootLotCode string, presentation entity.Presentation, grindSize, packageSize string) string {
	parts := []string{"CAF", slug.Make(rootLotCode)}
	if presentation == entity.PresentationGround {
		parts = append(parts, "gr", slug.Make(grindSize))
	} else {
		parts = append(parts, "wb")
	}
	parts = append(parts, slug.Make(packageSize))
	return upper.String(strings.Join(parts, "-"))
}
