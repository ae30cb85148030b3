// Package pdf genera las hojas de etiquetas de trazabilidad en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Finca + variedad + proceso  │  Lote + empaque       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PERFIL: tostión / merma / puntaje / presentación            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ETIQUETAS: QR │ código + secuencia   (dos por fila)         │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Trazabilidad-api/internal/application/traceability"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 92, Green: 54, Blue: 33}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

const labelsPerRow = 2

var _ traceability.LabelRenderer = (*MarotoLabelGenerator)(nil)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoLabelGenerator implementa traceability.LabelRenderer usando Maroto v2.
type MarotoLabelGenerator struct{}

// NewMarotoLabelGenerator construye el generador.
func NewMarotoLabelGenerator() *MarotoLabelGenerator { return &MarotoLabelGenerator{} }

// RenderLabels genera la hoja de etiquetas y devuelve sus bytes. Cada QR apunta a traceBaseURL/<código>.
func (g *MarotoLabelGenerator) RenderLabels(
	_ context.Context,
	view *traceability.ProvenanceView,
	labels []*entity.Label,
	traceBaseURL string,
) ([]byte, error) {
	if view == nil {
		return nil, fmt.Errorf("pdf: vista de procedencia requerida")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Etiquetas de trazabilidad "+view.LotCode, true).
		WithAuthor(view.Origin.Farm, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(view))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(profileRow(view))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(labelRows(view, labels, traceBaseURL)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: finca y origen (izq), lote y empaque (der).
func headerRow(view *traceability.ProvenanceView) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(view.Origin.Farm, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s · %s", view.Origin.Variety, view.Origin.Process), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("LOTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(view.LotCode, props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 6,
			}),
			text.New("Empacado: "+view.Packaging.PackagedAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

// profileRow: tostión, merma, puntaje y presentación.
func profileRow(view *traceability.ProvenanceView) core.Row {
	presentation := "Grano entero"
	if view.Packaging.Presentation == entity.PresentationGround {
		presentation = "Molido " + view.Packaging.GrindSize
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("PERFIL", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Tostión: %s   |   Merma: %s%%   |   Puntaje: %s   |   %s %s",
				nonEmpty(view.Roast.RoastLevel, "—"),
				view.Roast.WeightLossPercent.StringFixed(2),
				view.Sensory.Score.StringFixed(1),
				presentation,
				view.Packaging.PackageSize,
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// labelRows: una celda por etiqueta, labelsPerRow por fila.
func labelRows(view *traceability.ProvenanceView, labels []*entity.Label, traceBaseURL string) []core.Row {
	width := 12 / labelsPerRow
	rows := make([]core.Row, 0, len(labels)/labelsPerRow+1)
	for i := 0; i < len(labels); i += labelsPerRow {
		r := row.New(42)
		for j := i; j < i+labelsPerRow && j < len(labels); j++ {
			r.Add(labelCols(view, labels[j], traceBaseURL, width)...)
		}
		rows = append(rows, r, row.New(3))
	}
	return rows
}

func labelCols(view *traceability.ProvenanceView, label *entity.Label, traceBaseURL string, width int) []core.Col {
	qrWidth := width / 2
	return []core.Col{
		col.New(qrWidth).Add(code.NewQr(TraceURL(traceBaseURL, label.Code), props.Rect{
			Percent: 90,
			Center:  true,
		})),
		col.New(width-qrWidth).Add(
			text.New(fmt.Sprintf("#%d", label.Sequence), props.Text{
				Style: fontstyle.Bold, Size: 10, Color: colorPrimary, Top: 3,
			}),
			text.New(label.Code, props.Text{Size: 6.5, Top: 10}),
			text.New(view.Origin.Farm, props.Text{Size: 7, Top: 17, Color: colorGray}),
			text.New("Puntaje "+view.Sensory.Score.StringFixed(1), props.Text{Size: 7, Top: 23, Color: colorGray}),
			text.New("Escanea para ver el origen", props.Text{Size: 6, Top: 30, Color: colorGray}),
		),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

// TraceURL URL pública que abre la procedencia de la etiqueta.
func TraceURL(base, labelCode string) string {
	return base + "/" + labelCode
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
