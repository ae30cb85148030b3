package traceability

import (
	"context"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// LabelRenderer genera el PDF de una hoja de etiquetas con un QR por etiqueta.
// El contenido del QR es traceBaseURL + "/" + código.
type LabelRenderer interface {
	RenderLabels(ctx context.Context, view *ProvenanceView, labels []*entity.Label, traceBaseURL string) ([]byte, error)
}
