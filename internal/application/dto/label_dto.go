package dto

import (
	"time"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// GenerateLabelsRequest body para POST /api/labels.
type GenerateLabelsRequest struct {
	PackagedBatchID string `json:"packaged_batch_id" validate:"required"`
	Count           int    `json:"count" validate:"required,min=1,max=500"`
}

// LabelResponse etiqueta emitida. TraceURL es el contenido del QR.
type LabelResponse struct {
	ID              string    `json:"id"`
	Code            string    `json:"code"`
	PackagedBatchID string    `json:"packaged_batch_id"`
	Sequence        int       `json:"sequence"`
	TraceURL        string    `json:"trace_url"`
	CreatedAt       time.Time `json:"created_at"`
}

// ToLabelResponses convierte etiquetas; traceBaseURL + "/" + código forma la URL pública.
func ToLabelResponses(list []*entity.Label, traceBaseURL string) []LabelResponse {
	out := make([]LabelResponse, 0, len(list))
	for _, l := range list {
		out = append(out, LabelResponse{
			ID: l.ID, Code: l.Code, PackagedBatchID: l.PackagedBatchID, Sequence: l.Sequence,
			TraceURL: traceBaseURL + "/" + l.Code, CreatedAt: l.CreatedAt,
		})
	}
	return out
}
