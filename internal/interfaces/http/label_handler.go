package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/traceability"
)

// LabelHandler maneja etiquetas, su PDF y la consulta de procedencia.
type LabelHandler struct {
	reader *traceability.Reader
}

// NewLabelHandler construye el handler.
func NewLabelHandler(reader *traceability.Reader) *LabelHandler {
	return &LabelHandler{reader: reader}
}

// Generate godoc
// @Summary      Generar etiquetas para un empaque
// @Tags         labels
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.GenerateLabelsRequest  true  "Empaque y cantidad (1..500)"
// @Success      201   {array}   dto.LabelResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/labels [post]
func (h *LabelHandler) Generate(c *fiber.Ctx) error {
	var in dto.GenerateLabelsRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	labels, err := h.reader.GenerateLabels(c.UserContext(), in.PackagedBatchID, in.Count, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToLabelResponses(labels, h.reader.TraceBaseURL()))
}

// ListByBatch godoc
// @Summary      Etiquetas de un empaque
// @Tags         labels
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del empaque"
// @Success      200  {array}   dto.LabelResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/labels/batch/{id} [get]
func (h *LabelHandler) ListByBatch(c *fiber.Ctx) error {
	labels, err := h.reader.ListLabels(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToLabelResponses(labels, h.reader.TraceBaseURL()))
}

// PDF godoc
// @Summary      Hoja de etiquetas en PDF con QR
// @Tags         labels
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del empaque"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/labels/batch/{id}/pdf [get]
func (h *LabelHandler) PDF(c *fiber.Ctx) error {
	id := c.Params("id")
	pdf, err := h.reader.RenderLabelsPDF(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="etiquetas-`+id+`.pdf"`)
	return c.Send(pdf)
}

// Provenance godoc
// @Summary      Procedencia completa de un empaque
// @Tags         trace
// @Security     Bearer
// @Produce      json
// @Param        packagedBatchId  path  string  true  "ID del empaque"
// @Success      200  {object}  traceability.ProvenanceView
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/trace/{packagedBatchId} [get]
func (h *LabelHandler) Provenance(c *fiber.Ctx) error {
	view, err := h.reader.Provenance(c.UserContext(), c.Params("packagedBatchId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(view)
}

// LabelSnapshotResponse respuesta pública del QR: la etiqueta y la procedencia congelada al emitirla.
type LabelSnapshotResponse struct {
	Code            string                       `json:"code"`
	PackagedBatchID string                       `json:"packaged_batch_id"`
	Sequence        int                          `json:"sequence"`
	IssuedAt        time.Time                    `json:"issued_at"`
	Provenance      *traceability.ProvenanceView `json:"provenance"`
}

// LabelSnapshot godoc
// @Summary      Consulta pública del QR de una etiqueta
// @Tags         trace
// @Produce      json
// @Param        code  path  string  true  "Código de la etiqueta (LBL-...)"
// @Success      200   {object}  LabelSnapshotResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/trace/labels/{code} [get]
func (h *LabelHandler) LabelSnapshot(c *fiber.Ctx) error {
	label, view, err := h.reader.LabelSnapshot(c.UserContext(), c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(LabelSnapshotResponse{
		Code:            label.Code,
		PackagedBatchID: label.PackagedBatchID,
		Sequence:        label.Sequence,
		IssuedAt:        label.CreatedAt,
		Provenance:      view,
	})
}
