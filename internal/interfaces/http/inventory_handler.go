package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/inventory"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// InventoryHandler maneja el ledger de movimientos y la verificación del stock (protegido).
type InventoryHandler struct {
	ledger    *inventory.Ledger
	projector *inventory.StockProjector
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.Ledger, projector *inventory.StockProjector) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, projector: projector}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, type, quantity (saldo objetivo en adjust), reason"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	mov, err := h.ledger.Append(c.UserContext(), inventory.AppendInput{
		ProductID: in.ProductID,
		Type:      entity.MovementType(in.Type),
		Quantity:  in.Quantity,
		Reason:    in.Reason,
		Reference: in.Reference,
		ActorID:   GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovementResponse(mov))
}

// ListMovements godoc
// @Summary      Listar movimientos del ledger
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Producto"
// @Param        type        query  string  false  "in, out, adjust, loss, return"
// @Param        from        query  string  false  "RFC3339"
// @Param        to          query  string  false  "RFC3339"
// @Param        limit       query  int     false  "Límite"  default(50)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200         {object}  dto.MovementListResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	filter := entity.MovementFilter{
		ProductID: c.Query("product_id"),
		Type:      entity.MovementType(c.Query("type")),
	}
	var err error
	if filter.From, err = queryTime(c, "from"); err != nil {
		return writeError(c, err)
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		return writeError(c, err)
	}
	limit, offset := pageParams(c)
	list, total, err := h.ledger.List(c.UserContext(), filter, limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, dto.ToMovementResponse(m))
	}
	return c.JSON(dto.MovementListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset, Total: total}})
}

func queryTime(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s debe ser RFC3339", domain.ErrInvalidInput, name)
	}
	return &t, nil
}

func toVerifyResponse(r *inventory.VerifyReport) dto.VerifyResponse {
	return dto.VerifyResponse{
		ProductID: r.ProductID, Stored: r.Stored, Replayed: r.Replayed,
		MovementCount: r.MovementCount, Consistent: r.Consistent, Detail: r.Detail,
	}
}

// VerifyProduct godoc
// @Summary      Verificar el stock de un producto contra el ledger
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.VerifyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/verify [get]
func (h *InventoryHandler) VerifyProduct(c *fiber.Ctx) error {
	report, err := h.projector.Verify(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrIntegrityFault) && report != nil {
			status, body := errorStatus(err)
			if body.Details == nil {
				body.Details = map[string]any{}
			}
			body.Details["movement_count"] = report.MovementCount
			body.Details["detail"] = report.Detail
			return c.Status(status).JSON(body)
		}
		return writeError(c, err)
	}
	return c.JSON(toVerifyResponse(report))
}

// VerifyAll godoc
// @Summary      Auditar el stock de todos los productos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.AuditResponse
// @Router       /api/inventory/verify [post]
func (h *InventoryHandler) VerifyAll(c *fiber.Ctx) error {
	summary, err := h.projector.VerifyAll(c.UserContext(), c.QueryInt("page_size", 100))
	if err != nil {
		return writeError(c, err)
	}
	out := dto.AuditResponse{Checked: summary.Checked, Faults: make([]dto.VerifyResponse, 0, len(summary.Faults))}
	for _, r := range summary.Faults {
		out.Faults = append(out.Faults, toVerifyResponse(r))
	}
	return c.JSON(out)
}

// ListFaults godoc
// @Summary      Historial de divergencias de stock
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Producto"
// @Success      200         {array}  dto.IntegrityFaultResponse
// @Router       /api/inventory/integrity-faults [get]
func (h *InventoryHandler) ListFaults(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	list, err := h.projector.ListFaults(c.UserContext(), c.Query("product_id"), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.IntegrityFaultResponse, 0, len(list))
	for _, f := range list {
		out = append(out, dto.ToIntegrityFaultResponse(f))
	}
	return c.JSON(out)
}
