package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/lots"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// pageParams lee limit/offset de la query. limit fuera de 1..500 usa 50.
func pageParams(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 50)
	offset = c.QueryInt("offset", 0)
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// LotHandler maneja las peticiones HTTP de lotes (protegido).
type LotHandler struct {
	registry *lots.LotRegistry
}

// NewLotHandler construye el handler.
func NewLotHandler(registry *lots.LotRegistry) *LotHandler {
	return &LotHandler{registry: registry}
}

// RegisterHarvest godoc
// @Summary      Registrar cosecha (lote verde)
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterHarvestRequest  true  "Finca, variedad, proceso y peso"
// @Success      201   {object}  dto.LotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/lots/harvest [post]
func (h *LotHandler) RegisterHarvest(c *fiber.Ctx) error {
	var in dto.RegisterHarvestRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	lot, err := h.registry.RegisterHarvest(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToLotResponse(lot))
}

// List godoc
// @Summary      Listar lotes por etapa
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        stage   query  string  false  "green, sent_to_roast, roasted, stored, packaged"
// @Param        limit   query  int     false  "Límite"  default(50)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.LotListResponse
// @Router       /api/lots [get]
func (h *LotHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	list, err := h.registry.ListByStage(c.UserContext(), entity.LotStage(c.Query("stage")), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.LotListResponse{Items: dto.ToLotResponses(list), Page: dto.PageResponse{Limit: limit, Offset: offset}})
}

// Get godoc
// @Summary      Obtener lote por ID o código
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        ref  path  string  true  "ID o código del lote"
// @Success      200  {object}  dto.LotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{ref} [get]
func (h *LotHandler) Get(c *fiber.Ctx) error {
	lot, err := h.registry.GetByCodeOrID(c.UserContext(), c.Params("ref"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToLotResponse(lot))
}

// Ancestors godoc
// @Summary      Cadena de ancestros hasta la cosecha
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {array}   dto.LotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/ancestors [get]
func (h *LotHandler) Ancestors(c *fiber.Ctx) error {
	list, err := h.registry.Ancestors(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToLotResponses(list))
}

// Descendants godoc
// @Summary      Lotes derivados
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {array}   dto.LotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/descendants [get]
func (h *LotHandler) Descendants(c *fiber.Ctx) error {
	list, err := h.registry.Descendants(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToLotResponses(list))
}
