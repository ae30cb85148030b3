package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/transitions"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// TransitionHandler maneja las transiciones de etapa y los listados de registros por estado.
type TransitionHandler struct {
	engine *transitions.Engine
}

// NewTransitionHandler construye el handler.
func NewTransitionHandler(engine *transitions.Engine) *TransitionHandler {
	return &TransitionHandler{engine: engine}
}

// SendToRoast godoc
// @Summary      Enviar café verde a tostión
// @Tags         transitions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SendToRoastRequest  true  "Lote verde y peso"
// @Success      201   {object}  dto.RoastingBatchResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/transitions/send-to-roast [post]
func (h *TransitionHandler) SendToRoast(c *fiber.Ctx) error {
	var in dto.SendToRoastRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	res, err := h.engine.SendToRoast(c.UserContext(), transitions.SendToRoastInput{
		GreenLotID: in.LotID,
		Weight:     in.WeightKg,
		TargetTemp: in.TargetTemp,
		ActorID:    GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.ToRoastingBatchResponse(res.Batch)
	lot := dto.ToLotResponse(res.Lot)
	out.Lot = &lot
	out.SourceRemaining = &res.SourceRemaining
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RetrieveRoast godoc
// @Summary      Retirar tostión
// @Tags         transitions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RetrieveRoastRequest  true  "Tostión, peso tostado y perfil"
// @Success      201   {object}  dto.RoastedBatchResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/transitions/retrieve-roast [post]
func (h *TransitionHandler) RetrieveRoast(c *fiber.Ctx) error {
	var in dto.RetrieveRoastRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	batch, err := h.engine.RetrieveRoast(c.UserContext(), transitions.RetrieveRoastInput{
		RoastingBatchID: in.RoastingBatchID,
		RoastedWeight:   in.RoastedWeightKg,
		RoastLevel:      in.RoastLevel,
		ActualTemp:      in.ActualTemp,
		Minutes:         in.Minutes,
		ActorID:         GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToRoastedBatchResponse(batch))
}

// StoreRoasted godoc
// @Summary      Almacenar café tostado
// @Tags         transitions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StoreRoastedRequest  true  "Tostado, ubicación y contenedores"
// @Success      201   {object}  dto.StorageBatchResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transitions/store-roasted [post]
func (h *TransitionHandler) StoreRoasted(c *fiber.Ctx) error {
	var in dto.StoreRoastedRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	batch, err := h.engine.StoreRoasted(c.UserContext(), transitions.StoreRoastedInput{
		RoastedBatchID: in.RoastedBatchID,
		Location:       in.Location,
		ContainerType:  in.ContainerType,
		ContainerCount: in.ContainerCount,
		Conditions:     in.Conditions,
		ActorID:        GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToStorageBatchResponse(batch))
}

// Package godoc
// @Summary      Empacar café almacenado
// @Tags         transitions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PackageRequest  true  "Perfil sensorial, presentación y unidades"
// @Success      201   {object}  dto.PackagedBatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transitions/package [post]
func (h *TransitionHandler) Package(c *fiber.Ctx) error {
	var in dto.PackageRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	res, err := h.engine.Package(c.UserContext(), transitions.PackageInput{
		StorageBatchID:     in.StorageBatchID,
		Acidity:            in.Acidity,
		Body:               in.Body,
		Balance:            in.Balance,
		Presentation:       entity.Presentation(in.Presentation),
		GrindSize:          in.GrindSize,
		PackageSize:        in.PackageSize,
		UnitCount:          in.UnitCount,
		AddToSellableStock: in.AddToSellableStock,
		ActorID:            GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.ToPackagedBatchResponse(res.Batch)
	if res.Movement != nil {
		mov := dto.ToMovementResponse(res.Movement)
		out.Movement = &mov
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListRoasting godoc
// @Summary      Listar tostiones
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "in_roasting, completed"
// @Success      200     {array}  dto.RoastingBatchResponse
// @Router       /api/batches/roasting [get]
func (h *TransitionHandler) ListRoasting(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	list, err := h.engine.ListRoasting(c.UserContext(), entity.BatchStatus(c.Query("status")), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.RoastingBatchResponse, 0, len(list))
	for _, b := range list {
		out = append(out, dto.ToRoastingBatchResponse(b))
	}
	return c.JSON(out)
}

// ListRoasted godoc
// @Summary      Listar tostados
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "ready_for_storage, stored"
// @Success      200     {array}  dto.RoastedBatchResponse
// @Router       /api/batches/roasted [get]
func (h *TransitionHandler) ListRoasted(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	list, err := h.engine.ListRoasted(c.UserContext(), entity.BatchStatus(c.Query("status")), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.RoastedBatchResponse, 0, len(list))
	for _, b := range list {
		out = append(out, dto.ToRoastedBatchResponse(b))
	}
	return c.JSON(out)
}

// ListStorage godoc
// @Summary      Listar almacenamientos
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "ready_for_packaging, packaged"
// @Success      200     {array}  dto.StorageBatchResponse
// @Router       /api/batches/storage [get]
func (h *TransitionHandler) ListStorage(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	list, err := h.engine.ListStorage(c.UserContext(), entity.BatchStatus(c.Query("status")), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StorageBatchResponse, 0, len(list))
	for _, b := range list {
		out = append(out, dto.ToStorageBatchResponse(b))
	}
	return c.JSON(out)
}

// ListPackaged godoc
// @Summary      Listar empaques
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.PackagedBatchResponse
// @Router       /api/batches/packaged [get]
func (h *TransitionHandler) ListPackaged(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	list, err := h.engine.ListPackaged(c.UserContext(), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.PackagedBatchResponse, 0, len(list))
	for _, b := range list {
		out = append(out, dto.ToPackagedBatchResponse(b))
	}
	return c.JSON(out)
}
