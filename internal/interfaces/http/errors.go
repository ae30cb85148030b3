package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// bindJSON parsea el cuerpo y aplica las reglas `validate` del DTO.
func bindJSON(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("%w: cuerpo inválido", domain.ErrInvalidInput)
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return &fieldErrors{errs: verrs}
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// fieldErrors errores de validación por campo; se reportan en details.
type fieldErrors struct {
	errs validator.ValidationErrors
}

func (e *fieldErrors) Error() string {
	parts := make([]string, 0, len(e.errs))
	for _, fe := range e.errs {
		parts = append(parts, fe.Field()+" ("+fe.Tag()+")")
	}
	return "campos inválidos: " + strings.Join(parts, ", ")
}

func (e *fieldErrors) Unwrap() error { return domain.ErrInvalidInput }

func (e *fieldErrors) details() map[string]any {
	out := make(map[string]any, len(e.errs))
	for _, fe := range e.errs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

// errorStatus traduce un error de dominio a status HTTP y ErrorResponse.
func errorStatus(err error) (int, dto.ErrorResponse) {
	var (
		qe *domain.QuantityError
		se *domain.StateError
		ie *domain.IntegrityError
		fe *fieldErrors
	)
	switch {
	case errors.As(err, &fe):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: fe.Error(), Details: fe.details()}
	case errors.As(err, &qe):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "INSUFFICIENT_QUANTITY", Message: err.Error(), Details: map[string]any{
			"entity": qe.Entity, "id": qe.ID, "requested": qe.Requested.String(), "available": qe.Available.String(),
		}}
	case errors.Is(err, domain.ErrInsufficientQuantity):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "INSUFFICIENT_QUANTITY", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidQuantity):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "INVALID_QUANTITY", Message: err.Error()}
	case errors.As(err, &se):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "INVALID_STATE", Message: err.Error(), Details: map[string]any{
			"entity": se.Entity, "id": se.ID, "current": se.Current, "expected": se.Expected,
		}}
	case errors.Is(err, domain.ErrInvalidState):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "INVALID_STATE", Message: err.Error()}
	case errors.As(err, &ie):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "INTEGRITY_FAULT", Message: err.Error(), Details: map[string]any{
			"product_id": ie.ProductID, "stored": ie.Stored.String(), "replayed": ie.Replayed.String(),
		}}
	case errors.Is(err, domain.ErrIntegrityFault):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "INTEGRITY_FAULT", Message: err.Error()}
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "no autorizado"}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"}
	case errors.Is(err, domain.ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable, dto.ErrorResponse{Code: "STORE_UNAVAILABLE", Message: "almacenamiento no disponible, intente más tarde"}
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := "REQUEST_ERROR"
		if fiberErr.Code == fiber.StatusNotFound {
			code = "NOT_FOUND"
		}
		return fiberErr.Code, dto.ErrorResponse{Code: code, Message: fiberErr.Message}
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
}

// writeError responde con el ErrorResponse correspondiente a err.
func writeError(c *fiber.Ctx, err error) error {
	status, body := errorStatus(err)
	return c.Status(status).JSON(body)
}

// ErrorHandler handler de errores de Fiber: loguea los 5xx y responde con ErrorResponse.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := errorStatus(err)
		if status >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
		}
		return c.Status(status).JSON(body)
	}
}
