package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventorypro-ledger/internal/application/dto"
	"github.com/jhoicas/inventorypro-ledger/internal/domain"
)

// LocalError guarda el error de la respuesta para el log de la petición.
const LocalError = "error"

// writeError traduce un error de dominio a la respuesta HTTP.
func writeError(c *fiber.Ctx, err error) error {
	c.Locals(LocalError, err)
	status, body := errorResponse(err)
	return c.Status(status).JSON(body)
}

func errorResponse(err error) (int, dto.ErrorResponse) {
	var (
		fieldErrs domain.FieldErrors
		valErr    *domain.ValidationError
		stockErr  *domain.InsufficientStockError
	)
	switch {
	case errors.As(err, &fieldErrs):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: "revise los campos marcados", Fields: fieldErrs}
	case errors.As(err, &valErr):
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Code: "VALIDATION", Message: valErr.Message, Fields: map[string]string{valErr.Field: valErr.Message},
		}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()}
	case errors.As(err, &stockErr):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: stockErr.Error()}
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()}
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()}
	default:
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()}
	}
}

// ErrorHandler para fiber.Config: errores no tratados por los handlers (404 de ruta, panics recuperados).
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		c.Locals(LocalError, err)
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message})
	}
	return writeError(c, err)
}
