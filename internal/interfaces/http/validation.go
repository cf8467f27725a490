package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventorypro-ledger/internal/application/dto"
	"github.com/jhoicas/inventorypro-ledger/internal/domain"
)

var validate = newValidator()

// newValidator usa el nombre del tag json en los errores para que coincida con el formulario.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		}
		return name
	})
	return v
}

// parseBody decodifica el JSON y valida los tags `validate`.
// Devuelve la respuesta ya escrita en ok=false.
func parseBody(c *fiber.Ctx, out any) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validateStruct(out); err != nil {
		return false, writeError(c, err)
	}
	return true, nil
}

// validateStruct devuelve domain.FieldErrors con un mensaje por campo.
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := domain.FieldErrors{}
	for _, e := range verrs {
		fe.Add(e.Field(), validationMessage(e))
	}
	return fe
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "campo obligatorio"
	case "email":
		return "formato de email inválido"
	case "min":
		if e.Kind() == reflect.String {
			return "debe tener al menos " + e.Param() + " caracteres"
		}
		return "debe ser al menos " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "debe tener como máximo " + e.Param() + " caracteres"
		}
		return "debe ser como máximo " + e.Param()
	default:
		return "valor inválido"
	}
}
