package validation

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// Struct valida un request con las etiquetas `validate` y devuelve
// un fiber.Error 400 con el primer campo que falló.
func Struct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Campo inválido: "+errs[0].Field())
		}
		return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
	}
	return nil
}
