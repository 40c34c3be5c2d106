package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/faraddouglas/conecsa-api/internal/api/dto"
)

type validatable interface {
	Validate() error
}

func parseAndValidate(c *fiber.Ctx, req validatable) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := req.Validate(); err != nil {
		return dto.ValidationError(err)
	}
	return nil
}
