package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/faraddouglas/conecsa-api/internal/api/dto"
	"github.com/faraddouglas/conecsa-api/internal/domain"
	"github.com/faraddouglas/conecsa-api/internal/service"
)

// UsersHandler exposes user administration endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// Create handles POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.UserRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.Create(c.UserContext(), userInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return err
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Update handles PUT /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.UserRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.Update(c.UserContext(), c.Params("id"), userInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Patch handles PATCH /users/:id.
func (h *UsersHandler) Patch(c *fiber.Ctx) error {
	var req dto.UserPatchRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	patch := service.UserPatch{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		BirthAt:  dto.ParseDate(req.BirthAt),
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		patch.Role = &role
	}

	user, err := h.users.Patch(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Delete handles DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	if err := h.users.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func userInput(req dto.UserRequest) service.UserInput {
	input := service.UserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		BirthAt:  dto.ParseDate(req.BirthAt),
	}
	if req.Role != nil {
		input.Role = domain.Role(*req.Role)
	}
	return input
}
