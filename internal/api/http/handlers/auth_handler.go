package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/faraddouglas/conecsa-api/internal/api/dto"
	"github.com/faraddouglas/conecsa-api/internal/auth"
	"github.com/faraddouglas/conecsa-api/internal/service"
	apperrors "github.com/faraddouglas/conecsa-api/pkg/util"
)

const (
	photoField    = "file"
	photoMaxBytes = 150 * 1024
	photoMIME     = "image/jpeg"
)

// AuthHandler exposes the login, registration and password reset endpoints.
type AuthHandler struct {
	auth   *service.AuthService
	photos *service.PhotoService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, photoService *service.PhotoService) *AuthHandler {
	return &AuthHandler{auth: authService, photos: photoService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(authPayload(result))
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		BirthAt:  dto.ParseDate(req.BirthAt),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(authPayload(result))
}

// Forget handles POST /auth/forget.
func (h *AuthHandler) Forget(c *fiber.Ctx) error {
	var req dto.ForgetRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.auth.Forget(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// Reset handles POST /auth/reset.
func (h *AuthHandler) Reset(c *fiber.Ctx) error {
	var req dto.ResetRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.auth.Reset(c.UserContext(), req.Password, req.Token)
	if err != nil {
		return err
	}
	return c.JSON(authPayload(result))
}

// Me handles POST /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	claims, user, err := h.auth.Me(principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": claims,
		"user": dto.NewUserResponse(user),
	})
}

// Photo handles POST /auth/photo.
func (h *AuthHandler) Photo(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	header, err := c.FormFile(photoField)
	if err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{photoField: "is required"})
	}
	if header.Header.Get(fiber.HeaderContentType) != photoMIME {
		return apperrors.NewValidationError("invalid payload", map[string]any{photoField: "must be a jpeg image"})
	}
	if header.Size > photoMaxBytes {
		return apperrors.NewValidationError("invalid payload", map[string]any{photoField: "must not exceed 150KB"})
	}

	src, err := header.Open()
	if err != nil {
		return apperrors.NewBadRequest("could not read upload")
	}
	defer src.Close()

	if _, err := h.photos.Save(c.UserContext(), principal.User.ID, src); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

func authPayload(result *service.AuthResult) fiber.Map {
	return fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(result.User),
			"auth": dto.AuthResponse{AccessToken: result.Token, ExpiresAt: result.ExpiresAt},
		},
	}
}
