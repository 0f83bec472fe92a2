package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"kiosk-attendance-backend/internal/alarm"
	"kiosk-attendance-backend/internal/middleware"
	"kiosk-attendance-backend/internal/model"
	"kiosk-attendance-backend/internal/repository"
	"kiosk-attendance-backend/internal/usecase"
)

var validate = validator.New()

type UserHandler struct {
	usecase  *usecase.UserUsecase
	reporter *alarm.Reporter
}

func NewUserHandler(u *usecase.UserUsecase, reporter *alarm.Reporter) *UserHandler {
	return &UserHandler{usecase: u, reporter: reporter}
}

func (h *UserHandler) Register(c *fiber.Ctx) error {
	var input struct {
		Name     string `json:"name" validate:"required,max=255"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		Role     string `json:"role" validate:"omitempty,oneof=admin operator"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if err := validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed: " + err.Error()})
	}

	user, err := h.usecase.Register(c.UserContext(), input.Name, input.Email, input.Password, input.Role)
	if errors.Is(err, usecase.ErrEmailTaken) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Registration failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "User registered successfully", "user": user})
}

func (h *UserHandler) Login(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if err := validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Email and password are required"})
	}

	token, user, err := h.usecase.Login(c.UserContext(), input.Email, input.Password)
	switch {
	case errors.Is(err, usecase.ErrInvalidCredentials), errors.Is(err, usecase.ErrUserInactive):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Login failed"})
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	id, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	user, err := h.usecase.Me(c.UserContext(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get user info"})
	}
	return c.JSON(fiber.Map{"user": user, "isAdmin": user.Role == model.RoleAdmin})
}

func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	id, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var input struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=8"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if err := validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Current password and a new password of at least 8 characters are required"})
	}

	err := h.usecase.ChangePassword(c.UserContext(), id, input.CurrentPassword, input.NewPassword)
	switch {
	case errors.Is(err, usecase.ErrWrongPassword):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Current password is incorrect"})
	case errors.Is(err, repository.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to change password"})
	}

	_ = h.reporter.Audit(c.UserContext(), alarm.Entry{
		Action:     model.AuditPasswordChanged,
		EntityType: "user",
		EntityID:   id,
		UserID:     &id,
		IPAddress:  c.IP(),
	})
	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}

// Logout only records the event; tokens are stateless and dropped by the client.
func (h *UserHandler) Logout(c *fiber.Ctx) error {
	id, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	_ = h.reporter.Audit(c.UserContext(), alarm.Entry{
		Action:     model.AuditUserLogout,
		EntityType: "user",
		EntityID:   id,
		UserID:     &id,
		IPAddress:  c.IP(),
	})
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}
