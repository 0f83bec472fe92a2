package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"kiosk-attendance-backend/internal/middleware"
	"kiosk-attendance-backend/internal/repository"
	"kiosk-attendance-backend/internal/usecase"
)

type QRCodeHandler struct {
	usecase *usecase.QRCodeUsecase
	repo    repository.QRCodeRepository
}

func NewQRCodeHandler(u *usecase.QRCodeUsecase, repo repository.QRCodeRepository) *QRCodeHandler {
	return &QRCodeHandler{usecase: u, repo: repo}
}

type GenerateQRRequest struct {
	KioskID    uint   `json:"kioskId" validate:"required,gt=0"`
	EmployeeID string `json:"employeeId" validate:"required,max=64"`
}

// Generate returns the opaque payload; rendering it as an image is left to the client.
func (h *QRCodeHandler) Generate(c *fiber.Ctx) error {
	var req GenerateQRRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	adminID, _ := middleware.UserID(c)
	qr, payload, err := h.usecase.Generate(c.UserContext(), req.KioskID, req.EmployeeID, adminID, c.IP())
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Kiosk or employee not found"})
	}
	if err != nil {
		return storeError(c, err, "Kiosk or employee not found", "Failed to generate QR code")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "QR code generated successfully",
		"qrCode":  qr,
		"qrData":  payload,
	})
}

func (h *QRCodeHandler) List(c *fiber.Ctx) error {
	f := repository.QRCodeFilter{
		KioskID:      queryUint(c, "kioskId"),
		EmployeeCode: c.Query("employeeId"),
		IsRevoked:    queryBool(c, "isRevoked"),
		Page:         queryPage(c),
	}
	codes, total, err := h.repo.List(c.UserContext(), f)
	if err != nil {
		return storeError(c, err, "QR code not found", "Failed to fetch QR codes")
	}
	return c.JSON(paginated(codes, total, f.Page))
}

func (h *QRCodeHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid QR code id"})
	}
	qr, err := h.repo.FindByID(c.UserContext(), id)
	if err != nil {
		return storeError(c, err, "QR code not found", "Failed to fetch QR code")
	}
	return c.JSON(fiber.Map{"data": qr})
}

type RevokeQRRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (h *QRCodeHandler) Revoke(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid QR code id"})
	}
	var req RevokeQRRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if req.Reason == "" {
		req.Reason = "Revoked by admin"
	}

	adminID, _ := middleware.UserID(c)
	if err := h.usecase.Revoke(c.UserContext(), id, adminID, req.Reason, c.IP()); err != nil {
		return storeError(c, err, "QR code not found", "Failed to revoke QR code")
	}
	return c.JSON(fiber.Map{"message": "QR code revoked successfully"})
}

func (h *QRCodeHandler) Restore(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid QR code id"})
	}

	adminID, _ := middleware.UserID(c)
	if err := h.usecase.Restore(c.UserContext(), id, adminID, c.IP()); err != nil {
		return storeError(c, err, "QR code not found", "Failed to restore QR code")
	}
	return c.JSON(fiber.Map{"message": "QR code restored successfully"})
}

func (h *QRCodeHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid QR code id"})
	}

	adminID, _ := middleware.UserID(c)
	if err := h.usecase.Delete(c.UserContext(), id, adminID, c.IP()); err != nil {
		return storeError(c, err, "QR code not found", "Failed to delete QR code")
	}
	return c.JSON(fiber.Map{"message": "QR code deleted successfully"})
}
