package handler

import (
	"github.com/gofiber/fiber/v2"

	"kiosk-attendance-backend/internal/alarm"
	"kiosk-attendance-backend/internal/geofence"
	"kiosk-attendance-backend/internal/middleware"
	"kiosk-attendance-backend/internal/model"
	"kiosk-attendance-backend/internal/repository"
	"kiosk-attendance-backend/internal/usecase"
)

type KioskHandler struct {
	repo       repository.KioskRepository
	attendance repository.AttendanceRepository
	reporter   *alarm.Reporter
	clock      usecase.Clock
}

func NewKioskHandler(repo repository.KioskRepository, attendance repository.AttendanceRepository, reporter *alarm.Reporter, clock usecase.Clock) *KioskHandler {
	return &KioskHandler{repo: repo, attendance: attendance, reporter: reporter, clock: clock}
}

type KioskRequest struct {
	Name           string   `json:"name" validate:"required,max=255"`
	Address        string   `json:"address" validate:"max=500"`
	Lat            *float64 `json:"lat" validate:"required,latitude"`
	Lng            *float64 `json:"lng" validate:"required,longitude"`
	GeofenceRadius float64  `json:"geofenceRadius" validate:"gt=0"`
	IsActive       *bool    `json:"isActive"`
}

func (h *KioskHandler) List(c *fiber.Ctx) error {
	kiosks, err := h.repo.List(c.UserContext(), queryBool(c, "isActive"))
	if err != nil {
		return storeError(c, err, "Kiosk not found", "Failed to fetch kiosks")
	}
	return c.JSON(fiber.Map{"data": kiosks})
}

func (h *KioskHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid kiosk id"})
	}
	kiosk, err := h.repo.FindByID(c.UserContext(), id)
	if err != nil {
		return storeError(c, err, "Kiosk not found", "Failed to fetch kiosk")
	}
	return c.JSON(fiber.Map{"data": kiosk})
}

func (h *KioskHandler) Create(c *fiber.Ctx) error {
	var req KioskRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	kiosk := &model.Kiosk{
		Name:           req.Name,
		Address:        req.Address,
		Lat:            *req.Lat,
		Lng:            *req.Lng,
		GeofenceRadius: req.GeofenceRadius,
		IsActive:       req.IsActive == nil || *req.IsActive,
	}
	if err := h.repo.Create(c.UserContext(), kiosk); err != nil {
		return storeError(c, err, "Kiosk not found", "Failed to create kiosk")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Kiosk created successfully", "kiosk": kiosk})
}

func (h *KioskHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid kiosk id"})
	}
	var req KioskRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	kiosk, err := h.repo.FindByID(c.UserContext(), id)
	if err != nil {
		return storeError(c, err, "Kiosk not found", "Failed to fetch kiosk")
	}
	kiosk.Name = req.Name
	kiosk.Address = req.Address
	kiosk.Lat = *req.Lat
	kiosk.Lng = *req.Lng
	kiosk.GeofenceRadius = req.GeofenceRadius
	if req.IsActive != nil {
		kiosk.IsActive = *req.IsActive
	}

	if err := h.repo.Update(c.UserContext(), kiosk); err != nil {
		return storeError(c, err, "Kiosk not found", "Failed to update kiosk")
	}
	return c.JSON(fiber.Map{"message": "Kiosk updated successfully", "kiosk": kiosk})
}

// Geofence returns the kiosk's boundary as a closed polygon for map overlays.
func (h *KioskHandler) Geofence(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid kiosk id"})
	}
	kiosk, err := h.repo.FindByID(c.UserContext(), id)
	if err != nil {
		return storeError(c, err, "Kiosk not found", "Failed to fetch kiosk")
	}

	center := geofence.Point{Lat: kiosk.Lat, Lng: kiosk.Lng}
	return c.JSON(fiber.Map{
		"center":  center,
		"radius":  kiosk.GeofenceRadius,
		"polygon": geofence.Polygon(center, kiosk.GeofenceRadius, c.QueryInt("points", 32)),
	})
}

func (h *KioskHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid kiosk id"})
	}
	if err := h.repo.Deactivate(c.UserContext(), id); err != nil {
		return storeError(c, err, "Kiosk not found", "Failed to delete kiosk")
	}

	userID, _ := middleware.UserID(c)
	_ = h.reporter.Audit(c.UserContext(), alarm.Entry{
		Action:     model.AuditKioskDeleted,
		EntityType: "kiosk",
		EntityID:   id,
		UserID:     &userID,
		IPAddress:  c.IP(),
	})
	return c.JSON(fiber.Map{"message": "Kiosk deleted successfully"})
}

// Stats counts scans at the kiosk between startDate and endDate, defaulting to today so far.
func (h *KioskHandler) Stats(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid kiosk id"})
	}

	now := h.clock.Now()
	from, _ := dayBounds(now)
	to := now
	if v := queryDate(c, "startDate", now.Location(), false); v != nil {
		from = *v
	}
	if v := queryDate(c, "endDate", now.Location(), true); v != nil {
		to = *v
	}

	stats, err := h.attendance.KioskStats(c.UserContext(), id, from, to)
	if err != nil {
		return storeError(c, err, "Kiosk not found", "Failed to fetch kiosk stats")
	}
	return c.JSON(fiber.Map{"stats": stats})
}
