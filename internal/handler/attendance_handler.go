package handler

import (
	"bytes"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"kiosk-attendance-backend/internal/alarm"
	"kiosk-attendance-backend/internal/middleware"
	"kiosk-attendance-backend/internal/model"
	"kiosk-attendance-backend/internal/repository"
	"kiosk-attendance-backend/internal/usecase"
)

type AttendanceHandler struct {
	scan     *usecase.ScanUsecase
	repo     repository.AttendanceRepository
	reporter *alarm.Reporter
	clock    usecase.Clock
}

func NewAttendanceHandler(scan *usecase.ScanUsecase, repo repository.AttendanceRepository, reporter *alarm.Reporter, clock usecase.Clock) *AttendanceHandler {
	return &AttendanceHandler{scan: scan, repo: repo, reporter: reporter, clock: clock}
}

type ScanRequest struct {
	QRData     string          `json:"qrData" validate:"required"`
	EmployeeID string          `json:"employeeId"`
	Lat        json.RawMessage `json:"lat"`
	Lng        json.RawMessage `json:"lng"`
	DeviceID   *string         `json:"deviceId"`
	DeviceInfo map[string]any  `json:"deviceInfo"`
}

// coordinate accepts only a JSON number. Strings, booleans and objects come back
// nil so the pipeline rejects them as tampered coordinates instead of a bad body.
func coordinate(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

// Scan is the public kiosk endpoint.
func (h *AttendanceHandler) Scan(c *fiber.Ctx) error {
	var req ScanRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	out := h.scan.Submit(c.UserContext(), usecase.ScanRequest{
		Credential:   req.QRData,
		EmployeeHint: req.EmployeeID,
		Lat:          coordinate(req.Lat),
		Lng:          coordinate(req.Lng),
		DeviceID:     req.DeviceID,
		DeviceInfo:   req.DeviceInfo,
		IPAddress:    c.IP(),
	})

	if rej := out.Rejection; rej != nil {
		body := fiber.Map{
			"error":          rej.Message,
			"code":           rej.Code,
			"alarmTriggered": rej.AlarmTriggered,
		}
		if rej.Distance != nil {
			body["distance"] = *rej.Distance
			body["allowedRadius"] = *rej.AllowedRadius
		}
		if rej.ScanCount != nil {
			body["scanCount"] = *rej.ScanCount
		}
		if rej.Retryable {
			body["retryable"] = true
		}
		return c.Status(rej.Status()).JSON(body)
	}

	rec := out.Record
	label := "Check-in"
	if rec.Type == model.ScanTypeCheckout {
		label = "Check-out"
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": label + " successful",
		"attendance": fiber.Map{
			"id":               rec.ID,
			"type":             rec.Type,
			"scannedAt":        rec.ScannedAt,
			"employee":         rec.Employee,
			"kiosk":            rec.Kiosk,
			"location":         fiber.Map{"lat": rec.Lat, "lng": rec.Lng},
			"geofenceDistance": rec.GeofenceDistance,
		},
	})
}

func (h *AttendanceHandler) List(c *fiber.Ctx) error {
	loc := h.clock.Now().Location()
	f := repository.AttendanceFilter{
		EmployeeID: queryUint(c, "employeeId"),
		KioskID:    queryUint(c, "kioskId"),
		Type:       c.Query("type"),
		From:       queryDate(c, "startDate", loc, false),
		To:         queryDate(c, "endDate", loc, true),
		IsValid:    queryBool(c, "isValid"),
		Page:       queryPage(c),
	}

	records, total, err := h.repo.List(c.UserContext(), f)
	if err != nil {
		return storeError(c, err, "Attendance not found", "Failed to fetch attendance logs")
	}
	return c.JSON(paginated(records, total, f.Page))
}

// Today summarizes today's valid scans by type.
func (h *AttendanceHandler) Today(c *fiber.Ctx) error {
	start, end := dayBounds(h.clock.Now())

	counts, err := h.repo.CountByType(c.UserContext(), start, end)
	if err != nil {
		return storeError(c, err, "Attendance not found", "Failed to fetch today's summary")
	}
	return c.JSON(fiber.Map{
		"date":      start.Format("2006-01-02"),
		"checkins":  counts[model.ScanTypeCheckin],
		"checkouts": counts[model.ScanTypeCheckout],
		"total":     counts[model.ScanTypeCheckin] + counts[model.ScanTypeCheckout],
	})
}

type InvalidateRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *AttendanceHandler) Invalidate(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid attendance id"})
	}
	var req InvalidateRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	if err := h.repo.Invalidate(c.UserContext(), id, req.Reason); err != nil {
		return storeError(c, err, "Attendance not found", "Failed to invalidate attendance")
	}

	userID, _ := middleware.UserID(c)
	_ = h.reporter.Audit(c.UserContext(), alarm.Entry{
		Action:     model.AuditAttendanceInvalidated,
		EntityType: "attendance",
		EntityID:   id,
		UserID:     &userID,
		Details:    map[string]any{"reason": req.Reason},
		IPAddress:  c.IP(),
	})

	record, err := h.repo.FindByID(c.UserContext(), id)
	if err != nil {
		return c.JSON(fiber.Map{"message": "Attendance invalidated successfully"})
	}
	return c.JSON(fiber.Map{"message": "Attendance invalidated successfully", "attendance": record})
}
