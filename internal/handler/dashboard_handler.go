package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"kiosk-attendance-backend/internal/model"
	"kiosk-attendance-backend/internal/repository"
	"kiosk-attendance-backend/internal/usecase"
)

type DashboardHandler struct {
	repo       repository.DashboardRepository
	audits     repository.AuditLogRepository
	kiosks     repository.KioskRepository
	attendance repository.AttendanceRepository
	clock      usecase.Clock
}

func NewDashboardHandler(
	repo repository.DashboardRepository,
	audits repository.AuditLogRepository,
	kiosks repository.KioskRepository,
	attendance repository.AttendanceRepository,
	clock usecase.Clock,
) *DashboardHandler {
	return &DashboardHandler{repo: repo, audits: audits, kiosks: kiosks, attendance: attendance, clock: clock}
}

func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	now := h.clock.Now()
	start, end := dayBounds(now)

	stats, err := h.repo.GetStats(c.UserContext(), start, end)
	if err != nil {
		return storeError(c, err, "Stats not found", "Failed to fetch dashboard stats")
	}

	return c.JSON(fiber.Map{
		"date": start.Format("2006-01-02"),
		"data": stats,
	})
}

func (h *DashboardHandler) AuditLogs(c *fiber.Ctx) error {
	f := repository.AuditLogFilter{
		Action:     c.Query("action"),
		EntityType: c.Query("entityType"),
		EntityID:   queryUint(c, "entityId"),
		Page:       queryPage(c),
	}
	logs, total, err := h.audits.List(c.UserContext(), f)
	if err != nil {
		return storeError(c, err, "Audit log not found", "Failed to fetch audit logs")
	}
	return c.JSON(paginated(logs, total, f.Page))
}

type trendDay struct {
	Date      string `json:"date"`
	CheckIns  int64  `json:"checkIns"`
	CheckOuts int64  `json:"checkOuts"`
	Total     int64  `json:"total"`
}

// Trends returns valid scan counts per day for the last `days` days, oldest first.
func (h *DashboardHandler) Trends(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	if days < 1 || days > 90 {
		days = 7
	}

	now := h.clock.Now()
	trends := make([]trendDay, 0, days)
	for i := days - 1; i >= 0; i-- {
		start, end := dayBounds(now.AddDate(0, 0, -i))
		counts, err := h.attendance.CountByType(c.UserContext(), start, end)
		if err != nil {
			return storeError(c, err, "Attendance not found", "Failed to fetch trends")
		}
		trends = append(trends, trendDay{
			Date:      start.Format("2006-01-02"),
			CheckIns:  counts[model.ScanTypeCheckin],
			CheckOuts: counts[model.ScanTypeCheckout],
			Total:     counts[model.ScanTypeCheckin] + counts[model.ScanTypeCheckout],
		})
	}
	return c.JSON(fiber.Map{"trends": trends})
}

func (h *DashboardHandler) MapKiosks(c *fiber.Ctx) error {
	active := true
	kiosks, err := h.kiosks.List(c.UserContext(), &active)
	if err != nil {
		return storeError(c, err, "Kiosk not found", "Failed to fetch kiosk locations")
	}
	return c.JSON(fiber.Map{"kiosks": kiosks})
}

// MapAttendance returns up to 200 scans from the last `hours` hours.
func (h *DashboardHandler) MapAttendance(c *fiber.Ctx) error {
	hours := c.QueryInt("hours", 24)
	if hours < 1 || hours > 168 {
		hours = 24
	}
	since := h.clock.Now().Add(-time.Duration(hours) * time.Hour)

	records, err := h.attendance.Since(c.UserContext(), since, 200)
	if err != nil {
		return storeError(c, err, "Attendance not found", "Failed to fetch attendance locations")
	}
	return c.JSON(fiber.Map{"attendance": records})
}
