package routes

import (
	"github.com/gofiber/fiber/v2"

	"kiosk-attendance-backend/internal/handler"
	"kiosk-attendance-backend/internal/middleware"
	"kiosk-attendance-backend/internal/repository"
)

func SetupDashboardRoutes(app *fiber.App, d *Deps) {
	hdl := handler.NewDashboardHandler(
		repository.NewDashboardRepository(d.DB),
		repository.NewAuditLogRepository(d.DB),
		repository.NewKioskRepository(d.DB),
		repository.NewAttendanceRepository(d.DB),
		d.Clock,
	)

	api := app.Group("/api/dashboard", middleware.Auth(d.JWTSecret))

	api.Get("/stats", hdl.GetStats)
	api.Get("/trends", hdl.Trends)
	api.Get("/map/kiosks", hdl.MapKiosks)
	api.Get("/map/attendance", hdl.MapAttendance)
	api.Get("/audit-logs", middleware.AdminOnly(), hdl.AuditLogs)
}
