package routes

import (
	"github.com/gofiber/fiber/v2"

	"kiosk-attendance-backend/internal/handler"
	"kiosk-attendance-backend/internal/middleware"
	"kiosk-attendance-backend/internal/repository"
)

func SetupEmployeeRoutes(app *fiber.App, d *Deps) {
	hdl := handler.NewEmployeeHandler(
		repository.NewEmployeeRepository(d.DB),
		repository.NewAttendanceRepository(d.DB),
		newReporter(d),
		d.Clock,
	)

	api := app.Group("/api/employees", middleware.Auth(d.JWTSecret))

	api.Get("/", hdl.List)
	api.Get("/:id", hdl.Get)
	api.Get("/:id/attendance", hdl.Attendance)
	api.Post("/", middleware.AdminOnly(), hdl.Create)
	api.Put("/:id", middleware.AdminOnly(), hdl.Update)
	api.Delete("/:id", middleware.AdminOnly(), hdl.Delete)
}
