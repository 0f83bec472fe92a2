package routes

import (
	"github.com/gofiber/fiber/v2"

	"kiosk-attendance-backend/internal/handler"
	"kiosk-attendance-backend/internal/middleware"
	"kiosk-attendance-backend/internal/repository"
)

func SetupAlarmRoutes(app *fiber.App, d *Deps) {
	hdl := handler.NewAlarmHandler(repository.NewAlarmRepository(d.DB), newReporter(d), d.Clock)

	api := app.Group("/api/alarms", middleware.Auth(d.JWTSecret))

	api.Get("/", hdl.List)
	api.Get("/unresolved/count", hdl.UnresolvedCount)
	api.Get("/recent", hdl.Recent)
	api.Get("/stats/summary", hdl.Summary)
	api.Put("/resolve/bulk", middleware.AdminOnly(), hdl.BulkResolve)
	api.Get("/:id", hdl.Get)
	api.Put("/:id/resolve", middleware.AdminOnly(), hdl.Resolve)
}
