package routes

import (
	"github.com/gofiber/fiber/v2"

	"kiosk-attendance-backend/internal/alarm"
	"kiosk-attendance-backend/internal/handler"
	"kiosk-attendance-backend/internal/middleware"
	"kiosk-attendance-backend/internal/repository"
	"kiosk-attendance-backend/internal/usecase"
)

func SetupAttendanceRoutes(app *fiber.App, d *Deps) {
	store := repository.NewScanStore(d.DB)
	scan := usecase.NewScanUsecase(store, d.Codec, d.Locker, d.Clock, d.Policy, d.Logger)
	reporter := alarm.NewReporter(store, store, d.Logger).WithClock(d.Clock.Now)
	hdl := handler.NewAttendanceHandler(scan, store.Attendance, reporter, d.Clock)

	api := app.Group("/api/attendance")

	// kiosks are unauthenticated
	api.Post("/scan", hdl.Scan)

	api.Get("/", middleware.Auth(d.JWTSecret), hdl.List)
	api.Get("/today", middleware.Auth(d.JWTSecret), hdl.Today)
	api.Put("/:id/invalidate", middleware.Auth(d.JWTSecret), middleware.AdminOnly(), hdl.Invalidate)
}
