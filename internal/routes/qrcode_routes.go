package routes

import (
	"github.com/gofiber/fiber/v2"

	"kiosk-attendance-backend/internal/handler"
	"kiosk-attendance-backend/internal/middleware"
	"kiosk-attendance-backend/internal/repository"
	"kiosk-attendance-backend/internal/usecase"
)

func SetupQRCodeRoutes(app *fiber.App, d *Deps) {
	qrRepo := repository.NewQRCodeRepository(d.DB)
	qrUsecase := usecase.NewQRCodeUsecase(
		qrRepo,
		repository.NewKioskRepository(d.DB),
		repository.NewEmployeeRepository(d.DB),
		d.Codec,
		newReporter(d),
		d.Clock,
	)
	hdl := handler.NewQRCodeHandler(qrUsecase, qrRepo)

	api := app.Group("/api/qrcodes", middleware.Auth(d.JWTSecret))

	api.Get("/", hdl.List)
	api.Get("/:id", hdl.Get)

	api.Post("/generate", middleware.AdminOnly(), hdl.Generate)
	api.Put("/:id/revoke", middleware.AdminOnly(), hdl.Revoke)
	api.Put("/:id/restore", middleware.AdminOnly(), hdl.Restore)
	api.Delete("/:id", middleware.AdminOnly(), hdl.Delete)
}
