package routes

import (
	"github.com/gofiber/fiber/v2"

	deliveryhttp "kiosk-attendance-backend/internal/delivery/http"
	"kiosk-attendance-backend/internal/middleware"
	"kiosk-attendance-backend/internal/repository"
	"kiosk-attendance-backend/internal/usecase"
)

func SetupAuthRoutes(app *fiber.App, d *Deps) {
	userRepo := repository.NewUserRepository(d.DB)
	userUsecase := usecase.NewUserUsecase(userRepo, d.JWTSecret, d.JWTTTL)
	hdl := deliveryhttp.NewUserHandler(userUsecase, newReporter(d))

	api := app.Group("/api/auth")
	api.Post("/login", hdl.Login)
	api.Get("/me", middleware.Auth(d.JWTSecret), hdl.Me)
	api.Put("/change-password", middleware.Auth(d.JWTSecret), hdl.ChangePassword)
	api.Post("/logout", middleware.Auth(d.JWTSecret), hdl.Logout)
	api.Post("/register", middleware.Auth(d.JWTSecret), middleware.AdminOnly(), hdl.Register)
}
