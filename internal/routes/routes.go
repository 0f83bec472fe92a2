package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kiosk-attendance-backend/internal/alarm"
	"kiosk-attendance-backend/internal/credential"
	"kiosk-attendance-backend/internal/lock"
	"kiosk-attendance-backend/internal/repository"
	"kiosk-attendance-backend/internal/usecase"
)

// Deps are the shared collaborators every route group is built from.
type Deps struct {
	DB        *gorm.DB
	Codec     *credential.Codec
	Locker    lock.EmployeeLocker
	Clock     usecase.Clock
	Policy    usecase.ScanPolicy
	JWTSecret string
	JWTTTL    time.Duration
	Logger    *zap.Logger
}

func Setup(app *fiber.App, d *Deps) {
	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "time": d.Clock.Now()})
	})

	SetupAuthRoutes(app, d)
	SetupAttendanceRoutes(app, d)
	SetupAlarmRoutes(app, d)
	SetupQRCodeRoutes(app, d)
	SetupKioskRoutes(app, d)
	SetupEmployeeRoutes(app, d)
	SetupDashboardRoutes(app, d)
}

// newReporter builds the alarm/audit reporter shared by the admin route groups.
func newReporter(d *Deps) *alarm.Reporter {
	store := repository.NewScanStore(d.DB)
	return alarm.NewReporter(store, store, d.Logger).WithClock(d.Clock.Now)
}
