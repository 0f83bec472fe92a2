package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"kiosk-attendance-backend/config"
	"kiosk-attendance-backend/internal/credential"
	"kiosk-attendance-backend/internal/lock"
	"kiosk-attendance-backend/internal/routes"
	"kiosk-attendance-backend/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env not found, using system environment variables.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := config.NewLogger(cfg.Log.Level, cfg.Log.Format, "kiosk-attendance-api")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// 1. Database
	db, err := config.ConnectDB(&cfg.Database)
	if err != nil {
		zlog.Fatal("Failed to connect database", zap.Error(err))
	}
	zlog.Info("Database connected", zap.String("host", cfg.Database.Host), zap.String("name", cfg.Database.Name))

	// 2. Per-employee scan lock, redis when enabled
	var locker lock.EmployeeLocker = lock.Noop{}
	rdb, err := config.ConnectRedis(context.Background(), &cfg.Redis)
	if err != nil {
		zlog.Warn("Redis unavailable, scans will not be serialized per employee", zap.Error(err))
	} else if rdb != nil {
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, cfg.Scan.LockTTL, zlog)
		zlog.Info("Redis scan lock enabled", zap.String("addr", cfg.Redis.Addr))
	}

	// 3. Credential codec and scan policy
	codec, err := credential.NewCodec(cfg.Security.QREncryptionKey)
	if err != nil {
		zlog.Fatal("Failed to build credential codec", zap.Error(err))
	}
	windows, err := usecase.NewTimeWindows(cfg.Scan.CheckinWindow, cfg.Scan.CheckoutWindow)
	if err != nil {
		zlog.Fatal("Invalid scan time windows", zap.Error(err))
	}
	policy := usecase.ScanPolicy{
		Windows:           windows,
		RateWindowMinutes: cfg.Scan.RateWindowMinutes,
		RateMaxScans:      cfg.Scan.RateMaxScans,
		MaxSpeedKmh:       cfg.Scan.MaxSpeedKmh,
	}

	// 4. HTTP
	app := fiber.New(fiber.Config{
		AppName:      "kiosk-attendance-backend",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(logger.New())

	routes.Setup(app, &routes.Deps{
		DB:        db,
		Codec:     codec,
		Locker:    locker,
		Clock:     usecase.SystemClock{Location: cfg.Location()},
		Policy:    policy,
		JWTSecret: cfg.Security.JWTSecret,
		JWTTTL:    cfg.Security.JWTTTL,
		Logger:    zlog,
	})

	go func() {
		zlog.Info("Server listening", zap.String("port", cfg.App.Port), zap.String("env", cfg.App.Env))
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			zlog.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}
	zlog.Info("Server exited")
}
