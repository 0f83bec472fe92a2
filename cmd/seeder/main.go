package main

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"kiosk-attendance-backend/config"
	"kiosk-attendance-backend/internal/credential"
	"kiosk-attendance-backend/internal/database"
)

func main() {
	// separate script, load .env manually
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env not found, using system environment variables.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := config.NewLogger(cfg.Log.Level, "console", "kiosk-attendance-seeder")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := config.ConnectDB(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect database", zap.Error(err))
	}

	codec, err := credential.NewCodec(cfg.Security.QREncryptionKey)
	if err != nil {
		logger.Fatal("Failed to build credential codec", zap.Error(err))
	}

	issued, err := database.SeedAll(db, codec, database.SeedOptions{
		AdminEmail:    config.GetEnv("SEED_ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: config.GetEnv("SEED_ADMIN_PASSWORD", "admin12345"),
		Now:           time.Now(),
	}, logger)
	if err != nil {
		logger.Fatal("Seeding failed", zap.Error(err))
	}

	for _, c := range issued {
		fmt.Printf("%s\tkiosk=%d\t%s\n", c.EmployeeCode, c.KioskID, c.Payload)
	}
}
