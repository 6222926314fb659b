package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"rentmate/internal/config"
	"rentmate/internal/database"
	"rentmate/internal/repository"
	"rentmate/internal/seed"
)

func main() {
	reset := flag.Bool("reset", false, "delete existing data before seeding")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("level=warn msg=dotenv_load_failed err=%v", err)
	}
	cfg, err := config.LoadRuntimeConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	ctx := context.Background()
	defaults, err := config.LoadPlatformDefaults(cfg.SettingsFile)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := repository.NewSettingsRepository(db).EnsureDefaults(ctx, defaults.Settings()); err != nil {
		log.Fatal(err)
	}

	res, err := seed.Run(ctx, db, seed.Options{Reset: *reset, Location: cfg.Location})
	if err != nil {
		log.Fatal("Seeding failed:", err)
	}

	log.Printf("Seed completed: users=%d mitras=%d bookings=%d chats=%d", res.Users, res.Mitras, res.Bookings, res.Chats)
	log.Printf("Admin: %s / %s", seed.AdminEmail, seed.AdminPassword)
	log.Printf("Users: budi@mail.id, citra@mail.id, eka@mail.id / %s", seed.UserPassword)
	log.Printf("Mitras: sari@rentmate.id, dimas@rentmate.id, ayu@rentmate.id / %s", seed.MitraPassword)
}
