package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"rentmate/internal/config"
	"rentmate/internal/database"
	"rentmate/internal/repository"
)

func main() {
	keepDays := flag.Int("keep-days", 30, "keep payment codes of slots newer than this many days")
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
		log.Fatalf("db connect failed: %v", err)
	}

	cutoff := time.Now().In(cfg.Location).AddDate(0, 0, -*keepDays).Format("2006-01-02")
	n, err := repository.NewPaymentCodeRepository(db).PurgeBefore(context.Background(), cutoff)
	if err != nil {
		log.Fatalf("cleanup payment_codes failed: %v", err)
	}

	log.Printf("cleanup completed: payment_codes=%d before=%s", n, cutoff)
}
