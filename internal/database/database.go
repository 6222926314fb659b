package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"rentmate/internal/domain"
)

func Connect(dsn string) (*gorm.DB, error) {
	if IsPostgres(dsn) {
		log.Println("Connecting to PostgreSQL...")
		return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	}

	log.Println("Using SQLite for local development:", dsn)

	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		&gorm.Config{},
	)
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer; one pooled connection queues chat and
	// booking transactions instead of failing them with SQLITE_BUSY.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Models lists every persisted type in dependency order.
func Models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Talent{},
		&domain.MitraAccount{},
		&domain.Booking{},
		&domain.PaymentCode{},
		&domain.ChatSession{},
		&domain.ChatMessage{},
		&domain.PlatformSettings{},
		&domain.BlockedTalent{},
		&domain.Report{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
