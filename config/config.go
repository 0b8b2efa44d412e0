package config

import (
	"fmt"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/floorsync/models"
)

// InitDB opens the configured database. MySQL when DB_HOST is set,
// otherwise a local SQLite file so development works without a server.
func InitDB() (*gorm.DB, error) {
	if host := os.Getenv("DB_HOST"); host != "" {
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			host,
			envOr("DB_PORT", "3306"),
			envOr("DB_NAME", "floorsync"),
		)
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(envOr("DB_PATH", "floorsync.db")), &gorm.Config{})
}

// AutoMigrate creates/updates the schema for every model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.Guest{},
		&models.Table{},
		&models.Reservation{},
		&models.ActivityLog{},
	)
}

// RedisURL returns the fan-out bus address, empty when running
// single-process without Redis.
func RedisURL() string {
	return os.Getenv("REDIS_URL")
}

// Port returns the HTTP listen port.
func Port() string {
	return envOr("PORT", "8080")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
