package database

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/ManuelReschke/FilmPass/app/models"
	"github.com/ManuelReschke/FilmPass/internal/pkg/config"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

// DSN builds the MySQL data source name for cfg
func DSN(cfg config.DatabaseConfig) string {
	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=UTC"
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)
}

// Connect opens the MySQL connection, retrying while the database container
// starts up.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       DSN(cfg),
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), &gorm.Config{})
		if err == nil {
			return db, nil
		}

		log.Warnf("[Database] failed to connect (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Infof("[Database] retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	return nil, fmt.Errorf("connect database: %w", err)
}

// AutoMigrate creates or updates the tables owned by FilmPass. The films
// table is included so local and test setups work without the catalog service.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Film{},
		&models.Entitlement{},
		&models.PendingOrder{},
		&models.DownloadLog{},
		&models.BillingWebhookEvent{},
	)
}

// Ping checks the underlying connection pool
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
