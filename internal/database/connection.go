package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// retryDelays is the wait before each retry; its length + 1 is the attempt budget.
var retryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}

// InitDatabase initializes the database connection based on the provided configuration
// It supports both PostgreSQL and SQLite drivers with automatic retry logic and connection pooling
func InitDatabase(cfg DatabaseConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	// Normalize driver name
	driver := strings.ToLower(cfg.Driver)

	log.WithFields(logrus.Fields{
		"db_driver": driver,
		"db_host":   cfg.Host,
		"db_name":   cfg.Name,
		"db_path":   cfg.Path,
	}).Info("Initializing database connection")

	maxAttempts := len(retryDelays) + 1

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		log.WithFields(logrus.Fields{
			"attempt":      attempt,
			"max_attempts": maxAttempts,
		}).Info("Attempting database connection")

		db, err = open(driver, cfg)
		if err != nil && strings.HasPrefix(err.Error(), "unsupported database driver") {
			return nil, err
		}

		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				log.WithError(sqlErr).Error("Failed to get database instance")
				err = sqlErr
			} else if pingErr := sqlDB.Ping(); pingErr != nil {
				log.WithError(pingErr).Error("Failed to ping database")
				err = pingErr
			} else {
				configureConnectionPool(driver, sqlDB)

				log.WithFields(logrus.Fields{
					"db_driver": driver,
					"attempt":   attempt,
				}).Info("Database initialized successfully")

				return db, nil
			}
		}

		log.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
		}).Warn("Database connection attempt failed")

		// Don't wait after the last attempt
		if attempt < maxAttempts {
			delay := retryDelays[attempt-1]
			log.WithField("delay", delay).Info("Retrying database connection")
			time.Sleep(delay)
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxAttempts, err)
}

// open opens a connection without retries. TranslateError makes unique
// violations surface as gorm.ErrDuplicatedKey on every driver.
func open(driver string, cfg DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{TranslateError: true}

	switch driver {
	case "postgres", "postgresql":
		log.WithField("dsn_host", cfg.Host).Debug("Connecting to PostgreSQL")
		return gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	case "sqlite", "":
		log.WithField("db_path", cfg.Path).Debug("Connecting to SQLite")
		return gorm.Open(sqlite.Open(cfg.DSN()), gormConfig)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: postgres, sqlite)", cfg.Driver)
	}
}

// configureConnectionPool sets up connection pool parameters. SQLite gets a
// single writer connection to avoid "database is locked" under concurrent writes.
func configureConnectionPool(driver string, sqlDB *sql.DB) {
	maxOpen := 25
	if driver == "sqlite" || driver == "" {
		maxOpen = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	log.WithFields(logrus.Fields{
		"max_open_conns":    maxOpen,
		"max_idle_conns":    5,
		"conn_max_lifetime": "5m",
	}).Debug("Connection pool configured")
}

// Migrate creates or updates every table the API uses.
func Migrate(db *gorm.DB) error {
	log.Info("Running database migrations")
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
