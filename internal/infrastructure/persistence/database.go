// Package persistence stores the glasses and visits served by the
// development API server.
package persistence

import (
	"fmt"
	"time"

	"github.com/javierleyes/vidro-android/internal/infrastructure/config"
	"github.com/javierleyes/vidro-android/internal/infrastructure/logger"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// slowQueryThreshold marks queries the gorm logger reports as slow
const slowQueryThreshold = 200 * time.Millisecond

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the sqlite database named by cfg.DSN and migrates the schema
func NewDatabase(cfg config.DevServerConfig, log *zap.Logger) (*Database, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dsn := cfg.DSN
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.LogLevel), slowQueryThreshold),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// Every connection to ":memory:" is a separate database
	sqlDB.SetMaxOpenConns(1)

	if err := db.Use(otelgorm.NewPlugin(otelgorm.WithDBName("sqlite"), otelgorm.WithoutQueryVariables())); err != nil {
		return nil, fmt.Errorf("failed to register tracing plugin: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return &Database{DB: db}, nil
}

// Migrate creates or updates the tables of every model
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&GlassModel{}, &VisitModel{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}
