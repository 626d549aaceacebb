// Package database provides the gorm-backed persistence layer: the
// Postgres client, the table models, and the store adapters consumed by
// the GDD core.
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/turftrack/turftrack/internal/log"
	"go.uber.org/zap"
)

// Client holds the connection to the Postgres database
type Client struct {
	DB     *gorm.DB
	logger *zap.SugaredLogger
}

// NewClient creates a new database client
func NewClient(logger *zap.SugaredLogger) *Client {
	return &Client{logger: logger}
}

// Connect connects to the Postgres database
func (c *Client) Connect(connectionString string) error {
	db, err := CreateConnection(connectionString)
	if err != nil {
		return err
	}
	c.DB = db
	return nil
}

// Migrate creates or updates the schema for all tables owned by this
// service. The daily_weather table is included so a fresh install works
// standalone; the external weather provider writes into it.
func (c *Client) Migrate() error {
	return c.DB.AutoMigrate(
		&Location{},
		&DailyWeather{},
		&GDDModel{},
		&GDDModelParameters{},
		&GDDValue{},
		&GDDReset{},
	)
}

// CreateConnection is a helper function to create a database connection
// with standard GORM configuration
func CreateConnection(connectionString string) (*gorm.DB, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	log.Info("connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("unable to create a Postgres connection: %w", err)
	}
	log.Info("Postgres connection successful")

	return db, nil
}
