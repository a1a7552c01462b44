package postgres

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/professorai/server/domain/entities"
)

// Client wraps the GORM database handle.
type Client struct {
	DB     *gorm.DB
	logger *zap.Logger
}

// NewClient opens a PostgreSQL connection and prepares the schema.
func NewClient(dsn string, logger *zap.Logger) (*Client, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database connection string is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logger.Info("Connected to PostgreSQL")

	return &Client{DB: db, logger: logger}, nil
}

// Migrate creates or updates the relational schema. The exact column layout
// is an implementation detail, not a compatibility surface.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entities.User{},
		&entities.Progress{},
		&entities.Conversation{},
		&entities.Turn{},
		&entities.AudioAsset{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
