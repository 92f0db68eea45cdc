package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/taehoonhoonn/where-smoking/internal/config"
	"github.com/taehoonhoonn/where-smoking/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type DB struct {
	*gorm.DB
}

func Connect(cfg *config.Config, log *zap.SugaredLogger) (*DB, error) {
	logLevel := logger.Silent
	if cfg.IsDevelopment() {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	return Wrap(db, log)
}

// Wrap registers the metrics plugin and pool settings on an opened gorm
// handle. Tests use it with sqlite.
func Wrap(db *gorm.DB, log *zap.SugaredLogger) (*DB, error) {
	// Register metrics plugin for Prometheus
	if err := db.Use(&MetricsPlugin{}); err != nil {
		log.Warnw("Failed to register metrics plugin", "error", err)
	} else {
		log.Debug("Database metrics plugin registered")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	if db.Dialector.Name() == "postgres" {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		log.Debug("Database connection pool configured")
	}

	return &DB{db}, nil
}

// Ping checks the underlying connection.
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// PoolStats 헬스체크용 커넥션 풀 상태
func (db *DB) PoolStats() map[string]any {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil
	}
	stats := sqlDB.Stats()
	return map[string]any{
		"max_open": stats.MaxOpenConnections,
		"open":     stats.OpenConnections,
		"in_use":   stats.InUse,
		"idle":     stats.Idle,
	}
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate applies the embedded SQL migrations with golang-migrate (pgx5 driver).
func Migrate(databaseURL string, log *zap.SugaredLogger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(databaseURL))
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	log.Infow("Migrations applied", "version", version, "dirty", dirty)
	return nil
}

// AutoMigrate creates the schema from the gorm model (sqlite tests).
func AutoMigrate(db *DB) error {
	return db.AutoMigrate(&models.SmokingArea{})
}

// migrateURL converts a postgres:// URL into the pgx5:// scheme golang-migrate expects.
func migrateURL(databaseURL string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}
