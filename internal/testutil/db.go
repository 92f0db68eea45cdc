// Package testutil provides database fixtures for package tests.
package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/taehoonhoonn/where-smoking/internal/database"
	"github.com/taehoonhoonn/where-smoking/internal/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewTestDB opens a fresh in-memory sqlite database with the smoking_areas
// schema. A single connection keeps every query on the same memory database.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}

	db, err := database.Wrap(gdb, logger.Nop())
	if err != nil {
		t.Fatalf("Failed to wrap db: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("Failed to get sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}
