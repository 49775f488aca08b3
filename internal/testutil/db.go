// Package testutil holds helpers shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	migration "recipe-vault/cmd/database/migrate"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated sqlite database in a temporary directory that is
// removed when the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=off"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migration.Migrate(db, zaptest.NewLogger(t)))
	return db
}
