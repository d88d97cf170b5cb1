// Package ledgertest opens an in-memory ledger for tests.
package ledgertest

import (
	"context"
	"testing"

	"ton_topup/internal/ledger"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated ledger on a private in-memory SQLite database.
func New(t testing.TB) (*ledger.Ledger, *gorm.DB) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// One connection keeps the in-memory database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	l := ledger.New(gdb)
	require.NoError(t, l.Init(context.Background()))
	return l, gdb
}
