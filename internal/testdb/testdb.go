// Package testdb opens isolated sqlite databases for repository tests.
package testdb

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/medhealth/fieldforce-backend/pkg/db"
	"github.com/medhealth/fieldforce-backend/pkg/db/models"
)

// Open returns an in-memory sqlite database with every model migrated.
// Each call gets its own database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:fieldforce_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(nil, 0))
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxIdleConns(4)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.AutoMigrate(models.All()...))
	return conn
}

// Client wraps Open in a db.Client so services can run real transactions.
func Client(t testing.TB) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.Wrap(conn), conn
}
