// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"testing"

	"github.com/Top-Pesinde/backend-sub001/database"
	"github.com/Top-Pesinde/backend-sub001/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New opens a private in-memory database. A single connection keeps the memory
// database alive and serialises writers the way row locks would.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// Users inserts accounts whose id, username and email local part are the
// given ids.
func Users(t testing.TB, db *gorm.DB, ids ...string) {
	t.Helper()

	for _, id := range ids {
		require.NoError(t, db.Create(&model.User{
			ID:       id,
			Username: id,
			Email:    id + "@example.com",
			Password: "hash",
			Role:     "user",
		}).Error)
	}
}
