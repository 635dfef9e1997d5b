package repository

import (
	"context"
	"testing"

	"github.com/Top-Pesinde/backend-sub001/database/dbtest"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	return dbtest.New(t)
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.WithContext(context.Background()).Table(table).Count(&n).Error)
	return n
}
