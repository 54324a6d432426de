package db

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), DriverPostgres, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}

func TestOpen_SQLiteMemory(t *testing.T) {
	t.Parallel()

	gdb, err := Open(context.Background(), DriverSQLite, MemoryDSN(uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	assert.True(t, IsSQLite(gdb))

	type probe struct {
		ID   uint `gorm:"primaryKey"`
		Name string
	}
	require.NoError(t, gdb.AutoMigrate(&probe{}))
	require.NoError(t, gdb.Create(&probe{Name: "a"}).Error)

	var n int64
	require.NoError(t, gdb.Model(&probe{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}
