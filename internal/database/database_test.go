package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/tictactoe/internal/config"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, ParseLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, ParseLogLevel("error"))
	assert.Equal(t, gormlogger.Info, ParseLogLevel("info"))
	assert.Equal(t, gormlogger.Warn, ParseLogLevel("warn"))
	assert.Equal(t, gormlogger.Warn, ParseLogLevel(""))
}

func TestEnsureSQLiteDir(t *testing.T) {
	base := t.TempDir()

	require.NoError(t, ensureSQLiteDir(":memory:"))
	require.NoError(t, ensureSQLiteDir("file::memory:?cache=shared"))
	require.NoError(t, ensureSQLiteDir("file:x?mode=memory"))

	dsn := "file:" + filepath.Join(base, "nested", "dir", "game.db") + "?_busy_timeout=5000"
	require.NoError(t, ensureSQLiteDir(dsn))
	info, err := os.Stat(filepath.Join(base, "nested", "dir"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"}, zap.NewNop())
	assert.Error(t, err)
}

func TestMigrateMemory(t *testing.T) {
	db, err := Open(&config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	assert.Equal(t, "", sqliteFilePath(db))

	require.NoError(t, Migrate(db))
	// 重复迁移应幂等
	require.NoError(t, Migrate(db))

	for _, table := range []string{"players", "rooms", "games", "game_moves"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	require.NoError(t, DropAll(db))
	assert.False(t, db.Migrator().HasTable("players"))
}

func TestMigrateFileReleasesLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "tictactoe.db")
	db, err := Open(&config.DatabaseConfig{Driver: "sqlite", DSN: path, LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	require.NotEmpty(t, sqliteFilePath(db))
	require.NoError(t, Migrate(db))

	_, err = os.Stat(sqliteFilePath(db) + ".migration.lock")
	assert.True(t, os.IsNotExist(err))
}

func TestPing(t *testing.T) {
	assert.Error(t, Ping(context.Background(), nil))
}
