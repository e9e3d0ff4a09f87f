package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wfunc/tictactoe/internal/config"
	"github.com/wfunc/tictactoe/internal/database"
	"github.com/wfunc/tictactoe/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// newTestDB 创建迁移好的内存数据库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(&config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      ":memory:",
		LogLevel: "silent",
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func mustPlayer(t *testing.T, db *gorm.DB, username string) *models.Player {
	t.Helper()
	p, err := NewPlayerRepository(db).FindOrCreate(context.Background(), username)
	require.NoError(t, err)
	return p
}

func mustRoom(t *testing.T, db *gorm.DB, code string, public bool) *models.Room {
	t.Helper()
	room := &models.Room{Code: code, Name: "Room " + code, IsPublic: public}
	require.NoError(t, NewRoomRepository(db).Create(context.Background(), room))
	return room
}
