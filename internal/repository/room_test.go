package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/tictactoe/internal/errors"
	"github.com/wfunc/tictactoe/internal/models"
)

func TestRoomRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRoomRepository(db)

	t.Run("创建与查找", func(t *testing.T) {
		creator := mustPlayer(t, db, "host")
		room := &models.Room{Code: "ABC123", Name: "Lobby", IsPublic: true, CreatedByID: &creator.ID}
		require.NoError(t, repo.Create(ctx, room))
		assert.Equal(t, models.StatusWaiting, room.Status)
		assert.Equal(t, 2, room.MaxPlayers)

		found, err := repo.FindByCode(ctx, "ABC123")
		require.NoError(t, err)
		assert.Equal(t, room.ID, found.ID)
		assert.Nil(t, found.Game)

		exists, err := repo.ExistsByCode(ctx, "ABC123")
		require.NoError(t, err)
		assert.True(t, exists)

		_, err = repo.FindByCode(ctx, "NOPE")
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("房间码重复", func(t *testing.T) {
		err := repo.Create(ctx, &models.Room{Code: "ABC123", Name: "Again"})
		assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyExists), "got %v", err)
	})

	t.Run("状态流转记录时间", func(t *testing.T) {
		room := mustRoom(t, db, "FLOW01", true)
		now := time.Now()

		require.NoError(t, repo.UpdateStatus(ctx, room.ID, models.StatusInProgress, now))
		found, err := repo.FindByID(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInProgress, found.Status)
		require.NotNil(t, found.StartedAt)
		assert.Nil(t, found.FinishedAt)

		require.NoError(t, repo.UpdateStatus(ctx, room.ID, models.StatusFinished, now))
		found, err = repo.FindByID(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusFinished, found.Status)
		assert.NotNil(t, found.FinishedAt)

		err = repo.UpdateStatus(ctx, room.ID, models.Status("paused"), now)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParam))
	})

	t.Run("活跃公开房间", func(t *testing.T) {
		mustRoom(t, db, "PRIV01", false)
		mustRoom(t, db, "PUB002", true)

		rooms, err := repo.ListActivePublic(ctx)
		require.NoError(t, err)

		codes := make([]string, 0, len(rooms))
		for _, r := range rooms {
			codes = append(codes, r.Code)
		}
		assert.Contains(t, codes, "ABC123")
		assert.Contains(t, codes, "PUB002")
		assert.NotContains(t, codes, "PRIV01")
		assert.NotContains(t, codes, "FLOW01")

		active, err := repo.CountByStatus(ctx, models.StatusWaiting, models.StatusInProgress)
		require.NoError(t, err)
		assert.EqualValues(t, 3, active)

		finished, err := repo.CountByStatus(ctx, models.StatusFinished)
		require.NoError(t, err)
		assert.EqualValues(t, 1, finished)
	})
}
