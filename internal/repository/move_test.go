package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/tictactoe/internal/errors"
	"github.com/wfunc/tictactoe/internal/models"
)

func TestMoveRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	alice := mustPlayer(t, db, "alice")
	room := mustRoom(t, db, "MOVE01", true)
	game := &models.Game{RoomID: room.ID, Player1ID: alice.ID}
	require.NoError(t, NewGameRepository(db).Create(ctx, game))

	repo := NewMoveRepository(db)
	require.NoError(t, repo.Create(ctx, &models.GameMove{
		GameID: game.ID, MoveNumber: 2, PlayerID: alice.ID, PlayerNumber: 2, Position: 0, BoardAfter: "200010000",
	}))
	require.NoError(t, repo.Create(ctx, &models.GameMove{
		GameID: game.ID, MoveNumber: 1, PlayerID: alice.ID, PlayerNumber: 1, Position: 4, BoardAfter: "000010000",
	}))

	err := repo.Create(ctx, &models.GameMove{
		GameID: game.ID, MoveNumber: 1, PlayerID: alice.ID, PlayerNumber: 1, Position: 8, BoardAfter: "000010001",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyExists), "got %v", err)

	moves, err := repo.ListByGame(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, 1, moves[0].MoveNumber)
	assert.Equal(t, 4, moves[0].Position)
	assert.Equal(t, "200010000", moves[1].BoardAfter)

	empty, err := repo.ListByGame(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
