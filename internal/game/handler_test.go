package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/wfunc/tictactoe/internal/config"
	"github.com/wfunc/tictactoe/internal/database"
	"github.com/wfunc/tictactoe/internal/models"
	"github.com/wfunc/tictactoe/internal/registry"
	"github.com/wfunc/tictactoe/internal/repository"
	"github.com/wfunc/tictactoe/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type delivery struct {
	connID string
	event  string
	data   interface{}
}

// fakeTransport 记录每个连接收到的事件
type fakeTransport struct {
	mu         sync.Mutex
	rooms      map[string]map[string]bool
	deliveries []delivery
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{rooms: make(map[string]map[string]bool)}
}

func (f *fakeTransport) SendTo(connID, event string, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, delivery{connID, event, data})
	return nil
}

func (f *fakeTransport) BroadcastRoom(roomCode, event string, data interface{}, exclude string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.rooms[roomCode] {
		if id != exclude {
			f.deliveries = append(f.deliveries, delivery{id, event, data})
		}
	}
}

func (f *fakeTransport) JoinRoom(roomCode, connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rooms[roomCode] == nil {
		f.rooms[roomCode] = make(map[string]bool)
	}
	f.rooms[roomCode][connID] = true
}

func (f *fakeTransport) LeaveRoom(roomCode, connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms[roomCode], connID)
}

func (f *fakeTransport) events(connID, event string) []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []interface{}
	for _, d := range f.deliveries {
		if d.connID == connID && d.event == event {
			out = append(out, d.data)
		}
	}
	return out
}

func (f *fakeTransport) last(connID, event string) interface{} {
	all := f.events(connID, event)
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = nil
}

// HandlerTestSuite 对局会话测试套件
type HandlerTestSuite struct {
	suite.Suite
	ctx       context.Context
	db        *gorm.DB
	transport *fakeTransport
	reg       registry.Registry
	handler   *Handler
}

func (s *HandlerTestSuite) SetupTest() {
	s.ctx = context.Background()

	db, err := database.Open(&config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      ":memory:",
		LogLevel: "silent",
	}, zap.NewNop())
	s.Require().NoError(err)
	s.Require().NoError(database.Migrate(db))
	s.db = db

	s.transport = newFakeTransport()
	s.reg = registry.NewMemory()
	s.handler = NewHandler(db, s.reg, s.transport,
		utils.NewJWTManager("test-secret", time.Hour),
		Options{ForfeitOnLeave: true},
		zap.NewNop(),
	)

	room := &models.Room{Code: "ABC123", Name: "Lobby", IsPublic: true}
	s.Require().NoError(repository.NewRoomRepository(db).Create(s.ctx, room))
}

func (s *HandlerTestSuite) TearDownTest() {
	s.handler.Close()
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// startGame alice 与 bob 进入 ABC123 并开局，返回对局ID
func (s *HandlerTestSuite) startGame() uint {
	s.handler.Join(s.ctx, "c-alice", JoinRoomRequest{RoomCode: "ABC123", Username: "alice"})
	s.handler.Join(s.ctx, "c-bob", JoinRoomRequest{RoomCode: "ABC123", Username: "bob"})
	ack, ok := s.transport.last("c-bob", EventRoomJoined).(RoomJoined)
	s.Require().True(ok)
	return ack.GameID
}

func (s *HandlerTestSuite) move(connID string, gameID uint, pos int) {
	s.handler.Move(s.ctx, connID, MakeMoveRequest{GameID: gameID, Position: &pos})
}

func (s *HandlerTestSuite) lastError(connID string) string {
	payload, ok := s.transport.last(connID, EventError).(ErrorPayload)
	if !ok {
		return ""
	}
	return payload.Message
}

func (s *HandlerTestSuite) loadGame(id uint) *models.Game {
	game, err := repository.NewGameRepository(s.db).FindByID(s.ctx, id)
	s.Require().NoError(err)
	return game
}

func (s *HandlerTestSuite) loadPlayer(username string) *models.Player {
	p, err := repository.NewPlayerRepository(s.db).FindByUsername(s.ctx, username)
	s.Require().NoError(err)
	return p
}

func (s *HandlerTestSuite) loadRoom() *models.Room {
	room, err := repository.NewRoomRepository(s.db).FindByCode(s.ctx, "ABC123")
	s.Require().NoError(err)
	return room
}

func (s *HandlerTestSuite) TestJoinAssignsSeatsAndStarts() {
	s.handler.Join(s.ctx, "c-alice", JoinRoomRequest{RoomCode: "ABC123", Username: "alice"})

	ack, ok := s.transport.last("c-alice", EventRoomJoined).(RoomJoined)
	s.Require().True(ok)
	s.Equal(1, ack.PlayerNumber)
	s.Equal("ABC123", ack.RoomCode)
	s.NotZero(ack.GameID)
	s.NotEmpty(ack.ResumeToken)
	s.Empty(s.transport.events("c-alice", EventGameStarted))
	s.Equal(models.StatusWaiting, s.loadRoom().Status)

	s.handler.Join(s.ctx, "c-bob", JoinRoomRequest{RoomCode: "ABC123", Username: "bob"})
	bobAck := s.transport.last("c-bob", EventRoomJoined).(RoomJoined)
	s.Equal(2, bobAck.PlayerNumber)
	s.Equal(ack.GameID, bobAck.GameID)

	joined, ok := s.transport.last("c-alice", EventPlayerJoined).(PlayerJoined)
	s.Require().True(ok)
	s.Equal("bob", joined.Username)
	s.Equal(2, joined.PlayersCount)
	s.Empty(s.transport.events("c-bob", EventPlayerJoined))

	for _, conn := range []string{"c-alice", "c-bob"} {
		started, ok := s.transport.last(conn, EventGameStarted).(GameStarted)
		s.Require().True(ok, conn)
		s.Equal("alice", started.Player1)
		s.Equal("bob", started.Player2)
		s.Equal(1, started.CurrentTurn)
	}

	game := s.loadGame(ack.GameID)
	s.Equal(models.StatusInProgress, game.Status)
	s.NotNil(game.StartedAt)
	room := s.loadRoom()
	s.Equal(models.StatusInProgress, room.Status)
	s.NotNil(room.StartedAt)
}

func (s *HandlerTestSuite) TestJoinErrors() {
	s.handler.Join(s.ctx, "c1", JoinRoomRequest{RoomCode: "ABC123"})
	s.Equal(MsgMissingJoinFields, s.lastError("c1"))

	s.handler.Join(s.ctx, "c1", JoinRoomRequest{Username: "alice"})
	s.Equal(MsgMissingJoinFields, s.lastError("c1"))

	s.handler.Join(s.ctx, "c1", JoinRoomRequest{RoomCode: "NOPE", Username: "alice"})
	s.Equal(MsgRoomNotFound, s.lastError("c1"))

	s.handler.Join(s.ctx, "c1", JoinRoomRequest{ResumeToken: "garbage"})
	s.Equal(MsgInvalidResumeToken, s.lastError("c1"))

	_, ok, err := s.reg.Get(s.ctx, "c1")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *HandlerTestSuite) TestRejectsOccupiedCellAndWrongTurn() {
	gameID := s.startGame()

	s.move("c-alice", gameID, 4)
	made, ok := s.transport.last("c-bob", EventMoveMade).(MoveMade)
	s.Require().True(ok)
	s.Equal(4, made.Position)
	s.Equal(2, made.CurrentTurn)
	s.Equal("000010000", made.Board)
	s.Equal(s.loadPlayer("alice").ID, made.Player)

	s.transport.reset()
	s.move("c-bob", gameID, 4)
	s.Equal(MsgPositionTaken, s.lastError("c-bob"))
	s.Empty(s.transport.events("c-alice", EventError))
	s.Empty(s.transport.events("c-alice", EventMoveMade))

	s.move("c-alice", gameID, 0)
	s.Equal(MsgNotYourTurn, s.lastError("c-alice"))

	game := s.loadGame(gameID)
	s.Equal("000010000", game.BoardState)
	s.Equal(2, game.CurrentTurn)
	s.Equal(1, game.TotalMoves)
}

func (s *HandlerTestSuite) TestInvalidPositions() {
	gameID := s.startGame()

	s.handler.Move(s.ctx, "c-alice", MakeMoveRequest{GameID: gameID})
	s.Equal(MsgInvalidPosition, s.lastError("c-alice"))

	s.move("c-alice", gameID, 9)
	s.Equal(MsgInvalidPosition, s.lastError("c-alice"))

	s.move("c-alice", gameID, -1)
	s.Equal(MsgInvalidPosition, s.lastError("c-alice"))

	s.move("c-alice", 9999, 0)
	s.Equal(MsgGameNotFound, s.lastError("c-alice"))
}

func (s *HandlerTestSuite) TestTopRowWin() {
	gameID := s.startGame()

	s.move("c-alice", gameID, 0)
	s.move("c-bob", gameID, 3)
	s.move("c-alice", gameID, 1)
	s.move("c-bob", gameID, 4)
	s.move("c-alice", gameID, 2)

	for _, conn := range []string{"c-alice", "c-bob"} {
		over, ok := s.transport.last(conn, EventGameOver).(GameOver)
		s.Require().True(ok, conn)
		s.Equal(1, over.Winner)
		s.Equal("Player 1 wins!", over.Result)
		s.Equal("111220000", over.Board)
		s.Equal(ReasonLine, over.Reason)
		s.Len(s.transport.events(conn, EventMoveMade), 5)
	}

	alice, bob := s.loadPlayer("alice"), s.loadPlayer("bob")
	game := s.loadGame(gameID)
	s.Equal(models.StatusFinished, game.Status)
	s.Equal(models.ResultPlayer1Win, game.Result)
	s.Require().NotNil(game.WinnerID)
	s.Equal(alice.ID, *game.WinnerID)
	s.NotNil(game.FinishedAt)
	s.Equal(5, game.TotalMoves)

	s.Equal(1, alice.TotalGames)
	s.Equal(1, alice.Wins)
	s.Equal(1, bob.TotalGames)
	s.Equal(1, bob.Losses)

	room := s.loadRoom()
	s.Equal(models.StatusFinished, room.Status)
	s.NotNil(room.FinishedAt)

	moves, err := repository.NewMoveRepository(s.db).ListByGame(s.ctx, gameID)
	s.Require().NoError(err)
	s.Require().Len(moves, 5)
	s.Equal(2, moves[4].Position)
	s.Equal("111220000", moves[4].BoardAfter)

	// 结束后再落子或判负都不改变战绩
	s.move("c-bob", gameID, 8)
	s.Equal(MsgGameFinished, s.lastError("c-bob"))
	forfeited, err := s.handler.Forfeit(s.ctx, gameID, alice.ID)
	s.Require().NoError(err)
	s.False(forfeited)

	alice, bob = s.loadPlayer("alice"), s.loadPlayer("bob")
	s.Equal(1, alice.TotalGames)
	s.Equal(1, alice.Wins)
	s.Equal(1, bob.TotalGames)
	s.Equal("111220000", s.loadGame(gameID).BoardState)
}

func (s *HandlerTestSuite) TestDraw() {
	gameID := s.startGame()

	sequence := []struct {
		conn string
		pos  int
	}{
		{"c-alice", 0}, {"c-bob", 1}, {"c-alice", 2}, {"c-bob", 4}, {"c-alice", 3},
		{"c-bob", 6}, {"c-alice", 5}, {"c-bob", 8}, {"c-alice", 7},
	}
	for _, m := range sequence {
		s.move(m.conn, gameID, m.pos)
	}

	over, ok := s.transport.last("c-bob", EventGameOver).(GameOver)
	s.Require().True(ok)
	s.Equal(0, over.Winner)
	s.Equal("Draw!", over.Result)
	s.Equal("121121212", over.Board)
	s.Equal(ReasonDraw, over.Reason)

	game := s.loadGame(gameID)
	s.Equal(models.ResultDraw, game.Result)
	s.Nil(game.WinnerID)
	s.Equal(1, s.loadPlayer("alice").Draws)
	s.Equal(1, s.loadPlayer("bob").Draws)
}

func (s *HandlerTestSuite) TestMoveBeforeStartAndUntracked() {
	s.handler.Join(s.ctx, "c-alice", JoinRoomRequest{RoomCode: "ABC123", Username: "alice"})
	ack := s.transport.last("c-alice", EventRoomJoined).(RoomJoined)

	s.move("c-alice", ack.GameID, 0)
	s.Equal(MsgGameNotStarted, s.lastError("c-alice"))

	s.move("stranger", ack.GameID, 0)
	s.Empty(s.transport.events("stranger", EventError))
}

func (s *HandlerTestSuite) TestSpectator() {
	gameID := s.startGame()

	s.handler.Join(s.ctx, "c-carol", JoinRoomRequest{RoomCode: "ABC123", Username: "carol"})
	ack := s.transport.last("c-carol", EventRoomJoined).(RoomJoined)
	s.Equal(0, ack.PlayerNumber)
	s.Equal(gameID, ack.GameID)
	s.NotNil(s.transport.last("c-carol", EventGameStarted))

	joined := s.transport.last("c-alice", EventPlayerJoined).(PlayerJoined)
	s.Equal(3, joined.PlayersCount)

	s.move("c-carol", gameID, 0)
	s.Equal(MsgNotParticipant, s.lastError("c-carol"))

	s.move("c-alice", gameID, 0)
	s.NotNil(s.transport.last("c-carol", EventMoveMade))
}

func (s *HandlerTestSuite) TestLeaveForfeits() {
	gameID := s.startGame()
	s.move("c-alice", gameID, 0)

	s.handler.Leave(s.ctx, "c-alice")

	left, ok := s.transport.last("c-bob", EventPlayerLeft).(UsernameNotice)
	s.Require().True(ok)
	s.Equal("alice", left.Username)

	over, ok := s.transport.last("c-bob", EventGameOver).(GameOver)
	s.Require().True(ok)
	s.Equal(2, over.Winner)
	s.Equal(ReasonForfeit, over.Reason)
	s.Empty(s.transport.events("c-alice", EventGameOver))

	game := s.loadGame(gameID)
	s.Equal(models.ResultPlayer2Win, game.Result)
	s.Equal(1, s.loadPlayer("bob").Wins)
	s.Equal(1, s.loadPlayer("alice").Losses)
	s.Equal(models.StatusFinished, s.loadRoom().Status)

	size, err := s.reg.RoomSize(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(1, size)
}

func (s *HandlerTestSuite) TestLeaveWithoutForfeit() {
	s.handler.UpdateOptions(Options{ForfeitOnLeave: false})
	gameID := s.startGame()

	s.handler.Leave(s.ctx, "c-alice")
	s.NotNil(s.transport.last("c-bob", EventPlayerLeft))
	s.Empty(s.transport.events("c-bob", EventGameOver))
	s.Equal(models.StatusInProgress, s.loadGame(gameID).Status)

	// 未加入房间的连接离开是空操作
	s.handler.Leave(s.ctx, "c-alice")
	s.Len(s.transport.events("c-bob", EventPlayerLeft), 1)
}

func (s *HandlerTestSuite) TestDisconnectGraceExpires() {
	s.handler.UpdateOptions(Options{DisconnectGrace: 50 * time.Millisecond})
	gameID := s.startGame()

	s.handler.Disconnect(s.ctx, "c-alice")
	notice, ok := s.transport.last("c-bob", EventPlayerDisconnected).(UsernameNotice)
	s.Require().True(ok)
	s.Equal("alice", notice.Username)

	s.Eventually(func() bool {
		return s.transport.last("c-bob", EventGameOver) != nil
	}, 2*time.Second, 10*time.Millisecond)

	over := s.transport.last("c-bob", EventGameOver).(GameOver)
	s.Equal(2, over.Winner)
	s.Equal(ReasonForfeit, over.Reason)
	s.Equal(models.StatusFinished, s.loadGame(gameID).Status)
	s.Equal(0, s.handler.PendingForfeits())
}

func (s *HandlerTestSuite) TestRejoinCancelsForfeit() {
	s.handler.UpdateOptions(Options{DisconnectGrace: time.Hour})
	gameID := s.startGame()
	token := s.transport.last("c-alice", EventRoomJoined).(RoomJoined).ResumeToken

	s.handler.Disconnect(s.ctx, "c-alice")
	s.Equal(1, s.handler.PendingForfeits())

	s.handler.Join(s.ctx, "c-alice-2", JoinRoomRequest{ResumeToken: token})
	ack, ok := s.transport.last("c-alice-2", EventRoomJoined).(RoomJoined)
	s.Require().True(ok)
	s.Equal("alice", ack.Username)
	s.Equal(1, ack.PlayerNumber)
	s.Equal(gameID, ack.GameID)
	s.Equal(0, s.handler.PendingForfeits())
	s.Equal(models.StatusInProgress, s.loadGame(gameID).Status)

	s.move("c-alice-2", gameID, 4)
	s.NotNil(s.transport.last("c-bob", EventMoveMade))
}

func (s *HandlerTestSuite) TestDisconnectWithoutGraceKeepsGame() {
	gameID := s.startGame()

	s.handler.Disconnect(s.ctx, "c-bob")
	s.NotNil(s.transport.last("c-alice", EventPlayerDisconnected))
	s.Equal(0, s.handler.PendingForfeits())
	s.Equal(models.StatusInProgress, s.loadGame(gameID).Status)
}

func (s *HandlerTestSuite) TestReadyAndChat() {
	s.startGame()

	s.handler.Ready(s.ctx, "c-alice")
	ready, ok := s.transport.last("c-bob", EventPlayerReady).(UsernameNotice)
	s.Require().True(ok)
	s.Equal("alice", ready.Username)

	s.handler.Chat(s.ctx, "c-bob", ChatRequest{Message: ""})
	s.Empty(s.transport.events("c-alice", EventChatMessage))

	s.handler.Chat(s.ctx, "c-bob", ChatRequest{Message: "gl hf"})
	for _, conn := range []string{"c-alice", "c-bob"} {
		msg, ok := s.transport.last(conn, EventChatMessage).(ChatMessage)
		s.Require().True(ok, conn)
		s.Equal("bob", msg.Username)
		s.Equal("gl hf", msg.Message)
		_, err := time.Parse(time.RFC3339, msg.Timestamp)
		s.NoError(err)
	}

	s.handler.Chat(s.ctx, "stranger", ChatRequest{Message: "hi"})
	s.Len(s.transport.events("c-alice", EventChatMessage), 1)
}

func (s *HandlerTestSuite) TestConcurrentMovesOnlyOneApplies() {
	gameID := s.startGame()

	var wg sync.WaitGroup
	for _, pos := range []int{0, 8} {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			s.move("c-alice", gameID, p)
		}(pos)
	}
	wg.Wait()

	s.Len(s.transport.events("c-bob", EventMoveMade), 1)
	s.Equal(MsgNotYourTurn, s.lastError("c-alice"))

	game := s.loadGame(gameID)
	s.Equal(1, game.TotalMoves)
	s.Equal(2, game.CurrentTurn)
}

func (s *HandlerTestSuite) TestMoveOnOtherRoomGameRejected() {
	gameA := s.startGame()

	roomB := &models.Room{Code: "ROOMB", Name: "Second", IsPublic: true}
	s.Require().NoError(repository.NewRoomRepository(s.db).Create(s.ctx, roomB))
	s.handler.Join(s.ctx, "c-alice-b", JoinRoomRequest{RoomCode: "ROOMB", Username: "alice"})
	s.handler.Join(s.ctx, "c-dave", JoinRoomRequest{RoomCode: "ROOMB", Username: "dave"})
	gameB := s.transport.last("c-dave", EventRoomJoined).(RoomJoined).GameID
	s.Require().NotEqual(gameA, gameB)

	s.move("c-alice", gameB, 4)
	s.Equal(MsgGameNotFound, s.lastError("c-alice"))
	s.Equal("000000000", s.loadGame(gameB).BoardState)
	s.Empty(s.transport.events("c-bob", EventMoveMade))
	s.Empty(s.transport.events("c-dave", EventMoveMade))

	s.move("c-alice-b", gameB, 4)
	moved, ok := s.transport.last("c-dave", EventMoveMade).(MoveMade)
	s.Require().True(ok)
	s.Equal(gameB, moved.GameID)
	s.Empty(s.transport.events("c-bob", EventMoveMade))
	s.Equal("000000000", s.loadGame(gameA).BoardState)
}

func (s *HandlerTestSuite) TestDuplicateMoveRecordReportsStateChange() {
	gameID := s.startGame()
	alice := s.loadPlayer("alice")

	s.Require().NoError(repository.NewMoveRepository(s.db).Create(s.ctx, &models.GameMove{
		GameID:       gameID,
		MoveNumber:   1,
		PlayerID:     alice.ID,
		PlayerNumber: 1,
		Position:     8,
		BoardAfter:   "000000001",
	}))

	s.move("c-alice", gameID, 0)
	s.Equal(MsgStateChanged, s.lastError("c-alice"))
	s.Empty(s.transport.events("c-bob", EventMoveMade))

	game := s.loadGame(gameID)
	s.Equal("000000000", game.BoardState)
	s.Zero(game.TotalMoves)
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
