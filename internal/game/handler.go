// Package game 井字棋实时对局：加入、落子、准备、聊天、离开、断线与判负。
package game

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wfunc/tictactoe/internal/config"
	apperrors "github.com/wfunc/tictactoe/internal/errors"
	"github.com/wfunc/tictactoe/internal/game/board"
	"github.com/wfunc/tictactoe/internal/logger"
	"github.com/wfunc/tictactoe/internal/models"
	"github.com/wfunc/tictactoe/internal/registry"
	"github.com/wfunc/tictactoe/internal/repository"
	"github.com/wfunc/tictactoe/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options 对局会话参数，配置重载时可更新
type Options struct {
	// DisconnectGrace 断线后等待重连的时长，0 表示断线不判负
	DisconnectGrace time.Duration
	// ForfeitOnLeave 对局中主动离开是否判负
	ForfeitOnLeave bool
}

// OptionsFromConfig 由配置构建参数
func OptionsFromConfig(cfg config.GameConfig) Options {
	return Options{
		DisconnectGrace: cfg.DisconnectGrace,
		ForfeitOnLeave:  cfg.ForfeitOnLeave,
	}
}

// Handler 对局会话处理器。
// 同一局的落子、入座与判负通过按键锁串行，持久化时再以步数做乐观校验。
type Handler struct {
	db        *gorm.DB
	players   repository.PlayerRepository
	rooms     repository.RoomRepository
	games     repository.GameRepository
	moves     repository.MoveRepository
	registry  registry.Registry
	transport Transport
	tokens    *utils.JWTManager
	locks     *KeyedLocker
	timers    *graceTimers
	log       *zap.Logger

	optsMu sync.RWMutex
	opts   Options
}

// NewHandler 创建对局会话处理器，tokens 为 nil 时不签发续连令牌
func NewHandler(
	db *gorm.DB,
	reg registry.Registry,
	transport Transport,
	tokens *utils.JWTManager,
	opts Options,
	log *zap.Logger,
) *Handler {
	return &Handler{
		db:        db,
		players:   repository.NewPlayerRepository(db),
		rooms:     repository.NewRoomRepository(db),
		games:     repository.NewGameRepository(db),
		moves:     repository.NewMoveRepository(db),
		registry:  reg,
		transport: transport,
		tokens:    tokens,
		locks:     NewKeyedLocker(),
		timers:    newGraceTimers(),
		log:       log.Named("game"),
		opts:      opts,
	}
}

// UpdateOptions 更新会话参数
func (h *Handler) UpdateOptions(opts Options) {
	h.optsMu.Lock()
	h.opts = opts
	h.optsMu.Unlock()
}

func (h *Handler) options() Options {
	h.optsMu.RLock()
	defer h.optsMu.RUnlock()
	return h.opts
}

// Close 停止全部断线计时器
func (h *Handler) Close() {
	h.timers.stopAll()
}

func roomKey(code string) string { return "room:" + code }
func gameKey(id uint) string     { return fmt.Sprintf("game:%d", id) }

// Join 加入房间。首位进入者为玩家1，第二位为玩家2并开局，之后的为观战者。
func (h *Handler) Join(ctx context.Context, connID string, req JoinRoomRequest) {
	roomCode := strings.TrimSpace(req.RoomCode)
	username := strings.TrimSpace(req.Username)

	if req.ResumeToken != "" && h.tokens != nil {
		claims, err := h.tokens.ValidateResumeToken(req.ResumeToken)
		if err != nil {
			h.log.Debug("续连令牌无效", zap.String("conn_id", connID), zap.Error(err))
			h.sendError(connID, MsgInvalidResumeToken)
			return
		}
		username = claims.Username
		if roomCode == "" {
			roomCode = claims.RoomCode
		}
	}

	if roomCode == "" || username == "" {
		h.sendError(connID, MsgMissingJoinFields)
		return
	}

	// 换房间时先离开原房间
	if prev, ok, err := h.registry.Get(ctx, connID); err == nil && ok && prev.RoomCode != roomCode {
		h.Leave(ctx, connID)
	}

	player, err := h.players.FindOrCreate(ctx, username)
	if err != nil {
		h.fail(connID, "join_room", err)
		return
	}
	if err := h.players.TouchLastSeen(ctx, player.ID); err != nil {
		h.log.Warn("刷新在线时间失败", zap.Uint("player_id", player.ID), zap.Error(err))
	}

	room, err := h.rooms.FindByCode(ctx, roomCode)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			h.sendError(connID, MsgRoomNotFound)
			return
		}
		h.fail(connID, "join_room", err)
		return
	}

	game, err := h.seat(ctx, room, player)
	if err != nil {
		h.fail(connID, "join_room", err)
		return
	}

	number := game.PlayerNumber(player.ID)
	if number != 0 && h.timers.cancel(game.ID, player.ID) {
		h.log.Info("玩家重连，取消断线判负",
			zap.Uint("game_id", game.ID),
			zap.Uint("player_id", player.ID),
		)
	}

	sess := registry.Session{
		ConnectionID: connID,
		RoomCode:     room.Code,
		PlayerID:     player.ID,
		Username:     player.Username,
		GameID:       game.ID,
	}
	if err := h.registry.Put(ctx, sess); err != nil {
		h.fail(connID, "join_room", err)
		return
	}
	if err := h.registry.AddToRoom(ctx, room.Code, connID); err != nil {
		h.fail(connID, "join_room", err)
		return
	}
	h.transport.JoinRoom(room.Code, connID)

	ack := RoomJoined{
		RoomCode:     room.Code,
		PlayerID:     player.ID,
		Username:     player.Username,
		GameID:       game.ID,
		PlayerNumber: number,
	}
	if h.tokens != nil {
		token, err := h.tokens.GenerateResumeToken(player.ID, player.Username, room.Code, game.ID)
		if err != nil {
			h.log.Warn("签发续连令牌失败", zap.Error(err))
		}
		ack.ResumeToken = token
	}
	h.send(connID, EventRoomJoined, ack)

	count, err := h.registry.RoomSize(ctx, room.Code)
	if err != nil {
		h.log.Warn("获取房间人数失败", zap.String("room_code", room.Code), zap.Error(err))
	}
	h.transport.BroadcastRoom(room.Code, EventPlayerJoined, PlayerJoined{
		Username:     player.Username,
		PlayersCount: count,
	}, connID)

	if game.IsFull() && game.Status == models.StatusInProgress {
		h.transport.BroadcastRoom(room.Code, EventGameStarted, GameStarted{
			GameID:      game.ID,
			Player1:     usernameOf(game.Player1),
			Player2:     usernameOf(game.Player2),
			CurrentTurn: game.CurrentTurn,
			Board:       game.BoardState,
		}, "")
	}

	logger.LogGameEvent(EventRoomJoined, game.ID, map[string]interface{}{
		"room_code":     room.Code,
		"username":      player.Username,
		"player_number": number,
	})
}

// seat 取得房间的对局，必要时创建对局或让玩家坐上二号位
func (h *Handler) seat(ctx context.Context, room *models.Room, player *models.Player) (*models.Game, error) {
	unlock := h.locks.Lock(roomKey(room.Code))
	defer unlock()

	game, err := h.games.FindByRoomID(ctx, room.ID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		created := &models.Game{RoomID: room.ID, Player1ID: player.ID}
		if err := h.games.Create(ctx, created); err != nil {
			// 其他实例抢先创建
			if !apperrors.Is(err, apperrors.ErrAlreadyExists) {
				return nil, err
			}
			return h.games.FindByRoomID(ctx, room.ID)
		}
		return h.games.FindByID(ctx, created.ID)
	}
	if err != nil {
		return nil, err
	}

	if game.PlayerNumber(player.ID) != 0 || game.IsFull() || !CanTransition(game.Status, models.StatusInProgress) {
		return game, nil
	}

	now := time.Now()
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		games := h.games.WithTx(tx).(repository.GameRepository)
		rooms := h.rooms.WithTx(tx).(repository.RoomRepository)
		if err := games.SeatPlayer2(ctx, game.ID, player.ID, now); err != nil {
			return err
		}
		return rooms.UpdateStatus(ctx, room.ID, models.StatusInProgress, now)
	})
	// 座位已被占用时作为观战者继续
	if err != nil && !apperrors.Is(err, apperrors.ErrGameStateError) {
		return nil, err
	}

	return h.games.FindByID(ctx, game.ID)
}

// Move 落子。校验失败只回复发起者，成功后向整个房间广播。
func (h *Handler) Move(ctx context.Context, connID string, req MakeMoveRequest) {
	sess, ok := h.session(ctx, connID)
	if !ok {
		return
	}

	if req.Position == nil || *req.Position < 0 || *req.Position >= board.Size {
		h.sendError(connID, MsgInvalidPosition)
		return
	}
	position := *req.Position

	// 只能在当前连接所在房间的对局上落子
	gameID := sess.GameID
	if req.GameID != 0 && req.GameID != gameID {
		h.sendError(connID, MsgGameNotFound)
		return
	}

	unlock := h.locks.Lock(gameKey(gameID))
	defer unlock()

	game, err := h.games.FindByID(ctx, gameID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			h.sendError(connID, MsgGameNotFound)
			return
		}
		h.fail(connID, "make_move", err)
		return
	}

	number := game.PlayerNumber(sess.PlayerID)
	switch {
	case number == 0:
		h.sendError(connID, MsgNotParticipant)
		return
	case game.Status == models.StatusWaiting:
		h.sendError(connID, MsgGameNotStarted)
		return
	case game.Status == models.StatusFinished:
		h.sendError(connID, MsgGameFinished)
		return
	case game.CurrentTurn != number:
		h.sendError(connID, MsgNotYourTurn)
		return
	}

	next, ok := board.Place(game.BoardState, position, number)
	if !ok {
		h.sendError(connID, MsgPositionTaken)
		return
	}

	expected := game.TotalMoves
	now := time.Now()
	game.BoardState = next
	game.TotalMoves++

	outcome := board.Evaluate(next)
	if outcome.Kind == board.Continue {
		game.CurrentTurn = board.Other(number)
	} else {
		finish(game, resultFor(outcome), now)
	}

	move := &models.GameMove{
		GameID:       game.ID,
		MoveNumber:   game.TotalMoves,
		PlayerID:     sess.PlayerID,
		PlayerNumber: number,
		Position:     position,
		BoardAfter:   next,
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := h.games.WithTx(tx).(repository.GameRepository).SaveState(ctx, game, expected); err != nil {
			return err
		}
		if err := h.moves.WithTx(tx).(repository.MoveRepository).Create(ctx, move); err != nil {
			return err
		}
		if game.IsFinished() {
			return h.settle(ctx, tx, game, now)
		}
		return nil
	})
	if err != nil {
		h.fail(connID, "make_move", stateConflict(err))
		return
	}

	h.transport.BroadcastRoom(sess.RoomCode, EventMoveMade, MoveMade{
		GameID:       game.ID,
		Position:     position,
		Player:       sess.PlayerID,
		PlayerNumber: number,
		Board:        game.BoardState,
		CurrentTurn:  game.CurrentTurn,
	}, "")

	if !game.IsFinished() {
		return
	}

	reason := ReasonLine
	if outcome.Kind == board.Draw {
		reason = ReasonDraw
	}
	h.announceGameOver(sess.RoomCode, game, reason)
}

// Forfeit 判 loserID 负。对局不在进行中或该玩家不是参与者时什么都不做，返回 false。
func (h *Handler) Forfeit(ctx context.Context, gameID, loserID uint) (bool, error) {
	unlock := h.locks.Lock(gameKey(gameID))
	defer unlock()

	game, err := h.games.FindByID(ctx, gameID)
	if err != nil {
		return false, err
	}
	if game.Status != models.StatusInProgress {
		return false, nil
	}
	loser := game.PlayerNumber(loserID)
	if loser == 0 {
		return false, nil
	}

	room, err := h.rooms.FindByID(ctx, game.RoomID)
	if err != nil {
		return false, err
	}

	result := models.ResultPlayer1Win
	if board.Other(loser) == 2 {
		result = models.ResultPlayer2Win
	}

	expected := game.TotalMoves
	now := time.Now()
	finish(game, result, now)

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := h.games.WithTx(tx).(repository.GameRepository).SaveState(ctx, game, expected); err != nil {
			return err
		}
		return h.settle(ctx, tx, game, now)
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrGameStateError) {
			return false, nil
		}
		return false, err
	}

	h.announceGameOver(room.Code, game, ReasonForfeit)
	return true, nil
}

// finish 把对局标记为结束
func finish(game *models.Game, result models.GameResult, now time.Time) {
	game.Status = models.StatusFinished
	game.Result = result
	game.FinishedAt = &now
	game.WinnerID = nil
	if id, ok := game.PlayerIDByNumber(winnerNumber(result)); ok {
		game.WinnerID = &id
	}
}

// settle 在事务内累计双方战绩并结束房间
func (h *Handler) settle(ctx context.Context, tx *gorm.DB, game *models.Game, now time.Time) error {
	players := h.players.WithTx(tx).(repository.PlayerRepository)
	rooms := h.rooms.WithTx(tx).(repository.RoomRepository)

	p1 := game.Player1ID
	p2, ok := game.PlayerIDByNumber(2)
	if !ok {
		return apperrors.New(apperrors.ErrGameStateError, "game finished without a second player")
	}

	var o1, o2 repository.Outcome
	switch game.Result {
	case models.ResultPlayer1Win:
		o1, o2 = repository.OutcomeWin, repository.OutcomeLoss
	case models.ResultPlayer2Win:
		o1, o2 = repository.OutcomeLoss, repository.OutcomeWin
	default:
		o1, o2 = repository.OutcomeDraw, repository.OutcomeDraw
	}

	if err := players.ApplyOutcome(ctx, p1, o1); err != nil {
		return err
	}
	if err := players.ApplyOutcome(ctx, p2, o2); err != nil {
		return err
	}
	return rooms.UpdateStatus(ctx, game.RoomID, models.StatusFinished, now)
}

func (h *Handler) announceGameOver(roomCode string, game *models.Game, reason string) {
	h.timers.cancelGame(game.ID)

	winner := winnerNumber(game.Result)
	h.transport.BroadcastRoom(roomCode, EventGameOver, GameOver{
		GameID: game.ID,
		Winner: winner,
		Result: resultText(winner),
		Board:  game.BoardState,
		Reason: reason,
	}, "")

	logger.LogGameEvent(EventGameOver, game.ID, map[string]interface{}{
		"room_code": roomCode,
		"result":    string(game.Result),
		"reason":    reason,
		"moves":     game.TotalMoves,
	})
}

// Ready 广播准备通知，不落库
func (h *Handler) Ready(ctx context.Context, connID string) {
	sess, ok := h.session(ctx, connID)
	if !ok {
		return
	}
	h.transport.BroadcastRoom(sess.RoomCode, EventPlayerReady, UsernameNotice{Username: sess.Username}, "")
}

// Chat 转发非空聊天消息，不落库
func (h *Handler) Chat(ctx context.Context, connID string, req ChatRequest) {
	sess, ok := h.session(ctx, connID)
	if !ok || req.Message == "" {
		return
	}
	h.transport.BroadcastRoom(sess.RoomCode, EventChatMessage, ChatMessage{
		Username:  sess.Username,
		Message:   req.Message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, "")
}

// Leave 主动离开房间；对局进行中且开启 forfeit_on_leave 时判负
func (h *Handler) Leave(ctx context.Context, connID string) {
	sess, ok := h.detach(ctx, connID)
	if !ok {
		return
	}

	h.transport.BroadcastRoom(sess.RoomCode, EventPlayerLeft, UsernameNotice{Username: sess.Username}, "")

	if !h.options().ForfeitOnLeave || sess.GameID == 0 || h.stillPresent(ctx, sess) {
		return
	}
	if _, err := h.Forfeit(ctx, sess.GameID, sess.PlayerID); err != nil {
		h.log.Error("离开判负失败", zap.Uint("game_id", sess.GameID), zap.Error(err))
	}
}

// Disconnect 连接断开；对局进行中时启动断线宽限计时，超时未重连判负
func (h *Handler) Disconnect(ctx context.Context, connID string) {
	sess, ok := h.detach(ctx, connID)
	if !ok {
		return
	}

	h.transport.BroadcastRoom(sess.RoomCode, EventPlayerDisconnected, UsernameNotice{Username: sess.Username}, "")

	grace := h.options().DisconnectGrace
	if grace <= 0 || sess.GameID == 0 || h.stillPresent(ctx, sess) {
		return
	}

	game, err := h.games.FindByID(ctx, sess.GameID)
	if err != nil || game.Status != models.StatusInProgress || game.PlayerNumber(sess.PlayerID) == 0 {
		return
	}

	h.log.Info("玩家断线，开始宽限计时",
		zap.Uint("game_id", sess.GameID),
		zap.String("username", sess.Username),
		zap.Duration("grace", grace),
	)
	h.timers.start(sess.GameID, sess.PlayerID, grace, func() {
		bg := context.Background()
		if h.stillPresent(bg, sess) {
			return
		}
		forfeited, err := h.Forfeit(bg, sess.GameID, sess.PlayerID)
		if err != nil {
			h.log.Error("断线判负失败", zap.Uint("game_id", sess.GameID), zap.Error(err))
			return
		}
		if forfeited {
			h.log.Info("断线超时判负", zap.Uint("game_id", sess.GameID), zap.String("username", sess.Username))
		}
	})
}

// PendingForfeits 等待中的断线计时器数量
func (h *Handler) PendingForfeits() int {
	return h.timers.pending()
}

// detach 从注册表与传输房间中移除连接
func (h *Handler) detach(ctx context.Context, connID string) (registry.Session, bool) {
	sess, ok, err := h.registry.Get(ctx, connID)
	if err != nil {
		h.log.Error("查询会话失败", zap.String("conn_id", connID), zap.Error(err))
		return sess, false
	}
	if !ok {
		return sess, false
	}

	if err := h.registry.RemoveFromRoom(ctx, sess.RoomCode, connID); err != nil {
		h.log.Warn("移出房间失败", zap.String("conn_id", connID), zap.Error(err))
	}
	if err := h.registry.Remove(ctx, connID); err != nil {
		h.log.Warn("删除会话失败", zap.String("conn_id", connID), zap.Error(err))
	}
	h.transport.LeaveRoom(sess.RoomCode, connID)
	return sess, true
}

// stillPresent 同一玩家是否还有其他连接留在房间中
func (h *Handler) stillPresent(ctx context.Context, sess registry.Session) bool {
	members, err := h.registry.RoomMembers(ctx, sess.RoomCode)
	if err != nil {
		return false
	}
	for _, id := range members {
		if id == sess.ConnectionID {
			continue
		}
		other, ok, err := h.registry.Get(ctx, id)
		if err == nil && ok && other.PlayerID == sess.PlayerID {
			return true
		}
	}
	return false
}

// session 查询连接的会话，未加入房间的连接直接忽略
func (h *Handler) session(ctx context.Context, connID string) (registry.Session, bool) {
	sess, ok, err := h.registry.Get(ctx, connID)
	if err != nil {
		h.fail(connID, "session", err)
		return sess, false
	}
	return sess, ok
}

func (h *Handler) send(connID, event string, data interface{}) {
	if err := h.transport.SendTo(connID, event, data); err != nil {
		h.log.Debug("发送失败", zap.String("conn_id", connID), zap.String("event", event), zap.Error(err))
	}
}

func (h *Handler) sendError(connID, message string) {
	h.send(connID, EventError, ErrorPayload{Message: message})
}

// fail 把错误转换为客户端可见的文本，意外错误只记日志
func (h *Handler) fail(connID, op string, err error) {
	switch apperrors.GetCode(err) {
	case apperrors.ErrGameStateError:
		h.sendError(connID, MsgStateChanged)
	case apperrors.ErrNotFound, apperrors.ErrInvalidParam:
		h.sendError(connID, apperrors.Details(err))
	default:
		h.log.Error("处理事件失败",
			zap.String("op", op),
			zap.String("conn_id", connID),
			zap.Error(err),
		)
		h.sendError(connID, MsgInternal)
	}
}

// stateConflict 同一步数的落子记录已存在时视为对局状态冲突
func stateConflict(err error) error {
	if apperrors.GetCode(err) != apperrors.ErrAlreadyExists {
		return err
	}
	return apperrors.New(apperrors.ErrGameStateError, MsgStateChanged).WithCause(err)
}

func usernameOf(p *models.Player) string {
	if p == nil {
		return ""
	}
	return p.Username
}
