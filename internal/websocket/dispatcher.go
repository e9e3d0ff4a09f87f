package websocket

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/wfunc/tictactoe/internal/game"
	"github.com/wfunc/tictactoe/internal/logger"
	"go.uber.org/zap"
)

// GameHandler 对局事件处理
type GameHandler interface {
	Join(ctx context.Context, connID string, req game.JoinRoomRequest)
	Move(ctx context.Context, connID string, req game.MakeMoveRequest)
	Ready(ctx context.Context, connID string)
	Chat(ctx context.Context, connID string, req game.ChatRequest)
	Leave(ctx context.Context, connID string)
	Disconnect(ctx context.Context, connID string)
}

// Dispatcher 按消息类型把客户端事件分发给对局处理器
type Dispatcher struct {
	games  GameHandler
	logger *zap.Logger
}

// NewDispatcher 创建分发器
func NewDispatcher(games GameHandler, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{games: games, logger: logger}
}

// HandleClientMessage 解析消息信封并分发。格式错误与未知类型只回复错误，不断开连接。
func (d *Dispatcher) HandleClientMessage(client *Client, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		d.logger.Debug("无效的消息", zap.String("client_id", client.ID), zap.Error(err))
		d.reject(client, game.MsgInvalidMessage)
		return
	}
	logger.LogWebSocketMessage("receive", client.ID, msg.Type)

	ctx := context.Background()
	switch msg.Type {
	case game.EventJoinRoom:
		var req game.JoinRoomRequest
		if d.decode(client, msg.Data, &req) {
			d.games.Join(ctx, client.ID, req)
		}

	case game.EventLeaveRoom:
		d.games.Leave(ctx, client.ID)

	case game.EventMakeMove:
		var req game.MakeMoveRequest
		if d.decode(client, msg.Data, &req) {
			d.games.Move(ctx, client.ID, req)
		}

	case game.EventReady:
		d.games.Ready(ctx, client.ID)

	case game.EventChatMessage:
		var req game.ChatRequest
		if d.decode(client, msg.Data, &req) {
			d.games.Chat(ctx, client.ID, req)
		}

	default:
		d.logger.Debug("未知的消息类型",
			zap.String("client_id", client.ID),
			zap.String("type", msg.Type))
		d.reject(client, game.MsgUnknownEvent)
	}
}

// OnDisconnect 连接断开
func (d *Dispatcher) OnDisconnect(client *Client) {
	d.games.Disconnect(context.Background(), client.ID)
}

// decode 解析载荷，缺省载荷按空对象处理
func (d *Dispatcher) decode(client *Client, raw json.RawMessage, v interface{}) bool {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(raw, []byte("null")) {
		return true
	}
	if err := json.Unmarshal(raw, v); err != nil {
		d.reject(client, game.MsgInvalidMessage)
		return false
	}
	return true
}

func (d *Dispatcher) reject(client *Client, message string) {
	if err := client.SendMessage(game.EventError, game.ErrorPayload{Message: message}); err != nil {
		d.logger.Debug("发送错误消息失败", zap.String("client_id", client.ID), zap.Error(err))
	}
}
