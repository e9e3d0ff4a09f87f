package websocket

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wfunc/tictactoe/internal/config"
	"github.com/wfunc/tictactoe/internal/logger"
	"go.uber.org/zap"
)

// MessageHandler 处理客户端消息与连接生命周期
type MessageHandler interface {
	HandleClientMessage(client *Client, data []byte)
	OnDisconnect(client *Client)
}

// Hub WebSocket连接管理中心，同时维护房间广播分组
type Hub struct {
	// 客户端连接池
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 房间号到连接ID集合
	rooms   map[string]map[string]struct{}
	roomsMu sync.RWMutex

	handler MessageHandler
	cfg     config.WebSocketConfig
	closed  atomic.Bool
	logger  *zap.Logger
}

// Message WebSocket消息信封
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// NewHub 创建Hub
func NewHub(cfg config.WebSocketConfig, logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]struct{}),
		cfg:     withDefaults(cfg),
		logger:  logger,
	}
}

// SetMessageHandler 设置消息处理器，需在接受连接前调用
func (h *Hub) SetMessageHandler(handler MessageHandler) {
	h.handler = handler
}

// Serve 接管已升级的连接，启动读写协程
func (h *Hub) Serve(conn *websocket.Conn) *Client {
	client := NewClient(h, conn)
	h.Register(client)

	go client.WritePump()
	go client.ReadPump()
	return client
}

// Register 注册客户端并下发 connected
func (h *Hub) Register(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ID] = client
	online := len(h.clients)
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端连接",
		zap.String("client_id", client.ID),
		zap.Int("online", online))

	if err := h.SendTo(client.ID, "connected", map[string]string{"sid": client.ID}); err != nil {
		h.logger.Warn("发送连接成功消息失败", zap.String("client_id", client.ID), zap.Error(err))
	}
}

// Unregister 注销客户端，可重复调用
func (h *Hub) Unregister(client *Client) {
	h.clientsMu.Lock()
	_, ok := h.clients[client.ID]
	if ok {
		delete(h.clients, client.ID)
		close(client.send)
	}
	h.clientsMu.Unlock()

	if !ok {
		return
	}

	h.roomsMu.Lock()
	for code, members := range h.rooms {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
	h.roomsMu.Unlock()

	h.logger.Info("WebSocket客户端断开", zap.String("client_id", client.ID))

	if h.handler != nil && !h.closed.Load() {
		h.handler.OnDisconnect(client)
	}
}

// SendTo 发送事件给指定连接
func (h *Hub) SendTo(connID, event string, data interface{}) error {
	payload, err := encode(event, data)
	if err != nil {
		return err
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	client, ok := h.clients[connID]
	if !ok {
		return ErrClientNotFound
	}
	select {
	case client.send <- payload:
		logger.LogWebSocketMessage("send", connID, event)
		return nil
	default:
		return ErrSendBufferFull
	}
}

// BroadcastRoom 向房间内所有连接广播，exclude 非空时跳过该连接
func (h *Hub) BroadcastRoom(roomCode, event string, data interface{}, exclude string) {
	payload, err := encode(event, data)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.String("event", event), zap.Error(err))
		return
	}

	h.roomsMu.RLock()
	targets := make([]string, 0, len(h.rooms[roomCode]))
	for id := range h.rooms[roomCode] {
		if id != exclude {
			targets = append(targets, id)
		}
	}
	h.roomsMu.RUnlock()

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for _, id := range targets {
		client, ok := h.clients[id]
		if !ok {
			continue
		}
		select {
		case client.send <- payload:
		default:
			h.logger.Warn("客户端发送缓冲区满",
				zap.String("client_id", id),
				zap.String("room_code", roomCode),
				zap.String("event", event))
		}
	}
}

// JoinRoom 把连接加入房间广播组
func (h *Hub) JoinRoom(roomCode, connID string) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()

	members, ok := h.rooms[roomCode]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[roomCode] = members
	}
	members[connID] = struct{}{}
}

// LeaveRoom 把连接移出房间广播组
func (h *Hub) LeaveRoom(roomCode, connID string) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()

	if members, ok := h.rooms[roomCode]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, roomCode)
		}
	}
}

// RoomCount 房间内本节点的连接数
func (h *Hub) RoomCount(roomCode string) int {
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	return len(h.rooms[roomCode])
}

// GetOnlineCount 获取在线连接数
func (h *Hub) GetOnlineCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Close 关闭全部连接，关闭期间的断开不再触发判负流程
func (h *Hub) Close() {
	h.closed.Store(true)

	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	for _, c := range clients {
		c.conn.Close()
	}
}

func encode(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{
		Type:      event,
		Data:      raw,
		Timestamp: time.Now().Unix(),
	})
}
