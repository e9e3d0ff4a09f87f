package game

import "encoding/json"

// 客户端发来的事件
const (
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventMakeMove    = "make_move"
	EventReady       = "ready"
	EventChatMessage = "chat_message"
)

// 服务端推送的事件
const (
	EventConnected          = "connected"
	EventRoomJoined         = "room_joined"
	EventPlayerJoined       = "player_joined"
	EventGameStarted        = "game_started"
	EventPlayerLeft         = "player_left"
	EventMoveMade           = "move_made"
	EventGameOver           = "game_over"
	EventPlayerReady        = "player_ready"
	EventPlayerDisconnected = "player_disconnected"
	EventError              = "error"
)

// 发给客户端的错误文本
const (
	MsgMissingJoinFields  = "Missing room_code or username"
	MsgRoomNotFound       = "Room not found"
	MsgGameNotFound       = "Game not found"
	MsgInvalidPosition    = "Invalid position"
	MsgNotYourTurn        = "Not your turn"
	MsgPositionTaken      = "Position already taken"
	MsgNotParticipant     = "Not a participant"
	MsgGameNotStarted     = "Game has not started"
	MsgGameFinished       = "Game is already finished"
	MsgStateChanged       = "Game state changed, retry"
	MsgInvalidResumeToken = "Invalid resume token"
	MsgInternal           = "Internal error"
	MsgUnknownEvent       = "Unknown event"
	MsgInvalidMessage     = "Invalid message"
)

// game_over 的结束原因
const (
	ReasonLine    = "line"
	ReasonDraw    = "draw"
	ReasonForfeit = "forfeit"
)

// Transport 实时通道。实现方负责把事件投递到单个连接或房间内的全部连接。
type Transport interface {
	SendTo(connID, event string, data interface{}) error
	BroadcastRoom(roomCode, event string, data interface{}, excludeConnID string)
	JoinRoom(roomCode, connID string)
	LeaveRoom(roomCode, connID string)
}

// JoinRoomRequest join_room 载荷，resume_token 可替代 username
type JoinRoomRequest struct {
	RoomCode    string `json:"room_code"`
	Username    string `json:"username"`
	ResumeToken string `json:"resume_token,omitempty"`
}

// MakeMoveRequest make_move 载荷，position 缺省时视为非法
type MakeMoveRequest struct {
	GameID   uint `json:"game_id"`
	Position *int `json:"position"`
}

// UnmarshalJSON 兼容 position 为非整数的情况，统一当作缺省
func (r *MakeMoveRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		GameID   uint            `json:"game_id"`
		Position json.RawMessage `json:"position"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.GameID = raw.GameID
	r.Position = nil
	if len(raw.Position) > 0 {
		var pos int
		if err := json.Unmarshal(raw.Position, &pos); err == nil {
			r.Position = &pos
		}
	}
	return nil
}

// ChatRequest chat_message 载荷
type ChatRequest struct {
	Message string `json:"message"`
}

// RoomJoined 加入成功回执，player_number 为0表示观战
type RoomJoined struct {
	RoomCode     string `json:"room_code"`
	PlayerID     uint   `json:"player_id"`
	Username     string `json:"username"`
	GameID       uint   `json:"game_id"`
	PlayerNumber int    `json:"player_number"`
	ResumeToken  string `json:"resume_token,omitempty"`
}

// PlayerJoined 新成员加入通知
type PlayerJoined struct {
	Username     string `json:"username"`
	PlayersCount int    `json:"players_count"`
}

// GameStarted 开局通知
type GameStarted struct {
	GameID      uint   `json:"game_id"`
	Player1     string `json:"player1"`
	Player2     string `json:"player2"`
	CurrentTurn int    `json:"current_turn"`
	Board       string `json:"board"`
}

// MoveMade 落子通知，player 为落子玩家ID
type MoveMade struct {
	GameID       uint   `json:"game_id"`
	Position     int    `json:"position"`
	Player       uint   `json:"player"`
	PlayerNumber int    `json:"player_number"`
	Board        string `json:"board"`
	CurrentTurn  int    `json:"current_turn"`
}

// GameOver 终局通知，winner 为0表示平局
type GameOver struct {
	GameID uint   `json:"game_id"`
	Winner int    `json:"winner"`
	Result string `json:"result"`
	Board  string `json:"board"`
	Reason string `json:"reason"`
}

// UsernameNotice player_left / player_ready / player_disconnected 载荷
type UsernameNotice struct {
	Username string `json:"username"`
}

// ChatMessage 聊天广播
type ChatMessage struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// ErrorPayload 错误事件
type ErrorPayload struct {
	Message string `json:"message"`
}
