// Package registry 维护在线连接与房间的映射，进程内或Redis共享。
package registry

import (
	"context"
	"fmt"

	"github.com/wfunc/tictactoe/internal/config"
)

// Session 一条连接的房间上下文
type Session struct {
	ConnectionID string `json:"connection_id"`
	RoomCode     string `json:"room_code"`
	PlayerID     uint   `json:"player_id"`
	Username     string `json:"username"`
	GameID       uint   `json:"game_id"`
}

// Registry 会话注册表。Get 对未知连接返回 ok=false 而非错误。
type Registry interface {
	Put(ctx context.Context, s Session) error
	Get(ctx context.Context, connectionID string) (Session, bool, error)
	Remove(ctx context.Context, connectionID string) error
	AddToRoom(ctx context.Context, roomCode, connectionID string) error
	RemoveFromRoom(ctx context.Context, roomCode, connectionID string) error
	RoomSize(ctx context.Context, roomCode string) (int, error)
	RoomMembers(ctx context.Context, roomCode string) ([]string, error)
	Close() error
}

// New 按配置创建注册表
func New(cfg config.RegistryConfig) (Registry, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(cfg.Redis)
	default:
		return nil, fmt.Errorf("不支持的注册表驱动: %s", cfg.Driver)
	}
}
