package registry

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wfunc/tictactoe/internal/config"
)

// Redis 基于Redis的注册表，多实例共享连接与房间成员信息。
// 连接存为 HASH <prefix>:conn:<id>，房间成员存为 SET <prefix>:room:<code>。
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Registry = (*Redis)(nil)

// NewRedis 连接Redis并校验
func NewRedis(cfg config.RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("解析Redis地址失败: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接Redis失败: %w", err)
	}

	return NewRedisWithClient(client, cfg), nil
}

// NewRedisWithClient 使用已有客户端（测试用）
func NewRedisWithClient(client *redis.Client, cfg config.RedisConfig) *Redis {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "tictactoe"
	}
	return &Redis{client: client, prefix: prefix, ttl: cfg.TTL}
}

func (r *Redis) connKey(id string) string {
	return fmt.Sprintf("%s:conn:%s", r.prefix, id)
}

func (r *Redis) roomKey(code string) string {
	return fmt.Sprintf("%s:room:%s", r.prefix, code)
}

// Put 以哈希保存连接会话，设置了TTL时同时续期
func (r *Redis) Put(ctx context.Context, s Session) error {
	key := r.connKey(s.ConnectionID)
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"room_code", s.RoomCode,
		"player_id", strconv.FormatUint(uint64(s.PlayerID), 10),
		"username", s.Username,
		"game_id", strconv.FormatUint(uint64(s.GameID), 10),
	)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Get 读取连接会话，未知连接返回 false
func (r *Redis) Get(ctx context.Context, connectionID string) (Session, bool, error) {
	fields, err := r.client.HGetAll(ctx, r.connKey(connectionID)).Result()
	if err != nil {
		return Session{}, false, err
	}
	if len(fields) == 0 {
		return Session{}, false, nil
	}

	playerID, err := strconv.ParseUint(fields["player_id"], 10, 64)
	if err != nil {
		return Session{}, false, fmt.Errorf("会话数据损坏: %w", err)
	}
	gameID, _ := strconv.ParseUint(fields["game_id"], 10, 64)

	return Session{
		ConnectionID: connectionID,
		RoomCode:     fields["room_code"],
		PlayerID:     uint(playerID),
		Username:     fields["username"],
		GameID:       uint(gameID),
	}, true, nil
}

// Remove 删除连接会话
func (r *Redis) Remove(ctx context.Context, connectionID string) error {
	return r.client.Del(ctx, r.connKey(connectionID)).Err()
}

// AddToRoom 把连接加入房间
func (r *Redis) AddToRoom(ctx context.Context, roomCode, connectionID string) error {
	key := r.roomKey(roomCode)
	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, key, connectionID)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// RemoveFromRoom 把连接移出房间集合
func (r *Redis) RemoveFromRoom(ctx context.Context, roomCode, connectionID string) error {
	// 集合为空时Redis自动删除key
	return r.client.SRem(ctx, r.roomKey(roomCode), connectionID).Err()
}

// RoomSize 房间内连接数
func (r *Redis) RoomSize(ctx context.Context, roomCode string) (int, error) {
	n, err := r.client.SCard(ctx, r.roomKey(roomCode)).Result()
	return int(n), err
}

// RoomMembers 房间内连接ID，按字典序
func (r *Redis) RoomMembers(ctx context.Context, roomCode string) ([]string, error) {
	members, err := r.client.SMembers(ctx, r.roomKey(roomCode)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(members)
	return members, nil
}

// Close 关闭Redis客户端
func (r *Redis) Close() error {
	return r.client.Close()
}
