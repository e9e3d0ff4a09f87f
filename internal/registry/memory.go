package registry

import (
	"context"
	"sort"
	"sync"
)

// Memory 进程内注册表
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]Session
	rooms    map[string]map[string]struct{}
}

var _ Registry = (*Memory)(nil)

// NewMemory 创建进程内注册表
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]Session),
		rooms:    make(map[string]map[string]struct{}),
	}
}

// Put 写入或覆盖连接会话
func (m *Memory) Put(_ context.Context, s Session) error {
	m.mu.Lock()
	m.sessions[s.ConnectionID] = s
	m.mu.Unlock()
	return nil
}

// Get 读取连接会话，未知连接返回 false
func (m *Memory) Get(_ context.Context, connectionID string) (Session, bool, error) {
	m.mu.RLock()
	s, ok := m.sessions[connectionID]
	m.mu.RUnlock()
	return s, ok, nil
}

// Remove 删除连接会话
func (m *Memory) Remove(_ context.Context, connectionID string) error {
	m.mu.Lock()
	delete(m.sessions, connectionID)
	m.mu.Unlock()
	return nil
}

// AddToRoom 把连接加入房间
func (m *Memory) AddToRoom(_ context.Context, roomCode, connectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	members, ok := m.rooms[roomCode]
	if !ok {
		members = make(map[string]struct{})
		m.rooms[roomCode] = members
	}
	members[connectionID] = struct{}{}
	return nil
}

// RemoveFromRoom 把连接移出房间，房间为空时一并删除
func (m *Memory) RemoveFromRoom(_ context.Context, roomCode, connectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	members, ok := m.rooms[roomCode]
	if !ok {
		return nil
	}
	delete(members, connectionID)
	if len(members) == 0 {
		delete(m.rooms, roomCode)
	}
	return nil
}

// RoomSize 房间内连接数
func (m *Memory) RoomSize(_ context.Context, roomCode string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[roomCode]), nil
}

// RoomMembers 房间内连接ID，按字典序
func (m *Memory) RoomMembers(_ context.Context, roomCode string) ([]string, error) {
	m.mu.RLock()
	members := make([]string, 0, len(m.rooms[roomCode]))
	for id := range m.rooms[roomCode] {
		members = append(members, id)
	}
	m.mu.RUnlock()
	sort.Strings(members)
	return members, nil
}

// Close 进程内实现无需释放资源
func (m *Memory) Close() error {
	return nil
}
