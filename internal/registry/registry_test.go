package registry

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/wfunc/tictactoe/internal/config"
)

// RegistrySuite 两种实现共用的行为测试
type RegistrySuite struct {
	suite.Suite
	newRegistry func() Registry
	reg         Registry
	ctx         context.Context
}

func (s *RegistrySuite) SetupTest() {
	s.reg = s.newRegistry()
	s.ctx = context.Background()
}

func (s *RegistrySuite) TearDownTest() {
	s.NoError(s.reg.Close())
}

func (s *RegistrySuite) TestPutGetRemove() {
	sess := Session{ConnectionID: "c1", RoomCode: "ABC123", PlayerID: 7, Username: "alice", GameID: 3}
	s.Require().NoError(s.reg.Put(s.ctx, sess))

	got, ok, err := s.reg.Get(s.ctx, "c1")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(sess, got)

	s.Require().NoError(s.reg.Remove(s.ctx, "c1"))
	_, ok, err = s.reg.Get(s.ctx, "c1")
	s.NoError(err)
	s.False(ok)
}

func (s *RegistrySuite) TestGetUnknown() {
	_, ok, err := s.reg.Get(s.ctx, "missing")
	s.NoError(err)
	s.False(ok)
}

func (s *RegistrySuite) TestPutOverwrites() {
	s.Require().NoError(s.reg.Put(s.ctx, Session{ConnectionID: "c1", RoomCode: "R1", PlayerID: 1, Username: "a"}))
	s.Require().NoError(s.reg.Put(s.ctx, Session{ConnectionID: "c1", RoomCode: "R2", PlayerID: 1, Username: "a", GameID: 9}))

	got, ok, err := s.reg.Get(s.ctx, "c1")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("R2", got.RoomCode)
	s.Equal(uint(9), got.GameID)
}

func (s *RegistrySuite) TestRoomMembership() {
	s.Require().NoError(s.reg.AddToRoom(s.ctx, "ABC123", "c1"))
	s.Require().NoError(s.reg.AddToRoom(s.ctx, "ABC123", "c2"))
	s.Require().NoError(s.reg.AddToRoom(s.ctx, "ABC123", "c2"))
	s.Require().NoError(s.reg.AddToRoom(s.ctx, "OTHER1", "c3"))

	n, err := s.reg.RoomSize(s.ctx, "ABC123")
	s.NoError(err)
	s.Equal(2, n)

	members, err := s.reg.RoomMembers(s.ctx, "ABC123")
	s.NoError(err)
	s.Equal([]string{"c1", "c2"}, members)

	s.Require().NoError(s.reg.RemoveFromRoom(s.ctx, "ABC123", "c1"))
	s.Require().NoError(s.reg.RemoveFromRoom(s.ctx, "ABC123", "c1"))
	n, _ = s.reg.RoomSize(s.ctx, "ABC123")
	s.Equal(1, n)

	s.Require().NoError(s.reg.RemoveFromRoom(s.ctx, "ABC123", "c2"))
	n, _ = s.reg.RoomSize(s.ctx, "ABC123")
	s.Equal(0, n)

	members, err = s.reg.RoomMembers(s.ctx, "NOPE")
	s.NoError(err)
	s.Empty(members)
}

func TestMemoryRegistry(t *testing.T) {
	suite.Run(t, &RegistrySuite{newRegistry: func() Registry { return NewMemory() }})
}

func TestRedisRegistry(t *testing.T) {
	mini := miniredis.RunT(t)
	cfg := config.RedisConfig{KeyPrefix: "ttt-test", TTL: time.Hour}
	suite.Run(t, &RegistrySuite{newRegistry: func() Registry {
		mini.FlushAll()
		client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
		return NewRedisWithClient(client, cfg)
	}})
}

func TestRedisKeysAndTTL(t *testing.T) {
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	reg := NewRedisWithClient(client, config.RedisConfig{KeyPrefix: "ttt", TTL: time.Minute})
	defer reg.Close()
	ctx := context.Background()

	if err := reg.Put(ctx, Session{ConnectionID: "c1", RoomCode: "ABC123", PlayerID: 2, Username: "bob"}); err != nil {
		t.Fatal(err)
	}
	if err := reg.AddToRoom(ctx, "ABC123", "c1"); err != nil {
		t.Fatal(err)
	}

	if got := mini.HGet("ttt:conn:c1", "username"); got != "bob" {
		t.Fatalf("username = %q", got)
	}
	if ok, _ := mini.IsMember("ttt:room:ABC123", "c1"); !ok {
		t.Fatal("c1 不在房间集合中")
	}
	if ttl := mini.TTL("ttt:conn:c1"); ttl != time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}

	mini.FastForward(2 * time.Minute)
	if _, ok, _ := reg.Get(ctx, "c1"); ok {
		t.Fatal("过期后仍能读到会话")
	}
}

func TestNew(t *testing.T) {
	reg, err := New(config.RegistryConfig{Driver: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := reg.(*Memory); !ok {
		t.Fatalf("unexpected type %T", reg)
	}

	mini := miniredis.RunT(t)
	reg, err = New(config.RegistryConfig{Driver: "redis", Redis: config.RedisConfig{URL: "redis://" + mini.Addr()}})
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Close()
	if _, ok := reg.(*Redis); !ok {
		t.Fatalf("unexpected type %T", reg)
	}

	if _, err := New(config.RegistryConfig{Driver: "etcd"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
