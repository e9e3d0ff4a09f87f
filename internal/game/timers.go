package game

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// graceTimers 断线宽限计时器，按 (对局, 玩家) 索引
type graceTimers struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newGraceTimers() *graceTimers {
	return &graceTimers{timers: make(map[string]*time.Timer)}
}

func timerKey(gameID, playerID uint) string {
	return fmt.Sprintf("%d:%d", gameID, playerID)
}

// start 启动计时器，已有同键计时器时先停止
func (g *graceTimers) start(gameID, playerID uint, d time.Duration, fn func()) {
	key := timerKey(gameID, playerID)

	g.mu.Lock()
	defer g.mu.Unlock()

	if old, ok := g.timers[key]; ok {
		old.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		g.mu.Lock()
		current, ok := g.timers[key]
		if !ok || current != t {
			g.mu.Unlock()
			return
		}
		delete(g.timers, key)
		g.mu.Unlock()

		fn()
	})
	g.timers[key] = t
}

// cancel 取消计时器，返回是否存在
func (g *graceTimers) cancel(gameID, playerID uint) bool {
	key := timerKey(gameID, playerID)

	g.mu.Lock()
	defer g.mu.Unlock()

	t, ok := g.timers[key]
	if ok {
		t.Stop()
		delete(g.timers, key)
	}
	return ok
}

// cancelGame 取消某局的全部计时器
func (g *graceTimers) cancelGame(gameID uint) {
	prefix := fmt.Sprintf("%d:", gameID)

	g.mu.Lock()
	defer g.mu.Unlock()

	for key, t := range g.timers {
		if strings.HasPrefix(key, prefix) {
			t.Stop()
			delete(g.timers, key)
		}
	}
}

// stopAll 停止全部计时器
func (g *graceTimers) stopAll() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for key, t := range g.timers {
		t.Stop()
		delete(g.timers, key)
	}
}

func (g *graceTimers) pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.timers)
}
