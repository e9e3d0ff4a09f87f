package game

import "sync"

// KeyedLocker 按键加锁，同一键上的操作串行，不同键互不影响
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedLocker 创建按键锁
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyedLock)}
}

// Lock 获取键上的锁，返回解锁函数；无人等待时释放该键
func (l *KeyedLocker) Lock(key string) func() {
	l.mu.Lock()
	lk, ok := l.locks[key]
	if !ok {
		lk = &keyedLock{}
		l.locks[key] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()

	return func() {
		lk.mu.Unlock()

		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

// Len 当前持有或等待中的键数量
func (l *KeyedLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
