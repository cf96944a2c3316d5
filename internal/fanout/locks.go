package fanout

import "sync"

// shiftLocks 按班次惰性创建互斥锁。
// 注册表本身由一把锁保护，避免两个并发调用者为同一个班次创建出两把不同的锁。
type shiftLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newShiftLocks() *shiftLocks {
	return &shiftLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

func (l *shiftLocks) Lock(shiftID string) {
	l.get(shiftID).Lock()
}

func (l *shiftLocks) Unlock(shiftID string) {
	l.get(shiftID).Unlock()
}

func (l *shiftLocks) get(shiftID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	if mu, ok := l.locks[shiftID]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	l.locks[shiftID] = mu
	return mu
}
