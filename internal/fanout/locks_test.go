package fanout

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestShiftLocks_LockUnlock(t *testing.T) {
	l := newShiftLocks()

	l.Lock("shift-1")
	l.Unlock("shift-1")

	// 同一个班次应该可以再次加锁
	l.Lock("shift-1")
	l.Unlock("shift-1")
}

func TestShiftLocks_DifferentShiftsDoNotBlock(t *testing.T) {
	l := newShiftLocks()

	done := make(chan struct{})

	l.Lock("shift-1")
	go func() {
		// shift-2 不应该被 shift-1 的锁阻塞
		l.Lock("shift-2")
		l.Unlock("shift-2")
		close(done)
	}()

	<-done
	l.Unlock("shift-1")
}

func TestShiftLocks_Concurrent(t *testing.T) {
	l := newShiftLocks()
	var counter int64

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Lock("shared")
			atomic.AddInt64(&counter, 1)
			l.Unlock("shared")
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("expected counter=100, got %d", counter)
	}
}

func TestShiftLocks_SameKeyReturnsSameMutex(t *testing.T) {
	l := newShiftLocks()

	var wg sync.WaitGroup
	mutexes := make([]*sync.Mutex, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mutexes[i] = l.get("shift-1")
		}(i)
	}
	wg.Wait()

	for i := 1; i < 10; i++ {
		if mutexes[i] != mutexes[0] {
			t.Fatalf("并发获取同一个班次的锁得到了不同的实例")
		}
	}
}
