package infrastructure

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLocalPairLockerSerializesPair(t *testing.T) {
	locker := NewLocalPairLocker()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "t1", "alice")
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxSeen)
	}
	if locker.Held() != 0 {
		t.Errorf("locks not cleaned up: %d", locker.Held())
	}
}

func TestLocalPairLockerIndependentPairs(t *testing.T) {
	locker := NewLocalPairLocker()
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "t1", "alice")
	if err != nil {
		t.Fatal(err)
	}
	defer unlockA()

	ctx2, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	unlockB, err := locker.Lock(ctx2, "t1", "bob")
	if err != nil {
		t.Fatalf("different pair should not block: %v", err)
	}
	unlockB()
}

func TestLocalPairLockerHonoursContext(t *testing.T) {
	locker := NewLocalPairLocker()

	unlock, err := locker.Lock(context.Background(), "t1", "alice")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "t1", "alice"); err == nil {
		t.Fatal("expected context error while pair is held")
	}

	unlock()
	unlock() // idempotent
	if locker.Held() != 0 {
		t.Errorf("held = %d after release", locker.Held())
	}
}
