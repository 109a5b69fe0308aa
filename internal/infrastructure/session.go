package infrastructure

import (
	"context"
	"sync"
)

// pairLock is one mutex shared by every call for a (tenant, counterparty).
type pairLock struct {
	ch   chan struct{}
	refs int
}

// LocalPairLocker serializes intent-session work inside one process.
type LocalPairLocker struct {
	locks map[string]*pairLock
	mu    sync.Mutex
}

func NewLocalPairLocker() *LocalPairLocker {
	return &LocalPairLocker{
		locks: make(map[string]*pairLock),
	}
}

// Lock blocks until the pair is free or ctx is done.
func (l *LocalPairLocker) Lock(ctx context.Context, tenantID, counterparty string) (func(), error) {
	key := pairKey(tenantID, counterparty)

	l.mu.Lock()
	pl, exists := l.locks[key]
	if !exists {
		pl = &pairLock{ch: make(chan struct{}, 1)}
		l.locks[key] = pl
	}
	pl.refs++
	l.mu.Unlock()

	select {
	case pl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, pl, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, pl, true) })
	}, nil
}

func (l *LocalPairLocker) release(key string, pl *pairLock, held bool) {
	if held {
		<-pl.ch
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	pl.refs--
	if pl.refs == 0 {
		delete(l.locks, key)
	}
}

// Held reports how many pairs currently have waiters or holders.
func (l *LocalPairLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// NoopPairLocker keeps last-write-wins semantics.
type NoopPairLocker struct{}

func (NoopPairLocker) Lock(context.Context, string, string) (func(), error) {
	return func() {}, nil
}

func pairKey(tenantID, counterparty string) string {
	return tenantID + "|" + counterparty
}
