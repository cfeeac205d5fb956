package refresh

import (
	"context"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type fakeLockStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{values: make(map[string]string)}
}

func (s *fakeLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.values[key]; exists {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *fakeLockStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (s *fakeLockStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func TestRedisLockAcquireRelease(t *testing.T) {
	store := newFakeLockStore()
	lock, err := NewRedisLock(store, "tl:lock:refresh", time.Minute)
	if err != nil {
		t.Fatalf("failed to build lock: %v", err)
	}

	ok, err := lock.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, ok=%v err=%v", ok, err)
	}

	other, _ := NewRedisLock(store, "tl:lock:refresh", time.Minute)
	ok, err = other.Acquire(context.Background())
	if err != nil || ok {
		t.Fatalf("expected second acquire to fail while held, ok=%v err=%v", ok, err)
	}

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	ok, err = other.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected acquire after release to succeed, ok=%v err=%v", ok, err)
	}
}

func TestRedisLockReleaseOnlyWhenOwned(t *testing.T) {
	store := newFakeLockStore()
	lock, _ := NewRedisLock(store, "tl:lock:refresh", time.Minute)

	// Never acquired: release is a no-op.
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release of unheld lock should not fail: %v", err)
	}

	if ok, _ := lock.Acquire(context.Background()); !ok {
		t.Fatalf("expected acquire to succeed")
	}

	// Simulate TTL expiry plus takeover by another instance.
	store.mu.Lock()
	store.values["tl:lock:refresh"] = "someone-else"
	store.mu.Unlock()

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release must not fail when ownership was lost: %v", err)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.values["tl:lock:refresh"] != "someone-else" {
		t.Fatalf("release must not delete another owner's lock")
	}
}

func TestNoopLockAlwaysAcquires(t *testing.T) {
	var lock NoopLock
	ok, err := lock.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("noop lock must always acquire, ok=%v err=%v", ok, err)
	}
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("noop release must not fail: %v", err)
	}
}

func TestRegistryOrderAndNilFiltering(t *testing.T) {
	jobA := &namedJob{name: "a"}
	jobB := &namedJob{name: "b"}
	registry := NewRegistry(jobA, nil, jobB)
	registry.Register(nil)

	jobs := registry.Jobs()
	if len(jobs) != 2 || jobs[0].Name() != "a" || jobs[1].Name() != "b" {
		t.Fatalf("unexpected registry contents: %+v", jobs)
	}
}

type namedJob struct{ name string }

func (j *namedJob) Name() string                { return j.name }
func (j *namedJob) Run(_ context.Context) error { return nil }
