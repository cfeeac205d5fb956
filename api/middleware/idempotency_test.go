package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/threadline/storefront-gateway/internal/session"
	"github.com/threadline/storefront-gateway/pkg/logger"
	pkgredis "github.com/threadline/storefront-gateway/pkg/redis"
)

type memoryIdempotencyStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{values: make(map[string]string)}
}

func (s *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (s *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.values[key]; exists {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "tl:idempotency:" + scope + ":" + id
}

func (s *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func idempotentHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"lines":1}}`))
	})
}

func cartAddRequest(key, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(body))
	if key != "" {
		r.Header.Set("Idempotency-Key", key)
	}
	return r.WithContext(WithSession(r.Context(), session.Session{Owner: "user-1"}))
}

func TestIdempotencyReplayReturnsCachedResponse(t *testing.T) {
	store := newMemoryIdempotencyStore()
	logg := logger.New(logger.Options{ServiceName: "test"})
	calls := 0
	handler := Idempotency(store, time.Minute, logg)(idempotentHandler(&calls))

	body := `{"productId":"p1","quantity":1}`

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, cartAddRequest("key-1", body))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, cartAddRequest("key-1", body))

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replay status 201, got %d", second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("expected identical bodies, got %q vs %q", first.Body.String(), second.Body.String())
	}
	if second.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content type restored on replay")
	}
}

func TestIdempotencyKeyReuseWithDifferentBodyRejected(t *testing.T) {
	store := newMemoryIdempotencyStore()
	logg := logger.New(logger.Options{ServiceName: "test"})
	calls := 0
	handler := Idempotency(store, time.Minute, logg)(idempotentHandler(&calls))

	handler.ServeHTTP(httptest.NewRecorder(), cartAddRequest("key-1", `{"productId":"p1"}`))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, cartAddRequest("key-1", `{"productId":"p2"}`))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for reused key with different body, got %d", rec.Code)
	}
	if calls != 1 {
		t.Fatalf("handler must not run for the mismatched replay, ran %d times", calls)
	}
}

func TestIdempotencyMissingKeySkipsProtection(t *testing.T) {
	store := newMemoryIdempotencyStore()
	logg := logger.New(logger.Options{ServiceName: "test"})
	calls := 0
	handler := Idempotency(store, time.Minute, logg)(idempotentHandler(&calls))

	handler.ServeHTTP(httptest.NewRecorder(), cartAddRequest("", `{}`))
	handler.ServeHTTP(httptest.NewRecorder(), cartAddRequest("", `{}`))

	if calls != 2 {
		t.Fatalf("keyless requests must pass through, handler ran %d times", calls)
	}
}

func TestIdempotencyScopedPerOwner(t *testing.T) {
	store := newMemoryIdempotencyStore()
	logg := logger.New(logger.Options{ServiceName: "test"})
	calls := 0
	handler := Idempotency(store, time.Minute, logg)(idempotentHandler(&calls))

	body := `{"productId":"p1"}`
	handler.ServeHTTP(httptest.NewRecorder(), cartAddRequest("key-1", body))

	other := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(body))
	other.Header.Set("Idempotency-Key", "key-1")
	other = other.WithContext(WithSession(other.Context(), session.Session{Owner: "user-2"}))
	handler.ServeHTTP(httptest.NewRecorder(), other)

	if calls != 2 {
		t.Fatalf("same key from a different owner is a fresh request, handler ran %d times", calls)
	}
}

func TestIdempotencyIgnoresUnprotectedRoutes(t *testing.T) {
	store := newMemoryIdempotencyStore()
	logg := logger.New(logger.Options{ServiceName: "test"})
	calls := 0
	handler := Idempotency(store, time.Minute, logg)(idempotentHandler(&calls))

	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	r.Header.Set("Idempotency-Key", "key-1")
	r = r.WithContext(WithSession(r.Context(), session.Session{Owner: "user-1"}))
	handler.ServeHTTP(httptest.NewRecorder(), r)
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if calls != 2 {
		t.Fatalf("GET requests are not replay-protected, handler ran %d times", calls)
	}
}

func TestIdempotencyNilStorePassthrough(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	calls := 0
	handler := Idempotency(nil, time.Minute, logg)(idempotentHandler(&calls))

	handler.ServeHTTP(httptest.NewRecorder(), cartAddRequest("key-1", `{}`))
	handler.ServeHTTP(httptest.NewRecorder(), cartAddRequest("key-1", `{}`))

	if calls != 2 {
		t.Fatalf("nil store must pass requests through, handler ran %d times", calls)
	}
}

func TestIdempotencyTypedNilClientPassthrough(t *testing.T) {
	// Redis-less deployments wire a nil *redis.Client straight into the
	// middleware; keyed requests must degrade to no replay protection.
	var client *pkgredis.Client
	logg := logger.New(logger.Options{ServiceName: "test"})
	calls := 0
	handler := Idempotency(client, time.Minute, logg)(idempotentHandler(&calls))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, cartAddRequest("key-1", `{"productId":"p1"}`))
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected keyed request to reach the handler, got %d", rec.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("typed-nil client must pass requests through, handler ran %d times", calls)
	}
}
