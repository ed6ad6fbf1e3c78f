package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/diarybook/internal/model"
)

// fakeStore は AuthStore のテスト用実装。
// GetSession は release が閉じられるまで、またはctx終了までブロックする。
type fakeStore struct {
	mu           sync.Mutex
	identity     *model.Identity
	err          error
	release      chan struct{}
	subscribes   int
	unsubscribes int
	listeners    []func(*model.Identity)
}

func newFakeStore(identity *model.Identity, err error) *fakeStore {
	s := &fakeStore{identity: identity, err: err, release: make(chan struct{})}
	close(s.release)
	return s
}

func newBlockingStore(identity *model.Identity) *fakeStore {
	return &fakeStore{identity: identity, release: make(chan struct{})}
}

func (s *fakeStore) GetSession(ctx context.Context) (*model.Identity, error) {
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.err
}

func (s *fakeStore) OnAuthStateChange(fn func(*model.Identity)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribes++
	s.listeners = append(s.listeners, fn)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.unsubscribes++
		s.listeners = nil
	}
}

func (s *fakeStore) emit(identity *model.Identity) {
	s.mu.Lock()
	listeners := append([]func(*model.Identity){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(identity)
	}
}

func (s *fakeStore) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribes, s.unsubscribes
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

func waitReady(t *testing.T, c *Context) {
	t.Helper()
	select {
	case <-c.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("context did not become ready")
	}
}

var alice = &model.Identity{ID: "user-a", Email: "a@x.com"}

func TestContext_LoadingUntilFetchCompletes(t *testing.T) {
	store := newBlockingStore(alice)
	c := New(store, quietLogger())
	defer c.Close()

	if !c.Loading() || c.CurrentIdentity() != nil {
		t.Fatal("new context should be loading with no identity")
	}

	c.Initialize(context.Background())
	if !c.Loading() || c.CurrentIdentity() != nil {
		t.Fatal("context should be loading while fetch is pending")
	}

	close(store.release)
	waitReady(t, c)

	if c.Loading() {
		t.Error("loading should be false after fetch")
	}
	if got := c.CurrentIdentity(); got != alice {
		t.Errorf("identity = %+v, want alice", got)
	}
}

func TestContext_InitializeSubscribesOnce(t *testing.T) {
	store := newFakeStore(nil, nil)
	c := New(store, quietLogger())

	c.Initialize(context.Background())
	c.Initialize(context.Background())
	waitReady(t, c)

	c.Close()
	c.Close()

	subs, unsubs := store.counts()
	if subs != 1 || unsubs != 1 {
		t.Errorf("subscribes = %d, unsubscribes = %d, want 1 and 1", subs, unsubs)
	}
}

func TestContext_FetchErrorFailsOpen(t *testing.T) {
	store := newFakeStore(alice, errors.New("network down"))
	c := New(store, quietLogger())
	defer c.Close()

	c.Initialize(context.Background())
	waitReady(t, c)

	if c.Loading() || c.CurrentIdentity() != nil {
		t.Errorf("loading = %v, identity = %+v; want false, nil", c.Loading(), c.CurrentIdentity())
	}
}

func TestContext_FetchTimeoutFailsOpen(t *testing.T) {
	store := newBlockingStore(alice)
	c := New(store, quietLogger(), WithFetchTimeout(20*time.Millisecond))
	defer c.Close()

	c.Initialize(context.Background())
	waitReady(t, c)

	if c.CurrentIdentity() != nil {
		t.Errorf("identity = %+v, want nil after timeout", c.CurrentIdentity())
	}
}

func TestContext_NotificationBeatsLateFetch(t *testing.T) {
	store := newBlockingStore(alice)
	c := New(store, quietLogger())
	defer c.Close()

	c.Initialize(context.Background())
	store.emit(nil)
	waitReady(t, c)

	// 遅れて届いた取得結果は通知を上書きしない
	close(store.release)
	time.Sleep(20 * time.Millisecond)

	if got := c.CurrentIdentity(); got != nil {
		t.Errorf("identity = %+v, want nil (notification wins)", got)
	}
}

func TestContext_NilNotificationClearsIdentity(t *testing.T) {
	store := newFakeStore(alice, nil)
	c := New(store, quietLogger())
	defer c.Close()

	c.Initialize(context.Background())
	waitReady(t, c)
	if c.CurrentIdentity() == nil {
		t.Fatal("expected identity after fetch")
	}

	store.emit(nil)
	if got := c.CurrentIdentity(); got != nil {
		t.Errorf("identity = %+v, want nil on next read", got)
	}
}

func TestContext_SubscribersReceiveEveryReplacement(t *testing.T) {
	store := newBlockingStore(nil)
	c := New(store, quietLogger())
	defer c.Close()

	var mu sync.Mutex
	var first, second []*model.Identity
	c.Subscribe(func(id *model.Identity) {
		mu.Lock()
		first = append(first, id)
		mu.Unlock()
	})
	unsubscribe := c.Subscribe(func(id *model.Identity) {
		mu.Lock()
		second = append(second, id)
		mu.Unlock()
	})

	c.Initialize(context.Background())
	store.emit(alice)
	unsubscribe()
	store.emit(nil)

	mu.Lock()
	defer mu.Unlock()
	if len(first) != 2 || first[0] != alice || first[1] != nil {
		t.Errorf("first subscriber got %+v", first)
	}
	if len(second) != 1 || second[0] != alice {
		t.Errorf("second subscriber got %+v", second)
	}
}

func TestContext_CloseStopsNotifications(t *testing.T) {
	store := newFakeStore(alice, nil)
	c := New(store, quietLogger())
	c.Initialize(context.Background())
	waitReady(t, c)

	calls := 0
	c.Subscribe(func(*model.Identity) { calls++ })
	c.Close()
	c.handleChange(nil)

	if calls != 0 {
		t.Errorf("calls after close = %d, want 0", calls)
	}
}
