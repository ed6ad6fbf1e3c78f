// Package session はクライアント側のログイン状態を保持するセッションコンテキストを提供する。
// 認証ストアの変更通知を唯一購読し、内部の購読者へ再配信する。
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/diarybook/internal/model"
)

// DefaultFetchTimeout は初回セッション取得の上限時間。
const DefaultFetchTimeout = 15 * time.Second

// AuthStore はセッションコンテキストが依存する認証ストア。
// client.Client が満たす。
type AuthStore interface {
	GetSession(ctx context.Context) (*model.Identity, error)
	OnAuthStateChange(fn func(*model.Identity)) (unsubscribe func())
}

// Option はContextの生成オプション。
type Option func(*Context)

// WithFetchTimeout は初回セッション取得のタイムアウトを指定する。
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Context) {
		c.fetchTimeout = d
	}
}

type subscriber struct {
	id int
	fn func(*model.Identity)
}

// Context はログイン主体と読み込み状態を保持する。
// CurrentIdentity はブロックしない。
type Context struct {
	store        AuthStore
	logger       *slog.Logger
	fetchTimeout time.Duration

	mu          sync.Mutex
	initialized bool
	closed      bool
	loading     bool
	notified    bool
	identity    *model.Identity
	subs        []subscriber
	nextSubID   int
	unsubscribe func()
	cancelFetch context.CancelFunc

	ready     chan struct{}
	readyOnce sync.Once
}

// New はContextを生成する。Initializeを呼ぶまでは読み込み中となる。
func New(store AuthStore, logger *slog.Logger, opts ...Option) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Context{
		store:        store,
		logger:       logger,
		fetchTimeout: DefaultFetchTimeout,
		loading:      true,
		ready:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize は認証ストアの変更通知を購読し、現在のセッションを非同期に取得する。
// 2回目以降の呼び出しは何もしない。
func (c *Context) Initialize(ctx context.Context) {
	c.mu.Lock()
	if c.initialized || c.closed {
		c.mu.Unlock()
		return
	}
	c.initialized = true
	c.mu.Unlock()

	unsubscribe := c.store.OnAuthStateChange(c.handleChange)

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		unsubscribe()
		cancel()
		return
	}
	c.unsubscribe = unsubscribe
	c.cancelFetch = cancel
	c.mu.Unlock()

	go c.fetch(fetchCtx, cancel)
}

// fetch は初回のセッション取得を行う。
// 取得前に変更通知が届いていた場合、その結果を優先し取得結果は捨てる。
func (c *Context) fetch(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	identity, err := c.store.GetSession(ctx)
	if err != nil {
		// 取得失敗は未ログインとして扱う
		c.logger.Warn("failed to fetch session", slog.String("error", err.Error()))
		identity = nil
	}

	c.mu.Lock()
	if c.notified || c.closed {
		c.mu.Unlock()
		return
	}
	subs := c.settle(identity)
	c.mu.Unlock()

	c.markReady()
	notify(subs, identity)
}

// handleChange は認証ストアからの変更通知を受け取る。
func (c *Context) handleChange(identity *model.Identity) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.notified = true
	subs := c.settle(identity)
	c.mu.Unlock()

	c.markReady()
	notify(subs, identity)
}

// settle はログイン主体を置き換え、通知先の一覧を返す。c.muを保持して呼ぶ。
func (c *Context) settle(identity *model.Identity) []subscriber {
	c.identity = identity
	c.loading = false
	subs := make([]subscriber, len(c.subs))
	copy(subs, c.subs)
	return subs
}

func (c *Context) markReady() {
	c.readyOnce.Do(func() { close(c.ready) })
}

func notify(subs []subscriber, identity *model.Identity) {
	for _, s := range subs {
		s.fn(identity)
	}
}

// CurrentIdentity は現在のログイン主体を返す。未ログインまたは読み込み中はnil。
func (c *Context) CurrentIdentity() *model.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// Loading は初回のセッション取得が完了していない間trueを返す。
func (c *Context) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Ready は読み込みが完了した時点でcloseされるチャネルを返す。
func (c *Context) Ready() <-chan struct{} {
	return c.ready
}

// Subscribe はログイン主体の置き換えを購読する。
// 戻り値の関数で購読を解除する。
func (c *Context) Subscribe(fn func(*model.Identity)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// Close は認証ストアの購読を解除する。複数回呼んでも安全。
func (c *Context) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.loading = false
	unsubscribe := c.unsubscribe
	cancel := c.cancelFetch
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	c.markReady()
}
