// Package screen は各画面の読み込み状態と操作を提供する。
// 画面は loading から ready / not_found / error のいずれかへ1回だけ遷移し、再試行は行わない。
package screen

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/diarybook/internal/model"
)

// DefaultTimeout は1回の読み込み・操作の上限時間。
const DefaultTimeout = 15 * time.Second

// State は画面の読み込み状態。
type State string

// 画面状態
const (
	StateLoading      State = "loading"
	StateReady        State = "ready"
	StateNotFound     State = "not_found"
	StateError        State = "error"
	StateRedirectAuth State = "redirect_auth"
)

// Repository は日記と著者情報の取得・変更を行うデータアクセス境界。
// client.Client が満たす。
type Repository interface {
	ListEntries(ctx context.Context) ([]*model.Entry, error)
	GetEntry(ctx context.Context, id string) (*model.Entry, error)
	CreateEntry(ctx context.Context, title, content string) (*model.Entry, error)
	UpdateEntry(ctx context.Context, id, title, content string) (*model.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
	ListProfiles(ctx context.Context, ids []string) ([]*model.Profile, error)
}

// IdentitySource は現在のログイン主体を返す。session.Context が満たす。
type IdentitySource interface {
	CurrentIdentity() *model.Identity
}

// Status は画面共通の状態とエラー。
type Status struct {
	State State
	Err   *model.APIError
}

// Option は画面の生成オプション。
type Option func(*options)

type options struct {
	timeout time.Duration
	logger  *slog.Logger
}

// WithTimeout は読み込み・操作のタイムアウトを指定する。
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger はロガーを指定する。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{timeout: DefaultTimeout, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// loader は実行中の読み込みの世代を管理する。
// 新しい読み込みを開始すると前の読み込みのcontextをキャンセルし、古い世代の結果は破棄される。
type loader struct {
	timeout time.Duration

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func (l *loader) begin(parent context.Context) (context.Context, context.CancelFunc, uint64) {
	ctx, cancel := context.WithTimeout(parent, l.timeout)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	l.cancel = cancel
	return ctx, cancel, l.gen
}

// current は世代が最新かどうかを返す。
func (l *loader) current(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen == gen
}

// stop は実行中の読み込みをキャンセルし、以降に届く結果をすべて破棄させる。
func (l *loader) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
}

// normalize はエラーを分類済みのAPIErrorへ変換する。
// タイムアウトはメッセージ付きの通信エラーとして扱う。
func normalize(ctx context.Context, err error) *model.APIError {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return model.NewTimeoutError()
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return model.NewTransportError(err.Error())
}

// statusFor は読み込みエラーを画面状態へ変換する。
func statusFor(apiErr *model.APIError) Status {
	if apiErr.Category == model.CategoryNotFound {
		return Status{State: StateNotFound, Err: apiErr}
	}
	return Status{State: StateError, Err: apiErr}
}

// validateDraft はタイトルと本文の必須チェックを行う。
func validateDraft(title, content string) *model.APIError {
	switch {
	case strings.TrimSpace(title) == "":
		return model.NewValidationError("タイトルは必須です")
	case strings.TrimSpace(content) == "":
		return model.NewValidationError("本文は必須です")
	}
	return nil
}

// authorEmails は著者IDからメールアドレスへの対応を返す。
// 取得に失敗した場合は空の対応を返し、すべての著者を不明として表示させる。
func authorEmails(ctx context.Context, repo Repository, logger *slog.Logger, ids []string) map[string]string {
	emails := make(map[string]string, len(ids))
	profiles, err := repo.ListProfiles(ctx, ids)
	if err != nil {
		logger.Warn("failed to fetch profiles",
			slog.Int("author_count", len(ids)),
			slog.String("error", err.Error()),
		)
		return emails
	}
	for _, p := range profiles {
		if p != nil {
			emails[p.ID] = p.Email
		}
	}
	return emails
}

func withAuthor(entry *model.Entry, emails map[string]string) model.EntryWithAuthor {
	email, ok := emails[entry.OwnerID]
	if !ok || email == "" {
		email = model.UnknownAuthor
	}
	return model.EntryWithAuthor{Entry: *entry, AuthorEmail: email}
}
