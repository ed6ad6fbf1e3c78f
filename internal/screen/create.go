package screen

import (
	"context"
	"sync"

	"github.com/hitoshi/diarybook/internal/model"
)

// Draft は作成・編集フォームの入力内容。
type Draft struct {
	Title   string
	Content string
}

// CreateScreen は日記作成画面。
type CreateScreen struct {
	identity IdentitySource
	repo     Repository
	mutation loader

	mu    sync.Mutex
	draft Draft
	err   *model.APIError
}

// NewCreateScreen はCreateScreenを生成する。
func NewCreateScreen(identity IdentitySource, repo Repository, opts ...Option) *CreateScreen {
	o := buildOptions(opts)
	return &CreateScreen{
		identity: identity,
		repo:     repo,
		mutation: loader{timeout: o.timeout},
	}
}

// Open は画面を開いた時点の状態を返す。未ログインの場合は認証画面へ誘導する。
func (s *CreateScreen) Open() Status {
	if s.identity.CurrentIdentity() == nil {
		return Status{State: StateRedirectAuth}
	}
	return Status{State: StateReady}
}

// Submit は日記を作成する。
// 所有者はサーバーがセッションから決定するため送信しない。
// 失敗した場合は入力内容を保持する。
func (s *CreateScreen) Submit(ctx context.Context, title, content string) (*model.Entry, error) {
	s.mu.Lock()
	s.draft = Draft{Title: title, Content: content}
	s.err = nil
	s.mu.Unlock()

	if s.identity.CurrentIdentity() == nil {
		return nil, s.fail(model.NewUnauthorizedError())
	}
	if apiErr := validateDraft(title, content); apiErr != nil {
		return nil, s.fail(apiErr)
	}

	ctx, cancel, _ := s.mutation.begin(ctx)
	defer cancel()
	entry, err := s.repo.CreateEntry(ctx, title, content)
	if err != nil {
		return nil, s.fail(normalize(ctx, err))
	}

	s.mu.Lock()
	s.draft = Draft{}
	s.mu.Unlock()
	return entry, nil
}

// Draft は保持している入力内容を返す。
func (s *CreateScreen) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Err は直前の送信エラーを返す。
func (s *CreateScreen) Err() *model.APIError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *CreateScreen) fail(apiErr *model.APIError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = apiErr
	return apiErr
}
