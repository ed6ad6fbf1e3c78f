package screen

import (
	"context"
	"strings"
	"sync"

	"github.com/hitoshi/diarybook/internal/model"
)

// Authenticator は認証操作の境界。client.Client が満たす。
type Authenticator interface {
	SignUp(ctx context.Context, email, password string) (string, error)
	SignInWithPassword(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
}

// AuthScreen はログイン・新規登録画面。
// ログイン主体の反映は認証ストアの変更通知を経由して行われる。
type AuthScreen struct {
	auth     Authenticator
	mutation loader

	mu      sync.Mutex
	message string
	err     *model.APIError
}

// NewAuthScreen はAuthScreenを生成する。
func NewAuthScreen(auth Authenticator, opts ...Option) *AuthScreen {
	o := buildOptions(opts)
	return &AuthScreen{auth: auth, mutation: loader{timeout: o.timeout}}
}

// SignUp はアカウントを作成し、サーバーからの完了メッセージを返す。ログインはしない。
func (s *AuthScreen) SignUp(ctx context.Context, email, password string) (string, error) {
	var msg string
	err := s.run(ctx, email, password, func(ctx context.Context, email, password string) error {
		var err error
		msg, err = s.auth.SignUp(ctx, email, password)
		return err
	})
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.message = msg
	s.mu.Unlock()
	return msg, nil
}

// SignIn はメールアドレスとパスワードでログインする。
func (s *AuthScreen) SignIn(ctx context.Context, email, password string) error {
	return s.run(ctx, email, password, s.auth.SignInWithPassword)
}

// SignOut はログアウトする。
func (s *AuthScreen) SignOut(ctx context.Context) error {
	s.reset()
	ctx, cancel, _ := s.mutation.begin(ctx)
	defer cancel()
	if err := s.auth.SignOut(ctx); err != nil {
		return s.fail(normalize(ctx, err))
	}
	return nil
}

func (s *AuthScreen) run(ctx context.Context, email, password string, op func(context.Context, string, string) error) error {
	s.reset()
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return s.fail(model.NewValidationError("メールアドレスとパスワードは必須です"))
	}

	ctx, cancel, _ := s.mutation.begin(ctx)
	defer cancel()
	if err := op(ctx, email, password); err != nil {
		return s.fail(normalize(ctx, err))
	}
	return nil
}

// Message は直前の操作の完了メッセージを返す。
func (s *AuthScreen) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Err は直前の操作のエラーを返す。画面内に表示する。
func (s *AuthScreen) Err() *model.APIError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *AuthScreen) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = ""
	s.err = nil
}

func (s *AuthScreen) fail(apiErr *model.APIError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = apiErr
	return apiErr
}
