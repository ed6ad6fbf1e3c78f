package screen

import (
	"context"
	"testing"

	"github.com/hitoshi/diarybook/internal/model"
)

// mockAuthenticator は Authenticator のモック。
type mockAuthenticator struct {
	signUpFn  func(ctx context.Context, email, password string) (string, error)
	signInFn  func(ctx context.Context, email, password string) error
	signOutFn func(ctx context.Context) error
}

func (m *mockAuthenticator) SignUp(ctx context.Context, email, password string) (string, error) {
	return m.signUpFn(ctx, email, password)
}

func (m *mockAuthenticator) SignInWithPassword(ctx context.Context, email, password string) error {
	return m.signInFn(ctx, email, password)
}

func (m *mockAuthenticator) SignOut(ctx context.Context) error {
	return m.signOutFn(ctx)
}

func TestAuthScreen_SignUp(t *testing.T) {
	var gotEmail string
	s := NewAuthScreen(&mockAuthenticator{
		signUpFn: func(ctx context.Context, email, password string) (string, error) {
			gotEmail = email
			return "登録しました", nil
		},
	})

	msg, err := s.SignUp(context.Background(), " a@x.com ", "pw123456")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if msg != "登録しました" || s.Message() != "登録しました" {
		t.Errorf("message = %q, want the authenticator's message", msg)
	}
	if gotEmail != "a@x.com" {
		t.Errorf("email = %q, want trimmed", gotEmail)
	}
}

func TestAuthScreen_Errors(t *testing.T) {
	auth := &mockAuthenticator{
		signUpFn: func(ctx context.Context, email, password string) (string, error) {
			return "", model.NewEmailTakenError()
		},
		signInFn: func(ctx context.Context, email, password string) error {
			return model.NewInvalidCredentialsError()
		},
		signOutFn: func(ctx context.Context) error {
			return model.NewTransportError("down")
		},
	}

	tests := []struct {
		name         string
		run          func(s *AuthScreen) error
		wantCategory string
	}{
		{"重複登録", func(s *AuthScreen) error {
			_, err := s.SignUp(context.Background(), "a@x.com", "pw123456")
			return err
		}, model.CategoryAuth},
		{"パスワード誤り", func(s *AuthScreen) error {
			return s.SignIn(context.Background(), "a@x.com", "wrong")
		}, model.CategoryAuth},
		{"入力なし", func(s *AuthScreen) error {
			return s.SignIn(context.Background(), "", "")
		}, model.CategoryValidation},
		{"ログアウト失敗", func(s *AuthScreen) error {
			return s.SignOut(context.Background())
		}, model.CategoryTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAuthScreen(auth)
			err := tt.run(s)
			if model.CategoryOf(err) != tt.wantCategory {
				t.Errorf("category = %q, want %q", model.CategoryOf(err), tt.wantCategory)
			}
			if s.Err() == nil || s.Err().Category != tt.wantCategory {
				t.Errorf("Err() = %v, want inline error", s.Err())
			}
			if s.Message() != "" {
				t.Errorf("Message() = %q, want empty", s.Message())
			}
		})
	}
}

func TestAuthScreen_SignInClearsPreviousError(t *testing.T) {
	fail := true
	s := NewAuthScreen(&mockAuthenticator{
		signInFn: func(ctx context.Context, email, password string) error {
			if fail {
				return model.NewInvalidCredentialsError()
			}
			return nil
		},
	})

	_ = s.SignIn(context.Background(), "a@x.com", "bad")
	fail = false
	if err := s.SignIn(context.Background(), "a@x.com", "pw123456"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if s.Err() != nil {
		t.Errorf("Err() = %v, want nil after success", s.Err())
	}
}
