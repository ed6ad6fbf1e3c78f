package client

import (
	"context"
	"net/http"

	"github.com/hitoshi/diarybook/internal/model"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionBody struct {
	Session *model.Identity `json:"session"`
}

type signUpBody struct {
	Message string `json:"message"`
}

// SignUp はアカウントを作成し、サーバーが返す案内文を返す。ログイン状態は変わらない。
func (c *Client) SignUp(ctx context.Context, email, password string) (string, error) {
	var body signUpBody
	if err := c.do(ctx, http.MethodPost, "/auth/signup", credentials{Email: email, Password: password}, &body); err != nil {
		return "", err
	}
	return body.Message, nil
}

// SignInWithPassword はログインし、成功時にログイン主体を購読者へ通知する。
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) error {
	var body sessionBody
	if err := c.do(ctx, http.MethodPost, "/auth/login", credentials{Email: email, Password: password}, &body); err != nil {
		return err
	}
	if body.Session == nil {
		return model.NewTransportError("ログイン応答にセッションが含まれていません")
	}
	c.publish(body.Session)
	return nil
}

// SignOut はログアウトし、nilを購読者へ通知する。
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return err
	}
	c.publish(nil)
	return nil
}

// GetSession は現在のセッションのログイン主体を返す。未ログインはnil。
// 購読者への通知は行わない。
func (c *Client) GetSession(ctx context.Context) (*model.Identity, error) {
	var body sessionBody
	if err := c.do(ctx, http.MethodGet, "/auth/session", nil, &body); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.identityKnown = body.Session != nil
	c.mu.Unlock()
	return body.Session, nil
}

// Withdraw は退会し、nilを購読者へ通知する。
func (c *Client) Withdraw(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/api/me", nil, nil); err != nil {
		return err
	}
	c.publish(nil)
	return nil
}

// OnAuthStateChange はログイン状態の変化を購読する。
// 戻り値の関数で購読を解除する。複数回呼んでも安全。
func (c *Client) OnAuthStateChange(fn func(*model.Identity)) (unsubscribe func()) {
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

// sessionLost はログイン中にAPIが401を返した場合に呼ばれ、nilを通知する。
func (c *Client) sessionLost() {
	c.mu.Lock()
	known := c.identityKnown
	c.mu.Unlock()
	if !known {
		return
	}
	c.logger.Info("session expired")
	c.publish(nil)
}

// publish はログイン主体の変化を登録順に通知する。コールバックはロック外で呼ぶ。
func (c *Client) publish(identity *model.Identity) {
	c.mu.Lock()
	c.identityKnown = identity != nil
	subs := make([]subscriber, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(identity)
	}
}
