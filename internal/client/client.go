// Package client はdiarybook APIのHTTPクライアントを提供する。
// 認証ストアと日記リポジトリの境界を兼ね、Cookieでセッションを保持する。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"

	"github.com/hitoshi/diarybook/internal/middleware"
	"github.com/hitoshi/diarybook/internal/model"
)

// maxErrorBody はエラーレスポンスとして読み取る最大バイト数。
const maxErrorBody = 64 << 10

// Option はClientの生成オプション。
type Option func(*Client)

// WithHTTPClient は内部で使用するhttp.Clientを差し替える。
// Jarが未設定の場合はCookieJarを補う。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger はログ出力先を指定する。
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

type subscriber struct {
	id int
	fn func(*model.Identity)
}

// Client はAPIサーバーとの通信を担う。
// ログイン状態の変化を購読者に通知する。
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *slog.Logger

	mu            sync.Mutex
	identityKnown bool
	subs          []subscriber
	nextSubID     int
}

// New はbaseURLのAPIサーバーに接続するClientを生成する。
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url scheme: %q", u.Scheme)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// do はJSONリクエストを送信し、成功時はレスポンスをoutにデコードする。
// 失敗時は常に *model.APIError を返す。
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if method != http.MethodGet {
		if err := c.ensureCSRFToken(ctx); err != nil {
			return err
		}
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return model.NewTransportError(fmt.Sprintf("リクエストの作成に失敗しました: %v", err))
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return model.NewTransportError(fmt.Sprintf("リクエストの作成に失敗しました: %v", err))
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.cookie(middleware.CSRFCookieName); token != "" {
		req.Header.Set(middleware.CSRFHeaderName, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := decodeError(resp)
		if resp.StatusCode == http.StatusUnauthorized && strings.HasPrefix(path, "/api/") {
			c.sessionLost()
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return transportError(ctx, fmt.Errorf("レスポンスの解析に失敗しました: %w", err))
	}
	return nil
}

// ensureCSRFToken はCSRFトークンCookieがなければ取得する。
func (c *Client) ensureCSRFToken(ctx context.Context) error {
	if c.cookie(middleware.CSRFCookieName) != "" {
		return nil
	}
	var token struct {
		Token string `json:"token"`
	}
	return c.do(ctx, http.MethodGet, "/auth/csrf-token", nil, &token)
}

// cookie はCookieJarから指定名の値を取得する。
func (c *Client) cookie(name string) string {
	for _, ck := range c.http.Jar.Cookies(c.baseURL) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// decodeError はエラーレスポンスを *model.APIError に変換する。
// 統一フォーマットでない場合は通信エラーとして扱う。
func decodeError(resp *http.Response) *model.APIError {
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err != nil || body.Code == "" {
		return model.NewTransportError(fmt.Sprintf("予期しない応答です (status %d)", resp.StatusCode))
	}
	return body.APIError()
}

// transportError はネットワーク層のエラーを分類する。
func transportError(ctx context.Context, err error) *model.APIError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return model.NewTimeoutError()
	}
	return model.NewTransportError(err.Error())
}
