package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/diarybook/internal/model"
)

type entryBody struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ListEntries は全日記を作成日時の降順で返す。
func (c *Client) ListEntries(ctx context.Context) ([]*model.Entry, error) {
	var entries []*model.Entry
	if err := c.do(ctx, http.MethodGet, "/api/diaries", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetEntry は日記1件を返す。存在しない場合はNotFoundエラー。
func (c *Client) GetEntry(ctx context.Context, id string) (*model.Entry, error) {
	var entry model.Entry
	if err := c.do(ctx, http.MethodGet, "/api/diaries/"+url.PathEscape(id), nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// CreateEntry は日記を作成する。所有者はサーバーがセッションから決める。
func (c *Client) CreateEntry(ctx context.Context, title, content string) (*model.Entry, error) {
	var entry model.Entry
	if err := c.do(ctx, http.MethodPost, "/api/diaries", entryBody{Title: title, Content: content}, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateEntry は日記のタイトルと本文を更新する。
func (c *Client) UpdateEntry(ctx context.Context, id, title, content string) (*model.Entry, error) {
	var entry model.Entry
	if err := c.do(ctx, http.MethodPut, "/api/diaries/"+url.PathEscape(id), entryBody{Title: title, Content: content}, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteEntry は日記を削除する。
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/diaries/"+url.PathEscape(id), nil, nil)
}

// ListProfiles は指定ID群の著者プロフィールを返す。空の場合は問い合わせない。
func (c *Client) ListProfiles(ctx context.Context, ids []string) ([]*model.Profile, error) {
	if len(ids) == 0 {
		return []*model.Profile{}, nil
	}
	q := url.Values{"ids": {strings.Join(ids, ",")}}
	var profiles []*model.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profiles?"+q.Encode(), nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}
