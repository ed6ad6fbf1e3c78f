package handler

import (
	"context"

	"github.com/hitoshi/diarybook/internal/auth"
	"github.com/hitoshi/diarybook/internal/diary"
	"github.com/hitoshi/diarybook/internal/model"
	"github.com/hitoshi/diarybook/internal/user"
)

// DiaryServiceAdapter は diary.Service を DiaryServiceInterface に適合させるアダプタ。
type DiaryServiceAdapter struct {
	svc *diary.Service
}

// NewDiaryServiceAdapter はDiaryServiceAdapterを生成する。
func NewDiaryServiceAdapter(svc *diary.Service) *DiaryServiceAdapter {
	return &DiaryServiceAdapter{svc: svc}
}

// List は全日記を返す。
func (a *DiaryServiceAdapter) List(ctx context.Context) ([]*model.Entry, error) {
	return a.svc.List(ctx)
}

// Get は日記1件を返す。
func (a *DiaryServiceAdapter) Get(ctx context.Context, diaryID string) (*model.Entry, error) {
	return a.svc.Get(ctx, diaryID)
}

// Create はリクエストの値をdiary.Inputに詰め替えて日記を作成する。
func (a *DiaryServiceAdapter) Create(ctx context.Context, userID, title, content string) (*model.Entry, error) {
	return a.svc.Create(ctx, userID, diary.Input{Title: title, Content: content})
}

// Update はリクエストの値をdiary.Inputに詰め替えて日記を更新する。
func (a *DiaryServiceAdapter) Update(ctx context.Context, userID, diaryID, title, content string) (*model.Entry, error) {
	return a.svc.Update(ctx, userID, diaryID, diary.Input{Title: title, Content: content})
}

// Delete は日記を削除する。
func (a *DiaryServiceAdapter) Delete(ctx context.Context, userID, diaryID string) error {
	return a.svc.Delete(ctx, userID, diaryID)
}

// --- compile-time interface checks ---

var _ DiaryServiceInterface = (*DiaryServiceAdapter)(nil)
var _ AuthServiceInterface = (*auth.Service)(nil)
var _ UserServiceInterface = (*user.Service)(nil)
