// Package diary は日記のドメインロジックを提供する。
// 更新と削除は所有者で絞り込み、影響行数で権限エラーと未検出を区別する。
package diary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/diarybook/internal/metrics"
	"github.com/hitoshi/diarybook/internal/model"
	"github.com/hitoshi/diarybook/internal/repository"
	"github.com/hitoshi/diarybook/internal/validation"
)

// Input は日記の作成・更新の入力値。
type Input struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// Service は日記のサービス層。
type Service struct {
	repo    repository.DiaryRepository
	metrics metrics.MetricsCollector
	now     func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.DiaryRepository, mc metrics.MetricsCollector) *Service {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Service{
		repo:    repo,
		metrics: mc,
		now:     time.Now,
	}
}

// List は全日記を作成日時の降順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Entry, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("日記一覧の取得に失敗しました: %w", err)
	}
	return entries, nil
}

// Get は指定IDの日記を返す。存在しない場合はNotFoundエラー。
func (s *Service) Get(ctx context.Context, diaryID string) (*model.Entry, error) {
	if !validID(diaryID) {
		return nil, model.NewDiaryNotFoundError(diaryID)
	}

	entry, err := s.repo.FindByID(ctx, diaryID)
	if err != nil {
		return nil, fmt.Errorf("日記の取得に失敗しました: %w", err)
	}
	if entry == nil {
		return nil, model.NewDiaryNotFoundError(diaryID)
	}
	return entry, nil
}

// Create は日記を作成する。所有者は常にuserIDとなる。
func (s *Service) Create(ctx context.Context, userID string, in Input) (*model.Entry, error) {
	in, err := s.clean(in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entry := &model.Entry{
		ID:        uuid.New().String(),
		Title:     in.Title,
		Content:   in.Content,
		OwnerID:   userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("日記の作成に失敗しました: %w", err)
	}

	s.metrics.RecordDiaryMutation("create")
	slog.Info("diary created",
		slog.String("diary_id", entry.ID),
		slog.String("user_id", userID),
	)
	return entry, nil
}

// Update は所有者本人の日記のタイトルと本文を更新する。
// 一致する行がない場合、日記が存在すれば権限エラー、存在しなければNotFoundエラーを返す。
func (s *Service) Update(ctx context.Context, userID, diaryID string, in Input) (*model.Entry, error) {
	if !validID(diaryID) {
		return nil, model.NewDiaryNotFoundError(diaryID)
	}
	in, err := s.clean(in)
	if err != nil {
		return nil, err
	}

	n, err := s.repo.UpdateByOwner(ctx, diaryID, userID, in.Title, in.Content, s.now())
	if err != nil {
		return nil, fmt.Errorf("日記の更新に失敗しました: %w", err)
	}
	if n == 0 {
		return nil, s.noRowsError(ctx, "update", userID, diaryID)
	}

	s.metrics.RecordDiaryMutation("update")
	slog.Info("diary updated",
		slog.String("diary_id", diaryID),
		slog.String("user_id", userID),
	)
	return s.Get(ctx, diaryID)
}

// Delete は所有者本人の日記を削除する。
// 存在しないIDの削除はNotFoundエラーとなり、何度呼んでも同じ結果になる。
func (s *Service) Delete(ctx context.Context, userID, diaryID string) error {
	if !validID(diaryID) {
		return model.NewDiaryNotFoundError(diaryID)
	}

	n, err := s.repo.DeleteByOwner(ctx, diaryID, userID)
	if err != nil {
		return fmt.Errorf("日記の削除に失敗しました: %w", err)
	}
	if n == 0 {
		return s.noRowsError(ctx, "delete", userID, diaryID)
	}

	s.metrics.RecordDiaryMutation("delete")
	slog.Info("diary deleted",
		slog.String("diary_id", diaryID),
		slog.String("user_id", userID),
	)
	return nil
}

// noRowsError は二重条件に一致する行がなかった理由を判定する。
func (s *Service) noRowsError(ctx context.Context, op, userID, diaryID string) error {
	exists, err := s.repo.Exists(ctx, diaryID)
	if err != nil {
		return fmt.Errorf("日記の存在確認に失敗しました: %w", err)
	}
	if !exists {
		return model.NewDiaryNotFoundError(diaryID)
	}

	s.metrics.RecordPermissionDenied(op)
	slog.Warn("diary mutation by non-owner rejected",
		slog.String("op", op),
		slog.String("diary_id", diaryID),
		slog.String("user_id", userID),
	)
	return model.NewPermissionDeniedError()
}

// clean は前後の空白を取り除いた上で必須チェックを行う。
// 本文はプレーンテキストとして入力どおりに保存し、書き換えない。
func (s *Service) clean(in Input) (Input, error) {
	out := Input{
		Title:   strings.TrimSpace(in.Title),
		Content: strings.TrimSpace(in.Content),
	}
	if err := validation.Struct(out); err != nil {
		return Input{}, err
	}
	return out, nil
}

// validID はIDがUUID形式かを判定する。UUID列への不正値による問い合わせエラーを避ける。
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
