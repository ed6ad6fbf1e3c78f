package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hitoshi/diarybook/internal/model"
)

func setupSessionMock(t *testing.T) (*PostgresSessionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresSessionRepo(db), mock
}

func TestPostgresSessionRepo_Create(t *testing.T) {
	repo, mock := setupSessionMock(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &model.Session{ID: "sid", UserID: "user-1", ExpiresAt: now.Add(time.Hour), CreatedAt: now}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessions (id, user_id, expires_at, created_at)`)).
		WithArgs("sid", "user-1", now.Add(time.Hour), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// 期限切れ（行なし）のセッションはnil, nilとなること
func TestPostgresSessionRepo_FindByID_Expired(t *testing.T) {
	repo, mock := setupSessionMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1 AND expires_at > now()`)).
		WithArgs("old").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "expires_at", "created_at"}))

	s, err := repo.FindByID(context.Background(), "old")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != nil {
		t.Errorf("expected nil session, got %+v", s)
	}
}

// DeleteExpiredが削除件数を返すこと
func TestPostgresSessionRepo_DeleteExpired(t *testing.T) {
	repo, mock := setupSessionMock(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE expires_at <= $1`)).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted = %d, want 3", n)
	}
}
