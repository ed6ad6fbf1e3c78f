package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/diarybook/internal/model"
)

// PostgresDiaryRepo はPostgreSQLを使用した日記リポジトリ。
type PostgresDiaryRepo struct {
	db *sql.DB
}

// NewPostgresDiaryRepo はPostgresDiaryRepoを生成する。
func NewPostgresDiaryRepo(db *sql.DB) *PostgresDiaryRepo {
	return &PostgresDiaryRepo{db: db}
}

// List は全日記を created_at 降順で返す。作成日時が同じ場合はID降順。
func (r *PostgresDiaryRepo) List(ctx context.Context) ([]*model.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, content, user_id, created_at, updated_at
		 FROM diaries
		 ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list diaries: %w", err)
	}
	defer rows.Close()

	entries := []*model.Entry{}
	for rows.Next() {
		e := &model.Entry{}
		if err := rows.Scan(&e.ID, &e.Title, &e.Content, &e.OwnerID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan diary: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate diaries: %w", err)
	}

	return entries, nil
}

// FindByID は指定IDの日記を取得する。見つからない場合はnilを返す。
func (r *PostgresDiaryRepo) FindByID(ctx context.Context, id string) (*model.Entry, error) {
	e := &model.Entry{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, content, user_id, created_at, updated_at
		 FROM diaries
		 WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Title, &e.Content, &e.OwnerID, &e.CreatedAt, &e.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find diary: %w", err)
	}

	return e, nil
}

// Create は日記を作成する。
func (r *PostgresDiaryRepo) Create(ctx context.Context, entry *model.Entry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO diaries (id, title, content, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.Title, entry.Content, entry.OwnerID, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create diary: %w", err)
	}
	return nil
}

// UpdateByOwner は id と user_id が一致する日記を更新し、影響行数を返す。
// 所有者が異なる場合はエラーにならず0件を返す。
func (r *PostgresDiaryRepo) UpdateByOwner(ctx context.Context, id, ownerID, title, content string, updatedAt time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE diaries SET title = $1, content = $2, updated_at = $3
		 WHERE id = $4 AND user_id = $5`,
		title, content, updatedAt, id, ownerID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update diary: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// DeleteByOwner は id と user_id が一致する日記を削除し、影響行数を返す。
func (r *PostgresDiaryRepo) DeleteByOwner(ctx context.Context, id, ownerID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM diaries WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete diary: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// Exists は指定IDの日記が存在するかを返す。
func (r *PostgresDiaryRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM diaries WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check diary existence: %w", err)
	}
	return exists, nil
}

// compile-time interface check
var _ DiaryRepository = (*PostgresDiaryRepo)(nil)
