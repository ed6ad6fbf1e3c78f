// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/diarybook/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// CreateWithProfile はユーザーとプロフィールを同一トランザクションで作成する。
	// メールアドレスが重複している場合は ErrDuplicateEmail を返す。
	CreateWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するprofiles、sessions、diariesはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// ProfileRepository は著者プロフィールの読み取りインターフェース。
type ProfileRepository interface {
	// FindByIDs は指定ID群のプロフィールを取得する。存在しないIDは結果に含まれない。
	FindByIDs(ctx context.Context, ids []string) ([]*model.Profile, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired は指定時刻までに期限切れとなったセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// DiaryRepository は日記データの永続化インターフェース。
// 更新・削除は id と user_id の両方で絞り込み、影響行数を返す。
type DiaryRepository interface {
	// List は全日記を created_at 降順で返す。
	List(ctx context.Context) ([]*model.Entry, error)

	// FindByID は指定IDの日記を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Entry, error)

	// Create は日記を作成する。
	Create(ctx context.Context, entry *model.Entry) error

	// UpdateByOwner は id と所有者が一致する日記のタイトルと本文を更新し、影響行数を返す。
	UpdateByOwner(ctx context.Context, id, ownerID, title, content string, updatedAt time.Time) (int64, error)

	// DeleteByOwner は id と所有者が一致する日記を削除し、影響行数を返す。
	DeleteByOwner(ctx context.Context, id, ownerID string) (int64, error)

	// Exists は指定IDの日記が存在するかを返す。
	Exists(ctx context.Context, id string) (bool, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
