package model

import "time"

// UnknownAuthor は著者を解決できなかった場合の表示名。
const UnknownAuthor = "不明な著者"

// Entry は日記1件を表す。
// OwnerID は作成後に変更されない。
type Entry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	OwnerID   string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntryWithAuthor は日記と著者メールアドレスの組を表す。
type EntryWithAuthor struct {
	Entry
	AuthorEmail string `json:"author_email"`
}
