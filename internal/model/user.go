// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile は日記の著者表示に使う公開情報を表す。
// ユーザー1人につき1件で、アプリケーションからは読み取り専用。
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Identity はログイン中の主体を表す。
// 未ログイン状態は nil で表現する。
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
