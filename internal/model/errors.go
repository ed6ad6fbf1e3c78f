// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, not_found, permission, conflict, transport, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// エラーカテゴリ
const (
	CategoryAuth       = "auth"
	CategoryValidation = "validation"
	CategoryNotFound   = "not_found"
	CategoryPermission = "permission"
	CategoryConflict   = "conflict"
	CategoryTransport  = "transport"
	CategorySystem     = "system"
)

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeDiaryNotFound      = "DIARY_NOT_FOUND"
	ErrCodePermissionDenied   = "PERMISSION_DENIED"
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeTransport          = "TRANSPORT_ERROR"
	ErrCodeTimeout            = "TIMEOUT"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewInvalidCredentialsError はメールアドレスまたはパスワード不一致のエラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: CategoryAuth,
		Action:   "入力内容を確認して、再度ログインしてください。",
	}
}

// NewEmailTakenError は登録済みメールアドレスでのサインアップエラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: CategoryAuth,
		Action:   "ログインするか、別のメールアドレスで登録してください。",
	}
}

// NewUnauthorizedError は未ログイン状態のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "ログインが必要です。",
		Category: CategoryAuth,
		Action:   "ログインしてから再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: CategoryAuth,
		Action:   "ログインし直してください。",
	}
}

// NewDiaryNotFoundError は日記が見つからない場合のエラーを生成する。
func NewDiaryNotFoundError(diaryID string) *APIError {
	return &APIError{
		Code:     ErrCodeDiaryNotFound,
		Message:  fmt.Sprintf("指定された日記が見つかりません: %s", diaryID),
		Category: CategoryNotFound,
		Action:   "日記一覧から対象を選び直してください。",
	}
}

// NewPermissionDeniedError は所有者以外による変更操作のエラーを生成する。
func NewPermissionDeniedError() *APIError {
	return &APIError{
		Code:     ErrCodePermissionDenied,
		Message:  "この日記を変更する権限がありません。",
		Category: CategoryPermission,
		Action:   "自分が作成した日記のみ編集・削除できます。",
	}
}

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力内容が不正です: %s", reason),
		Category: CategoryValidation,
		Action:   "入力内容を確認してください。",
	}
}

// NewTransportError は通信失敗のエラーを生成する。
func NewTransportError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeTransport,
		Message:  fmt.Sprintf("サーバーとの通信に失敗しました: %s", reason),
		Category: CategoryTransport,
		Action:   "ネットワーク接続を確認し、もう一度操作してください。",
	}
}

// NewTimeoutError は応答待ちがタイムアウトした場合のエラーを生成する。
func NewTimeoutError() *APIError {
	return &APIError{
		Code:     ErrCodeTimeout,
		Message:  "サーバーからの応答がありません。",
		Category: CategoryTransport,
		Action:   "しばらく待ってから、もう一度操作してください。",
	}
}

// NewInternalError は内部エラーを生成する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました",
		Category: CategorySystem,
		Action:   "しばらく時間をおいてから再度お試しください",
	}
}

// CategoryOf はエラーチェーン中のAPIErrorのカテゴリを返す。
// APIErrorを含まない場合は空文字を返す。
func CategoryOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Category
	}
	return ""
}

// IsAuth は認証エラーかどうかを判定する。
func IsAuth(err error) bool { return CategoryOf(err) == CategoryAuth }

// IsNotFound は未検出エラーかどうかを判定する。
func IsNotFound(err error) bool { return CategoryOf(err) == CategoryNotFound }

// IsPermission は権限エラーかどうかを判定する。
func IsPermission(err error) bool { return CategoryOf(err) == CategoryPermission }

// IsTransport は通信エラーかどうかを判定する。
func IsTransport(err error) bool { return CategoryOf(err) == CategoryTransport }
