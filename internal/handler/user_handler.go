package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/hitoshi/diarybook/internal/middleware"
	"github.com/hitoshi/diarybook/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	GetMe(ctx context.Context, userID string) (*model.Profile, error)
	ListProfiles(ctx context.Context, ids []string) ([]*model.Profile, error)
	// Withdraw はユーザーの退会処理を実行する。
	// sessionsを削除した後、userを削除しprofiles、diariesはCASCADE削除される。
	Withdraw(ctx context.Context, userID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
	cookies *AuthHandler
}

// NewUserHandler はUserHandlerを生成する。
// 退会時にセッションCookieを消去するため、Cookie設定を共有する。
func NewUserHandler(service UserServiceInterface, config AuthHandlerConfig) *UserHandler {
	return &UserHandler{
		service: service,
		cookies: &AuthHandler{config: config},
	}
}

// Me はログイン中ユーザーのプロフィールを返す。
// GET /api/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetMe(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Profiles はカンマ区切りのID群に対応するプロフィールを返す。
// GET /api/profiles?ids=a,b
func (h *UserHandler) Profiles(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	profiles, err := h.service.ListProfiles(r.Context(), ids)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if profiles == nil {
		profiles = []*model.Profile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

// Withdraw はユーザーの退会処理を実行し、セッションCookieを消去する。
// DELETE /api/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.cookies.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
