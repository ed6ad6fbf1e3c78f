package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/diarybook/internal/model"
)

// DiaryServiceInterface は日記ハンドラーが必要とするサービスインターフェース。
// 作成・更新・削除の所有者は常にセッションのユーザーIDとなる。
type DiaryServiceInterface interface {
	List(ctx context.Context) ([]*model.Entry, error)
	Get(ctx context.Context, diaryID string) (*model.Entry, error)
	Create(ctx context.Context, userID, title, content string) (*model.Entry, error)
	Update(ctx context.Context, userID, diaryID, title, content string) (*model.Entry, error)
	Delete(ctx context.Context, userID, diaryID string) error
}

// DiaryHandler は日記のHTTPハンドラー。
type DiaryHandler struct {
	service DiaryServiceInterface
}

// NewDiaryHandler はDiaryHandlerを生成する。
func NewDiaryHandler(service DiaryServiceInterface) *DiaryHandler {
	return &DiaryHandler{service: service}
}

// diaryRequest は日記の作成・更新リクエストボディ。
// 所有者フィールドは受け付けない。
type diaryRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// List は全日記を作成日時の降順で返す。
// GET /api/diaries
func (h *DiaryHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []*model.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// Get は日記1件を返す。
// GET /api/diaries/{id}
func (h *DiaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Create は日記を作成する。
// POST /api/diaries
func (h *DiaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req diaryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.service.Create(r.Context(), userID, req.Title, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// Update は日記のタイトルと本文を更新する。
// PUT /api/diaries/{id}
func (h *DiaryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req diaryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), req.Title, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Delete は日記を削除する。
// DELETE /api/diaries/{id}
func (h *DiaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
