package screen

import (
	"context"
	"sync"

	"github.com/hitoshi/diarybook/internal/model"
	"github.com/hitoshi/diarybook/internal/ownership"
)

// EditView は日記編集画面の表示内容。
// 読み込み完了時、Draft は現在のタイトルと本文で埋められる。
type EditView struct {
	Status
	Entry *model.Entry
	Draft Draft
}

// EditScreen は日記編集画面。所有者以外は編集できない。
type EditScreen struct {
	identity IdentitySource
	repo     Repository
	loader   loader
	mutation loader

	mu   sync.Mutex
	view EditView
}

// NewEditScreen はEditScreenを生成する。
func NewEditScreen(identity IdentitySource, repo Repository, opts ...Option) *EditScreen {
	o := buildOptions(opts)
	return &EditScreen{
		identity: identity,
		repo:     repo,
		loader:   loader{timeout: o.timeout},
		mutation: loader{timeout: o.timeout},
		view:     EditView{Status: Status{State: StateLoading}},
	}
}

// Load は編集対象の日記を取得する。
// 所有者でない場合は権限エラー状態とし、以降の変更操作は行わない。
func (s *EditScreen) Load(ctx context.Context, id string) EditView {
	identity := s.identity.CurrentIdentity()
	if identity == nil {
		s.loader.stop()
		return s.set(EditView{Status: Status{State: StateRedirectAuth}})
	}

	ctx, cancel, gen := s.loader.begin(ctx)
	defer cancel()
	s.set(EditView{Status: Status{State: StateLoading}})

	var view EditView
	entry, err := s.repo.GetEntry(ctx, id)
	switch {
	case err != nil:
		view = EditView{Status: statusFor(normalize(ctx, err))}
	case !ownership.CanModify(identity, entry):
		view = EditView{Status: Status{State: StateError, Err: model.NewPermissionDeniedError()}}
	default:
		view = EditView{
			Status: Status{State: StateReady},
			Entry:  entry,
			Draft:  Draft{Title: entry.Title, Content: entry.Content},
		}
	}

	if !s.loader.current(gen) {
		return s.View()
	}
	return s.set(view)
}

// Submit は日記を更新する。失敗した場合は入力内容を保持する。
func (s *EditScreen) Submit(ctx context.Context, title, content string) (*model.Entry, error) {
	entry, err := s.editable()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.view.Draft = Draft{Title: title, Content: content}
	s.view.Err = nil
	s.mu.Unlock()

	if apiErr := validateDraft(title, content); apiErr != nil {
		return nil, s.fail(apiErr)
	}

	ctx, cancel, _ := s.mutation.begin(ctx)
	defer cancel()
	updated, err := s.repo.UpdateEntry(ctx, entry.ID, title, content)
	if err != nil {
		return nil, s.fail(normalize(ctx, err))
	}

	s.mu.Lock()
	s.view.Entry = updated
	s.view.Draft = Draft{Title: updated.Title, Content: updated.Content}
	s.mu.Unlock()
	return updated, nil
}

// Delete は編集中の日記を削除する。
func (s *EditScreen) Delete(ctx context.Context) error {
	entry, err := s.editable()
	if err != nil {
		return err
	}

	ctx, cancel, _ := s.mutation.begin(ctx)
	defer cancel()
	if err := s.repo.DeleteEntry(ctx, entry.ID); err != nil {
		return s.fail(normalize(ctx, err))
	}
	return nil
}

// editable は変更操作が可能な場合に対象の日記を返す。
func (s *EditScreen) editable() (*model.Entry, error) {
	s.mu.Lock()
	view := s.view
	s.mu.Unlock()

	if view.State == StateReady && view.Entry != nil &&
		ownership.CanModify(s.identity.CurrentIdentity(), view.Entry) {
		return view.Entry, nil
	}
	if view.Err != nil && view.State != StateReady {
		return nil, view.Err
	}
	return nil, model.NewPermissionDeniedError()
}

// View は最新の表示内容を返す。
func (s *EditScreen) View() EditView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *EditScreen) set(v EditView) EditView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
	return v
}

func (s *EditScreen) fail(apiErr *model.APIError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Err = apiErr
	return apiErr
}
