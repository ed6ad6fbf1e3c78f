package screen

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/diarybook/internal/model"
	"github.com/hitoshi/diarybook/internal/ownership"
)

// DetailView は日記詳細画面の表示内容。
// CanModify がtrueの場合のみ編集・削除を表示する。
type DetailView struct {
	Status
	Entry     *model.EntryWithAuthor
	CanModify bool
}

// DetailScreen は日記詳細画面。
type DetailScreen struct {
	identity IdentitySource
	repo     Repository
	logger   *slog.Logger
	mutation loader
	loader   loader

	mu   sync.Mutex
	id   string
	view DetailView
}

// NewDetailScreen はDetailScreenを生成する。
func NewDetailScreen(identity IdentitySource, repo Repository, opts ...Option) *DetailScreen {
	o := buildOptions(opts)
	return &DetailScreen{
		identity: identity,
		repo:     repo,
		logger:   o.logger,
		mutation: loader{timeout: o.timeout},
		loader:   loader{timeout: o.timeout},
		view:     DetailView{Status: Status{State: StateLoading}},
	}
}

// Load は指定IDの日記と著者を取得する。
// IDが変わって新しい読み込みが始まった場合、前の読み込みの結果は破棄される。
func (s *DetailScreen) Load(ctx context.Context, id string) DetailView {
	identity := s.identity.CurrentIdentity()
	if identity == nil {
		s.loader.stop()
		return s.set(id, DetailView{Status: Status{State: StateRedirectAuth}})
	}

	ctx, cancel, gen := s.loader.begin(ctx)
	defer cancel()
	s.set(id, DetailView{Status: Status{State: StateLoading}})

	view := s.fetch(ctx, identity, id)
	if !s.loader.current(gen) {
		return s.View()
	}
	return s.set(id, view)
}

func (s *DetailScreen) fetch(ctx context.Context, identity *model.Identity, id string) DetailView {
	entry, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return DetailView{Status: statusFor(normalize(ctx, err))}
	}

	emails := authorEmails(ctx, s.repo, s.logger, []string{entry.OwnerID})
	row := withAuthor(entry, emails)
	return DetailView{
		Status:    Status{State: StateReady},
		Entry:     &row,
		CanModify: ownership.CanModify(identity, entry),
	}
}

// Delete は表示中の日記を削除する。
// 所有者でない場合はリポジトリを呼ばずに権限エラーを返す。
func (s *DetailScreen) Delete(ctx context.Context) error {
	s.mu.Lock()
	view := s.view
	s.mu.Unlock()

	if view.State != StateReady || view.Entry == nil {
		return model.NewDiaryNotFoundError(s.currentID())
	}
	if !ownership.CanModify(s.identity.CurrentIdentity(), &view.Entry.Entry) {
		return model.NewPermissionDeniedError()
	}

	ctx, cancel, _ := s.mutation.begin(ctx)
	defer cancel()
	if err := s.repo.DeleteEntry(ctx, view.Entry.ID); err != nil {
		return normalize(ctx, err)
	}
	return nil
}

// View は最新の表示内容を返す。
func (s *DetailScreen) View() DetailView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *DetailScreen) currentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *DetailScreen) set(id string, v DetailView) DetailView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.view = v
	return v
}
