package screen

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/diarybook/internal/model"
)

// ListView は日記一覧画面の表示内容。
type ListView struct {
	Status
	Rows []model.EntryWithAuthor
}

// ListScreen は日記一覧画面。
type ListScreen struct {
	identity IdentitySource
	repo     Repository
	logger   *slog.Logger
	loader   loader

	mu   sync.Mutex
	view ListView
}

// NewListScreen はListScreenを生成する。
func NewListScreen(identity IdentitySource, repo Repository, opts ...Option) *ListScreen {
	o := buildOptions(opts)
	return &ListScreen{
		identity: identity,
		repo:     repo,
		logger:   o.logger,
		loader:   loader{timeout: o.timeout},
		view:     ListView{Status: Status{State: StateLoading}},
	}
}

// Load は日記一覧と著者情報を取得する。
// 日記の取得に失敗した場合はエラー状態となり、著者情報の取得失敗は全著者を不明として表示する。
func (s *ListScreen) Load(ctx context.Context) ListView {
	if s.identity.CurrentIdentity() == nil {
		s.loader.stop()
		return s.set(ListView{Status: Status{State: StateRedirectAuth}})
	}

	ctx, cancel, gen := s.loader.begin(ctx)
	defer cancel()
	s.set(ListView{Status: Status{State: StateLoading}})

	view := s.fetch(ctx)
	if !s.loader.current(gen) {
		return s.View()
	}
	return s.set(view)
}

func (s *ListScreen) fetch(ctx context.Context) ListView {
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		return ListView{Status: statusFor(normalize(ctx, err))}
	}

	ids := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.OwnerID]; ok {
			continue
		}
		seen[e.OwnerID] = struct{}{}
		ids = append(ids, e.OwnerID)
	}

	emails := map[string]string{}
	if len(ids) > 0 {
		emails = authorEmails(ctx, s.repo, s.logger, ids)
	}

	rows := make([]model.EntryWithAuthor, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, withAuthor(e, emails))
	}
	return ListView{Status: Status{State: StateReady}, Rows: rows}
}

// View は最新の表示内容を返す。
func (s *ListScreen) View() ListView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *ListScreen) set(v ListView) ListView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
	return v
}
