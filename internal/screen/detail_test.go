package screen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/diarybook/internal/model"
)

func detailRepo(e *model.Entry) *mockRepository {
	return &mockRepository{
		getEntryFn: func(ctx context.Context, id string) (*model.Entry, error) {
			if e == nil || id != e.ID {
				return nil, model.NewDiaryNotFoundError(id)
			}
			return e, nil
		},
		listProfilesFn: func(ctx context.Context, ids []string) ([]*model.Profile, error) {
			return []*model.Profile{{ID: "user-a", Email: "a@x.com"}}, nil
		},
		deleteEntryFn: func(ctx context.Context, id string) error { return nil },
	}
}

func TestDetailScreen_Load(t *testing.T) {
	e := entry("d1", "user-a", "hello")

	tests := []struct {
		name          string
		identity      *model.Identity
		id            string
		wantState     State
		wantCanModify bool
	}{
		{"所有者は変更可能", alice, "d1", StateReady, true},
		{"他人は閲覧のみ", bob, "d1", StateReady, false},
		{"存在しないIDはnot_found", alice, "missing", StateNotFound, false},
		{"未ログインは認証画面へ", nil, "d1", StateRedirectAuth, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewDetailScreen(staticIdentity{tt.identity}, detailRepo(e))
			view := s.Load(context.Background(), tt.id)

			if view.State != tt.wantState {
				t.Fatalf("State = %s, want %s", view.State, tt.wantState)
			}
			if view.CanModify != tt.wantCanModify {
				t.Errorf("CanModify = %v, want %v", view.CanModify, tt.wantCanModify)
			}
			if tt.wantState == StateReady && view.Entry.AuthorEmail != "a@x.com" {
				t.Errorf("AuthorEmail = %s, want a@x.com", view.Entry.AuthorEmail)
			}
			if tt.wantState == StateNotFound && !model.IsNotFound(view.Err) {
				t.Errorf("Err = %v, want not found", view.Err)
			}
		})
	}
}

func TestDetailScreen_TransportErrorIsNotNotFound(t *testing.T) {
	repo := &mockRepository{
		getEntryFn: func(ctx context.Context, id string) (*model.Entry, error) {
			return nil, model.NewTransportError("bad gateway")
		},
	}
	s := NewDetailScreen(staticIdentity{alice}, repo)

	if view := s.Load(context.Background(), "d1"); view.State != StateError {
		t.Errorf("State = %s, want error", view.State)
	}
}

func TestDetailScreen_AuthorFailureIsUnknown(t *testing.T) {
	repo := detailRepo(entry("d1", "user-a", "hello"))
	repo.listProfilesFn = func(ctx context.Context, ids []string) ([]*model.Profile, error) {
		return nil, errors.New("down")
	}
	s := NewDetailScreen(staticIdentity{alice}, repo, WithLogger(quietLogger()))

	view := s.Load(context.Background(), "d1")
	if view.State != StateReady || view.Entry.AuthorEmail != model.UnknownAuthor {
		t.Errorf("view = %+v, want ready with unknown author", view)
	}
}

func TestDetailScreen_StaleResultDiscarded(t *testing.T) {
	started := make(chan struct{})
	var oldCtx context.Context
	repo := &mockRepository{
		getEntryFn: func(ctx context.Context, id string) (*model.Entry, error) {
			if id == "old" {
				oldCtx = ctx
				close(started)
				<-ctx.Done()
				return entry("old", "user-a", "stale"), nil
			}
			return entry(id, "user-a", "fresh"), nil
		},
	}
	s := NewDetailScreen(staticIdentity{alice}, repo, WithLogger(quietLogger()))

	done := make(chan DetailView)
	go func() { done <- s.Load(context.Background(), "old") }()
	<-started

	fresh := s.Load(context.Background(), "new")
	stale := <-done

	if !errors.Is(oldCtx.Err(), context.Canceled) {
		t.Errorf("old load ctx err = %v, want Canceled", oldCtx.Err())
	}
	if fresh.Entry == nil || fresh.Entry.ID != "new" {
		t.Fatalf("fresh view = %+v, want entry new", fresh)
	}
	if stale.Entry != nil && stale.Entry.ID == "old" {
		t.Errorf("stale load returned its own result: %+v", stale)
	}
	if got := s.View(); got.Entry == nil || got.Entry.Title != "fresh" {
		t.Errorf("View() = %+v, want fresh entry", got)
	}
}

func TestDetailScreen_Timeout(t *testing.T) {
	repo := &mockRepository{
		getEntryFn: func(ctx context.Context, id string) (*model.Entry, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	s := NewDetailScreen(staticIdentity{alice}, repo, WithTimeout(20*time.Millisecond))

	view := s.Load(context.Background(), "d1")
	if view.State != StateError || view.Err.Code != model.ErrCodeTimeout {
		t.Errorf("view = %+v, want timeout error", view)
	}
}

func TestDetailScreen_Delete(t *testing.T) {
	t.Run("所有者は削除できる", func(t *testing.T) {
		repo := detailRepo(entry("d1", "user-a", "hello"))
		s := NewDetailScreen(staticIdentity{alice}, repo)
		s.Load(context.Background(), "d1")

		if err := s.Delete(context.Background()); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if repo.mutations() != 1 {
			t.Errorf("mutations = %d, want 1", repo.mutations())
		}
	})

	t.Run("他人は削除を試みない", func(t *testing.T) {
		repo := detailRepo(entry("d1", "user-a", "hello"))
		s := NewDetailScreen(staticIdentity{bob}, repo)
		s.Load(context.Background(), "d1")

		if err := s.Delete(context.Background()); !model.IsPermission(err) {
			t.Errorf("Delete() error = %v, want permission", err)
		}
		if repo.mutations() != 0 {
			t.Errorf("mutations = %d, want 0", repo.mutations())
		}
	})

	t.Run("サーバーのnot_foundはそのまま返す", func(t *testing.T) {
		repo := detailRepo(entry("d1", "user-a", "hello"))
		repo.deleteEntryFn = func(ctx context.Context, id string) error {
			return model.NewDiaryNotFoundError(id)
		}
		s := NewDetailScreen(staticIdentity{alice}, repo)
		s.Load(context.Background(), "d1")

		if err := s.Delete(context.Background()); !model.IsNotFound(err) {
			t.Errorf("Delete() error = %v, want not found", err)
		}
	})

	t.Run("未読み込みはnot_found", func(t *testing.T) {
		repo := detailRepo(nil)
		s := NewDetailScreen(staticIdentity{alice}, repo)
		s.Load(context.Background(), "missing")

		if err := s.Delete(context.Background()); !model.IsNotFound(err) {
			t.Errorf("Delete() error = %v, want not found", err)
		}
		if repo.mutations() != 0 {
			t.Errorf("mutations = %d, want 0", repo.mutations())
		}
	})
}
