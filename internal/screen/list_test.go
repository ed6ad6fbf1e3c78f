package screen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/diarybook/internal/model"
)

func TestListScreen_JoinsAuthors(t *testing.T) {
	var gotIDs []string
	repo := &mockRepository{
		listEntriesFn: func(ctx context.Context) ([]*model.Entry, error) {
			return []*model.Entry{
				entry("d3", "user-a", "third"),
				entry("d2", "user-b", "second"),
				entry("d1", "user-a", "first"),
			}, nil
		},
		listProfilesFn: func(ctx context.Context, ids []string) ([]*model.Profile, error) {
			gotIDs = ids
			return []*model.Profile{{ID: "user-a", Email: "a@x.com"}}, nil
		},
	}
	s := NewListScreen(staticIdentity{alice}, repo, WithLogger(quietLogger()))

	view := s.Load(context.Background())

	if view.State != StateReady {
		t.Fatalf("State = %s, want ready", view.State)
	}
	if len(gotIDs) != 2 || gotIDs[0] != "user-a" || gotIDs[1] != "user-b" {
		t.Errorf("profile ids = %v, want distinct owners in order", gotIDs)
	}
	want := []struct{ id, author string }{
		{"d3", "a@x.com"},
		{"d2", model.UnknownAuthor},
		{"d1", "a@x.com"},
	}
	if len(view.Rows) != len(want) {
		t.Fatalf("rows = %d, want %d", len(view.Rows), len(want))
	}
	for i, w := range want {
		if view.Rows[i].ID != w.id || view.Rows[i].AuthorEmail != w.author {
			t.Errorf("row[%d] = %s/%s, want %s/%s", i, view.Rows[i].ID, view.Rows[i].AuthorEmail, w.id, w.author)
		}
	}
}

func TestListScreen_ProfileFailureFallsBackToUnknown(t *testing.T) {
	repo := &mockRepository{
		listEntriesFn: func(ctx context.Context) ([]*model.Entry, error) {
			return []*model.Entry{entry("d1", "user-a", "t1"), entry("d2", "user-b", "t2")}, nil
		},
		listProfilesFn: func(ctx context.Context, ids []string) ([]*model.Profile, error) {
			return nil, model.NewTransportError("down")
		},
	}
	s := NewListScreen(staticIdentity{alice}, repo, WithLogger(quietLogger()))

	view := s.Load(context.Background())

	if view.State != StateReady {
		t.Fatalf("State = %s, want ready", view.State)
	}
	for _, row := range view.Rows {
		if row.AuthorEmail != model.UnknownAuthor {
			t.Errorf("row %s author = %s, want unknown", row.ID, row.AuthorEmail)
		}
	}
}

func TestListScreen_EmptySkipsProfiles(t *testing.T) {
	repo := &mockRepository{
		listEntriesFn: func(ctx context.Context) ([]*model.Entry, error) { return nil, nil },
		listProfilesFn: func(ctx context.Context, ids []string) ([]*model.Profile, error) {
			t.Error("ListProfiles should not be called for an empty list")
			return nil, nil
		},
	}
	s := NewListScreen(staticIdentity{alice}, repo)

	view := s.Load(context.Background())
	if view.State != StateReady || len(view.Rows) != 0 {
		t.Errorf("view = %+v, want ready with no rows", view)
	}
}

func TestListScreen_EntryFailureIsError(t *testing.T) {
	repo := &mockRepository{
		listEntriesFn: func(ctx context.Context) ([]*model.Entry, error) {
			return nil, errors.New("connection reset")
		},
	}
	s := NewListScreen(staticIdentity{alice}, repo)

	view := s.Load(context.Background())
	if view.State != StateError {
		t.Fatalf("State = %s, want error", view.State)
	}
	if !model.IsTransport(view.Err) || view.Rows != nil {
		t.Errorf("view = %+v, want transport error and no rows", view)
	}
}

func TestListScreen_RedirectsWithoutIdentity(t *testing.T) {
	repo := &mockRepository{
		listEntriesFn: func(ctx context.Context) ([]*model.Entry, error) {
			t.Error("ListEntries should not be called without identity")
			return nil, nil
		},
	}
	s := NewListScreen(staticIdentity{nil}, repo)

	if view := s.Load(context.Background()); view.State != StateRedirectAuth {
		t.Errorf("State = %s, want redirect_auth", view.State)
	}
}

func TestListScreen_Timeout(t *testing.T) {
	repo := &mockRepository{
		listEntriesFn: func(ctx context.Context) ([]*model.Entry, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	s := NewListScreen(staticIdentity{alice}, repo, WithTimeout(20*time.Millisecond))

	view := s.Load(context.Background())
	if view.State != StateError || view.Err == nil || view.Err.Code != model.ErrCodeTimeout {
		t.Errorf("view = %+v, want timeout error", view)
	}
	if view.Err != nil && view.Err.Message == "" {
		t.Error("timeout should carry a user-visible message")
	}
}
