package shell

import (
	"context"

	"github.com/hitoshi/diarybook/internal/model"
	"github.com/hitoshi/diarybook/internal/screen"
)

func (s *Shell) signUp(ctx context.Context, email, password string) {
	msg, err := s.auth.SignUp(ctx, email, password)
	if err != nil {
		s.printError(err)
		return
	}
	s.println(msg)
}

func (s *Shell) signIn(ctx context.Context, email, password string) {
	if err := s.auth.SignIn(ctx, email, password); err != nil {
		s.printError(err)
		return
	}
	if identity := s.session.CurrentIdentity(); identity != nil {
		s.printf("%s としてログインしました。\n", identity.Email)
	}
}

func (s *Shell) signOut(ctx context.Context) {
	if err := s.auth.SignOut(ctx); err != nil {
		s.printError(err)
		return
	}
	s.println("ログアウトしました。")
}

func (s *Shell) whoami() {
	identity := s.session.CurrentIdentity()
	if identity == nil {
		s.println("未ログイン")
		return
	}
	s.println(identity.Email)
}

func (s *Shell) showList(ctx context.Context) {
	view := s.list.Load(ctx)
	switch view.State {
	case screen.StateRedirectAuth:
		s.redirectAuth()
		return
	case screen.StateReady:
	default:
		s.printError(view.Err)
		return
	}

	if len(view.Rows) == 0 {
		s.println("日記はまだありません。new で作成できます。")
		return
	}
	for _, row := range view.Rows {
		s.printf("%s  %s  %s  (%s)\n", row.ID, row.CreatedAt.Local().Format(timeLayout), row.Title, row.AuthorEmail)
	}
}

func (s *Shell) showDetail(ctx context.Context, id string) {
	view := s.detail.Load(ctx, id)
	switch view.State {
	case screen.StateRedirectAuth:
		s.redirectAuth()
		return
	case screen.StateNotFound:
		s.printf("日記が見つかりません: %s\n", id)
		return
	case screen.StateReady:
	default:
		s.printError(view.Err)
		return
	}

	e := view.Entry
	s.printf("タイトル: %s\n", e.Title)
	s.printf("著者: %s\n", e.AuthorEmail)
	s.printf("作成: %s\n", e.CreatedAt.Local().Format(timeLayout))
	if !e.UpdatedAt.IsZero() && !e.UpdatedAt.Equal(e.CreatedAt) {
		s.printf("更新: %s\n", e.UpdatedAt.Local().Format(timeLayout))
	}
	s.println("---")
	s.println(e.Content)
	s.println("---")
	if view.CanModify {
		s.printf("edit %s で編集、delete %s で削除できます。\n", e.ID, e.ID)
	}
}

func (s *Shell) newEntry(ctx context.Context) {
	if st := s.create.Open(); st.State == screen.StateRedirectAuth {
		s.redirectAuth()
		return
	}

	title, content, ok := s.readDraft(screen.Draft{})
	if !ok {
		return
	}
	entry, err := s.create.Submit(ctx, title, content)
	if err != nil {
		s.printError(err)
		return
	}
	s.printf("日記を作成しました: %s\n", entry.ID)
	s.showList(ctx)
}

func (s *Shell) editEntry(ctx context.Context, id string) {
	view := s.edit.Load(ctx, id)
	switch view.State {
	case screen.StateRedirectAuth:
		s.redirectAuth()
		return
	case screen.StateNotFound:
		s.printf("日記が見つかりません: %s\n", id)
		return
	case screen.StateReady:
	default:
		s.printError(view.Err)
		return
	}

	title, content, ok := s.readDraft(view.Draft)
	if !ok {
		return
	}
	if _, err := s.edit.Submit(ctx, title, content); err != nil {
		s.printError(err)
		return
	}
	s.println("日記を更新しました。")
	s.showDetail(ctx, id)
}

// readDraft はタイトルと本文を読み込む。
// 現在値がある場合、空のタイトルと空の本文は現在値のまま扱う。
func (s *Shell) readDraft(current screen.Draft) (string, string, bool) {
	if current.Title != "" {
		s.printf("タイトル [%s]: ", current.Title)
	} else {
		s.printf("タイトル: ")
	}
	title, ok := s.readLine()
	if !ok {
		return "", "", false
	}
	if title == "" {
		title = current.Title
	}

	s.printf("本文 (%s のみの行で終了):\n", endOfContent)
	content, ok := s.readContent()
	if !ok {
		return "", "", false
	}
	if content == "" {
		content = current.Content
	}
	return title, content, true
}

func (s *Shell) deleteEntry(ctx context.Context, id string) {
	view := s.detail.Load(ctx, id)
	switch view.State {
	case screen.StateRedirectAuth:
		s.redirectAuth()
		return
	case screen.StateNotFound:
		s.printf("日記が見つかりません: %s\n", id)
		return
	case screen.StateReady:
	default:
		s.printError(view.Err)
		return
	}
	if !view.CanModify {
		s.printError(model.NewPermissionDeniedError())
		return
	}

	if err := s.detail.Delete(ctx); err != nil {
		s.printError(err)
		return
	}
	s.println("日記を削除しました。")
}

func (s *Shell) withdraw(ctx context.Context) {
	if s.session.CurrentIdentity() == nil {
		s.redirectAuth()
		return
	}
	if !s.confirm("退会するとすべての日記が削除されます。よろしいですか?") {
		s.println("中止しました。")
		return
	}

	wctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Withdraw(wctx); err != nil {
		s.printError(err)
		return
	}
	s.println("退会しました。")
}
