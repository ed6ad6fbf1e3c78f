// Package shell は日記帳を操作する対話シェルを提供する。
// シェルはセッションコンテキストを1つ保持し、開始時に初期化して終了時に解放する。
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/diarybook/internal/model"
	"github.com/hitoshi/diarybook/internal/screen"
	"github.com/hitoshi/diarybook/internal/session"
)

// Prompt はプロンプトの接頭辞。
const Prompt = "diarybook"

// endOfContent は本文入力の終端行。
const endOfContent = "."

const timeLayout = "2006-01-02 15:04"

const helpText = `利用可能なコマンド:
  signup <email> <password>  アカウントを作成する
  login <email> <password>   ログインする
  logout                     ログアウトする
  whoami                     ログイン中のメールアドレスを表示する
  open <path>                パスを開く (/, /new, /diary/<id>, /diary/edit/<id>)
  list                       日記一覧を表示する
  show <id>                  日記を表示する
  new                        日記を作成する
  edit <id>                  日記を編集する
  delete <id>                日記を削除する
  withdraw                   退会する
  help                       このヘルプを表示する
  exit                       終了する`

// Client はシェルが利用するAPIクライアント。client.Client が満たす。
type Client interface {
	session.AuthStore
	screen.Authenticator
	screen.Repository
	Withdraw(ctx context.Context) error
}

// Option はShellの生成オプション。
type Option func(*Shell)

// WithTimeout は1回の読み込み・操作のタイムアウトを指定する。
func WithTimeout(d time.Duration) Option {
	return func(s *Shell) {
		s.timeout = d
	}
}

// WithLogger はロガーを指定する。
func WithLogger(logger *slog.Logger) Option {
	return func(s *Shell) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Shell は対話シェル。
type Shell struct {
	client  Client
	in      *bufio.Scanner
	out     io.Writer
	logger  *slog.Logger
	timeout time.Duration

	session *session.Context
	auth    *screen.AuthScreen
	list    *screen.ListScreen
	detail  *screen.DetailScreen
	create  *screen.CreateScreen
	edit    *screen.EditScreen
}

// New はShellを生成する。
func New(client Client, in io.Reader, out io.Writer, opts ...Option) *Shell {
	s := &Shell{
		client:  client,
		in:      bufio.NewScanner(in),
		out:     out,
		logger:  slog.Default(),
		timeout: screen.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.session = session.New(client, s.logger, session.WithFetchTimeout(s.timeout))
	screenOpts := []screen.Option{screen.WithTimeout(s.timeout), screen.WithLogger(s.logger)}
	s.auth = screen.NewAuthScreen(client, screenOpts...)
	s.list = screen.NewListScreen(s.session, client, screenOpts...)
	s.detail = screen.NewDetailScreen(s.session, client, screenOpts...)
	s.create = screen.NewCreateScreen(s.session, client, screenOpts...)
	s.edit = screen.NewEditScreen(s.session, client, screenOpts...)
	return s
}

// Run は入力が尽きるか exit が入力されるまでコマンドを処理する。
func (s *Shell) Run(ctx context.Context) error {
	s.session.Initialize(ctx)
	defer s.session.Close()

	select {
	case <-s.session.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	s.println("日記帳へようこそ。help でコマンド一覧を表示します。")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.printPrompt()
		line, ok := s.readLine()
		if !ok {
			s.println("")
			return nil
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if !s.dispatch(ctx, args) {
			s.println("Bye")
			return nil
		}
	}
}

// dispatch はコマンドを1つ実行する。終了する場合はfalseを返す。
func (s *Shell) dispatch(ctx context.Context, args []string) bool {
	switch args[0] {
	case "help":
		s.println(helpText)
	case "signup":
		if len(args) < 3 {
			s.println("Usage: signup <email> <password>")
			return true
		}
		s.signUp(ctx, args[1], args[2])
	case "login":
		if len(args) < 3 {
			s.println("Usage: login <email> <password>")
			return true
		}
		s.signIn(ctx, args[1], args[2])
	case "logout":
		s.signOut(ctx)
	case "whoami":
		s.whoami()
	case "open":
		if len(args) < 2 {
			s.println("Usage: open <path>")
			return true
		}
		s.open(ctx, args[1])
	case "list":
		s.open(ctx, "/")
	case "new":
		s.open(ctx, "/new")
	case "show":
		if len(args) < 2 {
			s.println("Usage: show <id>")
			return true
		}
		s.open(ctx, "/diary/"+args[1])
	case "edit":
		if len(args) < 2 {
			s.println("Usage: edit <id>")
			return true
		}
		s.open(ctx, "/diary/edit/"+args[1])
	case "delete":
		if len(args) < 2 {
			s.println("Usage: delete <id>")
			return true
		}
		s.deleteEntry(ctx, args[1])
	case "withdraw":
		s.withdraw(ctx)
	case "exit", "quit":
		return false
	default:
		s.println("Unknown command. Type 'help' for a list of commands.")
	}
	return true
}

// open はパスを解決して画面を表示する。
func (s *Shell) open(ctx context.Context, path string) {
	route := screen.Resolve(path, s.session.CurrentIdentity())
	switch route.Kind {
	case screen.KindAuth:
		s.redirectAuth()
	case screen.KindList:
		s.showList(ctx)
	case screen.KindNew:
		s.newEntry(ctx)
	case screen.KindDetail:
		s.showDetail(ctx, route.ID)
	case screen.KindEdit:
		s.editEntry(ctx, route.ID)
	default:
		s.printf("ページが見つかりません: %s\n", path)
	}
}

func (s *Shell) redirectAuth() {
	s.println("ログインしてください: login <email> <password> (新規登録は signup <email> <password>)")
}

func (s *Shell) printPrompt() {
	if identity := s.session.CurrentIdentity(); identity != nil {
		s.printf("%s(%s)> ", Prompt, identity.Email)
		return
	}
	s.printf("%s> ", Prompt)
}

func (s *Shell) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// readContent は終端行までの複数行を読み込む。
func (s *Shell) readContent() (string, bool) {
	var lines []string
	for s.in.Scan() {
		line := s.in.Text()
		if strings.TrimSpace(line) == endOfContent {
			return strings.Join(lines, "\n"), true
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), false
}

// confirm は y で始まる応答の場合にtrueを返す。
func (s *Shell) confirm(question string) bool {
	s.printf("%s [y/N]: ", question)
	answer, ok := s.readLine()
	return ok && strings.HasPrefix(strings.ToLower(answer), "y")
}

// printError はエラーを分類ごとの見出し付きで表示する。
func (s *Shell) printError(err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		s.printf("エラー: %v\n", err)
		return
	}
	s.printf("%s: %s\n", categoryLabel(apiErr.Category), apiErr.Message)
	if apiErr.Action != "" {
		s.printf("  %s\n", apiErr.Action)
	}
}

func categoryLabel(category string) string {
	switch category {
	case model.CategoryAuth:
		return "認証エラー"
	case model.CategoryNotFound:
		return "見つかりません"
	case model.CategoryPermission:
		return "権限エラー"
	case model.CategoryTransport:
		return "通信エラー"
	case model.CategoryValidation:
		return "入力エラー"
	default:
		return "エラー"
	}
}

func (s *Shell) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *Shell) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}
