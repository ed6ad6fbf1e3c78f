package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/diarybook/internal/auth"
	"github.com/hitoshi/diarybook/internal/client"
	"github.com/hitoshi/diarybook/internal/config"
	"github.com/hitoshi/diarybook/internal/database"
	"github.com/hitoshi/diarybook/internal/diary"
	"github.com/hitoshi/diarybook/internal/handler"
	"github.com/hitoshi/diarybook/internal/logger"
	"github.com/hitoshi/diarybook/internal/metrics"
	"github.com/hitoshi/diarybook/internal/middleware"
	"github.com/hitoshi/diarybook/internal/repository"
	"github.com/hitoshi/diarybook/internal/repository/memstore"
	"github.com/hitoshi/diarybook/internal/shell"
	"github.com/hitoshi/diarybook/internal/user"
	"github.com/hitoshi/diarybook/internal/worker/cleanup"
)

// MemoryDatabaseURL を DATABASE_URL に指定すると、プロセス内のメモリ上にデータを保持する。
// 再起動でデータは失われる。
const MemoryDatabaseURL = "memory://"

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// .envがあれば読み込み、環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// .env は任意。存在しなければ環境変数のみを使う
	_ = godotenv.Load()

	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetLevel(cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。SIGINTまたはSIGTERMで停止する。
func Run(w io.Writer, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return run(ctx, os.Stdin, w, os.Stderr, args)
}

func run(ctx context.Context, in io.Reader, out, errOut io.Writer, args []string) error {
	cmd := ParseCommand(args)

	switch cmd {
	case CommandHealthcheck:
		// 軽量サブコマンドのため、フル初期化をスキップする
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(ctx, port)
	case CommandShell:
		// シェルの標準出力は対話に使うため、ログは errOut へ出す
		return runShell(ctx, in, out, errOut)
	}

	cfg, err := Init(out)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// stores はリポジトリ一式と接続の後始末をまとめる。
type stores struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	sessions repository.SessionRepository
	diaries  repository.DiaryRepository
	health   handler.HealthChecker
	memory   bool
	close    func() error
}

// openStores はDATABASE_URLに応じてPostgreSQLまたはメモリ上のリポジトリを開く。
func openStores(ctx context.Context, databaseURL string) (*stores, error) {
	if databaseURL == MemoryDatabaseURL {
		slog.Warn("using in-memory store; data will be lost on restart")
		m := memstore.New()
		return &stores{
			users:    m.Users(),
			profiles: m.Profiles(),
			sessions: m.Sessions(),
			diaries:  m.Diaries(),
			memory:   true,
			close:    func() error { return nil },
		}, nil
	}

	db, err := database.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	slog.Info("database connection established")

	return &stores{
		users:    repository.NewPostgresUserRepo(db),
		profiles: repository.NewPostgresProfileRepo(db),
		sessions: repository.NewPostgresSessionRepo(db),
		diaries:  repository.NewPostgresDiaryRepo(db),
		health:   db,
		close:    db.Close,
	}, nil
}

// newHandler は全依存関係をワイヤリングしたHTTPハンドラーを返す。
func newHandler(cfg *config.Config, st *stores, reg *prometheus.Registry, mc metrics.MetricsCollector) http.Handler {
	authService := auth.NewService(st.users, st.sessions, mc, auth.ServiceConfig{
		SessionMaxAge: cfg.SessionMaxAge,
		BcryptCost:    cfg.BcryptCost,
	})
	diaryService := diary.NewService(st.diaries, mc)
	userService := user.NewService(st.users, st.profiles, st.sessions)

	return handler.NewRouter(&handler.RouterDeps{
		IdentityResolver:  authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		Logger:          slog.Default(),
		HealthChecker:   st.health,
		Metrics:         mc,
		MetricsGatherer: reg,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},
		DiaryService: handler.NewDiaryServiceAdapter(diaryService),
		UserService:  userService,
	})
}

// newRegistry はGo・プロセスの標準メトリクスを登録したレジストリを返す。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// runServe はAPIサーバーモードで起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	st, err := openStores(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.close()

	reg := newRegistry()
	mc := metrics.NewCollector(reg)

	// メモリストアはワーカーと共有できないため、サーバー内でクリーンアップする
	if st.memory {
		job := cleanup.NewCleanupJob(st.sessions, slog.Default(), mc)
		go job.Start(ctx, cleanupInterval(cfg))
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      newHandler(cfg, st, reg, mc),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen error: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 期限切れセッションの削除を定期実行し、ctxがキャンセルされるまでブロックする。
// WORKER_METRICS_PORT が設定されていれば削除件数などを/metricsで公開する。
func runWorker(ctx context.Context, cfg *config.Config) error {
	st, err := openStores(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.close()

	if st.memory {
		slog.Warn("worker has nothing to clean with the in-memory store")
	}

	reg := newRegistry()
	mc := metrics.NewCollector(reg)

	if cfg.WorkerMetricsPort != "" {
		server := &http.Server{
			Addr:              ":" + cfg.WorkerMetricsPort,
			Handler:           newWorkerMetricsHandler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("worker metrics server starting", slog.String("addr", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("worker metrics server failed", slog.String("error", err.Error()))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Warn("worker metrics server shutdown failed", slog.String("error", err.Error()))
			}
		}()
	}

	interval := cleanupInterval(cfg)
	slog.Info("worker starting",
		slog.Duration("cleanup_interval", interval),
	)

	job := cleanup.NewCleanupJob(st.sessions, slog.Default(), mc)
	job.Start(ctx, interval)

	slog.Info("worker stopped gracefully")
	return nil
}

// newWorkerMetricsHandler はワーカー用の/metricsだけを持つルーターを返す。
func newWorkerMetricsHandler(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", metrics.Handler(reg))
	return r
}

func cleanupInterval(cfg *config.Config) time.Duration {
	if cfg.SessionCleanupInterval <= 0 {
		return time.Hour
	}
	return cfg.SessionCleanupInterval
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == MemoryDatabaseURL {
		return errors.New("migrate requires a PostgreSQL DATABASE_URL")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
	)
	return nil
}

// runShell は対話シェルを起動する。
// 接続先は DIARYBOOK_API_URL、タイムアウトは DIARYBOOK_REQUEST_TIMEOUT で指定する。
func runShell(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	_ = godotenv.Load()
	logger.SetupDefault(errOut)

	cfg := config.LoadClient()
	logger.SetLevel(cfg.LogLevel)

	c, err := client.New(cfg.APIURL,
		client.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		client.WithLogger(slog.Default()),
	)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	sh := shell.New(c, in, out,
		shell.WithTimeout(cfg.RequestTimeout),
		shell.WithLogger(slog.Default()),
	)
	return sh.Run(ctx)
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(ctx context.Context, port string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	url := fmt.Sprintf("http://localhost:%s/health", port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
