// Package app はサブコマンドの解析から依存関係のワイヤリング、
// コマンドの実行までを担う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/taskdeck/internal/api"
	"github.com/hitoshi/taskdeck/internal/auth"
	"github.com/hitoshi/taskdeck/internal/config"
	"github.com/hitoshi/taskdeck/internal/derive"
	"github.com/hitoshi/taskdeck/internal/logger"
	"github.com/hitoshi/taskdeck/internal/metrics"
	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/security"
	"github.com/hitoshi/taskdeck/internal/session"
	"github.com/hitoshi/taskdeck/internal/view"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// 一覧出力は標準出力を使うため、ログはwriter（通常は標準エラー）に出す。
func Init(w io.Writer) (*config.Config, error) {
	logger.SetupDefault(w, slog.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// deps はコマンド実行に必要な依存関係の束。
type deps struct {
	cfg       *config.Config
	store     session.Store
	registry  *prometheus.Registry
	collector metrics.Collector
	auth      *auth.Service
	client    *api.Client
	builder   *view.Builder

	// closer はセッションストアの後始末。fileバックエンドではnil。
	closer func() error
}

func (d *deps) close() {
	if d.closer != nil {
		if err := d.closer(); err != nil {
			slog.Error("セッションストアのクローズに失敗しました",
				slog.String("error", err.Error()),
			)
		}
	}
}

// newDeps は設定から全依存関係をワイヤリングする。
// セッションストアは起動時に1回読み込み、以後メモリ上のスナップショット
// を介して参照される。
func newDeps(cfg *config.Config) (*deps, error) {
	d := &deps{cfg: cfg}

	// 1. セッションストア
	switch cfg.SessionStoreBackend {
	case config.SessionBackendSQLite:
		store, err := session.NewSQLiteStore(cfg.SessionStorePath)
		if err != nil {
			return nil, fmt.Errorf("セッションストアの初期化に失敗しました: %w", err)
		}
		d.store = store
		d.closer = store.Close
	default:
		d.store = session.NewFileStore(cfg.SessionStorePath)
	}

	if _, err := d.store.Load(); err != nil {
		d.close()
		return nil, fmt.Errorf("セッションの読み込みに失敗しました: %w", err)
	}

	// 2. HTTPクライアントとリクエストゲートウェイ
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestRate), cfg.RequestBurst)

	d.registry = prometheus.NewRegistry()
	d.collector = metrics.NewCollector(d.registry)

	gw := api.NewGateway(cfg.APIBaseURL, httpClient, d.store, limiter, d.collector, slog.Default())
	gw.SetOnSessionInvalid(func() {
		slog.Warn("セッションが無効になりました。taskdeck login で再ログインしてください")
	})

	// 3. ドメインサービス
	d.client = api.NewClient(gw)
	d.auth = auth.NewService(cfg.APIBaseURL, httpClient, d.store)
	d.builder = view.NewBuilder(security.NewTextSanitizer())

	return d, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するコマンドを実行する。
// argsにはos.Args[1:]を渡す。一覧などの出力はwに書き出す。
func Run(w io.Writer, errW io.Writer, args []string) error {
	cmd := ParseCommand(args)

	cfg, err := Init(errW)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	d, err := newDeps(cfg)
	if err != nil {
		return err
	}
	defer d.close()

	var rest []string
	if len(args) > 0 {
		rest = args[1:]
	}

	ctx := context.Background()

	switch cmd {
	case CommandLogin:
		return runLogin(ctx, d, w, rest)
	case CommandLogout:
		return runLogout(d, w)
	case CommandRegister:
		return runRegister(ctx, d, w, rest)
	case CommandWhoami:
		return runWhoami(d, w)
	case CommandTasks:
		return runTasks(ctx, d, w, rest)
	case CommandReports:
		return runReports(ctx, d, w, rest)
	case CommandWatch:
		return runWatch(d)
	default:
		return runProjects(ctx, d, w, rest)
	}
}

// runLogin はログインを実行する。引数: <email> <password>
func runLogin(ctx context.Context, d *deps, w io.Writer, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: taskdeck login <email> <password>")
	}

	creds, err := d.auth.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "ログインしました: %s (%s)\n", creds.User.Name, creds.User.Role)
	return nil
}

func runLogout(d *deps, w io.Writer) error {
	if err := d.auth.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(w, "ログアウトしました")
	return nil
}

// runRegister はユーザー登録を実行する。
// 引数: <name> <email> <password> <confirm> <role>
func runRegister(ctx context.Context, d *deps, w io.Writer, args []string) error {
	if len(args) < 5 {
		return fmt.Errorf("usage: taskdeck register <name> <email> <password> <confirm-password> <manager|team_member>")
	}

	err := d.auth.Register(ctx, auth.RegisterRequest{
		Name:            args[0],
		Email:           args[1],
		Password:        args[2],
		ConfirmPassword: args[3],
		Role:            args[4],
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "登録が完了しました: %s\n", args[1])
	return nil
}

func runWhoami(d *deps, w io.Writer) error {
	user, err := d.auth.CurrentUser()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\t%s\t%s\n", user.ID, user.Name, user.Role)
	return nil
}

// listOptions は一覧コマンド共通のフィルタ・ソート指定。
// 引数は <filter> <sortKey> の順の位置引数で、省略可能。
type listOptions struct {
	filter  string
	sortKey string
}

func parseListOptions(args []string) listOptions {
	var opts listOptions
	if len(args) > 0 {
		opts.filter = args[0]
	}
	if len(args) > 1 {
		opts.sortKey = args[1]
	}
	return opts
}

// runProjects はプロジェクト一覧を表示する。
// 引数: [status] [name|endDate|status]
func runProjects(ctx context.Context, d *deps, w io.Writer, args []string) error {
	opts := parseListOptions(args)

	projects, err := d.client.ListProjects(ctx)
	if err != nil {
		return err
	}

	views := d.builder.ProjectList(projects, opts.filter, opts.sortKey, timeNow())
	for _, v := range views {
		marker := ""
		if v.IsOverdue {
			marker = "\t[期限超過]"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t残り%d日%s\n", v.ID, v.Name, v.Status, v.RemainingDays, marker)
	}
	return nil
}

// runTasks はタスク一覧を表示する。
// 引数: [priority] [title|dueDate|priority|status]
func runTasks(ctx context.Context, d *deps, w io.Writer, args []string) error {
	opts := parseListOptions(args)

	tasks, err := d.client.ListTasks(ctx)
	if err != nil {
		return err
	}

	views := d.builder.TaskList(tasks, opts.filter, opts.sortKey, timeNow())
	for _, v := range views {
		marker := ""
		if v.IsOverdue {
			marker = "\t[期限超過]"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t残り%d日%s\n", v.ID, v.Title, v.Priority, v.Status, v.RemainingDays, marker)
	}
	return nil
}

// runReports はプロジェクトの進捗レポートと予算レポートを表示する。
// 引数: <project-id>
func runReports(ctx context.Context, d *deps, w io.Writer, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: taskdeck reports <project-id>")
	}
	projectID := args[0]

	progress, err := d.client.GetProjectProgressReport(ctx, projectID)
	if err != nil {
		return err
	}
	printReport(w, progress)

	budget, err := d.client.GetBudgetUtilizationReport(ctx, projectID)
	if err != nil {
		return err
	}
	printReport(w, budget)

	return nil
}

// timeNow はテストで固定時刻に差し替えるための関数変数。
var timeNow = time.Now

// recomputeReport はレポートの計算フィールドを入力フィールドから
// 再導出する。
func recomputeReport(report *model.Report) {
	derive.Recompute(&report.Data, report.Type)
}

// printReport はレポートの計算フィールドを整形して出力する。
// 計算フィールドは表示前に入力フィールドから再導出する。
func printReport(w io.Writer, report *model.Report) {
	recomputeReport(report)

	switch report.Type {
	case model.ReportProgress:
		fmt.Fprintf(w, "進捗: %d%% (残タスク %d)\n",
			report.Data.ProgressPercentage, report.Data.RemainingTasks)
	case model.ReportBudgetUtilization:
		fmt.Fprintf(w, "予算消化: %d%% (残予算 %.2f)\n",
			report.Data.UtilizationPercentage, report.Data.RemainingBudget)
	default:
		fmt.Fprintf(w, "レポート: %s (%s)\n", report.ID, report.Type)
	}
}
