package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/notify"
)

// runWatch は常駐モードで起動する。
// 通知キューのスイーパーと定期リフレッシュのティッカーを回し、
// ステータスサーバーで /health /metrics /notifications を公開する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runWatch(d *deps) error {
	queue := notify.NewQueue()
	sweeper := notify.NewSweeper(queue, d.cfg.NotificationTTL, slog.Default(), d.collector)

	// 強制ログアウト時はログに加えて通知を積む
	d.client.Gateway().SetOnSessionInvalid(func() {
		queue.Add("セッションが無効になりました。再ログインしてください", model.NotifyError)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down watch mode...")
		cancel()
	}()

	// 1. スイーパーをバックグラウンドで起動
	go sweeper.Start(ctx, d.cfg.NotificationSweep)

	// 2. ステータスサーバーの起動
	server := &http.Server{
		Addr:         d.cfg.StatusAddr,
		Handler:      newStatusRouter(queue, d.registry),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("status server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("status server listen error", slog.String("error", err.Error()))
		}
	}()

	slog.Info("watch mode starting",
		slog.Duration("interval", d.cfg.WatchInterval),
		slog.Duration("notification_ttl", d.cfg.NotificationTTL),
	)

	// 3. 定期リフレッシュをメインgoroutineで実行（ブロッキング）
	// 起動直後に1回実行し、以後はWatchIntervalごとに繰り返す
	refreshOnce(ctx, d, queue)

	ticker := time.NewTicker(d.cfg.WatchInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			refreshOnce(ctx, d, queue)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status server shutdown failed: %w", err)
	}

	slog.Info("watch mode stopped gracefully")
	return nil
}

// refreshOnce はプロジェクトとタスクを取得しビューを構築する。
// 失敗した取得ごとにちょうど1件のエラー通知を積み、成功時は期限超過の
// 件数に応じて通知を積む。
func refreshOnce(ctx context.Context, d *deps, queue *notify.Queue) {
	now := timeNow()

	projects, err := d.client.ListProjects(ctx)
	if err != nil {
		slog.Error("プロジェクトの取得に失敗しました", slog.String("error", err.Error()))
		queue.Add("プロジェクトの取得に失敗しました", model.NotifyError)
	} else {
		views := d.builder.ProjectViews(projects, now)
		overdue := 0
		for _, v := range views {
			if v.IsOverdue {
				overdue++
			}
		}
		slog.Info("プロジェクトを更新しました",
			slog.Int("count", len(views)),
			slog.Int("overdue", overdue),
		)
		if overdue > 0 {
			queue.Add(fmt.Sprintf("期限超過のプロジェクトが%d件あります", overdue), model.NotifyInfo)
		}
	}

	tasks, err := d.client.ListTasks(ctx)
	if err != nil {
		slog.Error("タスクの取得に失敗しました", slog.String("error", err.Error()))
		queue.Add("タスクの取得に失敗しました", model.NotifyError)
		return
	}

	views := d.builder.TaskViews(tasks, now)
	overdue := 0
	for _, v := range views {
		if v.IsOverdue {
			overdue++
		}
	}
	slog.Info("タスクを更新しました",
		slog.Int("count", len(views)),
		slog.Int("overdue", overdue),
	)
	if overdue > 0 {
		queue.Add(fmt.Sprintf("期限超過のタスクが%d件あります", overdue), model.NotifyInfo)
	}
}
