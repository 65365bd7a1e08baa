package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/taskdeck/internal/metrics"
)

// Sweeper は一定周期で期限切れ通知を削除するバックグラウンドジョブ。
// 1秒周期のポーリングで経過時間がTTL以上のエントリを走査・削除する。
// コンテキストのキャンセルで停止し、タイマーをリークしない。
type Sweeper struct {
	queue     *Queue
	ttl       time.Duration
	logger    *slog.Logger
	collector metrics.Collector
}

// NewSweeper はSweeperを生成する。
func NewSweeper(queue *Queue, ttl time.Duration, logger *slog.Logger, collector metrics.Collector) *Sweeper {
	return &Sweeper{
		queue:     queue,
		ttl:       ttl,
		logger:    logger,
		collector: collector,
	}
}

// Start は指定間隔のティッカーでスイーパーを起動する。
// コンテキストがキャンセルされるまで実行を継続する（ブロッキング）。
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("通知スイーパーを開始しました",
		slog.Duration("interval", interval),
		slog.Duration("ttl", s.ttl),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("通知スイーパーを停止しました")
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}

// RunOnce は期限切れ通知を1回走査して削除する。
// 冪等: 削除対象がない場合は何もしない。
func (s *Sweeper) RunOnce() {
	expired := s.queue.expire(time.Now(), s.ttl)
	if expired == 0 {
		return
	}

	s.collector.RecordNotificationsExpired(expired)
	s.logger.Info("期限切れ通知を削除しました",
		slog.Int("expired_count", expired),
		slog.Int("remaining_count", s.queue.Len()),
	)
}
