// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はメトリクス収集のインターフェース。
// APIゲートウェイと通知スイーパーから利用する。
type Collector interface {
	RecordRequest(method string, statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordTokenRefresh(success bool)
	RecordForcedLogout()
	RecordNotificationsExpired(count int)
}

// PromCollector はPrometheusメトリクスを収集する実装。
type PromCollector struct {
	requests             *prometheus.CounterVec
	requestLatency       prometheus.Histogram
	tokenRefresh         *prometheus.CounterVec
	forcedLogout         prometheus.Counter
	notificationsExpired prometheus.Counter
}

// NewCollector は新しいPromCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *PromCollector {
	c := &PromCollector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_request_total",
			Help: "バックエンドへのAPIリクエスト数（メソッド・ステータスコード別）",
		}, []string{"method", "status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskdeck_request_latency_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		tokenRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_token_refresh_total",
			Help: "トークンリフレッシュの試行数（結果別）",
		}, []string{"result"}),
		forcedLogout: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskdeck_forced_logout_total",
			Help: "リフレッシュ失敗による強制ログアウトの合計数",
		}),
		notificationsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskdeck_notifications_expired_total",
			Help: "TTL経過により自動失効した通知の合計数",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.requestLatency,
		c.tokenRefresh,
		c.forcedLogout,
		c.notificationsExpired,
	)

	return c
}

// RecordRequest はAPIリクエストの完了を記録する。
func (c *PromCollector) RecordRequest(method string, statusCode int) {
	c.requests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はAPIリクエストのレイテンシを記録する。
func (c *PromCollector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordTokenRefresh はトークンリフレッシュの試行を記録する。
func (c *PromCollector) RecordTokenRefresh(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.tokenRefresh.WithLabelValues(result).Inc()
}

// RecordForcedLogout は強制ログアウトを記録する。
func (c *PromCollector) RecordForcedLogout() {
	c.forcedLogout.Inc()
}

// RecordNotificationsExpired は自動失効した通知数を記録する。
func (c *PromCollector) RecordNotificationsExpired(count int) {
	c.notificationsExpired.Add(float64(count))
}

// Noop は何も記録しないCollector実装。テストおよび一回限りのコマンドで使用する。
type Noop struct{}

func (Noop) RecordRequest(string, int)          {}
func (Noop) RecordRequestLatency(time.Duration) {}
func (Noop) RecordTokenRefresh(bool)            {}
func (Noop) RecordForcedLogout()                {}
func (Noop) RecordNotificationsExpired(int)     {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
