package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	total := 0.0
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

// TestRecordRequest_IncrementsCounter はリクエストカウンタが増加することを検証する。
func TestRecordRequest_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequest(http.MethodGet, 200)
	c.RecordRequest(http.MethodGet, 200)
	c.RecordRequest(http.MethodPost, 401)

	if got := counterValue(t, reg, "taskdeck_request_total"); got != 3 {
		t.Errorf("request_total = %v, want 3", got)
	}
}

// TestRecordTokenRefresh_LabelsByResult は結果別ラベルで記録されることを検証する。
func TestRecordTokenRefresh_LabelsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTokenRefresh(true)
	c.RecordTokenRefresh(false)
	c.RecordTokenRefresh(false)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() != "taskdeck_token_refresh_total" {
			continue
		}
		found = true
		for _, m := range mf.GetMetric() {
			val := m.GetCounter().GetValue()
			for _, l := range m.GetLabel() {
				switch l.GetValue() {
				case "success":
					if val != 1 {
						t.Errorf("success count = %v, want 1", val)
					}
				case "failure":
					if val != 2 {
						t.Errorf("failure count = %v, want 2", val)
					}
				}
			}
		}
	}
	if !found {
		t.Fatal("taskdeck_token_refresh_total not found")
	}
}

// TestRecordForcedLogout_IncrementsCounter は強制ログアウトカウンタを検証する。
func TestRecordForcedLogout_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordForcedLogout()

	if got := counterValue(t, reg, "taskdeck_forced_logout_total"); got != 1 {
		t.Errorf("forced_logout_total = %v, want 1", got)
	}
}

// TestRecordNotificationsExpired_AddsCount は失効通知数の加算を検証する。
func TestRecordNotificationsExpired_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordNotificationsExpired(3)
	c.RecordNotificationsExpired(2)

	if got := counterValue(t, reg, "taskdeck_notifications_expired_total"); got != 5 {
		t.Errorf("notifications_expired_total = %v, want 5", got)
	}
}

// TestHandler_ServesRegisteredMetrics は/metricsハンドラーが登録済みメトリクスを
// 出力することを検証する。
func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequest(http.MethodGet, 200)
	c.RecordRequestLatency(120 * time.Millisecond)

	server := httptest.NewServer(Handler(reg))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("failed to scrape metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	out := string(body)
	if !strings.Contains(out, "taskdeck_request_total") {
		t.Error("expected taskdeck_request_total in scrape output")
	}
	if !strings.Contains(out, "taskdeck_request_latency_seconds") {
		t.Error("expected taskdeck_request_latency_seconds in scrape output")
	}
}
