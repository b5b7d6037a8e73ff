package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetric はレジストリから指定名・ラベルに一致するメトリクスを探す。
func findMetric(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, labels) {
				return m
			}
		}
	}
	return nil
}

func labelsMatch(m *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, lp := range m.GetLabel() {
		if want, ok := labels[lp.GetName()]; ok {
			if lp.GetValue() != want {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	if c := NewCollector(prometheus.NewRegistry()); c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordLogin_CountsByResult はログイン結果ごとにカウントされることを検証する。
func TestRecordLogin_CountsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin(ResultSuccess)
	c.RecordLogin(ResultSuccess)
	c.RecordLogin(ResultDenied)

	success := findMetric(t, reg, "gadash_login_total", map[string]string{"result": ResultSuccess})
	if success == nil || success.GetCounter().GetValue() != 2 {
		t.Errorf("success logins = %v, want 2", success)
	}
	denied := findMetric(t, reg, "gadash_login_total", map[string]string{"result": ResultDenied})
	if denied == nil || denied.GetCounter().GetValue() != 1 {
		t.Errorf("denied logins = %v, want 1", denied)
	}
}

// TestRecordReportFetch_CountsAndObservesLatency はレポート取得の件数とレイテンシが記録されることを検証する。
func TestRecordReportFetch_CountsAndObservesLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordReportFetch(ResultFailure, 250*time.Millisecond)

	m := findMetric(t, reg, "gadash_report_fetch_total", map[string]string{"result": ResultFailure})
	if m == nil || m.GetCounter().GetValue() != 1 {
		t.Errorf("failure fetches = %v, want 1", m)
	}
	h := findMetric(t, reg, "gadash_report_fetch_latency_seconds", nil)
	if h == nil {
		t.Fatal("expected latency histogram")
	}
	if h.GetHistogram().GetSampleCount() != 1 {
		t.Errorf("sample count = %d, want 1", h.GetHistogram().GetSampleCount())
	}
	if got := h.GetHistogram().GetSampleSum(); got < 0.24 || got > 0.26 {
		t.Errorf("sample sum = %v, want ~0.25", got)
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabels はメソッド・ステータスコードのラベル付きで記録されることを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(http.MethodGet, 302)
	c.RecordHTTPStatus(http.MethodGet, 302)
	c.RecordHTTPStatus(http.MethodPost, 500)

	m := findMetric(t, reg, "gadash_http_requests_total", map[string]string{"method": "GET", "status_code": "302"})
	if m == nil || m.GetCounter().GetValue() != 2 {
		t.Errorf("GET 302 = %v, want 2", m)
	}
	m = findMetric(t, reg, "gadash_http_requests_total", map[string]string{"method": "POST", "status_code": "500"})
	if m == nil || m.GetCounter().GetValue() != 1 {
		t.Errorf("POST 500 = %v, want 1", m)
	}
}

// TestRecordSessionsPurged_AddsCount は削除件数が加算されることを検証する。
func TestRecordSessionsPurged_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionsPurged(3)
	c.RecordSessionsPurged(0)

	m := findMetric(t, reg, "gadash_sessions_purged_total", nil)
	if m == nil || m.GetCounter().GetValue() != 3 {
		t.Errorf("purged = %v, want 3", m)
	}
}

// TestMetricsHandler_ReturnsPrometheusFormat はハンドラーがPrometheus形式で出力することを検証する。
func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordLogin(ResultSuccess)

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `gadash_login_total{result="success"} 1`) {
		t.Errorf("body should contain login counter, got:\n%s", body)
	}
}

// TestMultipleCollectors_IndependentRegistries は別レジストリのCollectorが干渉しないことを検証する。
func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	c1 := NewCollector(reg1)
	_ = NewCollector(reg2)

	c1.RecordSessionsPurged(5)

	if m := findMetric(t, reg2, "gadash_sessions_purged_total", nil); m == nil || m.GetCounter().GetValue() != 0 {
		t.Errorf("reg2 purged = %v, want 0", m)
	}
}
