// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 結果ラベルの値。
const (
	ResultSuccess = "success"
	ResultDenied  = "denied"
	ResultFailure = "failure"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやワーカーから利用する。
type MetricsCollector interface {
	RecordLogin(result string)
	RecordReportFetch(result string, duration time.Duration)
	RecordHTTPStatus(method string, statusCode int)
	RecordSessionsPurged(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins         *prometheus.CounterVec
	reportFetches  *prometheus.CounterVec
	reportLatency  prometheus.Histogram
	httpStatus     *prometheus.CounterVec
	sessionsPurged prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gadash_login_total",
			Help: "OAuthコールバックの処理結果別の件数",
		}, []string{"result"}),
		reportFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gadash_report_fetch_total",
			Help: "Analyticsレポート取得の結果別の件数",
		}, []string{"result"}),
		reportLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gadash_report_fetch_latency_seconds",
			Help:    "Analyticsレポート取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gadash_http_requests_total",
			Help: "メソッド・ステータスコード別のレスポンス数",
		}, []string{"method", "status_code"}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gadash_sessions_purged_total",
			Help: "期限切れで削除されたセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.logins,
		c.reportFetches,
		c.reportLatency,
		c.httpStatus,
		c.sessionsPurged,
	)

	return c
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordReportFetch はレポート取得の結果とレイテンシを記録する。
func (c *Collector) RecordReportFetch(result string, duration time.Duration) {
	c.reportFetches.WithLabelValues(result).Inc()
	c.reportLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(method string, statusCode int) {
	c.httpStatus.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
}

// RecordSessionsPurged は削除されたセッション数を記録する。
func (c *Collector) RecordSessionsPurged(count int64) {
	c.sessionsPurged.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。
type NopCollector struct{}

func (NopCollector) RecordLogin(string)                      {}
func (NopCollector) RecordReportFetch(string, time.Duration) {}
func (NopCollector) RecordHTTPStatus(string, int)            {}
func (NopCollector) RecordSessionsPurged(int64)              {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
