// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordCatalogBuild(itemCount int)
	RecordCatalogLatency(duration time.Duration)
	RecordUpstreamSuccess()
	RecordUpstreamFailure(reason string)
	RecordUpstreamStatus(statusCode int)
	RecordOTPIssued()
	RecordPinFailure()
	RecordNewsFetch(upserted int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	catalogBuilds   prometheus.Counter
	catalogItems    prometheus.Counter
	catalogLatency  prometheus.Histogram
	upstreamSuccess prometheus.Counter
	upstreamFail    *prometheus.CounterVec
	upstreamStatus  *prometheus.CounterVec
	otpIssued       prometheus.Counter
	pinFailures     prometheus.Counter
	newsUpserted    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		catalogBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediaman_catalog_builds_total",
			Help: "カタログパイプライン実行の合計数",
		}),
		catalogItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediaman_catalog_items_total",
			Help: "カタログパイプラインが出力した項目の合計数",
		}),
		catalogLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mediaman_catalog_latency_seconds",
			Help:    "受講権取得からカタログ構築完了までのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		upstreamSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediaman_upstream_success_total",
			Help: "受講権サービス呼び出し成功の合計数",
		}),
		upstreamFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mediaman_upstream_fail_total",
			Help: "受講権サービス呼び出し失敗の合計数",
		}, []string{"reason"}),
		upstreamStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mediaman_upstream_status_total",
			Help: "受講権サービスのHTTPステータスコード別レスポンス数",
		}, []string{"status_code"}),
		otpIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediaman_otp_issued_total",
			Help: "発行された再生OTPの合計数",
		}),
		pinFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediaman_pin_failures_total",
			Help: "PIN検証失敗の合計数",
		}),
		newsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediaman_news_upserted_total",
			Help: "アップサートされたお知らせ記事の合計数",
		}),
	}

	reg.MustRegister(
		c.catalogBuilds,
		c.catalogItems,
		c.catalogLatency,
		c.upstreamSuccess,
		c.upstreamFail,
		c.upstreamStatus,
		c.otpIssued,
		c.pinFailures,
		c.newsUpserted,
	)

	return c
}

// RecordCatalogBuild はカタログ構築の実行と出力項目数を記録する。
func (c *Collector) RecordCatalogBuild(itemCount int) {
	c.catalogBuilds.Inc()
	c.catalogItems.Add(float64(itemCount))
}

// RecordCatalogLatency はカタログ構築のレイテンシを記録する。
func (c *Collector) RecordCatalogLatency(duration time.Duration) {
	c.catalogLatency.Observe(duration.Seconds())
}

// RecordUpstreamSuccess は受講権サービス呼び出し成功を記録する。
func (c *Collector) RecordUpstreamSuccess() {
	c.upstreamSuccess.Inc()
}

// RecordUpstreamFailure は受講権サービス呼び出し失敗を記録する。
func (c *Collector) RecordUpstreamFailure(reason string) {
	c.upstreamFail.WithLabelValues(reason).Inc()
}

// RecordUpstreamStatus は受講権サービスのHTTPステータスコードを記録する。
func (c *Collector) RecordUpstreamStatus(statusCode int) {
	c.upstreamStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordOTPIssued は再生OTPの発行を記録する。
func (c *Collector) RecordOTPIssued() {
	c.otpIssued.Inc()
}

// RecordPinFailure はPIN検証失敗を記録する。
func (c *Collector) RecordPinFailure() {
	c.pinFailures.Inc()
}

// RecordNewsFetch はお知らせ記事のアップサート数を記録する。
func (c *Collector) RecordNewsFetch(upserted int) {
	c.newsUpserted.Add(float64(upserted))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
