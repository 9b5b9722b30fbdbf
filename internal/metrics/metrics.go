// Package metrics はレポート作成に関するPrometheusメトリクスを提供する
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reaction_indexer"

// レポート結果のラベル値
const (
	ResultOK        = "ok"
	ResultDegraded  = "degraded"
	ResultMalformed = "malformed"
	ResultError     = "error"
)

// Metrics はアプリケーションのメトリクスをまとめたもの
// レジストリはインスタンスごとに独立している
type Metrics struct {
	registry       *prometheus.Registry
	reports        *prometheus.CounterVec
	reportDuration prometheus.Histogram
	truncations    *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
}

// New はメトリクスを作成して登録する
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "作成したレポートの数（結果別）",
		}, []string{"result"}),
		reportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "レポート作成にかかった時間",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		truncations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pagination_truncations_total",
			Help:      "取得エラーで打ち切られたページングの数",
		}, []string{"resource"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "キャッシュの参照回数（hit/miss）",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.reports,
		m.reportDuration,
		m.truncations,
		m.cacheLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveReport はレポート1件の結果と所要時間を記録する
func (m *Metrics) ObserveReport(result string, elapsed time.Duration) {
	m.reports.WithLabelValues(result).Inc()
	m.reportDuration.Observe(elapsed.Seconds())
}

// PaginationTruncated は pagination.TruncationObserver の実装
func (m *Metrics) PaginationTruncated(resource string) {
	m.truncations.WithLabelValues(resource).Inc()
}

// CacheHit は cache.Observer の実装
func (m *Metrics) CacheHit() {
	m.cacheLookups.WithLabelValues("hit").Inc()
}

// CacheMiss は cache.Observer の実装
func (m *Metrics) CacheMiss() {
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// Handler は /metrics 用のHTTPハンドラを返す
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry はテストや追加のコレクタ登録用にレジストリを返す
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
