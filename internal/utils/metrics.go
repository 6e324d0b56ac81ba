package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/RecoveryAshes/bducrawl/internal/models"
)

// MetricsObserver 将控制器事件汇总为prometheus指标
// 命令行工具没有常驻HTTP端点,运行结束时以node_exporter textfile格式写入文件
type MetricsObserver struct {
	models.NopObserver

	registry *prometheus.Registry
	path     string

	attempts *prometheus.CounterVec
	retries  prometheus.Counter
	records  prometheus.Counter
	missed   *prometheus.CounterVec
	visited  prometheus.Gauge
	runs     *prometheus.CounterVec
	duration prometheus.Gauge
	lastRun  prometheus.Gauge
}

// NewMetricsObserver 在独立的registry上注册指标; path为空时只统计不落盘
func NewMetricsObserver(path string) (*MetricsObserver, error) {
	o := &MetricsObserver{
		registry: prometheus.NewRegistry(),
		path:     path,
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bducrawl_fetch_attempts_total",
			Help: "Page fetch attempts partitioned by attempt kind.",
		}, []string{"kind"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bducrawl_retries_total",
			Help: "Transient failures that were retried.",
		}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bducrawl_records_total",
			Help: "Records collected.",
		}),
		missed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bducrawl_missed_urls_total",
			Help: "URLs written to the missed-URL ledger partitioned by reason.",
		}, []string{"reason"}),
		visited: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bducrawl_identifiers_visited",
			Help: "Identifiers visited by the last run.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bducrawl_runs_total",
			Help: "Finished runs partitioned by terminal state.",
		}, []string{"state"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bducrawl_run_duration_seconds",
			Help: "Wall time of the last run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bducrawl_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}

	for _, c := range []prometheus.Collector{
		o.attempts, o.retries, o.records, o.missed, o.visited, o.runs, o.duration, o.lastRun,
	} {
		if err := o.registry.Register(c); err != nil {
			return nil, fmt.Errorf("注册指标失败: %w", err)
		}
	}
	return o, nil
}

// Registry 指标所在的registry
func (o *MetricsObserver) Registry() *prometheus.Registry {
	return o.registry
}

func (o *MetricsObserver) AttemptStarted(_ string, _ string, attempt int) {
	kind := "first"
	if attempt > 1 {
		kind = "retry"
	}
	o.attempts.WithLabelValues(kind).Inc()
}

func (o *MetricsObserver) RetryScheduled(string, string, int, error, time.Duration) {
	o.retries.Inc()
}

func (o *MetricsObserver) RecordCollected(string, models.Record) {
	o.records.Inc()
}

func (o *MetricsObserver) URLMissed(_ string, _ string, reason models.MissReason) {
	o.missed.WithLabelValues(string(reason)).Inc()
}

func (o *MetricsObserver) RunFinished(result *models.RunResult) {
	o.visited.Set(float64(result.Visited))
	o.runs.WithLabelValues(string(result.State)).Inc()
	o.duration.Set(result.Duration().Seconds())
	o.lastRun.Set(float64(result.FinishedAt.Unix()))

	if err := o.Flush(); err != nil {
		Logger.Warn().Err(err).Str("path", o.path).Msg("写入指标文件失败")
	}
}

// Flush 写入textfile
func (o *MetricsObserver) Flush() error {
	if o.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(o.path), 0755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(o.path, o.registry)
}
