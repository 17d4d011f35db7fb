package infrastructure

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Combination outcomes used as the outcome label
const (
	OutcomeDownloaded       = "downloaded"
	OutcomeTimeout          = "timeout"
	OutcomeActivationFailed = "activation_failed"
	OutcomeReshapeFailed    = "reshape_failed"
)

// CrawlMetrics holds the run counters on a private registry. A nil
// *CrawlMetrics is valid and records nothing.
type CrawlMetrics struct {
	registry *prometheus.Registry

	AgenciesProcessed prometheus.Counter
	Combinations      *prometheus.CounterVec
	Records           prometheus.Counter
	EnumeratorRetries prometheus.Counter
	DownloadWait      prometheus.Histogram
}

// NewCrawlMetrics creates and registers the run metrics
func NewCrawlMetrics() *CrawlMetrics {
	m := &CrawlMetrics{
		registry: prometheus.NewRegistry(),
		AgenciesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nation_agencies_processed_total",
			Help: "Funding agencies selected by the enumerator",
		}),
		Combinations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nation_combinations_total",
			Help: "Agency and company combinations by outcome",
		}, []string{"outcome"}),
		Records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nation_records_total",
			Help: "Tidy records appended to the fact table",
		}),
		EnumeratorRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nation_enumerator_retries_total",
			Help: "Failed enumeration attempts followed by recovery",
		}),
		DownloadWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nation_download_wait_seconds",
			Help:    "Time spent waiting for an export to land",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		}),
	}

	m.registry.MustRegister(
		m.AgenciesProcessed,
		m.Combinations,
		m.Records,
		m.EnumeratorRetries,
		m.DownloadWait,
	)
	return m
}

// Registry exposes the private registry
func (m *CrawlMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *CrawlMetrics) AgencyProcessed() {
	if m != nil {
		m.AgenciesProcessed.Inc()
	}
}

func (m *CrawlMetrics) Combination(outcome string) {
	if m != nil {
		m.Combinations.WithLabelValues(outcome).Inc()
	}
}

func (m *CrawlMetrics) RecordsAdded(n int) {
	if m != nil && n > 0 {
		m.Records.Add(float64(n))
	}
}

func (m *CrawlMetrics) EnumeratorRetry() {
	if m != nil {
		m.EnumeratorRetries.Inc()
	}
}

func (m *CrawlMetrics) ObserveDownloadWait(d time.Duration) {
	if m != nil {
		m.DownloadWait.Observe(d.Seconds())
	}
}

// WriteTextfile writes the registry in the node_exporter textfile format.
// An empty path is a no-op.
func (m *CrawlMetrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
