package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/repo-gallery/backend-go/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "gallery"

// Metrics exports cache, content store and upload counters. A nil *Metrics is a no-op.
type Metrics struct {
	cacheLookups  *prometheus.CounterVec
	storeCalls    *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
	uploads       *prometheus.CounterVec
	uploadedBytes prometheus.Counter
}

// New registers the gallery collectors on reg (the default registerer when nil).
func New(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_cache_lookups_total",
			Help:      "Listing cache lookups by result.",
		}, []string{"result"}),
		storeCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_calls_total",
			Help:      "Content store calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_call_duration_seconds",
			Help:      "Latency of content store calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Image uploads by outcome.",
		}, []string{"outcome"}),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Cumulative payload size successfully written to the content store.",
		}),
	}

	var err error
	if m.cacheLookups, err = registerOrReuse(reg, m.cacheLookups); err != nil {
		return nil, err
	}
	if m.storeCalls, err = registerOrReuse(reg, m.storeCalls); err != nil {
		return nil, err
	}
	if m.storeDuration, err = registerOrReuse(reg, m.storeDuration); err != nil {
		return nil, err
	}
	if m.uploads, err = registerOrReuse(reg, m.uploads); err != nil {
		return nil, err
	}
	if m.uploadedBytes, err = registerOrReuse(reg, m.uploadedBytes); err != nil {
		return nil, err
	}
	return m, nil
}

func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	if err := reg.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return collector, fmt.Errorf("register gallery metric: %w", err)
	}
	return collector, nil
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues("hit").Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// ObserveStoreCall implements storage.CallObserver.
func (m *Metrics) ObserveStoreCall(op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = storage.KindOf(err).String()
	}
	m.storeCalls.WithLabelValues(op, outcome).Inc()
	m.storeDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Upload records one upload attempt. size is only counted for successful uploads.
func (m *Metrics) Upload(outcome string, size int64) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome).Inc()
	if outcome == "ok" && size > 0 {
		m.uploadedBytes.Add(float64(size))
	}
}

var _ storage.CallObserver = (*Metrics)(nil)
