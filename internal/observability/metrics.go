package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransitionsTotal counts committed transitions by kind.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadspire_transitions_total",
		Help: "Total number of state transitions committed, by kind",
	}, []string{"kind"})

	// CommitsTotal counts store commits that changed the state.
	CommitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "threadspire_store_commits_total",
		Help: "Total number of store commits that replaced at least one state slice",
	})

	// MirrorWrites counts persistence mirror writes by key and outcome.
	MirrorWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadspire_mirror_writes_total",
		Help: "Total number of persistence mirror writes by key and status",
	}, []string{"key", "status"})

	// MirrorWriteLatency records how long a mirror write took.
	MirrorWriteLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "threadspire_mirror_write_latency_seconds",
		Help:    "Persistence mirror write latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"key"})

	// StorageErrors counts storage backend errors by driver and operation.
	StorageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadspire_storage_errors_total",
		Help: "Total number of storage backend errors by driver and operation",
	}, []string{"driver", "operation"})

	// RedisErrors counts failed redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadspire_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// EventsPublished counts change events published to the event channel.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadspire_events_published_total",
		Help: "Total number of change events published, by type",
	}, []string{"type"})
)

// TrackMirrorWrite returns a function that records write latency and outcome when called.
func TrackMirrorWrite(key string) func(err error) {
	start := time.Now()
	return func(err error) {
		MirrorWriteLatency.WithLabelValues(key).Observe(time.Since(start).Seconds())
		status := "ok"
		if err != nil {
			status = "error"
		}
		MirrorWrites.WithLabelValues(key, status).Inc()
	}
}
