package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter slot.
type MetricID uint16

const (
	MetricSessionCreated MetricID = iota
	MetricSessionEnded
	MetricSessionExpired
	MetricSessionLimitExceeded
	MetricFlowStarted
	MetricLinkOpened
	MetricForegroundLost
	MetricVerifyRejected
	MetricCheckpointVerified
	MetricKeyIssued
	MetricKeyIssueFailed
	MetricFlowReset
	MetricAdminLoginSuccess
	MetricAdminLoginFailure
	MetricAdminLoginRateLimited
	MetricConfigUpdated
	MetricConfigRejected
	MetricConfigPersistFailed
	MetricFlowDuration

	MetricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type histogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Config toggles collection. EnableFlowHistogram has no effect unless
// Enabled is set.
type Config struct {
	Enabled             bool
	EnableFlowHistogram bool
}

// Metrics holds atomic counters and the flow duration histogram.
type Metrics struct {
	enabled    bool
	enableHist bool
	counters   [MetricIDCount]paddedCounter
	histograms [MetricIDCount]histogram
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// New returns a Metrics. When cfg.Enabled is false every method is a no-op.
func New(cfg Config) *Metrics {
	return &Metrics{
		enabled:    cfg.Enabled,
		enableHist: cfg.Enabled && cfg.EnableFlowHistogram,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) HistogramEnabled() bool {
	return m != nil && m.enableHist
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d against the flow duration histogram. Other ids are
// ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableHist || id != MetricFlowDuration {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[BucketIndex(d)], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() Snapshot {
	if m == nil || !m.enabled {
		return Snapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := Snapshot{
		Counters:   make(map[MetricID]uint64, int(MetricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		if id == MetricFlowDuration {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableHist {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricFlowDuration].buckets[i])
		}
		s.Histograms[MetricFlowDuration] = buckets
	}
	return s
}

// BucketIndex maps a flow duration to its histogram bucket. Upper bounds
// are 5s, 10s, 15s, 30s, 60s, 120s, 300s and +Inf.
func BucketIndex(d time.Duration) int {
	s := d.Seconds()

	switch {
	case s <= 5:
		return 0
	case s <= 10:
		return 1
	case s <= 15:
		return 2
	case s <= 30:
		return 3
	case s <= 60:
		return 4
	case s <= 120:
		return 5
	case s <= 300:
		return 6
	default:
		return 7
	}
}
