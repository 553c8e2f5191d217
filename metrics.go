package goGate

import (
	internalmetrics "github.com/MrEthical07/goGate/internal/metrics"
)

// MetricID identifies a specific counter or histogram in the in-process
// metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricSessionCreated counts sessions added to the registry.
	MetricSessionCreated = MetricID(internalmetrics.MetricSessionCreated)
	// MetricSessionEnded counts sessions removed by EndSession.
	MetricSessionEnded = MetricID(internalmetrics.MetricSessionEnded)
	// MetricSessionExpired counts sessions evicted for idleness.
	MetricSessionExpired = MetricID(internalmetrics.MetricSessionExpired)
	// MetricSessionLimitExceeded counts CreateSession calls refused by MaxSessions.
	MetricSessionLimitExceeded = MetricID(internalmetrics.MetricSessionLimitExceeded)
	// MetricFlowStarted counts Welcome to first checkpoint (or Issued) transitions.
	MetricFlowStarted = MetricID(internalmetrics.MetricFlowStarted)
	// MetricLinkOpened counts checkpoint link opens, including retries.
	MetricLinkOpened = MetricID(internalmetrics.MetricLinkOpened)
	// MetricForegroundLost counts the first foreground-loss report of each cycle.
	MetricForegroundLost = MetricID(internalmetrics.MetricForegroundLost)
	// MetricVerifyRejected counts Verify calls rejected with ErrLinkNotOpened.
	MetricVerifyRejected = MetricID(internalmetrics.MetricVerifyRejected)
	// MetricCheckpointVerified counts verified checkpoints.
	MetricCheckpointVerified = MetricID(internalmetrics.MetricCheckpointVerified)
	// MetricKeyIssued counts issued keys.
	MetricKeyIssued = MetricID(internalmetrics.MetricKeyIssued)
	// MetricKeyIssueFailed counts issuance attempts that failed on the random source.
	MetricKeyIssueFailed = MetricID(internalmetrics.MetricKeyIssueFailed)
	// MetricFlowReset counts Issued to Welcome resets.
	MetricFlowReset = MetricID(internalmetrics.MetricFlowReset)
	// MetricAdminLoginSuccess counts successful admin logins.
	MetricAdminLoginSuccess = MetricID(internalmetrics.MetricAdminLoginSuccess)
	// MetricAdminLoginFailure counts admin logins with a wrong secret.
	MetricAdminLoginFailure = MetricID(internalmetrics.MetricAdminLoginFailure)
	// MetricAdminLoginRateLimited counts admin logins refused by the limiter.
	MetricAdminLoginRateLimited = MetricID(internalmetrics.MetricAdminLoginRateLimited)
	// MetricConfigUpdated counts accepted configuration replacements.
	MetricConfigUpdated = MetricID(internalmetrics.MetricConfigUpdated)
	// MetricConfigRejected counts configuration replacements that failed validation.
	MetricConfigRejected = MetricID(internalmetrics.MetricConfigRejected)
	// MetricConfigPersistFailed counts accepted replacements that could not be saved.
	MetricConfigPersistFailed = MetricID(internalmetrics.MetricConfigPersistFailed)
	// MetricFlowDuration is the histogram of Start to key issuance.
	MetricFlowDuration = MetricID(internalmetrics.MetricFlowDuration)

	metricIDCount = internalmetrics.MetricIDCount
)

// Metrics holds atomic counters and the optional flow duration histogram.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:             cfg.Enabled,
		EnableFlowHistogram: cfg.EnableFlowHistogram,
	})
}
