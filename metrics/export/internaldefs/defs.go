package internaldefs

import (
	goGate "github.com/MrEthical07/goGate"
)

// CounterDef maps a counter to its exported name.
type CounterDef struct {
	ID   goGate.MetricID
	Name string
	Help string
}

// HistogramDef maps a histogram to its exported name.
type HistogramDef struct {
	ID   goGate.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter, in exposition order.
var CounterDefs = []CounterDef{
	{ID: goGate.MetricSessionCreated, Name: "gogate_session_created_total", Help: "Created gate sessions."},
	{ID: goGate.MetricSessionEnded, Name: "gogate_session_ended_total", Help: "Sessions ended by the client."},
	{ID: goGate.MetricSessionExpired, Name: "gogate_session_expired_total", Help: "Sessions evicted after idling."},
	{ID: goGate.MetricSessionLimitExceeded, Name: "gogate_session_limit_exceeded_total", Help: "Session creations refused by the registry cap."},
	{ID: goGate.MetricFlowStarted, Name: "gogate_flow_started_total", Help: "Passes started from the welcome step."},
	{ID: goGate.MetricLinkOpened, Name: "gogate_link_opened_total", Help: "Checkpoint links opened, including retries."},
	{ID: goGate.MetricForegroundLost, Name: "gogate_foreground_lost_total", Help: "Foreground-loss reports recorded."},
	{ID: goGate.MetricVerifyRejected, Name: "gogate_verify_rejected_total", Help: "Verifications rejected because the link was not opened."},
	{ID: goGate.MetricCheckpointVerified, Name: "gogate_checkpoint_verified_total", Help: "Checkpoints verified."},
	{ID: goGate.MetricKeyIssued, Name: "gogate_key_issued_total", Help: "Keys issued."},
	{ID: goGate.MetricKeyIssueFailed, Name: "gogate_key_issue_failed_total", Help: "Key issuance attempts that failed on the random source."},
	{ID: goGate.MetricFlowReset, Name: "gogate_flow_reset_total", Help: "Issued sessions reset to welcome."},
	{ID: goGate.MetricAdminLoginSuccess, Name: "gogate_admin_login_success_total", Help: "Successful admin logins."},
	{ID: goGate.MetricAdminLoginFailure, Name: "gogate_admin_login_failure_total", Help: "Admin logins with a wrong secret."},
	{ID: goGate.MetricAdminLoginRateLimited, Name: "gogate_admin_login_rate_limited_total", Help: "Rate-limited admin logins."},
	{ID: goGate.MetricConfigUpdated, Name: "gogate_config_updated_total", Help: "Accepted configuration replacements."},
	{ID: goGate.MetricConfigRejected, Name: "gogate_config_rejected_total", Help: "Configuration replacements that failed validation."},
	{ID: goGate.MetricConfigPersistFailed, Name: "gogate_config_persist_failed_total", Help: "Accepted configurations that could not be persisted."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goGate.MetricFlowDuration, Name: "gogate_flow_duration_seconds", Help: "Time from start to key issuance."},
}

// HistogramBounds are the bucket upper bounds, in seconds, as rendered in
// the le label.
var HistogramBounds = []string{
	"5",
	"10",
	"15",
	"30",
	"60",
	"120",
	"300",
	"+Inf",
}

// HistogramBoundSuffix names each bucket for exporters that publish buckets
// as separate instruments.
var HistogramBoundSuffix = []string{
	"5",
	"10",
	"15",
	"30",
	"60",
	"120",
	"300",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
