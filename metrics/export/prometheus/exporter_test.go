package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goGate "github.com/MrEthical07/goGate"
)

type fakeSource struct {
	snapshot goGate.MetricsSnapshot
	dropped  uint64
	sessions int
}

func (f fakeSource) MetricsSnapshot() goGate.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                    { return f.dropped }
func (f fakeSource) SessionCount() int                       { return f.sessions }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goGate.MetricsSnapshot{
			Counters:   map[goGate.MetricID]uint64{},
			Histograms: map[goGate.MetricID][]uint64{},
		},
		sessions: 3,
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCounterHistogramAndGauge(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goGate.MetricsSnapshot{
			Counters: map[goGate.MetricID]uint64{
				goGate.MetricKeyIssued: 7,
			},
			Histograms: map[goGate.MetricID][]uint64{
				goGate.MetricFlowDuration: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped:  2,
		sessions: 4,
	})

	out := exp.Render()
	for _, want := range []string{
		"gogate_key_issued_total 7",
		"gogate_verify_rejected_total 0",
		"gogate_flow_duration_seconds_bucket{le=\"5\"} 1",
		"gogate_flow_duration_seconds_bucket{le=\"10\"} 3",
		"gogate_flow_duration_seconds_bucket{le=\"+Inf\"} 36",
		"gogate_flow_duration_seconds_count 36",
		"gogate_audit_dropped_total 2",
		"# TYPE gogate_sessions_active gauge",
		"gogate_sessions_active 4",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goGate.MetricsSnapshot{
			Counters:   map[goGate.MetricID]uint64{goGate.MetricSessionCreated: 1},
			Histograms: map[goGate.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestExporterReadsEngine(t *testing.T) {
	engine, err := goGate.New().WithMetricsEnabled(true).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	if _, err := engine.CreateSession(context.Background()); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	out := NewPrometheusExporter(engine).Render()
	if !strings.Contains(out, "gogate_session_created_total 1") {
		t.Fatalf("expected session counter, got:\n%s", out)
	}
	if !strings.Contains(out, "gogate_sessions_active 1") {
		t.Fatalf("expected one active session, got:\n%s", out)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goGate.MetricsSnapshot{
			Counters: map[goGate.MetricID]uint64{
				goGate.MetricSessionCreated:     1000,
				goGate.MetricFlowStarted:        900,
				goGate.MetricLinkOpened:         2400,
				goGate.MetricVerifyRejected:     300,
				goGate.MetricCheckpointVerified: 1800,
				goGate.MetricKeyIssued:          850,
			},
			Histograms: map[goGate.MetricID][]uint64{
				goGate.MetricFlowDuration: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
		sessions: 120,
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
