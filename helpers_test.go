package goGate

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/goGate/internal/clock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newTestBuilder(fake *clock.Fake) *Builder {
	return New().
		WithClock(fake).
		WithMetricsEnabled(true).
		WithFlowHistogram(true)
}

func buildTestEngine(t testing.TB, b *Builder) *Engine {
	t.Helper()

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func newTestEngine(t *testing.T) (*Engine, *clock.Fake) {
	t.Helper()

	fake := clock.NewFake(testEpoch)
	return buildTestEngine(t, newTestBuilder(fake)), fake
}

// passCheckpoint opens checkpoint i, reports foreground loss, waits out the
// countdown and verifies.
func passCheckpoint(t testing.TB, e *Engine, fake *clock.Fake, id string, i int) VerifyResult {
	t.Helper()

	ctx := context.Background()
	if _, err := e.OpenLink(ctx, id, i); err != nil {
		t.Fatalf("OpenLink(%d) failed: %v", i, err)
	}
	if _, err := e.ReportForegroundLoss(ctx, id, i); err != nil {
		t.Fatalf("ReportForegroundLoss(%d) failed: %v", i, err)
	}

	view, err := e.Session(ctx, id)
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	fake.Advance(time.Duration(view.Checkpoint.WaitDurationSeconds) * time.Second)

	res, err := e.Verify(ctx, id, i)
	if err != nil {
		t.Fatalf("Verify(%d) failed: %v", i, err)
	}
	return res
}

func singleCheckpointConfig(wait int) Configuration {
	return Configuration{
		AppName:        "Test Hub",
		KeyPrefix:      "TEST-",
		KeyExpiryHours: 2,
		Checkpoints: []CheckpointSpec{
			{ID: 7, Title: "Only", Description: "one step", TargetURL: "https://example.org/only", WaitDurationSeconds: wait},
		},
		PayloadScript: "print(1)",
	}
}

func mustCreateSession(t testing.TB, e *Engine) SessionView {
	t.Helper()

	view, err := e.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return view
}

func mustStart(t testing.TB, e *Engine, id string) {
	t.Helper()

	if _, err := e.Start(context.Background(), id); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
}

func mustOpenLink(t testing.TB, e *Engine, id string, i int) {
	t.Helper()

	if _, err := e.OpenLink(context.Background(), id, i); err != nil {
		t.Fatalf("OpenLink(%d) failed: %v", i, err)
	}
}

func mustLoseForeground(t testing.TB, e *Engine, id string, i int) {
	t.Helper()

	recorded, err := e.ReportForegroundLoss(context.Background(), id, i)
	if err != nil {
		t.Fatalf("ReportForegroundLoss(%d) failed: %v", i, err)
	}
	if !recorded {
		t.Fatalf("ReportForegroundLoss(%d) was not recorded", i)
	}
}

func mustSession(t testing.TB, e *Engine, id string) SessionView {
	t.Helper()

	view, err := e.Session(context.Background(), id)
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	return view
}
