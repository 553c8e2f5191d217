package flows

import (
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goGate/configstore"
	"github.com/MrEthical07/goGate/internal/checkpoint"
	"github.com/MrEthical07/goGate/internal/clock"
	"github.com/MrEthical07/goGate/issuer"
)

var defaultKeyPattern = regexp.MustCompile(`^BURAT-[0-9A-Z]{4}-[0-9A-Z]{4}-[0-9A-Z]{4}$`)

type testConfig struct {
	mu  sync.Mutex
	cfg configstore.Configuration
}

func (c *testConfig) get() configstore.Configuration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

func (c *testConfig) set(cfg configstore.Configuration) {
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) record(ev Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventKind, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Kind
	}
	return out
}

type failingIssuer struct{ fail bool }

func (f *failingIssuer) Issue(prefix string, hours int, now time.Time) (issuer.IssuedKey, error) {
	if f.fail {
		return issuer.IssuedKey{}, issuer.ErrRandomUnavailable
	}
	return issuer.New(nil).Issue(prefix, hours, now)
}

func newTestController(t *testing.T, cfg configstore.Configuration) (*Controller, *clock.Fake, *testConfig, *eventLog) {
	t.Helper()

	fake := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	source := &testConfig{cfg: cfg}
	log := &eventLog{}
	ctrl := NewController(Deps{
		Config: source.get,
		Issuer: issuer.New(nil),
		Clock:  fake,
		Hooks:  Hooks{OnEvent: log.record},
	})
	t.Cleanup(ctrl.Close)
	return ctrl, fake, source, log
}

func completeCheckpoint(t *testing.T, ctrl *Controller, fake *clock.Fake, i, wait int) {
	t.Helper()

	if _, err := ctrl.OpenLink(i); err != nil {
		t.Fatalf("OpenLink(%d) failed: %v", i, err)
	}
	if ok, err := ctrl.ReportForegroundLoss(i); err != nil || !ok {
		t.Fatalf("ReportForegroundLoss(%d) = %v, %v", i, ok, err)
	}
	fake.Advance(time.Duration(wait) * time.Second)
	if err := ctrl.Verify(i); err != nil {
		t.Fatalf("Verify(%d) failed: %v", i, err)
	}
}

func TestControllerDefaultFlowIssuesKey(t *testing.T) {
	ctrl, fake, _, log := newTestController(t, configstore.Default())

	if v := ctrl.State(); v.Step != StepWelcome || v.Total != 2 {
		t.Fatalf("expected welcome with 2 checkpoints, got %+v", v)
	}
	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if v := ctrl.State(); v.Step != StepCheckpoint || v.Index != 0 {
		t.Fatalf("expected checkpoint 0, got %+v", v)
	}

	completeCheckpoint(t, ctrl, fake, 0, 5)
	if v := ctrl.State(); v.Step != StepCheckpoint || v.Index != 1 {
		t.Fatalf("expected checkpoint 1, got %+v", v)
	}
	if v := ctrl.State(); v.Run == nil || v.Run.Phase != checkpoint.PhaseIdle || v.Run.RemainingSeconds != 8 {
		t.Fatalf("expected fresh idle run for checkpoint 1, got %+v", v.Run)
	}

	completeCheckpoint(t, ctrl, fake, 1, 8)
	v := ctrl.State()
	if v.Step != StepIssued || v.Key == nil {
		t.Fatalf("expected issued key, got %+v", v)
	}
	if !defaultKeyPattern.MatchString(v.Key.Value) {
		t.Fatalf("unexpected key %q", v.Key.Value)
	}
	if v.Key.ExpiresAt.Sub(v.Key.GeneratedAt) != 10*time.Hour {
		t.Fatalf("unexpected expiry window")
	}
	if v.PayloadScript == "" {
		t.Fatalf("expected payload script on issued view")
	}
	if fake.Active() != 0 {
		t.Fatalf("expected no countdowns after issuance")
	}

	kinds := log.kinds()
	if kinds[0] != EventStarted || kinds[len(kinds)-1] != EventKeyIssued {
		t.Fatalf("unexpected event sequence %v", kinds)
	}
}

func TestControllerZeroCheckpointsIssuesOnStart(t *testing.T) {
	cfg := configstore.Default()
	cfg.Checkpoints = nil
	ctrl, _, _, _ := newTestController(t, cfg)

	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if v := ctrl.State(); v.Step != StepIssued || v.Key == nil {
		t.Fatalf("expected immediate issuance, got %+v", v)
	}
}

func TestControllerSingleCheckpoint(t *testing.T) {
	cfg := configstore.Default()
	cfg.Checkpoints = cfg.Checkpoints[:1]
	ctrl, fake, _, _ := newTestController(t, cfg)

	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	completeCheckpoint(t, ctrl, fake, 0, 5)
	if v := ctrl.State(); v.Step != StepIssued {
		t.Fatalf("expected issued after the only checkpoint, got %s", v.Step)
	}
}

func TestControllerRejectionKeepsStep(t *testing.T) {
	ctrl, fake, _, log := newTestController(t, configstore.Default())

	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := ctrl.OpenLink(0); err != nil {
		t.Fatalf("OpenLink failed: %v", err)
	}
	fake.Advance(5 * time.Second)

	if err := ctrl.Verify(0); !errors.Is(err, checkpoint.ErrLinkNotOpened) {
		t.Fatalf("expected ErrLinkNotOpened, got %v", err)
	}
	v := ctrl.State()
	if v.Step != StepCheckpoint || v.Index != 0 {
		t.Fatalf("rejection must keep checkpoint 0, got %+v", v)
	}
	if v.Run.Phase != checkpoint.PhaseIdle || v.Run.LastError != checkpoint.ErrorLinkNotOpened {
		t.Fatalf("expected idle run with error, got %+v", v.Run)
	}

	found := false
	for _, k := range log.kinds() {
		if k == EventVerifyRejected {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected verify_rejected event")
	}
}

func TestControllerInactiveCheckpointIsNoop(t *testing.T) {
	ctrl, _, _, _ := newTestController(t, configstore.Default())

	if _, err := ctrl.OpenLink(0); !errors.Is(err, ErrCheckpointNotActive) {
		t.Fatalf("expected ErrCheckpointNotActive before start, got %v", err)
	}
	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := ctrl.OpenLink(1); !errors.Is(err, ErrCheckpointNotActive) {
		t.Fatalf("expected ErrCheckpointNotActive for index 1, got %v", err)
	}
	if err := ctrl.Verify(1); !errors.Is(err, ErrCheckpointNotActive) {
		t.Fatalf("expected ErrCheckpointNotActive on verify, got %v", err)
	}
	if v := ctrl.State(); v.Index != 0 || v.Run.Phase != checkpoint.PhaseIdle {
		t.Fatalf("no-op changed state: %+v", v)
	}
}

func TestControllerIllegalTransitions(t *testing.T) {
	ctrl, _, _, _ := newTestController(t, configstore.Default())

	if err := ctrl.Reset(); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition for reset in welcome, got %v", err)
	}
	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := ctrl.Start(); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition for second start, got %v", err)
	}
	if err := ctrl.Reset(); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition for reset mid-flow, got %v", err)
	}
}

func TestControllerResetAndReplay(t *testing.T) {
	cfg := configstore.Default()
	cfg.Checkpoints = cfg.Checkpoints[:1]
	ctrl, fake, _, _ := newTestController(t, cfg)

	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	completeCheckpoint(t, ctrl, fake, 0, 5)
	first := ctrl.State().Key.Value

	if err := ctrl.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if v := ctrl.State(); v.Step != StepWelcome || v.Key != nil {
		t.Fatalf("expected welcome without key, got %+v", v)
	}

	if err := ctrl.Start(); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if v := ctrl.State(); v.Run.Phase != checkpoint.PhaseIdle || v.Run.LeftForeground {
		t.Fatalf("replay must start from a fresh run, got %+v", v.Run)
	}
	completeCheckpoint(t, ctrl, fake, 0, 5)
	if second := ctrl.State().Key.Value; second == first {
		t.Fatalf("expected a different key after replay, got %q twice", first)
	}
}

func TestControllerSnapshotsConfigOnStart(t *testing.T) {
	ctrl, fake, source, _ := newTestController(t, configstore.Default())

	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	edited := configstore.Default()
	edited.KeyPrefix = "NEXUS-"
	edited.Checkpoints = edited.Checkpoints[:1]
	source.set(edited)

	completeCheckpoint(t, ctrl, fake, 0, 5)
	if v := ctrl.State(); v.Step != StepCheckpoint || v.Index != 1 {
		t.Fatalf("in-flight pass must keep its snapshot, got %+v", v)
	}
	completeCheckpoint(t, ctrl, fake, 1, 8)
	if key := ctrl.State().Key.Value; !defaultKeyPattern.MatchString(key) {
		t.Fatalf("issuance must use the snapshot prefix, got %q", key)
	}

	if err := ctrl.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if v := ctrl.State(); v.Total != 1 {
		t.Fatalf("welcome view should reflect the edited config, got %d", v.Total)
	}
	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	completeCheckpoint(t, ctrl, fake, 0, 5)
	if key := ctrl.State().Key.Value; !issuer.Matches("NEXUS-", key) {
		t.Fatalf("next pass must use the edited prefix, got %q", key)
	}
}

func TestControllerIssueFailureCanRetry(t *testing.T) {
	cfg := configstore.Default()
	cfg.Checkpoints = cfg.Checkpoints[:1]
	fake := clock.NewFake(time.Unix(0, 0))
	iss := &failingIssuer{fail: true}
	ctrl := NewController(Deps{
		Config: func() configstore.Configuration { return cfg },
		Issuer: iss,
		Clock:  fake,
	})
	defer ctrl.Close()

	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := ctrl.OpenLink(0); err != nil {
		t.Fatalf("OpenLink failed: %v", err)
	}
	ctrl.ReportForegroundLoss(0)
	fake.Advance(5 * time.Second)

	if err := ctrl.Verify(0); !errors.Is(err, issuer.ErrRandomUnavailable) {
		t.Fatalf("expected issuer failure, got %v", err)
	}
	if v := ctrl.State(); v.Step != StepCheckpoint {
		t.Fatalf("failed issuance must keep the step, got %s", v.Step)
	}

	iss.fail = false
	if err := ctrl.Verify(0); err != nil {
		t.Fatalf("retry Verify failed: %v", err)
	}
	if v := ctrl.State(); v.Step != StepIssued {
		t.Fatalf("expected issued after retry, got %s", v.Step)
	}
}

func TestControllerCloseReleasesRun(t *testing.T) {
	ctrl, fake, _, _ := newTestController(t, configstore.Default())

	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := ctrl.OpenLink(0); err != nil {
		t.Fatalf("OpenLink failed: %v", err)
	}
	ctrl.Close()

	if fake.Active() != 0 {
		t.Fatalf("close must stop the countdown")
	}
	if err := ctrl.Start(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := ctrl.OpenLink(0); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
