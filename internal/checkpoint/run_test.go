package checkpoint

import (
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goGate/configstore"
	"github.com/MrEthical07/goGate/internal/clock"
)

func newTestRun(t *testing.T, wait int, opts Options) (*Run, *clock.Fake) {
	t.Helper()

	fake := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	opts.Clock = fake
	spec := configstore.CheckpointSpec{
		ID:                  1,
		Title:               "Checkpoint",
		TargetURL:           "https://example.com/sponsor-1",
		WaitDurationSeconds: wait,
	}
	return New(spec, opts), fake
}

func TestRunHappyPath(t *testing.T) {
	var readyCalls int
	run, fake := newTestRun(t, 5, Options{OnReady: func() { readyCalls++ }})

	url, err := run.OpenLink()
	if err != nil {
		t.Fatalf("OpenLink failed: %v", err)
	}
	if url != "https://example.com/sponsor-1" {
		t.Fatalf("unexpected target url %q", url)
	}
	if st := run.State(); st.Phase != PhaseWaiting || st.RemainingSeconds != 5 {
		t.Fatalf("expected waiting with 5s, got %+v", st)
	}

	if !run.ReportForegroundLoss() {
		t.Fatalf("expected first foreground loss to count")
	}
	if run.ReportForegroundLoss() {
		t.Fatalf("second foreground loss must not count again")
	}

	fake.Advance(4 * time.Second)
	if st := run.State(); st.Phase != PhaseWaiting || st.RemainingSeconds != 1 {
		t.Fatalf("expected waiting with 1s left, got %+v", st)
	}
	if err := run.Verify(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady while waiting, got %v", err)
	}

	fake.Advance(time.Second)
	if st := run.State(); st.Phase != PhaseReady || st.RemainingSeconds != 0 {
		t.Fatalf("expected ready at zero, got %+v", st)
	}
	if fake.Active() != 0 {
		t.Fatalf("countdown must stop once ready")
	}

	fake.Advance(10 * time.Second)
	if st := run.State(); st.RemainingSeconds != 0 {
		t.Fatalf("countdown went negative: %+v", st)
	}
	if readyCalls != 1 {
		t.Fatalf("expected exactly one ready notification, got %d", readyCalls)
	}

	if err := run.Verify(); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if st := run.State(); st.Phase != PhaseVerified {
		t.Fatalf("expected verified, got %s", st.Phase)
	}
	if err := run.Verify(); !errors.Is(err, ErrVerified) {
		t.Fatalf("expected ErrVerified on second verify, got %v", err)
	}
}

func TestRunVerifyWithoutForegroundLossRejects(t *testing.T) {
	run, fake := newTestRun(t, 5, Options{})

	if _, err := run.OpenLink(); err != nil {
		t.Fatalf("OpenLink failed: %v", err)
	}
	fake.Advance(5 * time.Second)
	if run.State().Phase != PhaseReady {
		t.Fatalf("expected ready")
	}

	if err := run.Verify(); !errors.Is(err, ErrLinkNotOpened) {
		t.Fatalf("expected ErrLinkNotOpened, got %v", err)
	}
	st := run.State()
	if st.Phase != PhaseIdle || st.LastError != ErrorLinkNotOpened || st.RemainingSeconds != 5 {
		t.Fatalf("expected idle reset with error, got %+v", st)
	}
	if st.LastError.Message() != "Verification failed. Link not opened." {
		t.Fatalf("unexpected message %q", st.LastError.Message())
	}
}

func TestRunVerifyInIdleRejects(t *testing.T) {
	run, _ := newTestRun(t, 3, Options{})

	if err := run.Verify(); !errors.Is(err, ErrLinkNotOpened) {
		t.Fatalf("expected ErrLinkNotOpened from idle, got %v", err)
	}
	if run.State().Phase != PhaseIdle {
		t.Fatalf("expected idle")
	}
}

func TestRunRejectionReleasesCountdown(t *testing.T) {
	run, fake := newTestRun(t, 8, Options{})

	if _, err := run.OpenLink(); err != nil {
		t.Fatalf("OpenLink failed: %v", err)
	}
	fake.Advance(2 * time.Second)
	if err := run.Verify(); !errors.Is(err, ErrLinkNotOpened) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if fake.Active() != 0 {
		t.Fatalf("rejection must release the countdown")
	}

	fake.Advance(20 * time.Second)
	if st := run.State(); st.Phase != PhaseIdle || st.RemainingSeconds != 8 {
		t.Fatalf("stale ticks mutated an idle run: %+v", st)
	}
	if run.ReportForegroundLoss() {
		t.Fatalf("observer must be released after rejection")
	}
}

func TestRunRetryRestartsFullCountdown(t *testing.T) {
	run, fake := newTestRun(t, 5, Options{})

	if _, err := run.OpenLink(); err != nil {
		t.Fatalf("OpenLink failed: %v", err)
	}
	fake.Advance(3 * time.Second)
	_ = run.Verify()

	if _, err := run.OpenLink(); err != nil {
		t.Fatalf("retry OpenLink failed: %v", err)
	}
	st := run.State()
	if st.RemainingSeconds != 5 || st.LastError != ErrorNone || st.LeftForeground {
		t.Fatalf("retry must start a clean cycle, got %+v", st)
	}
}

func TestRunOpenLinkWhileCycleRunning(t *testing.T) {
	run, fake := newTestRun(t, 2, Options{})

	if _, err := run.OpenLink(); err != nil {
		t.Fatalf("OpenLink failed: %v", err)
	}
	run.ReportForegroundLoss()
	fake.Advance(time.Second)

	if _, err := run.OpenLink(); !errors.Is(err, ErrCycleInProgress) {
		t.Fatalf("expected ErrCycleInProgress while waiting, got %v", err)
	}
	if st := run.State(); st.RemainingSeconds != 1 || !st.LeftForeground {
		t.Fatalf("no-op open changed state: %+v", st)
	}

	fake.Advance(time.Second)
	if _, err := run.OpenLink(); !errors.Is(err, ErrCycleInProgress) {
		t.Fatalf("expected ErrCycleInProgress while ready, got %v", err)
	}
}

func TestRunZeroWaitIsReadyOnOpen(t *testing.T) {
	readies := 0
	run, fake := newTestRun(t, 0, Options{OnReady: func() { readies++ }})

	if _, err := run.OpenLink(); err != nil {
		t.Fatalf("OpenLink failed: %v", err)
	}
	if st := run.State(); st.Phase != PhaseReady || st.RemainingSeconds != 0 {
		t.Fatalf("expected ready right after open, got %+v", st)
	}
	if fake.Active() != 0 {
		t.Fatalf("expected no countdown, got %d active timers", fake.Active())
	}
	if readies != 1 {
		t.Fatalf("expected one ready callback, got %d", readies)
	}

	if err := run.Verify(); !errors.Is(err, ErrLinkNotOpened) {
		t.Fatalf("expected ErrLinkNotOpened without loss, got %v", err)
	}

	if _, err := run.OpenLink(); err != nil {
		t.Fatalf("second OpenLink failed: %v", err)
	}
	if !run.ReportForegroundLoss() {
		t.Fatalf("expected loss to be recorded on a zero wait")
	}
	if err := run.Verify(); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if readies != 2 {
		t.Fatalf("expected one ready callback per cycle, got %d", readies)
	}
}

func TestRunForegroundLossIgnoredOutsideCycle(t *testing.T) {
	run, fake := newTestRun(t, 1, Options{})

	if run.ReportForegroundLoss() {
		t.Fatalf("loss while idle must be ignored")
	}

	if _, err := run.OpenLink(); err != nil {
		t.Fatalf("OpenLink failed: %v", err)
	}
	fake.Advance(time.Second)
	if run.ReportForegroundLoss() {
		t.Fatalf("loss while ready must be ignored")
	}
	if err := run.Verify(); !errors.Is(err, ErrLinkNotOpened) {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestRunNavigateSeesClickedPhase(t *testing.T) {
	var run *Run
	var seen Phase
	var counted bool
	run, fake := newTestRun(t, 1, Options{Navigate: func(string) {
		seen = run.State().Phase
		counted = run.ReportForegroundLoss()
	}})

	if _, err := run.OpenLink(); err != nil {
		t.Fatalf("OpenLink failed: %v", err)
	}
	if seen != PhaseClicked {
		t.Fatalf("expected clicked during navigation, got %s", seen)
	}
	if !counted {
		t.Fatalf("foreground loss during navigation must count")
	}

	fake.Advance(time.Second)
	if err := run.Verify(); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
}

func TestRunDiscardStopsEverything(t *testing.T) {
	run, fake := newTestRun(t, 5, Options{})

	if _, err := run.OpenLink(); err != nil {
		t.Fatalf("OpenLink failed: %v", err)
	}
	run.Discard()
	run.Discard()

	if fake.Active() != 0 {
		t.Fatalf("discard must stop the countdown")
	}
	fake.Advance(10 * time.Second)
	if st := run.State(); st.RemainingSeconds != 5 {
		t.Fatalf("discarded run mutated: %+v", st)
	}
	if run.ReportForegroundLoss() {
		t.Fatalf("discarded run must ignore foreground loss")
	}
	if _, err := run.OpenLink(); !errors.Is(err, ErrReleased) {
		t.Fatalf("expected ErrReleased, got %v", err)
	}
	if err := run.Verify(); !errors.Is(err, ErrReleased) {
		t.Fatalf("expected ErrReleased, got %v", err)
	}
}
