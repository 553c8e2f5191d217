package checkpoint

import (
	"errors"
	"sync"
	"time"

	"github.com/MrEthical07/goGate/configstore"
	"github.com/MrEthical07/goGate/internal/clock"
)

var (
	// ErrLinkNotOpened is returned by Verify when no foreground loss was
	// observed since the link was opened. The run is back in PhaseIdle.
	ErrLinkNotOpened = errors.New("link not opened")
	// ErrNotReady is returned by Verify while the countdown is running.
	ErrNotReady = errors.New("checkpoint countdown not finished")
	// ErrCycleInProgress is returned by OpenLink once a cycle is running.
	ErrCycleInProgress = errors.New("checkpoint cycle already in progress")
	// ErrVerified is returned by operations on an already verified run.
	ErrVerified = errors.New("checkpoint already verified")
	// ErrReleased is returned by operations on a discarded run.
	ErrReleased = errors.New("checkpoint run released")
)

// Phase is the position of a run in its lifecycle.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseClicked
	PhaseWaiting
	PhaseReady
	PhaseVerified
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseClicked:
		return "clicked"
	case PhaseWaiting:
		return "waiting"
	case PhaseReady:
		return "ready"
	case PhaseVerified:
		return "verified"
	default:
		return "unknown"
	}
}

// ErrorKind is the user-visible failure recorded on a run.
type ErrorKind uint8

const (
	ErrorNone ErrorKind = iota
	ErrorLinkNotOpened
)

func (k ErrorKind) String() string {
	if k == ErrorLinkNotOpened {
		return "link_not_opened"
	}
	return ""
}

// Message is the text shown to the user for k.
func (k ErrorKind) Message() string {
	if k == ErrorLinkNotOpened {
		return "Verification failed. Link not opened."
	}
	return ""
}

// State is a point-in-time copy of a run.
type State struct {
	Phase            Phase
	RemainingSeconds int
	LeftForeground   bool
	LastError        ErrorKind
}

// Options configures a Run. Zero values use the system clock and a one
// second countdown interval.
type Options struct {
	Clock    clock.Clock
	Interval time.Duration

	// Navigate receives the target URL while the run is PhaseClicked. It is
	// called without the run's lock held but must not call back into the
	// flow that owns the run.
	Navigate func(targetURL string)

	// OnReady is called once per cycle when the countdown reaches zero, from
	// the clock's goroutine.
	OnReady func()
}

// Run is the state of one checkpoint. It is safe for concurrent use.
type Run struct {
	mu sync.Mutex

	spec     configstore.CheckpointSpec
	clock    clock.Clock
	interval time.Duration
	navigate func(string)
	onReady  func()

	state     State
	countdown clock.Stopper
	observing bool
	released  bool
	// cycle increments on every open and every return to idle, so ticks
	// scheduled for an earlier cycle are recognised and dropped.
	cycle uint64
}

// New returns a run in PhaseIdle for spec.
func New(spec configstore.CheckpointSpec, opts Options) *Run {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}

	return &Run{
		spec:     spec,
		clock:    opts.Clock,
		interval: opts.Interval,
		navigate: opts.Navigate,
		onReady:  opts.OnReady,
		state: State{
			Phase:            PhaseIdle,
			RemainingSeconds: spec.WaitDurationSeconds,
		},
	}
}

// Spec returns the checkpoint this run was created for.
func (r *Run) Spec() configstore.CheckpointSpec {
	return r.spec
}

// State returns a copy of the current run state.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// OpenLink starts a cycle: it clears the foreground flag and any previous
// error, restarts the countdown at the full wait, and returns the URL the
// caller must open in a new browsing context.
func (r *Run) OpenLink() (string, error) {
	r.mu.Lock()
	if err := r.openableLocked(); err != nil {
		r.mu.Unlock()
		return "", err
	}

	r.cycle++
	cycle := r.cycle
	r.state = State{
		Phase:            PhaseClicked,
		RemainingSeconds: r.spec.WaitDurationSeconds,
	}
	r.observing = true
	navigate := r.navigate
	r.mu.Unlock()

	if navigate != nil {
		navigate(r.spec.TargetURL)
	}

	r.mu.Lock()
	if r.released || r.cycle != cycle || r.state.Phase != PhaseClicked {
		r.mu.Unlock()
		return r.spec.TargetURL, nil
	}
	if r.spec.WaitDurationSeconds <= 0 {
		// Nothing to count down.
		r.state.Phase = PhaseReady
		onReady := r.onReady
		r.mu.Unlock()
		if onReady != nil {
			onReady()
		}
		return r.spec.TargetURL, nil
	}
	r.state.Phase = PhaseWaiting
	r.countdown = r.clock.Every(r.interval, func() { r.tick(cycle) })
	r.mu.Unlock()
	return r.spec.TargetURL, nil
}

func (r *Run) openableLocked() error {
	if r.released {
		return ErrReleased
	}
	switch r.state.Phase {
	case PhaseIdle:
		return nil
	case PhaseVerified:
		return ErrVerified
	default:
		return ErrCycleInProgress
	}
}

// ReportForegroundLoss records that the user left the page. Only the first
// report of a cycle while PhaseClicked or PhaseWaiting counts, or while
// PhaseReady for a zero wait. The return value reports whether this call set
// the flag.
func (r *Run) ReportForegroundLoss() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released || !r.observing || r.state.LeftForeground {
		return false
	}
	switch r.state.Phase {
	case PhaseClicked, PhaseWaiting:
	case PhaseReady:
		// A zero wait is ready on open, before the page can lose focus.
		if r.spec.WaitDurationSeconds > 0 {
			return false
		}
	default:
		return false
	}
	r.state.LeftForeground = true
	return true
}

func (r *Run) tick(cycle uint64) {
	r.mu.Lock()
	if r.released || r.cycle != cycle || r.state.Phase != PhaseWaiting {
		r.mu.Unlock()
		return
	}

	if r.state.RemainingSeconds > 0 {
		r.state.RemainingSeconds--
	}
	ready := r.state.RemainingSeconds == 0
	if ready {
		r.state.Phase = PhaseReady
		r.stopCountdownLocked()
	}
	onReady := r.onReady
	r.mu.Unlock()

	if ready && onReady != nil {
		onReady()
	}
}

// Verify completes the run. Without a foreground loss it rejects in any
// phase, returns the run to PhaseIdle with LastError set, and returns
// ErrLinkNotOpened. With the flag set it succeeds only in PhaseReady.
func (r *Run) Verify() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}
	if r.state.Phase == PhaseVerified {
		return ErrVerified
	}
	if !r.state.LeftForeground {
		r.idleLocked()
		r.state.LastError = ErrorLinkNotOpened
		return ErrLinkNotOpened
	}
	if r.state.Phase != PhaseReady {
		return ErrNotReady
	}

	r.state.Phase = PhaseVerified
	r.state.LastError = ErrorNone
	r.stopCountdownLocked()
	r.observing = false
	return nil
}

// Discard releases the countdown and observer. It is idempotent.
func (r *Run) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return
	}
	r.stopCountdownLocked()
	r.observing = false
	r.released = true
}

func (r *Run) idleLocked() {
	r.stopCountdownLocked()
	r.observing = false
	r.cycle++
	r.state = State{
		Phase:            PhaseIdle,
		RemainingSeconds: r.spec.WaitDurationSeconds,
	}
}

func (r *Run) stopCountdownLocked() {
	if r.countdown != nil {
		r.countdown.Stop()
		r.countdown = nil
	}
}
