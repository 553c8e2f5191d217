package flows

import (
	"errors"
	"sync"
	"time"

	"github.com/MrEthical07/goGate/configstore"
	"github.com/MrEthical07/goGate/internal/checkpoint"
	"github.com/MrEthical07/goGate/internal/clock"
	"github.com/MrEthical07/goGate/issuer"
)

var (
	// ErrIllegalTransition is returned for a step change the flow does not allow.
	ErrIllegalTransition = errors.New("illegal flow transition")
	// ErrCheckpointNotActive is returned for operations addressed to a
	// checkpoint other than the active one.
	ErrCheckpointNotActive = errors.New("checkpoint is not active")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("flow closed")
)

// Step is the top-level position of a session.
type Step uint8

const (
	StepWelcome Step = iota
	StepCheckpoint
	StepIssued
)

func (s Step) String() string {
	switch s {
	case StepWelcome:
		return "welcome"
	case StepCheckpoint:
		return "checkpoint"
	case StepIssued:
		return "issued"
	default:
		return "unknown"
	}
}

// View is a point-in-time copy of a controller. Index is -1 unless Step is
// StepCheckpoint. Key and PayloadScript are only set in StepIssued.
type View struct {
	Step           Step
	Index          int
	Total          int
	AppName        string
	KeyExpiryHours int
	Checkpoint     *configstore.CheckpointSpec
	Run            *checkpoint.State
	Key            *issuer.IssuedKey
	PayloadScript  string
}

// Controller drives one session through Welcome, its checkpoints, and Issued.
type Controller struct {
	mu    sync.Mutex
	deps  Deps
	clock clock.Clock

	step      Step
	index     int
	cfg       configstore.Configuration
	run       *checkpoint.Run
	key       *issuer.IssuedKey
	startedAt time.Time
	closed    bool
}

// NewController returns a controller in StepWelcome.
func NewController(deps Deps) *Controller {
	c := deps.Clock
	if c == nil {
		c = clock.System{}
	}
	return &Controller{deps: deps, clock: c, index: -1}
}

// Start leaves Welcome. It snapshots the configuration; with no checkpoints
// the key is issued immediately.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.step != StepWelcome {
		c.mu.Unlock()
		return ErrIllegalTransition
	}

	c.cfg = c.deps.Config().Clone()
	c.startedAt = c.clock.Now()
	events := []Event{{Kind: EventStarted, Index: -1}}

	if len(c.cfg.Checkpoints) == 0 {
		issued, err := c.issueLocked()
		if err != nil {
			c.mu.Unlock()
			return err
		}
		events = append(events, issued)
	} else {
		c.enterCheckpointLocked(0)
	}
	c.mu.Unlock()

	c.emit(events...)
	return nil
}

// OpenLink opens checkpoint i and returns its target URL.
func (c *Controller) OpenLink(i int) (string, error) {
	c.mu.Lock()
	if err := c.activeLocked(i); err != nil {
		c.mu.Unlock()
		return "", err
	}
	url, err := c.run.OpenLink()
	id := c.run.Spec().ID
	c.mu.Unlock()

	if err != nil {
		return "", err
	}
	c.emit(Event{Kind: EventLinkOpened, Index: i, CheckpointID: id})
	return url, nil
}

// ReportForegroundLoss forwards a foreground-loss report to checkpoint i.
// The bool reports whether it was recorded.
func (c *Controller) ReportForegroundLoss(i int) (bool, error) {
	c.mu.Lock()
	if err := c.activeLocked(i); err != nil {
		c.mu.Unlock()
		return false, err
	}
	recorded := c.run.ReportForegroundLoss()
	id := c.run.Spec().ID
	c.mu.Unlock()

	if recorded {
		c.emit(Event{Kind: EventForegroundLost, Index: i, CheckpointID: id})
	}
	return recorded, nil
}

// Verify verifies checkpoint i and advances to the next checkpoint or to
// Issued. A rejection leaves the step unchanged.
func (c *Controller) Verify(i int) error {
	c.mu.Lock()
	if err := c.activeLocked(i); err != nil {
		c.mu.Unlock()
		return err
	}

	id := c.run.Spec().ID
	err := c.run.Verify()
	switch {
	case errors.Is(err, checkpoint.ErrLinkNotOpened):
		c.mu.Unlock()
		c.emit(Event{Kind: EventVerifyRejected, Index: i, CheckpointID: id})
		return err
	case errors.Is(err, checkpoint.ErrVerified):
		// A previous issuance attempt failed after verification; retry it.
	case err != nil:
		c.mu.Unlock()
		return err
	}

	var events []Event
	if err == nil {
		events = append(events, Event{Kind: EventCheckpointVerified, Index: i, CheckpointID: id})
	}

	if next := i + 1; next < len(c.cfg.Checkpoints) {
		c.run.Discard()
		c.enterCheckpointLocked(next)
	} else {
		issued, issueErr := c.issueLocked()
		if issueErr != nil {
			c.mu.Unlock()
			c.emit(events...)
			return issueErr
		}
		events = append(events, issued)
	}
	c.mu.Unlock()

	c.emit(events...)
	return nil
}

// Reset returns an issued session to Welcome, discarding the key.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.step != StepIssued {
		c.mu.Unlock()
		return ErrIllegalTransition
	}
	c.releaseLocked()
	c.step = StepWelcome
	c.mu.Unlock()

	c.emit(Event{Kind: EventReset, Index: -1})
	return nil
}

// Close releases any active run. Further operations return ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.releaseLocked()
	c.mu.Unlock()

	c.emit(Event{Kind: EventClosed, Index: -1})
}

// State returns a copy of the current session state.
func (c *Controller) State() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg := c.cfg
	if c.step == StepWelcome {
		cfg = c.deps.Config()
	}

	v := View{
		Step:           c.step,
		Index:          c.index,
		Total:          len(cfg.Checkpoints),
		AppName:        cfg.AppName,
		KeyExpiryHours: cfg.KeyExpiryHours,
	}
	if c.step == StepCheckpoint && c.run != nil {
		spec := c.run.Spec()
		st := c.run.State()
		v.Checkpoint = &spec
		v.Run = &st
	}
	if c.step == StepIssued && c.key != nil {
		key := *c.key
		v.Key = &key
		v.PayloadScript = cfg.PayloadScript
	}
	return v
}

func (c *Controller) activeLocked(i int) error {
	if c.closed {
		return ErrClosed
	}
	if c.step != StepCheckpoint || c.index != i || c.run == nil {
		return ErrCheckpointNotActive
	}
	return nil
}

func (c *Controller) enterCheckpointLocked(i int) {
	spec := c.cfg.Checkpoints[i]
	c.step = StepCheckpoint
	c.index = i
	c.run = checkpoint.New(spec, checkpoint.Options{
		Clock:    c.clock,
		Interval: c.deps.Interval,
		Navigate: c.deps.Navigate,
		OnReady: func() {
			c.emit(Event{Kind: EventCountdownFinished, Index: i, CheckpointID: spec.ID})
		},
	})
}

// issueLocked moves to Issued. On failure the step is unchanged so the
// caller can retry.
func (c *Controller) issueLocked() (Event, error) {
	now := c.clock.Now()
	key, err := c.deps.Issuer.Issue(c.cfg.KeyPrefix, c.cfg.KeyExpiryHours, now)
	if err != nil {
		return Event{}, err
	}

	if c.run != nil {
		c.run.Discard()
		c.run = nil
	}
	c.key = &key
	c.step = StepIssued
	c.index = -1
	return Event{Kind: EventKeyIssued, Index: -1, Elapsed: now.Sub(c.startedAt)}, nil
}

func (c *Controller) releaseLocked() {
	if c.run != nil {
		c.run.Discard()
		c.run = nil
	}
	c.key = nil
	c.index = -1
}

func (c *Controller) emit(events ...Event) {
	if c.deps.Hooks.OnEvent == nil {
		return
	}
	for _, ev := range events {
		c.deps.Hooks.OnEvent(ev)
	}
}
