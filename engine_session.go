package goGate

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MrEthical07/goGate/internal/flows"
	"github.com/google/uuid"
)

type gateSession struct {
	id        string
	ctrl      *flows.Controller
	createdAt time.Time
	lastSeen  time.Time // guarded by Engine.sessionsMu
}

func (s *gateSession) view() SessionView {
	return sessionViewFrom(s.id, s.createdAt, s.ctrl.State())
}

// CreateSession registers a new session in StepWelcome.
func (e *Engine) CreateSession(ctx context.Context) (SessionView, error) {
	if err := e.ready(); err != nil {
		return SessionView{}, err
	}

	now := e.clock.Now()
	s := &gateSession{
		id:        uuid.NewString(),
		createdAt: now,
		lastSeen:  now,
	}
	id := s.id
	s.ctrl = flows.NewController(flows.Deps{
		Config:   e.activeConfiguration,
		Issuer:   e.issuer,
		Clock:    e.clock,
		Interval: e.config.Flow.TickInterval,
		Navigate: e.navigate,
		Hooks: flows.Hooks{
			OnEvent: func(ev flows.Event) { e.onFlowEvent(id, ev) },
		},
	})

	e.sessionsMu.Lock()
	if len(e.sessions) >= e.config.Session.MaxSessions {
		e.sessionsMu.Unlock()
		e.metricInc(MetricSessionLimitExceeded)
		e.emitAudit(ctx, auditEventSessionLimitExceeded, false, "", "", ErrSessionLimitExceeded, nil)
		return SessionView{}, ErrSessionLimitExceeded
	}
	e.sessions[id] = s
	e.sessionsMu.Unlock()

	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventSessionCreated, true, id, "", nil, nil)
	e.logger.Debug("session created", "session_id", id)

	return s.view(), nil
}

// Session returns the current view of session id and refreshes its idle
// timer.
func (e *Engine) Session(ctx context.Context, id string) (SessionView, error) {
	s, err := e.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	return s.view(), nil
}

// Start leaves Welcome with a snapshot of the active configuration. With no
// checkpoints configured the key is issued at once.
func (e *Engine) Start(ctx context.Context, id string) (SessionView, error) {
	s, err := e.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	if err := s.ctrl.Start(); err != nil {
		return SessionView{}, e.flowError(ctx, id, err)
	}
	return s.view(), nil
}

// OpenLink opens checkpoint index, starts its countdown and returns the
// target URL the caller should open in a new browsing context.
func (e *Engine) OpenLink(ctx context.Context, id string, index int) (string, error) {
	s, err := e.lookup(id)
	if err != nil {
		return "", err
	}
	url, err := s.ctrl.OpenLink(index)
	if err != nil {
		return "", e.flowError(ctx, id, err)
	}
	return url, nil
}

// ReportForegroundLoss records that the visitor's page lost foreground while
// checkpoint index was counting down. The bool is false when the report was
// ignored because no cycle is running or loss was already recorded.
func (e *Engine) ReportForegroundLoss(ctx context.Context, id string, index int) (bool, error) {
	s, err := e.lookup(id)
	if err != nil {
		return false, err
	}
	recorded, err := s.ctrl.ReportForegroundLoss(index)
	if err != nil {
		return false, e.flowError(ctx, id, err)
	}
	return recorded, nil
}

// Verify verifies checkpoint index. On ErrLinkNotOpened the returned result
// still carries the session view, now back in PhaseIdle with the error set.
func (e *Engine) Verify(ctx context.Context, id string, index int) (VerifyResult, error) {
	s, err := e.lookup(id)
	if err != nil {
		return VerifyResult{}, err
	}

	verifyErr := s.ctrl.Verify(index)
	if verifyErr != nil && !errors.Is(verifyErr, ErrLinkNotOpened) {
		return VerifyResult{}, e.flowError(ctx, id, verifyErr)
	}

	view := s.view()
	if verifyErr != nil {
		return VerifyResult{Session: view}, verifyErr
	}
	return VerifyResult{
		Session:  view,
		Advanced: view.Step == StepCheckpoint && view.CheckpointIndex == index+1,
		Issued:   view.Step == StepIssued,
	}, nil
}

// Reset returns an issued session to Welcome, discarding its key.
func (e *Engine) Reset(ctx context.Context, id string) (SessionView, error) {
	s, err := e.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	if err := s.ctrl.Reset(); err != nil {
		return SessionView{}, e.flowError(ctx, id, err)
	}
	return s.view(), nil
}

// EndSession removes session id and releases its countdown.
func (e *Engine) EndSession(ctx context.Context, id string) error {
	if err := e.ready(); err != nil {
		return err
	}

	e.sessionsMu.Lock()
	s, ok := e.sessions[id]
	if ok {
		delete(e.sessions, id)
	}
	e.sessionsMu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.ctrl.Close()

	e.metricInc(MetricSessionEnded)
	e.emitAudit(ctx, auditEventSessionEnded, true, id, "", nil, nil)
	return nil
}

// SessionCount returns the number of registered sessions.
func (e *Engine) SessionCount() int {
	if e == nil {
		return 0
	}
	e.sessionsMu.Lock()
	defer e.sessionsMu.Unlock()
	return len(e.sessions)
}

func (e *Engine) lookup(id string) (*gateSession, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	e.sessionsMu.Lock()
	defer e.sessionsMu.Unlock()

	s, ok := e.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = e.clock.Now()
	return s, nil
}

// evictIdle closes sessions not touched for Session.IdleTTL. It runs on the
// janitor ticker.
func (e *Engine) evictIdle() {
	if e.closed.Load() {
		return
	}

	cutoff := e.clock.Now().Add(-e.config.Session.IdleTTL)

	e.sessionsMu.Lock()
	var expired []*gateSession
	for id, s := range e.sessions {
		if s.lastSeen.Before(cutoff) {
			expired = append(expired, s)
			delete(e.sessions, id)
		}
	}
	e.sessionsMu.Unlock()

	ctx := context.Background()
	for _, s := range expired {
		s.ctrl.Close()
		e.metricInc(MetricSessionExpired)
		e.emitAudit(ctx, auditEventSessionExpired, true, s.id, "", nil, nil)
	}
	if len(expired) > 0 {
		e.logger.Debug("idle sessions evicted", "count", len(expired))
	}
}

// flowError maps controller errors onto the engine's error set and records
// issuance failures.
func (e *Engine) flowError(ctx context.Context, id string, err error) error {
	switch {
	case errors.Is(err, flows.ErrClosed):
		return ErrSessionNotFound
	case errors.Is(err, ErrKeyIssueFailed):
		e.metricInc(MetricKeyIssueFailed)
		e.emitAudit(ctx, auditEventKeyIssueFailed, false, id, "", err, nil)
		e.logger.Error("key issuance failed", "session_id", id, "error", err)
	}
	return err
}

// onFlowEvent is the controller hook. It runs without the session lock and
// may run on a clock goroutine.
func (e *Engine) onFlowEvent(id string, ev flows.Event) {
	ctx := context.Background()
	checkpointMeta := func() map[string]string {
		return map[string]string{
			"checkpoint_index": strconv.Itoa(ev.Index),
			"checkpoint_id":    strconv.FormatInt(ev.CheckpointID, 10),
		}
	}

	switch ev.Kind {
	case flows.EventStarted:
		e.metricInc(MetricFlowStarted)
		e.emitAudit(ctx, auditEventFlowStarted, true, id, "", nil, nil)
	case flows.EventLinkOpened:
		e.metricInc(MetricLinkOpened)
		e.emitAudit(ctx, auditEventLinkOpened, true, id, "", nil, checkpointMeta)
	case flows.EventForegroundLost:
		e.metricInc(MetricForegroundLost)
		e.emitAudit(ctx, auditEventForegroundLost, true, id, "", nil, checkpointMeta)
	case flows.EventVerifyRejected:
		e.metricInc(MetricVerifyRejected)
		e.emitAudit(ctx, auditEventVerifyRejected, false, id, "", ErrLinkNotOpened, checkpointMeta)
	case flows.EventCheckpointVerified:
		e.metricInc(MetricCheckpointVerified)
		e.emitAudit(ctx, auditEventCheckpointVerified, true, id, "", nil, checkpointMeta)
	case flows.EventKeyIssued:
		e.metricInc(MetricKeyIssued)
		if e.metrics != nil {
			e.metrics.Observe(MetricFlowDuration, ev.Elapsed)
		}
		e.emitAudit(ctx, auditEventKeyIssued, true, id, "", nil, func() map[string]string {
			return map[string]string{
				"elapsed_ms": strconv.FormatInt(ev.Elapsed.Milliseconds(), 10),
			}
		})
	case flows.EventReset:
		e.metricInc(MetricFlowReset)
		e.emitAudit(ctx, auditEventFlowReset, true, id, "", nil, nil)
	}

	e.logger.Debug("flow event",
		"session_id", id,
		"event", ev.Kind.String(),
		"checkpoint_index", ev.Index,
	)
}
