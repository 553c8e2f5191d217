package goGate

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/MrEthical07/goGate/configstore"
	internalaudit "github.com/MrEthical07/goGate/internal/audit"
	"github.com/MrEthical07/goGate/internal/clock"
	"github.com/MrEthical07/goGate/internal/rate"
	"github.com/MrEthical07/goGate/issuer"
	"github.com/MrEthical07/goGate/jwt"
	"github.com/MrEthical07/goGate/password"
)

// Engine defines a public type used by goGate APIs.
//
// Engine owns the session registry, the active gate configuration and the
// admin surface. It is safe for concurrent use.
type Engine struct {
	config   Config
	clock    clock.Clock
	logger   *slog.Logger
	issuer   *issuer.Issuer
	store    *configstore.Store
	active   atomic.Pointer[configstore.Configuration]
	navigate func(targetURL string)

	sessionsMu sync.Mutex
	sessions   map[string]*gateSession
	janitor    clock.Stopper

	adminLimiter *rate.Limiter
	secretHasher *password.Argon2
	jwtManager   *jwt.Manager
	ephemeralKey bool

	audit   *internalaudit.Dispatcher
	metrics *Metrics

	closed    atomic.Bool
	closeOnce sync.Once
}

// Close describes the close operation and its observable behavior.
//
// Close stops the janitor, closes every session (releasing its countdown)
// and flushes the audit dispatcher. Later calls return ErrEngineNotReady.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		if e.janitor != nil {
			e.janitor.Stop()
		}

		e.sessionsMu.Lock()
		open := make([]*gateSession, 0, len(e.sessions))
		for id, s := range e.sessions {
			open = append(open, s)
			delete(e.sessions, id)
		}
		e.sessionsMu.Unlock()

		for _, s := range open {
			s.ctrl.Close()
		}
		flushing := e.audit.Pending()
		e.audit.Close()
		stats := e.audit.Stats()
		e.logger.Info("engine closed",
			"sessions_closed", len(open),
			"audit_flushed", flushing,
			"audit_delivered", stats.Delivered,
			"audit_dropped", stats.Dropped,
		)
	})
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() error {
	if e == nil || e.closed.Load() {
		return ErrEngineNotReady
	}
	return nil
}

func (e *Engine) activeConfiguration() configstore.Configuration {
	return *e.active.Load()
}
