// Package clock provides the time source and repeating callbacks that drive
// checkpoint countdowns.
//
// # Architecture boundaries
//
// A [Clock] only schedules callbacks. It does not know about checkpoint phases;
// callers guard their own state against callbacks that arrive after Stop.
//
// # What this package must NOT do
//
//   - Import goGate or any sibling internal package.
//   - Keep goroutines alive after every returned [Stopper] has been stopped.
package clock

import (
	"sync"
	"time"
)

// Stopper cancels a repeating callback. Stop is idempotent.
type Stopper interface {
	Stop()
}

// Clock is the time source used by flows and checkpoint runs.
type Clock interface {
	Now() time.Time
	// Every calls fn once per interval until the returned Stopper is stopped.
	Every(interval time.Duration, fn func()) Stopper
}

// System is the wall-clock implementation backed by time.Ticker.
type System struct{}

func (System) Now() time.Time {
	return time.Now()
}

func (System) Every(interval time.Duration, fn func()) Stopper {
	t := &systemTicker{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go t.run(fn)
	return t
}

type systemTicker struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *systemTicker) run(fn func()) {
	for {
		select {
		case <-t.ticker.C:
			select {
			case <-t.done:
				return
			default:
			}
			fn()
		case <-t.done:
			return
		}
	}
}

// Stop may be called from inside the callback.
func (t *systemTicker) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}
