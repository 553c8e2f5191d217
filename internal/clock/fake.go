package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced Clock. Callbacks run synchronously inside
// Advance, in schedule order, without the fake's lock held.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

type fakeTicker struct {
	owner    *Fake
	interval time.Duration
	next     time.Time
	fn       func()
	stopped  bool
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Every(interval time.Duration, fn func()) Stopper {
	if interval <= 0 {
		interval = time.Second
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	t := &fakeTicker{
		owner:    f,
		interval: interval,
		next:     f.now.Add(interval),
		fn:       fn,
	}
	f.tickers = append(f.tickers, t)
	return t
}

// Advance moves the clock forward by d, firing every callback that comes due.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		var due *fakeTicker
		for _, t := range f.tickers {
			if t.stopped || t.next.After(target) {
				continue
			}
			if due == nil || t.next.Before(due.next) {
				due = t
			}
		}
		if due == nil {
			f.now = target
			f.prune()
			f.mu.Unlock()
			return
		}
		f.now = due.next
		due.next = due.next.Add(due.interval)
		fn := due.fn
		f.mu.Unlock()

		fn()
	}
}

// Active reports how many repeating callbacks are still scheduled.
func (f *Fake) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, t := range f.tickers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (f *Fake) prune() {
	kept := f.tickers[:0]
	for _, t := range f.tickers {
		if !t.stopped {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(f.tickers); i++ {
		f.tickers[i] = nil
	}
	f.tickers = kept
}

func (t *fakeTicker) Stop() {
	t.owner.mu.Lock()
	t.stopped = true
	t.owner.mu.Unlock()
}
