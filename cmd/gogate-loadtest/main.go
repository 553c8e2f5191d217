package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/internal/clock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		sessions    = flag.Int("sessions", 20000, "number of sessions to drive through the flow")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		logins      = flag.Int("logins", 20000, "admin logins in the admin phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *logins <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and logins must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	// The fake clock lets every countdown finish with one Advance instead of
	// waiting out real seconds.
	fake := clock.NewFake(time.Now())

	cfg := goGate.DefaultConfig()
	cfg.Session.MaxSessions = *sessions
	cfg.Admin.MaxLoginAttempts = *logins + 1
	cfg.Store.RedisPrefix = fmt.Sprintf("loadtest:%d:", time.Now().UnixNano())

	engine, err := goGate.New().
		WithConfig(cfg).
		WithRedis(client).
		WithClock(fake).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	gate := engine.Configuration()
	fmt.Printf("driving %d sessions through %d checkpoints...\n", *sessions, len(gate.Checkpoints))

	ids := make([]string, *sessions)
	createStats := runPhase(*sessions, *concurrency, func(i int) error {
		view, err := engine.CreateSession(ctx)
		if err != nil {
			return err
		}
		ids[i] = view.ID
		_, err = engine.Start(ctx, view.ID)
		return err
	})

	results := []namedStats{{"create+start", createStats}}
	for cp, spec := range gate.Checkpoints {
		openStats := runPhase(*sessions, *concurrency, func(i int) error {
			if _, err := engine.OpenLink(ctx, ids[i], cp); err != nil {
				return err
			}
			_, err := engine.ReportForegroundLoss(ctx, ids[i], cp)
			return err
		})

		t0 := time.Now()
		fake.Advance(time.Duration(spec.WaitDurationSeconds) * time.Second)
		fmt.Printf("checkpoint %d countdowns finished in %s\n", cp, time.Since(t0).Round(time.Millisecond))

		verifyStats := runPhase(*sessions, *concurrency, func(i int) error {
			_, err := engine.Verify(ctx, ids[i], cp)
			return err
		})
		results = append(results,
			namedStats{fmt.Sprintf("open[%d]", cp), openStats},
			namedStats{fmt.Sprintf("verify[%d]", cp), verifyStats},
		)
	}

	adminStats := runPhase(*logins, *concurrency, func(i int) error {
		loginCtx := goGate.WithClientIP(ctx, fmt.Sprintf("10.%d.%d.%d", (i>>16)&0xFF, (i>>8)&0xFF, i&0xFF))
		_, err := engine.AdminLogin(loginCtx, goGate.DefaultAdminSecret)
		return err
	})
	results = append(results, namedStats{"admin-login", adminStats})

	fmt.Println("---- results ----")
	for _, r := range results {
		printStats(r.name, r.stats)
	}
	snap := engine.MetricsSnapshot()
	fmt.Printf("keys issued: %d, rejected verifies: %d, active sessions: %d\n",
		snap.Counters[goGate.MetricKeyIssued],
		snap.Counters[goGate.MetricVerifyRejected],
		engine.SessionCount(),
	)
}

type namedStats struct {
	name  string
	stats phaseStats
}

func runPhase(ops, concurrency int, op func(i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%-14s ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
