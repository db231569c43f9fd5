// Command authgate-loadtest drives the request pipeline against an
// in-process portal backend and reports latency percentiles plus refresh
// behavior under forced expiry storms. It answers one question: how many
// refresh round-trips does a burst of expired requests cost.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authgate "github.com/veylan/authgate"
	"github.com/veylan/authgate/session"
)

func main() {
	var (
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 50000, "requests in the steady phase")
		storms      = flag.Int("storms", 20, "forced token expiries in the storm phase")
		stormOps    = flag.Int("storm-ops", 20000, "requests in the storm phase")
		redisAddr   = flag.String("redis-addr", "", "redis address for credential storage; if empty, REDIS_ADDR env or miniredis is used")
		namespace   = flag.String("namespace", "authgate-loadtest", "credential storage namespace")
	)
	flag.Parse()

	if *concurrency <= 0 || *ops <= 0 || *stormOps <= 0 || *storms < 0 {
		fmt.Fprintln(os.Stderr, "concurrency, ops, and storm-ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup     func()
		redisClient redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		redisClient = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = redisClient.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		redisClient = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = redisClient.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	backend := newBackend()
	defer backend.srv.Close()

	client, err := authgate.NewBuilder().
		WithBaseURL(backend.srv.URL).
		WithStorage(session.NewRedisStorage(redisClient, *namespace)).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	if err := client.Login(ctx, authgate.LoginRequest{Identifier: "loadtest", Secret: "loadtest"}); err != nil {
		fmt.Fprintf(os.Stderr, "login: %v\n", err)
		os.Exit(1)
	}

	steady := runPhase(ctx, client, *ops, *concurrency, nil)

	stormTick := *stormOps / (*storms + 1)
	storm := runPhase(ctx, client, *stormOps, *concurrency, func(i int) {
		if stormTick > 0 && i%stormTick == 0 && i > 0 {
			backend.expireAccess()
		}
	})

	fmt.Println("---- results ----")
	printStats("steady", steady)
	printStats("storm", storm)

	snap := client.MetricsSnapshot()
	fmt.Printf("storms=%d refresh_http_calls=%d refresh_success=%d coalesced=%d replayed=%d\n",
		*storms,
		backend.refreshCalls.Load(),
		snap.Counters[authgate.MetricRefreshSuccess],
		snap.Counters[authgate.MetricRefreshCoalesced],
		snap.Counters[authgate.MetricRequestReplayed],
	)
}

func runPhase(ctx context.Context, client *authgate.Client, ops, concurrency int, beforeOp func(i int)) phaseStats {
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
				if beforeOp != nil {
					beforeOp(i)
				}

				var out []string
				t0 := time.Now()
				err := client.Do(ctx, authgate.Call{Method: http.MethodGet, Path: "/api/widgets"}, &out)
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
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
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

// backend is the in-process portal API: bearer-checked widget reads plus the
// login/refresh pair issuance the client depends on.
type backend struct {
	mu           sync.Mutex
	access       string
	refresh      string
	seq          int
	refreshCalls atomic.Int64

	srv *httptest.Server
}

func newBackend() *backend {
	b := &backend{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", b.handleLogin)
	mux.HandleFunc("POST /auth/refresh", b.handleRefresh)
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, 0, "ok", nil)
	})
	mux.HandleFunc("GET /api/widgets", b.handleWidgets)

	b.srv = httptest.NewServer(mux)
	return b
}

func writeEnvelope(w http.ResponseWriter, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	body := map[string]any{"code": code, "message": message}
	if data != nil {
		body["data"] = data
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (b *backend) issuePair() (string, string) {
	b.seq++
	b.access = fmt.Sprintf("acc-%d", b.seq)
	b.refresh = fmt.Sprintf("ref-%d", b.seq)
	return b.access, b.refresh
}

func (b *backend) handleLogin(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	access, refresh := b.issuePair()
	b.mu.Unlock()

	writeEnvelope(w, 0, "ok", map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"identity":      map[string]any{"id": "loadtest", "username": "loadtest"},
	})
}

func (b *backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	ok := req.RefreshToken == b.refresh
	var access, refresh string
	if ok {
		access, refresh = b.issuePair()
	}
	b.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeEnvelope(w, 0, "ok", map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

func (b *backend) handleWidgets(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	ok := r.Header.Get("Authorization") == "Bearer "+b.access
	b.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeEnvelope(w, 0, "ok", []string{"w1", "w2", "w3"})
}

func (b *backend) expireAccess() {
	b.mu.Lock()
	b.access = "expired:" + b.access
	b.mu.Unlock()
}
