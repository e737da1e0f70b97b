package middleware

import (
	"bufio"
	"errors"
	"math"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(data []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(data)
	r.bytes += n
	return n, err
}

// Hijack lets websocket upgrades pass through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// ring keeps the last n latency samples of a route.
type ring struct {
	samples []int64
	next    int
}

func (w *ring) add(value int64, size int) {
	if len(w.samples) < size {
		w.samples = append(w.samples, value)
		return
	}
	w.samples[w.next] = value
	w.next = (w.next + 1) % size
}

type RouteLatency struct {
	Route   string `json:"route"`
	Samples int    `json:"samples"`
	P50Ms   int64  `json:"p50Ms"`
	P95Ms   int64  `json:"p95Ms"`
}

type LatencyTracker struct {
	mu     sync.Mutex
	size   int
	routes map[string]*ring
}

func NewLatencyTracker(size int) *LatencyTracker {
	if size <= 0 {
		size = 200
	}
	return &LatencyTracker{size: size, routes: make(map[string]*ring)}
}

func (a *LatencyTracker) Record(route string, value int64) RouteLatency {
	a.mu.Lock()
	defer a.mu.Unlock()

	win, ok := a.routes[route]
	if !ok {
		win = &ring{}
		a.routes[route] = win
	}
	win.add(value, a.size)
	return summarize(route, win.samples)
}

// Snapshot returns percentiles for every route seen so far, sorted by route.
func (a *LatencyTracker) Snapshot() []RouteLatency {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]RouteLatency, 0, len(a.routes))
	for route, win := range a.routes {
		out = append(out, summarize(route, win.samples))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Route < out[j].Route })
	return out
}

func summarize(route string, samples []int64) RouteLatency {
	values := append([]int64(nil), samples...)
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	return RouteLatency{
		Route:   route,
		Samples: len(values),
		P50Ms:   percentile(values, 0.5),
		P95Ms:   percentile(values, 0.95),
	}
}

func percentile(values []int64, p float64) int64 {
	if len(values) == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(len(values)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return values[idx]
}

// Telemetry logs one line per request with rolling route percentiles.
func Telemetry(logger *zap.Logger, tracker *LatencyTracker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(recorder, r)

			status := recorder.status
			if status == 0 {
				status = http.StatusOK
			}
			duration := time.Since(start)

			routePattern := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				routePattern = rc.RoutePattern()
			}
			route := r.Method + " " + routePattern
			if routePattern == "" {
				route = r.Method + " " + r.URL.Path
			}
			stats := tracker.Record(route, duration.Milliseconds())

			if logger == nil {
				return
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("routePattern", routePattern),
				zap.String("requestId", readRequestID(r)),
				zap.Int("status", status),
				zap.Int("bytes", recorder.bytes),
				zap.Int64("duration_ms", duration.Milliseconds()),
				zap.Int64("p50_ms", stats.P50Ms),
				zap.Int64("p95_ms", stats.P95Ms),
			}
			if authCtx, ok := GetAuthContext(r.Context()); ok {
				fields = append(fields, zap.Int64("userId", authCtx.UserID), zap.Int64("outletId", authCtx.OutletID))
			}
			switch {
			case status >= 500:
				logger.Error("http_request", fields...)
			case status >= 400:
				logger.Warn("http_request", fields...)
			default:
				logger.Info("http_request", fields...)
			}
		})
	}
}
