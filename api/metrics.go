package api

import (
	"context"
	"sort"
	"sync"
	"time"
)

// RequestTrace tracks timing for a single request
type RequestTrace struct {
	RequestID     string        `json:"requestId"`
	Method        string        `json:"method"`
	Route         string        `json:"route"`
	Status        int           `json:"status"`
	StartTime     time.Time     `json:"startTime"`
	TotalDuration time.Duration `json:"totalDuration"`
}

// RouteMetrics aggregates metrics for a specific route template
type RouteMetrics struct {
	Method      string        `json:"method"`
	Route       string        `json:"route"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MinTime     time.Duration `json:"minTime"`
	MaxTime     time.Duration `json:"maxTime"`
	LastRequest time.Time     `json:"lastRequest"`
}

// Snapshot is the JSON shape served by the metrics endpoint
type Snapshot struct {
	StartedAt     time.Time        `json:"startedAt"`
	TotalRequests int64            `json:"totalRequests"`
	TotalErrors   int64            `json:"totalErrors"`
	Outcomes      map[string]int64 `json:"outcomes"`
	Routes        []RouteMetrics   `json:"routes"`
}

// MetricsCollector collects request timings and invite outcome counts. Recording never
// blocks a request: traces go through a buffered channel and are dropped when it is full.
type MetricsCollector struct {
	mu            sync.RWMutex
	startedAt     time.Time
	routeMetrics  map[string]*RouteMetrics
	outcomes      map[string]int64
	totalRequests int64
	totalErrors   int64
	traceChan     chan RequestTrace
	stopOnce      sync.Once
	stopChan      chan struct{}
}

// NewMetricsCollector starts a collector that processes traces until Stop is called
func NewMetricsCollector() *MetricsCollector {
	mc := newMetricsCollector()
	go mc.processTraces()
	return mc
}

func newMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		startedAt:    time.Now().UTC(),
		routeMetrics: make(map[string]*RouteMetrics),
		outcomes:     make(map[string]int64),
		traceChan:    make(chan RequestTrace, 1000),
		stopChan:     make(chan struct{}),
	}
}

// Stop ends background processing
func (mc *MetricsCollector) Stop() {
	mc.stopOnce.Do(func() { close(mc.stopChan) })
}

// RecordTrace queues a trace without blocking
func (mc *MetricsCollector) RecordTrace(trace RequestTrace) {
	select {
	case mc.traceChan <- trace:
	default:
	}
}

// RecordOutcome counts one issuance or redemption outcome, keyed by error kind or "Issued"/"Redeemed"
func (mc *MetricsCollector) RecordOutcome(kind string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.outcomes[kind]++
}

func (mc *MetricsCollector) processTraces() {
	for {
		select {
		case trace := <-mc.traceChan:
			mc.processTrace(trace)
		case <-mc.stopChan:
			return
		}
	}
}

func (mc *MetricsCollector) processTrace(trace RequestTrace) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	routeKey := trace.Method + " " + trace.Route
	metrics, exists := mc.routeMetrics[routeKey]
	if !exists {
		metrics = &RouteMetrics{
			Method:  trace.Method,
			Route:   trace.Route,
			MinTime: trace.TotalDuration,
		}
		mc.routeMetrics[routeKey] = metrics
	}

	metrics.Count++
	metrics.TotalTime += trace.TotalDuration
	metrics.AvgTime = metrics.TotalTime / time.Duration(metrics.Count)
	metrics.LastRequest = trace.StartTime
	if trace.TotalDuration < metrics.MinTime {
		metrics.MinTime = trace.TotalDuration
	}
	if trace.TotalDuration > metrics.MaxTime {
		metrics.MaxTime = trace.TotalDuration
	}

	mc.totalRequests++
	if trace.Status >= 400 {
		metrics.ErrorCount++
		mc.totalErrors++
	}
}

// Snapshot copies the current counters, routes ordered by request count
func (mc *MetricsCollector) Snapshot() Snapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	s := Snapshot{
		StartedAt:     mc.startedAt,
		TotalRequests: mc.totalRequests,
		TotalErrors:   mc.totalErrors,
		Outcomes:      make(map[string]int64, len(mc.outcomes)),
		Routes:        make([]RouteMetrics, 0, len(mc.routeMetrics)),
	}
	for k, v := range mc.outcomes {
		s.Outcomes[k] = v
	}
	for _, v := range mc.routeMetrics {
		s.Routes = append(s.Routes, *v)
	}
	sort.Slice(s.Routes, func(i, j int) bool {
		if s.Routes[i].Count != s.Routes[j].Count {
			return s.Routes[i].Count > s.Routes[j].Count
		}
		return s.Routes[i].Method+" "+s.Routes[i].Route < s.Routes[j].Method+" "+s.Routes[j].Route
	})
	return s
}

type requestIDContextKey struct{}

// WithRequestID adds the request id to ctx
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

// RequestIDFromContext returns the id set by MetricsMiddleware, or ""
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
