package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Registry holds process-local counters exposed in Prometheus text format.
// All methods are safe on a nil receiver so callers never need to guard.
type Registry struct {
	sessionsCreated   atomic.Int64
	sessionsCompleted atomic.Int64
	sessionsFailed    atomic.Int64
	sessionsReaped    atomic.Int64
	stages            sync.Map
	eventBuses        sync.Map
}

type stageStats struct {
	count         atomic.Int64
	failures      atomic.Int64
	durationNanos atomic.Int64
}

type eventBusStats struct {
	published           atomic.Int64
	dropped             atomic.Int64
	filteredSubscribers atomic.Int64
	totalSubscribers    atomic.Int64
}

var Default = &Registry{}

func (r *Registry) IncSessionCreated() {
	if r == nil {
		return
	}
	r.sessionsCreated.Add(1)
}

func (r *Registry) IncSessionCompleted() {
	if r == nil {
		return
	}
	r.sessionsCompleted.Add(1)
}

func (r *Registry) IncSessionFailed() {
	if r == nil {
		return
	}
	r.sessionsFailed.Add(1)
}

func (r *Registry) AddSessionsReaped(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.sessionsReaped.Add(int64(n))
}

func (r *Registry) RecordStage(name string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	if strings.TrimSpace(name) == "" {
		name = "unknown"
	}
	stats := r.stageStats(name)
	stats.count.Add(1)
	stats.durationNanos.Add(duration.Nanoseconds())
	if err != nil {
		stats.failures.Add(1)
	}
}

func (r *Registry) IncEventPublished(bus string) {
	if r == nil {
		return
	}
	r.eventBusStats(bus).published.Add(1)
}

func (r *Registry) IncEventDropped(bus string) {
	if r == nil {
		return
	}
	r.eventBusStats(bus).dropped.Add(1)
}

func (r *Registry) SetEventSubscriberCounts(bus string, filtered, unfiltered int) {
	if r == nil {
		return
	}
	stats := r.eventBusStats(bus)
	stats.filteredSubscribers.Store(int64(filtered))
	stats.totalSubscribers.Store(int64(filtered + unfiltered))
}

func (r *Registry) WritePrometheus(writer io.Writer) error {
	if r == nil {
		return nil
	}

	writeCounter(writer, "axisim_sessions_created_total", "Total sessions created", r.sessionsCreated.Load())
	writeCounter(writer, "axisim_sessions_completed_total", "Total sessions completed", r.sessionsCompleted.Load())
	writeCounter(writer, "axisim_sessions_failed_total", "Total sessions failed", r.sessionsFailed.Load())
	writeCounter(writer, "axisim_sessions_reaped_total", "Total expired sessions reaped", r.sessionsReaped.Load())

	stageNames := keysOf(&r.stages)
	sort.Strings(stageNames)

	writeHelp(writer, "axisim_stage_duration_seconds", "Workflow stage duration in seconds")
	fmt.Fprintln(writer, "# TYPE axisim_stage_duration_seconds summary")
	writeHelp(writer, "axisim_stage_failures_total", "Workflow stage failures")
	fmt.Fprintln(writer, "# TYPE axisim_stage_failures_total counter")

	for _, name := range stageNames {
		stats := r.stageStats(name)
		label := formatLabel(name)
		durationSeconds := float64(stats.durationNanos.Load()) / float64(time.Second)
		fmt.Fprintf(writer, "axisim_stage_duration_seconds_sum{stage=%s} %.6f\n", label, durationSeconds)
		fmt.Fprintf(writer, "axisim_stage_duration_seconds_count{stage=%s} %d\n", label, stats.count.Load())
		fmt.Fprintf(writer, "axisim_stage_failures_total{stage=%s} %d\n", label, stats.failures.Load())
	}

	busNames := keysOf(&r.eventBuses)
	sort.Strings(busNames)

	writeHelp(writer, "axisim_events_published_total", "Events published per bus")
	fmt.Fprintln(writer, "# TYPE axisim_events_published_total counter")
	writeHelp(writer, "axisim_events_dropped_total", "Events dropped per bus")
	fmt.Fprintln(writer, "# TYPE axisim_events_dropped_total counter")
	writeHelp(writer, "axisim_event_subscribers", "Current subscribers per bus")
	fmt.Fprintln(writer, "# TYPE axisim_event_subscribers gauge")

	for _, name := range busNames {
		stats := r.eventBusStats(name)
		label := formatLabel(name)
		fmt.Fprintf(writer, "axisim_events_published_total{bus=%s} %d\n", label, stats.published.Load())
		fmt.Fprintf(writer, "axisim_events_dropped_total{bus=%s} %d\n", label, stats.dropped.Load())
		fmt.Fprintf(writer, "axisim_event_subscribers{bus=%s} %d\n", label, stats.totalSubscribers.Load())
	}

	return nil
}

func (r *Registry) stageStats(name string) *stageStats {
	value, _ := r.stages.LoadOrStore(name, &stageStats{})
	return value.(*stageStats)
}

func (r *Registry) eventBusStats(name string) *eventBusStats {
	if strings.TrimSpace(name) == "" {
		name = "event_bus"
	}
	value, _ := r.eventBuses.LoadOrStore(name, &eventBusStats{})
	return value.(*eventBusStats)
}

func keysOf(m *sync.Map) []string {
	var names []string
	m.Range(func(key, value interface{}) bool {
		if name, ok := key.(string); ok {
			names = append(names, name)
		}
		return true
	})
	return names
}

func writeHelp(writer io.Writer, metric, help string) {
	fmt.Fprintf(writer, "# HELP %s %s\n", metric, help)
}

func writeCounter(writer io.Writer, metric, help string, value int64) {
	writeHelp(writer, metric, help)
	fmt.Fprintf(writer, "# TYPE %s counter\n", metric)
	fmt.Fprintf(writer, "%s %d\n", metric, value)
}

func formatLabel(value string) string {
	escaped := strings.ReplaceAll(value, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
	return fmt.Sprintf("\"%s\"", escaped)
}
