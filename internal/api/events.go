package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"axisim/internal/event"
	"axisim/internal/logging"
)

// eventPayload is the wire shape shared by the SSE and websocket event
// streams. Session and stage events are flattened into one envelope so
// clients can consume a single stream.
type eventPayload struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	Status    string    `json:"status,omitempty"`
	ElapsedMS int64     `json:"elapsed_ms,omitempty"`
	Error     string    `json:"error,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func sessionEventPayload(e event.SessionEvent) eventPayload {
	return eventPayload{
		Type:      e.EventType,
		SessionID: e.SessionID,
		Status:    e.Status,
		Timestamp: e.OccurredAt,
	}
}

func stageEventPayload(e event.StageEvent) eventPayload {
	return eventPayload{
		Type:      e.EventType,
		SessionID: e.SessionID,
		Stage:     e.Stage,
		ElapsedMS: e.Elapsed.Milliseconds(),
		Error:     e.Err,
		Timestamp: e.OccurredAt,
	}
}

func configEventPayload(e event.ConfigEvent) eventPayload {
	return eventPayload{
		Type:      e.EventType,
		Message:   e.Message,
		Timestamp: e.OccurredAt,
	}
}

type EventStreamHandler struct {
	Token          string
	AllowedOrigins []string
	Logger         *logging.Logger
	SessionBus     *event.Bus[event.SessionEvent]
	StageBus       *event.Bus[event.StageEvent]
	ConfigBus      *event.Bus[event.ConfigEvent]
}

// parseTypeFilter reads the comma-separated types query parameter. An empty
// or absent parameter means no filtering.
func parseTypeFilter(r *http.Request) map[string]struct{} {
	raw := strings.TrimSpace(r.URL.Query().Get("types"))
	if raw == "" {
		return nil
	}
	allowed := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			allowed[part] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return nil
	}
	return allowed
}

func allowsType(allowed map[string]struct{}, eventType string) bool {
	if allowed == nil {
		return true
	}
	_, ok := allowed[eventType]
	return ok
}

// mergeStreams fans session, stage, and config events into one payload
// channel, dropping payloads outside the allowed type set. The channel closes
// once the context is done and all forwarders have drained.
func (h *EventStreamHandler) mergeStreams(ctx context.Context, allowed map[string]struct{}) <-chan eventPayload {
	merged := make(chan eventPayload, 64)

	var wg sync.WaitGroup
	forward := func(run func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run()
		}()
	}

	if h.SessionBus != nil {
		events, cancel := h.SessionBus.Subscribe()
		forward(func() {
			defer cancel()
			pumpEvents(ctx, events, merged, allowed, sessionEventPayload)
		})
	}
	if h.StageBus != nil {
		events, cancel := h.StageBus.Subscribe()
		forward(func() {
			defer cancel()
			pumpEvents(ctx, events, merged, allowed, stageEventPayload)
		})
	}
	if h.ConfigBus != nil {
		events, cancel := h.ConfigBus.Subscribe()
		forward(func() {
			defer cancel()
			pumpEvents(ctx, events, merged, allowed, configEventPayload)
		})
	}

	go func() {
		wg.Wait()
		close(merged)
	}()

	return merged
}

func pumpEvents[T any](ctx context.Context, input <-chan T, output chan<- eventPayload, allowed map[string]struct{}, build func(T) eventPayload) {
	for {
		select {
		case <-ctx.Done():
			return
		case value, ok := <-input:
			if !ok {
				return
			}
			payload := build(value)
			if !allowsType(allowed, payload.Type) {
				continue
			}
			select {
			case output <- payload:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *EventStreamHandler) handleEventsSSE(w http.ResponseWriter, r *http.Request) {
	if !requireSSEToken(w, r, h.Token, h.Logger) {
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	serveSSEStream(w, r, sseStreamConfig[eventPayload]{
		Logger:    h.Logger,
		Output:    h.mergeStreams(ctx, parseTypeFilter(r)),
		EventName: "event",
	})
}

func (h *EventStreamHandler) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	if !requireWSToken(w, r, h.Token, h.Logger) {
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	serveWSStream(w, r, wsStreamConfig[eventPayload]{
		AllowedOrigins: h.AllowedOrigins,
		Output:         h.mergeStreams(ctx, parseTypeFilter(r)),
		Logger:         h.Logger,
	})
}
