package api

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"axisim/internal/event"
	"axisim/internal/logging"
	"axisim/internal/metrics"
)

func streamLogger() *logging.Logger {
	return logging.NewLoggerWithOutput(nil, logging.LevelError, io.Discard)
}

func newStreamServer(t *testing.T, token string) (*httptest.Server, *event.Bus[event.SessionEvent], *event.Bus[event.StageEvent]) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	registry := &metrics.Registry{}
	sessionBus := event.NewBus[event.SessionEvent](ctx, event.BusOptions{Name: "sessions", Registry: registry})
	stageBus := event.NewBus[event.StageEvent](ctx, event.BusOptions{Name: "stages", Registry: registry})
	t.Cleanup(func() {
		sessionBus.Close()
		stageBus.Close()
	})

	mux := http.NewServeMux()
	RegisterRoutes(mux, RouteConfig{
		AuthToken:  token,
		Logger:     streamLogger(),
		Metrics:    registry,
		SessionBus: sessionBus,
		StageBus:   stageBus,
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, sessionBus, stageBus
}

func TestEventsSSEDeliversBusEvents(t *testing.T) {
	server, sessionBus, stageBus := newStreamServer(t, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/events/stream", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer response.Body.Close()

	if contentType := response.Header.Get("Content-Type"); contentType != "text/event-stream" {
		t.Fatalf("expected event stream content type, got %q", contentType)
	}

	// Publish until the subscription inside the handler picks one up.
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sessionBus.Publish(event.NewSessionEvent("s-1", "active", "session_created"))
				stageBus.Publish(event.NewStageEvent("s-1", "synthesis", "stage_completed"))
			}
		}
	}()

	scanner := bufio.NewScanner(response.Body)
	sawSession := false
	sawStage := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			if strings.Contains(line, "session_created") {
				sawSession = true
			}
			if strings.Contains(line, "stage_completed") {
				sawStage = true
			}
		}
		if sawSession && sawStage {
			break
		}
	}
	if !sawSession || !sawStage {
		t.Fatalf("expected both event kinds on the stream, session=%v stage=%v", sawSession, sawStage)
	}
}

func TestEventsSSERejectsBadToken(t *testing.T) {
	server, _, _ := newStreamServer(t, "secret")

	response, err := http.Get(server.URL + "/api/events/stream")
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	response.Body.Close()
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", response.StatusCode)
	}

	response, err = http.Get(server.URL + "/api/events/stream?token=secret")
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with query token, got %d", response.StatusCode)
	}
}

func TestEventsWebSocketDeliversBusEvents(t *testing.T) {
	server, sessionBus, _ := newStreamServer(t, "")

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				sessionBus.Publish(event.NewSessionEvent("s-2", "active", "session_created"))
			}
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var payload eventPayload
	if err := conn.ReadJSON(&payload); err != nil {
		t.Fatalf("read websocket payload: %v", err)
	}
	if payload.Type != "session_created" || payload.SessionID != "s-2" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestLogsSSEReplaysBufferedEntries(t *testing.T) {
	logger := logging.NewLoggerWithOutput(logging.NewLogBuffer(100), logging.LevelInfo, io.Discard)
	logger.Info("buffered before stream", nil)

	mux := http.NewServeMux()
	RegisterRoutes(mux, RouteConfig{Logger: logger, Metrics: &metrics.Registry{}})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/logs/stream", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer response.Body.Close()

	scanner := bufio.NewScanner(response.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") && strings.Contains(line, "buffered before stream") {
			return
		}
	}
	t.Fatal("expected replayed log entry on the stream")
}

func TestParseTypeFilter(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "http://example.test/api/events/stream?types=stage_completed,%20session_created", nil)
	allowed := parseTypeFilter(request)
	if len(allowed) != 2 {
		t.Fatalf("expected 2 allowed types, got %v", allowed)
	}
	if !allowsType(allowed, "stage_completed") || !allowsType(allowed, "session_created") {
		t.Fatalf("expected listed types to pass, got %v", allowed)
	}
	if allowsType(allowed, "session_failed") {
		t.Fatal("unlisted type must be filtered")
	}

	request = httptest.NewRequest(http.MethodGet, "http://example.test/api/events/stream", nil)
	if parseTypeFilter(request) != nil {
		t.Fatal("absent parameter must disable filtering")
	}
	if !allowsType(nil, "anything") {
		t.Fatal("nil filter must pass everything")
	}
}

func TestEventsSSEFiltersByType(t *testing.T) {
	server, sessionBus, stageBus := newStreamServer(t, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/events/stream?types=stage_completed", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer response.Body.Close()

	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sessionBus.Publish(event.NewSessionEvent("s-3", "active", "session_created"))
				stageBus.Publish(event.NewStageEvent("s-3", "synthesis", "stage_completed"))
			}
		}
	}()

	scanner := bufio.NewScanner(response.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		if strings.Contains(line, "session_created") {
			t.Fatalf("filtered type leaked onto the stream: %q", line)
		}
		if strings.Contains(line, "stage_completed") {
			return
		}
	}
	t.Fatal("expected a stage event on the filtered stream")
}

func TestValidateToken(t *testing.T) {
	cases := []struct {
		name   string
		token  string
		header string
		query  string
		want   bool
	}{
		{"no token configured", "", "", "", true},
		{"bearer match", "secret", "Bearer secret", "", true},
		{"bearer mismatch", "secret", "Bearer wrong", "", false},
		{"query match", "secret", "", "secret", true},
		{"query mismatch", "secret", "", "wrong", false},
		{"missing credentials", "secret", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			url := "http://example.test/api/status"
			if tc.query != "" {
				url += "?token=" + tc.query
			}
			request := httptest.NewRequest(http.MethodGet, url, nil)
			if tc.header != "" {
				request.Header.Set("Authorization", tc.header)
			}
			if got := validateToken(request, tc.token); got != tc.want {
				t.Fatalf("validateToken = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsOriginAllowed(t *testing.T) {
	cases := []struct {
		name    string
		origin  string
		allowed []string
		want    bool
	}{
		{"no origin header", "", nil, true},
		{"same host", "http://example.test", nil, true},
		{"cross host", "http://evil.test", nil, false},
		{"allow list match", "http://trusted.test", []string{"trusted.test"}, true},
		{"allow list miss", "http://evil.test", []string{"trusted.test"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "http://example.test/ws/events", nil)
			if tc.origin != "" {
				request.Header.Set("Origin", tc.origin)
			}
			if got := isOriginAllowed(request, tc.allowed); got != tc.want {
				t.Fatalf("isOriginAllowed = %v, want %v", got, tc.want)
			}
		})
	}
}
