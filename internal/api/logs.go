package api

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"axisim/internal/logging"
)

const logReplayCount = 50

type LogStreamHandler struct {
	Token          string
	AllowedOrigins []string
	Logger         *logging.Logger
}

// logStream replays the most recent buffered entries and then follows the
// live feed until the context ends.
func (h *LogStreamHandler) logStream(ctx context.Context) <-chan logging.LogEntry {
	output := make(chan logging.LogEntry, 64)

	var replay []logging.LogEntry
	if buffer := h.Logger.Buffer(); buffer != nil {
		entries := buffer.List()
		if len(entries) > logReplayCount {
			entries = entries[len(entries)-logReplayCount:]
		}
		replay = entries
	}

	live, cancel := h.Logger.Subscribe()

	go func() {
		defer close(output)
		defer cancel()

		for _, entry := range replay {
			select {
			case output <- entry:
			case <-ctx.Done():
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-live:
				if !ok {
					return
				}
				select {
				case output <- entry:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return output
}

func (h *LogStreamHandler) handleLogsSSE(w http.ResponseWriter, r *http.Request) {
	if !requireSSEToken(w, r, h.Token, h.Logger) {
		return
	}
	if h.Logger == nil {
		writeSSEHTTPError(w, r, nil, sseError{
			Status:  http.StatusServiceUnavailable,
			Message: "log streaming unavailable",
		})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	serveSSEStream(w, r, sseStreamConfig[logging.LogEntry]{
		Logger:    h.Logger,
		Output:    h.logStream(ctx),
		EventName: "log",
	})
}

func (h *LogStreamHandler) handleLogsWS(w http.ResponseWriter, r *http.Request) {
	if !requireWSToken(w, r, h.Token, h.Logger) {
		return
	}
	if h.Logger == nil {
		writeWSError(w, r, nil, nil, wsError{
			Status:    http.StatusServiceUnavailable,
			CloseCode: websocket.CloseTryAgainLater,
			Message:   "log streaming unavailable",
		})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	serveWSStream(w, r, wsStreamConfig[logging.LogEntry]{
		AllowedOrigins: h.AllowedOrigins,
		Output:         h.logStream(ctx),
		Logger:         h.Logger,
	})
}
