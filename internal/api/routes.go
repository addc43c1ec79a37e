package api

import (
	"net/http"
	"time"

	otelapi "go.opentelemetry.io/otel"

	"axisim/internal/event"
	"axisim/internal/logging"
	"axisim/internal/metrics"
	"axisim/internal/orchestrator"
	"axisim/internal/otel"
)

type RouteConfig struct {
	Orchestrator   *orchestrator.Orchestrator
	AuthToken      string
	AllowedOrigins []string
	Logger         *logging.Logger
	Metrics        *metrics.Registry
	SessionBus     *event.Bus[event.SessionEvent]
	StageBus       *event.Bus[event.StageEvent]
	ConfigBus      *event.Bus[event.ConfigEvent]
}

func RegisterRoutes(mux *http.ServeMux, config RouteConfig) {
	logger := config.Logger
	authToken := config.AuthToken

	rest := &RestHandler{
		Orchestrator: config.Orchestrator,
		Logger:       logger,
		Metrics:      config.Metrics,
		StartedAt:    time.Now().UTC(),
	}

	meter := otelapi.GetMeterProvider().Meter("axisim/api")
	tracer := otelapi.Tracer("axisim/api")
	instrument, err := otel.NewAPIInstrumentationMiddleware(meter, tracer)
	if err != nil && logger != nil {
		logger.Warn("otel api middleware unavailable", map[string]string{
			"error": err.Error(),
		})
	}
	if instrument == nil {
		instrument = func(next http.Handler) http.Handler { return next }
	}
	wrap := func(route, category, operation string, handler http.Handler) http.Handler {
		return otel.WithRouteInfo(instrument(loggingMiddleware(logger, handler)), otel.RouteInfo{
			Route:     route,
			Category:  category,
			Operation: operation,
		})
	}

	events := &EventStreamHandler{
		Token:          authToken,
		AllowedOrigins: config.AllowedOrigins,
		Logger:         logger,
		SessionBus:     config.SessionBus,
		StageBus:       config.StageBus,
		ConfigBus:      config.ConfigBus,
	}
	logs := &LogStreamHandler{
		Token:          authToken,
		AllowedOrigins: config.AllowedOrigins,
		Logger:         logger,
	}

	mux.Handle("/api/events/stream", securityHeadersMiddleware(cacheControlNoStore, http.HandlerFunc(events.handleEventsSSE)))
	mux.Handle("/ws/events", securityHeadersMiddleware(cacheControlNoStore, http.HandlerFunc(events.handleEventsWS)))
	mux.Handle("/api/logs/stream", securityHeadersMiddleware(cacheControlNoStore, http.HandlerFunc(logs.handleLogsSSE)))
	mux.Handle("/ws/logs", securityHeadersMiddleware(cacheControlNoStore, http.HandlerFunc(logs.handleLogsWS)))

	mux.Handle("/api/health", wrap("/api/health", "status", "read", restHandler("", rest.handleHealth)))
	mux.Handle("/api/status", wrap("/api/status", "status", "read", restHandler(authToken, rest.handleStatus)))
	mux.Handle("/api/sessions", wrap("/api/sessions", "sessions", "auto", restHandler(authToken, rest.handleSessions)))
	mux.Handle("/api/sessions/", wrap("/api/sessions/:id", "sessions", "auto", restHandler(authToken, rest.handleSession)))
	mux.Handle("/api/simulate", wrap("/api/simulate", "simulation", "create", restHandler(authToken, rest.handleSimulate)))
	mux.Handle("/api/coordinates/analyze", wrap("/api/coordinates/analyze", "coordinates", "query", restHandler(authToken, rest.handleAnalyzeCoordinate)))
	mux.Handle("/api/axes", wrap("/api/axes", "coordinates", "read", restHandler(authToken, rest.handleAxes)))
	mux.Handle("/api/metrics/system", wrap("/api/metrics/system", "status", "query", restHandler(authToken, rest.handleSystemMetrics)))
	mux.Handle("/api/logs", wrap("/api/logs", "logs", "read", restHandler(authToken, rest.handleLogs)))
	mux.Handle("/metrics", wrap("/metrics", "metrics", "read", jsonErrorMiddleware(rest.handlePrometheus)))
	mux.Handle("/api/", securityHeadersMiddleware(cacheControlNoStore, http.NotFoundHandler()))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w, cacheControlNoCache)
		if authToken != "" {
			w.Header().Set("X-Axisim-Auth", "required")
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("axisim ok\n"))
	})
}
