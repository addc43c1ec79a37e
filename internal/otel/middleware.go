package otel

import (
	"context"
	"net/http"
	"time"

	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	MetricRequestCount    = "http.server.request.count"
	MetricRequestDuration = "http.server.request.duration"
	MetricActiveRequests  = "http.server.active_requests"
	MetricAPIErrorCount   = "api.errors.count"
	spanNameHTTPRequest   = "http.server.request"
)

// RouteInfo names a route for metrics and traces; it rides the request
// context so handlers registered on prefix patterns still report a stable
// route label.
type RouteInfo struct {
	Route     string
	Category  string
	Operation string
}

type routeInfoKey struct{}

type APIErrorInfo struct {
	Status  int
	Code    string
	Message string
}

type apiErrorKey struct{}

func WithRouteInfo(next http.Handler, info RouteInfo) http.Handler {
	if next == nil {
		return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), routeInfoKey{}, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RouteInfoFromContext(ctx context.Context) (RouteInfo, bool) {
	if ctx == nil {
		return RouteInfo{}, false
	}
	info, ok := ctx.Value(routeInfoKey{}).(RouteInfo)
	return info, ok
}

// RecordAPIError reports a handler-level error to the instrumentation
// middleware, which folds it into the error counter and span status.
func RecordAPIError(ctx context.Context, info APIErrorInfo) {
	if ctx == nil {
		return
	}
	tracker, ok := ctx.Value(apiErrorKey{}).(*APIErrorInfo)
	if !ok || tracker == nil {
		return
	}
	*tracker = info
}

// RecordSpanEvent attaches an event to the server span of the current
// request, if one is recording. Used by handlers for moments that matter on
// a trace but do not warrant their own span, such as auth rejections.
func RecordSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	if ctx == nil || name == "" {
		return
	}
	if span := trace.SpanFromContext(ctx); span != nil && span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

func apiErrorFromContext(ctx context.Context) (APIErrorInfo, bool) {
	if ctx == nil {
		return APIErrorInfo{}, false
	}
	tracker, ok := ctx.Value(apiErrorKey{}).(*APIErrorInfo)
	if !ok || tracker == nil {
		return APIErrorInfo{}, false
	}
	if tracker.Status == 0 && tracker.Code == "" && tracker.Message == "" {
		return APIErrorInfo{}, false
	}
	return *tracker, true
}

type apiMetrics struct {
	requestCounter  metric.Int64Counter
	requestDuration metric.Float64Histogram
	activeRequests  metric.Int64UpDownCounter
	errorCounter    metric.Int64Counter
}

type apiMiddleware struct {
	metrics *apiMetrics
	tracer  trace.Tracer
}

// NewAPIInstrumentationMiddleware builds the HTTP middleware that records
// request counts, latencies, active requests, and API errors, and opens a
// server span per request.
func NewAPIInstrumentationMiddleware(meter metric.Meter, tracer trace.Tracer) (func(http.Handler) http.Handler, error) {
	if meter == nil {
		meter = otelapi.GetMeterProvider().Meter("axisim/api")
	}
	if tracer == nil {
		tracer = otelapi.Tracer("axisim/api")
	}
	metrics, err := newAPIMetrics(meter)
	if err != nil {
		return nil, err
	}
	middleware := &apiMiddleware{metrics: metrics, tracer: tracer}
	return middleware.wrap, nil
}

func newAPIMetrics(meter metric.Meter) (*apiMetrics, error) {
	requestCounter, err := meter.Int64Counter(MetricRequestCount,
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}
	requestDuration, err := meter.Float64Histogram(MetricRequestDuration,
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	activeRequests, err := meter.Int64UpDownCounter(MetricActiveRequests,
		metric.WithDescription("In-flight HTTP requests"),
	)
	if err != nil {
		return nil, err
	}
	errorCounter, err := meter.Int64Counter(MetricAPIErrorCount,
		metric.WithDescription("API errors by code"),
	)
	if err != nil {
		return nil, err
	}
	return &apiMetrics{
		requestCounter:  requestCounter,
		requestDuration: requestDuration,
		activeRequests:  activeRequests,
		errorCounter:    errorCounter,
	}, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Flush() {
	if flusher, ok := rec.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (m *apiMiddleware) wrap(next http.Handler) http.Handler {
	if next == nil {
		return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otelapi.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		info, _ := RouteInfoFromContext(r.Context())
		route := info.Route
		if route == "" {
			route = r.URL.Path
		}

		var apiErr APIErrorInfo
		ctx = context.WithValue(ctx, apiErrorKey{}, &apiErr)

		ctx, span := m.tracer.Start(ctx, spanNameHTTPRequest,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
			),
		)
		defer span.End()

		baseAttrs := []attribute.KeyValue{
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
		}
		if info.Category != "" {
			baseAttrs = append(baseAttrs, attribute.String("api.category", info.Category))
		}

		m.metrics.activeRequests.Add(ctx, 1, metric.WithAttributes(baseAttrs...))
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r.WithContext(ctx))

		elapsed := time.Since(start)
		m.metrics.activeRequests.Add(ctx, -1, metric.WithAttributes(baseAttrs...))

		statusAttrs := append(baseAttrs, attribute.Int("http.status_code", recorder.status))
		m.metrics.requestCounter.Add(ctx, 1, metric.WithAttributes(statusAttrs...))
		m.metrics.requestDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(statusAttrs...))

		span.SetAttributes(attribute.Int("http.status_code", recorder.status))
		if recorded, ok := apiErrorFromContext(ctx); ok {
			m.metrics.errorCounter.Add(ctx, 1, metric.WithAttributes(
				attribute.String("http.route", route),
				attribute.String("api.error_code", recorded.Code),
				attribute.Int("http.status_code", recorded.Status),
			))
			span.SetStatus(codes.Error, recorded.Message)
		} else if recorder.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(recorder.status))
		}
	})
}
