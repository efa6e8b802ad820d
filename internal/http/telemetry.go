package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type instruments struct {
	tracer   trace.Tracer
	duration metric.Float64Histogram
	requests metric.Int64Counter
}

func newInstruments(meter metric.Meter, tracer trace.Tracer, logger *logrus.Logger) instruments {
	in := instruments{tracer: tracer}

	var err error
	in.duration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.WithError(err).Warn("create request duration histogram")
		in.duration = metricnoop.Float64Histogram{}
	}
	in.requests, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		logger.WithError(err).Warn("create request counter")
		in.requests = metricnoop.Int64Counter{}
	}
	return in
}

// instrument opens a server span per request and records request metrics
// keyed by the matched route template.
func (h *Handler) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := h.telemetry.tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route),
			),
		)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		attrs := metric.WithAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		h.telemetry.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		h.telemetry.requests.Add(ctx, 1, attrs)
	}
}
