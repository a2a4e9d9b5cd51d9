package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Span represents a tracing span.
type Span interface {
	SetAttribute(key string, value interface{})
	AddEvent(name string)
	RecordError(err error)
	End()
}

// LocalSpan is a lightweight span implementation for local tracing.
type LocalSpan struct {
	name       string
	startTime  time.Time
	attributes map[string]interface{}
	events     []string
	err        error
}

// SetAttribute sets an attribute on the span.
func (s *LocalSpan) SetAttribute(key string, value interface{}) {
	if s.attributes == nil {
		s.attributes = make(map[string]interface{})
	}
	s.attributes[key] = value
}

// AddEvent adds an event to the span.
func (s *LocalSpan) AddEvent(name string) {
	s.events = append(s.events, name)
}

// RecordError records an error in the span.
func (s *LocalSpan) RecordError(err error) {
	if err != nil {
		s.err = err
		slog.Error("Span error", "span", s.name, "error", err)
	}
}

// End ends the span and logs duration.
func (s *LocalSpan) End() {
	duration := time.Since(s.startTime)
	slog.Debug("Span ended", "span", s.name, "duration_ms", duration.Milliseconds())
}

// spanContextKeyType is used for storing the current span in context.
type spanContextKeyType string

const spanContextKey spanContextKeyType = "span"

// TracerProvider manages span creation.
type TracerProvider struct {
	enabled bool
}

// NewTracerProvider creates a new tracer provider.
func NewTracerProvider() *TracerProvider {
	return &TracerProvider{enabled: true}
}

// StartSpan creates a new span for a given operation.
func (tp *TracerProvider) StartSpan(ctx context.Context, spanName string) (context.Context, Span) {
	if !tp.enabled {
		return ctx, &LocalSpan{name: spanName, startTime: time.Now()}
	}

	span := &LocalSpan{
		name:       spanName,
		startTime:  time.Now(),
		attributes: make(map[string]interface{}),
	}

	slog.Debug("Span started", "span", spanName)
	return context.WithValue(ctx, spanContextKey, span), span
}

// StartAggregationSpan creates a span for a business data aggregation pass.
func (tp *TracerProvider) StartAggregationSpan(ctx context.Context, businessID string) (context.Context, Span) {
	ctx, span := tp.StartSpan(ctx, "aggregate.load")
	span.SetAttribute("business.id", businessID)
	return ctx, span
}

// StartFetchSpan creates a span for an individual backend resource fetch.
func (tp *TracerProvider) StartFetchSpan(ctx context.Context, resource, businessID string) (context.Context, Span) {
	ctx, span := tp.StartSpan(ctx, fmt.Sprintf("fetch.%s", resource))
	span.SetAttribute("business.id", businessID)
	span.SetAttribute("resource", resource)
	return ctx, span
}

// StartSitemapSpan creates a span for a sitemap build.
func (tp *TracerProvider) StartSitemapSpan(ctx context.Context, businessID string) (context.Context, Span) {
	ctx, span := tp.StartSpan(ctx, "sitemap.build")
	span.SetAttribute("business.id", businessID)
	return ctx, span
}

// StartAPISpan creates a span for an API handler.
func (tp *TracerProvider) StartAPISpan(ctx context.Context, method, path string) (context.Context, Span) {
	ctx, span := tp.StartSpan(ctx, fmt.Sprintf("api.%s", method))
	span.SetAttribute("http.method", method)
	span.SetAttribute("http.path", path)
	return ctx, span
}

// RecordError records an error in a span.
func RecordError(span Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
	}
}

// EndSpan ends a span and logs if there was an error.
func EndSpan(span Span, err error) {
	if span != nil {
		if err != nil {
			RecordError(span, err)
		}
		span.End()
	}
}
