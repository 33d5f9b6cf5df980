// Package metrics exposes the service's OpenTelemetry instruments.
package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Instrument names
const (
	HTTPRequestsTotal    = "mulearn_http_requests_total"
	HTTPRequestDuration  = "mulearn_http_request_duration_seconds"
	KarmaAwardedTotal    = "mulearn_karma_awarded_total"
	WebsocketConnections = "mulearn_websocket_connections"
	BusPublishedTotal    = "mulearn_bus_messages_published_total"
	BusHandledTotal      = "mulearn_bus_messages_handled_total"
)

// Config selects the exporter
type Config struct {
	// Exporter is none, console or otlp
	Exporter     string
	OTLPEndpoint string
	Interval     time.Duration
	ServiceName  string
	Environment  string
}

// Provider owns the meter provider and the instruments
type Provider struct {
	meterProvider *sdkmetric.MeterProvider

	httpRequests  metric.Int64Counter
	httpDuration  metric.Float64Histogram
	karmaAwarded  metric.Int64Counter
	wsConnections metric.Int64UpDownCounter
	busPublished  metric.Int64Counter
	busHandled    metric.Int64Counter
}

// New builds a provider for cfg. The "none" exporter yields no-op
// instruments so callers never need to check for nil.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	var exporter sdkmetric.Exporter
	var err error

	switch cfg.Exporter {
	case "", "none":
		return newProvider(nil, noop.NewMeterProvider().Meter("mulearn"))
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console exporter: %w", err)
		}
	case "otlp":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		exporter, err = otlpmetricgrpc.New(dialCtx,
			otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown exporter type: %s", cfg.Exporter)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	return newProvider(mp, mp.Meter("mulearn"))
}

// NewWithReader builds a provider that reports to reader
func NewWithReader(reader sdkmetric.Reader) (*Provider, error) {
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return newProvider(mp, mp.Meter("mulearn"))
}

// Noop returns a provider whose instruments discard everything
func Noop() *Provider {
	p, _ := newProvider(nil, noop.NewMeterProvider().Meter("mulearn"))
	return p
}

func newProvider(mp *sdkmetric.MeterProvider, meter metric.Meter) (*Provider, error) {
	p := &Provider{meterProvider: mp}
	var err error

	if p.httpRequests, err = meter.Int64Counter(HTTPRequestsTotal,
		metric.WithDescription("HTTP requests served"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create http request counter: %w", err)
	}
	if p.httpDuration, err = meter.Float64Histogram(HTTPRequestDuration,
		metric.WithDescription("HTTP request latency"), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5)); err != nil {
		return nil, fmt.Errorf("failed to create http duration histogram: %w", err)
	}
	if p.karmaAwarded, err = meter.Int64Counter(KarmaAwardedTotal,
		metric.WithDescription("Karma credited to wallets"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create karma counter: %w", err)
	}
	if p.wsConnections, err = meter.Int64UpDownCounter(WebsocketConnections,
		metric.WithDescription("Open websocket connections"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create websocket gauge: %w", err)
	}
	if p.busPublished, err = meter.Int64Counter(BusPublishedTotal,
		metric.WithDescription("Event bus messages published"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create bus published counter: %w", err)
	}
	if p.busHandled, err = meter.Int64Counter(BusHandledTotal,
		metric.WithDescription("Event bus messages handled"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create bus handled counter: %w", err)
	}

	return p, nil
}

// RecordHTTPRequest counts a served request and its latency
func (p *Provider) RecordHTTPRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	)
	p.httpRequests.Add(ctx, 1, attrs)
	p.httpDuration.Record(ctx, d.Seconds(), attrs)
}

// KarmaAwarded counts karma credited from source (appraisal, voucher)
func (p *Provider) KarmaAwarded(ctx context.Context, source string, amount int64) {
	p.karmaAwarded.Add(ctx, amount, metric.WithAttributes(attribute.String("source", source)))
}

// WebsocketConnected tracks an opened connection in room
func (p *Provider) WebsocketConnected(ctx context.Context, room string) {
	p.wsConnections.Add(ctx, 1, metric.WithAttributes(attribute.String("room", room)))
}

// WebsocketDisconnected tracks a closed connection in room
func (p *Provider) WebsocketDisconnected(ctx context.Context, room string) {
	p.wsConnections.Add(ctx, -1, metric.WithAttributes(attribute.String("room", room)))
}

// MessagePublished implements eventbus.Observer
func (p *Provider) MessagePublished(ctx context.Context, subject string) {
	p.busPublished.Add(ctx, 1, metric.WithAttributes(attribute.String("subject", subject)))
}

// MessageHandled implements eventbus.Observer
func (p *Provider) MessageHandled(ctx context.Context, subject string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.busHandled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("subject", subject),
		attribute.String("outcome", outcome),
	))
}

// Shutdown flushes and stops the exporter
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.meterProvider == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}
