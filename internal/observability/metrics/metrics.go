package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	eventsApplied   metric.Int64Counter
	eventsDuplicate metric.Int64Counter
	eventsRejected  metric.Int64Counter
	eventsFailed    metric.Int64Counter
	cascadeSize     metric.Int64Histogram
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "canvass"
	}
	meter := provider.Meter(name)

	eventsApplied, err := meter.Int64Counter("canvass_events_applied_total")
	if err != nil {
		return nil, err
	}
	eventsDuplicate, err := meter.Int64Counter("canvass_events_duplicate_total")
	if err != nil {
		return nil, err
	}
	eventsRejected, err := meter.Int64Counter("canvass_events_rejected_total")
	if err != nil {
		return nil, err
	}
	eventsFailed, err := meter.Int64Counter("canvass_events_failed_total")
	if err != nil {
		return nil, err
	}
	cascadeSize, err := meter.Int64Histogram("canvass_cascade_delete_size")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		eventsApplied:   eventsApplied,
		eventsDuplicate: eventsDuplicate,
		eventsRejected:  eventsRejected,
		eventsFailed:    eventsFailed,
		cascadeSize:     cascadeSize,
	}, nil
}

// RecordApplied increments applied event counts.
func (m *Metrics) RecordApplied(ctx context.Context, action string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("action", strings.TrimSpace(action)))
	m.eventsApplied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordDuplicate increments duplicate-delivery counts.
func (m *Metrics) RecordDuplicate(ctx context.Context, action string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("action", strings.TrimSpace(action)))
	m.eventsDuplicate.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRejected increments permanently rejected event counts.
func (m *Metrics) RecordRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.eventsRejected.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordFailed increments transient failure counts.
func (m *Metrics) RecordFailed(ctx context.Context, action string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("action", strings.TrimSpace(action)))
	m.eventsFailed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCascadeSize observes how many rows one user-deletion cascade
// removed.
func (m *Metrics) RecordCascadeSize(ctx context.Context, collection string, size int64) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("collection", strings.TrimSpace(collection)))
	m.cascadeSize.Record(ctx, size, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"action":     {},
	"reason":     {},
	"collection": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
