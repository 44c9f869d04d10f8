// Package observability wires the OTLP metrics pipeline.
package observability

import (
	"github.com/smallbiznis/canvass/internal/config"
	"github.com/smallbiznis/canvass/internal/observability/metrics"
	"go.uber.org/fx"
)

func NewMetricsConfig(cfg config.Config) metrics.Config {
	return metrics.Config{
		Enabled:          cfg.OTLPEnabled,
		ExporterEndpoint: cfg.OTLPEndpoint,
		ExporterProtocol: cfg.OTLPProtocol,
		ServiceName:      cfg.AppName,
		Environment:      cfg.Environment,
	}
}

var Module = fx.Module("observability",
	fx.Provide(NewMetricsConfig),
	fx.Provide(metrics.NewProvider),
	fx.Provide(metrics.New),
)
