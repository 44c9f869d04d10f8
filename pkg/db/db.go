// Package db opens the shared GORM connection and carries small
// cross-dialect helpers used by every repository.
package db

import (
	"github.com/smallbiznis/canvass/internal/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormprometheus "gorm.io/plugin/prometheus"
)

// New opens the database connection described by the configuration.
func New(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := conn.Use(otelgorm.NewPlugin(otelgorm.WithDBName(cfg.DBName))); err != nil {
		log.Warn("failed to attach otel gorm plugin", zap.Error(err))
	}

	if err := conn.Use(gormprometheus.New(gormprometheus.Config{
		DBName:          cfg.DBName,
		RefreshInterval: 15,
	})); err != nil {
		log.Warn("failed to attach prometheus gorm plugin", zap.Error(err))
	}

	log.Info("database connection established",
		zap.String("type", cfg.DBType),
		zap.String("name", cfg.DBName),
	)
	return conn, nil
}

// Module provides the GORM connection to the application graph.
var Module = fx.Module("db",
	fx.Provide(New),
)
