package consumer

import (
	"time"

	"github.com/smallbiznis/canvass/internal/config"
)

type Config struct {
	RunInterval time.Duration
	BatchSize   int
}

func DefaultConfig() Config {
	return Config{
		RunInterval: 5 * time.Second,
		BatchSize:   50,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	return c
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval: cfg.ConsumerInterval,
		BatchSize:   cfg.ConsumerBatchSize,
	}
}
