// Package consumer drains the lifecycle event inbox. It polls unprocessed
// rows in arrival order, hands each decoded event to the reactor, and only
// marks a row processed once its outcome is terminal. Rows that fail
// transiently stay unprocessed and are retried on the next tick, which is
// what makes the pipeline at-least-once.
package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/canvass/internal/clock"
	"github.com/smallbiznis/canvass/internal/events"
	reactordomain "github.com/smallbiznis/canvass/internal/reactor/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("consumer: invalid configuration")

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Reactor reactordomain.Service
	Config  Config `optional:"true"`
}

type Consumer struct {
	db      *gorm.DB
	log     *zap.Logger
	cfg     Config
	clock   clock.Clock
	reactor reactordomain.Service
}

func New(p Params) (*Consumer, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.Reactor == nil {
		return nil, ErrInvalidConfig
	}
	return &Consumer{
		db:      p.DB,
		log:     p.Log.Named("consumer").With(zap.String("component", "consumer")),
		cfg:     p.Config.withDefaults(),
		clock:   p.Clock,
		reactor: p.Reactor,
	}, nil
}

// ProcessPending applies one batch of unprocessed rows and reports how
// many reached a terminal outcome. A row whose apply fails is left
// unprocessed so the next tick retries the whole event from scratch.
func (c *Consumer) ProcessPending(ctx context.Context) (int, error) {
	var rows []events.LifecycleEvent
	err := c.db.WithContext(ctx).
		Where("processed = ?", false).
		Order("created_at asc, id asc").
		Limit(c.cfg.BatchSize).
		Find(&rows).Error
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, row := range rows {
		done, err := c.processRow(ctx, row)
		if err != nil {
			c.log.Warn("event apply failed, will retry",
				zap.String("event_id", row.EventID),
				zap.String("entity_kind", row.EntityKind),
				zap.String("change_kind", row.ChangeKind),
				zap.Error(err),
			)
			continue
		}
		if done {
			processed++
		}
	}
	return processed, nil
}

func (c *Consumer) processRow(ctx context.Context, row events.LifecycleEvent) (bool, error) {
	event, err := events.Decode(row)
	if err != nil {
		if !errors.Is(err, events.ErrMalformedEvent) {
			return false, err
		}
		// Permanently unprocessable: record it and drop the row. The
		// reject audit uses a synthetic id when the row carries none so
		// redeliveries still collapse into duplicates.
		outcome, err := c.reactor.Reject(ctx, rejectEventID(row), map[string]any{
			"entity_kind": row.EntityKind,
			"change_kind": row.ChangeKind,
		}, err.Error())
		if err != nil {
			return false, err
		}
		if outcome == reactordomain.OutcomeFailed {
			return false, nil
		}
		return true, c.markProcessed(ctx, row.ID)
	}

	outcome, err := c.reactor.Apply(ctx, event)
	if err != nil {
		return false, err
	}
	if outcome == reactordomain.OutcomeFailed {
		return false, nil
	}
	return true, c.markProcessed(ctx, row.ID)
}

func (c *Consumer) markProcessed(ctx context.Context, id any) error {
	now := c.clock.Now().UTC()
	return c.db.WithContext(ctx).
		Model(&events.LifecycleEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"processed":    true,
			"processed_at": &now,
		}).Error
}

func rejectEventID(row events.LifecycleEvent) string {
	if row.EventID != "" {
		return row.EventID
	}
	return "row-" + row.ID.String()
}

func (c *Consumer) RunOnce(ctx context.Context) error {
	start := c.clock.Now()
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	processed, err := c.ProcessPending(ctx)
	if err != nil {
		return err
	}
	if processed > 0 {
		c.log.Info("drained pending events",
			zap.Int("processed", processed),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return nil
}

func (c *Consumer) RunForever(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := c.RunOnce(ctx); err != nil {
			c.log.Warn("consumer run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
