package rollup

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/canvass/internal/config"
	"github.com/smallbiznis/canvass/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	Log    *zap.Logger
	Store  store.Store
	Config config.Config
}

type Service struct {
	log      *zap.Logger
	store    store.Store
	location *time.Location
}

func NewService(p Params) (*Service, error) {
	location, err := time.LoadLocation(p.Config.MetricsTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid metrics timezone %q: %w", p.Config.MetricsTimezone, err)
	}
	return &Service{
		log:      p.Log.Named("rollup.service"),
		store:    p.Store,
		location: location,
	}, nil
}

// BucketDate maps an instant to its calendar day in the reference
// timezone.
func (s *Service) BucketDate(t time.Time) string {
	return t.In(s.location).Format(dateLayout)
}

// Operations expands a delta into additive store increments for inclusion
// in a reactor batch.
func Operations(candidateID, day string, delta Delta, now time.Time) []store.Operation {
	if candidateID == "" || day == "" || delta.isZero() {
		return nil
	}

	keys := []store.ColumnValue{
		{Column: "candidate_id", Value: candidateID},
		{Column: "metric_date", Value: day},
	}
	touch := []store.ColumnValue{
		{Column: "updated_at", Value: now.UTC()},
	}

	var ops []store.Operation
	if delta.EndorsementsReceived != 0 {
		ops = append(ops, store.Increment{
			Table:  DailyMetric{}.TableName(),
			Keys:   keys,
			Column: "endorsements_received",
			Delta:  delta.EndorsementsReceived,
			Touch:  touch,
		})
	}
	if delta.ProfileViews != 0 {
		ops = append(ops, store.Increment{
			Table:  DailyMetric{}.TableName(),
			Keys:   keys,
			Column: "profile_views",
			Delta:  delta.ProfileViews,
			Touch:  touch,
		})
	}
	return ops
}

// Merge applies one delta directly, outside any reactor batch. Counters
// maintained by collaborators outside this engine (profile views) arrive
// through this path.
func (s *Service) Merge(ctx context.Context, candidateID string, day string, delta Delta) error {
	ops := Operations(candidateID, day, delta, time.Now())
	if len(ops) == 0 {
		return nil
	}
	return s.store.ApplyBatch(ctx, ops)
}

// Module provides the rollup accumulator to the application graph.
var Module = fx.Module("rollup",
	fx.Provide(NewService),
)
