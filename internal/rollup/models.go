// Package rollup maintains the time-bucketed daily metrics. Merges are
// additive upserts, commutative and associative, so replays and
// out-of-order application converge on the same totals.
package rollup

import "time"

// DailyMetric is one per-candidate calendar-day bucket in the reference
// timezone. Buckets are created on first merge and only ever added to;
// nothing in the engine rolls a bucket back.
type DailyMetric struct {
	CandidateID          string `gorm:"type:text;primaryKey"`
	MetricDate           string `gorm:"type:text;primaryKey"`
	EndorsementsReceived int64  `gorm:"not null;default:0"`
	ProfileViews         int64  `gorm:"not null;default:0"`
	UpdatedAt            time.Time
}

// TableName sets the database table name.
func (DailyMetric) TableName() string { return "daily_metrics" }

// Delta is a partial set of same-day counters. Zero fields are skipped
// during merge.
type Delta struct {
	EndorsementsReceived int64
	ProfileViews         int64
}

func (d Delta) isZero() bool {
	return d.EndorsementsReceived == 0 && d.ProfileViews == 0
}
