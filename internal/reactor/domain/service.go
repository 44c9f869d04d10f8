// Package domain defines the lifecycle reactor contract: a pure mapping
// from one decoded event plus a store snapshot to one atomic batch of
// store operations.
package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/canvass/internal/events"
)

// Outcome is the terminal state of one delivery attempt.
type Outcome string

const (
	// OutcomeApplied means the full side-effect batch committed.
	OutcomeApplied Outcome = "applied"
	// OutcomeDuplicate means the event id was already recorded; nothing
	// was written.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeRejected means the event is permanently unprocessable and
	// was recorded as such; it must not be retried.
	OutcomeRejected Outcome = "rejected"
	// OutcomeFailed means a transient failure; the delivery layer retries
	// the whole event from scratch.
	OutcomeFailed Outcome = "failed"
)

type Service interface {
	// Apply runs the handler for the event's (entity, change) pair.
	// All side effects land in one atomic batch; on any failure nothing
	// is persisted.
	Apply(ctx context.Context, event events.Event) (Outcome, error)
	// Reject records a permanently malformed event so redeliveries of the
	// same id resolve as duplicates.
	Reject(ctx context.Context, eventID string, subjectIDs map[string]any, reason string) (Outcome, error)
}

var ErrUnsupportedEvent = errors.New("unsupported_event")
