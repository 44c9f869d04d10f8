package service

import (
	"context"

	auditdomain "github.com/smallbiznis/canvass/internal/audit/domain"
	"github.com/smallbiznis/canvass/internal/cache"
	candidatedomain "github.com/smallbiznis/canvass/internal/candidate/domain"
	candidaterepo "github.com/smallbiznis/canvass/internal/candidate/repository"
	"github.com/smallbiznis/canvass/internal/clock"
	endorsementdomain "github.com/smallbiznis/canvass/internal/endorsement/domain"
	endorsementrepo "github.com/smallbiznis/canvass/internal/endorsement/repository"
	"github.com/smallbiznis/canvass/internal/events"
	notificationdomain "github.com/smallbiznis/canvass/internal/notification/domain"
	obsmetrics "github.com/smallbiznis/canvass/internal/observability/metrics"
	reactordomain "github.com/smallbiznis/canvass/internal/reactor/domain"
	"github.com/smallbiznis/canvass/internal/rollup"
	"github.com/smallbiznis/canvass/internal/store"
	"github.com/smallbiznis/canvass/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	Clock           clock.Clock
	Store           store.Store
	AuditSvc        auditdomain.Service
	NotificationSvc notificationdomain.Service
	RollupSvc       *rollup.Service
	CandidateRepo   candidaterepo.Repository
	EndorsementRepo endorsementrepo.Repository
	ResolverCache   cache.OwnerResolverCache `optional:"true"`
	Metrics         *obsmetrics.Metrics      `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	store store.Store

	auditSvc        auditdomain.Service
	notificationSvc notificationdomain.Service
	rollupSvc       *rollup.Service
	candidateRepo   candidaterepo.Repository
	endorsementRepo endorsementrepo.Repository
	resolverCache   cache.OwnerResolverCache
	metrics         *obsmetrics.Metrics
}

func NewService(p ServiceParam) reactordomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("reactor.service"),
		clock: p.Clock,
		store: p.Store,

		auditSvc:        p.AuditSvc,
		notificationSvc: p.NotificationSvc,
		rollupSvc:       p.RollupSvc,
		candidateRepo:   p.CandidateRepo,
		endorsementRepo: p.EndorsementRepo,
		resolverCache:   p.ResolverCache,
		metrics:         p.Metrics,
	}
}

func (s *Service) Apply(ctx context.Context, event events.Event) (reactordomain.Outcome, error) {
	switch typed := event.(type) {
	case events.UserCreated:
		return s.onUserCreated(ctx, typed)
	case events.UserDeleted:
		return s.onUserDeleted(ctx, typed)
	case events.EndorsementCreated:
		return s.onEndorsementCreated(ctx, typed)
	case events.EndorsementDeleted:
		return s.onEndorsementDeleted(ctx, typed)
	default:
		return reactordomain.OutcomeFailed, reactordomain.ErrUnsupportedEvent
	}
}

// onUserCreated records the event and nothing else: the user record itself
// is created by the collaborator, and user creation has no downstream
// fan-out in this engine.
func (s *Service) onUserCreated(ctx context.Context, event events.UserCreated) (reactordomain.Outcome, error) {
	record, err := s.auditSvc.NewRecord(event.EventID, auditdomain.ActionUserCreated, map[string]any{
		"user_id": event.User.ID,
	}, s.clock.Now())
	if err != nil {
		return reactordomain.OutcomeFailed, err
	}

	return s.commit(ctx, auditdomain.ActionUserCreated, []store.Operation{
		store.Put{Row: record},
	}, nil)
}

// onUserDeleted cascades: every endorsement given by the user and every
// notification addressed to the user goes away in the same batch as the
// audit append. Candidate aggregates are left untouched; the decrement is
// deliberately skipped and the floor on later decrements absorbs the
// resulting drift.
func (s *Service) onUserDeleted(ctx context.Context, event events.UserDeleted) (reactordomain.Outcome, error) {
	// Snapshot read before the batch so the cascade size lands in the
	// audit trail and the histogram.
	given, err := s.endorsementRepo.ListByEndorser(ctx, s.db, event.User.ID)
	if err != nil {
		return reactordomain.OutcomeFailed, err
	}

	record, err := s.auditSvc.NewRecord(event.EventID, auditdomain.ActionUserDeleted, map[string]any{
		"user_id":              event.User.ID,
		"endorsements_removed": len(given),
	}, s.clock.Now())
	if err != nil {
		return reactordomain.OutcomeFailed, err
	}

	ops := []store.Operation{
		store.Put{Row: record},
		store.Delete{
			Model: &endorsementdomain.Endorsement{},
			Where: "endorser_id = ?",
			Args:  []any{event.User.ID},
		},
		store.Delete{
			Model: &notificationdomain.Notification{},
			Where: "recipient_user_id = ?",
			Args:  []any{event.User.ID},
		},
	}

	return s.commit(ctx, auditdomain.ActionUserDeleted, ops, func(ctx context.Context) {
		if s.metrics != nil {
			s.metrics.RecordCascadeSize(ctx, "endorsements", int64(len(given)))
		}
	})
}

func (s *Service) onEndorsementCreated(ctx context.Context, event events.EndorsementCreated) (reactordomain.Outcome, error) {
	endorsement := event.Endorsement
	now := s.clock.Now()

	record, err := s.auditSvc.NewRecord(event.EventID, auditdomain.ActionEndorsementCreated, map[string]any{
		"endorsement_id": endorsement.ID,
		"candidate_id":   endorsement.CandidateID,
		"endorser_id":    endorsement.EndorserID,
	}, now)
	if err != nil {
		return reactordomain.OutcomeFailed, err
	}

	ops := []store.Operation{
		store.Put{Row: record},
		s.aggregateIncrement(endorsement.CandidateID, 1, false),
	}

	// Snapshot read before the batch: the owner lookup is the only read
	// this handler needs.
	owner, err := s.resolveCandidate(ctx, endorsement.CandidateID)
	if err != nil {
		return reactordomain.OutcomeFailed, err
	}

	var created *notificationdomain.Notification
	if owner != nil && owner.OwnerUserID != nil && *owner.OwnerUserID != "" {
		created, err = s.notificationSvc.NewNotification(*owner.OwnerUserID, notificationdomain.KindEndorsementReceived, map[string]any{
			"endorsement_id": endorsement.ID,
			"candidate_id":   endorsement.CandidateID,
			"endorser_id":    endorsement.EndorserID,
		}, now)
		if err != nil {
			return reactordomain.OutcomeFailed, err
		}
		ops = append(ops, store.Put{Row: created})
	} else {
		// MissingReference: counter and metric effects still apply, only
		// the notification step is skipped.
		s.log.Warn("candidate owner not found, skipping notification",
			zap.String("candidate_id", endorsement.CandidateID),
			zap.String("event_id", event.EventID),
		)
	}

	day := s.rollupSvc.BucketDate(now)
	ops = append(ops, rollup.Operations(endorsement.CandidateID, day, rollup.Delta{EndorsementsReceived: 1}, now)...)

	return s.commit(ctx, auditdomain.ActionEndorsementCreated, ops, func(ctx context.Context) {
		s.notificationSvc.Published(ctx, created)
	})
}

// onEndorsementDeleted reverses the counter only. Same-day metrics are not
// rolled back and no notification is withdrawn.
func (s *Service) onEndorsementDeleted(ctx context.Context, event events.EndorsementDeleted) (reactordomain.Outcome, error) {
	endorsement := event.Endorsement

	record, err := s.auditSvc.NewRecord(event.EventID, auditdomain.ActionEndorsementRevoked, map[string]any{
		"endorsement_id": endorsement.ID,
		"candidate_id":   endorsement.CandidateID,
		"endorser_id":    endorsement.EndorserID,
	}, s.clock.Now())
	if err != nil {
		return reactordomain.OutcomeFailed, err
	}

	return s.commit(ctx, auditdomain.ActionEndorsementRevoked, []store.Operation{
		store.Put{Row: record},
		s.aggregateIncrement(endorsement.CandidateID, -1, true),
	}, nil)
}

func (s *Service) Reject(ctx context.Context, eventID string, subjectIDs map[string]any, reason string) (reactordomain.Outcome, error) {
	subjects := map[string]any{"error": reason}
	for key, value := range subjectIDs {
		subjects[key] = value
	}

	record, err := s.auditSvc.NewRecord(eventID, auditdomain.ActionEventRejected, subjects, s.clock.Now())
	if err != nil {
		return reactordomain.OutcomeFailed, err
	}

	outcome, err := s.commit(ctx, auditdomain.ActionEventRejected, []store.Operation{
		store.Put{Row: record},
	}, nil)
	if err != nil {
		return outcome, err
	}
	if outcome == reactordomain.OutcomeApplied {
		if s.metrics != nil {
			s.metrics.RecordRejected(ctx, reason)
		}
		return reactordomain.OutcomeRejected, nil
	}
	return outcome, nil
}

// commit applies the batch and resolves its failure modes: a duplicate key
// on the audit event id means the event was already processed and the
// whole batch rolled back, which is exactly the fail-closed no-op the
// at-least-once contract requires.
func (s *Service) commit(ctx context.Context, action string, ops []store.Operation, onCommit func(ctx context.Context)) (reactordomain.Outcome, error) {
	if err := s.store.ApplyBatch(ctx, ops); err != nil {
		if db.IsDuplicateKeyErr(err) {
			if s.metrics != nil {
				s.metrics.RecordDuplicate(ctx, action)
			}
			s.log.Debug("duplicate event delivery", zap.String("action", action))
			return reactordomain.OutcomeDuplicate, nil
		}
		if s.metrics != nil {
			s.metrics.RecordFailed(ctx, action)
		}
		return reactordomain.OutcomeFailed, err
	}

	if s.metrics != nil {
		s.metrics.RecordApplied(ctx, action)
	}
	if onCommit != nil {
		onCommit(ctx)
	}
	return reactordomain.OutcomeApplied, nil
}

func (s *Service) aggregateIncrement(candidateID string, delta int64, floor bool) store.Operation {
	return store.Increment{
		Table:  candidatedomain.CandidateAggregate{}.TableName(),
		Keys:   []store.ColumnValue{{Column: "candidate_id", Value: candidateID}},
		Column: "endorsement_count",
		Delta:  delta,
		Floor:  floor,
		Touch:  []store.ColumnValue{{Column: "updated_at", Value: s.clock.Now().UTC()}},
	}
}

func (s *Service) resolveCandidate(ctx context.Context, candidateID string) (*candidatedomain.Candidate, error) {
	if s.resolverCache != nil {
		if cached, ok := s.resolverCache.GetCandidate(candidateID); ok {
			return cached, nil
		}
	}
	candidate, err := s.candidateRepo.Get(ctx, s.db, candidateID)
	if err != nil {
		return nil, err
	}
	if s.resolverCache != nil && candidate != nil {
		s.resolverCache.SetCandidate(candidateID, candidate)
	}
	return candidate, nil
}
