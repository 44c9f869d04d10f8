package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/canvass/internal/audit/domain"
	auditrepo "github.com/smallbiznis/canvass/internal/audit/repository"
	auditservice "github.com/smallbiznis/canvass/internal/audit/service"
	"github.com/smallbiznis/canvass/internal/cache"
	candidatedomain "github.com/smallbiznis/canvass/internal/candidate/domain"
	candidaterepo "github.com/smallbiznis/canvass/internal/candidate/repository"
	"github.com/smallbiznis/canvass/internal/clock"
	"github.com/smallbiznis/canvass/internal/config"
	endorsementdomain "github.com/smallbiznis/canvass/internal/endorsement/domain"
	endorsementrepo "github.com/smallbiznis/canvass/internal/endorsement/repository"
	"github.com/smallbiznis/canvass/internal/events"
	notificationdomain "github.com/smallbiznis/canvass/internal/notification/domain"
	notificationrepo "github.com/smallbiznis/canvass/internal/notification/repository"
	notificationservice "github.com/smallbiznis/canvass/internal/notification/service"
	reactordomain "github.com/smallbiznis/canvass/internal/reactor/domain"
	"github.com/smallbiznis/canvass/internal/rollup"
	"github.com/smallbiznis/canvass/internal/store"
	userdomain "github.com/smallbiznis/canvass/internal/user/domain"
	"github.com/smallbiznis/canvass/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type reactorEnv struct {
	db    *gorm.DB
	svc   reactordomain.Service
	clock *clock.FakeClock
	node  *snowflake.Node
}

func setupReactor(t *testing.T) *reactorEnv {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = dbConn.AutoMigrate(
		&userdomain.User{},
		&candidatedomain.Candidate{},
		&candidatedomain.CandidateAggregate{},
		&endorsementdomain.Endorsement{},
		&rollup.DailyMetric{},
		&notificationdomain.Notification{},
		&auditdomain.AuditRecord{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	logger := zap.NewNop()
	fakeClock := clock.NewFakeClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))

	st := store.New(store.Params{DB: dbConn, Log: logger})
	auditSvc := auditservice.NewService(auditservice.Params{
		Log:   logger,
		GenID: node,
		Repo:  auditrepo.Provide(dbConn),
	})
	notificationSvc := notificationservice.NewService(notificationservice.Params{
		Log:   logger,
		GenID: node,
		Repo:  notificationrepo.Provide(dbConn),
	})
	rollupSvc, err := rollup.NewService(rollup.Params{
		Log:    logger,
		Store:  st,
		Config: config.Config{MetricsTimezone: "UTC"},
	})
	if err != nil {
		t.Fatalf("rollup service: %v", err)
	}

	svc := NewService(ServiceParam{
		DB:              dbConn,
		Log:             logger,
		Clock:           fakeClock,
		Store:           st,
		AuditSvc:        auditSvc,
		NotificationSvc: notificationSvc,
		RollupSvc:       rollupSvc,
		CandidateRepo:   candidaterepo.Provide(),
		EndorsementRepo: endorsementrepo.Provide(),
		ResolverCache:   cache.NewOwnerResolverCache(),
	})

	return &reactorEnv{db: dbConn, svc: svc, clock: fakeClock, node: node}
}

func seedCandidate(t *testing.T, env *reactorEnv, id string, ownerUserID string) {
	t.Helper()
	candidate := candidatedomain.Candidate{ID: id, DisplayName: "Candidate " + id}
	if ownerUserID != "" {
		candidate.OwnerUserID = &ownerUserID
	}
	if err := env.db.Create(&candidate).Error; err != nil {
		t.Fatalf("seed candidate: %v", err)
	}
}

func endorsementCreated(eventID, endorsementID, endorserID, candidateID string) events.EndorsementCreated {
	return events.EndorsementCreated{
		EventID: eventID,
		Endorsement: endorsementdomain.Endorsement{
			ID:          endorsementID,
			EndorserID:  endorserID,
			CandidateID: candidateID,
		},
	}
}

func loadAggregate(t *testing.T, env *reactorEnv, candidateID string) *candidatedomain.CandidateAggregate {
	t.Helper()
	var aggregate candidatedomain.CandidateAggregate
	err := env.db.Where("candidate_id = ?", candidateID).First(&aggregate).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		t.Fatalf("load aggregate: %v", err)
	}
	return &aggregate
}

func countRows(t *testing.T, env *reactorEnv, model any, query string, args ...any) int64 {
	t.Helper()
	var count int64
	stmt := env.db.Model(model)
	if query != "" {
		stmt = stmt.Where(query, args...)
	}
	if err := stmt.Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}

func TestEndorsementCreatedUpdatesAggregateAndNotifies(t *testing.T) {
	env := setupReactor(t)
	ctx := context.Background()
	seedCandidate(t, env, "cand-1", "owner-1")

	const n = 5
	for i := 0; i < n; i++ {
		event := endorsementCreated(
			fmt.Sprintf("evt-%d", i),
			fmt.Sprintf("end-%d", i),
			fmt.Sprintf("user-%d", i),
			"cand-1",
		)
		outcome, err := env.svc.Apply(ctx, event)
		if err != nil {
			t.Fatalf("apply event %d: %v", i, err)
		}
		if outcome != reactordomain.OutcomeApplied {
			t.Fatalf("expected applied, got %s", outcome)
		}
	}

	aggregate := loadAggregate(t, env, "cand-1")
	if aggregate == nil || aggregate.EndorsementCount != n {
		t.Fatalf("expected endorsement_count %d, got %+v", n, aggregate)
	}
	if got := countRows(t, env, &notificationdomain.Notification{}, "recipient_user_id = ?", "owner-1"); got != n {
		t.Fatalf("expected %d notifications, got %d", n, got)
	}
	if got := countRows(t, env, &auditdomain.AuditRecord{}, "action = ?", auditdomain.ActionEndorsementCreated); got != n {
		t.Fatalf("expected %d audit records, got %d", n, got)
	}

	var metric rollup.DailyMetric
	if err := env.db.Where("candidate_id = ? AND metric_date = ?", "cand-1", "2024-03-10").First(&metric).Error; err != nil {
		t.Fatalf("load daily metric: %v", err)
	}
	if metric.EndorsementsReceived != n {
		t.Fatalf("expected endorsements_received %d, got %d", n, metric.EndorsementsReceived)
	}
}

func TestDuplicateDeliveryIsNoOp(t *testing.T) {
	env := setupReactor(t)
	ctx := context.Background()
	seedCandidate(t, env, "cand-1", "owner-1")

	event := endorsementCreated("evt-1", "end-1", "user-1", "cand-1")

	outcome, err := env.svc.Apply(ctx, event)
	if err != nil || outcome != reactordomain.OutcomeApplied {
		t.Fatalf("first delivery: outcome=%s err=%v", outcome, err)
	}

	outcome, err = env.svc.Apply(ctx, event)
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if outcome != reactordomain.OutcomeDuplicate {
		t.Fatalf("expected duplicate, got %s", outcome)
	}

	aggregate := loadAggregate(t, env, "cand-1")
	if aggregate.EndorsementCount != 1 {
		t.Fatalf("expected endorsement_count 1 after redelivery, got %d", aggregate.EndorsementCount)
	}
	if got := countRows(t, env, &notificationdomain.Notification{}, ""); got != 1 {
		t.Fatalf("expected 1 notification, got %d", got)
	}
	if got := countRows(t, env, &auditdomain.AuditRecord{}, ""); got != 1 {
		t.Fatalf("expected 1 audit record, got %d", got)
	}
}

func TestEndorsementDeletedFloorsAtZero(t *testing.T) {
	env := setupReactor(t)
	ctx := context.Background()
	seedCandidate(t, env, "cand-1", "owner-1")

	// Deletion arriving before any creation: the counter must not go
	// negative.
	deleted := events.EndorsementDeleted{
		EventID: "evt-del-1",
		Endorsement: endorsementdomain.Endorsement{
			ID:          "end-1",
			EndorserID:  "user-1",
			CandidateID: "cand-1",
		},
	}
	outcome, err := env.svc.Apply(ctx, deleted)
	if err != nil || outcome != reactordomain.OutcomeApplied {
		t.Fatalf("apply delete: outcome=%s err=%v", outcome, err)
	}

	aggregate := loadAggregate(t, env, "cand-1")
	if aggregate == nil || aggregate.EndorsementCount != 0 {
		t.Fatalf("expected floored count 0, got %+v", aggregate)
	}

	// A second unmatched deletion still holds at zero.
	deleted.EventID = "evt-del-2"
	if _, err := env.svc.Apply(ctx, deleted); err != nil {
		t.Fatalf("apply second delete: %v", err)
	}
	aggregate = loadAggregate(t, env, "cand-1")
	if aggregate.EndorsementCount != 0 {
		t.Fatalf("expected count to stay 0, got %d", aggregate.EndorsementCount)
	}
}

func TestEndorsementDeletedKeepsDailyMetrics(t *testing.T) {
	env := setupReactor(t)
	ctx := context.Background()
	seedCandidate(t, env, "cand-1", "owner-1")

	created := endorsementCreated("evt-1", "end-1", "user-1", "cand-1")
	if _, err := env.svc.Apply(ctx, created); err != nil {
		t.Fatalf("apply create: %v", err)
	}

	deleted := events.EndorsementDeleted{EventID: "evt-2", Endorsement: created.Endorsement}
	if _, err := env.svc.Apply(ctx, deleted); err != nil {
		t.Fatalf("apply delete: %v", err)
	}

	aggregate := loadAggregate(t, env, "cand-1")
	if aggregate.EndorsementCount != 0 {
		t.Fatalf("expected endorsement_count 0, got %d", aggregate.EndorsementCount)
	}

	// The daily bucket keeps recording that an endorsement was received
	// that day; deletion does not rewrite history.
	var metric rollup.DailyMetric
	if err := env.db.Where("candidate_id = ? AND metric_date = ?", "cand-1", "2024-03-10").First(&metric).Error; err != nil {
		t.Fatalf("load daily metric: %v", err)
	}
	if metric.EndorsementsReceived != 1 {
		t.Fatalf("expected endorsements_received to stay 1, got %d", metric.EndorsementsReceived)
	}
	// The notification already sent stays sent.
	if got := countRows(t, env, &notificationdomain.Notification{}, ""); got != 1 {
		t.Fatalf("expected notification to survive deletion, got %d", got)
	}
}

func TestUserDeletedCascades(t *testing.T) {
	env := setupReactor(t)
	ctx := context.Background()
	seedCandidate(t, env, "cand-1", "victim")
	seedCandidate(t, env, "cand-2", "owner-2")

	// The victim endorsed two candidates and received a notification.
	for i, candidateID := range []string{"cand-1", "cand-2"} {
		if err := env.db.Create(&endorsementdomain.Endorsement{
			ID:          fmt.Sprintf("end-%d", i),
			EndorserID:  "victim",
			CandidateID: candidateID,
		}).Error; err != nil {
			t.Fatalf("seed endorsement: %v", err)
		}
	}
	if err := env.db.Create(&notificationdomain.Notification{
		ID:              env.node.Generate(),
		RecipientUserID: "victim",
		Kind:            notificationdomain.KindEndorsementReceived,
		CreatedAt:       env.clock.Now(),
	}).Error; err != nil {
		t.Fatalf("seed notification: %v", err)
	}
	// Somebody else's endorsement must survive the cascade.
	if err := env.db.Create(&endorsementdomain.Endorsement{
		ID:          "end-other",
		EndorserID:  "bystander",
		CandidateID: "cand-1",
	}).Error; err != nil {
		t.Fatalf("seed bystander endorsement: %v", err)
	}
	if err := env.db.Create(&candidatedomain.CandidateAggregate{
		CandidateID:      "cand-1",
		EndorsementCount: 3,
	}).Error; err != nil {
		t.Fatalf("seed aggregate: %v", err)
	}

	outcome, err := env.svc.Apply(ctx, events.UserDeleted{
		EventID: "evt-user-del",
		User:    userdomain.User{ID: "victim"},
	})
	if err != nil || outcome != reactordomain.OutcomeApplied {
		t.Fatalf("apply user delete: outcome=%s err=%v", outcome, err)
	}

	if got := countRows(t, env, &endorsementdomain.Endorsement{}, "endorser_id = ?", "victim"); got != 0 {
		t.Fatalf("expected victim endorsements removed, got %d", got)
	}
	if got := countRows(t, env, &endorsementdomain.Endorsement{}, ""); got != 1 {
		t.Fatalf("expected bystander endorsement to survive, got %d", got)
	}
	if got := countRows(t, env, &notificationdomain.Notification{}, "recipient_user_id = ?", "victim"); got != 0 {
		t.Fatalf("expected victim notifications removed, got %d", got)
	}

	// Aggregates are intentionally not corrected by the cascade.
	aggregate := loadAggregate(t, env, "cand-1")
	if aggregate.EndorsementCount != 3 {
		t.Fatalf("expected aggregate untouched at 3, got %d", aggregate.EndorsementCount)
	}

	var record auditdomain.AuditRecord
	if err := env.db.Where("event_id = ?", "evt-user-del").First(&record).Error; err != nil {
		t.Fatalf("load audit record: %v", err)
	}
	if record.Action != auditdomain.ActionUserDeleted {
		t.Fatalf("expected action %s, got %s", auditdomain.ActionUserDeleted, record.Action)
	}
	if removed, ok := record.SubjectIDs["endorsements_removed"]; !ok {
		t.Fatalf("expected endorsements_removed in audit subjects, got %v", record.SubjectIDs)
	} else if fmt.Sprint(removed) != "2" {
		t.Fatalf("expected 2 endorsements removed, got %v", removed)
	}
}

func TestMissingCandidateSkipsNotificationOnly(t *testing.T) {
	env := setupReactor(t)
	ctx := context.Background()

	event := endorsementCreated("evt-1", "end-1", "user-1", "cand-missing")
	outcome, err := env.svc.Apply(ctx, event)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if outcome != reactordomain.OutcomeApplied {
		t.Fatalf("expected applied, got %s", outcome)
	}

	// Counter and metric effects still land; only the notification is
	// skipped.
	aggregate := loadAggregate(t, env, "cand-missing")
	if aggregate == nil || aggregate.EndorsementCount != 1 {
		t.Fatalf("expected endorsement_count 1, got %+v", aggregate)
	}
	if got := countRows(t, env, &notificationdomain.Notification{}, ""); got != 0 {
		t.Fatalf("expected no notifications, got %d", got)
	}
	if got := countRows(t, env, &auditdomain.AuditRecord{}, "event_id = ?", "evt-1"); got != 1 {
		t.Fatalf("expected 1 audit record, got %d", got)
	}
}

func TestUserCreatedWritesAuditOnly(t *testing.T) {
	env := setupReactor(t)
	ctx := context.Background()

	outcome, err := env.svc.Apply(ctx, events.UserCreated{
		EventID: "evt-1",
		User:    userdomain.User{ID: "user-1"},
	})
	if err != nil || outcome != reactordomain.OutcomeApplied {
		t.Fatalf("apply: outcome=%s err=%v", outcome, err)
	}

	var record auditdomain.AuditRecord
	if err := env.db.Where("event_id = ?", "evt-1").First(&record).Error; err != nil {
		t.Fatalf("load audit record: %v", err)
	}
	if record.Action != auditdomain.ActionUserCreated {
		t.Fatalf("expected action %s, got %s", auditdomain.ActionUserCreated, record.Action)
	}
	if got := countRows(t, env, &notificationdomain.Notification{}, ""); got != 0 {
		t.Fatalf("expected no side effects beyond audit, got %d notifications", got)
	}
}

func TestRejectRecordsAndDeduplicates(t *testing.T) {
	env := setupReactor(t)
	ctx := context.Background()

	outcome, err := env.svc.Reject(ctx, "evt-bad", map[string]any{"entity_kind": "user"}, "missing user id")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if outcome != reactordomain.OutcomeRejected {
		t.Fatalf("expected rejected, got %s", outcome)
	}

	var record auditdomain.AuditRecord
	if err := env.db.Where("event_id = ?", "evt-bad").First(&record).Error; err != nil {
		t.Fatalf("load audit record: %v", err)
	}
	if record.Action != auditdomain.ActionEventRejected {
		t.Fatalf("expected action %s, got %s", auditdomain.ActionEventRejected, record.Action)
	}
	if record.SubjectIDs["error"] != "missing user id" {
		t.Fatalf("expected error marker in subjects, got %v", record.SubjectIDs)
	}

	// Redelivering the same malformed event resolves as a duplicate.
	outcome, err = env.svc.Reject(ctx, "evt-bad", nil, "missing user id")
	if err != nil {
		t.Fatalf("second reject: %v", err)
	}
	if outcome != reactordomain.OutcomeDuplicate {
		t.Fatalf("expected duplicate, got %s", outcome)
	}
	if got := countRows(t, env, &auditdomain.AuditRecord{}, ""); got != 1 {
		t.Fatalf("expected a single audit record, got %d", got)
	}
}

func TestApplyAcrossDayBoundaryBucketsSeparately(t *testing.T) {
	env := setupReactor(t)
	ctx := context.Background()
	seedCandidate(t, env, "cand-1", "owner-1")

	if _, err := env.svc.Apply(ctx, endorsementCreated("evt-1", "end-1", "user-1", "cand-1")); err != nil {
		t.Fatalf("apply first: %v", err)
	}

	env.clock.Advance(24 * time.Hour)
	if _, err := env.svc.Apply(ctx, endorsementCreated("evt-2", "end-2", "user-2", "cand-1")); err != nil {
		t.Fatalf("apply second: %v", err)
	}

	var metrics []rollup.DailyMetric
	if err := env.db.Where("candidate_id = ?", "cand-1").Order("metric_date asc").Find(&metrics).Error; err != nil {
		t.Fatalf("load metrics: %v", err)
	}
	if len(metrics) != 2 {
		t.Fatalf("expected 2 daily buckets, got %d", len(metrics))
	}
	if metrics[0].MetricDate != "2024-03-10" || metrics[1].MetricDate != "2024-03-11" {
		t.Fatalf("unexpected bucket dates: %s, %s", metrics[0].MetricDate, metrics[1].MetricDate)
	}
	for _, metric := range metrics {
		if metric.EndorsementsReceived != 1 {
			t.Fatalf("expected 1 endorsement in bucket %s, got %d", metric.MetricDate, metric.EndorsementsReceived)
		}
	}
}
