package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/canvass/pkg/db/pagination"
)

type ListAuditRecordRequest struct {
	pagination.Pagination
	EventID string
	Action  string
	StartAt *time.Time
	EndAt   *time.Time
}

type ListAuditRecordResponse struct {
	pagination.PageInfo
	AuditRecords []AuditRecord `json:"audit_records"`
}

type Service interface {
	// NewRecord assembles an audit row for inclusion in a reactor batch.
	// It assigns the row id but does not persist anything.
	NewRecord(eventID, action string, subjectIDs map[string]any, at time.Time) (*AuditRecord, error)
	// Append persists a single record outside any batch.
	Append(ctx context.Context, record *AuditRecord) error
	List(ctx context.Context, req ListAuditRecordRequest) (ListAuditRecordResponse, error)
}

type Repository interface {
	Insert(ctx context.Context, record *AuditRecord) error
	List(ctx context.Context, filter ListFilter) ([]*AuditRecord, error)
}

type ListFilter struct {
	EventID string
	Action  string
	StartAt *time.Time
	EndAt   *time.Time
	Cursor  *Cursor
	Limit   int
}

type Cursor struct {
	ID        int64
	CreatedAt time.Time
}
