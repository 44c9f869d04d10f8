// Package domain defines the append-only audit trail. One record per
// processed lifecycle event; the unique event id doubles as the engine's
// idempotency guard.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	ActionUserCreated        = "user_created"
	ActionUserDeleted        = "user_deleted"
	ActionEndorsementCreated = "endorsement_created"
	ActionEndorsementRevoked = "endorsement_revoked"
	ActionEventRejected      = "event_rejected"
)

// AuditRecord is immutable once written. The engine never deletes records;
// a separate user-deletion cascade elsewhere may purge rows tied to a
// specific user.
type AuditRecord struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	EventID    string            `gorm:"type:text;not null;uniqueIndex"`
	Action     string            `gorm:"type:text;not null;index"`
	SubjectIDs datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt  time.Time         `gorm:"not null;index"`
}

// TableName sets the database table name.
func (AuditRecord) TableName() string { return "audit_records" }

var (
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidEventID   = errors.New("invalid_event_id")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
)
