// Package events defines the lifecycle event boundary: the inbox table the
// collaborator's data layer writes into, and the typed events the reactor
// consumes. Payloads are decoded exactly once, here.
package events

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	EntityKindUser        = "user"
	EntityKindEndorsement = "endorsement"

	ChangeKindCreated = "created"
	ChangeKindDeleted = "deleted"
)

// LifecycleEvent is one inbound entity lifecycle event. Delivery is
// at-least-once: rows may be picked up again after a crash, and the same
// event id may appear in more than one row.
type LifecycleEvent struct {
	ID          snowflake.ID      `gorm:"primaryKey"`
	EventID     string            `gorm:"type:text;not null;uniqueIndex"`
	EntityKind  string            `gorm:"type:text;not null"`
	ChangeKind  string            `gorm:"type:text;not null"`
	Payload     datatypes.JSONMap `gorm:"type:jsonb"`
	Processed   bool              `gorm:"not null;default:false;index"`
	ProcessedAt *time.Time
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LifecycleEvent) TableName() string { return "lifecycle_events" }
