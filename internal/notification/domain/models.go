// Package domain defines notification records produced by the reactor.
// The engine creates and cascade-deletes them; read state is flipped by
// the client backend, outside this engine.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	KindEndorsementReceived = "endorsement_received"
)

type Notification struct {
	ID              snowflake.ID      `gorm:"primaryKey"`
	RecipientUserID string            `gorm:"type:text;not null;index"`
	Kind            string            `gorm:"type:text;not null"`
	Payload         datatypes.JSONMap `gorm:"type:jsonb"`
	IsRead          bool              `gorm:"not null;default:false"`
	CreatedAt       time.Time         `gorm:"not null;index"`
}

// TableName sets the database table name.
func (Notification) TableName() string { return "notifications" }

var (
	ErrInvalidRecipient = errors.New("invalid_recipient")
	ErrInvalidKind      = errors.New("invalid_kind")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
