// Package domain mirrors the collaborator's endorsement collection.
package domain

import "time"

// Endorsement records one user endorsing one candidate. Uniqueness of
// (endorser_id, candidate_id) is enforced upstream; the engine stays safe
// if it is ever violated because counters are idempotent, not re-derived.
type Endorsement struct {
	ID          string `gorm:"type:text;primaryKey"`
	EndorserID  string `gorm:"type:text;not null;index"`
	CandidateID string `gorm:"type:text;not null;index"`
	CreatedAt   time.Time
}

// TableName sets the database table name.
func (Endorsement) TableName() string { return "endorsements" }
