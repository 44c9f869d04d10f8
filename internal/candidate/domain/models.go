// Package domain mirrors the collaborator's candidate collection and holds
// the derived per-candidate aggregate maintained by the reactor.
package domain

import "time"

// Candidate is the endorsement target. OwnerUserID points at the user
// account that manages the candidate profile, when one is linked.
type Candidate struct {
	ID          string  `gorm:"type:text;primaryKey"`
	OwnerUserID *string `gorm:"type:text;index"`
	DisplayName string  `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName sets the database table name.
func (Candidate) TableName() string { return "candidates" }

// CandidateAggregate holds derived statistics for one candidate. Mutated
// only through the store's atomic increments; the count never goes below
// zero.
type CandidateAggregate struct {
	CandidateID      string `gorm:"type:text;primaryKey"`
	EndorsementCount int64  `gorm:"not null;default:0"`
	UpdatedAt        time.Time
}

// TableName sets the database table name.
func (CandidateAggregate) TableName() string { return "candidate_aggregates" }
