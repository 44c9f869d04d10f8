// Package domain mirrors the collaborator's user collection. The engine
// never creates or deletes users; it only reacts to their lifecycle events.
package domain

import "time"

// User carries the snapshot fields the reactor needs. Role and Status are
// opaque to the engine.
type User struct {
	ID          string  `gorm:"type:text;primaryKey"`
	CandidateID *string `gorm:"type:text;index"`
	Role        string  `gorm:"type:text"`
	Status      string  `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }
