package events

import (
	endorsementdomain "github.com/smallbiznis/canvass/internal/endorsement/domain"
	userdomain "github.com/smallbiznis/canvass/internal/user/domain"
)

// Event is the tagged union over the four lifecycle events the reactor
// handles. Implementations are values; the snapshot they carry is the
// entity state at emission time, not a live record.
type Event interface {
	ID() string
	isEvent()
}

type UserCreated struct {
	EventID string
	User    userdomain.User
}

func (e UserCreated) ID() string { return e.EventID }
func (e UserCreated) isEvent()   {}

type UserDeleted struct {
	EventID string
	User    userdomain.User
}

func (e UserDeleted) ID() string { return e.EventID }
func (e UserDeleted) isEvent()   {}

type EndorsementCreated struct {
	EventID     string
	Endorsement endorsementdomain.Endorsement
}

func (e EndorsementCreated) ID() string { return e.EventID }
func (e EndorsementCreated) isEvent()   {}

type EndorsementDeleted struct {
	EventID     string
	Endorsement endorsementdomain.Endorsement
}

func (e EndorsementDeleted) ID() string { return e.EventID }
func (e EndorsementDeleted) isEvent()   {}
