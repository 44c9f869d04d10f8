package events

import (
	"errors"
	"fmt"
	"strings"

	endorsementdomain "github.com/smallbiznis/canvass/internal/endorsement/domain"
	userdomain "github.com/smallbiznis/canvass/internal/user/domain"
	"gorm.io/datatypes"
)

// ErrMalformedEvent marks an event that can never be applied: required
// fields are missing or the (entity, change) pair is unknown. Such events
// are recorded and dropped, never retried.
var ErrMalformedEvent = errors.New("malformed_event")

// Decode validates an inbox row and returns its typed event.
func Decode(row LifecycleEvent) (Event, error) {
	eventID := strings.TrimSpace(row.EventID)
	if eventID == "" {
		return nil, fmt.Errorf("%w: missing event_id", ErrMalformedEvent)
	}

	switch row.EntityKind + "/" + row.ChangeKind {
	case EntityKindUser + "/" + ChangeKindCreated:
		user, err := decodeUser(row.Payload)
		if err != nil {
			return nil, err
		}
		return UserCreated{EventID: eventID, User: user}, nil
	case EntityKindUser + "/" + ChangeKindDeleted:
		user, err := decodeUser(row.Payload)
		if err != nil {
			return nil, err
		}
		return UserDeleted{EventID: eventID, User: user}, nil
	case EntityKindEndorsement + "/" + ChangeKindCreated:
		endorsement, err := decodeEndorsement(row.Payload)
		if err != nil {
			return nil, err
		}
		return EndorsementCreated{EventID: eventID, Endorsement: endorsement}, nil
	case EntityKindEndorsement + "/" + ChangeKindDeleted:
		endorsement, err := decodeEndorsement(row.Payload)
		if err != nil {
			return nil, err
		}
		return EndorsementDeleted{EventID: eventID, Endorsement: endorsement}, nil
	default:
		return nil, fmt.Errorf("%w: unknown event %s/%s", ErrMalformedEvent, row.EntityKind, row.ChangeKind)
	}
}

func decodeUser(payload datatypes.JSONMap) (userdomain.User, error) {
	id := stringField(payload, "id")
	if id == "" {
		return userdomain.User{}, fmt.Errorf("%w: missing user id", ErrMalformedEvent)
	}

	user := userdomain.User{
		ID:     id,
		Role:   stringField(payload, "role"),
		Status: stringField(payload, "status"),
	}
	if candidateID := stringField(payload, "candidate_id"); candidateID != "" {
		user.CandidateID = &candidateID
	}
	return user, nil
}

func decodeEndorsement(payload datatypes.JSONMap) (endorsementdomain.Endorsement, error) {
	endorsement := endorsementdomain.Endorsement{
		ID:          stringField(payload, "id"),
		EndorserID:  stringField(payload, "endorser_id"),
		CandidateID: stringField(payload, "candidate_id"),
	}
	if endorsement.ID == "" {
		return endorsementdomain.Endorsement{}, fmt.Errorf("%w: missing endorsement id", ErrMalformedEvent)
	}
	if endorsement.EndorserID == "" {
		return endorsementdomain.Endorsement{}, fmt.Errorf("%w: missing endorser_id", ErrMalformedEvent)
	}
	if endorsement.CandidateID == "" {
		return endorsementdomain.Endorsement{}, fmt.Errorf("%w: missing candidate_id", ErrMalformedEvent)
	}
	return endorsement, nil
}

func stringField(payload datatypes.JSONMap, key string) string {
	value, ok := payload[key]
	if !ok {
		return ""
	}
	typed, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(typed)
}
