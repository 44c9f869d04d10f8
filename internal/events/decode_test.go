package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestDecodeUserEvents(t *testing.T) {
	row := LifecycleEvent{
		EventID:    "evt-1",
		EntityKind: EntityKindUser,
		ChangeKind: ChangeKindCreated,
		Payload: datatypes.JSONMap{
			"id":           "user-1",
			"candidate_id": "cand-1",
			"role":         "member",
			"status":       "active",
		},
	}

	event, err := Decode(row)
	require.NoError(t, err)
	created, ok := event.(UserCreated)
	require.True(t, ok, "expected UserCreated, got %T", event)
	assert.Equal(t, "evt-1", created.EventID)
	assert.Equal(t, "user-1", created.User.ID)
	assert.Equal(t, "member", created.User.Role)
	require.NotNil(t, created.User.CandidateID)
	assert.Equal(t, "cand-1", *created.User.CandidateID)

	row.ChangeKind = ChangeKindDeleted
	event, err = Decode(row)
	require.NoError(t, err)
	deleted, ok := event.(UserDeleted)
	require.True(t, ok, "expected UserDeleted, got %T", event)
	assert.Equal(t, "user-1", deleted.User.ID)
}

func TestDecodeEndorsementEvents(t *testing.T) {
	row := LifecycleEvent{
		EventID:    "evt-1",
		EntityKind: EntityKindEndorsement,
		ChangeKind: ChangeKindCreated,
		Payload: datatypes.JSONMap{
			"id":           "end-1",
			"endorser_id":  "user-1",
			"candidate_id": "cand-1",
		},
	}

	event, err := Decode(row)
	require.NoError(t, err)
	created, ok := event.(EndorsementCreated)
	require.True(t, ok, "expected EndorsementCreated, got %T", event)
	assert.Equal(t, "end-1", created.Endorsement.ID)
	assert.Equal(t, "user-1", created.Endorsement.EndorserID)
	assert.Equal(t, "cand-1", created.Endorsement.CandidateID)

	row.ChangeKind = ChangeKindDeleted
	event, err = Decode(row)
	require.NoError(t, err)
	_, ok = event.(EndorsementDeleted)
	require.True(t, ok, "expected EndorsementDeleted, got %T", event)
}

func TestDecodeTrimsWhitespace(t *testing.T) {
	row := LifecycleEvent{
		EventID:    " evt-1 ",
		EntityKind: EntityKindUser,
		ChangeKind: ChangeKindCreated,
		Payload:    datatypes.JSONMap{"id": " user-1 "},
	}

	event, err := Decode(row)
	require.NoError(t, err)
	created := event.(UserCreated)
	assert.Equal(t, "evt-1", created.EventID)
	assert.Equal(t, "user-1", created.User.ID)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		row  LifecycleEvent
	}{
		{
			name: "missing event id",
			row: LifecycleEvent{
				EntityKind: EntityKindUser,
				ChangeKind: ChangeKindCreated,
				Payload:    datatypes.JSONMap{"id": "user-1"},
			},
		},
		{
			name: "unknown entity",
			row: LifecycleEvent{
				EventID:    "evt-1",
				EntityKind: "invoice",
				ChangeKind: ChangeKindCreated,
			},
		},
		{
			name: "unknown change",
			row: LifecycleEvent{
				EventID:    "evt-1",
				EntityKind: EntityKindUser,
				ChangeKind: "archived",
			},
		},
		{
			name: "user without id",
			row: LifecycleEvent{
				EventID:    "evt-1",
				EntityKind: EntityKindUser,
				ChangeKind: ChangeKindCreated,
				Payload:    datatypes.JSONMap{"role": "member"},
			},
		},
		{
			name: "endorsement without endorser",
			row: LifecycleEvent{
				EventID:    "evt-1",
				EntityKind: EntityKindEndorsement,
				ChangeKind: ChangeKindCreated,
				Payload:    datatypes.JSONMap{"id": "end-1", "candidate_id": "cand-1"},
			},
		},
		{
			name: "endorsement without candidate",
			row: LifecycleEvent{
				EventID:    "evt-1",
				EntityKind: EntityKindEndorsement,
				ChangeKind: ChangeKindCreated,
				Payload:    datatypes.JSONMap{"id": "end-1", "endorser_id": "user-1"},
			},
		},
		{
			name: "endorsement with non-string id",
			row: LifecycleEvent{
				EventID:    "evt-1",
				EntityKind: EntityKindEndorsement,
				ChangeKind: ChangeKindDeleted,
				Payload:    datatypes.JSONMap{"id": 42, "endorser_id": "u", "candidate_id": "c"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.row)
			require.ErrorIs(t, err, ErrMalformedEvent)
		})
	}
}
