package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/canvass/internal/events"
	"gorm.io/datatypes"
)

type ingestEventRequest struct {
	EventID    string         `json:"event_id"`
	EntityKind string         `json:"entity_kind"`
	ChangeKind string         `json:"change_kind"`
	Payload    map[string]any `json:"payload"`
}

type ingestEventResponse struct {
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}

// IngestEvent appends one lifecycle event to the inbox. Re-sending the
// same event id is safe: the row is only written once and redeliveries
// answer the same way, so collaborators can retry blindly.
func (s *Server) IngestEvent(c *gin.Context) {
	var req ingestEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.EventID = strings.TrimSpace(req.EventID)
	if req.EventID == "" {
		AbortWithError(c, newValidationError("event_id", "missing_event_id", "event_id is required"))
		return
	}
	if strings.TrimSpace(req.EntityKind) == "" {
		AbortWithError(c, newValidationError("entity_kind", "missing_entity_kind", "entity_kind is required"))
		return
	}
	if strings.TrimSpace(req.ChangeKind) == "" {
		AbortWithError(c, newValidationError("change_kind", "missing_change_kind", "change_kind is required"))
		return
	}

	row := &events.LifecycleEvent{
		ID:         s.genID.Generate(),
		EventID:    req.EventID,
		EntityKind: strings.TrimSpace(req.EntityKind),
		ChangeKind: strings.TrimSpace(req.ChangeKind),
		Payload:    datatypes.JSONMap(req.Payload),
		CreatedAt:  s.clock.Now().UTC(),
	}

	created, err := s.store.CreateIfAbsent(c.Request.Context(), row, "event_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, ingestEventResponse{
		EventID:   req.EventID,
		Duplicate: !created,
	})
}
