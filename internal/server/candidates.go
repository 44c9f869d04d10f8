package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/canvass/internal/rollup"
)

type candidateStatsResponse struct {
	CandidateID      string `json:"candidate_id"`
	EndorsementCount int64  `json:"endorsement_count"`
	StoredCount      int64  `json:"stored_count"`
}

// GetCandidateStats reports the maintained aggregate next to a live count
// of endorsement rows. The two can drift after user-deletion cascades;
// exposing both makes the drift observable.
func (s *Server) GetCandidateStats(c *gin.Context) {
	candidateID := strings.TrimSpace(c.Param("id"))
	if candidateID == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	candidate, err := s.candidateRepo.Get(c.Request.Context(), s.db, candidateID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if candidate == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	aggregate, err := s.candidateRepo.GetAggregate(c.Request.Context(), s.db, candidateID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	stored, err := s.endorsementRepo.CountByCandidate(c.Request.Context(), s.db, candidateID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := candidateStatsResponse{
		CandidateID: candidateID,
		StoredCount: stored,
	}
	if aggregate != nil {
		resp.EndorsementCount = aggregate.EndorsementCount
	}
	c.JSON(http.StatusOK, resp)
}

type recordProfileViewsRequest struct {
	Views int64 `json:"views"`
}

// RecordProfileViews merges collaborator-reported profile views into the
// candidate's daily bucket for the current reference day.
func (s *Server) RecordProfileViews(c *gin.Context) {
	candidateID := strings.TrimSpace(c.Param("id"))
	if candidateID == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	var req recordProfileViewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Views <= 0 {
		AbortWithError(c, newValidationError("views", "invalid_views", "views must be positive"))
		return
	}

	day := s.rollupSvc.BucketDate(s.clock.Now())
	err := s.rollupSvc.Merge(c.Request.Context(), candidateID, day, rollup.Delta{ProfileViews: req.Views})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"candidate_id": candidateID, "metric_date": day})
}
