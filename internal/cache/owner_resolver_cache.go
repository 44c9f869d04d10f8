package cache

import (
	"time"

	candidatedomain "github.com/smallbiznis/canvass/internal/candidate/domain"
)

const defaultCandidateTTL = 5 * time.Minute

// OwnerResolverCache stores candidate lookups for the endorsement-created
// hot path. Entries are snapshots; a short TTL bounds staleness of the
// owner reference feeding notifications.
type OwnerResolverCache interface {
	GetCandidate(candidateID string) (*candidatedomain.Candidate, bool)
	SetCandidate(candidateID string, candidate *candidatedomain.Candidate)
}

type ownerResolverCache struct {
	candidates Cache[string, *candidatedomain.Candidate]
	ttl        time.Duration
}

// NewOwnerResolverCache returns an in-memory cache tuned for reactor
// lookups.
func NewOwnerResolverCache() OwnerResolverCache {
	return &ownerResolverCache{
		candidates: NewTTLCache[string, *candidatedomain.Candidate](),
		ttl:        defaultCandidateTTL,
	}
}

func (c *ownerResolverCache) GetCandidate(candidateID string) (*candidatedomain.Candidate, bool) {
	return c.candidates.Get(candidateID)
}

func (c *ownerResolverCache) SetCandidate(candidateID string, candidate *candidatedomain.Candidate) {
	if candidate == nil {
		return
	}
	c.candidates.Set(candidateID, candidate, c.ttl)
}
