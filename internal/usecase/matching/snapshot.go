package matching

import (
	"context"
	"fmt"
	"slices"

	"github.com/gdugdh24/teamup-backend/internal/domain"
	"github.com/gdugdh24/teamup-backend/internal/repository"
)

// SnapshotAccessor reads the bounded candidate pool for one scoring pass.
// Eligibility is filtered by the store; the in-memory pass below only guards
// against a store that returns more than it was asked for.
type SnapshotAccessor struct {
	profileRepo repository.ProfileRepository
	limit       int
}

func NewSnapshotAccessor(profileRepo repository.ProfileRepository, limit int) *SnapshotAccessor {
	if limit <= 0 {
		limit = DefaultOptions().CandidateLimit
	}
	return &SnapshotAccessor{profileRepo: profileRepo, limit: limit}
}

// Candidates returns at most the configured number of eligible profiles.
// Candidates with openToNewTeams=false are admitted only when the contest
// allows closed profiles.
func (a *SnapshotAccessor) Candidates(ctx context.Context, requesterID int, contest *domain.ContestConstraints, exclude []int) ([]*domain.Profile, error) {
	q := repository.CandidateQuery{
		RequesterID:   requesterID,
		ExcludeIDs:    exclude,
		IncludeClosed: contest != nil && contest.AllowClosedProfiles,
		Limit:         a.limit,
	}
	if contest != nil {
		id := contest.ID
		q.ContestID = &id
	}

	profiles, err := a.profileRepo.FindEligibleCandidates(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	out := make([]*domain.Profile, 0, min(len(profiles), a.limit))
	for _, p := range profiles {
		if len(out) == a.limit {
			break
		}
		if p == nil || !p.CanBeMatched() || p.UserID == requesterID || slices.Contains(exclude, p.UserID) {
			continue
		}
		if !q.IncludeClosed && !p.Matching.OpenToNewTeams {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
