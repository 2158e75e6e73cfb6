package repository

import (
	"context"

	"github.com/gdugdh24/teamup-backend/internal/domain"
)

// CandidateQuery describes one bounded candidate fetch. Every condition is applied
// by the store, not by the caller.
type CandidateQuery struct {
	RequesterID int
	ContestID   *int
	ExcludeIDs  []int
	// IncludeClosed admits profiles with openToNewTeams=false.
	IncludeClosed bool
	Limit         int
}

type ProfileRepository interface {
	// FindEligibleCandidates returns at most q.Limit profiles with allowMatching=true,
	// excluding the requester and q.ExcludeIDs. An empty result is not an error.
	FindEligibleCandidates(ctx context.Context, q CandidateQuery) ([]*domain.Profile, error)
	FindOne(ctx context.Context, userID int) (*domain.Profile, error)
	// FindSummaries resolves ids to display summaries in a single round-trip.
	// Unknown ids and profiles with allowMatching=false are absent from the map,
	// so lists cached before a consent change never surface them.
	FindSummaries(ctx context.Context, userIDs []int) (map[int]*domain.CandidateSummary, error)
	UpdateMatching(ctx context.Context, profile *domain.Profile) error
}
