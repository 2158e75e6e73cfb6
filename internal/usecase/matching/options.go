package matching

import "github.com/gdugdh24/teamup-backend/internal/domain"

// Weights is the fixed category weight table. The values sum to 100.
var Weights = map[domain.Category]float64{
	domain.CategoryRoleDiversity:      25,
	domain.CategorySkillComplement:    20,
	domain.CategoryAvailability:       15,
	domain.CategoryExperience:         10,
	domain.CategoryLocation:           10,
	domain.CategoryCommunication:      10,
	domain.CategoryContestPreference:  5,
	domain.CategoryCollaborationStyle: 5,
}

// ScoringOptions holds the tunable constants of the pairwise scorer.
type ScoringOptions struct {
	// RoleOverlapCredit is granted when the candidate's primary role is one of
	// the requester's secondary roles.
	RoleOverlapCredit float64

	// SkillBaseCredit is the floor granted to any candidate with declared skills
	// when the requester declared skills too.
	SkillBaseCredit float64

	// ExperienceDecay is indexed by the gap between experience ranks.
	ExperienceDecay []float64

	SameOffsetCredit     float64
	AdjacentOffsetCredit float64

	// TimezoneAdjacentHours is the largest UTC offset difference still given
	// AdjacentOffsetCredit.
	TimezoneAdjacentHours float64
}

// SelectionOptions holds the tunables of the greedy diversity selector.
type SelectionOptions struct {
	RoleNoveltyBonus     float64
	SkillNoveltyBonus    float64
	SkillNoveltyCap      float64
	DuplicateRolePenalty float64
}

type Options struct {
	Scoring   ScoringOptions
	Selection SelectionOptions

	// CandidateLimit bounds the pool read from the profile store.
	CandidateLimit int
	DefaultLimit   int
	MaxLimit       int
	// MutualThreshold must be strictly exceeded by both directions in two-way mode.
	MutualThreshold float64
}

func DefaultScoringOptions() ScoringOptions {
	return ScoringOptions{
		RoleOverlapCredit:     0.6,
		SkillBaseCredit:       0.3,
		ExperienceDecay:       []float64{1, 1, 0.4},
		SameOffsetCredit:      0.7,
		AdjacentOffsetCredit:  0.4,
		TimezoneAdjacentHours: 1,
	}
}

func DefaultSelectionOptions() SelectionOptions {
	return SelectionOptions{
		RoleNoveltyBonus:     10,
		SkillNoveltyBonus:    1.5,
		SkillNoveltyCap:      8,
		DuplicateRolePenalty: 12,
	}
}

func DefaultOptions() Options {
	return Options{
		Scoring:         DefaultScoringOptions(),
		Selection:       DefaultSelectionOptions(),
		CandidateLimit:  200,
		DefaultLimit:    5,
		MaxLimit:        10,
		MutualThreshold: 0,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.CandidateLimit <= 0 {
		o.CandidateLimit = def.CandidateLimit
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = def.MaxLimit
	}
	if o.DefaultLimit <= 0 || o.DefaultLimit > o.MaxLimit {
		o.DefaultLimit = min(def.DefaultLimit, o.MaxLimit)
	}
	if o.MutualThreshold < 0 {
		o.MutualThreshold = 0
	}
	if len(o.Scoring.ExperienceDecay) == 0 {
		o.Scoring = def.Scoring
	}
	if o.Selection == (SelectionOptions{}) {
		o.Selection = def.Selection
	}
	return o
}
