package matching

import (
	"math"
	"strings"

	"github.com/gdugdh24/teamup-backend/internal/domain"
)

// collaborationFit is the compatibility of declared collaboration styles,
// indexed requester style first.
var collaborationFit = map[string]map[string]float64{
	"structured": {
		"structured":  1,
		"flexible":    1,
		"async":       0.6,
		"spontaneous": 0.2,
	},
	"flexible": {
		"structured":  1,
		"flexible":    1,
		"async":       0.8,
		"spontaneous": 0.8,
	},
	"async": {
		"structured":  0.6,
		"flexible":    0.8,
		"async":       1,
		"spontaneous": 0.4,
	},
	"spontaneous": {
		"structured":  0.2,
		"flexible":    0.8,
		"async":       0.4,
		"spontaneous": 1,
	},
}

// Scorer computes pairwise compatibility. It is a pure function of its inputs
// and safe for concurrent use.
type Scorer struct {
	opts ScoringOptions
}

func NewScorer(opts ScoringOptions) *Scorer {
	if len(opts.ExperienceDecay) == 0 {
		opts = DefaultScoringOptions()
	}
	return &Scorer{opts: opts}
}

// Score rates candidate as a teammate for requester. Every category is present
// in the breakdown, and each is clamped to its weight before summing.
func (s *Scorer) Score(requester, candidate *domain.Profile, contest *domain.ContestConstraints) domain.Score {
	r, c := &requester.Matching, &candidate.Matching

	fractions := map[domain.Category]float64{
		domain.CategoryRoleDiversity:      s.roleDiversity(r, c),
		domain.CategorySkillComplement:    s.skillComplementarity(r, c),
		domain.CategoryAvailability:       availabilityOverlap(r, c),
		domain.CategoryExperience:         s.experienceCloseness(r, c),
		domain.CategoryLocation:           s.locationTimezone(r, c),
		domain.CategoryCommunication:      toolOverlap(r.CommunicationTools, c.CommunicationTools),
		domain.CategoryContestPreference:  contestPreference(&requester.ContestPreferences, &candidate.ContestPreferences, contest),
		domain.CategoryCollaborationStyle: collaborationFit[r.CollaborationStyle][c.CollaborationStyle],
	}

	breakdown := make(domain.ScoreBreakdown, len(fractions))
	for cat, f := range fractions {
		breakdown[cat] = domain.RoundPoints(clamp01(f) * Weights[cat])
	}
	return domain.Score{Total: breakdown.Total(), Breakdown: breakdown}
}

func (s *Scorer) roleDiversity(r, c *domain.MatchingProfile) float64 {
	rRole, cRole := strings.ToLower(r.PrimaryRole), strings.ToLower(c.PrimaryRole)
	switch {
	case rRole == "" || cRole == "":
		return 0
	case rRole == cRole:
		return 0
	case containsFold(r.SecondaryRoles, cRole):
		// The requester can already cover this role partially.
		return s.opts.RoleOverlapCredit
	default:
		return 1
	}
}

// skillComplementarity rewards a mix of shared and new skills. With p the share
// of the candidate's skills the requester also has, 4p(1-p) peaks at p=0.5 and
// drops to zero at full or no overlap, on top of a flat base credit.
func (s *Scorer) skillComplementarity(r, c *domain.MatchingProfile) float64 {
	mine := skillSet(r)
	theirs := skillSet(c)
	if len(mine) == 0 || len(theirs) == 0 {
		return 0
	}
	shared := intersectionSize(mine, theirs)
	p := float64(shared) / float64(len(theirs))
	return s.opts.SkillBaseCredit + (1-s.opts.SkillBaseCredit)*4*p*(1-p)
}

func availabilityOverlap(r, c *domain.MatchingProfile) float64 {
	mine := lowerSet(r.AvailabilityWindows())
	theirs := lowerSet(c.AvailabilityWindows())
	if len(mine) == 0 || len(theirs) == 0 {
		return 0
	}
	return float64(intersectionSize(mine, theirs)) / float64(len(mine))
}

func (s *Scorer) experienceCloseness(r, c *domain.MatchingProfile) float64 {
	a, b := r.ExperienceLevel.Rank(), c.ExperienceLevel.Rank()
	if a == 0 || b == 0 {
		return 0
	}
	gap := a - b
	if gap < 0 {
		gap = -gap
	}
	if gap >= len(s.opts.ExperienceDecay) {
		return 0
	}
	return s.opts.ExperienceDecay[gap]
}

func (s *Scorer) locationTimezone(r, c *domain.MatchingProfile) float64 {
	if r.Location != "" && strings.EqualFold(r.Location, c.Location) {
		return 1
	}
	a, okA := domain.ParseUTCOffset(r.TimeZone)
	b, okB := domain.ParseUTCOffset(c.TimeZone)
	if !okA || !okB {
		return 0
	}
	diff := math.Abs(float64(a - b))
	switch {
	case diff == 0:
		return s.opts.SameOffsetCredit
	case diff <= s.opts.TimezoneAdjacentHours*60:
		return s.opts.AdjacentOffsetCredit
	default:
		return 0
	}
}

func toolOverlap(a, b []string) float64 {
	mine, theirs := lowerSet(a), lowerSet(b)
	smaller := min(len(mine), len(theirs))
	if smaller == 0 {
		return 0
	}
	return float64(intersectionSize(mine, theirs)) / float64(smaller)
}

// contestPreference compares interest tags and formats. With a contest in
// scope the candidate is compared against the contest itself; otherwise the
// two users' declared preferences are compared with each other.
func contestPreference(r, c *domain.ContestPreferences, contest *domain.ContestConstraints) float64 {
	var tags, formats float64

	if contest != nil && len(contest.Tags) > 0 {
		contestTags := lowerSet(contest.Tags)
		tags = float64(intersectionSize(lowerSet(c.InterestTags), contestTags)) / float64(len(contestTags))
	} else {
		tags = jaccard(lowerSet(r.InterestTags), lowerSet(c.InterestTags))
	}

	if contest != nil && contest.Format != "" {
		if containsFold(c.PreferredFormats, contest.Format) {
			formats = 1
		}
	} else {
		formats = jaccard(lowerSet(r.PreferredFormats), lowerSet(c.PreferredFormats))
	}

	return 0.6*tags + 0.4*formats
}

func skillSet(m *domain.MatchingProfile) map[string]struct{} {
	set := lowerSet(m.Skills)
	for _, t := range m.TechStack {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func intersectionSize(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func jaccard(a, b map[string]struct{}) float64 {
	shared := intersectionSize(a, b)
	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
