package matching

import (
	"strings"

	"github.com/gdugdh24/teamup-backend/internal/domain"
)

// ScoredCandidate is a candidate with its forward score and, in two-way mode,
// the score in the reverse direction.
type ScoredCandidate struct {
	Profile *domain.Profile
	Score   domain.Score
	Reverse *domain.Score
}

func (c ScoredCandidate) ID() int { return c.Profile.UserID }

// teamState is what the selector has assembled so far, seeded with the requester.
type teamState struct {
	roles  map[string]int
	skills map[string]struct{}
}

func newTeamState(requester *domain.Profile) *teamState {
	t := &teamState{roles: map[string]int{}, skills: map[string]struct{}{}}
	t.add(requester)
	return t
}

func (t *teamState) add(p *domain.Profile) {
	if role := roleKey(p); role != "" {
		t.roles[role]++
	}
	for s := range skillSet(&p.Matching) {
		t.skills[s] = struct{}{}
	}
}

func (t *teamState) newSkills(p *domain.Profile) int {
	n := 0
	for s := range skillSet(&p.Matching) {
		if _, ok := t.skills[s]; !ok {
			n++
		}
	}
	return n
}

func roleKey(p *domain.Profile) string {
	return strings.ToLower(strings.TrimSpace(p.Matching.PrimaryRole))
}

// Selector greedily builds a balanced team. Each round it picks the candidate
// with the best base score adjusted by what the team is still missing. The
// result is a locally improving sequence, not the optimal K-subset.
type Selector struct {
	opts SelectionOptions
}

func NewSelector(opts SelectionOptions) *Selector {
	if opts == (SelectionOptions{}) {
		opts = DefaultSelectionOptions()
	}
	return &Selector{opts: opts}
}

// Select returns at most k candidates in pick order. Duplicate candidate ids
// in pool are considered once. Ties resolve by base score, then by lower id.
func (s *Selector) Select(requester *domain.Profile, pool []ScoredCandidate, k int, contest *domain.ContestConstraints) []ScoredCandidate {
	if contest != nil && contest.MaxTeamSize > 0 {
		k = min(k, contest.MaxTeamSize-1)
	}
	if k <= 0 || len(pool) == 0 {
		return []ScoredCandidate{}
	}

	remaining := make([]ScoredCandidate, 0, len(pool))
	seen := make(map[int]struct{}, len(pool))
	for _, c := range pool {
		if c.Profile == nil {
			continue
		}
		if _, ok := seen[c.ID()]; ok {
			continue
		}
		seen[c.ID()] = struct{}{}
		remaining = append(remaining, c)
	}

	team := newTeamState(requester)
	selected := make([]ScoredCandidate, 0, min(k, len(remaining)))

	for len(selected) < k && len(remaining) > 0 {
		alternativeRole := false
		for _, c := range remaining {
			if role := roleKey(c.Profile); role != "" && team.roles[role] == 0 {
				alternativeRole = true
				break
			}
		}

		bestIdx := -1
		bestAdjusted := 0.0
		for i, c := range remaining {
			adjusted := c.Score.Total + s.adjustment(team, c.Profile, alternativeRole)
			if bestIdx < 0 || better(adjusted, c, bestAdjusted, remaining[bestIdx]) {
				bestIdx = i
				bestAdjusted = adjusted
			}
		}

		pick := remaining[bestIdx]
		selected = append(selected, pick)
		team.add(pick.Profile)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

// adjustment is the diversity bonus minus the duplicate-role penalty for p
// against the current team.
func (s *Selector) adjustment(team *teamState, p *domain.Profile, alternativeRole bool) float64 {
	adj := 0.0
	role := roleKey(p)
	if role != "" {
		if have := team.roles[role]; have == 0 {
			adj += s.opts.RoleNoveltyBonus
		} else if alternativeRole {
			adj -= s.opts.DuplicateRolePenalty * float64(have)
		}
	}
	adj += min(float64(team.newSkills(p))*s.opts.SkillNoveltyBonus, s.opts.SkillNoveltyCap)
	return adj
}

func better(adjusted float64, c ScoredCandidate, bestAdjusted float64, best ScoredCandidate) bool {
	if adjusted != bestAdjusted {
		return adjusted > bestAdjusted
	}
	if c.Score.Total != best.Score.Total {
		return c.Score.Total > best.Score.Total
	}
	return c.ID() < best.ID()
}
