package matching

import "github.com/gdugdh24/teamup-backend/internal/domain"

// MutualGate keeps only candidates whose interest is mutual: the forward score
// and the score with the roles swapped must both exceed the threshold.
type MutualGate struct {
	scorer    *Scorer
	threshold float64
}

func NewMutualGate(scorer *Scorer, threshold float64) *MutualGate {
	return &MutualGate{scorer: scorer, threshold: threshold}
}

// Filter returns the qualifying candidates in input order with Reverse set.
func (g *MutualGate) Filter(requester *domain.Profile, pool []ScoredCandidate, contest *domain.ContestConstraints) []ScoredCandidate {
	out := make([]ScoredCandidate, 0, len(pool))
	for _, c := range pool {
		if c.Score.Total <= g.threshold {
			continue
		}
		reverse := g.scorer.Score(c.Profile, requester, contest)
		if reverse.Total <= g.threshold {
			continue
		}
		c.Reverse = &reverse
		out = append(out, c)
	}
	return out
}
