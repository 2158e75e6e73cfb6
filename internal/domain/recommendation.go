package domain

import (
	"math"
	"strconv"
	"time"
)

type Category string

const (
	CategoryRoleDiversity      Category = "role_diversity"
	CategorySkillComplement    Category = "skill_complementarity"
	CategoryAvailability       Category = "availability_overlap"
	CategoryExperience         Category = "experience_closeness"
	CategoryLocation           Category = "location_timezone"
	CategoryCommunication      Category = "communication_tools"
	CategoryContestPreference  Category = "contest_preference"
	CategoryCollaborationStyle Category = "collaboration_style"
)

// Categories lists every scoring category in display order.
var Categories = []Category{
	CategoryRoleDiversity,
	CategorySkillComplement,
	CategoryAvailability,
	CategoryExperience,
	CategoryLocation,
	CategoryCommunication,
	CategoryContestPreference,
	CategoryCollaborationStyle,
}

// ScoreBreakdown maps each category to the points it contributed.
type ScoreBreakdown map[Category]float64

// Total sums the category points.
func (b ScoreBreakdown) Total() float64 {
	total := 0.0
	for _, v := range b {
		total += v
	}
	return RoundPoints(total)
}

// RoundPoints rounds to one decimal place.
func RoundPoints(v float64) float64 {
	return math.Round(v*10) / 10
}

type Score struct {
	Total     float64        `json:"match_score"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

type Mode string

const (
	ModeOneWay Mode = "one_way"
	ModeTwoWay Mode = "two_way"
)

// RecommendationKey identifies one cached recommendation list.
type RecommendationKey struct {
	RequesterID  int
	ContestID    *int
	Mode         Mode
	ExcludedHash string
}

// String renders the key; the requester prefix is what invalidation matches on.
func (k RecommendationKey) String() string {
	contest := "none"
	if k.ContestID != nil {
		contest = strconv.Itoa(*k.ContestID)
	}
	return RequesterKeyPrefix(k.RequesterID) + contest + ":" + string(k.Mode) + ":" + k.ExcludedHash
}

// RequesterKeyPrefix is shared by every key of one requester.
func RequesterKeyPrefix(requesterID int) string {
	return "reco:" + strconv.Itoa(requesterID) + ":"
}

type RankedCandidate struct {
	CandidateID int            `json:"candidate_id"`
	TotalScore  float64        `json:"total_score"`
	Breakdown   ScoreBreakdown `json:"breakdown"`
}

// RecommendationCacheEntry is always written as a whole; it is never patched.
type RecommendationCacheEntry struct {
	Key        string            `json:"key"`
	Candidates []RankedCandidate `json:"candidates"`
	CreatedAt  time.Time         `json:"created_at"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

// Fresh reports whether the entry is still within its TTL at now.
func (e *RecommendationCacheEntry) Fresh(now time.Time) bool {
	return e != nil && now.Before(e.ExpiresAt)
}

// CandidateSummary is the display-ready view of a recommended user.
type CandidateSummary struct {
	UserID      int     `json:"user_id"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Headline    string  `json:"headline"`
	Location    string  `json:"location,omitempty"`
}

type ReasonCode string

const (
	ReasonOK                     ReasonCode = "ok"
	ReasonNoConsent              ReasonCode = "no_consent"
	ReasonInsufficientCandidates ReasonCode = "insufficient_candidates"
	ReasonStale                  ReasonCode = "stale"
	ReasonTimeout                ReasonCode = "timeout"
)

// BuildHeadline renders "Backend Dev · advanced" style headlines.
func BuildHeadline(primaryRole string, level ExperienceLevel) string {
	switch {
	case primaryRole == "" && level == "":
		return ""
	case level == "":
		return primaryRole
	case primaryRole == "":
		return string(level)
	default:
		return primaryRole + " · " + string(level)
	}
}
