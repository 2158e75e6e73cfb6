package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSet(t *testing.T) {
	assert.Equal(t, []string{}, NormalizeSet(nil))
	assert.Equal(t, []string{"React", "TS"}, NormalizeSet([]string{" React", "react", "", "TS", "ts "}))
}

func TestProfile_Normalize(t *testing.T) {
	p := &Profile{
		Matching: MatchingProfile{
			PrimaryRole:        "  Frontend Dev ",
			ExperienceLevel:    " Advanced",
			YearsOfExperience:  -3,
			Skills:             []string{"Go", "go", "SQL"},
			CollaborationStyle: "Structured",
		},
		ContestPreferences: ContestPreferences{
			InterestTags:      []string{"ml", "ML", "web"},
			PreferredTeamSize: -1,
		},
	}
	p.Normalize()

	assert.Equal(t, "Frontend Dev", p.Matching.PrimaryRole)
	assert.Equal(t, ExperienceAdvanced, p.Matching.ExperienceLevel)
	assert.Zero(t, p.Matching.YearsOfExperience)
	assert.Equal(t, []string{"Go", "SQL"}, p.Matching.Skills)
	assert.Equal(t, []string{}, p.Matching.TechStack)
	assert.Equal(t, "structured", p.Matching.CollaborationStyle)
	assert.Equal(t, []string{"ml", "web"}, p.ContestPreferences.InterestTags)
	assert.Zero(t, p.ContestPreferences.PreferredTeamSize)
}

func TestExperienceLevel_Rank(t *testing.T) {
	assert.Equal(t, 1, ExperienceBeginner.Rank())
	assert.Equal(t, 2, ExperienceIntermediate.Rank())
	assert.Equal(t, 3, ExperienceAdvanced.Rank())
	assert.Equal(t, 0, ExperienceLevel("guru").Rank())
}

func TestAvailabilityWindows(t *testing.T) {
	m := MatchingProfile{Availability: "Weekday evenings, weekends; weekday EVENINGS"}
	assert.Equal(t, []string{"Weekday evenings", "weekends"}, m.AvailabilityWindows())
	assert.Nil(t, (&MatchingProfile{}).AvailabilityWindows())
}

func TestParseUTCOffset(t *testing.T) {
	tests := []struct {
		in      string
		minutes int
		ok      bool
	}{
		{"UTC", 0, true},
		{"utc+3", 180, true},
		{"GMT-05:30", -330, true},
		{"+02:00", 120, true},
		{"-0800", -480, true},
		{"UTC+15", 0, false},
		{"Europe/Berlin", 0, false},
		{"", 0, false},
		{"+ab", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseUTCOffset(tt.in)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.minutes, got)
		})
	}
}

func TestRecommendationKey_String(t *testing.T) {
	contest := 9
	k := RecommendationKey{RequesterID: 4, ContestID: &contest, Mode: ModeTwoWay, ExcludedHash: "abc"}
	assert.Equal(t, "reco:4:9:two_way:abc", k.String())

	k.ContestID = nil
	assert.Equal(t, "reco:4:none:two_way:abc", k.String())
	assert.Contains(t, k.String(), RequesterKeyPrefix(4))
}

func TestCacheEntry_Fresh(t *testing.T) {
	now := time.Now()
	e := &RecommendationCacheEntry{ExpiresAt: now.Add(time.Minute)}
	assert.True(t, e.Fresh(now))
	assert.False(t, e.Fresh(now.Add(2*time.Minute)))

	var nilEntry *RecommendationCacheEntry
	assert.False(t, nilEntry.Fresh(now))
}

func TestScoreBreakdown_Total(t *testing.T) {
	b := ScoreBreakdown{CategoryRoleDiversity: 25, CategorySkillComplement: 12.3, CategoryExperience: 0.1}
	assert.InDelta(t, 37.4, b.Total(), 1e-9)
}
