package domain

import (
	"strconv"
	"strings"
	"time"
)

type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// Rank returns the position on the beginner -> advanced scale, or 0 when unknown.
func (l ExperienceLevel) Rank() int {
	switch l {
	case ExperienceBeginner:
		return 1
	case ExperienceIntermediate:
		return 2
	case ExperienceAdvanced:
		return 3
	default:
		return 0
	}
}

// MatchingProfile holds the teammate-matching fields of a user.
// Zero values mean "not declared" and score as zero.
type MatchingProfile struct {
	PrimaryRole        string          `json:"primary_role"`
	SecondaryRoles     []string        `json:"secondary_roles"`
	ExperienceLevel    ExperienceLevel `json:"experience_level"`
	YearsOfExperience  int             `json:"years_of_experience"`
	Location           string          `json:"location"`
	TimeZone           string          `json:"time_zone"`
	Languages          []string        `json:"languages"`
	Skills             []string        `json:"skills"`
	TechStack          []string        `json:"tech_stack"`
	RemotePreference   string          `json:"remote_preference"`
	Availability       string          `json:"availability"`
	CollaborationStyle string          `json:"collaboration_style"`
	CommunicationTools []string        `json:"communication_tools"`
	OpenToNewTeams     bool            `json:"open_to_new_teams"`
	OpenToMentor       bool            `json:"open_to_mentor"`
}

// ContestPreferences are soft scoring signals, never hard filters.
type ContestPreferences struct {
	InterestTags      []string `json:"interest_tags"`
	PreferredFormats  []string `json:"preferred_formats"`
	PreferredTeamRole string   `json:"preferred_team_role"`
	PreferredTeamSize int      `json:"preferred_team_size"`
	Goals             string   `json:"goals"`
	Strengths         string   `json:"strengths"`
}

// Consents gate what the engine may do with a profile.
//
// AllowMatching is the only gate: without it a user neither requests lists nor
// appears in them. AllowRecommendations is informational here; it is stored for
// the notification service that pushes recommendations unprompted and never
// changes the result of a request. ShareExtendedProfile exposes location in
// candidate summaries.
type Consents struct {
	AllowMatching        bool `json:"allow_matching"`
	AllowRecommendations bool `json:"allow_recommendations"`
	ShareExtendedProfile bool `json:"share_extended_profile"`
}

// Profile is the read-only projection of a user the engine works with.
type Profile struct {
	UserID             int                `json:"user_id"`
	DisplayName        string             `json:"display_name"`
	AvatarURL          *string            `json:"avatar_url,omitempty"`
	Matching           MatchingProfile    `json:"matching"`
	ContestPreferences ContestPreferences `json:"contest_preferences"`
	Consents           Consents           `json:"consents"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// CanBeMatched reports whether the profile may appear in anyone's candidate list.
func (p *Profile) CanBeMatched() bool {
	return p != nil && p.Consents.AllowMatching
}

// Normalize trims free-text fields and removes duplicate and empty set entries.
func (p *Profile) Normalize() {
	m := &p.Matching
	m.PrimaryRole = strings.TrimSpace(m.PrimaryRole)
	m.SecondaryRoles = NormalizeSet(m.SecondaryRoles)
	m.ExperienceLevel = ExperienceLevel(strings.ToLower(strings.TrimSpace(string(m.ExperienceLevel))))
	if m.YearsOfExperience < 0 {
		m.YearsOfExperience = 0
	}
	m.Location = strings.TrimSpace(m.Location)
	m.TimeZone = strings.TrimSpace(m.TimeZone)
	m.Languages = NormalizeSet(m.Languages)
	m.Skills = NormalizeSet(m.Skills)
	m.TechStack = NormalizeSet(m.TechStack)
	m.RemotePreference = strings.ToLower(strings.TrimSpace(m.RemotePreference))
	m.Availability = strings.TrimSpace(m.Availability)
	m.CollaborationStyle = strings.ToLower(strings.TrimSpace(m.CollaborationStyle))
	m.CommunicationTools = NormalizeSet(m.CommunicationTools)

	cp := &p.ContestPreferences
	cp.InterestTags = NormalizeSet(cp.InterestTags)
	cp.PreferredFormats = NormalizeSet(cp.PreferredFormats)
	cp.PreferredTeamRole = strings.TrimSpace(cp.PreferredTeamRole)
	if cp.PreferredTeamSize < 0 {
		cp.PreferredTeamSize = 0
	}
}

// AvailabilityWindows splits the availability description into comparable windows,
// e.g. "Weekday evenings, weekends" -> ["weekday evenings", "weekends"].
func (m *MatchingProfile) AvailabilityWindows() []string {
	if m.Availability == "" {
		return nil
	}
	parts := strings.FieldsFunc(m.Availability, func(r rune) bool {
		return r == ',' || r == ';' || r == '/' || r == '\n'
	})
	return NormalizeSet(parts)
}

// NormalizeSet trims entries, drops empty ones and removes case-insensitive duplicates,
// keeping the first spelling.
func NormalizeSet(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ParseUTCOffset converts "UTC+3", "GMT-05:30", "+02:00" or "UTC" into minutes east of UTC.
func ParseUTCOffset(tz string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(tz))
	switch {
	case s == "":
		return 0, false
	case s == "UTC" || s == "GMT" || s == "Z":
		return 0, true
	case strings.HasPrefix(s, "UTC"), strings.HasPrefix(s, "GMT"):
		s = s[3:]
	}

	if len(s) < 2 || (s[0] != '+' && s[0] != '-') {
		return 0, false
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	s = s[1:]

	hoursPart, minutesPart := s, ""
	if i := strings.IndexByte(s, ':'); i >= 0 {
		hoursPart, minutesPart = s[:i], s[i+1:]
	} else if len(s) == 4 {
		hoursPart, minutesPart = s[:2], s[2:]
	}

	hours, err := strconv.Atoi(hoursPart)
	if err != nil || hours > 14 {
		return 0, false
	}
	minutes := 0
	if minutesPart != "" {
		minutes, err = strconv.Atoi(minutesPart)
		if err != nil || minutes >= 60 {
			return 0, false
		}
	}
	return sign * (hours*60 + minutes), true
}
