package domain

// ContestConstraints is the part of a contest record that scopes matching.
// It is read-only for the engine.
type ContestConstraints struct {
	ID          int      `json:"id" db:"id"`
	Title       string   `json:"title" db:"title"`
	Tags        []string `json:"tags" db:"tags"`
	Format      string   `json:"format" db:"format"`
	MinTeamSize int      `json:"min_team_size" db:"min_team_size"`
	MaxTeamSize int      `json:"max_team_size" db:"max_team_size"`
	// AllowClosedProfiles lets candidates with openToNewTeams=false be recommended
	// for this contest.
	AllowClosedProfiles bool `json:"allow_closed_profiles" db:"allow_closed_profiles"`
}
