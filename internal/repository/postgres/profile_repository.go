package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gdugdh24/teamup-backend/internal/domain"
	"github.com/gdugdh24/teamup-backend/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// candidateColumns is the projection the scorer needs; display and free-text
// fields are left out of candidate fetches.
const candidateColumns = `
	user_id, primary_role, secondary_roles, experience_level, years_of_experience,
	location, time_zone, skills, tech_stack, remote_preference, availability,
	collaboration_style, communication_tools, open_to_new_teams, open_to_mentor,
	contest_interest_tags, preferred_formats, preferred_team_role, preferred_team_size,
	allow_matching, allow_recommendations, share_extended_profile, updated_at`

const profileColumns = candidateColumns + `,
	display_name, avatar_url, languages, goals, strengths`

type profileRow struct {
	UserID               int            `db:"user_id"`
	DisplayName          string         `db:"display_name"`
	AvatarURL            *string        `db:"avatar_url"`
	PrimaryRole          string         `db:"primary_role"`
	SecondaryRoles       pq.StringArray `db:"secondary_roles"`
	ExperienceLevel      string         `db:"experience_level"`
	YearsOfExperience    int            `db:"years_of_experience"`
	Location             string         `db:"location"`
	TimeZone             string         `db:"time_zone"`
	Languages            pq.StringArray `db:"languages"`
	Skills               pq.StringArray `db:"skills"`
	TechStack            pq.StringArray `db:"tech_stack"`
	RemotePreference     string         `db:"remote_preference"`
	Availability         string         `db:"availability"`
	CollaborationStyle   string         `db:"collaboration_style"`
	CommunicationTools   pq.StringArray `db:"communication_tools"`
	OpenToNewTeams       bool           `db:"open_to_new_teams"`
	OpenToMentor         bool           `db:"open_to_mentor"`
	ContestInterestTags  pq.StringArray `db:"contest_interest_tags"`
	PreferredFormats     pq.StringArray `db:"preferred_formats"`
	PreferredTeamRole    string         `db:"preferred_team_role"`
	PreferredTeamSize    int            `db:"preferred_team_size"`
	Goals                string         `db:"goals"`
	Strengths            string         `db:"strengths"`
	AllowMatching        bool           `db:"allow_matching"`
	AllowRecommendations bool           `db:"allow_recommendations"`
	ShareExtendedProfile bool           `db:"share_extended_profile"`
	UpdatedAt            time.Time      `db:"updated_at"`
}

func (r *profileRow) toDomain() *domain.Profile {
	p := &domain.Profile{
		UserID:      r.UserID,
		DisplayName: r.DisplayName,
		AvatarURL:   r.AvatarURL,
		Matching: domain.MatchingProfile{
			PrimaryRole:        r.PrimaryRole,
			SecondaryRoles:     r.SecondaryRoles,
			ExperienceLevel:    domain.ExperienceLevel(r.ExperienceLevel),
			YearsOfExperience:  r.YearsOfExperience,
			Location:           r.Location,
			TimeZone:           r.TimeZone,
			Languages:          r.Languages,
			Skills:             r.Skills,
			TechStack:          r.TechStack,
			RemotePreference:   r.RemotePreference,
			Availability:       r.Availability,
			CollaborationStyle: r.CollaborationStyle,
			CommunicationTools: r.CommunicationTools,
			OpenToNewTeams:     r.OpenToNewTeams,
			OpenToMentor:       r.OpenToMentor,
		},
		ContestPreferences: domain.ContestPreferences{
			InterestTags:      r.ContestInterestTags,
			PreferredFormats:  r.PreferredFormats,
			PreferredTeamRole: r.PreferredTeamRole,
			PreferredTeamSize: r.PreferredTeamSize,
			Goals:             r.Goals,
			Strengths:         r.Strengths,
		},
		Consents: domain.Consents{
			AllowMatching:        r.AllowMatching,
			AllowRecommendations: r.AllowRecommendations,
			ShareExtendedProfile: r.ShareExtendedProfile,
		},
		UpdatedAt: r.UpdatedAt,
	}
	p.Normalize()
	return p
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindEligibleCandidates(ctx context.Context, q repository.CandidateQuery) ([]*domain.Profile, error) {
	if q.Limit <= 0 {
		return []*domain.Profile{}, nil
	}
	excluded := q.ExcludeIDs
	if excluded == nil {
		excluded = []int{}
	}

	query := `
		SELECT ` + candidateColumns + `
		FROM profiles
		WHERE allow_matching = TRUE
		  AND user_id <> $1
		  AND NOT (user_id = ANY($2))
		  AND ($3 OR open_to_new_teams = TRUE)
		ORDER BY updated_at DESC, user_id
		LIMIT $4
	`
	var rows []profileRow
	if err := r.db.SelectContext(ctx, &rows, query, q.RequesterID, pq.Array(excluded), q.IncludeClosed, q.Limit); err != nil {
		return nil, err
	}

	profiles := make([]*domain.Profile, 0, len(rows))
	for i := range rows {
		profiles = append(profiles, rows[i].toDomain())
	}
	return profiles, nil
}

func (r *profileRepository) FindOne(ctx context.Context, userID int) (*domain.Profile, error) {
	var row profileRow
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	err := r.db.GetContext(ctx, &row, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *profileRepository) FindSummaries(ctx context.Context, userIDs []int) (map[int]*domain.CandidateSummary, error) {
	summaries := make(map[int]*domain.CandidateSummary, len(userIDs))
	if len(userIDs) == 0 {
		return summaries, nil
	}

	var rows []struct {
		UserID               int     `db:"user_id"`
		DisplayName          string  `db:"display_name"`
		AvatarURL            *string `db:"avatar_url"`
		PrimaryRole          string  `db:"primary_role"`
		ExperienceLevel      string  `db:"experience_level"`
		Location             string  `db:"location"`
		ShareExtendedProfile bool    `db:"share_extended_profile"`
	}
	query := `
		SELECT user_id, display_name, avatar_url, primary_role, experience_level,
		       location, share_extended_profile
		FROM profiles
		WHERE user_id = ANY($1)
		  AND allow_matching = TRUE
	`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(userIDs)); err != nil {
		return nil, err
	}

	for _, row := range rows {
		s := &domain.CandidateSummary{
			UserID:      row.UserID,
			DisplayName: row.DisplayName,
			AvatarURL:   row.AvatarURL,
			Headline:    domain.BuildHeadline(row.PrimaryRole, domain.ExperienceLevel(row.ExperienceLevel)),
		}
		if row.ShareExtendedProfile {
			s.Location = row.Location
		}
		summaries[row.UserID] = s
	}
	return summaries, nil
}

func (r *profileRepository) UpdateMatching(ctx context.Context, profile *domain.Profile) error {
	m := profile.Matching
	cp := profile.ContestPreferences
	c := profile.Consents

	query := `
		UPDATE profiles
		SET primary_role = $1, secondary_roles = $2, experience_level = $3,
		    years_of_experience = $4, location = $5, time_zone = $6, languages = $7,
		    skills = $8, tech_stack = $9, remote_preference = $10, availability = $11,
		    collaboration_style = $12, communication_tools = $13,
		    open_to_new_teams = $14, open_to_mentor = $15,
		    contest_interest_tags = $16, preferred_formats = $17,
		    preferred_team_role = $18, preferred_team_size = $19, goals = $20, strengths = $21,
		    allow_matching = $22, allow_recommendations = $23, share_extended_profile = $24,
		    updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $25
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(
		ctx, query,
		m.PrimaryRole, pq.Array(m.SecondaryRoles), string(m.ExperienceLevel),
		m.YearsOfExperience, m.Location, m.TimeZone, pq.Array(m.Languages),
		pq.Array(m.Skills), pq.Array(m.TechStack), m.RemotePreference, m.Availability,
		m.CollaborationStyle, pq.Array(m.CommunicationTools),
		m.OpenToNewTeams, m.OpenToMentor,
		pq.Array(cp.InterestTags), pq.Array(cp.PreferredFormats),
		cp.PreferredTeamRole, cp.PreferredTeamSize, cp.Goals, cp.Strengths,
		c.AllowMatching, c.AllowRecommendations, c.ShareExtendedProfile,
		profile.UserID,
	).Scan(&profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrProfileNotFound
		}
		return err
	}
	return nil
}
