package profile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/gdugdh24/teamup-backend/internal/domain"
	"github.com/gdugdh24/teamup-backend/internal/infrastructure/logging"
	"github.com/gdugdh24/teamup-backend/internal/repository"
	"github.com/go-playground/validator/v10"
)

// RecommendationInvalidator drops cached recommendation lists of a requester.
type RecommendationInvalidator interface {
	InvalidateRequester(ctx context.Context, requesterID int) error
}

type ProfileUseCase struct {
	profileRepo repository.ProfileRepository
	invalidator RecommendationInvalidator
	validate    *validator.Validate
}

func NewProfileUseCase(
	profileRepo repository.ProfileRepository,
	invalidator RecommendationInvalidator,
) *ProfileUseCase {
	return &ProfileUseCase{
		profileRepo: profileRepo,
		invalidator: invalidator,
		validate:    newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("utc_offset", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, ok := domain.ParseUTCOffset(s)
		return ok
	})
	return v
}

// UpdateMatchingRequest is a partial update. Nil pointers and nil slices leave
// the stored value untouched; an empty slice clears it.
type UpdateMatchingRequest struct {
	PrimaryRole        *string  `json:"primary_role" validate:"omitempty,max=64"`
	SecondaryRoles     []string `json:"secondary_roles" validate:"omitempty,max=10,unique,dive,max=64"`
	ExperienceLevel    *string  `json:"experience_level" validate:"omitempty,oneof=beginner intermediate advanced"`
	YearsOfExperience  *int     `json:"years_of_experience" validate:"omitempty,min=0,max=60"`
	Location           *string  `json:"location" validate:"omitempty,max=100"`
	TimeZone           *string  `json:"time_zone" validate:"omitempty,utc_offset"`
	Languages          []string `json:"languages" validate:"omitempty,max=20,unique,dive,max=32"`
	Skills             []string `json:"skills" validate:"omitempty,max=30,unique,dive,max=64"`
	TechStack          []string `json:"tech_stack" validate:"omitempty,max=30,unique,dive,max=64"`
	RemotePreference   *string  `json:"remote_preference" validate:"omitempty,oneof=remote hybrid onsite"`
	Availability       *string  `json:"availability" validate:"omitempty,max=200"`
	CollaborationStyle *string  `json:"collaboration_style" validate:"omitempty,oneof=structured flexible async spontaneous"`
	CommunicationTools []string `json:"communication_tools" validate:"omitempty,max=10,unique,dive,max=32"`
	OpenToNewTeams     *bool    `json:"open_to_new_teams"`
	OpenToMentor       *bool    `json:"open_to_mentor"`

	InterestTags      []string `json:"interest_tags" validate:"omitempty,max=20,unique,dive,max=32"`
	PreferredFormats  []string `json:"preferred_formats" validate:"omitempty,max=5,unique,dive,max=32"`
	PreferredTeamRole *string  `json:"preferred_team_role" validate:"omitempty,max=64"`
	PreferredTeamSize *int     `json:"preferred_team_size" validate:"omitempty,min=1,max=10"`
	Goals             *string  `json:"goals" validate:"omitempty,max=1000"`
	Strengths         *string  `json:"strengths" validate:"omitempty,max=1000"`

	AllowMatching        *bool `json:"allow_matching"`
	AllowRecommendations *bool `json:"allow_recommendations"`
	ShareExtendedProfile *bool `json:"share_extended_profile"`
}

// CompletionResponse reports how much of the matching profile is filled in.
type CompletionResponse struct {
	CompletionPercentage int      `json:"completion_percentage"`
	MissingFields        []string `json:"missing_fields"`
}

// GetMyProfile returns current user's profile
func (uc *ProfileUseCase) GetMyProfile(ctx context.Context, userID int) (*domain.Profile, error) {
	return uc.profileRepo.FindOne(ctx, userID)
}

// UpdateMatchingProfile applies req and invalidates the user's cached
// recommendation lists. Lists of other users that include this user are left
// to expire.
func (uc *ProfileUseCase) UpdateMatchingProfile(ctx context.Context, userID int, req *UpdateMatchingRequest) (*domain.Profile, error) {
	if err := uc.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("%w: %s failed %s validation", domain.ErrInvalidInput, verrs[0].Field(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	profile, err := uc.profileRepo.FindOne(ctx, userID)
	if err != nil {
		return nil, err
	}

	req.apply(profile)
	profile.Normalize()

	if err := uc.profileRepo.UpdateMatching(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update matching profile: %w", err)
	}

	if err := uc.invalidator.InvalidateRequester(ctx, userID); err != nil {
		logging.Ctx(ctx).Error().Err(err).Int("user_id", userID).Msg("failed to invalidate recommendations after profile update")
	}

	return profile, nil
}

func (req *UpdateMatchingRequest) apply(p *domain.Profile) {
	m := &p.Matching
	setString(&m.PrimaryRole, req.PrimaryRole)
	setSlice(&m.SecondaryRoles, req.SecondaryRoles)
	if req.ExperienceLevel != nil {
		m.ExperienceLevel = domain.ExperienceLevel(*req.ExperienceLevel)
	}
	if req.YearsOfExperience != nil {
		m.YearsOfExperience = *req.YearsOfExperience
	}
	setString(&m.Location, req.Location)
	setString(&m.TimeZone, req.TimeZone)
	setSlice(&m.Languages, req.Languages)
	setSlice(&m.Skills, req.Skills)
	setSlice(&m.TechStack, req.TechStack)
	setString(&m.RemotePreference, req.RemotePreference)
	setString(&m.Availability, req.Availability)
	setString(&m.CollaborationStyle, req.CollaborationStyle)
	setSlice(&m.CommunicationTools, req.CommunicationTools)
	setBool(&m.OpenToNewTeams, req.OpenToNewTeams)
	setBool(&m.OpenToMentor, req.OpenToMentor)

	cp := &p.ContestPreferences
	setSlice(&cp.InterestTags, req.InterestTags)
	setSlice(&cp.PreferredFormats, req.PreferredFormats)
	setString(&cp.PreferredTeamRole, req.PreferredTeamRole)
	if req.PreferredTeamSize != nil {
		cp.PreferredTeamSize = *req.PreferredTeamSize
	}
	setString(&cp.Goals, req.Goals)
	setString(&cp.Strengths, req.Strengths)

	setBool(&p.Consents.AllowMatching, req.AllowMatching)
	setBool(&p.Consents.AllowRecommendations, req.AllowRecommendations)
	setBool(&p.Consents.ShareExtendedProfile, req.ShareExtendedProfile)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setSlice(dst *[]string, v []string) {
	if v != nil {
		*dst = v
	}
}

// completionField is a profile field that feeds at least one scoring category.
type completionField struct {
	name   string
	filled func(p *domain.Profile) bool
}

var completionFields = []completionField{
	{"primary_role", func(p *domain.Profile) bool { return p.Matching.PrimaryRole != "" }},
	{"skills", func(p *domain.Profile) bool { return len(p.Matching.Skills) > 0 }},
	{"tech_stack", func(p *domain.Profile) bool { return len(p.Matching.TechStack) > 0 }},
	{"availability", func(p *domain.Profile) bool { return len(p.Matching.AvailabilityWindows()) > 0 }},
	{"experience_level", func(p *domain.Profile) bool { return p.Matching.ExperienceLevel.Rank() > 0 }},
	{"location", func(p *domain.Profile) bool { return p.Matching.Location != "" }},
	{"time_zone", func(p *domain.Profile) bool {
		_, ok := domain.ParseUTCOffset(p.Matching.TimeZone)
		return ok
	}},
	{"communication_tools", func(p *domain.Profile) bool { return len(p.Matching.CommunicationTools) > 0 }},
	{"collaboration_style", func(p *domain.Profile) bool { return p.Matching.CollaborationStyle != "" }},
	{"interest_tags", func(p *domain.Profile) bool { return len(p.ContestPreferences.InterestTags) > 0 }},
	{"preferred_formats", func(p *domain.Profile) bool { return len(p.ContestPreferences.PreferredFormats) > 0 }},
}

// ProfileCompletion lists the empty fields that would improve match quality.
func (uc *ProfileUseCase) ProfileCompletion(ctx context.Context, userID int) (*CompletionResponse, error) {
	profile, err := uc.profileRepo.FindOne(ctx, userID)
	if err != nil {
		return nil, err
	}

	missing := []string{}
	for _, f := range completionFields {
		if !f.filled(profile) {
			missing = append(missing, f.name)
		}
	}

	filled := len(completionFields) - len(missing)
	return &CompletionResponse{
		CompletionPercentage: int(math.Round(float64(filled) * 100 / float64(len(completionFields)))),
		MissingFields:        missing,
	}, nil
}
