package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gdugdh24/teamup-backend/internal/domain"
	"github.com/gdugdh24/teamup-backend/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type contestRepository struct {
	db *sqlx.DB
}

func NewContestRepository(db *sqlx.DB) repository.ContestRepository {
	return &contestRepository{db: db}
}

func (r *contestRepository) FindOne(ctx context.Context, contestID int) (*domain.ContestConstraints, error) {
	var row struct {
		ID                  int            `db:"id"`
		Title               string         `db:"title"`
		Tags                pq.StringArray `db:"tags"`
		Format              string         `db:"format"`
		MinTeamSize         int            `db:"min_team_size"`
		MaxTeamSize         int            `db:"max_team_size"`
		AllowClosedProfiles bool           `db:"allow_closed_profiles"`
	}
	query := `
		SELECT id, title, tags, format, min_team_size, max_team_size, allow_closed_profiles
		FROM contests WHERE id = $1
	`
	err := r.db.GetContext(ctx, &row, query, contestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrContestNotFound
		}
		return nil, err
	}

	return &domain.ContestConstraints{
		ID:                  row.ID,
		Title:               row.Title,
		Tags:                domain.NormalizeSet(row.Tags),
		Format:              row.Format,
		MinTeamSize:         row.MinTeamSize,
		MaxTeamSize:         row.MaxTeamSize,
		AllowClosedProfiles: row.AllowClosedProfiles,
	}, nil
}
