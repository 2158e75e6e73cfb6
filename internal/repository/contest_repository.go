package repository

import (
	"context"

	"github.com/gdugdh24/teamup-backend/internal/domain"
)

type ContestRepository interface {
	FindOne(ctx context.Context, contestID int) (*domain.ContestConstraints, error)
}
