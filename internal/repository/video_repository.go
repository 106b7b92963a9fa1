package repository

import (
	"context"
	"errors"

	models "github.com/fathima-sithara/video-asset-service/internal/media"
)

var ErrVideoNotFound = errors.New("video not found")

// VideoStore is the slice of record persistence the upload pipeline needs.
type VideoStore interface {
	GetByID(ctx context.Context, id string) (*models.Video, error)
	Update(ctx context.Context, v *models.Video) error
}

// VideoRepo adds creation for seeding and tests.
type VideoRepo interface {
	VideoStore
	Insert(ctx context.Context, v *models.Video) error
}
