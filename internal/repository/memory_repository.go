package repository

import (
	"context"
	"sync"
	"time"

	models "github.com/fathima-sithara/video-asset-service/internal/media"
	utils "github.com/fathima-sithara/video-asset-service/internal/utis"
)

// MemoryVideoRepo keeps records in process memory. Returned records are
// copies, so callers never mutate stored state without Update.
type MemoryVideoRepo struct {
	mu     sync.RWMutex
	videos map[string]models.Video
}

var _ VideoRepo = (*MemoryVideoRepo)(nil)

func NewMemoryVideoRepo() *MemoryVideoRepo {
	return &MemoryVideoRepo{videos: make(map[string]models.Video)}
}

func (r *MemoryVideoRepo) Insert(_ context.Context, v *models.Video) error {
	if v.ID == "" {
		v.ID = utils.NewID()
	}
	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = v.CreatedAt
	}
	r.mu.Lock()
	r.videos[v.ID] = cloneVideo(*v)
	r.mu.Unlock()
	return nil
}

func (r *MemoryVideoRepo) GetByID(_ context.Context, id string) (*models.Video, error) {
	r.mu.RLock()
	v, ok := r.videos[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrVideoNotFound
	}
	out := cloneVideo(v)
	return &out, nil
}

func (r *MemoryVideoRepo) Update(_ context.Context, v *models.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.videos[v.ID]; !ok {
		return ErrVideoNotFound
	}
	r.videos[v.ID] = cloneVideo(*v)
	return nil
}

func cloneVideo(v models.Video) models.Video {
	if v.ThumbnailURL != nil {
		s := *v.ThumbnailURL
		v.ThumbnailURL = &s
	}
	if v.VideoURL != nil {
		s := *v.VideoURL
		v.VideoURL = &s
	}
	return v
}
