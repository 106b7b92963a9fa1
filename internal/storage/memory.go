package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sync"

	models "github.com/fathima-sithara/video-asset-service/internal/media"
	utils "github.com/fathima-sithara/video-asset-service/internal/utis"
)

type memKey struct {
	class   models.AssetClass
	videoID string
}

// MemoryStore keeps assets in process memory, one per (class, video id).
// Nothing is evicted and everything is lost when the process exits. It is
// created once at startup and shared by reference; concurrent puts for the
// same key are last-write-wins.
type MemoryStore struct {
	mu      sync.RWMutex
	assets  map[memKey]models.Asset
	baseURL string
}

var (
	_ AssetStore = (*MemoryStore)(nil)
	_ Retriever  = (*MemoryStore)(nil)
)

func NewMemoryStore(publicBaseURL string) *MemoryStore {
	return &MemoryStore{assets: make(map[memKey]models.Asset), baseURL: publicBaseURL}
}

func (s *MemoryStore) Variant() Variant { return VariantMemory }

func (s *MemoryStore) Put(_ context.Context, in PutInput) (string, error) {
	a := models.Asset{Data: bytes.Clone(in.Asset.Data), MediaType: in.Asset.MediaType}
	s.mu.Lock()
	s.assets[memKey{in.Class, in.VideoID}] = a
	s.mu.Unlock()
	return s.locator(in.Class, in.VideoID), nil
}

func (s *MemoryStore) Retrieve(_ context.Context, class models.AssetClass, videoID string) (models.Asset, error) {
	s.mu.RLock()
	a, ok := s.assets[memKey{class, videoID}]
	s.mu.RUnlock()
	if !ok {
		return models.Asset{}, fmt.Errorf("%w: no %s stored for video %s", utils.ErrNotFound, class, videoID)
	}
	return a, nil
}

// Len reports how many assets are held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets)
}

func (s *MemoryStore) locator(class models.AssetClass, videoID string) string {
	id := url.PathEscape(videoID)
	if class == models.ClassVideo {
		return joinURL(s.baseURL, "api/videos", id, "asset")
	}
	return joinURL(s.baseURL, "api/thumbnails", id)
}
