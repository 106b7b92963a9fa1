package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	models "github.com/fathima-sithara/video-asset-service/internal/media"
	utils "github.com/fathima-sithara/video-asset-service/internal/utis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutRetrieve(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("http://localhost:8091")
	data := []byte("png bytes")

	loc, err := s.Put(ctx, PutInput{VideoID: "v1", Class: models.ClassThumbnail, Asset: models.Asset{Data: data, MediaType: "image/png"}})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8091/api/thumbnails/v1", loc)

	// the store keeps its own copy
	data[0] = 'X'

	got, err := s.Retrieve(ctx, models.ClassThumbnail, "v1")
	require.NoError(t, err)
	assert.Equal(t, []byte("png bytes"), got.Data)
	assert.Equal(t, "image/png", got.MediaType)

	_, err = s.Retrieve(ctx, models.ClassVideo, "v1")
	assert.True(t, errors.Is(err, utils.ErrNotFound))
}

func TestMemoryStoreVideoLocator(t *testing.T) {
	s := NewMemoryStore("https://tube.example/")
	loc, err := s.Put(context.Background(), PutInput{VideoID: "a b", Class: models.ClassVideo, Asset: models.Asset{MediaType: "video/mp4"}})
	require.NoError(t, err)
	assert.Equal(t, "https://tube.example/api/videos/a%20b/asset", loc)
}

func TestMemoryStoreLastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("http://h")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Put(ctx, PutInput{VideoID: "v1", Class: models.ClassThumbnail, Asset: models.Asset{Data: []byte{byte(i)}, MediaType: "image/png"}})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, s.Len())
	got, err := s.Retrieve(ctx, models.ClassThumbnail, "v1")
	require.NoError(t, err)
	assert.Len(t, got.Data, 1)
}
