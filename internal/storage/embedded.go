package storage

import (
	"context"
	"encoding/base64"

	models "github.com/fathima-sithara/video-asset-service/internal/media"
)

// EmbeddedStore inlines the asset into its locator as a data: URI. The
// locator grows with the payload, so it only suits development use.
type EmbeddedStore struct{}

var _ AssetStore = (*EmbeddedStore)(nil)

func NewEmbeddedStore() *EmbeddedStore { return &EmbeddedStore{} }

func (s *EmbeddedStore) Variant() Variant { return VariantEmbedded }

func (s *EmbeddedStore) Put(_ context.Context, in PutInput) (string, error) {
	return dataURI(in.Asset), nil
}

func dataURI(a models.Asset) string {
	return "data:" + a.MediaType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}
