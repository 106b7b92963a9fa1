package storage

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	models "github.com/fathima-sithara/video-asset-service/internal/media"
	"go.uber.org/zap"
)

type Variant string

const (
	VariantEmbedded Variant = "embedded"
	VariantMemory   Variant = "memory"
	VariantLocal    Variant = "local"
	VariantS3       Variant = "s3"
)

// PutInput identifies the asset being stored and the record it belongs to.
type PutInput struct {
	OwnerID string
	VideoID string
	Class   models.AssetClass
	Asset   models.Asset
}

// AssetStore persists an asset and returns the locator clients use to fetch it.
type AssetStore interface {
	Put(ctx context.Context, in PutInput) (string, error)
	Variant() Variant
}

// Retriever is implemented by stores that can serve assets back by record id.
type Retriever interface {
	Retrieve(ctx context.Context, class models.AssetClass, videoID string) (models.Asset, error)
}

// Presigner is implemented by stores that hand out time-limited URLs.
type Presigner interface {
	PresignURL(ctx context.Context, locator string, ttl time.Duration) (string, error)
}

type Options struct {
	Variant       Variant
	AssetsRoot    string
	PublicBaseURL string

	Bucket        string
	Region        string
	Endpoint      string
	CleanupStaged bool
}

// New builds the store selected by opts.Variant.
func New(ctx context.Context, opts Options, log *zap.SugaredLogger) (AssetStore, error) {
	switch opts.Variant {
	case VariantEmbedded:
		return NewEmbeddedStore(), nil
	case VariantMemory:
		return NewMemoryStore(opts.PublicBaseURL), nil
	case VariantLocal:
		return NewLocalStore(opts.AssetsRoot, opts.PublicBaseURL), nil
	case VariantS3:
		staging := NewLocalStore(opts.AssetsRoot, opts.PublicBaseURL)
		return NewS3Store(ctx, S3Options{
			Bucket:        opts.Bucket,
			Region:        opts.Region,
			Endpoint:      opts.Endpoint,
			CleanupStaged: opts.CleanupStaged,
		}, staging, log)
	default:
		return nil, fmt.Errorf("unknown storage variant %q", opts.Variant)
	}
}

// extensionFor derives a file extension from the media subtype,
// e.g. video/mp4 -> mp4, image/svg+xml -> svg.
func extensionFor(mediaType string) string {
	_, sub, ok := strings.Cut(mediaType, "/")
	if !ok || sub == "" {
		return "bin"
	}
	if i := strings.IndexAny(sub, "+;"); i >= 0 {
		sub = sub[:i]
	}
	sub = strings.ToLower(strings.TrimSpace(sub))
	if sub == "" {
		return "bin"
	}
	return sub
}

func mediaTypeFor(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "mp4":
		return "video/mp4"
	case "webm":
		return "video/webm"
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

// urlPath turns a filesystem root into the slash-separated prefix used in
// URLs and object keys ("./assets/" -> "assets").
func urlPath(root string) string {
	p := path.Clean(filepath.ToSlash(root))
	p = strings.TrimLeft(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// escapePath escapes each segment of a slash-separated path for use in a URL.
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}

func joinURL(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		out += "/" + p
	}
	return out
}
