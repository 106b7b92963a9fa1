package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	models "github.com/fathima-sithara/video-asset-service/internal/media"
	utils "github.com/fathima-sithara/video-asset-service/internal/utis"
)

// LocalStore writes assets under a root directory that is also served at
// <publicBaseURL>/<root>. Thumbnails are named after their video and are
// replaced in place on re-upload; videos get a random name per upload.
type LocalStore struct {
	root    string
	prefix  string
	baseURL string
}

var (
	_ AssetStore = (*LocalStore)(nil)
	_ Retriever  = (*LocalStore)(nil)
)

func NewLocalStore(root, publicBaseURL string) *LocalStore {
	return &LocalStore{root: root, prefix: urlPath(root), baseURL: publicBaseURL}
}

func (s *LocalStore) Variant() Variant { return VariantLocal }

// Root is the directory assets are written to.
func (s *LocalStore) Root() string { return s.root }

// Prefix is Root as it appears in URLs and object keys.
func (s *LocalStore) Prefix() string { return s.prefix }

func (s *LocalStore) Put(_ context.Context, in PutInput) (string, error) {
	name, _, err := s.stage(in)
	if err != nil {
		return "", err
	}
	return joinURL(s.baseURL, escapePath(s.prefix), url.PathEscape(name)), nil
}

// Retrieve reads back a thumbnail. Videos are stored under random names and
// cannot be found from the video id.
func (s *LocalStore) Retrieve(_ context.Context, class models.AssetClass, videoID string) (models.Asset, error) {
	if class != models.ClassThumbnail || !safeName(videoID) {
		return models.Asset{}, fmt.Errorf("%w: %s for video %s is not addressable", utils.ErrNotFound, class, videoID)
	}
	matches, err := filepath.Glob(filepath.Join(s.root, videoID+".*"))
	if err != nil {
		return models.Asset{}, fmt.Errorf("%w: no thumbnail stored for video %s", utils.ErrNotFound, videoID)
	}
	// "abc.*" also matches the thumbnail of video "abc.def"
	own := matches[:0]
	for _, m := range matches {
		base := filepath.Base(m)
		if strings.TrimSuffix(base, filepath.Ext(base)) == videoID {
			own = append(own, m)
		}
	}
	matches = own
	if len(matches) == 0 {
		return models.Asset{}, fmt.Errorf("%w: no thumbnail stored for video %s", utils.ErrNotFound, videoID)
	}
	// a changed media type leaves the older file behind; serve the newest
	sort.Slice(matches, func(i, j int) bool { return modTime(matches[i]) > modTime(matches[j]) })
	data, err := os.ReadFile(matches[0])
	if err != nil {
		return models.Asset{}, fmt.Errorf("%w: read thumbnail: %v", utils.ErrStorage, err)
	}
	return models.Asset{Data: data, MediaType: mediaTypeFor(filepath.Ext(matches[0]))}, nil
}

// stage writes the asset to disk and returns its file name and full path.
func (s *LocalStore) stage(in PutInput) (name, diskPath string, err error) {
	name, err = s.fileName(in)
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", "", fmt.Errorf("%w: create assets dir: %v", utils.ErrStorage, err)
	}
	diskPath = filepath.Join(s.root, name)
	if err := writeFileAtomic(diskPath, in.Asset.Data); err != nil {
		return "", "", fmt.Errorf("%w: write %s: %v", utils.ErrStorage, name, err)
	}
	return name, diskPath, nil
}

func (s *LocalStore) fileName(in PutInput) (string, error) {
	ext := extensionFor(in.Asset.MediaType)
	if in.Class == models.ClassThumbnail {
		if !safeName(in.VideoID) {
			return "", fmt.Errorf("%w: video id %q cannot be used as a file name", utils.ErrBadRequest, in.VideoID)
		}
		return in.VideoID + "." + ext, nil
	}
	base, err := utils.RandomName()
	if err != nil {
		return "", fmt.Errorf("%w: generate file name: %v", utils.ErrStorage, err)
	}
	return base + "." + ext, nil
}

// writeFileAtomic replaces path via a temp file and rename so readers see
// either the old or the new content.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func safeName(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\*?[`)
}

func modTime(p string) int64 {
	fi, err := os.Stat(p)
	if err != nil {
		return 0
	}
	return fi.ModTime().UnixNano()
}
