package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	models "github.com/fathima-sithara/video-asset-service/internal/media"
	"github.com/fathima-sithara/video-asset-service/internal/metrics"
	"github.com/fathima-sithara/video-asset-service/internal/repository"
	"github.com/fathima-sithara/video-asset-service/internal/storage"
	utils "github.com/fathima-sithara/video-asset-service/internal/utis"
	"go.uber.org/zap"
)

type IdentityVerifier interface {
	Verify(authorizationHeader string) (userID string, err error)
}

// Cache holds presigned URLs between requests.
type Cache interface {
	Set(ctx context.Context, key string, val string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

type Config struct {
	Policies   map[models.AssetClass]utils.UploadPolicy
	PresignTTL time.Duration
	CacheTTL   time.Duration
}

// UploadService runs the upload pipeline against a record store and an
// asset store. Each call is sequential and fail-fast; concurrent uploads to
// the same video race and the last write wins.
type UploadService struct {
	verifier IdentityVerifier
	repo     repository.VideoStore
	store    storage.AssetStore
	cfg      Config
	cache    Cache
	metrics  *metrics.Metrics
	log      *zap.SugaredLogger
	now      func() time.Time
}

type UploadRequest struct {
	VideoID       string
	Authorization string
	Form          *multipart.Form
	Class         models.AssetClass
}

func NewUploadService(v IdentityVerifier, repo repository.VideoStore, store storage.AssetStore, cfg Config, cache Cache, m *metrics.Metrics, log *zap.SugaredLogger) *UploadService {
	if cfg.Policies == nil {
		cfg.Policies = map[models.AssetClass]utils.UploadPolicy{
			models.ClassVideo:     utils.VideoPolicy(),
			models.ClassThumbnail: utils.ThumbnailPolicy(),
		}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &UploadService{
		verifier: v,
		repo:     repo,
		store:    store,
		cfg:      cfg,
		cache:    cache,
		metrics:  m,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Upload validates, stores and links one asset to its video. Nothing is
// written unless every check before the store call passes.
func (s *UploadService) Upload(ctx context.Context, req UploadRequest) (video *models.Video, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveUpload(string(req.Class), outcome(err), time.Since(start))
	}()

	policy, ok := s.cfg.Policies[req.Class]
	if !ok {
		return nil, fmt.Errorf("%w: unknown asset class %q", utils.ErrBadRequest, req.Class)
	}
	videoID, userID, err := s.identify(req.VideoID, req.Authorization)
	if err != nil {
		return nil, err
	}
	s.log.Infow("uploading asset", "class", req.Class, "video_id", videoID, "user_id", userID)

	fh, err := formFile(req.Form, req.Class.FormField())
	if err != nil {
		return nil, fmt.Errorf("%w: %s file missing", utils.ErrBadRequest, req.Class)
	}
	mediaType, err := utils.DetectMediaType(fh)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateUpload(policy, fh.Size, mediaType); err != nil {
		return nil, err
	}
	data, err := readFile(fh, policy.MaxBytes)
	if err != nil {
		return nil, err
	}
	if policy.VerifyImage {
		if err := utils.VerifyImage(data, mediaType); err != nil {
			return nil, err
		}
	}

	video, err = s.repo.GetByID(ctx, videoID)
	if errors.Is(err, repository.ErrVideoNotFound) {
		return nil, fmt.Errorf("%w: video with id %s not found", utils.ErrNotFound, videoID)
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	if err := Authorize(video, userID); err != nil {
		return nil, err
	}

	loc, err := s.store.Put(ctx, storage.PutInput{
		OwnerID: userID,
		VideoID: videoID,
		Class:   req.Class,
		Asset:   models.Asset{Data: data, MediaType: mediaType},
	})
	if err != nil {
		if !errors.Is(err, utils.ErrStorage) && !errors.Is(err, utils.ErrBadRequest) {
			err = fmt.Errorf("%w: %v", utils.ErrStorage, err)
		}
		s.log.Errorw("store asset failed", "class", req.Class, "video_id", videoID, "variant", s.store.Variant(), "error", err)
		return nil, err
	}
	s.metrics.AddStoredBytes(string(req.Class), string(s.store.Variant()), int64(len(data)))

	video.SetLocator(req.Class, loc)
	video.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, video); err != nil {
		return nil, fmt.Errorf("update video: %w", err)
	}
	s.log.Infow("asset stored", "class", req.Class, "video_id", videoID, "variant", s.store.Variant(), "bytes", len(data))
	return video, nil
}

// Asset serves a stored asset back from stores that keep it addressable.
func (s *UploadService) Asset(ctx context.Context, class models.AssetClass, videoID string) (models.Asset, error) {
	r, ok := s.store.(storage.Retriever)
	if !ok {
		return models.Asset{}, fmt.Errorf("%w: %s storage does not serve assets", utils.ErrNotFound, s.store.Variant())
	}
	return r.Retrieve(ctx, class, videoID)
}

// SignedVideoURL returns a time-limited URL for the caller's own video. Stores
// without presigning return the stored locator unchanged.
func (s *UploadService) SignedVideoURL(ctx context.Context, authorization, videoID string) (string, error) {
	videoID, userID, err := s.identify(videoID, authorization)
	if err != nil {
		return "", err
	}
	video, err := s.repo.GetByID(ctx, videoID)
	if errors.Is(err, repository.ErrVideoNotFound) {
		return "", fmt.Errorf("%w: video with id %s not found", utils.ErrNotFound, videoID)
	}
	if err != nil {
		return "", fmt.Errorf("get video: %w", err)
	}
	if err := Authorize(video, userID); err != nil {
		return "", err
	}
	if video.VideoURL == nil {
		return "", fmt.Errorf("%w: video %s has no uploaded file", utils.ErrNotFound, videoID)
	}
	p, ok := s.store.(storage.Presigner)
	if !ok {
		return *video.VideoURL, nil
	}

	key := "signed_url:" + *video.VideoURL
	if s.cache != nil {
		if url, err := s.cache.Get(ctx, key); err == nil && url != "" {
			return url, nil
		}
	}
	url, err := p.PresignURL(ctx, *video.VideoURL, s.cfg.PresignTTL)
	if err != nil {
		return "", err
	}
	if s.cache != nil && s.cfg.CacheTTL > 0 {
		if err := s.cache.Set(ctx, key, url, s.cfg.CacheTTL); err != nil {
			s.log.Warnw("cache signed url", "video_id", videoID, "error", err)
		}
	}
	return url, nil
}

// identify checks the video id and the caller's credential, in that order.
func (s *UploadService) identify(videoID, authorization string) (string, string, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return "", "", fmt.Errorf("%w: invalid video ID", utils.ErrBadRequest)
	}
	userID, err := s.verifier.Verify(authorization)
	if err != nil {
		if !errors.Is(err, utils.ErrUnauthorized) {
			err = fmt.Errorf("%w: %v", utils.ErrUnauthorized, err)
		}
		return "", "", err
	}
	return videoID, userID, nil
}

func formFile(form *multipart.Form, field string) (*multipart.FileHeader, error) {
	if form == nil {
		return nil, errors.New("no multipart form")
	}
	files := form.File[field]
	if len(files) == 0 || files[0] == nil {
		return nil, fmt.Errorf("no file in field %q", field)
	}
	return files[0], nil
}

func readFile(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open file", utils.ErrBadRequest)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read file", utils.ErrBadRequest)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: payload exceeds the %d byte limit", utils.ErrPayloadTooLarge, limit)
	}
	return data, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, utils.ErrBadRequest):
		return "bad_request"
	case errors.Is(err, utils.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, utils.ErrForbidden):
		return "forbidden"
	case errors.Is(err, utils.ErrNotFound):
		return "not_found"
	case errors.Is(err, utils.ErrUnsupportedMediaType):
		return "unsupported_media_type"
	case errors.Is(err, utils.ErrPayloadTooLarge):
		return "payload_too_large"
	case errors.Is(err, utils.ErrStorage):
		return "storage_error"
	default:
		return "internal_error"
	}
}
