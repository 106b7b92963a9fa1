package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	utils "github.com/fathima-sithara/video-asset-service/internal/utis"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type objectPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type S3Options struct {
	Bucket   string
	Region   string
	Endpoint string // S3-compatible endpoint such as MinIO; empty for AWS
	// CleanupStaged removes the local staging copy once the upload succeeded.
	CleanupStaged bool
}

// S3Store stages every asset on local disk, then uploads the staged file to
// the bucket under the same relative key.
type S3Store struct {
	staging   *LocalStore
	uploader  objectUploader
	presigner objectPresigner
	breaker   *gobreaker.CircuitBreaker
	opts      S3Options
	log       *zap.SugaredLogger
}

var (
	_ AssetStore = (*S3Store)(nil)
	_ Presigner  = (*S3Store)(nil)
)

func NewS3Store(ctx context.Context, opts S3Options, staging *LocalStore, log *zap.SugaredLogger) (*S3Store, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(opts.Region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Store(opts, staging, manager.NewUploader(client), s3.NewPresignClient(client), log), nil
}

func newS3Store(opts S3Options, staging *LocalStore, up objectUploader, pre objectPresigner, log *zap.SugaredLogger) *S3Store {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "s3-upload",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnw("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return &S3Store{staging: staging, uploader: up, presigner: pre, breaker: cb, opts: opts, log: log}
}

func (s *S3Store) Variant() Variant { return VariantS3 }

func (s *S3Store) Put(ctx context.Context, in PutInput) (string, error) {
	if s.breaker.State() == gobreaker.StateOpen {
		return "", fmt.Errorf("%w: object storage unavailable", utils.ErrStorage)
	}
	name, diskPath, err := s.staging.stage(in)
	if err != nil {
		return "", err
	}
	key := joinURL(s.staging.Prefix(), name)

	f, err := os.Open(diskPath)
	if err != nil {
		return "", fmt.Errorf("%w: open staged file: %v", utils.ErrStorage, err)
	}
	_, err = s.breaker.Execute(func() (interface{}, error) {
		return s.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.opts.Bucket),
			Key:         aws.String(key),
			Body:        f,
			ContentType: aws.String(in.Asset.MediaType),
		})
	})
	f.Close()
	if err != nil {
		return "", fmt.Errorf("%w: upload %s: %v", utils.ErrStorage, key, err)
	}

	if s.opts.CleanupStaged {
		if err := os.Remove(diskPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warnw("remove staged file", "path", diskPath, "error", err)
		}
	}
	return s.objectURL(key), nil
}

// PresignURL returns a time-limited GET URL for an asset this store produced.
func (s *S3Store) PresignURL(ctx context.Context, locator string, ttl time.Duration) (string, error) {
	key, ok := s.keyFromLocator(locator)
	if !ok {
		return "", fmt.Errorf("%w: locator is not an object in bucket %s", utils.ErrNotFound, s.opts.Bucket)
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("%w: presign %s: %v", utils.ErrStorage, key, err)
	}
	return req.URL, nil
}

func (s *S3Store) objectURL(key string) string {
	return s.bucketURL() + escapePath(key)
}

func (s *S3Store) bucketURL() string {
	if s.opts.Endpoint != "" {
		return joinURL(s.opts.Endpoint, s.opts.Bucket) + "/"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.opts.Bucket, s.opts.Region)
}

func (s *S3Store) keyFromLocator(locator string) (string, bool) {
	escaped, ok := strings.CutPrefix(locator, s.bucketURL())
	if !ok || escaped == "" {
		return "", false
	}
	key, err := url.PathUnescape(escaped)
	if err != nil {
		return "", false
	}
	return key, true
}
