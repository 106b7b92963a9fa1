package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fathima-sithara/video-asset-service/internal/auth"
	"github.com/fathima-sithara/video-asset-service/internal/cache"
	"github.com/fathima-sithara/video-asset-service/internal/config"
	"github.com/fathima-sithara/video-asset-service/internal/handlers"
	models "github.com/fathima-sithara/video-asset-service/internal/media"
	"github.com/fathima-sithara/video-asset-service/internal/metrics"
	"github.com/fathima-sithara/video-asset-service/internal/middleware"
	"github.com/fathima-sithara/video-asset-service/internal/repository"
	service "github.com/fathima-sithara/video-asset-service/internal/services"
	"github.com/fathima-sithara/video-asset-service/internal/storage"
	utils "github.com/fathima-sithara/video-asset-service/internal/utis"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		panic(err)
	}

	// logger
	logger, err := utils.NewLogger(cfg.Dev(), cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// record store
	repo, closeRepo, err := openRecords(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("record store init: %v", err)
	}

	// asset store
	store, err := storage.New(ctx, storage.Options{
		Variant:       storage.Variant(cfg.Storage.Variant),
		AssetsRoot:    cfg.Storage.AssetsRoot,
		PublicBaseURL: cfg.App.PublicBaseURL,
		Bucket:        cfg.AWS.Bucket,
		Region:        cfg.AWS.Region,
		Endpoint:      cfg.AWS.Endpoint,
		CleanupStaged: cfg.S3.CleanupStaged,
	}, logger)
	if err != nil {
		logger.Fatalf("storage init: %v", err)
	}

	// signed URL cache is optional
	var urlCache service.Cache
	var rc *cache.Client
	if cfg.Redis.Addr != "" {
		rc, err = cache.NewRedis(ctx, cache.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, 10*time.Second)
		if err != nil {
			logger.Warnf("redis unavailable, signed URLs will not be cached: %v", err)
		} else {
			urlCache = rc
		}
	}

	// metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// JWT Verifier
	verifier, err := auth.NewJWTVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		logger.Fatalf("jwt init: %v", err)
	}

	// service
	svc := service.NewUploadService(verifier, repo, store, service.Config{
		Policies: map[models.AssetClass]utils.UploadPolicy{
			models.ClassVideo: {
				MaxBytes:     cfg.Limits.VideoMaxBytes,
				AllowedTypes: cfg.Limits.VideoTypes,
			},
			models.ClassThumbnail: {
				MaxBytes:     cfg.Limits.ThumbnailMaxBytes,
				AllowedTypes: cfg.Limits.ThumbnailTypes,
				VerifyImage:  cfg.Limits.VerifyImages,
			},
		},
		PresignTTL: cfg.PresignTTL,
		CacheTTL:   cfg.SignedURLTTL,
	}, urlCache, m, logger)

	// fiber app & routes
	bodyLimit := cfg.Limits.VideoMaxBytes
	if cfg.Limits.ThumbnailMaxBytes > bodyLimit {
		bodyLimit = cfg.Limits.ThumbnailMaxBytes
	}
	app := fiber.New(fiber.Config{
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		// room for the multipart envelope around the largest allowed file
		BodyLimit: int(bodyLimit) + 1<<20,
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middleware.RequestLogger(logger))

	limiter := middleware.NewUploadLimiter(cfg.RateLimit.UploadsPerMinute, cfg.RateLimit.Burst, logger)
	sweepDone := make(chan struct{})
	go limiter.Run(sweepDone, time.Minute)

	h := handlers.NewHandler(svc, logger)
	h.Register(app, limiter.Handler())
	if local, ok := store.(*storage.LocalStore); ok && local.Prefix() != "" {
		app.Static("/"+local.Prefix(), local.Root())
	}
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(reg)))
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })

	// start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.App.Port)
		logger.Infow("starting video asset service", "addr", addr, "storage", store.Variant(), "records", cfg.Records.Driver)
		if err := app.Listen(addr); err != nil {
			logger.Fatalf("listen failed: %v", err)
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown requested")
	close(sweepDone)

	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		logger.Errorf("http shutdown: %v", err)
	}
	timeoutCtx, cancel2 := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel2()
	if err := closeRepo(timeoutCtx); err != nil {
		logger.Errorf("close record store: %v", err)
	}
	if rc != nil {
		_ = rc.Close()
	}
	logger.Info("shutdown completed")
}

func openRecords(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (repository.VideoStore, func(context.Context) error, error) {
	switch cfg.Records.Driver {
	case "mongo":
		mc, err := repository.ConnectMongo(ctx, cfg.Records.Mongo.URI, 20*time.Second)
		if err != nil {
			return nil, nil, fmt.Errorf("mongo connect: %w", err)
		}
		col := mc.Database(cfg.Records.Mongo.Database).Collection(cfg.Records.Mongo.Collection)
		log.Infow("using mongo record store", "database", cfg.Records.Mongo.Database, "collection", cfg.Records.Mongo.Collection)
		return repository.NewMongoVideoRepo(col), mc.Disconnect, nil
	case "sqlite":
		r, err := repository.NewSQLiteVideoRepo(ctx, cfg.Records.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite open: %w", err)
		}
		log.Infow("using sqlite record store", "path", cfg.Records.SQLite.Path)
		return r, func(context.Context) error { return r.Close() }, nil
	default:
		log.Warn("using in-memory record store, records are lost on restart")
		return repository.NewMemoryVideoRepo(), func(context.Context) error { return nil }, nil
	}
}
