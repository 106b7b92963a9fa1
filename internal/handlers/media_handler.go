package handlers

import (
	"errors"

	models "github.com/fathima-sithara/video-asset-service/internal/media"
	service "github.com/fathima-sithara/video-asset-service/internal/services"
	utils "github.com/fathima-sithara/video-asset-service/internal/utis"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Handler struct {
	svc *service.UploadService
	log *zap.SugaredLogger
}

func NewHandler(svc *service.UploadService, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, log: log}
}

// Register mounts the asset routes. uploadMW runs in front of the two upload
// routes only.
func (h *Handler) Register(r fiber.Router, uploadMW ...fiber.Handler) {
	with := func(final fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, uploadMW...), final)
	}
	api := r.Group("/api")
	api.Post("/thumbnail_upload/:videoID", with(h.UploadThumbnail)...)
	api.Post("/video_upload/:videoID", with(h.UploadVideo)...)
	api.Get("/thumbnails/:videoID", h.GetThumbnail)
	api.Get("/videos/:videoID/asset", h.GetVideoAsset)
	api.Get("/videos/:videoID/url", h.GetSignedURL)
}

// POST /api/thumbnail_upload/:videoID (multipart/form-data 'thumbnail')
func (h *Handler) UploadThumbnail(c *fiber.Ctx) error {
	return h.upload(c, models.ClassThumbnail)
}

// POST /api/video_upload/:videoID (multipart/form-data 'video')
func (h *Handler) UploadVideo(c *fiber.Ctx) error {
	return h.upload(c, models.ClassVideo)
}

func (h *Handler) upload(c *fiber.Ctx, class models.AssetClass) error {
	// a body that is not multipart leaves form nil and fails as a missing file
	form, _ := c.MultipartForm()
	video, err := h.svc.Upload(c.UserContext(), service.UploadRequest{
		VideoID:       c.Params("videoID"),
		Authorization: c.Get(fiber.HeaderAuthorization),
		Form:          form,
		Class:         class,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, video)
}

// GET /api/thumbnails/:videoID
func (h *Handler) GetThumbnail(c *fiber.Ctx) error {
	return h.asset(c, models.ClassThumbnail)
}

// GET /api/videos/:videoID/asset
func (h *Handler) GetVideoAsset(c *fiber.Ctx) error {
	return h.asset(c, models.ClassVideo)
}

func (h *Handler) asset(c *fiber.Ctx, class models.AssetClass) error {
	a, err := h.svc.Asset(c.UserContext(), class, c.Params("videoID"))
	if err != nil {
		return h.fail(c, err)
	}
	return utils.SendAsset(c, a)
}

// GET /api/videos/:videoID/url -> presigned URL for the owner
func (h *Handler) GetSignedURL(c *fiber.Ctx) error {
	url, err := h.svc.SignedVideoURL(c.UserContext(), c.Get(fiber.HeaderAuthorization), c.Params("videoID"))
	if err != nil {
		return h.fail(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"url": url})
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case status == fiber.StatusInternalServerError && errors.Is(err, utils.ErrStorage):
		h.log.Errorw("storage failure", "path", c.Path(), "error", err)
		msg = utils.ErrStorage.Error()
	case status == fiber.StatusInternalServerError:
		h.log.Errorw("request failed", "path", c.Path(), "error", err)
		msg = "internal server error"
	}
	return utils.JSONError(c, status, msg)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, utils.ErrBadRequest):
		return fiber.StatusBadRequest
	case errors.Is(err, utils.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, utils.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, utils.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, utils.ErrUnsupportedMediaType):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, utils.ErrPayloadTooLarge):
		return fiber.StatusRequestEntityTooLarge
	default:
		return fiber.StatusInternalServerError
	}
}
