package utils

import (
	models "github.com/fathima-sithara/video-asset-service/internal/media"
	"github.com/gofiber/fiber/v2"
)

func JSONSuccess(c *fiber.Ctx, status int, payload interface{}) error {
	return c.Status(status).JSON(fiber.Map{"status": "ok", "data": payload})
}

func JSONError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"status": "error", "message": msg})
}

// SendAsset writes the raw asset bytes. Served assets are never cached by
// clients since a re-upload replaces them under the same URL.
func SendAsset(c *fiber.Ctx, a models.Asset) error {
	c.Set(fiber.HeaderContentType, a.MediaType)
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Status(fiber.StatusOK).Send(a.Data)
}
