package service

import (
	"fmt"

	models "github.com/fathima-sithara/video-asset-service/internal/media"
	utils "github.com/fathima-sithara/video-asset-service/internal/utis"
)

// Authorize allows a mutation of v only by its owner.
func Authorize(v *models.Video, userID string) error {
	if v == nil || v.UserID != userID {
		return fmt.Errorf("%w: not the owner of this video", utils.ErrForbidden)
	}
	return nil
}
