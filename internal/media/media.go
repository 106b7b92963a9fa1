package models

import "time"

// Video is the record an upload is bound to. Only ThumbnailURL and VideoURL
// are written by the upload pipeline; nil means no asset has been stored.
type Video struct {
	ID           string    `bson:"_id" json:"id"`
	UserID       string    `bson:"user_id" json:"user_id"`
	Title        string    `bson:"title" json:"title"`
	Description  string    `bson:"description" json:"description"`
	ThumbnailURL *string   `bson:"thumbnail_url,omitempty" json:"thumbnail_url,omitempty"`
	VideoURL     *string   `bson:"video_url,omitempty" json:"video_url,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// Asset is an uploaded payload together with its MIME type.
type Asset struct {
	Data      []byte
	MediaType string
}

func (a Asset) Size() int64 { return int64(len(a.Data)) }

type AssetClass string

const (
	ClassVideo     AssetClass = "video"
	ClassThumbnail AssetClass = "thumbnail"
)

// FormField is the multipart field the class is uploaded under.
func (c AssetClass) FormField() string { return string(c) }

func (c AssetClass) Valid() bool {
	return c == ClassVideo || c == ClassThumbnail
}

// Locator returns the locator field of v that belongs to class c.
func (v *Video) Locator(c AssetClass) *string {
	if c == ClassVideo {
		return v.VideoURL
	}
	return v.ThumbnailURL
}

// SetLocator points the class's locator field at loc.
func (v *Video) SetLocator(c AssetClass, loc string) {
	if c == ClassVideo {
		v.VideoURL = &loc
		return
	}
	v.ThumbnailURL = &loc
}
