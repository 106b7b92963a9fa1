package utils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	DefaultVideoMaxBytes     int64 = 1 << 30 // 1 GiB
	DefaultThumbnailMaxBytes int64 = 10 << 20
)

// UploadPolicy bounds what may be uploaded for one asset class.
// An empty AllowedTypes accepts any media type.
type UploadPolicy struct {
	MaxBytes     int64
	AllowedTypes []string
	VerifyImage  bool
}

func VideoPolicy() UploadPolicy {
	return UploadPolicy{MaxBytes: DefaultVideoMaxBytes, AllowedTypes: []string{"video/mp4"}}
}

func ThumbnailPolicy() UploadPolicy {
	return UploadPolicy{MaxBytes: DefaultThumbnailMaxBytes, AllowedTypes: []string{"image/jpeg", "image/png"}}
}

func (p UploadPolicy) allows(mediaType string) bool {
	if len(p.AllowedTypes) == 0 {
		return true
	}
	for _, t := range p.AllowedTypes {
		if strings.EqualFold(t, mediaType) {
			return true
		}
	}
	return false
}

// ValidateUpload checks a payload's declared size and media type against p.
func ValidateUpload(p UploadPolicy, size int64, mediaType string) error {
	if size > p.MaxBytes {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrPayloadTooLarge, size, p.MaxBytes)
	}
	if !p.allows(mediaType) {
		return fmt.Errorf("%w: %q, must be one of: %s", ErrUnsupportedMediaType, mediaType, strings.Join(p.AllowedTypes, ", "))
	}
	return nil
}

// DetectMediaType returns the part's media type without parameters. A part
// without a Content-Type header is sniffed from its first bytes.
func DetectMediaType(h *multipart.FileHeader) (string, error) {
	if ct := h.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return "", fmt.Errorf("%w: malformed Content-Type %q", ErrUnsupportedMediaType, ct)
		}
		return strings.ToLower(mt), nil
	}
	f, err := h.Open()
	if err != nil {
		return "", fmt.Errorf("%w: cannot open file", ErrBadRequest)
	}
	defer f.Close()
	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: cannot read file", ErrBadRequest)
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(buf[:n]))
	return mt, nil
}

// VerifyImage rejects image/* payloads that do not decode as an image.
// Other media types pass unchecked.
func VerifyImage(data []byte, mediaType string) error {
	if !strings.HasPrefix(mediaType, "image/") {
		return nil
	}
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: payload is not a decodable %s image", ErrUnsupportedMediaType, mediaType)
	}
	return nil
}
