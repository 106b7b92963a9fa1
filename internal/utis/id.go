package utils

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

func NewID() string {
	return uuid.NewString()
}

// RandomName returns 32 random bytes encoded as unpadded base64url, safe
// for use as a file name or object key segment.
func RandomName() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
