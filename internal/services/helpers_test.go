package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/fathima-sithara/video-asset-service/internal/auth"
	models "github.com/fathima-sithara/video-asset-service/internal/media"
	"github.com/fathima-sithara/video-asset-service/internal/repository"
	"github.com/fathima-sithara/video-asset-service/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func bearer(t *testing.T, userID string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

func verifier(t *testing.T) *auth.JWTVerifier {
	t.Helper()
	v, err := auth.NewJWTVerifier(testSecret, "")
	require.NoError(t, err)
	return v
}

// buildForm encodes one file part and parses it back the way an HTTP server would.
func buildForm(t *testing.T, field, contentType string, data []byte) *multipart.Form {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="upload.bin"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(64 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form
}

type countingRepo struct {
	*repository.MemoryVideoRepo
	gets    int
	updates int
}

func newCountingRepo() *countingRepo {
	return &countingRepo{MemoryVideoRepo: repository.NewMemoryVideoRepo()}
}

func (r *countingRepo) GetByID(ctx context.Context, id string) (*models.Video, error) {
	r.gets++
	return r.MemoryVideoRepo.GetByID(ctx, id)
}

func (r *countingRepo) Update(ctx context.Context, v *models.Video) error {
	r.updates++
	return r.MemoryVideoRepo.Update(ctx, v)
}

func (r *countingRepo) seed(t *testing.T, id, owner string) {
	t.Helper()
	require.NoError(t, r.MemoryVideoRepo.Insert(context.Background(), &models.Video{ID: id, UserID: owner, Title: "clip"}))
}

type countingStore struct {
	storage.AssetStore
	puts int
}

func (s *countingStore) Put(ctx context.Context, in storage.PutInput) (string, error) {
	s.puts++
	return s.AssetStore.Put(ctx, in)
}

type failingStore struct{ puts int }

func (s *failingStore) Put(context.Context, storage.PutInput) (string, error) {
	s.puts++
	return "", errors.New("disk full")
}

func (s *failingStore) Variant() storage.Variant { return storage.VariantLocal }
