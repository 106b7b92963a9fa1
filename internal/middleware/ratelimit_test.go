package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(l *UploadLimiter) *fiber.App {
	app := fiber.New()
	app.Post("/upload", l.Handler(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	return app
}

func TestUploadLimiterBlocksAfterBurst(t *testing.T) {
	app := newApp(NewUploadLimiter(1, 2, nil))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/upload", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestUploadLimiterDisabled(t *testing.T) {
	app := newApp(NewUploadLimiter(0, 1, nil))
	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/upload", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	}
}

func TestUploadLimiterSweep(t *testing.T) {
	l := NewUploadLimiter(60, 1, nil)
	now := time.Now()
	l.now = func() time.Time { return now }
	l.limiter("1.2.3.4")
	l.limiter("5.6.7.8")

	now = now.Add(3 * time.Minute)
	l.limiter("5.6.7.8")
	now = now.Add(3 * time.Minute)
	l.Sweep()

	_, stale := l.visitors.Load("1.2.3.4")
	_, fresh := l.visitors.Load("5.6.7.8")
	assert.False(t, stale)
	assert.True(t, fresh)
}
