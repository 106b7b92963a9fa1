package middleware

import (
	"net"
	"sync"
	"time"

	utils "github.com/fathima-sithara/video-asset-service/internal/utis"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// UploadLimiter is a per-caller token bucket for the upload routes. Callers
// are keyed by client IP.
type UploadLimiter struct {
	visitors sync.Map
	rps      rate.Limit
	burst    int
	idle     time.Duration
	log      *zap.SugaredLogger
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

// NewUploadLimiter allows perMinute uploads per caller with a burst of burst.
// perMinute <= 0 disables limiting.
func NewUploadLimiter(perMinute, burst int, log *zap.SugaredLogger) *UploadLimiter {
	if burst < 1 {
		burst = 1
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &UploadLimiter{
		rps:   rate.Limit(float64(perMinute) / 60.0),
		burst: burst,
		idle:  5 * time.Minute,
		log:   log,
		now:   time.Now,
	}
}

func (l *UploadLimiter) enabled() bool { return l.rps > 0 }

func (l *UploadLimiter) limiter(key string) *rate.Limiter {
	now := l.now()
	v, _ := l.visitors.LoadOrStore(key, &visitor{limiter: rate.NewLimiter(l.rps, l.burst), lastSeen: now})
	vi := v.(*visitor)
	vi.mu.Lock()
	vi.lastSeen = now
	vi.mu.Unlock()
	return vi.limiter
}

// Sweep drops callers idle for longer than the idle window.
func (l *UploadLimiter) Sweep() {
	cutoff := l.now().Add(-l.idle)
	l.visitors.Range(func(k, v interface{}) bool {
		vi := v.(*visitor)
		vi.mu.Lock()
		stale := vi.lastSeen.Before(cutoff)
		vi.mu.Unlock()
		if stale {
			l.visitors.Delete(k)
		}
		return true
	})
}

// Run sweeps idle callers every interval until done is closed.
func (l *UploadLimiter) Run(done <-chan struct{}, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			l.Sweep()
		}
	}
}

func (l *UploadLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.enabled() {
			return c.Next()
		}
		ip := clientIP(c)
		if !l.limiter(ip).Allow() {
			l.log.Warnw("upload rate limit exceeded", "ip", ip, "path", c.Path())
			return utils.JSONError(c, fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}

func clientIP(c *fiber.Ctx) string {
	ip := c.IP()
	if ip == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(ip); err == nil {
		return host
	}
	return ip
}
