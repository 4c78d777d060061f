package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ceramics-booking/errors"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore holds one limiter per client IP.
type limiterStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

func newLimiterStore(perMinute int) *limiterStore {
	if perMinute < 1 {
		perMinute = 1
	}
	burst := perMinute / 6
	if burst < 3 {
		burst = 3
	}
	return &limiterStore{
		visitors: map[string]*visitor{},
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		idle:     10 * time.Minute,
		now:      time.Now,
	}
}

func (s *limiterStore) allow(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	v, ok := s.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.visitors[ip] = v
		if len(s.visitors) > 1024 {
			s.evict(now)
		}
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (s *limiterStore) evict(now time.Time) {
	for ip, v := range s.visitors {
		if now.Sub(v.lastSeen) > s.idle {
			delete(s.visitors, ip)
		}
	}
}

// RateLimit limits write endpoints per client IP.
func RateLimit(perMinute int, logger *zap.Logger) fiber.Handler {
	store := newLimiterStore(perMinute)
	return func(c *fiber.Ctx) error {
		if !store.allow(c.IP()) {
			logger.Warn("rate limit exceeded", zap.String("ip", c.IP()), zap.String("path", c.Path()))
			return errors.RaiseError(c, fiber.StatusTooManyRequests, "too many requests, please try again later", "")
		}
		return c.Next()
	}
}
