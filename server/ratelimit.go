package server

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// clientLimiter throttles credential endpoints per remote address so a
// single client cannot brute force logins against many accounts. The
// per-account lockout in the identity provider covers the inverse case.
type clientLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientEntry
	perMin   int
	lastSeen time.Duration
	now      func() time.Time
}

type clientEntry struct {
	limiter *rate.Limiter
	seen    time.Time
}

func newClientLimiter(perMin int) *clientLimiter {
	if perMin <= 0 {
		perMin = 10
	}
	return &clientLimiter{
		clients:  make(map[string]*clientEntry),
		perMin:   perMin,
		lastSeen: 10 * time.Minute,
		now:      time.Now,
	}
}

func (l *clientLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.clients[key]
	if !ok {
		entry = &clientEntry{
			limiter: rate.NewLimiter(rate.Limit(float64(l.perMin)/60.0), l.perMin),
		}
		l.clients[key] = entry
	}
	entry.seen = now

	if len(l.clients) > 1024 {
		l.evictStale(now)
	}

	return entry.limiter.Allow()
}

func (l *clientLimiter) evictStale(now time.Time) {
	for key, entry := range l.clients {
		if now.Sub(entry.seen) > l.lastSeen {
			delete(l.clients, key)
		}
	}
}

// middleware refuses over-rate requests before any credential work runs.
func (l *clientLimiter) middleware(metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if l.allow(c.IP()) {
			return c.Next()
		}
		metrics.rateLimited()
		return c.Status(fiber.StatusTooManyRequests).JSON(MsgResponse{
			Msg: "Too many attempts, please try again later",
		})
	}
}
