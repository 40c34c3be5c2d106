package http

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	apperrors "github.com/faraddouglas/conecsa-api/pkg/util"
)

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles each client IP to a fixed number of requests per window.
type RateLimiter struct {
	limit  rate.Limit
	burst  int
	window time.Duration

	mu      sync.Mutex
	clients map[string]*clientLimiter
	now     func() time.Time
}

// NewRateLimiter allows requests per window for every client. Non-positive values fall back to 100 per minute.
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   requests,
		window:  window,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// Handle rejects the request with RATE_LIMITED once the client has exhausted its budget.
func (rl *RateLimiter) Handle(c *fiber.Ctx) error {
	if !rl.allow(c.IP()) {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(rl.retryAfterSeconds()))
		return apperrors.NewRateLimited()
	}
	return c.Next()
}

func (rl *RateLimiter) allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, ok := rl.clients[client]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[client] = entry
		rl.gcLocked(now)
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) gcLocked(now time.Time) {
	if len(rl.clients) < 1000 {
		return
	}
	cutoff := now.Add(-limiterIdleTTL)
	for client, entry := range rl.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.clients, client)
		}
	}
}

func (rl *RateLimiter) retryAfterSeconds() int {
	seconds := int((rl.window / time.Duration(rl.burst)).Seconds())
	if seconds < 1 {
		return 1
	}
	return seconds
}
