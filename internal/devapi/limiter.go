package devapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long an unused per-client limiter is kept
const idleLimiterTTL = 10 * time.Minute

// clientLimiters throttles credential endpoints per client IP
type clientLimiters struct {
	limit rate.Limit
	burst int

	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
	lastAccess map[string]time.Time
	now        func() time.Time
}

func newClientLimiters(perSecond float64, burst int) *clientLimiters {
	if burst < 1 {
		burst = 1
	}
	return &clientLimiters{
		limit:      rate.Limit(perSecond),
		burst:      burst,
		limiters:   make(map[string]*rate.Limiter),
		lastAccess: make(map[string]time.Time),
		now:        time.Now,
	}
}

func (l *clientLimiters) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	l.lastAccess[key] = now
	return limiter
}

// sweep drops limiters idle for longer than idleLimiterTTL. Callers hold mu.
func (l *clientLimiters) sweep(now time.Time) {
	for key, seen := range l.lastAccess {
		if now.Sub(seen) > idleLimiterTTL {
			delete(l.limiters, key)
			delete(l.lastAccess, key)
		}
	}
}

// RateLimitMiddleware rejects bursts of requests from one client with 429.
// A nil limiter set lets everything through.
func RateLimitMiddleware(limiters *clientLimiters, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiters == nil {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if !limiters.get(ip).AllowN(limiters.now(), 1) {
			log.Warn().Str("client_ip", ip).Str("path", c.Request.URL.Path).Msg("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many attempts. Please try again later."})
			return
		}
		c.Next()
	}
}
