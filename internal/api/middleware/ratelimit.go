package middleware

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/wellnest/internal/api/auth"
)

// actorLimiters keeps one token bucket per authenticated actor. Entries
// are never evicted; the map is bounded by the active actor population.
type actorLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func (l *actorLimiters) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	return limiter
}

// RateLimitByActor limits mutating calls per authenticated actor. Falls
// back to the client IP when no actor is on the context.
func RateLimitByActor(perMinute int) echo.MiddlewareFunc {
	limiters := &actorLimiters{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if ref, ok := auth.ActorFromContext(c); ok {
				key = ref.String()
			}

			if !limiters.get(key).Allow() {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Rate limit exceeded")
			}
			return next(c)
		}
	}
}
