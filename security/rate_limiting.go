package security

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles the login endpoints with a fixed window
// counter per client IP. The counter lives in Redis next to the ticket
// blobs, so limits survive a restart.
type RateLimiter struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(redisClient *redis.Client, limit int) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  int64(limit),
		window: time.Minute,
	}
}

// LimitLogins wraps a login handler. Redis failures fail open; a
// broken limiter must not lock everyone out.
func (r *RateLimiter) LimitLogins(next func(*core.RequestEvent) error) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		key := fmt.Sprintf("ratelimit:login:%s", clientIP(e.Request))

		count, err := r.redis.Incr(e.Request.Context(), key).Result()
		if err != nil {
			log.Printf("rate limiter: %v", err)
			return next(e)
		}
		if count == 1 {
			r.redis.Expire(e.Request.Context(), key, r.window)
		}

		if count > r.limit {
			return e.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded. Please try again later.",
			})
		}

		return next(e)
	}
}

func clientIP(req *http.Request) string {
	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := req.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
