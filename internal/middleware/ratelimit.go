package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RateLimiter provides rate limiting functionality
type RateLimiter struct {
	redis        redis.Cmdable
	maxRequests  int
	window       time.Duration
	isProduction bool
	logger       zerolog.Logger
}

// NewRateLimiter creates a new rate limiter
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewRateLimiter(client redis.Cmdable, maxRequests int, window time.Duration, isProduction bool, logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		redis:        client,
		maxRequests:  maxRequests,
		window:       window,
		isProduction: isProduction,
		logger:       logger.With().Str("component", "ratelimit").Logger(),
	}
}

// Limit returns a middleware that rate limits requests
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identifier := rl.getIdentifier(r)

		allowed, err := rl.checkRateLimit(r.Context(), identifier)
		if err != nil {
			// Redis trouble should not take the API down
			rl.logger.Error().Err(err).Str("identifier", identifier).Msg("rate limit check failed")
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintf(w, `{"error":"Too many requests. Please try again later."}`)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getIdentifier returns the user id when authenticated, the client IP otherwise
func (rl *RateLimiter) getIdentifier(r *http.Request) string {
	if userID, ok := GetUserIDFromContext(r.Context()); ok {
		return fmt.Sprintf("user:%s", userID.String())
	}

	ip := r.Header.Get("X-Forwarded-For")
	if ip != "" {
		ip = strings.TrimSpace(strings.Split(ip, ",")[0])
	} else {
		ip = r.RemoteAddr
	}
	return fmt.Sprintf("ip:%s", ip)
}

// checkRateLimit applies a sliding window held in a Redis sorted set
func (rl *RateLimiter) checkRateLimit(ctx context.Context, identifier string) (bool, error) {
	// Skip rate limiting in local/dev mode for easier testing
	if !rl.isProduction {
		return true, nil
	}

	key := fmt.Sprintf("ratelimit:%s", identifier)
	now := time.Now()
	windowStart := now.Add(-rl.window).UnixMilli()

	pipe := rl.redis.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	countCmd := pipe.ZCard(ctx, key)
	// unique members so concurrent requests in the same millisecond all count
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.NewString(),
	})
	pipe.Expire(ctx, key, rl.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return countCmd.Val() < int64(rl.maxRequests), nil
}
