package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RateLimit returns per-client-IP rate limiting middleware backed by Redis,
// limiting to perMinute requests per minute.
func RateLimit(redisClient *redis.Client, perMinute int) (func(http.Handler) http.Handler, error) {
	if perMinute <= 0 {
		perMinute = 120
	}
	rate := limiter.Rate{Period: time.Minute, Limit: int64(perMinute)}
	store, err := redisstore.NewStore(redisClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create limiter store: %w", err)
	}
	instance := limiter.New(store, rate)
	mw := stdlibmw.NewMiddleware(instance, stdlibmw.WithKeyGetter(clientIP))
	return mw.Handler, nil
}

// clientIP resolves the originating client address, trusting proxy headers
// when present.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ips := strings.Split(xff, ","); len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}
