package security

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter decides whether a client identified by key may make another request
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// MemoryRateLimiter implements a simple token bucket rate limiter per process
type MemoryRateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     int           // requests per window
	window   time.Duration // time window
	stop     chan struct{}
}

type visitor struct {
	tokens     int
	lastRefill time.Time
	mu         sync.Mutex
}

// NewMemoryRateLimiter creates a new in-memory rate limiter
// rate: number of requests allowed per window
// window: time window for rate limiting
func NewMemoryRateLimiter(rate int, window time.Duration) *MemoryRateLimiter {
	rl := &MemoryRateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		stop:     make(chan struct{}),
	}
	go rl.cleanupVisitors()
	return rl
}

// Allow checks if a request from key should be allowed
func (rl *MemoryRateLimiter) Allow(_ context.Context, key string) bool {
	rl.mu.Lock()
	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{
			tokens:     rl.rate,
			lastRefill: time.Now(),
		}
		rl.visitors[key] = v
	}
	rl.mu.Unlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	now := time.Now()
	if now.Sub(v.lastRefill) >= rl.window {
		v.tokens = rl.rate
		v.lastRefill = now
	}

	if v.tokens > 0 {
		v.tokens--
		return true
	}
	return false
}

// Close stops the background cleanup goroutine
func (rl *MemoryRateLimiter) Close() {
	close(rl.stop)
}

// cleanupVisitors removes old visitor entries to prevent memory leaks
func (rl *MemoryRateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for key, v := range rl.visitors {
				v.mu.Lock()
				if now.Sub(v.lastRefill) > rl.window*2 {
					delete(rl.visitors, key)
				}
				v.mu.Unlock()
			}
			rl.mu.Unlock()
		}
	}
}

// RedisRateLimiter is a fixed-window limiter shared by every replica through Redis.
// Requests are allowed when Redis is unreachable.
type RedisRateLimiter struct {
	client *redis.Client
	prefix string
	rate   int
	window time.Duration
}

// NewRedisRateLimiter creates a Redis-backed rate limiter
func NewRedisRateLimiter(client *redis.Client, prefix string, rate int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, prefix: prefix, rate: rate, window: window}
}

// Allow counts the request in the current window and reports whether it is within the limit
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	redisKey := fmt.Sprintf("rate_limit:%s:%s", rl.prefix, key)

	count, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		log.Printf("Rate limiter unavailable, allowing request: %v", err)
		return true
	}
	if count == 1 {
		if err := rl.client.Expire(ctx, redisKey, rl.window).Err(); err != nil {
			log.Printf("Error setting rate limit expiry: %v", err)
		}
	}
	return count <= int64(rl.rate)
}

// GetClientIP extracts the client IP from the request
func GetClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (when behind proxy)
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
