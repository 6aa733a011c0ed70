package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"mat-portal/internal/shared/server/respond"
)

// pruneEvery is how often Allow drops buckets that have refilled completely.
const pruneEvery = 30 * time.Second

// RateLimitRule is a token bucket: Rate tokens per second up to Burst.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

func (r RateLimitRule) disabled() bool {
	return r.Rate <= 0 || r.Burst <= 0
}

// RateLimitConfig configures RateLimit.
type RateLimitConfig struct {
	Rule    RateLimitRule
	Limiter *RateLimiter
	// KeyFor names the bucket for a request. An empty key falls back to the
	// client IP, so callers return "" for sessions they do not recognise.
	KeyFor func(*gin.Context) string
}

// RateLimiter holds token buckets by key. A bucket that has refilled to its
// burst is indistinguishable from a new one and is pruned.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	now       func() time.Time
	lastPrune time.Time
}

type tokenBucket struct {
	rule   RateLimitRule
	tokens float64
	last   time.Time
}

// NewRateLimiter constructs an empty limiter; now defaults to time.Now.
func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		buckets:   make(map[string]*tokenBucket),
		now:       now,
		lastPrune: now(),
	}
}

// RateLimit rejects requests over the rule with 429 rate_limited.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	return func(c *gin.Context) {
		if cfg.Rule.disabled() {
			c.Next()
			return
		}
		key := ""
		if cfg.KeyFor != nil {
			key = strings.TrimSpace(cfg.KeyFor(c))
		}
		if key == "" {
			key = "ip:" + c.ClientIP()
		}

		ok, wait := cfg.Limiter.Allow(key, cfg.Rule)
		if ok {
			c.Next()
			return
		}
		waitMs := max(int(wait/time.Millisecond), 1)
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(float64(waitMs)/1000.0))))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "too many requests", gin.H{
			"retryAfterMs": waitMs,
		})
	}
}

// Allow takes a token from key's bucket. When none is left it reports how
// long until the next token.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || rule.disabled() {
		return true, 0
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastPrune) >= pruneEvery {
		l.pruneLocked(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &tokenBucket{rule: rule, tokens: float64(rule.Burst), last: now}
		l.buckets[key] = b
	}
	b.refill(now)
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := (1 - b.tokens) / rule.Rate
	return false, time.Duration(math.Ceil(wait*1000)) * time.Millisecond
}

// Forget drops key's bucket, e.g. when its session ends.
func (l *RateLimiter) Forget(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Len returns the number of live buckets.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *RateLimiter) pruneLocked(now time.Time) {
	for key, b := range l.buckets {
		b.refill(now)
		if b.tokens >= float64(b.rule.Burst) {
			delete(l.buckets, key)
		}
	}
	l.lastPrune = now
}

func (b *tokenBucket) refill(now time.Time) {
	elapsed := now.Sub(b.last).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens = math.Min(float64(b.rule.Burst), b.tokens+elapsed*b.rule.Rate)
	b.last = now
}
