package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	// limiterIdleAfter is how long a client bucket may sit unused before a
	// sweep may drop it.
	limiterIdleAfter = 3 * time.Minute
	// limiterSweepAt caps the client map; reaching it triggers a sweep so a
	// scanner cycling source addresses cannot grow it for the life of the
	// process.
	limiterSweepAt = 4096
)

type ipClient struct {
	limiter *rate.Limiter
	seen    time.Time
}

type ipLimiters struct {
	mu        sync.Mutex
	perMinute int
	clients   map[string]*ipClient
}

func newIPLimiters(perMinute int) *ipLimiters {
	return &ipLimiters{
		perMinute: perMinute,
		clients:   make(map[string]*ipClient),
	}
}

func (l *ipLimiters) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if c, ok := l.clients[ip]; ok {
		c.seen = now
		return c.limiter
	}

	if len(l.clients) >= limiterSweepAt {
		l.sweep(now)
	}

	c := &ipClient{
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute),
		seen:    now,
	}
	l.clients[ip] = c
	return c.limiter
}

// sweep drops idle buckets. Caller holds the lock.
func (l *ipLimiters) sweep(now time.Time) {
	for ip, c := range l.clients {
		if now.Sub(c.seen) > limiterIdleAfter {
			delete(l.clients, ip)
		}
	}
}

// RateLimit applies a per-client-IP token bucket. Used on the activation
// endpoint to keep a misbehaving client from hammering the activity oracle.
func RateLimit(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		perMinute = 10
	}
	limiters := newIPLimiters(perMinute)

	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP(), time.Now()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
