// ABOUTME: Per-client token bucket rate limiting for the passthrough
// ABOUTME: One x/time/rate limiter per client IP, pruned when idle

package passthrough

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter hands out one token bucket per client.
type clientLimiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*clientEntry
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*clientEntry),
	}
}

func (c *clientLimiter) allow(client string, now time.Time) bool {
	c.mu.Lock()
	entry, ok := c.clients[client]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(c.rps, c.burst)}
		c.clients[client] = entry
	}
	entry.lastSeen = now
	c.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// prune drops clients idle since cutoff and returns how many were dropped.
func (c *clientLimiter) prune(cutoff time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for client, entry := range c.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(c.clients, client)
			n++
		}
	}
	return n
}

// clientIP is the remote address without its port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
