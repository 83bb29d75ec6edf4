package api

import (
	"delivery-eta-service/internal/api/dto"
	"delivery-eta-service/internal/api/handlers"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterStore keeps one token bucket per client key and forgets keys that
// have been idle for idleTTL. Sweeps happen inline, at most every sweepEvery.
type limiterStore struct {
	mu         sync.Mutex
	entries    map[string]*limiterEntry
	rps        rate.Limit
	burst      int
	idleTTL    time.Duration
	sweepEvery time.Duration
	lastSweep  time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// newLimiterStore allows rps requests per second per key. rps <= 0 disables limiting.
func newLimiterStore(rps float64, burst int) *limiterStore {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}

	return &limiterStore{
		entries:    make(map[string]*limiterEntry),
		rps:        limit,
		burst:      burst,
		idleTTL:    15 * time.Minute,
		sweepEvery: 2 * time.Minute,
		lastSweep:  time.Now(),
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) >= s.sweepEvery {
		cutoff := now.Add(-s.idleTTL)
		for k, ent := range s.entries {
			if ent.lastSeen.Before(cutoff) {
				delete(s.entries, k)
			}
		}
		s.lastSweep = now
	}

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &limiterEntry{lim: lim, lastSeen: now}
	return lim
}

// clientKey identifies a storefront client by IP. chi's RealIP middleware
// runs first, so RemoteAddr already reflects X-Forwarded-For / X-Real-IP.
func clientKey(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	if addr != "" {
		return addr
	}
	return "unknown"
}

// retryAfter reserves a token to learn when the client may retry, then
// hands the token back. The result is in whole seconds, at least 1.
func retryAfter(lim *rate.Limiter) int {
	res := lim.Reserve()
	defer res.Cancel()

	secs := int(math.Ceil(res.Delay().Seconds()))
	if !res.OK() || secs < 1 {
		return 1
	}
	return secs
}

// rateLimitMiddleware rejects clients exceeding their token bucket with 429.
func rateLimitMiddleware(store *limiterStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lim := store.get(clientKey(r))
			if !lim.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter(lim)))
				handlers.WriteError(w, r, http.StatusTooManyRequests, dto.ErrCodeRateLimited, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
