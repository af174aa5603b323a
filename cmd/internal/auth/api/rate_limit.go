package authapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// loginRateLimiter throttles login attempts per client IP over a sliding
// window. State is in-process; each instance throttles independently.
type loginRateLimiter struct {
	mu      sync.Mutex
	maxHits int
	window  time.Duration
	hitByIP map[string][]time.Time

	// maxKeys bounds map growth under spoofed-IP pressure.
	maxKeys int
}

func newLoginRateLimiter(maxHits int, window time.Duration) *loginRateLimiter {
	if maxHits <= 0 {
		maxHits = 20
	}
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &loginRateLimiter{
		maxHits: maxHits,
		window:  window,
		hitByIP: make(map[string][]time.Time),
		maxKeys: 5000,
	}
}

// allow records a hit for ip and reports whether it is within budget. When
// over budget it returns how long the client should wait.
func (l *loginRateLimiter) allow(ip string, now time.Time) (bool, time.Duration) {
	threshold := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	hits := l.hitByIP[ip]
	filtered := make([]time.Time, 0, len(hits)+1)
	for _, hit := range hits {
		if hit.After(threshold) {
			filtered = append(filtered, hit)
		}
	}

	if len(filtered) >= l.maxHits {
		retryAfter := filtered[0].Add(l.window).Sub(now)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		l.hitByIP[ip] = filtered
		return false, retryAfter
	}

	filtered = append(filtered, now)
	l.hitByIP[ip] = filtered

	if len(l.hitByIP) > l.maxKeys {
		for key, value := range l.hitByIP {
			if len(value) == 0 || value[len(value)-1].Before(threshold) {
				delete(l.hitByIP, key)
			}
		}
	}

	return true, 0
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds()), 10))
	}
	writeError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
}
