package api

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/warp/supply-ledger/catalog"
)

// ParticipantHeader carries the id returned by POST /api/login.
const ParticipantHeader = "X-Participant-ID"

type ctxKey int

const participantKey ctxKey = iota

// =============================================================================
// ACCESS
// =============================================================================

// RequireParticipant resolves the caller from ParticipantHeader. Unknown or
// missing ids are rejected with 401; store failures are 500.
func (h *Handler) RequireParticipant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(ParticipantHeader)
		if id == "" {
			writeError(w, http.StatusUnauthorized, "Missing "+ParticipantHeader+" header", nil)
			return
		}
		p, err := h.Catalog.Participant(r.Context(), id)
		if catalog.IsNotFound(err) {
			writeError(w, http.StatusUnauthorized, "Unknown participant", nil)
			return
		}
		if err != nil {
			h.Log.WithError(err).Error("participant lookup failed")
			writeError(w, http.StatusInternalServerError, "Failed to resolve participant", nil)
			return
		}
		ctx := context.WithValue(r.Context(), participantKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuthority admits only the central Authority.
func RequireAuthority(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := participantFrom(r.Context()); !ok || !p.IsAuthority() {
			writeError(w, http.StatusForbidden, "Authority access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireOrganization admits only organizations.
func RequireOrganization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := participantFrom(r.Context()); !ok || !p.IsOrganization() {
			writeError(w, http.StatusForbidden, "Organization access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// RATE LIMITING
// =============================================================================

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	visitors map[string]*visitor
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewRateLimiter allows perMinute requests per IP with a burst of the same size.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	now := time.Now()
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > 3*time.Minute {
			delete(rl.visitors, key)
		}
	}

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter, now}
		return limiter
	}

	v.lastSeen = now
	return v.limiter
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.getVisitor(clientIP(r)).Allow() {
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port; chi's RealIP middleware has already applied
// X-Forwarded-For when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
