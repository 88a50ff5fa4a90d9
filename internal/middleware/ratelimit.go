package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/christmas-fire/courier/internal/app/response"
	"github.com/christmas-fire/courier/internal/ratelimit"
)

// RateLimit throttles POST requests to message-send paths per client IP.
type RateLimit struct {
	limiter  *ratelimit.Limiter
	prefixes []string
	log      *slog.Logger
}

func NewRateLimit(limiter *ratelimit.Limiter, prefixes []string, log *slog.Logger) *RateLimit {
	return &RateLimit{limiter: limiter, prefixes: prefixes, log: log}
}

func (m *RateLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !hasAnyPrefix(r.URL.Path, m.prefixes) {
			next.ServeHTTP(w, r)
			return
		}

		ip := ClientIP(r)
		res, err := m.limiter.Allow(r.Context(), ip)
		if err != nil {
			m.log.Error("rate limit check failed", "ip", ip, "error", err)
			response.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		if !res.Allowed {
			m.log.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path, "count", res.Count)
			if res.RetryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			}
			response.Error(w, http.StatusTooManyRequests, "Rate limit exceeded. Try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIP prefers the first X-Forwarded-For entry and falls back to the peer address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
