package api

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/recipes-server/internal/ratelimit"
)

// NewRateLimiter creates a keyed limiter allowing ratePerInterval requests
// per interval with the given burst.
func NewRateLimiter(ratePerInterval int, interval time.Duration, burst int) *ratelimit.KeyedRateLimiter {
	rps := float64(ratePerInterval) / interval.Seconds()
	return ratelimit.New(rps, burst)
}

// rateLimitByIP is a huma middleware that limits requests per client IP.
// Exceeding the limit yields 429 Too Many Requests.
func (s *Server) rateLimitByIP(ctx huma.Context, next func(huma.Context)) {
	key := clientIP(ctx.Header("X-Forwarded-For"), ctx.Header("X-Real-IP"), ctx.RemoteAddr())

	if !s.authRateLimiter.Allow(key) {
		s.logger.Warn("Rate limit exceeded",
			"ip", key,
			"path", ctx.URL().Path,
		)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "too many requests, please try again later")
		return
	}

	next(ctx)
}

// clientIP picks the client address from proxy headers, falling back to
// the connection's remote address without its port.
func clientIP(forwardedFor, realIP, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}

	if realIP != "" {
		return strings.TrimSpace(realIP)
	}

	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
