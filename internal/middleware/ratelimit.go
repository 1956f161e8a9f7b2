package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// LoginLimiter throttles credential checks per client host.
type LoginLimiter struct {
	limit rate.Limit
	burst int
	log   *zap.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewLoginLimiter allows perSecond attempts per host with the given burst.
func NewLoginLimiter(perSecond float64, burst int, log *zap.Logger) *LoginLimiter {
	return &LoginLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		log:      log,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Middleware answers 429 with Retry-After once a host exhausts its budget.
func (l *LoginLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := clientHost(r)
		if !l.limiter(host).Allow() {
			l.log.Warn("login rate limit exceeded", zap.String("host", host))
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter(l.limit)))
			http.Error(w, "too many login attempts", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *LoginLimiter) limiter(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[host]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[host] = lim
	}
	return lim
}

func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// retryAfter is the whole number of seconds until one more token is available.
func retryAfter(limit rate.Limit) int {
	if limit <= 0 {
		return 60
	}
	return int(math.Ceil(1 / float64(limit)))
}
