package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/Lllllllleong/jobgrid/internal/auth"
)

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

type Middleware func(http.Handler) http.Handler

func Chain(h http.Handler, m ...Middleware) http.Handler {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	return h
}

// Cors lets browser clients on any origin call the API with a bearer token.
func Cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(withRequestID(r.Context(), id)))
	})
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if sw.status == 0 {
		sw.status = http.StatusOK
	}
	n, err := sw.ResponseWriter.Write(b)
	sw.bytes += n
	return n, err
}

// Flush keeps Server-Sent Events working through the access log wrapper.
func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic", "request_id", RequestIDFrom(r.Context()), "path", r.URL.Path, "method", r.Method, "error", rec)
				WriteError(w, r, http.StatusInternalServerError, "internal_error", "Something went wrong")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		slog.Info("http",
			"request_id", RequestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"bytes", sw.bytes,
			"dur_ms", time.Since(start).Milliseconds(),
		)
	})
}

// RequireUser verifies the bearer token and stores the user in the context.
func RequireUser(p auth.Provider) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r)
			if token == "" {
				WriteError(w, r, http.StatusUnauthorized, "unauthenticated", "Please sign in")
				return
			}
			u, err := p.Verify(r.Context(), token)
			if err != nil {
				writeServiceError(w, r, err, "Please sign in")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
		})
	}
}

const (
	limiterIdleTTL    = 10 * time.Minute
	limiterSweepEvery = time.Minute
	limiterMaxClients = 10_000
)

type clientEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// ClientLimiter rate-limits per client address. Clients idle for longer than
// limiterIdleTTL are forgotten and the table never exceeds limiterMaxClients.
type ClientLimiter struct {
	mu         sync.Mutex
	m          map[string]*clientEntry
	r          rate.Limit
	b          int
	trustProxy bool
	now        func() time.Time
	lastSweep  time.Time
}

// NewClientLimiter keys clients on the socket address, or on the last
// X-Forwarded-For hop when trustProxy is set and a proxy appends it.
func NewClientLimiter(reqPerSec float64, burst int, trustProxy bool) *ClientLimiter {
	return &ClientLimiter{
		m:          make(map[string]*clientEntry),
		r:          rate.Limit(reqPerSec),
		b:          burst,
		trustProxy: trustProxy,
		now:        time.Now,
	}
}

func (cl *ClientLimiter) limiterFor(client string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := cl.now()
	if e, ok := cl.m[client]; ok {
		e.seen = now
		return e.lim
	}
	if now.Sub(cl.lastSweep) >= limiterSweepEvery || len(cl.m) >= limiterMaxClients {
		cl.sweep(now)
	}
	if len(cl.m) >= limiterMaxClients {
		cl.evictOldest()
	}
	e := &clientEntry{lim: rate.NewLimiter(cl.r, cl.b), seen: now}
	cl.m[client] = e
	return e.lim
}

func (cl *ClientLimiter) sweep(now time.Time) {
	cl.lastSweep = now
	for k, e := range cl.m {
		if now.Sub(e.seen) > limiterIdleTTL {
			delete(cl.m, k)
		}
	}
}

func (cl *ClientLimiter) evictOldest() {
	var oldest string
	var at time.Time
	for k, e := range cl.m {
		if oldest == "" || e.seen.Before(at) {
			oldest, at = k, e.seen
		}
	}
	delete(cl.m, oldest)
}

func (cl *ClientLimiter) clients() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.m)
}

// Allow reports whether r's client may make another request now.
func (cl *ClientLimiter) Allow(r *http.Request) bool {
	return cl.limiterFor(clientKey(r, cl.trustProxy)).Allow()
}

func RateLimit(cl *ClientLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		if cl == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cl.Allow(r) {
				w.Header().Set("Retry-After", "1")
				WriteError(w, r, http.StatusTooManyRequests, "rate_limited", "Too many attempts, try again shortly")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey ignores client supplied forwarding headers unless a trusted
// proxy appends the real peer as the last hop.
func clientKey(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			hops := strings.Split(fwd, ",")
			if last := strings.TrimSpace(hops[len(hops)-1]); last != "" {
				return last
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
