package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"

	"github.com/viveo-rs/viveo-backend/internal/auth"
)

type contextKey int

const (
	userKey contextKey = iota
	requestIDKey
)

// UserFrom returns the authenticated user stored by the auth middleware.
func UserFrom(ctx context.Context) (auth.User, bool) {
	u, ok := ctx.Value(userKey).(auth.User)
	return u, ok
}

// RequestIDFrom returns the request's correlation id.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type middleware func(http.Handler) http.Handler

func chain(h http.Handler, mw ...middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// RequestID assigns each request a correlation id, honoring one supplied
// by the caller, and echoes it back as X-Request-Id.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// AccessLog logs one line per request with method, path, status and
// duration.
func AccessLog(logger *slog.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request handled",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", RequestIDFrom(r.Context()),
			)
		})
	}
}

// Authenticate verifies the bearer token against the auth service and
// stores the resulting user in the request context. Any failure answers
// 401 without detail.
func Authenticate(verifier auth.Verifier, logger *slog.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing bearer token")
				return
			}

			user, err := verifier.UserFromToken(r.Context(), token)
			if err != nil {
				if !errors.Is(err, auth.ErrUnauthorized) {
					logger.Error("auth verification failed", "error", err)
				}
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
		})
	}
}

// Sliding-window counter in a sorted set, trimmed and counted atomically.
// KEYS[1]=limiter key, ARGV: now, window start, window seconds, member,
// limit. Returns -1 when over the limit.
const luaRateLimit = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local windowStart = tonumber(ARGV[2])
local windowSec = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '0', windowStart)

local count = redis.call('ZCARD', key)

if count < tonumber(ARGV[5]) then
  redis.call('ZADD', key, now, member)
  redis.call('EXPIRE', key, windowSec)
  return count + 1
else
  return -1
end
`

// RateLimit applies a per-caller sliding-window limit backed by Redis.
// The key is the authenticated user when present, the remote IP
// otherwise. Redis failures fail open.
func RateLimit(rdb *rd.Client, limit int, window time.Duration) middleware {
	return func(next http.Handler) http.Handler {
		if rdb == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var key string
			if user, ok := UserFrom(r.Context()); ok {
				key = "rate_limit:user:" + user.ID
			} else {
				key = "rate_limit:ip:" + clientIP(r)
			}

			now := time.Now().Unix()
			windowSec := int64(window.Seconds())
			member := fmt.Sprintf("%d-%d", now, time.Now().UnixNano())

			res, err := rdb.Eval(r.Context(), luaRateLimit, []string{key},
				now, now-windowSec, windowSec, member, limit).Int()
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if res < 0 {
				writeError(w, http.StatusTooManyRequests, CodeRateLimited, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
