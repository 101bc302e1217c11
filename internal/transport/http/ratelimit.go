package http

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the per-key counter and arms the window TTL on
// the first hit. Atomic on the Redis side, so concurrent gateway instances
// share one window.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

type rateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	log    *slog.Logger
}

func newRateLimiter(rdb *redis.Client, perMinute int, log *slog.Logger) *rateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &rateLimiter{rdb: rdb, limit: perMinute, window: time.Minute, log: log}
}

// middleware applies a fixed-window limit per caller. Keyed by the
// authenticated subject when present, else the remote IP. Redis being down
// fails open: limiting is protection, not a correctness gate.
func (l *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ratelimit:" + callerKey(r)
		count, err := fixedWindowScript.Run(r.Context(), l.rdb, []string{key}, l.window.Milliseconds()).Int()
		if err != nil {
			l.log.Warn("rate limiter unavailable", slog.Any("err", err))
			next.ServeHTTP(w, r)
			return
		}
		if count > l.limit {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerKey(r *http.Request) string {
	if actor, ok := actorFrom(r.Context()); ok && actor.ID != "" {
		return actor.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
