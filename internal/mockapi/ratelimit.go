package mockapi

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/apperror"
)

type LimiterConfig struct {
	Capacity int
	RatePS   float64 // tokens/秒
}

func defaultLoginLimit() LimiterConfig {
	return LimiterConfig{Capacity: 10, RatePS: 0.5}
}

/*
tokenBucket 取用時才補充，不需要背景 goroutine
current 與 lastRefilled 以 CAS 更新
*/
type tokenBucket struct {
	LimiterConfig
	current      atomic.Int64
	lastRefilled atomic.Int64
	now          func() time.Time
}

func newTokenBucket(cfg LimiterConfig, now func() time.Time) *tokenBucket {
	t := &tokenBucket{LimiterConfig: cfg, now: now}
	t.current.Store(int64(cfg.Capacity))
	t.lastRefilled.Store(now().UnixNano())
	return t
}

func (t *tokenBucket) refill() {
	for {
		now := t.now().UnixNano()
		last := t.lastRefilled.Load()
		toAdd := int64(time.Duration(now-last).Seconds() * t.RatePS)
		if toAdd <= 0 {
			return
		}
		if !t.lastRefilled.CompareAndSwap(last, now) {
			continue
		}
		for {
			current := t.current.Load()
			next := current + toAdd
			if next > int64(t.Capacity) {
				next = int64(t.Capacity)
			}
			if t.current.CompareAndSwap(current, next) {
				return
			}
		}
	}
}

func (t *tokenBucket) Allow() bool {
	t.refill()
	for {
		current := t.current.Load()
		if current <= 0 {
			return false
		}
		if t.current.CompareAndSwap(current, current-1) {
			return true
		}
	}
}

// keyedLimiter 每個來源 IP 一個 bucket
type keyedLimiter struct {
	cfg     LimiterConfig
	now     func() time.Time
	buckets sync.Map
}

func newKeyedLimiter(cfg LimiterConfig, now func() time.Time) *keyedLimiter {
	return &keyedLimiter{cfg: cfg, now: now}
}

func (l *keyedLimiter) Allow(key string) bool {
	b, ok := l.buckets.Load(key)
	if !ok {
		b, _ = l.buckets.LoadOrStore(key, newTokenBucket(l.cfg, l.now))
	}
	return b.(*tokenBucket).Allow()
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware 登入與註冊限流，超過回 429 RATE_LIMITED
func RateLimitMiddleware(l *keyedLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(clientKey(r)) {
				writeError(w, apperror.FromResponse(http.StatusTooManyRequests, string(apperror.RateLimitedCode), "", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
