package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/pkg/clock"
	"github.com/ecodeclub/ekit/syncx"
)

var _ Limiter = (*SlidingWindowLimiter)(nil)

// SlidingWindowLimiter 单机滑动窗口。
// 每个 key 一把锁，读取、判断、计数在同一把锁里完成，不同 key 之间互不阻塞。
// 每过一个窗口清理一次已经空了的 key
type SlidingWindowLimiter struct {
	clock    clock.Clock
	interval time.Duration
	rate     int
	windows  syncx.Map[string, *window]
	// lastSweep 上一次清理的时间，纳秒
	lastSweep atomic.Int64
}

type window struct {
	mu sync.Mutex
	// 窗口内被放行的请求时间，按时间升序
	hits []time.Time
	// dead 已经从 map 里移除，拿到它的调用方要重新取
	dead bool
}

func NewSlidingWindowLimiter(clk clock.Clock, interval time.Duration, rate int) *SlidingWindowLimiter {
	l := &SlidingWindowLimiter{
		clock:    clk,
		interval: interval,
		rate:     rate,
	}
	l.lastSweep.Store(clk.Now().UnixNano())
	return l
}

func (l *SlidingWindowLimiter) Limit(_ context.Context, key string) (bool, error) {
	now := l.clock.Now()
	l.maybeSweep(now)
	for {
		w, _ := l.windows.LoadOrStore(key, &window{})
		w.mu.Lock()
		if w.dead {
			w.mu.Unlock()
			continue
		}
		w.evict(now.Add(-l.interval))
		if len(w.hits) >= l.rate {
			w.mu.Unlock()
			return true, nil
		}
		w.hits = append(w.hits, now)
		w.mu.Unlock()
		return false, nil
	}
}

// maybeSweep 距离上一次清理超过一个窗口时，移除所有请求都已经滑出窗口的 key
func (l *SlidingWindowLimiter) maybeSweep(now time.Time) {
	last := l.lastSweep.Load()
	if now.UnixNano()-last < int64(l.interval) || !l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	before := now.Add(-l.interval)
	l.windows.Range(func(key string, w *window) bool {
		w.mu.Lock()
		w.evict(before)
		if len(w.hits) == 0 {
			l.remove(key, w)
		}
		w.mu.Unlock()
		return true
	})
}

// remove 调用方持有 w.mu
func (l *SlidingWindowLimiter) remove(key string, w *window) {
	w.dead = true
	l.windows.Delete(key)
}

// Window 当前窗口的快照
func (l *SlidingWindowLimiter) Window(key string) domain.RateLimitWindow {
	res := domain.RateLimitWindow{Key: key}
	w, ok := l.windows.Load(key)
	if !ok {
		return res
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evict(l.clock.Now().Add(-l.interval))
	if len(w.hits) > 0 {
		res.WindowStart = w.hits[0]
	}
	res.CountInWindow = len(w.hits)
	return res
}

// Reset 清空某个 key 的窗口
func (l *SlidingWindowLimiter) Reset(key string) {
	w, ok := l.windows.Load(key)
	if !ok {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dead {
		l.remove(key, w)
	}
}

// evict 淘汰不晚于 before 的请求
func (w *window) evict(before time.Time) {
	i := 0
	for i < len(w.hits) && !w.hits[i].After(before) {
		i++
	}
	if i > 0 {
		w.hits = append(w.hits[:0], w.hits[i:]...)
	}
}
