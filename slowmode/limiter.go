// Package slowmode enforces channel slow mode on the client side, so a send
// the backend would reject for rate reasons never leaves the device. Each
// channel with a non-zero interval gets a token-bucket limiter; entries are
// LRU-evicted and idle ones cleaned up in the background to keep the map
// bounded across long sessions.
package slowmode

import (
	"container/list"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrThrottled is returned by Allow when a send arrives inside a channel's
// slow mode interval.
var ErrThrottled = errors.New("slow mode interval not elapsed")

// limiterEntry tracks a channel limiter and its last access time
type limiterEntry struct {
	channelID  string
	limiter    *rate.Limiter
	interval   time.Duration
	lastAccess time.Time
}

// Limiter provides per-channel slow mode limiting with LRU eviction to
// prevent unbounded memory growth.
type Limiter struct {
	limiters        map[string]*list.Element // channel ID -> list element
	lruList         *list.List               // LRU list of *limiterEntry
	mu              sync.RWMutex
	maxEntries      int
	logger          *slog.Logger
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once

	totalEvictions int64
}

// NewLimiter creates a limiter with automatic cleanup and LRU eviction.
// Default max entries is 1,000; use NewLimiterWithConfig for custom limits.
func NewLimiter(logger *slog.Logger) *Limiter {
	return NewLimiterWithConfig(1000, logger)
}

// NewLimiterWithConfig creates a limiter tracking at most maxEntries
// channels simultaneously; least recently used entries are evicted at the
// limit. maxEntries of 0 means unlimited.
func NewLimiterWithConfig(maxEntries int, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	if maxEntries < 0 {
		maxEntries = 1000
	}

	l := &Limiter{
		limiters:        make(map[string]*list.Element),
		lruList:         list.New(),
		maxEntries:      maxEntries,
		logger:          logger,
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	go l.cleanupLoop()

	return l
}

// SetInterval sets a channel's slow mode interval in seconds. Zero removes
// the channel's limiter entirely. Changing the interval resets the bucket,
// so the next send after a change is always allowed.
func (l *Limiter) SetInterval(channelID string, seconds int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if seconds <= 0 {
		if elem, exists := l.limiters[channelID]; exists {
			l.lruList.Remove(elem)
			delete(l.limiters, channelID)
		}
		return
	}

	interval := time.Duration(seconds) * time.Second
	if elem, exists := l.limiters[channelID]; exists {
		entry := elem.Value.(*limiterEntry)
		if entry.interval == interval {
			return
		}
		entry.interval = interval
		entry.limiter = rate.NewLimiter(rate.Every(interval), 1)
		l.lruList.MoveToFront(elem)
		return
	}

	if l.maxEntries > 0 && len(l.limiters) >= l.maxEntries {
		l.evictLRU()
	}

	entry := &limiterEntry{
		channelID:  channelID,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		interval:   interval,
		lastAccess: time.Now(),
	}
	l.limiters[channelID] = l.lruList.PushFront(entry)
}

// Allow reports whether a send to the channel may proceed now, consuming
// the channel's slow mode token if so. Channels without a configured
// interval always pass.
func (l *Limiter) Allow(channelID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	elem, exists := l.limiters[channelID]
	if !exists {
		return nil
	}

	l.lruList.MoveToFront(elem)
	entry := elem.Value.(*limiterEntry)
	entry.lastAccess = time.Now()
	if !entry.limiter.Allow() {
		return ErrThrottled
	}
	return nil
}

// Wait blocks until the channel's slow mode interval allows a send, the
// context is canceled, or its deadline would pass before the next token.
func (l *Limiter) Wait(ctx context.Context, channelID string) error {
	l.mu.Lock()
	elem, exists := l.limiters[channelID]
	if !exists {
		l.mu.Unlock()
		return nil
	}
	l.lruList.MoveToFront(elem)
	entry := elem.Value.(*limiterEntry)
	entry.lastAccess = time.Now()
	limiter := entry.limiter
	l.mu.Unlock()

	return limiter.Wait(ctx)
}

// Interval returns the channel's configured slow mode interval, zero if none.
func (l *Limiter) Interval(channelID string) time.Duration {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if elem, exists := l.limiters[channelID]; exists {
		return elem.Value.(*limiterEntry).interval
	}
	return 0
}

// evictLRU removes the least recently used entry. Must be called with the
// mutex locked.
func (l *Limiter) evictLRU() {
	elem := l.lruList.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*limiterEntry)
	delete(l.limiters, entry.channelID)
	l.lruList.Remove(elem)
	l.totalEvictions++

	l.logger.Debug("slow mode limiter LRU eviction",
		"channel_id", entry.channelID,
		"total_evictions", l.totalEvictions,
		"current_entries", len(l.limiters))
}

// cleanupLoop periodically removes idle limiters to prevent memory leaks
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Cleanup(30 * time.Minute)
		case <-l.stopCleanup:
			return
		}
	}
}

// Cleanup removes limiters that haven't been touched for maxIdleTime.
func (l *Limiter) Cleanup(maxIdleTime time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	removed := 0

	var next *list.Element
	for elem := l.lruList.Front(); elem != nil; elem = next {
		next = elem.Next()
		entry := elem.Value.(*limiterEntry)
		if now.Sub(entry.lastAccess) > maxIdleTime {
			delete(l.limiters, entry.channelID)
			l.lruList.Remove(elem)
			removed++
		}
	}

	if removed > 0 {
		l.logger.Debug("slow mode limiter cleanup completed",
			"removed", removed,
			"remaining", len(l.limiters))
	}
}

// Stop gracefully stops the cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}
