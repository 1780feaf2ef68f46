// Package deduplication implements the ingestion orchestrator's
// pre-check duplicate cache: a fast, in-memory LRU+TTL short-circuit in
// front of the authoritative SHA-256 content-hash lookup against the
// RawCaptureStore, adapted from the teacher's
// pkg/deduplication.DeduplicationManager.
package deduplication

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"

	"github.com/LarjGit/edinburgh-finds-core/internal/metrics"
)

// PrecheckCache answers "have we seen this (source, content hash)
// recently?" without touching the Store, using an LRU+TTL cache keyed by
// a fast xxhash digest of the pair. A cache miss does not mean the
// payload is new — it only means the orchestrator must fall back to the
// authoritative Store.GetByContentHash check.
type PrecheckCache struct {
	config Config
	logger *logrus.Logger

	cache   map[string]*cacheEntry
	lruHead *cacheEntry
	lruTail *cacheEntry
	mutex   sync.RWMutex

	stats Stats

	ctx    context.Context
	cancel context.CancelFunc
}

// Config configures the pre-check cache.
type Config struct {
	MaxCacheSize     int           `yaml:"max_cache_size"`
	TTL              time.Duration `yaml:"ttl"`
	CleanupInterval  time.Duration `yaml:"cleanup_interval"`
	CleanupThreshold float64       `yaml:"cleanup_threshold"`
}

type cacheEntry struct {
	Key       string
	CreatedAt time.Time
	HitCount  int64

	prev *cacheEntry
	next *cacheEntry
}

// Stats reports cache performance.
type Stats struct {
	TotalChecks    int64
	CacheHits      int64
	CacheMisses    int64
	Duplicates     int64
	CacheSize      int
	EvictedEntries int64
	CleanupRuns    int64
}

// NewPrecheckCache builds a PrecheckCache, applying defaults for any
// zero-valued config field.
func NewPrecheckCache(config Config, logger *logrus.Logger) *PrecheckCache {
	ctx, cancel := context.WithCancel(context.Background())

	if config.MaxCacheSize == 0 {
		config.MaxCacheSize = 100000
	}
	if config.TTL == 0 {
		config.TTL = time.Hour
	}
	if config.CleanupInterval == 0 {
		config.CleanupInterval = 10 * time.Minute
	}
	if config.CleanupThreshold == 0 {
		config.CleanupThreshold = 0.8
	}

	pc := &PrecheckCache{
		config: config,
		logger: logger,
		cache:  make(map[string]*cacheEntry),
		ctx:    ctx,
		cancel: cancel,
	}

	pc.lruHead = &cacheEntry{}
	pc.lruTail = &cacheEntry{}
	pc.lruHead.next = pc.lruTail
	pc.lruTail.prev = pc.lruHead

	return pc
}

// Start launches the background cleanup loop.
func (pc *PrecheckCache) Start() error {
	pc.logger.WithFields(logrus.Fields{
		"max_cache_size":    pc.config.MaxCacheSize,
		"ttl":               pc.config.TTL,
		"cleanup_interval":  pc.config.CleanupInterval,
	}).Info("starting ingestion pre-check cache")

	go pc.cleanupLoop()
	return nil
}

// Stop halts the cleanup loop.
func (pc *PrecheckCache) Stop() error {
	pc.logger.Info("stopping ingestion pre-check cache")
	pc.cancel()
	return nil
}

// Seen checks whether (source, contentHash) was already recorded, and
// records it if not. A true return means the caller may skip the
// authoritative Store lookup; a false return still requires one, since
// this cache trades false negatives (cache miss on a real duplicate) for
// speed, never false positives.
func (pc *PrecheckCache) Seen(source, contentHash string) bool {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	pc.stats.TotalChecks++
	key := cacheKey(source, contentHash)

	entry, exists := pc.cache[key]
	if exists {
		if time.Since(entry.CreatedAt) > pc.config.TTL {
			pc.removeEntry(entry)
			pc.stats.CacheMisses++
			pc.addEntry(key)
			return false
		}

		entry.HitCount++
		pc.moveToFront(entry)
		pc.stats.CacheHits++
		pc.stats.Duplicates++
		return true
	}

	pc.stats.CacheMisses++
	if len(pc.cache) >= pc.config.MaxCacheSize {
		pc.evictLeastRecentlyUsed()
	}
	pc.addEntry(key)
	return false
}

func cacheKey(source, contentHash string) string {
	h := xxhash.New()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(contentHash))
	return fmt.Sprintf("%s_%s", source, strconv.FormatUint(h.Sum64(), 16))
}

func (pc *PrecheckCache) addEntry(key string) {
	entry := &cacheEntry{Key: key, CreatedAt: time.Now(), HitCount: 1}
	pc.cache[key] = entry
	pc.addToFront(entry)
}

func (pc *PrecheckCache) removeEntry(entry *cacheEntry) {
	delete(pc.cache, entry.Key)
	pc.removeFromList(entry)
	pc.stats.EvictedEntries++
	metrics.PrecheckCacheEvictions.Inc()
}

func (pc *PrecheckCache) addToFront(entry *cacheEntry) {
	entry.prev = pc.lruHead
	entry.next = pc.lruHead.next
	pc.lruHead.next.prev = entry
	pc.lruHead.next = entry
}

func (pc *PrecheckCache) removeFromList(entry *cacheEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
}

func (pc *PrecheckCache) moveToFront(entry *cacheEntry) {
	pc.removeFromList(entry)
	pc.addToFront(entry)
}

func (pc *PrecheckCache) evictLeastRecentlyUsed() {
	if pc.lruTail.prev != pc.lruHead {
		pc.removeEntry(pc.lruTail.prev)
	}
}

func (pc *PrecheckCache) cleanupLoop() {
	ticker := time.NewTicker(pc.config.CleanupInterval)
	defer ticker.Stop()

	metricsTicker := time.NewTicker(10 * time.Second)
	defer metricsTicker.Stop()

	for {
		select {
		case <-pc.ctx.Done():
			return
		case <-ticker.C:
			pc.performCleanup()
		case <-metricsTicker.C:
			pc.updateMetrics()
		}
	}
}

func (pc *PrecheckCache) performCleanup() {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	pc.stats.CleanupRuns++
	now := time.Now()
	expiredCount := 0
	thresholdEvicted := 0

	expiredKeys := make([]string, 0)
	for key, entry := range pc.cache {
		if now.Sub(entry.CreatedAt) > pc.config.TTL {
			expiredKeys = append(expiredKeys, key)
		}
	}
	for _, key := range expiredKeys {
		if entry, exists := pc.cache[key]; exists {
			delete(pc.cache, key)
			pc.removeFromList(entry)
			expiredCount++
			pc.stats.EvictedEntries++
		}
	}

	currentUsage := float64(len(pc.cache)) / float64(pc.config.MaxCacheSize)
	if currentUsage > pc.config.CleanupThreshold {
		targetSize := int(float64(pc.config.MaxCacheSize) * (pc.config.CleanupThreshold - 0.1))
		current := pc.lruTail.prev
		for len(pc.cache) > targetSize && current != pc.lruHead {
			next := current.prev
			pc.removeEntry(current)
			thresholdEvicted++
			current = next
		}
	}

	if expiredCount > 0 || thresholdEvicted > 0 {
		pc.logger.WithFields(logrus.Fields{
			"expired_entries":   expiredCount,
			"threshold_evicted": thresholdEvicted,
			"cache_size":        len(pc.cache),
		}).Debug("pre-check cache cleanup completed")
	}

	pc.stats.CacheSize = len(pc.cache)
}

// GetStats returns a snapshot of cache performance.
func (pc *PrecheckCache) GetStats() Stats {
	pc.mutex.RLock()
	defer pc.mutex.RUnlock()

	stats := pc.stats
	stats.CacheSize = len(pc.cache)
	return stats
}

// Clear empties the cache.
func (pc *PrecheckCache) Clear() {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	pc.cache = make(map[string]*cacheEntry)
	pc.lruHead.next = pc.lruTail
	pc.lruTail.prev = pc.lruHead
	pc.logger.Info("pre-check cache cleared")
}

func (pc *PrecheckCache) updateMetrics() {
	stats := pc.GetStats()
	metrics.PrecheckCacheSize.Set(float64(stats.CacheSize))
	if stats.TotalChecks > 0 {
		metrics.PrecheckCacheHitRate.Set(float64(stats.CacheHits) / float64(stats.TotalChecks))
	}
}
