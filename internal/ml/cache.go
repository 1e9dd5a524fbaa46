// Package ml provides caching for model scores.
package ml

import (
	"fmt"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/equine-oracle/internal/models"
)

// ScoreCache provides in-memory caching of per-race, per-model score sets.
// Feature vectors for a race do not change between the card being published
// and the off, so a short TTL is safe.
type ScoreCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.RWMutex
	hitCount  uint64
	missCount uint64
}

// NewScoreCache creates a score cache with the given TTL and size cap.
func NewScoreCache(ttl time.Duration, maxSize int) *ScoreCache {
	return &ScoreCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

func cacheKey(raceID, modelName string) string {
	return fmt.Sprintf("%s:%s", raceID, modelName)
}

// Get retrieves cached scores for a race and model.
func (sc *ScoreCache) Get(raceID, modelName string) []models.RankerScore {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if entry, found := sc.cache.Get(cacheKey(raceID, modelName)); found {
		if scores, ok := entry.([]models.RankerScore); ok {
			sc.hitCount++
			return scores
		}
	}

	sc.missCount++
	return nil
}

// Set stores scores for a race and model.
func (sc *ScoreCache) Set(raceID, modelName string, scores []models.RankerScore) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	// Check size limit
	if sc.cache.ItemCount() >= sc.maxSize {
		sc.cache.DeleteExpired()
	}

	sc.cache.Set(cacheKey(raceID, modelName), scores, sc.ttl)
}

// InvalidateModel removes all cached scores for one model. Called after a
// retrain completes so stale scores are not combined with fresh ones.
func (sc *ScoreCache) InvalidateModel(modelName string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	suffix := ":" + modelName
	for key := range sc.cache.Items() {
		if len(key) >= len(suffix) && key[len(key)-len(suffix):] == suffix {
			sc.cache.Delete(key)
		}
	}
}

// Clear flushes the entire cache.
func (sc *ScoreCache) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.cache.Flush()
	sc.hitCount = 0
	sc.missCount = 0
}

// Stats returns cache statistics.
func (sc *ScoreCache) Stats() (hits, misses uint64, ratio float64) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	hits = sc.hitCount
	misses = sc.missCount
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of items in cache.
func (sc *ScoreCache) ItemCount() int {
	return sc.cache.ItemCount()
}
