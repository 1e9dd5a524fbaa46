package ml

import (
	"context"

	"github.com/yourusername/equine-oracle/internal/metrics"
	"github.com/yourusername/equine-oracle/internal/models"
	"github.com/yourusername/equine-oracle/internal/ranker"
)

// CachedScorer wraps a ranker.Scorer with the score cache.
type CachedScorer struct {
	inner ranker.Scorer
	cache *ScoreCache
}

// NewCachedScorer wraps a scorer with caching.
func NewCachedScorer(inner ranker.Scorer, cache *ScoreCache) *CachedScorer {
	return &CachedScorer{inner: inner, cache: cache}
}

// Name returns the wrapped scorer's model name.
func (s *CachedScorer) Name() string { return s.inner.Name() }

// Score returns cached scores when present, otherwise scores through the
// wrapped scorer and caches the result. A cached set is only used when it
// covers the requested field.
func (s *CachedScorer) Score(ctx context.Context, raceID string, horses []models.FeatureVector) ([]models.RankerScore, error) {
	if cached := s.cache.Get(raceID, s.Name()); len(cached) == len(horses) {
		metrics.RecordScoringCacheHit(s.Name())
		return cached, nil
	}

	scores, err := s.inner.Score(ctx, raceID, horses)
	if err != nil {
		return nil, err
	}

	s.cache.Set(raceID, s.Name(), scores)
	return scores, nil
}
