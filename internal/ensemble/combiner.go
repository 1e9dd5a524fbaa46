// Package ensemble combines base ranker scores into a single ranked output
// per race.
package ensemble

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/equine-oracle/internal/models"
)

// ConfidenceScorer turns a horse's position within the field's combined
// scores into a [0,1] confidence. The signal engine provides the canonical
// implementation; the combiner never normalizes scores itself.
type ConfidenceScorer interface {
	HorseConfidence(fieldScores []float64, idx int) float64
}

// Combiner merges per-model ranker scores into one EnsembleOutput using a
// weighted sum. Weights are replaceable at runtime (from the Sharpe-based
// optimizer or an explicit override) without changing the combination
// formula. Safe for concurrent use.
type Combiner struct {
	mu      sync.RWMutex
	weights map[string]float64
	scorer  ConfidenceScorer
	logger  *logrus.Logger
}

// DefaultWeights returns the fixed starting weights for the four base
// rankers.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		models.ModelBaselineGBM:     0.35,
		models.ModelDiversityTree:   0.25,
		models.ModelCategoricalTree: 0.25,
		models.ModelNeuralNet:       0.15,
	}
}

// NewCombiner creates a combiner with the default weights.
func NewCombiner(scorer ConfidenceScorer, logger *logrus.Logger) *Combiner {
	return &Combiner{
		weights: DefaultWeights(),
		scorer:  scorer,
		logger:  logger,
	}
}

// SetWeights replaces the ensemble weights. Weights must sum to a positive
// number; they are normalized to sum to 1 on the way in.
func (c *Combiner) SetWeights(weights map[string]float64) error {
	if err := ValidateWeights(weights); err != nil {
		return err
	}

	normalized := NormalizeWeights(weights)

	c.mu.Lock()
	c.weights = normalized
	c.mu.Unlock()

	c.logger.WithField("weights", normalized).Info("Ensemble weights updated")
	return nil
}

// Weights returns a copy of the current ensemble weights.
func (c *Combiner) Weights() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]float64, len(c.weights))
	for k, v := range c.weights {
		out[k] = v
	}
	return out
}

// horseScores collects one horse's scores keyed by model name, preserving
// the order horses first appeared in the input so ties break stably.
type horseScores struct {
	name     string
	inputIdx int
	scores   map[string]float64
}

// Combine merges the per-model scores for a race into a ranked output.
// Fewer than 2 horses is rejected: a one-horse race is not predictable.
// A horse missing a model's score is combined from the remaining models
// with their weights renormalized; a horse with no scores at all is
// dropped from the ranking. Both fallbacks are logged.
func (c *Combiner) Combine(raceID string, scores []models.RankerScore) (*models.EnsembleOutput, error) {
	c.mu.RLock()
	weights := c.weights
	c.mu.RUnlock()

	if len(scores) == 0 {
		return nil, models.ErrNoRankerScores
	}

	byHorse := groupByHorse(scores)
	if len(byHorse) < 2 {
		return nil, fmt.Errorf("race %s: %w", raceID, models.ErrRaceTooSmall)
	}

	type entry struct {
		name     string
		inputIdx int
		combined float64
	}

	entries := make([]entry, 0, len(byHorse))
	for _, hs := range byHorse {
		combined, ok := c.combineHorse(raceID, hs, weights)
		if !ok {
			continue
		}
		entries = append(entries, entry{name: hs.name, inputIdx: hs.inputIdx, combined: combined})
	}

	if len(entries) < 2 {
		return nil, fmt.Errorf("race %s: %w", raceID, models.ErrRaceTooSmall)
	}

	// Stable descending sort; input order breaks ties deterministically.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].combined != entries[j].combined {
			return entries[i].combined > entries[j].combined
		}
		return entries[i].inputIdx < entries[j].inputIdx
	})

	fieldScores := make([]float64, len(entries))
	for i, e := range entries {
		fieldScores[i] = e.combined
	}
	probs := impliedProbabilities(fieldScores)

	horses := make([]models.HorsePrediction, len(entries))
	for i, e := range entries {
		horses[i] = models.HorsePrediction{
			HorseName:          e.name,
			Score:              e.combined,
			Confidence:         c.scorer.HorseConfidence(fieldScores, i),
			ImpliedProbability: probs[i],
			Rank:               i + 1,
		}
	}

	return &models.EnsembleOutput{
		ID:                 uuid.New(),
		RaceID:             raceID,
		Horses:             horses,
		EnsembleConfidence: topConfidenceMean(horses, 3),
		ModelAgreement:     modelAgreement(byHorse),
		GeneratedAt:        time.Now().UTC(),
	}, nil
}

// combineHorse computes the weighted sum for one horse, renormalizing
// weights over the models that actually scored it. Models are summed in
// sorted name order so identical inputs always produce bit-identical
// combined scores.
func (c *Combiner) combineHorse(raceID string, hs *horseScores, weights map[string]float64) (float64, bool) {
	var sum, weightSum float64
	for _, model := range sortedModels(hs.scores) {
		w, ok := weights[model]
		if !ok {
			continue
		}
		sum += w * hs.scores[model]
		weightSum += w
	}

	if weightSum == 0 {
		c.logger.WithFields(logrus.Fields{
			"race_id": raceID,
			"horse":   hs.name,
		}).Warn("No weighted ranker scores for horse, dropping from ranking")
		return 0, false
	}

	if len(hs.scores) < len(weights) {
		c.logger.WithFields(logrus.Fields{
			"race_id":     raceID,
			"horse":       hs.name,
			"scored_by":   len(hs.scores),
			"model_count": len(weights),
		}).Debug("Missing ranker scores, renormalizing remaining weights")
	}

	return sum / weightSum, true
}

// sortedModels returns the model names of a score map in sorted order.
// Summation order over a map must be fixed: float addition is not
// associative, so randomized iteration would make combined scores
// bitwise-unstable across runs.
func sortedModels(scores map[string]float64) []string {
	names := make([]string, 0, len(scores))
	for model := range scores {
		names = append(names, model)
	}
	sort.Strings(names)
	return names
}

func groupByHorse(scores []models.RankerScore) []*horseScores {
	index := make(map[string]*horseScores)
	ordered := make([]*horseScores, 0)

	for _, s := range scores {
		key := models.NormalizeHorseName(s.HorseName)
		hs, ok := index[key]
		if !ok {
			hs = &horseScores{
				name:     s.HorseName,
				inputIdx: len(ordered),
				scores:   make(map[string]float64, 4),
			}
			index[key] = hs
			ordered = append(ordered, hs)
		}
		hs.scores[s.ModelName] = s.Score
	}

	return ordered
}

// modelAgreement is 1 minus the mean per-horse variance of model scores,
// clamped to [0,1]. Identical scores across models give agreement 1; a
// large spread drives it towards 0.
func modelAgreement(byHorse []*horseScores) float64 {
	var total float64
	var counted int

	for _, hs := range byHorse {
		if len(hs.scores) < 2 {
			continue
		}
		ordered := sortedModels(hs.scores)

		var mean float64
		for _, model := range ordered {
			mean += hs.scores[model]
		}
		mean /= float64(len(hs.scores))

		var variance float64
		for _, model := range ordered {
			d := hs.scores[model] - mean
			variance += d * d
		}
		variance /= float64(len(hs.scores))

		total += variance
		counted++
	}

	if counted == 0 {
		return 1.0
	}

	agreement := 1.0 - total/float64(counted)
	return math.Max(0, math.Min(1, agreement))
}

// impliedProbabilities maps combined scores to a probability distribution
// over the field by min-shifting and normalizing. Equal scores yield a
// uniform distribution.
func impliedProbabilities(fieldScores []float64) []float64 {
	n := len(fieldScores)
	probs := make([]float64, n)

	min := fieldScores[0]
	for _, s := range fieldScores {
		if s < min {
			min = s
		}
	}

	const eps = 1e-9
	var sum float64
	for i, s := range fieldScores {
		probs[i] = s - min + eps
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// topConfidenceMean averages the confidence of the first n ranked horses.
func topConfidenceMean(horses []models.HorsePrediction, n int) float64 {
	if n > len(horses) {
		n = len(horses)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += horses[i].Confidence
	}
	return sum / float64(n)
}
