package ranker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/equine-oracle/internal/models"
)

type stubScorer struct {
	name string
}

func (s *stubScorer) Name() string { return s.name }

func (s *stubScorer) Score(ctx context.Context, raceID string, horses []models.FeatureVector) ([]models.RankerScore, error) {
	scores := make([]models.RankerScore, len(horses))
	for i, h := range horses {
		scores[i] = models.RankerScore{ModelName: s.name, HorseName: h.HorseName, RaceID: raceID, Score: float64(i)}
	}
	return scores, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register(&stubScorer{name: models.ModelBaselineGBM})
	require.NoError(t, err)

	s, ok := reg.Get(models.ModelBaselineGBM)
	assert.True(t, ok)
	assert.Equal(t, models.ModelBaselineGBM, s.Name())

	_, ok = reg.Get(models.ModelNeuralNet)
	assert.False(t, ok)
}

func TestRegistryDuplicateRegistration(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(&stubScorer{name: models.ModelNeuralNet}))
	err := reg.Register(&stubScorer{name: models.ModelNeuralNet})
	assert.Error(t, err)
}

func TestRegistryPreservesOrder(t *testing.T) {
	reg := NewRegistry()

	for _, name := range models.BaseRankerNames {
		require.NoError(t, reg.Register(&stubScorer{name: name}))
	}

	assert.Equal(t, models.BaseRankerNames, reg.Names())

	all := reg.All()
	require.Len(t, all, len(models.BaseRankerNames))
	for i, s := range all {
		assert.Equal(t, models.BaseRankerNames[i], s.Name())
	}
}
