package vector

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/errors"
)

func TestSigmoid(t *testing.T) {
	assert.Equal(t, 0.5, Sigmoid(0))
	assert.InDelta(t, 1/(1+math.Exp(-3)), Sigmoid(3), 1e-12)
	assert.Less(t, Sigmoid(-1), 0.5)
}

func TestComputeLengthScores_ThreeFiles(t *testing.T) {
	scores, stats, err := ComputeLengthScores(map[string]int{"a": 10, "big": 1000, "b": 10})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, 340.0, stats.Average, 1e-9)
	assert.InDelta(t, math.Sqrt(217800), stats.StandardDeviation, 1e-9)
	assert.InDelta(t, 340-3*math.Sqrt(217800), stats.Low, 1e-9)
	assert.InDelta(t, 340+3*math.Sqrt(217800), stats.High, 1e-9)
	assert.Less(t, stats.Low, 0.0)
	assert.Equal(t, 0.0, stats.Min)

	// 1000 stays below high, so it is scored on the logistic curve
	assert.Less(t, 1000.0, stats.High)
	assert.InDelta(t, Sigmoid(6*1000/stats.High), scores["big"], 1e-12)
	assert.Less(t, scores["big"], 1.0)
	assert.InDelta(t, Sigmoid(6*10/stats.High), scores["a"], 1e-12)
	assert.Equal(t, scores["a"], scores["b"])
}

func TestComputeLengthScores_OutlierAboveHigh(t *testing.T) {
	lengths := map[string]int{"huge": 10000}
	for i := 0; i < 20; i++ {
		lengths[fmt.Sprintf("small-%d", i)] = 10
	}
	scores, stats, err := ComputeLengthScores(lengths)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, 10000.0, stats.High)
	assert.Equal(t, 1.0, scores["huge"])
	assert.Greater(t, scores["small-0"], 0.5)

	// the normalized value is capped at 6 for reporting, the score ignores it
	uncapped := 6 * (10000 - stats.Min) / (stats.High - stats.Min)
	assert.Greater(t, uncapped, 6.0)
	assert.Equal(t, 6.0, stats.Normalized["huge"])
}

func TestComputeLengthScores_BelowLow(t *testing.T) {
	lengths := map[string]int{"tiny": 1}
	for i := 0; i < 30; i++ {
		lengths[fmt.Sprintf("file-%d", i)] = 1000
	}
	scores, stats, err := ComputeLengthScores(lengths)
	require.NoError(t, err)

	assert.Greater(t, stats.Low, 1.0)
	assert.Equal(t, stats.Low, stats.Min)
	assert.Equal(t, 0.5, scores["tiny"])

	normalized := 6 * (1000 - stats.Min) / (stats.High - stats.Min)
	assert.InDelta(t, Sigmoid(normalized), scores["file-0"], 1e-12)
	assert.InDelta(t, normalized, stats.Normalized["file-0"], 1e-12)
}

func TestComputeLengthScores_ZeroLengthFloorsToHalf(t *testing.T) {
	scores, stats, err := ComputeLengthScores(map[string]int{"empty": 0, "a": 10, "b": 20})
	require.NoError(t, err)

	// the empty file counts towards the sum but not the population
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, 30, stats.Sum)
	assert.InDelta(t, 15.0, stats.Average, 1e-12)
	assert.InDelta(t, 5.0, stats.StandardDeviation, 1e-12)
	assert.Equal(t, 0.5, scores["empty"])
}

func TestComputeLengthScores_EqualLengths(t *testing.T) {
	// zero deviation puts every file exactly on low
	scores, stats, err := ComputeLengthScores(map[string]int{"a": 7, "b": 7})
	require.NoError(t, err)
	assert.Zero(t, stats.StandardDeviation)
	assert.Equal(t, 0.5, scores["a"])
	assert.Equal(t, 0.5, scores["b"])
}

func TestComputeLengthScores_EqualLengthsKeepNormalizedFinite(t *testing.T) {
	scores, stats, err := ComputeLengthScores(map[string]int{"a": 7, "b": 7, "empty": 0})
	require.NoError(t, err)
	for name, n := range stats.Normalized {
		assert.False(t, math.IsNaN(n) || math.IsInf(n, 0), name)
		assert.Zero(t, n, name)
	}
	assert.Len(t, stats.Normalized, 3)
	assert.Equal(t, 0.5, scores["empty"])
}

func TestComputeLengthScores_EmptyCorpus(t *testing.T) {
	for name, lengths := range map[string]map[string]int{
		"no files":  {},
		"all empty": {"a": 0, "b": 0},
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := ComputeLengthScores(lengths)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrEmptyCorpus)
		})
	}
}

func TestComputeLengthScores_AlwaysWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		n := 1 + rng.Intn(40)
		lengths := make(map[string]int, n)
		for i := 0; i < n; i++ {
			var l int
			switch rng.Intn(4) {
			case 0:
				l = 0
			case 1:
				l = rng.Intn(10)
			case 2:
				l = rng.Intn(1000)
			default:
				l = rng.Intn(100000)
			}
			lengths[fmt.Sprintf("f%d", i)] = l
		}
		lengths["anchor"] = 1 + rng.Intn(500)

		scores, _, err := ComputeLengthScores(lengths)
		require.NoError(t, err)
		require.Len(t, scores, len(lengths))
		for name, s := range scores {
			assert.GreaterOrEqual(t, s, 0.5, "round %d file %s", round, name)
			assert.LessOrEqual(t, s, 1.0, "round %d file %s", round, name)
		}
	}
}
