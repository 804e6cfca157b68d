package vector

import (
	"math"

	apperrors "github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/errors"
)

const (
	minLengthScore = 0.5
	maxLengthScore = 1.0
	// normalizedSpan maps the [min, high) length range onto [0, 6) before
	// the logistic function is applied.
	normalizedSpan = 6.0
	deviations     = 3.0
)

// LengthStats describes the length distribution a set of scores was
// computed from.
type LengthStats struct {
	Count             int
	Sum               int
	Average           float64
	StandardDeviation float64
	Low               float64
	High              float64
	Min               float64
	// Normalized holds each file's normalized length capped at 6. It is
	// informational only; scores use the uncapped value.
	Normalized map[string]float64
}

// Sigmoid is the standard logistic function eˣ/(1+eˣ).
func Sigmoid(x float64) float64 {
	return math.Exp(x) / (1 + math.Exp(x))
}

// ComputeLengthScores scores every file by its corpus length relative to the
// population of non-empty files. Scores fall in [0.5, 1.0]: empty files and
// files at or below mean-3σ get 0.5, files at or above mean+3σ get 1.0, and
// files in between follow the logistic curve over the normalized length.
func ComputeLengthScores(lengths map[string]int) (map[string]float64, LengthStats, error) {
	var stats LengthStats
	for _, l := range lengths {
		if l != 0 {
			stats.Count++
		}
		stats.Sum += l
	}
	if stats.Count == 0 {
		return nil, stats, &apperrors.EmptyCorpusError{}
	}

	stats.Average = float64(stats.Sum) / float64(stats.Count)
	var squareDeviation float64
	for _, l := range lengths {
		if l != 0 {
			d := float64(l) - stats.Average
			squareDeviation += d * d
		}
	}
	stats.StandardDeviation = math.Sqrt(squareDeviation / float64(stats.Count))
	stats.Low = stats.Average - deviations*stats.StandardDeviation
	stats.High = stats.Average + deviations*stats.StandardDeviation
	stats.Min = math.Max(0, stats.Low)
	stats.Normalized = make(map[string]float64, len(lengths))

	span := stats.High - stats.Min
	scores := make(map[string]float64, len(lengths))
	for name, l := range lengths {
		length := float64(l)
		// With zero deviation every non-empty file sits on low and high.
		var normalized float64
		if span > 0 {
			normalized = normalizedSpan * (length - stats.Min) / span
		}

		var score float64
		switch {
		case l == 0:
			score = 0
		case length > stats.Low && length < stats.High:
			score = Sigmoid(normalized)
		case length <= stats.Low:
			score = minLengthScore
		default:
			score = maxLengthScore
		}
		if normalized > normalizedSpan {
			normalized = normalizedSpan
		}
		// The zero-length branch and the lower logistic tail both land here.
		if score < minLengthScore {
			score = minLengthScore
		}

		stats.Normalized[name] = normalized
		scores[name] = score
	}
	return scores, stats, nil
}
