package domain

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
)

// ScorePath records which scoring strategy produced a probability.
type ScorePath string

const (
	PathProbability   ScorePath = "probability"
	PathDecisionScore ScorePath = "decision_score"
	PathLabel         ScorePath = "label"
	PathFallback      ScorePath = "fallback"
)

// Fallback distribution parameters: a synthetic probability drawn when a
// classifier invocation fails, centered just above the uncertainty midpoint.
const (
	fallbackMean   = 0.45
	fallbackStdDev = 0.15
)

// Scorer converts a feature vector into a risk probability in [0, 1].
type Scorer struct {
	fallback bool
	logger   *slog.Logger
}

// NewScorer creates a Scorer. When fallback is true, classifier invocation
// failures are absorbed into a synthetic probability and logged as a
// data-quality warning instead of failing the request.
func NewScorer(fallback bool, logger *slog.Logger) *Scorer {
	return &Scorer{fallback: fallback, logger: logger}
}

// Score dispatches to the classifier's highest-priority capability:
// probability, then decision score, then plain label. The returned ScorePath
// tells the caller which strategy ran.
func (s *Scorer) Score(ctx context.Context, clf Classifier, features FeatureVector) (float64, ScorePath, error) {
	p, path, err := invoke(ctx, clf, features)
	if err == nil {
		return clamp01(p), path, nil
	}

	if !s.fallback {
		return 0, path, err
	}

	s.logger.Warn("classifier invocation failed, using synthetic probability",
		"model", clf.Describe(),
		"error", err,
	)
	return s.syntheticProbability(), PathFallback, nil
}

// invoke runs the classifier through its advertised capability. Case order is
// the dispatch priority: a model exposing several capabilities is always
// scored through the strongest one.
func invoke(ctx context.Context, clf Classifier, features FeatureVector) (float64, ScorePath, error) {
	switch m := clf.(type) {
	case ProbabilityClassifier:
		p, err := m.PredictProbability(ctx, features)
		return p, PathProbability, err
	case ScoreClassifier:
		margin, err := m.DecisionScore(ctx, features)
		if err != nil {
			return 0, PathDecisionScore, err
		}
		return Logistic(margin), PathDecisionScore, nil
	case LabelClassifier:
		label, err := m.PredictLabel(ctx, features)
		return float64(label), PathLabel, err
	default:
		return 0, "", fmt.Errorf("classifier %q exposes no scoring capability", clf.Describe())
	}
}

// syntheticProbability draws from Normal(0.45, 0.15) clipped to [0, 1]. The
// generator is local to the call; degraded-mode scoring must not disturb any
// shared random state.
func (s *Scorer) syntheticProbability() float64 {
	rng := rand.New(rand.NewSource(clock.Now().UnixNano()))
	return clamp01(fallbackMean + fallbackStdDev*rng.NormFloat64())
}

// Logistic maps a raw decision margin to a probability: 1 / (1 + e^-s).
func Logistic(margin float64) float64 {
	return 1 / (1 + math.Exp(-margin))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
