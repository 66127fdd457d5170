package model

import (
	"context"
	"fmt"

	"github.com/agrowatch/pest-advisory-service/internal/domain"
)

// LogisticModel is a binary logistic-regression classifier evaluated locally.
// It exposes both the probability and decision-score capabilities; the scorer
// always prefers probability.
type LogisticModel struct {
	crop      domain.Crop
	weights   []float64
	intercept float64
}

func newLogisticModel(crop domain.Crop, weights []float64, intercept float64) (*LogisticModel, error) {
	if err := checkWeights(weights); err != nil {
		return nil, err
	}
	return &LogisticModel{crop: crop, weights: weights, intercept: intercept}, nil
}

func (m *LogisticModel) Describe() string { return "logistic" }

func (m *LogisticModel) DecisionScore(_ context.Context, features domain.FeatureVector) (float64, error) {
	return margin(m.weights, m.intercept, features)
}

func (m *LogisticModel) PredictProbability(ctx context.Context, features domain.FeatureVector) (float64, error) {
	s, err := m.DecisionScore(ctx, features)
	if err != nil {
		return 0, err
	}
	return domain.Logistic(s), nil
}

// LinearMarginModel is a linear classifier (e.g. an exported SVM) that only
// produces a raw decision margin; the scorer maps it through the logistic
// function.
type LinearMarginModel struct {
	crop      domain.Crop
	weights   []float64
	intercept float64
}

func newLinearMarginModel(crop domain.Crop, weights []float64, intercept float64) (*LinearMarginModel, error) {
	if err := checkWeights(weights); err != nil {
		return nil, err
	}
	return &LinearMarginModel{crop: crop, weights: weights, intercept: intercept}, nil
}

func (m *LinearMarginModel) Describe() string { return "linear" }

func (m *LinearMarginModel) DecisionScore(_ context.Context, features domain.FeatureVector) (float64, error) {
	return margin(m.weights, m.intercept, features)
}

// DecisionStump is a single-feature threshold rule, the degraded label-only
// capability. Probabilities derived from it are hard 0/1.
type DecisionStump struct {
	crop         domain.Crop
	featureIndex int
	cutoff       float64
}

func newDecisionStump(crop domain.Crop, featureIndex int, cutoff float64) (*DecisionStump, error) {
	if featureIndex < 0 || featureIndex >= len(domain.FeatureNames()) {
		return nil, fmt.Errorf("stump feature index %d out of range", featureIndex)
	}
	return &DecisionStump{crop: crop, featureIndex: featureIndex, cutoff: cutoff}, nil
}

func (m *DecisionStump) Describe() string { return "stump" }

func (m *DecisionStump) PredictLabel(_ context.Context, features domain.FeatureVector) (int, error) {
	if features.Values()[m.featureIndex] >= m.cutoff {
		return 1, nil
	}
	return 0, nil
}

func checkWeights(weights []float64) error {
	if expected := len(domain.FeatureNames()); len(weights) != expected {
		return fmt.Errorf("expected %d weights, got %d", expected, len(weights))
	}
	return nil
}

func margin(weights []float64, intercept float64, features domain.FeatureVector) (float64, error) {
	values := features.Values()
	if len(values) != len(weights) {
		return 0, fmt.Errorf("feature count %d does not match weight count %d", len(values), len(weights))
	}

	s := intercept
	for i, w := range weights {
		s += w * values[i]
	}
	return s, nil
}
