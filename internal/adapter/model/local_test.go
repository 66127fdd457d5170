package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrowatch/pest-advisory-service/internal/domain"
)

func testFeatures() domain.FeatureVector {
	return domain.FeatureVector{
		RainfallMM:   120,
		TemperatureC: 30,
		HumidityPct:  70,
		NDVI:         0.5,
	}
}

func TestLogisticModel(t *testing.T) {
	clf, err := newLogisticModel(domain.CropRice, []float64{0.01, 0.02, -0.01, 1.0}, -1.0)
	require.NoError(t, err)
	ctx := context.Background()

	// margin = -1 + 0.01*120 + 0.02*30 - 0.01*70 + 1.0*0.5 = 0.6
	s, err := clf.DecisionScore(ctx, testFeatures())
	require.NoError(t, err)
	assert.InDelta(t, 0.6, s, 1e-12)

	p, err := clf.PredictProbability(ctx, testFeatures())
	require.NoError(t, err)
	assert.InDelta(t, domain.Logistic(0.6), p, 1e-12)

	// The scorer must recognize both capabilities.
	var c domain.Classifier = clf
	_, isProb := c.(domain.ProbabilityClassifier)
	_, isScore := c.(domain.ScoreClassifier)
	assert.True(t, isProb)
	assert.True(t, isScore)
}

func TestLogisticModelWeightCount(t *testing.T) {
	_, err := newLogisticModel(domain.CropRice, []float64{0.1, 0.2}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 4 weights")
}

func TestLinearMarginModel(t *testing.T) {
	clf, err := newLinearMarginModel(domain.CropCotton, []float64{0, 0.1, 0, 0}, -3.0)
	require.NoError(t, err)

	s, err := clf.DecisionScore(context.Background(), testFeatures())
	require.NoError(t, err)
	assert.InDelta(t, 0.0, s, 1e-12)

	// Margin-only: the probability capability must NOT be exposed, or the
	// scorer would skip the logistic mapping.
	var c domain.Classifier = clf
	_, isProb := c.(domain.ProbabilityClassifier)
	assert.False(t, isProb)
}

func TestDecisionStump(t *testing.T) {
	// Rule on humidity (index 2): label 1 at or above the cutoff.
	clf, err := newDecisionStump(domain.CropCotton, 2, 70)
	require.NoError(t, err)
	ctx := context.Background()

	label, err := clf.PredictLabel(ctx, testFeatures())
	require.NoError(t, err)
	assert.Equal(t, 1, label)

	dry := testFeatures()
	dry.HumidityPct = 50
	label, err = clf.PredictLabel(ctx, dry)
	require.NoError(t, err)
	assert.Equal(t, 0, label)
}

func TestDecisionStumpIndexRange(t *testing.T) {
	_, err := newDecisionStump(domain.CropCotton, 4, 0.5)
	require.Error(t, err)

	_, err = newDecisionStump(domain.CropCotton, -1, 0.5)
	require.Error(t, err)
}
