package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProbability exposes only the probability capability.
type stubProbability struct {
	p      float64
	err    error
	called bool
}

func (s *stubProbability) Describe() string { return "stub-probability" }

func (s *stubProbability) PredictProbability(_ context.Context, _ FeatureVector) (float64, error) {
	s.called = true
	return s.p, s.err
}

// stubScore exposes only the decision-score capability.
type stubScore struct {
	margin float64
	err    error
	called bool
}

func (s *stubScore) Describe() string { return "stub-score" }

func (s *stubScore) DecisionScore(_ context.Context, _ FeatureVector) (float64, error) {
	s.called = true
	return s.margin, s.err
}

// stubLabel exposes only label prediction.
type stubLabel struct {
	label int
	err   error
}

func (s *stubLabel) Describe() string { return "stub-label" }

func (s *stubLabel) PredictLabel(_ context.Context, _ FeatureVector) (int, error) {
	return s.label, s.err
}

// stubDual exposes both probability and decision score, recording which
// method the scorer actually invoked.
type stubDual struct {
	probCalled  bool
	scoreCalled bool
}

func (s *stubDual) Describe() string { return "stub-dual" }

func (s *stubDual) PredictProbability(_ context.Context, _ FeatureVector) (float64, error) {
	s.probCalled = true
	return 0.8, nil
}

func (s *stubDual) DecisionScore(_ context.Context, _ FeatureVector) (float64, error) {
	s.scoreCalled = true
	return 2.0, nil
}

// stubBare implements Classifier but no capability.
type stubBare struct{}

func (stubBare) Describe() string { return "stub-bare" }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFeatures() FeatureVector {
	return GenerateFeatures(19.0, 73.0)
}

func TestScoreProbabilityPath(t *testing.T) {
	scorer := NewScorer(true, discardLogger())
	clf := &stubProbability{p: 0.72}

	p, path, err := scorer.Score(context.Background(), clf, testFeatures())

	require.NoError(t, err)
	assert.Equal(t, PathProbability, path)
	assert.Equal(t, 0.72, p)
	assert.True(t, clf.called)
}

func TestScoreDecisionScorePath(t *testing.T) {
	scorer := NewScorer(true, discardLogger())

	tests := []struct {
		name     string
		margin   float64
		expected float64
	}{
		{"zero margin is coin flip", 0, 0.5},
		{"large positive margin saturates high", 10, Logistic(10)},
		{"large negative margin saturates low", -10, Logistic(-10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, path, err := scorer.Score(context.Background(), &stubScore{margin: tt.margin}, testFeatures())

			require.NoError(t, err)
			assert.Equal(t, PathDecisionScore, path)
			assert.InDelta(t, tt.expected, p, 1e-12)
		})
	}
}

func TestScoreLabelPath(t *testing.T) {
	scorer := NewScorer(true, discardLogger())

	p, path, err := scorer.Score(context.Background(), &stubLabel{label: 1}, testFeatures())
	require.NoError(t, err)
	assert.Equal(t, PathLabel, path)
	assert.Equal(t, 1.0, p)

	p, _, err = scorer.Score(context.Background(), &stubLabel{label: 0}, testFeatures())
	require.NoError(t, err)
	assert.Equal(t, 0.0, p)
}

func TestScoreProbabilityWinsOverDecisionScore(t *testing.T) {
	scorer := NewScorer(true, discardLogger())
	clf := &stubDual{}

	p, path, err := scorer.Score(context.Background(), clf, testFeatures())

	require.NoError(t, err)
	assert.Equal(t, PathProbability, path)
	assert.Equal(t, 0.8, p)
	assert.True(t, clf.probCalled)
	assert.False(t, clf.scoreCalled, "decision score must not run when probability is available")
}

func TestScoreClampsOutOfRangeProbability(t *testing.T) {
	scorer := NewScorer(true, discardLogger())

	p, _, err := scorer.Score(context.Background(), &stubProbability{p: 1.4}, testFeatures())
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)

	p, _, err = scorer.Score(context.Background(), &stubProbability{p: -0.2}, testFeatures())
	require.NoError(t, err)
	assert.Equal(t, 0.0, p)
}

func TestScoreFallbackAbsorbsInvocationError(t *testing.T) {
	scorer := NewScorer(true, discardLogger())
	boom := errors.New("feature shape mismatch")

	// Run repeatedly: every synthetic draw must land in [0, 1].
	for range 50 {
		p, path, err := scorer.Score(context.Background(), &stubProbability{err: boom}, testFeatures())

		require.NoError(t, err)
		assert.Equal(t, PathFallback, path)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestScoreFallbackDisabledPropagatesError(t *testing.T) {
	scorer := NewScorer(false, discardLogger())
	boom := errors.New("model artifact corrupt")

	_, _, err := scorer.Score(context.Background(), &stubScore{err: boom}, testFeatures())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestScoreNoCapability(t *testing.T) {
	scorer := NewScorer(false, discardLogger())

	_, _, err := scorer.Score(context.Background(), stubBare{}, testFeatures())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scoring capability")
}

func TestLogistic(t *testing.T) {
	assert.InDelta(t, 0.5, Logistic(0), 1e-12)
	assert.InDelta(t, 1.0, Logistic(50), 1e-9)
	assert.InDelta(t, 0.0, Logistic(-50), 1e-9)
	// Symmetry: σ(s) + σ(-s) = 1.
	assert.InDelta(t, 1.0, Logistic(1.7)+Logistic(-1.7), 1e-12)
}
