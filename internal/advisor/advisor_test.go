package advisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrowatch/pest-advisory-service/internal/domain"
	"github.com/agrowatch/pest-advisory-service/internal/observability"
)

// stubStore serves a single village row.
type stubStore struct {
	loc     domain.Location
	lookups int
}

func (s *stubStore) Lookup(_ context.Context, district, taluka, village string) (domain.Location, error) {
	s.lookups++
	if district == s.loc.District && taluka == s.loc.Taluka && village == s.loc.Village {
		return s.loc, nil
	}
	return domain.Location{}, &domain.NotFoundError{District: district, Taluka: taluka, Village: village}
}

func (s *stubStore) Districts(_ context.Context) ([]string, error) {
	return []string{s.loc.District}, nil
}

func (s *stubStore) Talukas(_ context.Context, _ string) ([]string, error) {
	return []string{s.loc.Taluka}, nil
}

func (s *stubStore) Villages(_ context.Context, _, _ string) ([]string, error) {
	return []string{s.loc.Village}, nil
}

// stubClassifier always returns a fixed probability.
type stubClassifier struct {
	p   float64
	err error
}

func (s *stubClassifier) Describe() string { return "stub" }

func (s *stubClassifier) PredictProbability(_ context.Context, _ domain.FeatureVector) (float64, error) {
	return s.p, s.err
}

// stubRegistry maps every crop to the same classifier.
type stubRegistry struct {
	clf domain.Classifier
	err error
}

func (s *stubRegistry) Get(_ domain.Crop) (domain.Classifier, error) {
	return s.clf, s.err
}

// recordingSink records Notify calls.
type recordingSink struct {
	calls []string
	err   error
}

func (s *recordingSink) Notify(_ context.Context, phone string, _ domain.Crop, _ domain.Location, _ domain.RiskAssessment) error {
	s.calls = append(s.calls, phone)
	return s.err
}

// countingFeatures wraps the synthetic source and counts invocations.
type countingFeatures struct {
	calls int
}

func (f *countingFeatures) Features(lat, lon float64) domain.FeatureVector {
	f.calls++
	return domain.GenerateFeatures(lat, lon)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testVillage() domain.Location {
	return domain.Location{
		District: "Raigad",
		Taluka:   "Panvel",
		Village:  "Chirner",
		Lat:      19.0,
		Lon:      73.0,
	}
}

func newTestAdvisor(clf domain.Classifier, sink NotificationSink, features domain.FeatureSource) (*Advisor, *stubStore) {
	store := &stubStore{loc: testVillage()}
	if features == nil {
		features = domain.SyntheticFeatureSource{}
	}
	a := New(
		store,
		&stubRegistry{clf: clf},
		features,
		domain.NewScorer(true, discardLogger()),
		domain.NewPolicy(domain.DefaultRiskThreshold),
		sink,
		discardLogger(),
		observability.NewMetricsForTesting(),
	)
	return a, store
}

func riceRequest(phone string) CheckRequest {
	return CheckRequest{
		Crop:     domain.CropRice,
		District: "Raigad",
		Taluka:   "Panvel",
		Village:  "Chirner",
		Phone:    phone,
	}
}

func TestCheckRiskDetected(t *testing.T) {
	a, _ := newTestAdvisor(&stubClassifier{p: 0.50}, nil, nil)

	result, err := a.CheckRisk(context.Background(), riceRequest(""))
	require.NoError(t, err)

	assert.Equal(t, 0.50, result.Assessment.Probability)
	assert.Equal(t, domain.VerdictRisk, result.Assessment.Verdict)
	assert.Equal(t, domain.PathProbability, result.ScorePath)
	assert.Len(t, result.Assessment.Advisory.Actions, 3)
	assert.Equal(t, testVillage(), result.Location)
	// Features are derived from the resolved coordinates.
	assert.Equal(t, domain.GenerateFeatures(19.0, 73.0), result.Features)
	assert.False(t, result.SMSSent)
}

func TestCheckRiskClear(t *testing.T) {
	a, _ := newTestAdvisor(&stubClassifier{p: 0.10}, nil, nil)

	result, err := a.CheckRisk(context.Background(), riceRequest(""))
	require.NoError(t, err)

	assert.Equal(t, domain.VerdictNoRisk, result.Assessment.Verdict)
	assert.Equal(t, "Continue regular crop monitoring.", result.Assessment.Advisory.Message)
	assert.Empty(t, result.Assessment.Advisory.Actions)
}

func TestCheckRiskUnknownVillage(t *testing.T) {
	features := &countingFeatures{}
	a, store := newTestAdvisor(&stubClassifier{p: 0.50}, nil, features)

	req := riceRequest("")
	req.Village = "Nowhere"

	_, err := a.CheckRisk(context.Background(), req)

	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Nowhere", notFound.Village)
	assert.Equal(t, 1, store.lookups)
	assert.Zero(t, features.calls, "no feature vector may be generated for an unresolved location")
}

func TestCheckRiskSMSGate(t *testing.T) {
	t.Run("risk with phone sends alert", func(t *testing.T) {
		sink := &recordingSink{}
		a, _ := newTestAdvisor(&stubClassifier{p: 0.50}, sink, nil)

		result, err := a.CheckRisk(context.Background(), riceRequest("9876543210"))
		require.NoError(t, err)

		assert.True(t, result.SMSSent)
		assert.Equal(t, []string{"9876543210"}, sink.calls)
	})

	t.Run("phone is trimmed before the gate", func(t *testing.T) {
		sink := &recordingSink{}
		a, _ := newTestAdvisor(&stubClassifier{p: 0.50}, sink, nil)

		result, err := a.CheckRisk(context.Background(), riceRequest("  9876543210  "))
		require.NoError(t, err)

		assert.True(t, result.SMSSent)
		assert.Equal(t, []string{"9876543210"}, sink.calls)
	})

	t.Run("blank phone suppresses alert", func(t *testing.T) {
		sink := &recordingSink{}
		a, _ := newTestAdvisor(&stubClassifier{p: 0.50}, sink, nil)

		result, err := a.CheckRisk(context.Background(), riceRequest("   "))
		require.NoError(t, err)

		assert.False(t, result.SMSSent)
		assert.Empty(t, sink.calls)
	})

	t.Run("no alert without risk", func(t *testing.T) {
		sink := &recordingSink{}
		a, _ := newTestAdvisor(&stubClassifier{p: 0.10}, sink, nil)

		result, err := a.CheckRisk(context.Background(), riceRequest("9876543210"))
		require.NoError(t, err)

		assert.False(t, result.SMSSent)
		assert.Empty(t, sink.calls)
	})

	t.Run("publish failure never fails the check", func(t *testing.T) {
		sink := &recordingSink{err: errors.New("broker unavailable")}
		a, _ := newTestAdvisor(&stubClassifier{p: 0.50}, sink, nil)

		result, err := a.CheckRisk(context.Background(), riceRequest("9876543210"))
		require.NoError(t, err)

		assert.False(t, result.SMSSent)
		assert.Equal(t, domain.VerdictRisk, result.Assessment.Verdict)
	})
}

func TestCheckRiskClassifierFaultDegrades(t *testing.T) {
	a, _ := newTestAdvisor(&stubClassifier{err: errors.New("shape mismatch")}, nil, nil)

	result, err := a.CheckRisk(context.Background(), riceRequest(""))
	require.NoError(t, err, "classifier faults must degrade, not fail the request")

	assert.Equal(t, domain.PathFallback, result.ScorePath)
	assert.GreaterOrEqual(t, result.Assessment.Probability, 0.0)
	assert.LessOrEqual(t, result.Assessment.Probability, 1.0)
}

func TestCheckReadiness(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		a, _ := newTestAdvisor(&stubClassifier{p: 0.5}, nil, nil)
		assert.NoError(t, a.CheckReadiness(context.Background()))
	})

	t.Run("missing classifier", func(t *testing.T) {
		store := &stubStore{loc: testVillage()}
		a := New(
			store,
			&stubRegistry{err: errors.New("no model for crop")},
			domain.SyntheticFeatureSource{},
			domain.NewScorer(true, discardLogger()),
			domain.NewPolicy(domain.DefaultRiskThreshold),
			nil,
			discardLogger(),
			observability.NewMetricsForTesting(),
		)

		err := a.CheckReadiness(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "classifier")
	})
}
