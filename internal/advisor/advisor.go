package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agrowatch/pest-advisory-service/internal/domain"
	"github.com/agrowatch/pest-advisory-service/internal/observability"
)

// LocationStore resolves village selections against the location dataset and
// serves the cascading district → taluka → village listings.
type LocationStore interface {
	Lookup(ctx context.Context, district, taluka, village string) (domain.Location, error)
	Districts(ctx context.Context) ([]string, error)
	Talukas(ctx context.Context, district string) ([]string, error)
	Villages(ctx context.Context, district, taluka string) ([]string, error)
}

// ClassifierRegistry hands out the classifier loaded for a crop.
type ClassifierRegistry interface {
	Get(crop domain.Crop) (domain.Classifier, error)
}

// NotificationSink accepts an SMS alert request for external delivery. The
// advisor only decides whether to notify; delivery stays outside the core.
type NotificationSink interface {
	Notify(ctx context.Context, phone string, crop domain.Crop, loc domain.Location, assessment domain.RiskAssessment) error
}

// CheckRequest identifies one risk check: a crop, a village selection, and an
// optional phone number for an SMS alert.
type CheckRequest struct {
	Crop     domain.Crop
	District string
	Taluka   string
	Village  string
	Phone    string
}

// CheckResult bundles everything a caller needs to render the advisory.
type CheckResult struct {
	Location   domain.Location
	Features   domain.FeatureVector
	Assessment domain.RiskAssessment
	ScorePath  domain.ScorePath
	SMSSent    bool
}

// Advisor runs the per-request pipeline: lookup, feature derivation, scoring,
// threshold decision, and the SMS alert gate. It is stateless per request and
// safe for concurrent use.
type Advisor struct {
	store    LocationStore
	registry ClassifierRegistry
	features domain.FeatureSource
	scorer   *domain.Scorer
	policy   domain.Policy
	sink     NotificationSink
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates an Advisor. Pass a nil sink to disable SMS alerts entirely.
func New(
	store LocationStore,
	registry ClassifierRegistry,
	features domain.FeatureSource,
	scorer *domain.Scorer,
	policy domain.Policy,
	sink NotificationSink,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Advisor {
	return &Advisor{
		store:    store,
		registry: registry,
		features: features,
		scorer:   scorer,
		policy:   policy,
		sink:     sink,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckRisk executes one risk check. A failed village lookup aborts the
// request; scoring faults degrade per the scorer's fallback policy and never
// surface here as user errors.
func (a *Advisor) CheckRisk(ctx context.Context, req CheckRequest) (CheckResult, error) {
	start := time.Now()

	loc, err := a.store.Lookup(ctx, req.District, req.Taluka, req.Village)
	if err != nil {
		a.metrics.LookupFailures.Inc()
		return CheckResult{}, err
	}

	clf, err := a.registry.Get(req.Crop)
	if err != nil {
		return CheckResult{}, fmt.Errorf("resolve %s classifier: %w", req.Crop, err)
	}

	features := a.features.Features(loc.Lat, loc.Lon)

	probability, path, err := a.scorer.Score(ctx, clf, features)
	if err != nil {
		return CheckResult{}, fmt.Errorf("score %s model: %w", req.Crop, err)
	}
	a.metrics.ScorePaths.WithLabelValues(string(path)).Inc()
	if path == domain.PathFallback {
		a.metrics.ScoringFallbacks.Inc()
	}

	assessment := a.policy.Decide(probability)

	result := CheckResult{
		Location:   loc,
		Features:   features,
		Assessment: assessment,
		ScorePath:  path,
	}
	result.SMSSent = a.maybeNotify(ctx, req, loc, assessment)

	a.metrics.ChecksTotal.WithLabelValues(string(req.Crop), string(assessment.Verdict)).Inc()
	a.metrics.CheckDuration.Observe(time.Since(start).Seconds())

	a.logger.Info("risk check completed",
		"crop", req.Crop,
		"village", loc.Village,
		"taluka", loc.Taluka,
		"district", loc.District,
		"probability", assessment.Probability,
		"verdict", assessment.Verdict,
		"score_path", path,
		"sms_sent", result.SMSSent,
	)

	return result, nil
}

// maybeNotify publishes an SMS alert when the verdict is Risk and a phone
// number was provided. A failed publish is logged and counted, never returned:
// alert delivery must not block the advisory.
func (a *Advisor) maybeNotify(ctx context.Context, req CheckRequest, loc domain.Location, assessment domain.RiskAssessment) bool {
	if assessment.Verdict != domain.VerdictRisk || a.sink == nil {
		return false
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return false
	}

	if err := a.sink.Notify(ctx, phone, req.Crop, loc, assessment); err != nil {
		a.metrics.AlertFailures.Inc()
		a.logger.Warn("sms alert publish failed",
			"crop", req.Crop,
			"village", loc.Village,
			"error", err,
		)
		return false
	}

	a.metrics.AlertsPublished.Inc()
	return true
}

// CheckReadiness reports whether the advisor can serve checks: the dataset
// must contain at least one district and every supported crop must have a
// classifier.
func (a *Advisor) CheckReadiness(ctx context.Context) error {
	districts, err := a.store.Districts(ctx)
	if err != nil {
		return fmt.Errorf("location store: %w", err)
	}
	if len(districts) == 0 {
		return fmt.Errorf("location dataset is empty")
	}

	for _, crop := range domain.SupportedCrops() {
		if _, err := a.registry.Get(crop); err != nil {
			return fmt.Errorf("classifier for %s: %w", crop, err)
		}
	}
	return nil
}
