// Package model loads crop classifiers from JSON artifacts exported by the
// training pipeline and adapts them to the domain capability interfaces.
package model

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/agrowatch/pest-advisory-service/internal/domain"
)

// ModelLoadError reports a missing or corrupt model artifact. Fatal at
// startup: the service refuses to serve requests without its classifiers.
type ModelLoadError struct {
	Crop domain.Crop
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load %s model from %s: %v", e.Crop, e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// artifact is the on-disk JSON model format.
type artifact struct {
	Crop string `json:"crop"`
	Kind string `json:"kind"` // logistic | linear | stump | remote

	// Expected feature columns in order; validated against the generator's
	// contract when present.
	Features []string `json:"features,omitempty"`

	// logistic / linear parameters.
	Weights   []float64 `json:"weights,omitempty"`
	Intercept float64   `json:"intercept,omitempty"`

	// stump parameters.
	FeatureIndex int     `json:"feature_index,omitempty"`
	Cutoff       float64 `json:"cutoff,omitempty"`

	// remote parameters.
	Endpoint  string `json:"endpoint,omitempty"`
	CacheSize int    `json:"cache_size,omitempty"`
}

// Registry maps crops to their loaded classifiers. Built once at startup and
// read-only afterwards.
type Registry struct {
	models map[domain.Crop]domain.Classifier
}

// LoadRegistry loads one artifact per supported crop from dir, named
// "<crop>.model.json". Any missing or corrupt artifact aborts the load.
func LoadRegistry(dir string, remoteTimeout time.Duration, logger *slog.Logger) (*Registry, error) {
	r := &Registry{models: make(map[domain.Crop]domain.Classifier)}

	for _, crop := range domain.SupportedCrops() {
		path := filepath.Join(dir, fmt.Sprintf("%s.model.json", crop))
		clf, err := loadArtifact(crop, path, remoteTimeout)
		if err != nil {
			return nil, err
		}
		r.models[crop] = clf
		logger.Info("classifier loaded", "crop", crop, "kind", clf.Describe(), "path", path)
	}

	return r, nil
}

// Get returns the classifier for a crop.
func (r *Registry) Get(crop domain.Crop) (domain.Classifier, error) {
	clf, ok := r.models[crop]
	if !ok {
		return nil, fmt.Errorf("no classifier loaded for crop %q", crop)
	}
	return clf, nil
}

// Len returns the number of loaded classifiers.
func (r *Registry) Len() int { return len(r.models) }

func loadArtifact(crop domain.Crop, path string, remoteTimeout time.Duration) (domain.Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ModelLoadError{Crop: crop, Path: path, Err: err}
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, &ModelLoadError{Crop: crop, Path: path, Err: fmt.Errorf("parse artifact: %w", err)}
	}

	clf, err := buildClassifier(crop, a, remoteTimeout)
	if err != nil {
		return nil, &ModelLoadError{Crop: crop, Path: path, Err: err}
	}
	return clf, nil
}

func buildClassifier(crop domain.Crop, a artifact, remoteTimeout time.Duration) (domain.Classifier, error) {
	if err := validateFeatureOrder(a.Features); err != nil {
		return nil, err
	}

	switch a.Kind {
	case "logistic":
		return newLogisticModel(crop, a.Weights, a.Intercept)
	case "linear":
		return newLinearMarginModel(crop, a.Weights, a.Intercept)
	case "stump":
		return newDecisionStump(crop, a.FeatureIndex, a.Cutoff)
	case "remote":
		if a.Endpoint == "" {
			return nil, fmt.Errorf("remote artifact has no endpoint")
		}
		var clf domain.ProbabilityClassifier = NewRemoteClassifier(crop, a.Endpoint, remoteTimeout)
		if a.CacheSize > 0 {
			clf = NewCachedClassifier(clf, a.CacheSize)
		}
		return clf, nil
	default:
		return nil, fmt.Errorf("unknown artifact kind %q", a.Kind)
	}
}

// validateFeatureOrder enforces the feature-order contract between the
// generator and the trained model. Artifacts that omit the column list are
// accepted as-is.
func validateFeatureOrder(features []string) error {
	if len(features) == 0 {
		return nil
	}

	expected := domain.FeatureNames()
	if len(features) != len(expected) {
		return fmt.Errorf("artifact expects %d features, generator produces %d", len(features), len(expected))
	}
	for i, name := range features {
		if name != expected[i] {
			return fmt.Errorf("feature order mismatch at %d: artifact %q, generator %q", i, name, expected[i])
		}
	}
	return nil
}
