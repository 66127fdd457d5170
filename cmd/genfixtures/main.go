// Command genfixtures generates the mock village dataset, model artifacts,
// and expected-assessment fixtures for the test suites. It runs the actual
// domain pipeline so the expected output matches real service behavior.
//
// Usage:
//
//	go run ./cmd/genfixtures \
//	  -locations-out data/mock/locations.csv \
//	  -model-dir data/mock/models \
//	  -expected-out data/mock/expected_assessments.json
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/agrowatch/pest-advisory-service/internal/adapter/model"
	"github.com/agrowatch/pest-advisory-service/internal/domain"
)

type villageRow struct {
	district string
	taluka   string
	village  string
	lat      float64
	lon      float64
}

// mockVillages covers three districts with enough spread in coordinates to
// produce both risk and no-risk verdicts under the mock models.
var mockVillages = []villageRow{
	{"Raigad", "Panvel", "Chirner", 18.9894, 73.0331},
	{"Raigad", "Panvel", "Gavhan", 18.9712, 73.0104},
	{"Raigad", "Uran", "Jasai", 18.8993, 72.9706},
	{"Raigad", "Uran", "Koproli", 18.8841, 73.0218},
	{"Nagpur", "Katol", "Kondhali", 21.2145, 78.6259},
	{"Nagpur", "Katol", "Metpanjra", 21.3012, 78.5444},
	{"Nagpur", "Umred", "Bela", 20.8340, 79.3256},
	{"Pune", "Baramati", "Malegaon", 18.1804, 74.5891},
	{"Pune", "Baramati", "Pandare", 18.2217, 74.6120},
	{"Pune", "Junnar", "Ozar", 19.3167, 73.9500},
}

type expectedAssessment struct {
	Crop        string               `json:"crop"`
	District    string               `json:"district"`
	Taluka      string               `json:"taluka"`
	Village     string               `json:"village"`
	Features    domain.FeatureVector `json:"features"`
	Probability float64              `json:"probability"`
	Verdict     domain.Verdict       `json:"verdict"`
	AssessedAt  time.Time            `json:"assessed_at"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	locationsOut := flag.String("locations-out", "", "output path for the mock village CSV")
	modelDir := flag.String("model-dir", "", "output directory for mock model artifacts")
	expectedOut := flag.String("expected-out", "", "output path for expected assessments JSON")
	flag.Parse()

	if *locationsOut == "" || *modelDir == "" || *expectedOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -locations-out, -model-dir, -expected-out")
	}

	if err := writeLocationsCSV(*locationsOut); err != nil {
		return fmt.Errorf("writing locations fixture: %w", err)
	}
	log.Printf("wrote %d villages: %s", len(mockVillages), *locationsOut)

	if err := writeModelArtifacts(*modelDir); err != nil {
		return fmt.Errorf("writing model artifacts: %w", err)
	}
	log.Printf("wrote model artifacts: %s", *modelDir)

	// Fix the clock so AssessedAt is reproducible across runs.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.June, 15, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	expected, err := replayPipeline(*modelDir)
	if err != nil {
		return fmt.Errorf("replaying pipeline: %w", err)
	}

	if err := writeJSON(*expectedOut, expected); err != nil {
		return fmt.Errorf("writing expected assessments: %w", err)
	}
	log.Printf("wrote %d expected assessments: %s", len(expected), *expectedOut)

	printStats(expected)
	return nil
}

func writeLocationsCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"district", "taluka", "village", "lat", "lon"}); err != nil {
		return err
	}
	for _, row := range mockVillages {
		record := []string{
			row.district,
			row.taluka,
			row.village,
			fmt.Sprintf("%.4f", row.lat),
			fmt.Sprintf("%.4f", row.lon),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// writeModelArtifacts emits one artifact per supported crop: a logistic model
// for rice and a linear-margin model for cotton, so fixtures exercise both
// score paths.
func writeModelArtifacts(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	artifacts := map[string]map[string]any{
		"rice": {
			"crop":      "rice",
			"kind":      "logistic",
			"features":  domain.FeatureNames(),
			"weights":   []float64{0.012, 0.05, 0.02, -1.5},
			"intercept": -4.0,
		},
		"cotton": {
			"crop":      "cotton",
			"kind":      "linear",
			"features":  domain.FeatureNames(),
			"weights":   []float64{-0.008, 0.09, 0.015, 1.2},
			"intercept": -3.2,
		},
	}

	for crop, art := range artifacts {
		path := filepath.Join(dir, crop+".model.json")
		if err := writeJSON(path, art); err != nil {
			return fmt.Errorf("artifact %s: %w", crop, err)
		}
	}
	return nil
}

func replayPipeline(modelDir string) ([]expectedAssessment, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	registry, err := model.LoadRegistry(modelDir, 5*time.Second, logger)
	if err != nil {
		return nil, err
	}

	scorer := domain.NewScorer(true, logger)
	policy := domain.NewPolicy(domain.DefaultRiskThreshold)

	expected := make([]expectedAssessment, 0, len(mockVillages)*len(domain.SupportedCrops()))
	ctx := context.Background()

	for _, crop := range domain.SupportedCrops() {
		clf, err := registry.Get(crop)
		if err != nil {
			return nil, err
		}

		for _, row := range mockVillages {
			features := domain.GenerateFeatures(row.lat, row.lon)

			probability, _, err := scorer.Score(ctx, clf, features)
			if err != nil {
				return nil, fmt.Errorf("score %s/%s: %w", crop, row.village, err)
			}

			assessment := policy.Decide(probability)
			expected = append(expected, expectedAssessment{
				Crop:        string(crop),
				District:    row.district,
				Taluka:      row.taluka,
				Village:     row.village,
				Features:    features,
				Probability: probability,
				Verdict:     assessment.Verdict,
				AssessedAt:  assessment.AssessedAt,
			})
		}
	}
	return expected, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func printStats(expected []expectedAssessment) {
	counts := map[domain.Verdict]int{}
	for _, e := range expected {
		counts[e.Verdict]++
	}
	log.Printf("verdicts: risk=%d no_risk=%d", counts[domain.VerdictRisk], counts[domain.VerdictNoRisk])
}
