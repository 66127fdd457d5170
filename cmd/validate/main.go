// Command validate performs end-to-end integrity checks across the advisory
// fixtures: the village dataset, the model artifacts, and the expected
// assessments. It verifies dataset schema, feature determinism, artifact
// loadability, pipeline replay correctness, and threshold alignment.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -locations data/mock/locations.csv \
//	  -model-dir data/mock/models \
//	  -expected data/mock/expected_assessments.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/agrowatch/pest-advisory-service/internal/adapter/locations"
	"github.com/agrowatch/pest-advisory-service/internal/adapter/model"
	"github.com/agrowatch/pest-advisory-service/internal/domain"
)

const probabilityTolerance = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// expectedAssessment mirrors the fixture format written by genfixtures.
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
	locationsPath := flag.String("locations", "", "path to the village dataset CSV")
	modelDir := flag.String("model-dir", "", "directory containing model artifacts")
	expectedPath := flag.String("expected", "", "path to expected assessments JSON")
	flag.Parse()

	if *locationsPath == "" || *modelDir == "" || *expectedPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*locationsPath, *modelDir, *expectedPath); code != 0 {
		os.Exit(code)
	}
}

func run(locationsPath, modelDir, expectedPath string) int {
	// Fixed clock matching genfixtures so AssessedAt replays exactly.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.June, 15, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Pest Advisory Fixture Validation ===")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	store, err := locations.LoadCSV(locationsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load village dataset: %v\n", err)
		return 1
	}

	registry, registryPhase := loadRegistryPhase(modelDir, logger)

	expected, err := loadExpected(expectedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load expected assessments: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateDataset(store),
		validateFeatureDeterminism(store),
		registryPhase,
	}
	if registry != nil {
		phases = append(phases,
			validateReplay(registry, expected, logger),
			validateThresholdAlignment(expected),
		)
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d villages, %d expected assessments\n", store.Len(), len(expected))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadExpected(path string) ([]expectedAssessment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var expected []expectedAssessment
	if err := json.Unmarshal(data, &expected); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return expected, nil
}

// validateDataset checks the village rows beyond what the CSV loader already
// enforces: coordinates must be plausible, names non-empty.
func validateDataset(store *locations.CSVStore) *phase {
	p := &phase{name: "Dataset integrity"}
	ctx := context.Background()

	districts, err := store.Districts(ctx)
	if err != nil {
		p.errorf("list districts: %v", err)
		return p
	}
	if len(districts) == 0 {
		p.errorf("dataset has no districts")
	}

	for _, district := range districts {
		talukas, err := store.Talukas(ctx, district)
		if err != nil {
			p.errorf("list talukas for %s: %v", district, err)
			continue
		}
		for _, taluka := range talukas {
			villages, err := store.Villages(ctx, district, taluka)
			if err != nil {
				p.errorf("list villages for %s/%s: %v", district, taluka, err)
				continue
			}
			for _, village := range villages {
				loc, err := store.Lookup(ctx, district, taluka, village)
				if err != nil {
					p.errorf("lookup %s/%s/%s: %v", district, taluka, village, err)
					continue
				}
				if loc.Lat < -90 || loc.Lat > 90 {
					p.errorf("%s: latitude %v out of range", village, loc.Lat)
				}
				if loc.Lon < -180 || loc.Lon > 180 {
					p.errorf("%s: longitude %v out of range", village, loc.Lon)
				}
			}
		}
	}
	return p
}

// validateFeatureDeterminism re-derives features twice per village and checks
// both stability and the documented bounds.
func validateFeatureDeterminism(store *locations.CSVStore) *phase {
	p := &phase{name: "Feature determinism"}
	ctx := context.Background()

	districts, _ := store.Districts(ctx)
	for _, district := range districts {
		talukas, _ := store.Talukas(ctx, district)
		for _, taluka := range talukas {
			villages, _ := store.Villages(ctx, district, taluka)
			for _, village := range villages {
				loc, err := store.Lookup(ctx, district, taluka, village)
				if err != nil {
					continue
				}

				first := domain.GenerateFeatures(loc.Lat, loc.Lon)
				second := domain.GenerateFeatures(loc.Lat, loc.Lon)
				if first != second {
					p.errorf("%s: features not deterministic", village)
				}

				checkBound(p, village, "rainfall_mm", first.RainfallMM, domain.RainfallMin, domain.RainfallMax)
				checkBound(p, village, "temperature_c", first.TemperatureC, domain.TempMin, domain.TempMax)
				checkBound(p, village, "humidity_pct", first.HumidityPct, domain.HumidityMin, domain.HumidityMax)
				checkBound(p, village, "ndvi", first.NDVI, domain.NDVIMin, domain.NDVIMax)
			}
		}
	}
	return p
}

func checkBound(p *phase, village, name string, v, lo, hi float64) {
	if math.IsNaN(v) || v < lo || v >= hi {
		p.errorf("%s: %s %v outside [%v, %v)", village, name, v, lo, hi)
	}
}

func loadRegistryPhase(modelDir string, logger *slog.Logger) (*model.Registry, *phase) {
	p := &phase{name: "Model artifacts"}

	registry, err := model.LoadRegistry(modelDir, 5*time.Second, logger)
	if err != nil {
		p.errorf("load registry: %v", err)
		return nil, p
	}
	if got, want := registry.Len(), len(domain.SupportedCrops()); got != want {
		p.errorf("registry has %d classifiers, want %d", got, want)
	}
	return registry, p
}

// validateReplay re-runs the scoring pipeline for every expected assessment
// and compares probabilities and verdicts.
func validateReplay(registry *model.Registry, expected []expectedAssessment, logger *slog.Logger) *phase {
	p := &phase{name: "Pipeline replay"}

	scorer := domain.NewScorer(true, logger)
	policy := domain.NewPolicy(domain.DefaultRiskThreshold)
	ctx := context.Background()

	for _, e := range expected {
		crop, err := domain.ParseCrop(e.Crop)
		if err != nil {
			p.errorf("%s/%s: %v", e.Crop, e.Village, err)
			continue
		}
		clf, err := registry.Get(crop)
		if err != nil {
			p.errorf("%s/%s: %v", e.Crop, e.Village, err)
			continue
		}

		probability, _, err := scorer.Score(ctx, clf, e.Features)
		if err != nil {
			p.errorf("%s/%s: score: %v", e.Crop, e.Village, err)
			continue
		}
		if math.Abs(probability-e.Probability) > probabilityTolerance {
			p.errorf("%s/%s: probability %v, fixture has %v", e.Crop, e.Village, probability, e.Probability)
		}

		if got := policy.Decide(probability).Verdict; got != e.Verdict {
			p.errorf("%s/%s: verdict %s, fixture has %s", e.Crop, e.Village, got, e.Verdict)
		}
	}
	return p
}

// validateThresholdAlignment checks that every fixture verdict matches a
// direct comparison against the default cutoff.
func validateThresholdAlignment(expected []expectedAssessment) *phase {
	p := &phase{name: "Threshold alignment"}

	for _, e := range expected {
		want := domain.VerdictNoRisk
		if e.Probability >= domain.DefaultRiskThreshold {
			want = domain.VerdictRisk
		}
		if e.Verdict != want {
			p.errorf("%s/%s: probability %v carries verdict %s, expected %s",
				e.Crop, e.Village, e.Probability, e.Verdict, want)
		}
	}
	return p
}
