package domain

import (
	"math"
	"math/rand"
)

// Feature bounds for the synthetic generator. Each draw is uniform within its
// closed interval.
const (
	RainfallMin = 50.0  // mm
	RainfallMax = 200.0
	TempMin     = 22.0 // °C
	TempMax     = 38.0
	HumidityMin = 45.0 // %
	HumidityMax = 90.0
	NDVIMin     = 0.25
	NDVIMax     = 0.85
)

// FeatureVector holds the four environmental inputs in the exact order the
// classifiers were trained with. The field order is a contract with the model
// artifacts; never reorder it independently.
type FeatureVector struct {
	RainfallMM   float64 `json:"rainfall_mm"`
	TemperatureC float64 `json:"temperature_c"`
	HumidityPct  float64 `json:"humidity_pct"`
	NDVI         float64 `json:"ndvi"`
}

// Values returns the features as an ordered slice for classifier input.
func (f FeatureVector) Values() []float64 {
	return []float64{f.RainfallMM, f.TemperatureC, f.HumidityPct, f.NDVI}
}

// FeatureNames returns the feature column names in training order. Model
// artifacts that declare their expected columns are validated against this
// list at load time.
func FeatureNames() []string {
	return []string{"rainfall_mm", "temperature_c", "humidity_pct", "ndvi"}
}

// FeatureSource produces the environmental feature vector for a coordinate
// pair. Implementations must be safe for concurrent use.
type FeatureSource interface {
	Features(lat, lon float64) FeatureVector
}

// SyntheticFeatureSource derives features from the coordinates alone. It is
// the prototype stand-in for a real weather/satellite ingestion source.
type SyntheticFeatureSource struct{}

func (SyntheticFeatureSource) Features(lat, lon float64) FeatureVector {
	return GenerateFeatures(lat, lon)
}

// GenerateFeatures deterministically derives a feature vector from a
// coordinate pair. The generator is seeded from the coordinates and locally
// scoped, so identical input always yields an identical vector and concurrent
// calls never interfere.
func GenerateFeatures(lat, lon float64) FeatureVector {
	seed := int64(math.Abs(lat*lon)*1000) % 10000
	rng := rand.New(rand.NewSource(seed))

	// Draw order mirrors the training column order; see FeatureNames.
	return FeatureVector{
		RainfallMM:   uniform(rng, RainfallMin, RainfallMax),
		TemperatureC: uniform(rng, TempMin, TempMax),
		HumidityPct:  uniform(rng, HumidityMin, HumidityMax),
		NDVI:         uniform(rng, NDVIMin, NDVIMax),
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
