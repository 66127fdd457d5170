// Package domain implements the pest risk assessment pipeline for village-level
// crop advisories.
//
// # Pipeline
//
// Each risk check is an independent pure computation:
//
//	Location → FeatureVector → probability → RiskAssessment
//
// The only shared state is the village dataset and the per-crop classifiers,
// both loaded once at startup and read-only afterwards, so concurrent checks
// need no synchronization.
//
// # Synthetic Features
//
// The prototype has no live weather or satellite feed. Environmental features
// are derived deterministically from the village coordinates instead:
//
//	seed = floor(|lat × lon| × 1000) mod 10000
//
// A generator seeded with that value draws four uniform samples in a fixed
// order: rainfall (50–200 mm), temperature (22–38 °C), humidity (45–90 %),
// NDVI (0.25–0.85). The draw order matches the column order the classifiers
// were trained with and must never change independently of the model
// artifacts. Repeating a check for the same village always reproduces the
// same vector. See [GenerateFeatures].
//
// A real ingestion source can replace the synthetic one behind the
// [FeatureSource] interface without touching scoring or policy.
//
// # Scoring
//
// Classifiers advertise one of three capabilities, fixed when the model
// artifact is loaded:
//
//	probability    → positive-class probability used directly
//	decision score → raw margin mapped through the logistic function
//	label only     → binary label cast to 0.0 / 1.0 (low confidence)
//
// The scorer tries capabilities in that priority order. A failing classifier
// invocation can optionally be absorbed by a synthetic fallback probability,
// Normal(0.45, 0.15) clipped to [0, 1], so a malformed model artifact degrades
// the advisory instead of blocking it. See [Scorer].
//
// # Decision
//
// A fixed policy threshold of 0.35 separates NoRisk from Risk. The threshold
// is operational, not learned; it lives in configuration, never in scoring
// code. Each verdict carries a fixed advisory bundle: NoRisk advises continued
// monitoring, Risk carries the IPM (Integrated Pest Management) action list.
// See [Policy].
package domain
