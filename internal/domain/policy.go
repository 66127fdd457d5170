package domain

import "time"

// DefaultRiskThreshold is the probability cutoff separating NoRisk from Risk.
// It is an operational policy constant, not a learned parameter; override it
// through configuration, never inside scoring code.
const DefaultRiskThreshold = 0.35

// Verdict is the binary outcome of a risk check.
type Verdict string

const (
	VerdictNoRisk Verdict = "no_risk"
	VerdictRisk   Verdict = "risk"
)

// Advisory is the user-facing message bundle attached to a verdict.
type Advisory struct {
	Headline string   `json:"headline"`
	Message  string   `json:"message,omitempty"`
	Actions  []string `json:"actions,omitempty"`
}

// RiskAssessment is the final output of the pipeline: the scored probability,
// the threshold verdict, and the advisory for that verdict. Ephemeral; never
// persisted.
type RiskAssessment struct {
	Probability float64   `json:"probability"`
	Verdict     Verdict   `json:"verdict"`
	Advisory    Advisory  `json:"advisory"`
	AssessedAt  time.Time `json:"assessed_at"`
}

// Policy applies the risk threshold to a probability.
type Policy struct {
	threshold float64
}

// NewPolicy creates a Policy. A non-positive threshold falls back to
// DefaultRiskThreshold.
func NewPolicy(threshold float64) Policy {
	if threshold <= 0 {
		threshold = DefaultRiskThreshold
	}
	return Policy{threshold: threshold}
}

// Threshold returns the active cutoff.
func (p Policy) Threshold() float64 { return p.threshold }

// Decide converts a probability into a RiskAssessment. Probabilities at or
// above the threshold are Risk; everything below is NoRisk.
func (p Policy) Decide(probability float64) RiskAssessment {
	verdict := VerdictNoRisk
	if probability >= p.threshold {
		verdict = VerdictRisk
	}

	return RiskAssessment{
		Probability: probability,
		Verdict:     verdict,
		Advisory:    advisoryFor(verdict),
		AssessedAt:  clock.Now(),
	}
}

// advisoryFor returns the fixed message bundle for a verdict. The Risk action
// list follows Integrated Pest Management practice: scout first, spray last.
func advisoryFor(v Verdict) Advisory {
	if v == VerdictRisk {
		return Advisory{
			Headline: "Pest risk detected in your village.",
			Actions: []string{
				"Increase field scouting",
				"Follow integrated pest management (IPM)",
				"Avoid unnecessary chemical spraying",
			},
		}
	}
	return Advisory{
		Headline: "No significant pest risk detected in your village.",
		Message:  "Continue regular crop monitoring.",
	}
}
