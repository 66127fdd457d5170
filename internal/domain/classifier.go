package domain

import "context"

// Classifier is the common surface of a loaded crop model. Every concrete
// model additionally implements exactly the capability interfaces its artifact
// supports; which ones is fixed at load time, not probed per request.
type Classifier interface {
	// Describe identifies the model kind for logs, e.g. "logistic" or "remote".
	Describe() string
}

// ProbabilityClassifier predicts the probability mass assigned to the
// positive ("pest present") class.
type ProbabilityClassifier interface {
	Classifier
	PredictProbability(ctx context.Context, features FeatureVector) (float64, error)
}

// ScoreClassifier exposes a raw decision margin. Positive margins lean toward
// risk; the scorer maps the margin to a probability via the logistic function.
type ScoreClassifier interface {
	Classifier
	DecisionScore(ctx context.Context, features FeatureVector) (float64, error)
}

// LabelClassifier predicts only the binary class label. Probabilities derived
// from it are 0.0 or 1.0 and should be treated as low-confidence.
type LabelClassifier interface {
	Classifier
	PredictLabel(ctx context.Context, features FeatureVector) (int, error)
}
