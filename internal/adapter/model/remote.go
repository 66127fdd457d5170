package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/agrowatch/pest-advisory-service/internal/domain"
)

// RemoteClassifier scores through an external model-serving endpoint. The
// endpoint owns the trained artifact; this client only ships features and
// reads back the positive-class probability.
type RemoteClassifier struct {
	crop       domain.Crop
	endpoint   string
	httpClient *http.Client
}

// NewRemoteClassifier creates a client for a model-serving endpoint.
func NewRemoteClassifier(crop domain.Crop, endpoint string, timeout time.Duration) *RemoteClassifier {
	return &RemoteClassifier{
		crop:     crop,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *RemoteClassifier) Describe() string { return "remote" }

type predictRequest struct {
	Crop     string    `json:"crop"`
	Features []float64 `json:"features"`
}

type predictResponse struct {
	Probability float64 `json:"probability"`
}

// PredictProbability posts the feature vector to the serving endpoint.
func (c *RemoteClassifier) PredictProbability(ctx context.Context, features domain.FeatureVector) (float64, error) {
	body, err := json.Marshal(predictRequest{
		Crop:     string(c.crop),
		Features: features.Values(),
	})
	if err != nil {
		return 0, fmt.Errorf("marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("predict request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("model endpoint returned status %d: %s", resp.StatusCode, msg)
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode predict response: %w", err)
	}
	return out.Probability, nil
}
