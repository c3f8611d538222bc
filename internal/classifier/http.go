package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPClient talks to a model inference server that hosts the trained
// classification checkpoints. The server exposes:
//
//	POST {base}/v1/models/{model}/predict  {"text": "..."} -> {"probabilities": [...]}
//	GET  {base}/v1/models/{model}          -> {"num_classes": N}
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	Probabilities []float64 `json:"probabilities"`
	Error         string    `json:"error,omitempty"`
}

type modelInfoResponse struct {
	NumClasses int    `json:"num_classes"`
	Error      string `json:"error,omitempty"`
}

func (c *HTTPClient) Probabilities(ctx context.Context, model, text string) ([]float64, error) {
	body, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal predict request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s/predict", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read predict response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result predictResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal predict response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("classifier error: %s", result.Error)
	}
	if len(result.Probabilities) == 0 {
		return nil, fmt.Errorf("classifier returned empty distribution for model %s", model)
	}

	return result.Probabilities, nil
}

func (c *HTTPClient) NumClasses(ctx context.Context, model string) (int, error) {
	url := fmt.Sprintf("%s/v1/models/%s", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create model info request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("model info request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read model info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result modelInfoResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return 0, fmt.Errorf("unmarshal model info response: %w", err)
	}
	if result.Error != "" {
		return 0, fmt.Errorf("classifier error: %s", result.Error)
	}

	return result.NumClasses, nil
}
