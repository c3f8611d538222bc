package classifier

import (
	"fmt"

	"github.com/carepal-health/carepal/internal/domain"
)

// Provider constants
const (
	ProviderHTTP = "http"
	ProviderMock = "mock"
)

// NewClient creates a sequence classifier based on the provider name.
// The http provider requires a non-empty base URL.
func NewClient(provider, baseURL string) (domain.SequenceClassifier, error) {
	switch provider {
	case ProviderHTTP:
		if baseURL == "" {
			return nil, fmt.Errorf("CLASSIFIER_BASE_URL is required for http classifier provider")
		}
		return NewHTTPClient(baseURL), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown classifier provider: %s (valid options: http, mock)", provider)
	}
}
