package embedding

import (
	"fmt"

	"github.com/carepal-health/carepal/internal/domain"
)

// Provider constants
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// NewClient builds the embedding client named by provider. The openai
// provider needs an API key; an empty model falls back to the package
// default. The mock provider ignores both arguments and exists for tests
// and keyless local runs.
func NewClient(provider, apiKey, model string) (domain.EmbeddingClient, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai embedding provider")
		}
		return NewOpenAIClient(apiKey, model), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown embedding provider %q (valid options: openai, mock)", provider)
	}
}
