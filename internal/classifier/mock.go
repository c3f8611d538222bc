package classifier

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/carepal-health/carepal/internal/domain"
)

// MockClient returns deterministic softmax-like distributions keyed on the
// input text, for tests and local runs without an inference server.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) numClasses(model string) (int, error) {
	switch model {
	case domain.ModelDomain:
		return 2, nil
	case domain.ModelPregnancyIntent:
		return len(domain.PregnancyIntents), nil
	case domain.ModelGeneralIntent:
		return len(domain.GeneralIntents), nil
	default:
		return 0, fmt.Errorf("unknown model: %s", model)
	}
}

func (c *MockClient) Probabilities(_ context.Context, model, text string) ([]float64, error) {
	n, err := c.numClasses(model)
	if err != nil {
		return nil, err
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	winner := int(h.Sum32()) % n
	if winner < 0 {
		winner += n
	}

	// Winner gets most of the mass, the rest split the remainder evenly.
	probs := make([]float64, n)
	rest := 0.3 / float64(n)
	for i := range probs {
		probs[i] = rest
	}
	probs[winner] += 0.7
	return probs, nil
}

func (c *MockClient) NumClasses(_ context.Context, model string) (int, error) {
	return c.numClasses(model)
}
