package domain

import "context"

// Classifier model names. These identify the served model checkpoints; the
// inference backend resolves them to the trained BERT heads.
const (
	ModelDomain          = "model_hamil_umum"
	ModelPregnancyIntent = "model_hamil"
	ModelGeneralIntent   = "model_umum"
)

// EmbeddingClient encodes text into a fixed-length vector. Deterministic for
// identical input.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SequenceClassifier runs a named text-classification model and returns its
// softmax distribution over the model's fixed, ordered label set. The label
// ordering is a training-time contract supplied by the vocabulary constants,
// never inferred from the distribution.
type SequenceClassifier interface {
	Probabilities(ctx context.Context, model, text string) ([]float64, error)
	// NumClasses reports the model's output dimensionality, used by the
	// startup vocabulary assertion.
	NumClasses(ctx context.Context, model string) (int, error)
}

// TextGenerator produces prose from a prompt. Best effort: it may fail or
// return empty, and every caller has a fixed textual fallback.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
