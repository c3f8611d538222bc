package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/carepal-health/carepal/internal/domain"
)

const (
	// fallbackConfidenceNoMatch marks a clean gate run that matched nothing.
	fallbackConfidenceNoMatch = 0.5
	// fallbackConfidenceError marks a hard failure in the fallback itself.
	// Both values are a signal to the composer that routing is unreliable.
	fallbackConfidenceError = 0.1
)

// IntentClassifier resolves the fine-grained intent within an already chosen
// domain. The trained model is optional: without it (or on model error) the
// similarity gate's best match substitutes, and without that a fixed
// per-domain default.
type IntentClassifier struct {
	model  domain.SequenceClassifier // nil means fallback only
	gate   *SimilarityGate
	logger *zap.Logger
}

func NewIntentClassifier(model domain.SequenceClassifier, gate *SimilarityGate, logger *zap.Logger) *IntentClassifier {
	return &IntentClassifier{model: model, gate: gate, logger: logger}
}

// Classify never fails: every path resolves to a usable Classification.
func (c *IntentClassifier) Classify(ctx context.Context, input string, d domain.QueryDomain) domain.Classification {
	if c.model == nil {
		return c.fallback(ctx, input, d)
	}

	model := domain.ModelGeneralIntent
	if d == domain.DomainPregnancy {
		model = domain.ModelPregnancyIntent
	}

	probs, err := c.model.Probabilities(ctx, model, input)
	if err != nil || len(probs) == 0 {
		c.logger.Error("intent classification failed, using fallback",
			zap.String("domain", string(d)),
			zap.Error(err))
		return c.fallback(ctx, input, d)
	}

	vocab := d.Vocabulary()
	preds := topPredictions(probs, vocab, d.DefaultIntent())

	c.logger.Debug("intent classification",
		zap.String("domain", string(d)),
		zap.String("intent", preds[0].Intent),
		zap.Float64("confidence", preds[0].Confidence))

	return domain.Classification{
		Intent:      preds[0].Intent,
		Confidence:  preds[0].Confidence,
		Method:      domain.MethodClassifier,
		Predictions: preds,
	}
}

// fallback classifies by the gate's best similarity match, then by the fixed
// per-domain default when nothing matched or the gate itself failed.
func (c *IntentClassifier) fallback(ctx context.Context, input string, d domain.QueryDomain) domain.Classification {
	if c.gate == nil {
		return defaultClassification(d, fallbackConfidenceError)
	}

	result, err := c.gate.check(ctx, input)
	if err != nil {
		c.logger.Error("fallback similarity check failed", zap.Error(err))
		return defaultClassification(d, fallbackConfidenceError)
	}
	if len(result.BestMatches) == 0 {
		return defaultClassification(d, fallbackConfidenceNoMatch)
	}

	best := result.BestMatches[0]
	c.logger.Info("fallback classification by similarity",
		zap.String("intent", best.Intent),
		zap.Float64("confidence", best.MaxSimilarity))

	return domain.Classification{
		Intent:     best.Intent,
		Confidence: best.MaxSimilarity,
		Method:     domain.MethodFallbackSimilarity,
		Predictions: []domain.Prediction{
			{Intent: best.Intent, Confidence: best.MaxSimilarity, Rank: 1},
		},
	}
}

func defaultClassification(d domain.QueryDomain, confidence float64) domain.Classification {
	intent := d.DefaultIntent()
	return domain.Classification{
		Intent:     intent,
		Confidence: confidence,
		Method:     domain.MethodFallbackDefault,
		Predictions: []domain.Prediction{
			{Intent: intent, Confidence: confidence, Rank: 1},
		},
	}
}

// topPredictions maps the two highest-probability class indices through the
// ordered vocabulary. An index beyond the vocabulary substitutes the default
// intent; the positional mapping itself is the contract with the trained
// model.
func topPredictions(probs []float64, vocab []string, defaultIntent string) []domain.Prediction {
	first, _ := argmax(probs)

	second := -1
	for i, p := range probs {
		if i == first {
			continue
		}
		if second < 0 || p > probs[second] {
			second = i
		}
	}

	indices := []int{first}
	if second >= 0 {
		indices = append(indices, second)
	}

	preds := make([]domain.Prediction, 0, len(indices))
	for rank, idx := range indices {
		intent := defaultIntent
		if idx < len(vocab) {
			intent = vocab[idx]
		}
		preds = append(preds, domain.Prediction{
			Intent:     intent,
			Confidence: probs[idx],
			Rank:       rank + 1,
		})
	}
	return preds
}

// VerifyClassifierContract asserts that each served model's output
// dimensionality matches the compiled-in vocabulary. A mismatch means the
// positional label mapping would silently misroute every request, so the
// caller should disable the classifier and fall back instead of serving it.
func VerifyClassifierContract(ctx context.Context, model domain.SequenceClassifier) error {
	checks := []struct {
		model string
		want  int
	}{
		{domain.ModelDomain, 2},
		{domain.ModelPregnancyIntent, len(domain.PregnancyIntents)},
		{domain.ModelGeneralIntent, len(domain.GeneralIntents)},
	}
	for _, chk := range checks {
		got, err := model.NumClasses(ctx, chk.model)
		if err != nil {
			return fmt.Errorf("query %s class count: %w", chk.model, err)
		}
		if got != chk.want {
			return fmt.Errorf("%s serves %d classes, vocabulary has %d", chk.model, got, chk.want)
		}
	}
	return nil
}
