package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/carepal-health/carepal/internal/domain"
)

// pregnancyKeywords drive the keyword fallback when no domain model is
// available. Checked in order, first hit wins.
var pregnancyKeywords = []string{
	"hamil", "kehamilan", "kandungan", "anc", "persalinan",
	"melahirkan", "trimester", "kontraksi", "janin", "bayi",
}

// DomainClassifier splits input into the pregnancy or general domain. A nil
// model degrades to keyword matching; a model error degrades to the general
// domain, which always has a safe default intent.
type DomainClassifier struct {
	model  domain.SequenceClassifier // nil means keyword fallback
	logger *zap.Logger
}

func NewDomainClassifier(model domain.SequenceClassifier, logger *zap.Logger) *DomainClassifier {
	return &DomainClassifier{model: model, logger: logger}
}

// Classify never fails: every path resolves to one of the two domains.
func (c *DomainClassifier) Classify(ctx context.Context, input string) domain.QueryDomain {
	if c.model == nil {
		return classifyByKeywords(input)
	}

	probs, err := c.model.Probabilities(ctx, domain.ModelDomain, input)
	if err != nil || len(probs) == 0 {
		c.logger.Error("domain classification failed, defaulting to general", zap.Error(err))
		return domain.DomainGeneral
	}

	idx, conf := argmax(probs)
	// Class index 1 is the general domain, everything else pregnancy.
	d := domain.DomainPregnancy
	if idx == 1 {
		d = domain.DomainGeneral
	}

	c.logger.Debug("domain classification",
		zap.String("domain", string(d)),
		zap.Float64("confidence", conf))
	return d
}

func classifyByKeywords(input string) domain.QueryDomain {
	lower := strings.ToLower(input)
	for _, kw := range pregnancyKeywords {
		if strings.Contains(lower, kw) {
			return domain.DomainPregnancy
		}
	}
	return domain.DomainGeneral
}

// argmax returns the index and value of the largest element. First occurrence
// wins ties. Callers guarantee a non-empty slice.
func argmax(probs []float64) (int, float64) {
	best, bestVal := 0, probs[0]
	for i, p := range probs {
		if p > bestVal {
			best, bestVal = i, p
		}
	}
	return best, bestVal
}
