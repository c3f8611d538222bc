package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/carepal-health/carepal/internal/domain"
)

const (
	// DefaultSimilarityThreshold gates out-of-scope input.
	DefaultSimilarityThreshold = 0.6
	// maxBestMatches caps the per-check match list.
	maxBestMatches = 5
)

// SimilarityIndex holds the example corpus embeddings grouped by intent.
// Built once at startup, then read-only.
type SimilarityIndex struct {
	intents  []string // first-seen order of the corpus, kept for stable ties
	byIntent map[string][][]float32
}

// NewSimilarityIndex groups precomputed vectors by intent. examples and
// vectors are parallel slices; entries with a nil vector are skipped.
func NewSimilarityIndex(examples []domain.IntentExample, vectors [][]float32) (*SimilarityIndex, error) {
	if len(examples) != len(vectors) {
		return nil, fmt.Errorf("example/vector count mismatch: %d vs %d", len(examples), len(vectors))
	}

	idx := &SimilarityIndex{byIntent: make(map[string][][]float32)}
	for i, ex := range examples {
		if vectors[i] == nil {
			continue
		}
		if _, seen := idx.byIntent[ex.Intent]; !seen {
			idx.intents = append(idx.intents, ex.Intent)
		}
		idx.byIntent[ex.Intent] = append(idx.byIntent[ex.Intent], vectors[i])
	}
	return idx, nil
}

// BuildSimilarityIndex encodes the whole example corpus. Used when no
// persisted embeddings are available.
func BuildSimilarityIndex(ctx context.Context, encoder domain.EmbeddingClient, examples []domain.IntentExample, logger *zap.Logger) (*SimilarityIndex, [][]float32, error) {
	vectors := make([][]float32, len(examples))
	for i, ex := range examples {
		vec, err := encoder.Embed(ctx, ex.Text)
		if err != nil {
			return nil, nil, fmt.Errorf("encode example %d (%s): %w", i, ex.Intent, err)
		}
		vectors[i] = vec
	}
	logger.Info("encoded intent example corpus", zap.Int("examples", len(examples)))

	idx, err := NewSimilarityIndex(examples, vectors)
	if err != nil {
		return nil, nil, err
	}
	return idx, vectors, nil
}

// Intents returns the distinct intent names in first-seen corpus order.
func (idx *SimilarityIndex) Intents() []string {
	return idx.intents
}

// ExampleCount returns the number of indexed example vectors.
func (idx *SimilarityIndex) ExampleCount() int {
	n := 0
	for _, vecs := range idx.byIntent {
		n += len(vecs)
	}
	return n
}

// SimilarityGate decides whether input is close enough to the example corpus
// to be in scope, and surfaces the per-intent best matches for fallback
// classification.
type SimilarityGate struct {
	index     *SimilarityIndex
	encoder   domain.EmbeddingClient
	threshold float64
	logger    *zap.Logger
}

func NewSimilarityGate(index *SimilarityIndex, encoder domain.EmbeddingClient, threshold float64, logger *zap.Logger) *SimilarityGate {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &SimilarityGate{
		index:     index,
		encoder:   encoder,
		threshold: threshold,
		logger:    logger,
	}
}

// Check encodes the input and aggregates cosine similarity against every
// intent's examples. Any failure yields an invalid result with no matches;
// the caller treats that as out of scope rather than erroring the request.
func (g *SimilarityGate) Check(ctx context.Context, input string) domain.SimilarityResult {
	res, err := g.check(ctx, input)
	if err != nil {
		g.logger.Error("similarity check failed", zap.Error(err))
		return domain.SimilarityResult{IsValid: false, MaxSimilarity: 0, BestMatches: nil}
	}
	return res
}

// check is the erroring form used by the intent fallback, which needs to tell
// a clean empty result apart from a hard failure.
func (g *SimilarityGate) check(ctx context.Context, input string) (domain.SimilarityResult, error) {
	userVec, err := g.encoder.Embed(ctx, input)
	if err != nil {
		return domain.SimilarityResult{}, fmt.Errorf("encode input: %w", err)
	}

	matches := make([]domain.SimilarityMatch, 0, len(g.index.intents))
	for _, intent := range g.index.intents {
		vecs := g.index.byIntent[intent]
		maxSim, sum := 0.0, 0.0
		for i, vec := range vecs {
			sim := cosineSimilarity(userVec, vec)
			if i == 0 || sim > maxSim {
				maxSim = sim
			}
			sum += sim
		}
		matches = append(matches, domain.SimilarityMatch{
			Intent:         intent,
			MaxSimilarity:  maxSim,
			MeanSimilarity: sum / float64(len(vecs)),
		})
	}

	// Stable sort keeps corpus order on exact ties.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MaxSimilarity > matches[j].MaxSimilarity
	})
	if len(matches) > maxBestMatches {
		matches = matches[:maxBestMatches]
	}

	maxSimilarity := 0.0
	if len(matches) > 0 {
		maxSimilarity = matches[0].MaxSimilarity
	}
	valid := maxSimilarity >= g.threshold

	g.logger.Debug("similarity check",
		zap.Float64("max_similarity", maxSimilarity),
		zap.Float64("threshold", g.threshold),
		zap.Bool("valid", valid))

	return domain.SimilarityResult{
		IsValid:       valid,
		MaxSimilarity: maxSimilarity,
		BestMatches:   matches,
	}, nil
}

// cosineSimilarity of two vectors. Zero when either has zero magnitude or
// lengths differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
