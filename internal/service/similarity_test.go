package service

import (
	"context"
	"math"
	"testing"

	"github.com/carepal-health/carepal/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.0001
}

// Unit vectors along distinct axes make cosine similarity exact: identical
// axis = 1, orthogonal = 0.
func axisVec(axis int) []float32 {
	vec := make([]float32, 4)
	vec[axis] = 1
	return vec
}

func testGate(t *testing.T, threshold float64) (*SimilarityGate, *fakeEncoder) {
	t.Helper()

	examples := []domain.IntentExample{
		{Intent: "cek_golongan_darah", Text: "golongan darah saya apa"},
		{Intent: "cek_golongan_darah", Text: "apa golongan darah saya"},
		{Intent: "jadwal_dokter", Text: "kapan jadwal dokter"},
		{Intent: "anc_tracker", Text: "riwayat kunjungan anc saya"},
	}
	vectors := [][]float32{axisVec(0), axisVec(1), axisVec(2), axisVec(3)}

	idx, err := NewSimilarityIndex(examples, vectors)
	if err != nil {
		t.Fatalf("build index: %v", err)
	}

	enc := &fakeEncoder{vectors: map[string][]float32{
		"golongan darah saya apa": axisVec(0),
		"kapan jadwal dokter":     axisVec(2),
		"cuaca hari ini":          {0.5, 0.5, 0.5, 0.5},
	}}
	return NewSimilarityGate(idx, enc, threshold, testLogger), enc
}

func TestSimilarityGateAcceptsCloseInput(t *testing.T) {
	gate, _ := testGate(t, 0.6)

	res := gate.Check(context.Background(), "golongan darah saya apa")
	if !res.IsValid {
		t.Fatal("expected exact-match input to pass the gate")
	}
	if !almostEqual(res.MaxSimilarity, 1.0) {
		t.Errorf("expected max similarity 1.0, got %f", res.MaxSimilarity)
	}
	if res.BestMatches[0].Intent != "cek_golongan_darah" {
		t.Errorf("expected best match cek_golongan_darah, got %s", res.BestMatches[0].Intent)
	}
}

func TestSimilarityGateRejectsDistantInput(t *testing.T) {
	gate, _ := testGate(t, 0.6)

	// 0.5 cosine against every axis, below the 0.6 threshold.
	res := gate.Check(context.Background(), "cuaca hari ini")
	if res.IsValid {
		t.Fatal("expected distant input to be rejected")
	}
	if !almostEqual(res.MaxSimilarity, 0.5) {
		t.Errorf("expected max similarity 0.5, got %f", res.MaxSimilarity)
	}
}

func TestSimilarityGateThresholdBoundary(t *testing.T) {
	// At exactly the threshold the input passes.
	gate, _ := testGate(t, 0.5)

	res := gate.Check(context.Background(), "cuaca hari ini")
	if !res.IsValid {
		t.Fatal("expected input at exactly the threshold to pass")
	}
}

func TestSimilarityGateAggregatesPerIntent(t *testing.T) {
	gate, _ := testGate(t, 0.6)

	res := gate.Check(context.Background(), "golongan darah saya apa")

	var bloodType *domain.SimilarityMatch
	for i := range res.BestMatches {
		if res.BestMatches[i].Intent == "cek_golongan_darah" {
			bloodType = &res.BestMatches[i]
		}
	}
	if bloodType == nil {
		t.Fatal("expected cek_golongan_darah in best matches")
	}
	// Two examples: one at similarity 1.0, one orthogonal at 0.0.
	if !almostEqual(bloodType.MaxSimilarity, 1.0) {
		t.Errorf("expected max 1.0, got %f", bloodType.MaxSimilarity)
	}
	if !almostEqual(bloodType.MeanSimilarity, 0.5) {
		t.Errorf("expected mean 0.5, got %f", bloodType.MeanSimilarity)
	}
}

func TestSimilarityGateEncoderFailure(t *testing.T) {
	gate, enc := testGate(t, 0.6)
	enc.err = context.DeadlineExceeded

	res := gate.Check(context.Background(), "golongan darah saya apa")
	if res.IsValid {
		t.Fatal("expected invalid result on encoder failure")
	}
	if res.MaxSimilarity != 0 || len(res.BestMatches) != 0 {
		t.Errorf("expected zero result, got %+v", res)
	}
}

func TestSimilarityGateCapsBestMatches(t *testing.T) {
	examples := make([]domain.IntentExample, 0, 8)
	vectors := make([][]float32, 0, 8)
	intents := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for i, intent := range intents {
		examples = append(examples, domain.IntentExample{Intent: intent, Text: intent})
		vec := make([]float32, 8)
		vec[i] = 1
		vectors = append(vectors, vec)
	}
	idx, err := NewSimilarityIndex(examples, vectors)
	if err != nil {
		t.Fatalf("build index: %v", err)
	}

	query := make([]float32, 8)
	query[0] = 1
	enc := &fakeEncoder{vectors: map[string][]float32{"q": query}}
	gate := NewSimilarityGate(idx, enc, 0.6, testLogger)

	res := gate.Check(context.Background(), "q")
	if len(res.BestMatches) != maxBestMatches {
		t.Errorf("expected %d best matches, got %d", maxBestMatches, len(res.BestMatches))
	}
	if res.BestMatches[0].Intent != "a" {
		t.Errorf("expected intent a first, got %s", res.BestMatches[0].Intent)
	}
}

func TestSimilarityGateStableTieBreak(t *testing.T) {
	// Two intents with identical similarity keep corpus order.
	examples := []domain.IntentExample{
		{Intent: "first", Text: "x"},
		{Intent: "second", Text: "y"},
	}
	vectors := [][]float32{{1, 0}, {1, 0}}
	idx, err := NewSimilarityIndex(examples, vectors)
	if err != nil {
		t.Fatalf("build index: %v", err)
	}

	enc := &fakeEncoder{vectors: map[string][]float32{"q": {1, 0}}}
	gate := NewSimilarityGate(idx, enc, 0.6, testLogger)

	res := gate.Check(context.Background(), "q")
	if res.BestMatches[0].Intent != "first" {
		t.Errorf("expected corpus order on tie, got %s first", res.BestMatches[0].Intent)
	}
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cosineSimilarity(tc.a, tc.b); !almostEqual(got, tc.want) {
				t.Errorf("got %f, want %f", got, tc.want)
			}
		})
	}
}

func TestNewSimilarityIndexLengthMismatch(t *testing.T) {
	_, err := NewSimilarityIndex([]domain.IntentExample{{Intent: "a", Text: "x"}}, nil)
	if err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}
