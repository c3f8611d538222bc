package service

import (
	"context"
	"errors"
	"testing"

	"github.com/carepal-health/carepal/internal/domain"
)

func TestIntentClassifierTopTwoOrdering(t *testing.T) {
	probs := make([]float64, len(domain.GeneralIntents))
	probs[6] = 0.55 // jadwal_dokter
	probs[2] = 0.30 // detail_dokter
	probs[0] = 0.15

	model := &fakeClassifier{probs: map[string][]float64{domain.ModelGeneralIntent: probs}}
	c := NewIntentClassifier(model, nil, testLogger)

	got := c.Classify(context.Background(), "kapan dokter praktik", domain.DomainGeneral)

	if got.Method != domain.MethodClassifier {
		t.Fatalf("expected classifier method, got %s", got.Method)
	}
	if got.Intent != "jadwal_dokter" {
		t.Errorf("expected jadwal_dokter, got %s", got.Intent)
	}
	if len(got.Predictions) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(got.Predictions))
	}
	if got.Predictions[0].Intent != "jadwal_dokter" || got.Predictions[0].Rank != 1 {
		t.Errorf("bad primary prediction: %+v", got.Predictions[0])
	}
	if got.Predictions[1].Intent != "detail_dokter" || got.Predictions[1].Rank != 2 {
		t.Errorf("bad alternate prediction: %+v", got.Predictions[1])
	}
	if got.Predictions[0].Confidence != got.Confidence {
		t.Error("primary prediction must mirror the classification confidence")
	}
}

func TestIntentClassifierPregnancyVocabulary(t *testing.T) {
	probs := make([]float64, len(domain.PregnancyIntents))
	probs[3] = 0.7 // reminder_kontrol_kehamilan
	probs[0] = 0.2

	model := &fakeClassifier{probs: map[string][]float64{domain.ModelPregnancyIntent: probs}}
	c := NewIntentClassifier(model, nil, testLogger)

	got := c.Classify(context.Background(), "kapan kontrol berikutnya", domain.DomainPregnancy)
	if got.Intent != "reminder_kontrol_kehamilan" {
		t.Errorf("expected reminder_kontrol_kehamilan, got %s", got.Intent)
	}
}

func TestIntentClassifierOutOfRangeIndexUsesDefault(t *testing.T) {
	// Distribution longer than the vocabulary: the winning index has no label.
	probs := make([]float64, len(domain.PregnancyIntents)+1)
	probs[len(probs)-1] = 0.9
	probs[1] = 0.1

	model := &fakeClassifier{probs: map[string][]float64{domain.ModelPregnancyIntent: probs}}
	c := NewIntentClassifier(model, nil, testLogger)

	got := c.Classify(context.Background(), "apa itu", domain.DomainPregnancy)
	if got.Intent != domain.DefaultPregnancyIntent {
		t.Errorf("expected default intent for out-of-range class, got %s", got.Intent)
	}
	// The confidence still reflects the raw winning probability.
	if !almostEqual(got.Confidence, 0.9) {
		t.Errorf("expected confidence 0.9, got %f", got.Confidence)
	}
}

func TestIntentClassifierFallbackUsesBestSimilarityMatch(t *testing.T) {
	gate, _ := testGate(t, 0.6)
	c := NewIntentClassifier(nil, gate, testLogger)

	got := c.Classify(context.Background(), "golongan darah saya apa", domain.DomainGeneral)

	if got.Method != domain.MethodFallbackSimilarity {
		t.Fatalf("expected similarity fallback, got %s", got.Method)
	}
	if got.Intent != "cek_golongan_darah" {
		t.Errorf("expected cek_golongan_darah, got %s", got.Intent)
	}
	if !almostEqual(got.Confidence, 1.0) {
		t.Errorf("expected confidence from the match similarity, got %f", got.Confidence)
	}
	if len(got.Predictions) != 1 {
		t.Errorf("fallback carries a single prediction, got %d", len(got.Predictions))
	}
}

func TestIntentClassifierFallbackDefaults(t *testing.T) {
	t.Run("no gate is a hard error", func(t *testing.T) {
		c := NewIntentClassifier(nil, nil, testLogger)

		got := c.Classify(context.Background(), "apa saja", domain.DomainPregnancy)
		if got.Method != domain.MethodFallbackDefault {
			t.Fatalf("expected default fallback, got %s", got.Method)
		}
		if got.Intent != domain.DefaultPregnancyIntent {
			t.Errorf("expected %s, got %s", domain.DefaultPregnancyIntent, got.Intent)
		}
		if got.Confidence != fallbackConfidenceError {
			t.Errorf("expected hard-error confidence %v, got %v", fallbackConfidenceError, got.Confidence)
		}
	})

	t.Run("gate failure is a hard error", func(t *testing.T) {
		gate, enc := testGate(t, 0.6)
		enc.err = errors.New("encoder down")
		c := NewIntentClassifier(nil, gate, testLogger)

		got := c.Classify(context.Background(), "apa saja", domain.DomainGeneral)
		if got.Intent != domain.DefaultGeneralIntent || got.Confidence != fallbackConfidenceError {
			t.Errorf("expected default with confidence 0.1, got %s/%v", got.Intent, got.Confidence)
		}
	})

	t.Run("clean run with empty corpus", func(t *testing.T) {
		idx, err := NewSimilarityIndex(nil, nil)
		if err != nil {
			t.Fatalf("build index: %v", err)
		}
		enc := &fakeEncoder{vectors: map[string][]float32{"apa saja": {1, 0}}}
		gate := NewSimilarityGate(idx, enc, 0.6, testLogger)
		c := NewIntentClassifier(nil, gate, testLogger)

		got := c.Classify(context.Background(), "apa saja", domain.DomainGeneral)
		if got.Intent != domain.DefaultGeneralIntent || got.Confidence != fallbackConfidenceNoMatch {
			t.Errorf("expected default with confidence 0.5, got %s/%v", got.Intent, got.Confidence)
		}
	})
}

func TestIntentClassifierModelErrorFallsBack(t *testing.T) {
	gate, _ := testGate(t, 0.6)
	model := &fakeClassifier{err: errors.New("inference down")}
	c := NewIntentClassifier(model, gate, testLogger)

	got := c.Classify(context.Background(), "kapan jadwal dokter", domain.DomainGeneral)
	if got.Method != domain.MethodFallbackSimilarity {
		t.Fatalf("expected similarity fallback on model error, got %s", got.Method)
	}
	if got.Intent != "jadwal_dokter" {
		t.Errorf("expected jadwal_dokter, got %s", got.Intent)
	}
}

func TestVocabularySizes(t *testing.T) {
	// The positional contract with the trained models.
	if len(domain.PregnancyIntents) != 6 {
		t.Errorf("pregnancy vocabulary must have 6 labels, got %d", len(domain.PregnancyIntents))
	}
	if len(domain.GeneralIntents) != 11 {
		t.Errorf("general vocabulary must have 11 labels, got %d", len(domain.GeneralIntents))
	}
	if domain.PregnancyIntents[3] != "reminder_kontrol_kehamilan" {
		t.Errorf("pregnancy label 3 must be reminder_kontrol_kehamilan, got %s", domain.PregnancyIntents[3])
	}
	if domain.GeneralIntents[0] != "cek_data_customer" {
		t.Errorf("general label 0 must be cek_data_customer, got %s", domain.GeneralIntents[0])
	}
}

func TestVerifyClassifierContract(t *testing.T) {
	ok := &fakeClassifier{numClasses: map[string]int{
		domain.ModelDomain:          2,
		domain.ModelPregnancyIntent: len(domain.PregnancyIntents),
		domain.ModelGeneralIntent:   len(domain.GeneralIntents),
	}}
	if err := VerifyClassifierContract(context.Background(), ok); err != nil {
		t.Errorf("expected contract to verify, got %v", err)
	}

	bad := &fakeClassifier{numClasses: map[string]int{
		domain.ModelDomain:          2,
		domain.ModelPregnancyIntent: len(domain.PregnancyIntents) - 1,
		domain.ModelGeneralIntent:   len(domain.GeneralIntents),
	}}
	if err := VerifyClassifierContract(context.Background(), bad); err == nil {
		t.Error("expected mismatch error")
	}
}
