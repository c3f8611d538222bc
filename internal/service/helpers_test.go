package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/carepal-health/carepal/internal/domain"
)

var testLogger = zap.NewNop()

// fakeEncoder returns a fixed vector per known text and errors on anything
// else when strict.
type fakeEncoder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEncoder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return nil, errors.New("no vector for input: " + text)
}

// fakeClassifier serves canned distributions per model.
type fakeClassifier struct {
	probs      map[string][]float64
	numClasses map[string]int
	err        error
}

func (f *fakeClassifier) Probabilities(_ context.Context, model, _ string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	probs, ok := f.probs[model]
	if !ok {
		return nil, errors.New("unknown model: " + model)
	}
	return probs, nil
}

func (f *fakeClassifier) NumClasses(_ context.Context, model string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n, ok := f.numClasses[model]
	if !ok {
		return 0, errors.New("unknown model: " + model)
	}
	return n, nil
}

// fakeGenerator replays a fixed reply and records the last prompt.
type fakeGenerator struct {
	reply      string
	err        error
	lastPrompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// memStore is an in-memory RecordStore seeded directly with rows.
type memStore struct {
	tables map[string][]domain.Record
}

func newMemStore() *memStore {
	return &memStore{tables: make(map[string][]domain.Record)}
}

func (s *memStore) add(table string, rows ...domain.Record) *memStore {
	s.tables[table] = append(s.tables[table], rows...)
	return s
}

func (s *memStore) Table(name string) []domain.Record {
	return s.tables[name]
}

func emptyKnowledge() *domain.Knowledge {
	return &domain.Knowledge{}
}
