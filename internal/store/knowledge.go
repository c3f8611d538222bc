package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/carepal-health/carepal/internal/domain"
)

// LoadIntentExamples reads the labeled example corpus from
// <dataDir>/intent_merged.csv. Columns are resolved by header name, so column
// order in the file does not matter.
func LoadIntentExamples(dataDir string) ([]domain.IntentExample, error) {
	path := filepath.Join(dataDir, "intent_merged.csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open intent examples: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	raw, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse intent examples: %w", err)
	}
	if len(raw) < 2 {
		return nil, fmt.Errorf("intent example corpus is empty: %s", path)
	}

	textIdx, intentIdx := -1, -1
	for i, col := range raw[0] {
		switch strings.TrimSpace(col) {
		case "text":
			textIdx = i
		case "intent":
			intentIdx = i
		}
	}
	if textIdx < 0 || intentIdx < 0 {
		return nil, fmt.Errorf("intent example corpus missing text/intent columns: %s", path)
	}

	examples := make([]domain.IntentExample, 0, len(raw)-1)
	for _, line := range raw[1:] {
		if textIdx >= len(line) || intentIdx >= len(line) {
			continue
		}
		text := strings.TrimSpace(line[textIdx])
		intent := strings.TrimSpace(line[intentIdx])
		if text == "" || intent == "" {
			continue
		}
		examples = append(examples, domain.IntentExample{Intent: intent, Text: text})
	}
	return examples, nil
}

// LoadKnowledge reads the free-text knowledge base files from dataDir.
// Missing files are logged and left empty; answers built from them degrade
// to the generator's own phrasing.
func LoadKnowledge(dataDir string, logger *zap.Logger) domain.Knowledge {
	var k domain.Knowledge

	guidancePath := filepath.Join(dataDir, "panduan_persiapan_persalinan.txt")
	if b, err := os.ReadFile(guidancePath); err == nil {
		k.PregnancyGuidance = string(b)
	} else {
		logger.Warn("pregnancy guidance file not found", zap.String("path", guidancePath))
	}

	descPath := filepath.Join(dataDir, "deskripsi_inten.md")
	if b, err := os.ReadFile(descPath); err == nil {
		k.IntentDescriptions = string(b)
	} else {
		logger.Warn("intent descriptions file not found", zap.String("path", descPath))
	}

	return k
}
