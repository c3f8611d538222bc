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

// CSVStore serves record tables loaded from flat CSV snapshots under
// <dataDir>/Database. Tables load once at construction; reads are lock-free
// because the snapshots are never mutated afterwards.
type CSVStore struct {
	tables map[string][]domain.Record
	logger *zap.Logger
}

var _ domain.RecordStore = (*CSVStore)(nil)

// NewCSVStore loads every known table from dataDir/Database. A missing file
// is logged and skipped; the table then reads as empty. Only a malformed CSV
// fails the load.
func NewCSVStore(dataDir string, logger *zap.Logger) (*CSVStore, error) {
	s := &CSVStore{
		tables: make(map[string][]domain.Record, len(domain.TableNames)),
		logger: logger,
	}

	dbDir := filepath.Join(dataDir, "Database")
	for _, name := range domain.TableNames {
		path := filepath.Join(dbDir, name+".csv")
		rows, err := readCSVTable(path)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Warn("table snapshot not found, serving empty table",
					zap.String("table", name),
					zap.String("path", path))
				continue
			}
			return nil, fmt.Errorf("load table %s: %w", name, err)
		}
		s.tables[name] = rows
		logger.Info("loaded table snapshot",
			zap.String("table", name),
			zap.Int("rows", len(rows)))
	}

	return s, nil
}

// Table returns every row of the named table in file order.
func (s *CSVStore) Table(name string) []domain.Record {
	return s.tables[name]
}

// readCSVTable reads one CSV file into records keyed by trimmed header names.
func readCSVTable(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	raw, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	header := raw[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows := make([]domain.Record, 0, len(raw)-1)
	for _, line := range raw[1:] {
		rec := make(domain.Record, len(header))
		for i, col := range header {
			if i < len(line) {
				rec[col] = strings.TrimSpace(line[i])
			}
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
