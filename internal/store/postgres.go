package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
	"go.uber.org/zap"

	"github.com/carepal-health/carepal/internal/domain"
)

// PostgresStore serves the same read-only table snapshots as CSVStore, loaded
// from Postgres at startup. It also persists intent-example embeddings (via
// pgvector) so the similarity index can be rebuilt without re-encoding the
// whole corpus.
type PostgresStore struct {
	pool   *pgxpool.Pool
	tables map[string][]domain.Record
	logger *zap.Logger
}

var _ domain.RecordStore = (*PostgresStore)(nil)

// NewPostgresStore connects, registers the vector type, and snapshots every
// known table into memory. A table that cannot be queried is logged and
// served empty, matching CSVStore's missing-file behavior.
func NewPostgresStore(ctx context.Context, databaseURL string, logger *zap.Logger) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{
		pool:   pool,
		tables: make(map[string][]domain.Record, len(domain.TableNames)),
		logger: logger,
	}

	for _, name := range domain.TableNames {
		rows, err := s.loadTable(ctx, name)
		if err != nil {
			logger.Warn("table not loadable, serving empty table",
				zap.String("table", name),
				zap.Error(err))
			continue
		}
		s.tables[name] = rows
		logger.Info("loaded table snapshot",
			zap.String("table", name),
			zap.Int("rows", len(rows)))
	}

	return s, nil
}

// Table returns every row of the named table in query order.
func (s *PostgresStore) Table(name string) []domain.Record {
	return s.tables[name]
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping reports whether the database connection is healthy.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// loadTable snapshots one table. Names come from the fixed TableNames
// whitelist, never from request input.
func (s *PostgresStore) loadTable(ctx context.Context, name string) ([]domain.Record, error) {
	rows, err := s.pool.Query(ctx, "SELECT * FROM "+name)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, fd := range fields {
		cols[i] = string(fd.Name)
	}

	var out []domain.Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}
		rec := make(domain.Record, len(cols))
		for i, col := range cols {
			rec[col] = valueToString(values[i])
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", name, err)
	}
	return out, nil
}

// valueToString flattens a scanned value into the string form the retrieval
// layer expects, matching what the CSV snapshots carry.
func valueToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.Format("2006-01-02")
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

// LoadIntentExamples returns the persisted example corpus along with its
// stored embeddings. Examples without a stored embedding get a nil vector;
// the caller re-encodes those.
func (s *PostgresStore) LoadIntentExamples(ctx context.Context) ([]domain.IntentExample, [][]float32, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT intent, example_text, embedding FROM intent_example ORDER BY id")
	if err != nil {
		return nil, nil, fmt.Errorf("query intent examples: %w", err)
	}
	defer rows.Close()

	var examples []domain.IntentExample
	var vectors [][]float32
	for rows.Next() {
		var intent, text string
		var emb *pgvector.Vector
		if err := rows.Scan(&intent, &text, &emb); err != nil {
			return nil, nil, fmt.Errorf("scan intent example: %w", err)
		}
		examples = append(examples, domain.IntentExample{Intent: intent, Text: text})
		if emb != nil {
			vectors = append(vectors, emb.Slice())
		} else {
			vectors = append(vectors, nil)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate intent examples: %w", err)
	}
	return examples, vectors, nil
}

// SaveExampleEmbeddings replaces the persisted example corpus with the given
// examples and their freshly computed embeddings, in one transaction.
func (s *PostgresStore) SaveExampleEmbeddings(ctx context.Context, examples []domain.IntentExample, vectors [][]float32) error {
	if len(examples) != len(vectors) {
		return fmt.Errorf("example/vector count mismatch: %d vs %d", len(examples), len(vectors))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "TRUNCATE intent_example"); err != nil {
		return fmt.Errorf("truncate intent examples: %w", err)
	}

	for i, ex := range examples {
		vec := pgvector.NewVector(vectors[i])
		if _, err := tx.Exec(ctx,
			"INSERT INTO intent_example (intent, example_text, embedding) VALUES ($1, $2, $3)",
			ex.Intent, ex.Text, vec); err != nil {
			return fmt.Errorf("insert intent example: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
