package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/deal-calculator/internal/deal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS deals (
		id          UUID PRIMARY KEY,
		name        TEXT NOT NULL,
		variant     TEXT NOT NULL,
		input_json  JSONB NOT NULL,
		result_json JSONB NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_deals_created_at ON deals (created_at);
`

// PostgresRepository stores records in PostgreSQL. The input and the whole
// result, ordered collections included, are kept as JSONB documents.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	now    func() time.Time
}

// OpenPostgres connects to the database at dsn and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dsn == "" {
		return nil, errors.New("postgres storage needs a dsn")
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("database connection established", zap.String("op", "store.OpenPostgres"))
	return &PostgresRepository{pool: pool, logger: logger, now: time.Now}, nil
}

// Save implements Repository as an upsert keyed by ID.
func (r *PostgresRepository) Save(ctx context.Context, record *Record) error {
	if err := prepare(record, r.now()); err != nil {
		return err
	}

	inputJSON, err := json.Marshal(record.Input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}
	resultJSON, err := json.Marshal(record.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	query := `
		INSERT INTO deals (id, name, variant, input_json, result_json, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			variant = EXCLUDED.variant,
			input_json = EXCLUDED.input_json,
			result_json = EXCLUDED.result_json,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at;
	`

	var created time.Time
	err = r.pool.QueryRow(ctx, query, record.ID, record.Name, string(record.Variant), inputJSON, resultJSON,
		record.CreatedAt, record.UpdatedAt).Scan(&created)
	if err != nil {
		return fmt.Errorf("failed to save deal: %w", err)
	}
	record.CreatedAt = created.UTC()
	return nil
}

func scanPostgresDeal(row pgx.Row) (*Record, error) {
	var (
		record                Record
		variant               string
		inputJSON, resultJSON []byte
	)
	if err := row.Scan(&record.ID, &record.Name, &variant, &inputJSON, &resultJSON, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return nil, err
	}
	record.Variant = deal.Variant(variant)
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	if err := json.Unmarshal(inputJSON, &record.Input); err != nil {
		return nil, fmt.Errorf("failed to unmarshal input: %w", err)
	}
	if err := json.Unmarshal(resultJSON, &record.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &record, nil
}

const selectPostgresDeal = `SELECT id::text, name, variant, input_json, result_json, created_at, updated_at FROM deals`

// Load implements Repository.
func (r *PostgresRepository) Load(ctx context.Context, id string) (*Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	record, err := scanPostgresDeal(r.pool.QueryRow(ctx, selectPostgresDeal+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load deal %s: %w", id, err)
	}
	return record, nil
}

// List implements Repository.
func (r *PostgresRepository) List(ctx context.Context) ([]Record, error) {
	rows, err := r.pool.Query(ctx, selectPostgresDeal+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		record, err := scanPostgresDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	return records, nil
}

// Delete implements Repository.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM deals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete deal %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close implements Repository.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
