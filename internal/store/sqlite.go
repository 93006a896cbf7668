package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/iwvelando/deal-calculator/internal/deal"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

// SQLiteRepository stores records in a SQLite database. The ordered result
// collections live in child tables keyed by position.
type SQLiteRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and applies
// pending migrations.
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		return nil, errors.New("sqlite storage needs a database path")
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	// Limit open connections to 1 for SQLite to avoid locking issues
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := migrateSQLite(db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("database connection established",
		zap.String("op", "store.OpenSQLite"),
		zap.String("path", path),
	)
	return &SQLiteRepository{db: db, logger: logger, now: time.Now}, nil
}

func migrateSQLite(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(sqliteMigrations, "migrations/sqlite")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migration instance creation failed: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Debug("no new database migrations to apply", zap.String("op", "store.migrateSQLite"))
	case err != nil:
		return fmt.Errorf("failed to apply migrations: %w", err)
	default:
		logger.Info("database migrations applied", zap.String("op", "store.migrateSQLite"))
	}
	return nil
}

// Save implements Repository. The record row is upserted and the child rows
// are replaced inside one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, record *Record) error {
	if record != nil && record.ID != "" && record.CreatedAt.IsZero() {
		var created int64
		err := r.db.QueryRowContext(ctx, `SELECT created_at FROM deals WHERE id = ?`, record.ID).Scan(&created)
		if err == nil {
			record.CreatedAt = time.Unix(0, created).UTC()
		} else if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to look up deal %s: %w", record.ID, err)
		}
	}
	if err := prepare(record, r.now()); err != nil {
		return err
	}

	inputJSON, err := json.Marshal(record.Input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}
	metricsJSON, err := json.Marshal(record.Result.Metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	advisories := record.Result.Advisories
	if advisories == nil {
		advisories = []deal.Advisory{}
	}
	advisoriesJSON, err := json.Marshal(advisories)
	if err != nil {
		return fmt.Errorf("failed to marshal advisories: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO deals (id, name, variant, input_json, metrics_json, advisories_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			variant = excluded.variant,
			input_json = excluded.input_json,
			metrics_json = excluded.metrics_json,
			advisories_json = excluded.advisories_json,
			updated_at = excluded.updated_at`,
		record.ID, record.Name, string(record.Variant), string(inputJSON), string(metricsJSON),
		string(advisoriesJSON), record.CreatedAt.UnixNano(), record.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save deal: %w", err)
	}

	for _, table := range []string{"growth_rows", "gain_items", "return_rows"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE deal_id = ?`, record.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, row := range record.Result.Growth {
		var increase sql.NullFloat64
		if row.Increase != nil {
			increase = sql.NullFloat64{Float64: *row.Increase, Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO growth_rows (deal_id, position, year, value, display_value, growth_rate, increase, display_increase)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			record.ID, i, row.Year, row.Value, row.DisplayValue, row.GrowthRate, increase, row.DisplayIncrease)
		if err != nil {
			return fmt.Errorf("failed to save growth row %d: %w", i, err)
		}
	}
	for i, item := range record.Result.CapitalGain {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO gain_items (deal_id, position, label, amount, display) VALUES (?, ?, ?, ?, ?)`,
			record.ID, i, item.Label, item.Amount, item.Display)
		if err != nil {
			return fmt.Errorf("failed to save capital gain item %d: %w", i, err)
		}
	}
	for i, row := range record.Result.Returns {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO return_rows (deal_id, position, metric, value, display, percentage) VALUES (?, ?, ?, ?, ?, ?)`,
			record.ID, i, row.Metric, row.Value, row.Display, row.Percentage)
		if err != nil {
			return fmt.Errorf("failed to save return row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit deal: %w", err)
	}

	r.logger.Debug("saved deal",
		zap.String("op", "store.SQLiteRepository.Save"),
		zap.String("id", record.ID),
		zap.Int("growthRows", len(record.Result.Growth)),
	)
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDeal(row rowScanner) (*Record, error) {
	var (
		record                                     Record
		variant, inputJSON, metricsJSON, advisJSON string
		created, updated                           int64
	)
	if err := row.Scan(&record.ID, &record.Name, &variant, &inputJSON, &metricsJSON, &advisJSON, &created, &updated); err != nil {
		return nil, err
	}
	record.Variant = deal.Variant(variant)
	record.Result.Variant = record.Variant
	record.CreatedAt = time.Unix(0, created).UTC()
	record.UpdatedAt = time.Unix(0, updated).UTC()

	if err := json.Unmarshal([]byte(inputJSON), &record.Input); err != nil {
		return nil, fmt.Errorf("failed to unmarshal input: %w", err)
	}
	if err := json.Unmarshal([]byte(metricsJSON), &record.Result.Metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}
	if err := json.Unmarshal([]byte(advisJSON), &record.Result.Advisories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal advisories: %w", err)
	}
	if len(record.Result.Advisories) == 0 {
		record.Result.Advisories = nil
	}
	return &record, nil
}

const selectDeal = `SELECT id, name, variant, input_json, metrics_json, advisories_json, created_at, updated_at FROM deals`

// Load implements Repository.
func (r *SQLiteRepository) Load(ctx context.Context, id string) (*Record, error) {
	record, err := scanDeal(r.db.QueryRowContext(ctx, selectDeal+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load deal %s: %w", id, err)
	}
	if err := r.loadCollections(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// List implements Repository.
func (r *SQLiteRepository) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, selectDeal+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	var records []Record
	for rows.Next() {
		record, err := scanDeal(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	_ = rows.Close()

	for i := range records {
		if err := r.loadCollections(ctx, &records[i]); err != nil {
			return nil, err
		}
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func (r *SQLiteRepository) loadCollections(ctx context.Context, record *Record) error {
	growth, err := r.db.QueryContext(ctx, `
		SELECT year, value, display_value, growth_rate, increase, display_increase
		FROM growth_rows WHERE deal_id = ? ORDER BY position`, record.ID)
	if err != nil {
		return fmt.Errorf("failed to load growth rows: %w", err)
	}
	for growth.Next() {
		var row deal.GrowthRow
		var increase sql.NullFloat64
		if err := growth.Scan(&row.Year, &row.Value, &row.DisplayValue, &row.GrowthRate, &increase, &row.DisplayIncrease); err != nil {
			_ = growth.Close()
			return fmt.Errorf("failed to scan growth row: %w", err)
		}
		if increase.Valid {
			value := increase.Float64
			row.Increase = &value
		}
		record.Result.Growth = append(record.Result.Growth, row)
	}
	if err := growth.Err(); err != nil {
		_ = growth.Close()
		return fmt.Errorf("failed to read growth rows: %w", err)
	}
	_ = growth.Close()

	items, err := r.db.QueryContext(ctx, `
		SELECT label, amount, display FROM gain_items WHERE deal_id = ? ORDER BY position`, record.ID)
	if err != nil {
		return fmt.Errorf("failed to load capital gain items: %w", err)
	}
	for items.Next() {
		var item deal.LineItem
		if err := items.Scan(&item.Label, &item.Amount, &item.Display); err != nil {
			_ = items.Close()
			return fmt.Errorf("failed to scan capital gain item: %w", err)
		}
		record.Result.CapitalGain = append(record.Result.CapitalGain, item)
	}
	if err := items.Err(); err != nil {
		_ = items.Close()
		return fmt.Errorf("failed to read capital gain items: %w", err)
	}
	_ = items.Close()

	returns, err := r.db.QueryContext(ctx, `
		SELECT metric, value, display, percentage FROM return_rows WHERE deal_id = ? ORDER BY position`, record.ID)
	if err != nil {
		return fmt.Errorf("failed to load return rows: %w", err)
	}
	for returns.Next() {
		var row deal.ReturnRow
		if err := returns.Scan(&row.Metric, &row.Value, &row.Display, &row.Percentage); err != nil {
			_ = returns.Close()
			return fmt.Errorf("failed to scan return row: %w", err)
		}
		record.Result.Returns = append(record.Result.Returns, row)
	}
	if err := returns.Err(); err != nil {
		_ = returns.Close()
		return fmt.Errorf("failed to read return rows: %w", err)
	}
	_ = returns.Close()
	return nil
}

// Delete implements Repository. Child rows are removed by the foreign key cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete deal %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete deal %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close implements Repository.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
