// Package store persists deal records together with their latest computed
// result.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/deal-calculator/internal/config"
	"github.com/iwvelando/deal-calculator/internal/deal"
	"github.com/iwvelando/deal-calculator/pkg/constants"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no record has the requested ID.
var ErrNotFound = errors.New("deal not found")

// Record is a stored deal: its input and the result of its latest compute cycle.
type Record struct {
	ID        string       `json:"id" yaml:"id"`
	Name      string       `json:"name" yaml:"name"`
	Variant   deal.Variant `json:"variant" yaml:"variant"`
	Input     deal.Input   `json:"input" yaml:"input"`
	Result    deal.Result  `json:"result" yaml:"result"`
	CreatedAt time.Time    `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt" yaml:"updatedAt"`
}

// Repository stores records. Save replaces the stored result wholesale,
// including its ordered collections. List returns records oldest first.
type Repository interface {
	Save(ctx context.Context, record *Record) error
	Load(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Open creates the repository selected by the storage configuration.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case "", constants.StorageDriverMemory:
		return NewMemoryRepository(), nil
	case constants.StorageDriverSQLite:
		repo, err := OpenSQLite(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case constants.StorageDriverPostgres:
		repo, err := OpenPostgres(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// prepare assigns an ID to new records and stamps the save time.
func prepare(record *Record, now time.Time) error {
	if record == nil {
		return errors.New("nil record")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	} else if _, err := uuid.Parse(record.ID); err != nil {
		return fmt.Errorf("invalid record id %q: %w", record.ID, err)
	}
	now = now.UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	return nil
}

func cloneRecord(record Record) Record {
	clone := record
	clone.Result.Growth = append([]deal.GrowthRow(nil), record.Result.Growth...)
	clone.Result.CapitalGain = append([]deal.LineItem(nil), record.Result.CapitalGain...)
	clone.Result.Returns = append([]deal.ReturnRow(nil), record.Result.Returns...)
	clone.Result.Advisories = append([]deal.Advisory(nil), record.Result.Advisories...)
	return clone
}
