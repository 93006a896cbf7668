// Package service ties the calculators to the result cache and the deal
// repository. It is the layer the HTTP server and the command line share.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/deal-calculator/internal/cache"
	"github.com/iwvelando/deal-calculator/internal/deal"
	"github.com/iwvelando/deal-calculator/internal/store"
	"go.uber.org/zap"
)

// ErrInvalidName is returned when a deal is saved without a name.
var ErrInvalidName = errors.New("deal name is required")

// DealService computes, caches and stores deals.
type DealService struct {
	engine *deal.Engine
	repo   store.Repository
	cache  cache.Cache
	logger *zap.Logger
}

// NewDealService creates a service. A nil cache disables caching and a nil
// repository keeps deals in memory.
func NewDealService(engine *deal.Engine, repo store.Repository, c cache.Cache, logger *zap.Logger) *DealService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = deal.NewEngine(logger, nil)
	}
	if repo == nil {
		repo = store.NewMemoryRepository()
	}
	if c == nil {
		c = cache.NopCache{}
	}
	return &DealService{engine: engine, repo: repo, cache: c, logger: logger}
}

// Engine returns the calculators the service computes with.
func (s *DealService) Engine() *deal.Engine {
	return s.engine
}

// Calculate runs the full chain for one variant, serving repeated inputs
// from the cache. Advisories of a cached result are raised again.
func (s *DealService) Calculate(ctx context.Context, variant deal.Variant, in deal.Input) (deal.Result, error) {
	calc, err := s.engine.Calculator(variant)
	if err != nil {
		return deal.Result{}, err
	}

	key := cache.Key(variant, in)
	if result, ok := s.cache.Get(ctx, key); ok {
		s.logger.Debug("cache hit",
			zap.String("op", "service.Calculate"),
			zap.String("variant", string(variant)),
		)
		calc.Replay(result.Advisories)
		return result, nil
	}

	result := calc.Recompute(in)
	if err := s.cache.Set(ctx, key, result); err != nil {
		s.logger.Warn("failed to cache result",
			zap.String("op", "service.Calculate"),
			zap.String("variant", string(variant)),
			zap.Error(err),
		)
	}
	return result, nil
}

// CalculateAll runs both variants.
func (s *DealService) CalculateAll(ctx context.Context, domestic, international deal.Input) (deal.Pair, error) {
	var pair deal.Pair
	var err error
	if pair.Domestic, err = s.Calculate(ctx, deal.Domestic, domestic); err != nil {
		return deal.Pair{}, err
	}
	if pair.International, err = s.Calculate(ctx, deal.International, international); err != nil {
		return deal.Pair{}, err
	}
	return pair, nil
}

// Save computes a new deal and stores it.
func (s *DealService) Save(ctx context.Context, name string, variant deal.Variant, in deal.Input) (*store.Record, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}
	result, err := s.Calculate(ctx, variant, in)
	if err != nil {
		return nil, err
	}
	record := &store.Record{Name: name, Variant: variant, Input: in, Result: result}
	if err := s.repo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save deal %q: %w", name, err)
	}
	s.logger.Info("saved deal",
		zap.String("op", "service.Save"),
		zap.String("id", record.ID),
		zap.String("variant", string(variant)),
	)
	return record, nil
}

// Update replaces the name and input of a stored deal and recomputes it.
// An empty name keeps the stored one.
func (s *DealService) Update(ctx context.Context, id, name string, in deal.Input) (*store.Record, error) {
	record, err := s.repo.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) != "" {
		record.Name = name
	}
	record.Input = in
	return s.recompute(ctx, record)
}

// Get loads a stored deal.
func (s *DealService) Get(ctx context.Context, id string) (*store.Record, error) {
	return s.repo.Load(ctx, id)
}

// List returns every stored deal.
func (s *DealService) List(ctx context.Context) ([]store.Record, error) {
	return s.repo.List(ctx)
}

// Delete removes a stored deal.
func (s *DealService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Recalculate recomputes a stored deal from its stored input.
func (s *DealService) Recalculate(ctx context.Context, id string) (*store.Record, error) {
	record, err := s.repo.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.recompute(ctx, record)
}

func (s *DealService) recompute(ctx context.Context, record *store.Record) (*store.Record, error) {
	result, err := s.Calculate(ctx, record.Variant, record.Input)
	if err != nil {
		return nil, err
	}
	record.Result = result
	if err := s.repo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save deal %s: %w", record.ID, err)
	}
	return record, nil
}

// ApplyChange sets one input field of a stored deal the way an edit form
// would: the stages that depend directly on the field are refreshed on the
// stored result. With recompute set the whole chain runs afterwards.
func (s *DealService) ApplyChange(ctx context.Context, id, field string, value interface{}, recompute bool) (*store.Record, []deal.Stage, error) {
	record, err := s.repo.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	calc, err := s.engine.Calculator(record.Variant)
	if err != nil {
		return nil, nil, err
	}

	w := deal.NewWorksheet(calc, record.Input, s.logger)
	w.Restore(record.Result)
	stages, err := w.SetField(field, value)
	if err != nil {
		return nil, nil, err
	}
	if recompute {
		if _, err := w.Recompute(); err != nil {
			return nil, nil, err
		}
		stages = deal.Stages()
	}

	record.Input = w.Input()
	record.Result = w.Result()
	if err := s.repo.Save(ctx, record); err != nil {
		return nil, nil, fmt.Errorf("failed to save deal %s: %w", record.ID, err)
	}
	s.logger.Debug("applied field change",
		zap.String("op", "service.ApplyChange"),
		zap.String("id", id),
		zap.String("field", field),
		zap.Int("stages", len(stages)),
	)
	return record, stages, nil
}

// StageOutput is what a single stage run produced.
type StageOutput struct {
	Stage       deal.Stage       `json:"stage"`
	Metrics     deal.Metrics     `json:"metrics"`
	Growth      []deal.GrowthRow `json:"growth,omitempty"`
	CapitalGain []deal.LineItem  `json:"capitalGain,omitempty"`
	Returns     []deal.ReturnRow `json:"returns,omitempty"`
}

// RunStage runs one stage over an input and the metrics of earlier stages,
// for callers that refresh a single value without the full chain.
func (s *DealService) RunStage(variant deal.Variant, stage deal.Stage, in deal.Input, m deal.Metrics) (StageOutput, error) {
	calc, err := s.engine.Calculator(variant)
	if err != nil {
		return StageOutput{}, err
	}
	out := StageOutput{Stage: stage}
	switch stage {
	case deal.StageStampDuty:
		calc.StampDuty(in, &m)
	case deal.StageLendingFee:
		calc.LendingFee(in, &m)
	case deal.StageProjectManagement:
		calc.ProjectManagement(in, &m)
	case deal.StageCapitalIn:
		calc.CapitalIn(in, &m)
	case deal.StageRefinance:
		calc.Refinance(in, &m)
	case deal.StageRental:
		calc.Rental(in, &m)
	case deal.StageGrowth:
		out.Growth = calc.GrowthProjection(in, &m)
	case deal.StageCapitalGain:
		out.CapitalGain = calc.CapitalGain(in, &m)
	case deal.StageReturns:
		out.Returns = calc.Returns(in, &m)
	default:
		return StageOutput{}, fmt.Errorf("unknown stage %q", stage)
	}
	out.Metrics = m
	return out, nil
}

// Close releases the cache and the repository.
func (s *DealService) Close() error {
	return errors.Join(s.cache.Close(), s.repo.Close())
}
