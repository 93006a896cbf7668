package deal

import (
	"fmt"

	"go.uber.org/zap"
)

// Engine holds one calculator per variant.
type Engine struct {
	calculators map[Variant]*Calculator
	logger      *zap.Logger
}

// NewEngine creates calculators for every variant sharing a logger and advisor.
func NewEngine(logger *zap.Logger, advisor Advisor) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{calculators: make(map[Variant]*Calculator), logger: logger}
	e.calculators[Domestic] = NewCalculator(DomesticProfile(), logger, advisor)
	e.calculators[International] = NewCalculator(InternationalProfile(), logger, advisor)
	return e
}

// Calculator returns the calculator of a variant.
func (e *Engine) Calculator(variant Variant) (*Calculator, error) {
	calc, ok := e.calculators[variant]
	if !ok {
		return nil, fmt.Errorf("unknown variant %q", variant)
	}
	return calc, nil
}

// Recompute runs the full chain for one variant.
func (e *Engine) Recompute(variant Variant, in Input) (Result, error) {
	calc, err := e.Calculator(variant)
	if err != nil {
		return Result{}, err
	}
	return calc.Recompute(in), nil
}

// RecomputeAll runs both variants over their own inputs. The variants share
// nothing, so one never affects the other.
func (e *Engine) RecomputeAll(domestic, international Input) Pair {
	pair := Pair{
		Domestic:      e.calculators[Domestic].Recompute(domestic),
		International: e.calculators[International].Recompute(international),
	}
	e.logger.Debug("recomputed all variants",
		zap.String("op", "deal.Engine.RecomputeAll"),
		zap.Float64("domesticNet", pair.Domestic.Metrics.NetAnnualCashFlow),
		zap.Float64("internationalNet", pair.International.Metrics.NetAnnualCashFlow),
	)
	return pair
}
