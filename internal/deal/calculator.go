package deal

import (
	"fmt"

	"go.uber.org/zap"
)

// Calculator runs the deal pipeline for one variant. It holds no per-deal
// state and is safe for concurrent use.
type Calculator struct {
	profile Profile
	logger  *zap.Logger
	advisor Advisor
}

// NewCalculator creates a calculator for a rule set. A nil logger is
// replaced by a no-op logger; a nil advisor logs advisories through logger.
func NewCalculator(profile Profile, logger *zap.Logger, advisor Advisor) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if advisor == nil {
		advisor = NewLogAdvisor(logger)
	}
	return &Calculator{profile: profile, logger: logger, advisor: advisor}
}

// NewVariantCalculator creates a calculator using the built-in rule set of a variant.
func NewVariantCalculator(variant Variant, logger *zap.Logger, advisor Advisor) (*Calculator, error) {
	profile, err := ProfileFor(variant)
	if err != nil {
		return nil, err
	}
	return NewCalculator(profile, logger, advisor), nil
}

// Profile returns the rule set of the calculator.
func (c *Calculator) Profile() Profile {
	return c.profile
}

// Variant returns the variant the calculator computes.
func (c *Calculator) Variant() Variant {
	return c.profile.Variant
}

func (c *Calculator) advise(advisor Advisor, stage Stage, format string, args ...interface{}) {
	advisor.Advise(Advisory{
		Variant: c.profile.Variant,
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
	})
}

// Replay sends previously raised advisories to the calculator's advisor, so a
// result served from a cache surfaces the same advisories as a fresh run.
func (c *Calculator) Replay(advisories []Advisory) {
	for _, advisory := range advisories {
		c.advisor.Advise(advisory)
	}
}

// guard runs a stage, recovering from any fault. A recovered fault is logged
// and reset restores the stage's documented defaults.
func (c *Calculator) guard(stage Stage, reset func(), run func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error(fmt.Sprintf("error in %s calculation: %v", stage, r),
				zap.String("op", "deal.Calculator."+string(stage)),
				zap.String("variant", string(c.profile.Variant)),
			)
			reset()
		}
	}()
	run()
}

// Recompute runs the full chain for an input and returns a new Result.
// Calling it repeatedly with the same input yields identical results.
func (c *Calculator) Recompute(in Input) Result {
	advisories := &collector{next: c.advisor}

	if missing := in.MissingRequired(c.profile.Variant); len(missing) > 0 {
		c.advise(advisories, StageInput, "missing required fields: %v", missing)
	}

	var m Metrics
	c.stampDuty(in, &m, advisories)
	c.LendingFee(in, &m)
	c.ProjectManagement(in, &m)
	c.CapitalIn(in, &m)
	c.Refinance(in, &m)
	c.rental(in, &m, advisories)
	growth := c.growthProjection(in, &m, advisories)
	gain := c.capitalGain(in, &m, advisories)
	returns := c.returns(in, &m, advisories)

	c.logger.Debug("recomputed deal",
		zap.String("op", "deal.Calculator.Recompute"),
		zap.String("variant", string(c.profile.Variant)),
		zap.Float64("capitalIn", m.CapitalIn),
		zap.Float64("netAnnualCashFlow", m.NetAnnualCashFlow),
		zap.Int("advisories", len(advisories.advisories)),
	)

	return Result{
		Variant:     c.profile.Variant,
		Metrics:     m,
		Growth:      growth,
		CapitalGain: gain,
		Returns:     returns,
		Advisories:  advisories.advisories,
	}
}
