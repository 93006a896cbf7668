package deal

import (
	"go.uber.org/zap"
)

// Advisor receives advisories raised when a stage short-circuits because
// required input is missing.
type Advisor interface {
	Advise(advisory Advisory)
}

// AdvisorFunc adapts a function to the Advisor interface.
type AdvisorFunc func(advisory Advisory)

// Advise implements Advisor.
func (f AdvisorFunc) Advise(advisory Advisory) {
	f(advisory)
}

// LogAdvisor writes advisories to a zap logger at warn level.
type LogAdvisor struct {
	logger *zap.Logger
}

// NewLogAdvisor creates an advisor backed by the given logger.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewLogAdvisor(logger *zap.Logger) *LogAdvisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogAdvisor{logger: logger}
}

// Advise implements Advisor.
func (a *LogAdvisor) Advise(advisory Advisory) {
	a.logger.Warn(advisory.Message,
		zap.String("op", "deal.Advise"),
		zap.String("variant", string(advisory.Variant)),
		zap.String("stage", string(advisory.Stage)),
	)
}

type collector struct {
	next       Advisor
	advisories []Advisory
}

func (c *collector) Advise(advisory Advisory) {
	c.advisories = append(c.advisories, advisory)
	if c.next != nil {
		c.next.Advise(advisory)
	}
}
