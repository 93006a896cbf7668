package deal

import (
	"go.uber.org/zap"
)

// Worksheet holds one deal's input together with its latest result. It is
// the trigger surface: explicit recomputes and field changes both go through
// it, and its session keeps a running compute cycle from re-triggering
// itself. A Worksheet has a single writer and is not safe for concurrent use.
type Worksheet struct {
	calc      *Calculator
	logger    *zap.Logger
	session   Session
	input     Input
	result    Result
	stale     bool
	listeners []func(*Worksheet, Result)
}

// NewWorksheet creates a worksheet for an input. No computation happens until
// Recompute or SetField is called.
func NewWorksheet(calc *Calculator, in Input, logger *zap.Logger) *Worksheet {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worksheet{
		calc:   calc,
		logger: logger,
		input:  in,
		result: Result{Variant: calc.Variant()},
	}
}

// Variant returns the variant of the worksheet's calculator.
func (w *Worksheet) Variant() Variant {
	return w.calc.Variant()
}

// Input returns the current input.
func (w *Worksheet) Input() Input {
	return w.input
}

// Result returns the latest result.
func (w *Worksheet) Result() Result {
	return w.result
}

// Restore replaces the stored result, for example with one loaded from
// storage, so field triggers refresh it instead of an empty result.
func (w *Worksheet) Restore(result Result) {
	result.Variant = w.Variant()
	w.result = result
}

// Computing reports whether a compute cycle is running.
func (w *Worksheet) Computing() bool {
	return w.session.Active()
}

// Stale reports whether a field changed during a compute cycle after the
// cycle had read its input. The stored result then lags Input until the next
// Recompute.
func (w *Worksheet) Stale() bool {
	return w.stale
}

// OnRecompute registers a listener called at the end of every compute cycle,
// while the session is still held. Recomputes or field triggers started from
// a listener are suppressed.
func (w *Worksheet) OnRecompute(fn func(*Worksheet, Result)) {
	w.listeners = append(w.listeners, fn)
}

// Recompute runs the full chain and replaces the stored result. It returns
// ErrRecomputeInProgress when called from inside a running cycle.
func (w *Worksheet) Recompute() (Result, error) {
	token, ok := w.session.Acquire()
	if !ok {
		w.logger.Debug("suppressed nested recompute",
			zap.String("op", "deal.Worksheet.Recompute"),
			zap.String("variant", string(w.Variant())),
		)
		return w.result, ErrRecomputeInProgress
	}
	defer token.Release()

	w.stale = false
	w.result = w.calc.Recompute(w.input)
	for _, fn := range w.listeners {
		fn(w, w.result)
	}
	return w.result, nil
}

// SetField stores a new value for an input field and refreshes the stages
// that depend directly on it. It returns the stages that were refreshed;
// none are while a compute cycle is running, and the worksheet is marked
// stale instead.
func (w *Worksheet) SetField(field string, value interface{}) ([]Stage, error) {
	if err := w.input.Set(field, value); err != nil {
		return nil, err
	}
	if w.session.Active() {
		w.stale = true
		w.logger.Debug("suppressed change trigger",
			zap.String("op", "deal.Worksheet.SetField"),
			zap.String("field", field),
		)
		return nil, nil
	}

	stages := TriggeredStages(w.Variant(), field, w.input)
	if len(stages) == 0 {
		return nil, nil
	}

	token, ok := w.session.Acquire()
	if !ok {
		return nil, nil
	}
	defer token.Release()

	m := &w.result.Metrics
	for _, stage := range stages {
		switch stage {
		case StageStampDuty:
			w.calc.StampDuty(w.input, m)
		case StageLendingFee:
			w.calc.LendingFee(w.input, m)
		case StageProjectManagement:
			w.calc.ProjectManagement(w.input, m)
		case StageRental:
			w.calc.Rental(w.input, m)
		}
	}
	return stages, nil
}

// TriggeredStages lists the stages a change to field refreshes. A purchase
// price or category change refreshes stamp duty once both are filled in; the
// international variant also refreshes the lending fee on a price change and
// project management on a renovation change. Room count and rent changes
// refresh the rental figures.
func TriggeredStages(variant Variant, field string, in Input) []Stage {
	switch field {
	case FieldPurchasePrice:
		if variant == International {
			return []Stage{StageStampDuty, StageLendingFee}
		}
		if _, ok := in.CategoryTag(); ok {
			return []Stage{StageStampDuty}
		}
	case FieldCategory:
		if variant == International || in.PurchasePrice != nil {
			return []Stage{StageStampDuty}
		}
	case FieldRenovation:
		if variant == International {
			return []Stage{StageProjectManagement}
		}
	case FieldRooms, FieldMonthlyRent:
		return []Stage{StageRental}
	}
	return nil
}
