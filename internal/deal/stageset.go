package deal

import (
	"encoding/json"
	"fmt"
)

// StageSet records which stages have produced values in a Metrics.
type StageSet uint16

var stageBits = map[Stage]StageSet{
	StageStampDuty:         1 << 0,
	StageLendingFee:        1 << 1,
	StageProjectManagement: 1 << 2,
	StageCapitalIn:         1 << 3,
	StageRefinance:         1 << 4,
	StageRental:            1 << 5,
	StageGrowth:            1 << 6,
	StageCapitalGain:       1 << 7,
	StageReturns:           1 << 8,
}

// Has reports whether the stage is in the set.
func (s StageSet) Has(stage Stage) bool {
	return s&stageBits[stage] != 0
}

// With returns the set with the stage added.
func (s StageSet) With(stage Stage) StageSet {
	return s | stageBits[stage]
}

// List returns the stages of the set in chain order.
func (s StageSet) List() []Stage {
	stages := []Stage{}
	for _, stage := range Stages() {
		if s.Has(stage) {
			stages = append(stages, stage)
		}
	}
	return stages
}

// MarshalJSON encodes the set as a list of stage names.
func (s StageSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

// UnmarshalJSON decodes a list of stage names.
func (s *StageSet) UnmarshalJSON(data []byte) error {
	var names []Stage
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	var set StageSet
	for _, name := range names {
		if _, ok := stageBits[name]; !ok {
			return fmt.Errorf("unknown stage %q", name)
		}
		set = set.With(name)
	}
	*s = set
	return nil
}

// MarshalYAML encodes the set as a list of stage names.
func (s StageSet) MarshalYAML() (interface{}, error) {
	return s.List(), nil
}
