package prompts

import "slices"

// Stage identifies a completion call whose instructions can be overridden.
type Stage string

// Valid stages.
const (
	StageFieldList  Stage = "field_list"
	StageAnswer     Stage = "answer"
	StageSynthesize Stage = "synthesize"
	StageClassify   Stage = "classify"
)

var stages = []Stage{
	StageFieldList,
	StageAnswer,
	StageSynthesize,
	StageClassify,
}

// Stages returns the list of valid stages.
func Stages() []Stage {
	return stages
}

// UnmarshalText validates that the decoded string is a known stage value.
func (s *Stage) UnmarshalText(data []byte) error {
	v, err := ParseStage(string(data))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStage validates a string as a known stage.
// Returns ErrInvalidStage if the value is not recognized.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", ErrInvalidStage
	}
	return v, nil
}
