package prompts

import "errors"

// ErrInvalidStage is returned when a stage name is not recognized.
var ErrInvalidStage = errors.New("stage must be field_list, answer, synthesize, or classify")
