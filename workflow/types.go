package workflow

// Run context keys.
const (
	KeyFieldsToFill = "fields_to_fill"
	KeyTotalFields  = "total_fields"
	KeyFilledForm   = "filled_form"
	KeyRound        = "round"
	KeyIndex        = "index"
)

// Status is the lifecycle state of a run.
type Status string

// Run states.
const (
	StatusRunning         Status = "running"
	StatusWaitingForHuman Status = "waiting_for_human"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
)
