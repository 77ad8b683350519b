package prompts

// Accept and revise tokens the classify stage constrains the model to.
const (
	AcceptToken = "OKAY"
	ReviseToken = "FEEDBACK"
)

const fieldListSpec = `Return a valid JSON object only, no markdown code blocks or other formatting.`

const answerSpec = `Answer in plain text. Keep the answer short and factual.`

const classifySpec = `If everything is fine, respond with just the word '` + AcceptToken + `'.
If there's any other feedback, respond with just the word '` + ReviseToken + `'.`

var specs = map[Stage]string{
	StageFieldList: fieldListSpec,
	StageAnswer:    answerSpec,
	StageClassify:  classifySpec,
}

// Spec returns the output constraints for a stage. Specs cannot be
// overridden; the synthesize stage has none.
func Spec(stage Stage) (string, error) {
	if _, ok := instructions[stage]; !ok {
		return "", ErrInvalidStage
	}
	return specs[stage], nil
}
