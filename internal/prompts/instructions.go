package prompts

const fieldListInstructions = `This is a parsed form. Convert it into a JSON object containing only the list of fields to be filled in, in the form { "fields": [...] }.`

const answerInstructions = `Context information from the candidate's resume is below. Using the context information and not prior knowledge, answer the query. If the context does not contain the answer, say that the resume does not mention it.`

const synthesizeInstructions = `You are given a list of fields in an application form and responses to questions about those fields from a resume. Combine the two into a list of fields and succinct, factual answers to fill in those fields.`

const classifyInstructions = `You have received some human feedback on the form-filling task you've done. Does everything look good, or is there more work to be done?`

var instructions = map[Stage]string{
	StageFieldList:  fieldListInstructions,
	StageAnswer:     answerInstructions,
	StageSynthesize: synthesizeInstructions,
	StageClassify:   classifyInstructions,
}

// Instructions returns the default instructions for a stage.
// Returns ErrInvalidStage if the stage is not recognized.
func Instructions(stage Stage) (string, error) {
	text, ok := instructions[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
