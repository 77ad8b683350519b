// Package prompts builds the completion prompts used while filling a form.
// Each stage combines overridable instructions with fixed output
// constraints and the stage's input.
package prompts

import (
	"fmt"
	"strings"
)

// ReviewPrompt is shown to the human alongside the filled form.
const ReviewPrompt = "How does this look? Give me any feedback you have on any of the answers."

// Library resolves stage instructions, preferring configured overrides.
type Library struct {
	overrides map[Stage]string
}

// New creates a Library. Override keys must name valid stages.
func New(overrides map[string]string) (*Library, error) {
	l := &Library{overrides: make(map[Stage]string, len(overrides))}
	for name, text := range overrides {
		stage, err := ParseStage(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, name)
		}
		if text = strings.TrimSpace(text); text != "" {
			l.overrides[stage] = text
		}
	}
	return l, nil
}

// Default returns a Library with no overrides.
func Default() *Library {
	return &Library{overrides: map[Stage]string{}}
}

// Instructions returns the override for stage if one is set,
// otherwise the default instructions.
func (l *Library) Instructions(stage Stage) (string, error) {
	if text, ok := l.overrides[stage]; ok {
		return text, nil
	}
	return Instructions(stage)
}

// FieldList asks for the form's fields as a JSON object.
func (l *Library) FieldList(formText string) string {
	return l.compose(StageFieldList, "<form>\n"+formText+"\n</form>")
}

// Answer asks for an answer to question from the retrieved resume context.
func (l *Library) Answer(question string, chunks []string) string {
	var sb strings.Builder
	sb.WriteString("<context>\n")
	sb.WriteString(strings.Join(chunks, "\n---\n"))
	sb.WriteString("\n</context>\n<query>\n")
	sb.WriteString(question)
	sb.WriteString("\n</query>")
	return l.compose(StageAnswer, sb.String())
}

// Synthesize asks for the filled form from the rendered field responses.
func (l *Library) Synthesize(responses string) string {
	return l.compose(StageSynthesize, "<responses>\n"+responses+"\n</responses>")
}

// Classify asks whether the human's feedback accepts the filled form.
func (l *Library) Classify(feedback string) string {
	return l.compose(StageClassify, "<feedback>\n"+feedback+"\n</feedback>")
}

func (l *Library) compose(stage Stage, input string) string {
	instructions, _ := l.Instructions(stage)
	spec, _ := Spec(stage)

	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\n")
	sb.WriteString(input)
	if spec != "" {
		sb.WriteString("\n\n")
		sb.WriteString(spec)
	}
	return sb.String()
}

// Question builds the retrieval question for a form field. A non-empty
// feedback is appended with a note that it may not apply to this field.
func Question(field, feedback string) string {
	q := fmt.Sprintf("How would you answer this question about the candidate? <field>%s</field>", field)
	if feedback != "" {
		q += fmt.Sprintf("\nWe previously got feedback about how we answered the questions. "+
			"It might not be relevant to this particular field, but here it is: <feedback>%s</feedback>", feedback)
	}
	return q
}

// ResumeQuery scopes a question to the indexed resume.
func ResumeQuery(question string) string {
	return "This is a question about the specific resume we have in our database: " + question
}
