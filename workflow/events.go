package workflow

// Kind names an event variant.
type Kind string

// Event kinds.
const (
	KindStart             Kind = "start"
	KindParseForm         Kind = "parse_form"
	KindGenerateQuestions Kind = "generate_questions"
	KindQuery             Kind = "query"
	KindResponse          Kind = "response"
	KindInputRequired     Kind = "input_required"
	KindHumanResponse     Kind = "human_response"
	KindFeedback          Kind = "feedback"
	KindStop              Kind = "stop"
)

// Event is a message flowing through the engine. The set of variants is
// closed; steps switch on the concrete type.
type Event interface {
	Kind() Kind
	event()
}

// StartEvent begins a run.
type StartEvent struct {
	ResumeRef string
	FormRef   string
}

// ParseFormEvent asks for the form's fields to be extracted.
type ParseFormEvent struct {
	FormRef string
}

// GenerateQuestionsEvent starts a query round. Feedback is empty on the
// first round.
type GenerateQuestionsEvent struct {
	Feedback string
}

// QueryEvent asks the index about one field.
type QueryEvent struct {
	Field  string
	Prompt string
}

// ResponseEvent carries the answer for one field.
type ResponseEvent struct {
	Field string
	Text  string
}

// InputRequiredEvent suspends the run until a human responds.
type InputRequiredEvent struct {
	Prompt  string
	Payload string
}

// HumanResponseEvent carries the reviewer's reply.
type HumanResponseEvent struct {
	Text string
}

// FeedbackEvent requests another round with the reviewer's feedback.
type FeedbackEvent struct {
	Text string
}

// StopEvent ends the run with its result.
type StopEvent struct {
	Result string
}

func (StartEvent) Kind() Kind             { return KindStart }
func (ParseFormEvent) Kind() Kind         { return KindParseForm }
func (GenerateQuestionsEvent) Kind() Kind { return KindGenerateQuestions }
func (QueryEvent) Kind() Kind             { return KindQuery }
func (ResponseEvent) Kind() Kind          { return KindResponse }
func (InputRequiredEvent) Kind() Kind     { return KindInputRequired }
func (HumanResponseEvent) Kind() Kind     { return KindHumanResponse }
func (FeedbackEvent) Kind() Kind          { return KindFeedback }
func (StopEvent) Kind() Kind              { return KindStop }

func (StartEvent) event()             {}
func (ParseFormEvent) event()         {}
func (GenerateQuestionsEvent) event() {}
func (QueryEvent) event()             {}
func (ResponseEvent) event()          {}
func (InputRequiredEvent) event()     {}
func (HumanResponseEvent) event()     {}
func (FeedbackEvent) event()          {}
func (StopEvent) event()              {}
