package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/JaimeStill/formfill/internal/extraction"
	"github.com/JaimeStill/formfill/pkg/formatting"
)

// ParseFormStep extracts the application form and asks the model for the
// list of fields it contains.
func ParseFormStep(rt *Runtime) Step {
	return Step{
		Name:    "parse_form",
		Accepts: []Kind{KindParseForm},
		Handle: func(ctx context.Context, rc *RunContext, ev Event) ([]Event, error) {
			pf := ev.(ParseFormEvent)

			docs, err := rt.Extractor.Extract(ctx, pf.FormRef, extraction.FormInstructions())
			if err != nil {
				return nil, fmt.Errorf("parse form: %w: %w", ErrExtraction, err)
			}

			texts := make([]string, len(docs))
			for i, d := range docs {
				texts[i] = d.Text
			}

			raw, err := rt.Completer.Complete(ctx, rt.Prompts.FieldList(strings.Join(texts, "\n\n")))
			if err != nil {
				return nil, fmt.Errorf("parse form: %w", err)
			}

			fields, err := ParseFields(raw)
			if err != nil {
				return nil, fmt.Errorf("parse form: %w", err)
			}
			rc.Set(KeyFieldsToFill, fields)

			rt.Logger.InfoContext(
				ctx, "form parsed",
				"run_id", rc.RunID(),
				"form", pf.FormRef,
				"fields", len(fields),
			)

			return []Event{GenerateQuestionsEvent{}}, nil
		},
	}
}

type fieldList struct {
	Fields []string `json:"fields"`
}

// ParseFields reads the field list from model output of the form
// {"fields": ["...", ...]}, tolerating a surrounding code fence or a
// fenced block wrapped in prose.
func ParseFields(raw string) ([]string, error) {
	s := formatting.StripFences(raw)
	if !gjson.Valid(s) {
		parsed, err := formatting.Parse[fieldList](raw)
		if err != nil || parsed.Fields == nil {
			return nil, fmt.Errorf("%w: not a field list: %q", ErrMalformedModelOutput, raw)
		}
		return parsed.Fields, nil
	}

	list := gjson.Get(s, "fields")
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: fields is not a list: %q", ErrMalformedModelOutput, raw)
	}

	items := list.Array()
	fields := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type != gjson.String {
			return nil, fmt.Errorf("%w: field %s is not a string", ErrMalformedModelOutput, item.Raw)
		}
		fields = append(fields, item.String())
	}
	return fields, nil
}
