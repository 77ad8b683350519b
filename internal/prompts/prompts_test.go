package prompts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/formfill/internal/prompts"
)

func TestParseStage(t *testing.T) {
	for _, s := range prompts.Stages() {
		got, err := prompts.ParseStage(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := prompts.ParseStage("enhance")
	assert.ErrorIs(t, err, prompts.ErrInvalidStage)
}

func TestInstructionsDefaultsForEveryStage(t *testing.T) {
	for _, s := range prompts.Stages() {
		text, err := prompts.Instructions(s)
		require.NoError(t, err, "stage %s", s)
		assert.NotEmpty(t, text, "stage %s", s)
	}
}

func TestOverrides(t *testing.T) {
	lib, err := prompts.New(map[string]string{"synthesize": "List each field with its answer."})
	require.NoError(t, err)

	got := lib.Synthesize("Field:Name\nResponse:Jane Doe")
	assert.Regexp(t, `^List each field with its answer\.`, got)

	_, err = prompts.New(map[string]string{"finalize": "x"})
	assert.ErrorIs(t, err, prompts.ErrInvalidStage)
}

func TestClassifyConstrainsTokens(t *testing.T) {
	got := prompts.Default().Classify("Looks great")

	assert.Contains(t, got, "<feedback>\nLooks great\n</feedback>")
	assert.Contains(t, got, "'OKAY'")
	assert.Contains(t, got, "'FEEDBACK'")
}

func TestFieldListIncludesForm(t *testing.T) {
	got := prompts.Default().FieldList("- Name\n- Email")

	assert.Contains(t, got, "<form>\n- Name\n- Email\n</form>")
	assert.Contains(t, got, "no markdown code blocks")
}

func TestAnswerIncludesContext(t *testing.T) {
	got := prompts.Default().Answer("What is the email?", []string{"Email: jane@x.com", "Name: Jane"})

	assert.Contains(t, got, "Email: jane@x.com\n---\nName: Jane")
	assert.Contains(t, got, "<query>\nWhat is the email?\n</query>")
}

func TestQuestion(t *testing.T) {
	plain := prompts.Question("Email", "")
	assert.Contains(t, plain, "<field>Email</field>")
	assert.NotContains(t, plain, "<feedback>")

	revised := prompts.Question("Email", "Use my work address")
	assert.Contains(t, revised, "<feedback>Use my work address</feedback>")
	assert.Contains(t, revised, "might not be relevant")
}

func TestResumeQuery(t *testing.T) {
	got := prompts.ResumeQuery("What is the email?")
	assert.Equal(t, "This is a question about the specific resume we have in our database: What is the email?", got)
}
