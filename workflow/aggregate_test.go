package workflow

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAggregatorRounds(t *testing.T) {
	agg := NewAggregator()
	run := uuid.New()

	_, ready := agg.Add(run, 1, 2, ResponseEvent{Field: "A"})
	assert.False(t, ready)
	assert.Equal(t, 1, agg.Pending(run, 1))

	// A late response from another round does not count toward round 1.
	_, ready = agg.Add(run, 2, 2, ResponseEvent{Field: "A"})
	assert.False(t, ready)

	got, ready := agg.Add(run, 1, 2, ResponseEvent{Field: "B"})
	assert.True(t, ready)
	assert.Len(t, got, 2)
	assert.Zero(t, agg.Pending(run, 1))
	assert.Equal(t, 1, agg.Pending(run, 2))

	agg.Discard(run)
	assert.Zero(t, agg.Pending(run, 2))
}

func TestRenderResponses(t *testing.T) {
	fields := []string{"Name", "Email"}
	responses := []ResponseEvent{
		{Field: "Extra", Text: "x"},
		{Field: "Email", Text: "jane@x.com"},
		{Field: "Name", Text: "Jane Doe"},
	}

	want := "Field:Name\nResponse:Jane Doe\nField:Email\nResponse:jane@x.com\nField:Extra\nResponse:x"
	assert.Equal(t, want, RenderResponses(fields, responses))
	assert.Equal(t, "", RenderResponses(fields, nil))
}
