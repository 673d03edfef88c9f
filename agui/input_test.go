package agui

import (
	"testing"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/mcpagent"
)

func strPtr(s string) *string { return &s }

func TestRunAgentInput_Prepare(t *testing.T) {
	t.Run("last user message is the task", func(t *testing.T) {
		input := RunAgentInput{
			ThreadID: "thread-1",
			RunID:    "run-1",
			Messages: []events.Message{
				{ID: "1", Role: "user", Content: strPtr("Hello")},
				{ID: "2", Role: "assistant", Content: strPtr("Hi")},
				{ID: "3", Role: "user", Content: strPtr("Weather in Paris?")},
				{ID: "4", Role: "user", Content: strPtr("   ")},
			},
		}

		prepared, err := input.Prepare()
		require.NoError(t, err)
		assert.Equal(t, "thread-1", prepared.ThreadID)
		assert.Equal(t, "run-1", prepared.RunID)
		assert.Equal(t, "Weather in Paris?", prepared.Task)
	})

	t.Run("no messages", func(t *testing.T) {
		_, err := (&RunAgentInput{}).Prepare()
		assert.ErrorIs(t, err, ErrNoMessages)
	})

	t.Run("no user content", func(t *testing.T) {
		input := RunAgentInput{Messages: []events.Message{
			{ID: "1", Role: "assistant", Content: strPtr("Hi")},
			{ID: "2", Role: "user"},
		}}
		_, err := input.Prepare()
		assert.ErrorIs(t, err, ErrNoTask)
	})
}

func TestToMessages(t *testing.T) {
	got := ToMessages([]events.Message{
		{ID: "1", Role: "system", Content: strPtr("sys")},
		{ID: "2", Role: "tool", Content: strPtr("result")},
		{ID: "3", Role: "user"},
		{ID: "4", Role: "user", Content: strPtr("hi")},
	})
	assert.Equal(t, []ai.Message{
		{ID: "1", Role: ai.RoleSystem, Content: "sys"},
		{ID: "4", Role: ai.RoleUser, Content: "hi"},
	}, got)
}

func TestFromMessages(t *testing.T) {
	got := FromMessages([]ai.Message{
		{ID: "m1", Role: ai.RoleSystem, Content: "sys"},
		{Role: ai.RoleAssistant, Content: `{"name":"final_answer"}`},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, RoleSystem, got[0].Role)
	assert.NotEmpty(t, got[1].ID)
	assert.Equal(t, RoleAssistant, got[1].Role)
	require.NotNil(t, got[1].Content)
	assert.Equal(t, `{"name":"final_answer"}`, *got[1].Content)
}
