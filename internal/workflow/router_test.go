package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryStage(t *testing.T) {
	tests := []struct {
		name     string
		state    *State
		expected Stage
	}{
		{
			name:     "fresh state enters at clarify",
			state:    NewState("write me a prompt", "english", nil, nil),
			expected: StageClarify,
		},
		{
			name: "selected variant enters at refine",
			state: func() *State {
				s := NewState("write me a prompt", "english", nil, nil)
				id := "A"
				s.SelectedVariant = &id
				return s
			}(),
			expected: StageRefine,
		},
		{
			name: "empty selected variant still enters at clarify",
			state: func() *State {
				s := NewState("write me a prompt", "english", nil, nil)
				id := ""
				s.SelectedVariant = &id
				return s
			}(),
			expected: StageClarify,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EntryStage(tt.state))
		})
	}
}

func TestNextStageAfterClarify(t *testing.T) {
	t.Run("answers take priority over pending questions", func(t *testing.T) {
		s := NewState("input", "english", nil, nil)
		s.Requirements = &Requirements{
			Questions:    []string{"What tone?"},
			HasQuestions: true,
			UserAnswers:  []string{"Formal"},
		}

		next, err := NextStage(StageClarify, s)
		require.NoError(t, err)
		assert.Equal(t, StageGenerate, next, "an answered clarification must never be re-asked")
	})

	t.Run("open questions without answers halt", func(t *testing.T) {
		s := NewState("input", "english", nil, nil)
		s.Requirements = &Requirements{
			Questions:    []string{"What tone?"},
			HasQuestions: true,
		}

		next, err := NextStage(StageClarify, s)
		require.NoError(t, err)
		assert.Equal(t, StageHalt, next)
	})

	t.Run("no questions proceeds to generate", func(t *testing.T) {
		s := NewState("input", "english", nil, nil)
		s.Requirements = &Requirements{HasQuestions: false}

		next, err := NextStage(StageClarify, s)
		require.NoError(t, err)
		assert.Equal(t, StageGenerate, next)
	})
}

func TestNextStageUnconditionalTransitions(t *testing.T) {
	s := NewState("input", "english", nil, nil)

	next, err := NextStage(StageGenerate, s)
	require.NoError(t, err)
	assert.Equal(t, StageEvaluate, next)

	next, err = NextStage(StageEvaluate, s)
	require.NoError(t, err)
	assert.Equal(t, StageJudge, next)

	next, err = NextStage(StageJudge, s)
	require.NoError(t, err)
	assert.Equal(t, StageHalt, next)
}

func TestNextStageAfterRefine(t *testing.T) {
	t.Run("new variants re-enter evaluation", func(t *testing.T) {
		s := NewState("input", "english", nil, nil)
		s.GeneratedVariants = []Variant{{ID: "A", Content: "refined"}}

		next, err := NextStage(StageRefine, s)
		require.NoError(t, err)
		assert.Equal(t, StageEvaluate, next)
	})

	t.Run("failed refine halts instead of evaluating nothing", func(t *testing.T) {
		s := NewState("input", "english", nil, nil)
		s.GeneratedVariants = []Variant{}

		next, err := NextStage(StageRefine, s)
		require.NoError(t, err)
		assert.Equal(t, StageHalt, next)
	})
}

func TestNextStageUndefinedTransition(t *testing.T) {
	s := NewState("input", "english", nil, nil)

	_, err := NextStage(Stage("deploy"), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined transition")
}
