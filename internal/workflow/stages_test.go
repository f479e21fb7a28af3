package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/promptforge/internal/llm"
	"github.com/promptforge/promptforge/internal/templates"
)

// fakeLLM scripts completion responses per call and records every request.
type fakeLLM struct {
	mu      sync.Mutex
	respond func(req llm.Request) (interface{}, error)
	calls   []llm.Request
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (interface{}, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.respond(req)
}

func (f *fakeLLM) Ping(context.Context, string, string, string) error { return nil }

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeResolver hands out a static credential, or nothing when unset.
type fakeResolver struct {
	cred *Credential
	err  error
}

func (f *fakeResolver) GetActive(context.Context, string) (*Credential, error) {
	return f.cred, f.err
}

// callCounter tallies recorded completion dispatches.
type callCounter struct {
	mu       sync.Mutex
	calls    int
	failures int
}

func (c *callCounter) RecordLLMCall(_ context.Context, _, _ string, failed bool) {
	c.mu.Lock()
	c.calls++
	if failed {
		c.failures++
	}
	c.mu.Unlock()
}

func (c *callCounter) counts() (calls, failures int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls, c.failures
}

func testNodes(t *testing.T, client llm.Client, resolver CredentialResolver) *Nodes {
	t.Helper()
	catalog, err := templates.NewCatalog()
	require.NoError(t, err)
	return NewNodes(catalog, resolver, client, &callCounter{})
}

func configuredResolver() *fakeResolver {
	return &fakeResolver{cred: &Credential{Provider: "openai", APIKey: "sk-test", ModelPreference: "gpt-4-turbo"}}
}

func TestClarifyShortCircuitsOnUserAnswer(t *testing.T) {
	client := &fakeLLM{respond: func(llm.Request) (interface{}, error) {
		t.Fatal("clarify must not call the model when the user already answered")
		return nil, nil
	}}
	nodes := testNodes(t, client, configuredResolver())

	s := NewState("build a prompt", "english", nil, nil)
	s.ClarificationDialogue = []Message{
		{Role: RoleAssistant, Text: `["What tone?"]`},
		{Role: RoleUser, Text: "Formal and short"},
	}

	out := nodes.Clarify(context.Background(), s)

	assert.False(t, out.Requirements.HasQuestions)
	assert.True(t, out.Requirements.Clarified)
	assert.Equal(t, []string{"Formal and short"}, out.Requirements.UserAnswers)
	require.Len(t, out.Dialogue, 1)
	assert.Equal(t, RoleAssistant, out.Dialogue[0].Role)
	assert.Zero(t, client.callCount())
}

func TestClarifyAsksQuestions(t *testing.T) {
	client := &fakeLLM{respond: func(llm.Request) (interface{}, error) {
		return map[string]interface{}{
			"questions":     []interface{}{"What tone?", "Which audience?"},
			"detected_type": "normal",
		}, nil
	}}
	nodes := testNodes(t, client, configuredResolver())

	s := NewState("build a prompt", "english", nil, nil)
	out := nodes.Clarify(context.Background(), s)

	assert.True(t, out.Requirements.HasQuestions)
	assert.Equal(t, []string{"What tone?", "Which audience?"}, out.Requirements.Questions)
	require.Len(t, out.Dialogue, 1)
	assert.Contains(t, out.Dialogue[0].Text, "What tone?")
}

func TestClarifyWithoutCredentials(t *testing.T) {
	client := &fakeLLM{respond: func(llm.Request) (interface{}, error) {
		t.Fatal("no call should be made without credentials")
		return nil, nil
	}}
	nodes := testNodes(t, client, &fakeResolver{})

	s := NewState("build a prompt", "spanish", nil, nil)
	out := nodes.Clarify(context.Background(), s)

	assert.True(t, out.Requirements.HasQuestions)
	require.Len(t, out.Requirements.Questions, 1)
	assert.Contains(t, out.Requirements.Questions[0], "API key")
	require.NotNil(t, out.Err)
	assert.Equal(t, string(llm.KindConfiguration), out.Err.Kind)
}

func TestClarifyCompletionFailure(t *testing.T) {
	client := &fakeLLM{respond: func(llm.Request) (interface{}, error) {
		return nil, llm.NewError(llm.KindTransport, "connection reset", nil)
	}}
	nodes := testNodes(t, client, configuredResolver())

	s := NewState("build a prompt", "english", nil, nil)
	out := nodes.Clarify(context.Background(), s)

	// Failure becomes a question the user can see, never a panic
	assert.True(t, out.Requirements.HasQuestions)
	require.NotNil(t, out.Err)
	assert.Equal(t, string(llm.KindTransport), out.Err.Kind)
}

func TestGenerateProducesThreeVariants(t *testing.T) {
	client := &fakeLLM{respond: func(req llm.Request) (interface{}, error) {
		return map[string]interface{}{
			"name":        "whatever",
			"description": "desc",
			"content":     "generated prompt",
		}, nil
	}}
	nodes := testNodes(t, client, configuredResolver())

	s := NewState("build a prompt", "english", nil, nil)
	out := nodes.Generate(context.Background(), s)

	require.Len(t, out.Variants, 3)
	assert.Equal(t, "A", out.Variants[0].ID)
	assert.Equal(t, "B", out.Variants[1].ID)
	assert.Equal(t, "C", out.Variants[2].ID)
	for _, v := range out.Variants {
		assert.NotEmpty(t, v.Name)
		assert.NotEmpty(t, v.Content)
	}
	assert.Equal(t, 3, client.callCount())
}

func TestGenerateIsolatesPerPersonaFailures(t *testing.T) {
	client := &fakeLLM{respond: func(req llm.Request) (interface{}, error) {
		if strings.Contains(req.Prompt, "Chain of Thought") {
			return nil, llm.NewError(llm.KindRateLimit, "429 too many requests", nil)
		}
		return map[string]interface{}{"content": "ok"}, nil
	}}
	nodes := testNodes(t, client, configuredResolver())

	s := NewState("build a prompt", "english", nil, nil)
	out := nodes.Generate(context.Background(), s)

	require.Len(t, out.Variants, 3, "one failed persona must not abort the others")
	assert.Equal(t, "ok", out.Variants[0].Content)
	assert.Contains(t, out.Variants[1].Content, "Error generating variant")
	assert.Equal(t, "ok", out.Variants[2].Content)
}

func TestGenerateBackfillsMissingContent(t *testing.T) {
	client := &fakeLLM{respond: func(req llm.Request) (interface{}, error) {
		return map[string]interface{}{"name": "N", "description": "only a description"}, nil
	}}
	nodes := testNodes(t, client, configuredResolver())

	s := NewState("build a prompt", "english", nil, nil)
	out := nodes.Generate(context.Background(), s)

	require.Len(t, out.Variants, 3)
	for _, v := range out.Variants {
		assert.Equal(t, "only a description", v.Content)
	}
}

func TestGenerateWithoutCredentials(t *testing.T) {
	client := &fakeLLM{respond: func(llm.Request) (interface{}, error) {
		t.Fatal("no call should be made without credentials")
		return nil, nil
	}}
	nodes := testNodes(t, client, &fakeResolver{})

	s := NewState("build a prompt", "english", nil, nil)
	out := nodes.Generate(context.Background(), s)

	require.Len(t, out.Variants, 3)
	for _, v := range out.Variants {
		assert.Contains(t, v.Content, "Error generating variant")
	}
	require.NotNil(t, out.Err)
}

func TestEvaluateScoresEachVariantIndependently(t *testing.T) {
	client := &fakeLLM{respond: func(req llm.Request) (interface{}, error) {
		if strings.Contains(req.Prompt, "broken candidate") {
			return nil, llm.NewError(llm.KindTransport, "boom", nil)
		}
		return map[string]interface{}{
			"scores":        map[string]interface{}{"clarity": 8.5, "safety": 9.0, "adherence": 7.0},
			"overall_score": 8.1,
			"feedback":      "solid",
			"suggestions":   []interface{}{"tighten the constraints"},
		}, nil
	}}
	nodes := testNodes(t, client, configuredResolver())

	s := NewState("build a prompt", "english", nil, nil)
	s.GeneratedVariants = []Variant{
		{ID: "A", Content: "good candidate"},
		{ID: "B", Content: "broken candidate"},
		{ID: "C", Content: ""},
	}

	out := nodes.Evaluate(context.Background(), s)

	require.Len(t, out.Evaluations, 2, "empty-content variant is skipped, not scored")
	assert.InDelta(t, 8.1, out.Evaluations["A"].OverallScore, 0.001)
	assert.Equal(t, []string{"tighten the constraints"}, out.Evaluations["A"].Suggestions)
	assert.Zero(t, out.Evaluations["B"].OverallScore)
	assert.NotEmpty(t, out.Evaluations["B"].Feedback)
	require.NotNil(t, out.Evaluations["B"].Err)
}

func TestEvaluateWithNothingEvaluable(t *testing.T) {
	client := &fakeLLM{respond: func(llm.Request) (interface{}, error) {
		t.Fatal("no calls expected")
		return nil, nil
	}}
	nodes := testNodes(t, client, configuredResolver())

	s := NewState("build a prompt", "english", nil, nil)
	s.GeneratedVariants = []Variant{{ID: "A", Content: ""}}

	out := nodes.Evaluate(context.Background(), s)

	assert.NotNil(t, out.Evaluations)
	assert.Empty(t, out.Evaluations, "empty map is a valid outcome")
	assert.Nil(t, out.Err)
}

func TestJudgeSkipsWithoutTestOutputs(t *testing.T) {
	client := &fakeLLM{respond: func(llm.Request) (interface{}, error) {
		t.Fatal("judge must not call the model with nothing to compare")
		return nil, nil
	}}
	nodes := testNodes(t, client, configuredResolver())

	s := NewState("build a prompt", "english", nil, nil)
	out := nodes.Judge(context.Background(), s)

	assert.Nil(t, out.Result.Winner)
	assert.Equal(t, "No test outputs to judge", out.Result.Error)
}

func TestJudgePicksWinnerAndFillsMissingSlots(t *testing.T) {
	var sawPrompt string
	client := &fakeLLM{respond: func(req llm.Request) (interface{}, error) {
		sawPrompt = req.Prompt
		return map[string]interface{}{
			"winner":     "A",
			"reason":     "followed the constraints",
			"highlights": []interface{}{"Concise"},
		}, nil
	}}
	nodes := testNodes(t, client, configuredResolver())

	s := NewState("build a prompt", "english", nil, nil)
	s.TestInputs = map[string]string{"user_test_input": "translate hello"}
	s.TestOutputs = map[string]string{"A": "output A", "C": "output C"}

	out := nodes.Judge(context.Background(), s)

	require.NotNil(t, out.Result.Winner)
	assert.Equal(t, "A", *out.Result.Winner)
	assert.Equal(t, []string{"Concise"}, out.Result.Highlights)
	assert.Contains(t, sawPrompt, "output A")
	assert.Contains(t, sawPrompt, "output C")
	assert.Contains(t, sawPrompt, "No output generated", "missing slot B gets the sentinel")
	assert.Contains(t, sawPrompt, "translate hello")
}

func TestJudgeFailureReturnsErrorResult(t *testing.T) {
	client := &fakeLLM{respond: func(llm.Request) (interface{}, error) {
		return nil, llm.NewError(llm.KindParse, "not json", nil)
	}}
	nodes := testNodes(t, client, configuredResolver())

	s := NewState("build a prompt", "english", nil, nil)
	s.TestOutputs = map[string]string{"A": "output A"}

	out := nodes.Judge(context.Background(), s)

	assert.Nil(t, out.Result.Winner)
	assert.NotEmpty(t, out.Result.Error)
}

func TestRefineRequiresSelection(t *testing.T) {
	client := &fakeLLM{respond: func(llm.Request) (interface{}, error) {
		t.Fatal("no call expected without a selection")
		return nil, nil
	}}
	nodes := testNodes(t, client, configuredResolver())

	s := NewState("build a prompt", "english", nil, nil)
	out := nodes.Refine(context.Background(), s)

	assert.Empty(t, out.Variants)
	require.NotNil(t, out.Err)
	require.Len(t, out.Dialogue, 1)
	assert.Equal(t, RoleAssistant, out.Dialogue[0].Role)
}

func TestRefineReplacesVariants(t *testing.T) {
	client := &fakeLLM{respond: func(req llm.Request) (interface{}, error) {
		assert.Contains(t, req.Prompt, "seed prompt text")
		assert.Contains(t, req.Prompt, "make it shorter")
		return map[string]interface{}{
			"variations": []interface{}{
				map[string]interface{}{"id": "A", "name": "Conservative Fix", "content": "short v1"},
				map[string]interface{}{"id": "B", "name": "Structural Change", "content": "short v2"},
				map[string]interface{}{"id": "C", "name": "Alternative Take", "content": "short v3"},
			},
		}, nil
	}}
	nodes := testNodes(t, client, configuredResolver())

	s := NewState("build a prompt", "english", nil, nil)
	s.GeneratedVariants = []Variant{{ID: "B", Content: "seed prompt text"}}
	sel := "B"
	feedback := "make it shorter"
	s.SelectedVariant = &sel
	s.UserFeedback = &feedback

	out := nodes.Refine(context.Background(), s)

	require.Len(t, out.Variants, 3)
	assert.Equal(t, "short v1", out.Variants[0].Content)
	assert.Nil(t, out.Err)
}

func TestRefineFailureLeavesVariantsEmpty(t *testing.T) {
	client := &fakeLLM{respond: func(llm.Request) (interface{}, error) {
		return nil, fmt.Errorf("provider exploded")
	}}
	nodes := testNodes(t, client, configuredResolver())

	s := NewState("build a prompt", "spanish", nil, nil)
	s.GeneratedVariants = []Variant{{ID: "A", Content: "seed"}}
	sel := "A"
	feedback := "cambia el tono"
	s.SelectedVariant = &sel
	s.UserFeedback = &feedback

	out := nodes.Refine(context.Background(), s)

	assert.Empty(t, out.Variants)
	require.Len(t, out.Dialogue, 1)
	assert.Contains(t, out.Dialogue[0].Text, "Error")
}

func TestExecuteTestsIsolatesFailures(t *testing.T) {
	client := &fakeLLM{respond: func(req llm.Request) (interface{}, error) {
		if strings.Contains(req.Prompt, "prompt B") {
			return nil, llm.NewError(llm.KindTransport, "timeout", nil)
		}
		return "model output for " + req.Prompt[:8], nil
	}}
	nodes := testNodes(t, client, configuredResolver())

	s := NewState("build a prompt", "english", nil, nil)
	s.GeneratedVariants = []Variant{
		{ID: "A", Content: "prompt A"},
		{ID: "B", Content: "prompt B"},
	}

	outputs := nodes.ExecuteTests(context.Background(), s, "hello")

	require.Len(t, outputs, 2)
	assert.Contains(t, outputs["A"], "model output")
	assert.Contains(t, outputs["B"], "Error:")
}

func TestExecuteTestsSubstitutesInputSlot(t *testing.T) {
	var sawPrompt string
	client := &fakeLLM{respond: func(req llm.Request) (interface{}, error) {
		sawPrompt = req.Prompt
		return "ok", nil
	}}
	nodes := testNodes(t, client, configuredResolver())

	s := NewState("build a prompt", "english", nil, nil)
	s.GeneratedVariants = []Variant{{ID: "A", Content: "Translate: {user_test_input}"}}

	nodes.ExecuteTests(context.Background(), s, "hola")

	assert.Equal(t, "Translate: hola", sawPrompt)
}

func TestCompletionDispatchesAreCounted(t *testing.T) {
	client := &fakeLLM{respond: func(req llm.Request) (interface{}, error) {
		if strings.Contains(req.Prompt, "Chain of Thought") {
			return nil, llm.NewError(llm.KindRateLimit, "throttled", nil)
		}
		return map[string]interface{}{"name": "Variant", "content": "prompt body"}, nil
	}}
	nodes := testNodes(t, client, configuredResolver())
	rec := &callCounter{}
	nodes.Calls = rec

	s := NewState("build a prompt", "english", nil, nil)
	nodes.Generate(context.Background(), s)

	calls, failures := rec.counts()
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, failures)
}

func TestExecuteTestsCountsDispatches(t *testing.T) {
	client := &fakeLLM{respond: func(req llm.Request) (interface{}, error) {
		if strings.Contains(req.Prompt, "prompt B") {
			return nil, llm.NewError(llm.KindTransport, "connection reset", nil)
		}
		return "model output", nil
	}}
	nodes := testNodes(t, client, configuredResolver())
	rec := &callCounter{}
	nodes.Calls = rec

	s := NewState("build a prompt", "english", nil, nil)
	s.GeneratedVariants = []Variant{
		{ID: "A", Content: "prompt A"},
		{ID: "B", Content: "prompt B"},
	}

	nodes.ExecuteTests(context.Background(), s, "hello")

	calls, failures := rec.counts()
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, failures)
}
