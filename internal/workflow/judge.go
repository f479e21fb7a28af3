package workflow

import (
	"context"
	"log"

	"github.com/promptforge/promptforge/internal/llm"
	"github.com/promptforge/promptforge/internal/templates"
)

const noOutputSentinel = "No output generated"

// Judge picks a winner among the captured execution outputs. It consumes
// test_outputs only, never the raw variants: judging prompts by what they
// actually produced is the whole point of the stage. With nothing to
// compare it reports an error result without spending a model call.
func (n *Nodes) Judge(ctx context.Context, s *State) JudgeOutput {
	ctx, span := n.tracer.Start(ctx, "workflow.judge")
	defer span.End()

	if len(s.TestOutputs) == 0 {
		log.Printf(`{"level":"info","message":"Judge: no test outputs, skipping"}`)
		return JudgeOutput{Result: JudgeResult{Error: "No test outputs to judge"}}
	}

	cred, stageErr := n.resolveCredential(ctx, s)
	if stageErr != nil {
		log.Printf(`{"level":"error","message":"Judge: no active API key","detail":"%s"}`, stageErr.Message)
		return JudgeOutput{Result: JudgeResult{Error: stageErr.Message}}
	}

	prompt, err := n.Templates.Render(s.Language, templates.KeyJudge, map[string]string{
		"original_intent": s.UserInput,
		"test_input":      representativeTestInput(s),
		"output_a":        testOutputOr(s, "A"),
		"output_b":        testOutputOr(s, "B"),
		"output_c":        testOutputOr(s, "C"),
	})
	if err == nil {
		var result interface{}
		result, err = n.complete(ctx, s, cred, prompt)
		if err == nil {
			return JudgeOutput{Result: judgeResultFromPayload(result)}
		}
	}

	span.RecordError(err)
	log.Printf(`{"level":"error","message":"Judge: completion failed","error":"%v"}`, err)
	return JudgeOutput{Result: JudgeResult{Error: err.Error()}}
}

// representativeTestInput prefers the canonical user-entered input and
// falls back to any captured one.
func representativeTestInput(s *State) string {
	if input, ok := s.TestInputs["user_test_input"]; ok && input != "" {
		return input
	}
	for _, input := range s.TestInputs {
		if input != "" {
			return input
		}
	}
	return ""
}

func testOutputOr(s *State, id string) string {
	if out, ok := s.TestOutputs[id]; ok && out != "" {
		return out
	}
	return noOutputSentinel
}

func judgeResultFromPayload(parsed interface{}) JudgeResult {
	obj, ok := llm.AsObject(parsed)
	if !ok {
		return JudgeResult{Error: "judge response was not an object"}
	}

	var result JudgeResult
	if winner, ok := obj["winner"].(string); ok && winner != "" {
		result.Winner = &winner
	}
	if reason, ok := obj["reason"].(string); ok {
		result.Reason = reason
	}
	result.Highlights = stringSlice(obj["highlights"])
	return result
}
