package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/promptforge/promptforge/internal/llm"
)

// ExecuteTests runs every current variant's content against the supplied
// test input, one concurrent plain-text completion per variant. A failed
// run fills its slot with an error string instead of dropping it, so the
// user always sees what happened to each candidate.
func (n *Nodes) ExecuteTests(ctx context.Context, s *State, testInput string) map[string]string {
	ctx, span := n.tracer.Start(ctx, "workflow.execute_tests")
	defer span.End()

	outputs := make(map[string]string, len(s.GeneratedVariants))

	cred, stageErr := n.resolveCredential(ctx, s)
	if stageErr != nil {
		log.Printf(`{"level":"error","message":"ExecuteTests: no active API key","detail":"%s"}`, stageErr.Message)
		for _, v := range s.GeneratedVariants {
			outputs[v.ID] = fmt.Sprintf("Error: %s", stageErr.Message)
		}
		return outputs
	}

	var mu sync.Mutex
	p := pool.New().WithContext(ctx)
	for _, v := range s.GeneratedVariants {
		if v.Content == "" {
			continue
		}
		variant := v
		p.Go(func(ctx context.Context) error {
			output := n.executeOne(ctx, s, cred, variant, testInput)
			mu.Lock()
			outputs[variant.ID] = output
			mu.Unlock()
			return nil
		})
	}
	_ = p.Wait()

	return outputs
}

func (n *Nodes) executeOne(ctx context.Context, s *State, cred *Credential, v Variant, testInput string) string {
	rendered := strings.ReplaceAll(v.Content, "{user_test_input}", testInput)
	if rendered == v.Content && testInput != "" {
		// Prompt has no input slot; append the test input as the user turn.
		rendered = rendered + "\n\n" + testInput
	}

	timeout := n.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := n.LLM.Complete(callCtx, llm.Request{
		Provider: cred.Provider,
		Model:    modelFor(s, cred),
		APIKey:   cred.APIKey,
		Prompt:   rendered,
	})
	n.recordCall(ctx, cred, modelFor(s, cred), err)
	if err != nil {
		log.Printf(`{"level":"error","message":"ExecuteTests: variant run failed","variant":"%s","error":"%v"}`, v.ID, err)
		return fmt.Sprintf("Error: %v", err)
	}

	if text, ok := result.(string); ok {
		return text
	}
	return fmt.Sprintf("%v", result)
}
