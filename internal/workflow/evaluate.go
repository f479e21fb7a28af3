package workflow

import (
	"context"
	"log"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/promptforge/promptforge/internal/llm"
	"github.com/promptforge/promptforge/internal/templates"
)

// Evaluate scores every variant that actually carries content, one
// concurrent audit per variant. A failed audit becomes a zero-score entry
// for that id only. An empty result map is a legitimate outcome when
// nothing was evaluable.
func (n *Nodes) Evaluate(ctx context.Context, s *State) EvaluateOutput {
	ctx, span := n.tracer.Start(ctx, "workflow.evaluate")
	defer span.End()

	cred, stageErr := n.resolveCredential(ctx, s)
	if stageErr != nil {
		log.Printf(`{"level":"error","message":"Evaluate: no active API key","detail":"%s"}`, stageErr.Message)
		evals := make(map[string]Evaluation, len(s.GeneratedVariants))
		for _, v := range s.GeneratedVariants {
			evals[v.ID] = failedEvaluation(stageErr)
		}
		return EvaluateOutput{Evaluations: evals, Err: stageErr}
	}

	requirements := clarifiedRequirementsText(s)
	lang := templates.DisplayName(s.Language)

	var mu sync.Mutex
	evals := make(map[string]Evaluation)

	p := pool.New().WithContext(ctx)
	for _, v := range s.GeneratedVariants {
		if v.Content == "" {
			log.Printf(`{"level":"warn","message":"Evaluate: skipping variant without content","variant":"%s"}`, v.ID)
			continue
		}
		variant := v
		p.Go(func(ctx context.Context) error {
			eval := n.evaluateOne(ctx, s, cred, requirements, lang, variant)
			mu.Lock()
			evals[variant.ID] = eval
			mu.Unlock()
			return nil
		})
	}
	// Tasks never return errors; failures are folded into their slot.
	_ = p.Wait()

	return EvaluateOutput{Evaluations: evals}
}

func (n *Nodes) evaluateOne(ctx context.Context, s *State, cred *Credential, requirements, lang string, v Variant) Evaluation {
	prompt, err := n.Templates.Render(s.Language, templates.KeyEvaluator, map[string]string{
		"original_requirements": requirements,
		"candidate_prompt":      v.Content,
		"interaction_language":  lang,
	})
	if err == nil {
		var result interface{}
		result, err = n.complete(ctx, s, cred, prompt)
		if err == nil {
			return evaluationFromPayload(result)
		}
	}
	log.Printf(`{"level":"error","message":"Evaluate: variant failed","variant":"%s","error":"%v"}`, v.ID, err)
	return failedEvaluation(stageErrorFrom(err))
}

func failedEvaluation(serr *StageError) Evaluation {
	return Evaluation{
		Scores:       map[string]float64{},
		OverallScore: 0,
		Feedback:     serr.Message,
		Err:          serr,
	}
}

func evaluationFromPayload(parsed interface{}) Evaluation {
	obj, ok := llm.AsObject(parsed)
	if !ok {
		return failedEvaluation(&StageError{Kind: "parse", Message: "evaluation response was not an object"})
	}

	eval := Evaluation{Scores: map[string]float64{}}
	if scores, ok := obj["scores"].(map[string]interface{}); ok {
		for name, raw := range scores {
			if f, ok := raw.(float64); ok {
				eval.Scores[name] = f
			}
		}
	}
	if overall, ok := obj["overall_score"].(float64); ok {
		eval.OverallScore = overall
	}
	if feedback, ok := obj["feedback"].(string); ok {
		eval.Feedback = feedback
	}
	eval.Suggestions = stringSlice(obj["suggestions"])
	return eval
}
