package workflow

import (
	"context"
	"fmt"
	"log"

	"github.com/promptforge/promptforge/internal/llm"
	"github.com/promptforge/promptforge/internal/templates"
)

func refineErrorText(language string, err error) string {
	if templates.Normalize(language) == templates.LangEnglish {
		return fmt.Sprintf("Error refining the prompt: %v", err)
	}
	return fmt.Sprintf("Error al refinar el prompt: %v", err)
}

// Refine takes the user's chosen variant plus feedback and replaces the
// variant set with fresh alternatives. Failures never raise: they leave
// the variant set empty and tell the user through the dialogue.
func (n *Nodes) Refine(ctx context.Context, s *State) RefineOutput {
	ctx, span := n.tracer.Start(ctx, "workflow.refine")
	defer span.End()

	if s.SelectedVariant == nil || *s.SelectedVariant == "" {
		log.Printf(`{"level":"error","message":"Refine: no variant selected"}`)
		err := fmt.Errorf("no variant selected to refine")
		return RefineOutput{
			Variants: []Variant{},
			Dialogue: []Message{{Role: RoleAssistant, Text: refineErrorText(s.Language, err)}},
			Err:      &StageError{Kind: "user_input", Message: err.Error()},
		}
	}

	seedContent := ""
	if seed, ok := s.VariantByID(*s.SelectedVariant); ok {
		seedContent = seed.Content
	}
	feedback := ""
	if s.UserFeedback != nil {
		feedback = *s.UserFeedback
	}

	cred, stageErr := n.resolveCredential(ctx, s)
	if stageErr != nil {
		log.Printf(`{"level":"error","message":"Refine: no active API key","detail":"%s"}`, stageErr.Message)
		return RefineOutput{
			Variants: []Variant{},
			Dialogue: []Message{{Role: RoleAssistant, Text: stageErr.Message}},
			Err:      stageErr,
		}
	}

	prompt, err := n.Templates.Render(s.Language, templates.KeyRefiner, map[string]string{
		"seed_prompt":      seedContent,
		"user_feedback":    feedback,
		"original_context": clarifiedRequirementsText(s),
	})
	if err == nil {
		var result interface{}
		result, err = n.complete(ctx, s, cred, prompt)
		if err == nil {
			if variants, perr := variationsFromPayload(result); perr == nil {
				return RefineOutput{Variants: variants}
			} else {
				err = perr
			}
		}
	}

	span.RecordError(err)
	log.Printf(`{"level":"error","message":"Refine: completion failed","error":"%v"}`, err)
	return RefineOutput{
		Variants: []Variant{},
		Dialogue: []Message{{Role: RoleAssistant, Text: refineErrorText(s.Language, err)}},
		Err:      stageErrorFrom(err),
	}
}

func variationsFromPayload(parsed interface{}) ([]Variant, error) {
	obj, ok := llm.AsObject(parsed)
	if !ok {
		return nil, fmt.Errorf("refine response was not an object")
	}
	list, ok := obj["variations"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("refine response missing variations list")
	}

	ids := []string{"A", "B", "C"}
	variants := make([]Variant, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		v := Variant{}
		if id, ok := entry["id"].(string); ok && id != "" {
			v.ID = id
		} else if i < len(ids) {
			v.ID = ids[i]
		} else {
			v.ID = fmt.Sprintf("V%d", i+1)
		}
		if name, ok := entry["name"].(string); ok {
			v.Name = name
		}
		if desc, ok := entry["description"].(string); ok {
			v.Description = desc
		}
		if content, ok := entry["content"].(string); ok {
			v.Content = content
		}
		variants = append(variants, v)
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("refine response contained no usable variations")
	}
	return variants, nil
}
