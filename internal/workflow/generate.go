package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/sourcegraph/conc/iter"

	"github.com/promptforge/promptforge/internal/llm"
	"github.com/promptforge/promptforge/internal/templates"
)

// Persona is a fixed generation strategy. Three of them fan out per turn.
type Persona struct {
	ID          string
	Name        string
	Description string
}

var personas = []Persona{
	{ID: "A", Name: "Direct & Concise", Description: "Focus on brevity, minimal fluff, token efficiency. Ideal for speed."},
	{ID: "B", Name: "Chain of Thought", Description: "Instructs model to think step-by-step. Great for reasoning and complex logic."},
	{ID: "C", Name: "Few-Shot / Contextual", Description: "Robust definition, includes examples (placeholders), extensive context."},
}

// Generate produces one candidate prompt per persona, concurrently. Each
// slot fails independently: a broken call yields an error-bearing variant
// for that persona only, and every returned variant carries id, name,
// description and content regardless of what the model sent back.
func (n *Nodes) Generate(ctx context.Context, s *State) GenerateOutput {
	ctx, span := n.tracer.Start(ctx, "workflow.generate")
	defer span.End()

	cred, stageErr := n.resolveCredential(ctx, s)
	if stageErr != nil {
		log.Printf(`{"level":"error","message":"Generate: no active API key","detail":"%s"}`, stageErr.Message)
		variants := make([]Variant, 0, len(personas))
		for _, p := range personas {
			variants = append(variants, errorVariant(p, stageErr.Message))
		}
		return GenerateOutput{Variants: variants, Err: stageErr}
	}

	promptType := "normal"
	if s.Requirements != nil {
		if t, ok := s.Requirements.Extra["detected_type"].(string); ok && t != "" {
			promptType = t
		}
	}
	requirements := clarifiedRequirementsText(s)
	targetLang := templates.DisplayName(s.Language)

	variants := iter.Map(personas, func(p *Persona) Variant {
		prompt, err := n.Templates.Render(s.Language, templates.KeyGenerator, map[string]string{
			"clarified_requirements": requirements,
			"prompt_type":            promptType,
			"target_language":        targetLang,
			"persona_name":           p.Name,
			"persona_description":    p.Description,
		})
		if err != nil {
			return errorVariant(*p, err.Error())
		}
		result, err := n.complete(ctx, s, cred, prompt)
		if err != nil {
			log.Printf(`{"level":"error","message":"Generate: variant failed","variant":"%s","error":"%v"}`, p.ID, err)
			return errorVariant(*p, err.Error())
		}
		return variantFromPayload(*p, result)
	})

	return GenerateOutput{Variants: variants}
}

func errorVariant(p Persona, detail string) Variant {
	return Variant{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Content:     fmt.Sprintf("Error generating variant: %s", detail),
	}
}

// variantFromPayload normalizes whatever the model returned into a full
// variant. Missing content falls back to the description, then to the raw
// serialized payload.
func variantFromPayload(p Persona, parsed interface{}) Variant {
	obj, ok := llm.AsObject(parsed)
	if !ok {
		raw, _ := json.Marshal(parsed)
		return errorVariant(p, fmt.Sprintf("unexpected response shape: %s", raw))
	}

	v := Variant{ID: p.ID, Name: p.Name, Description: p.Description}
	if name, ok := obj["name"].(string); ok && name != "" {
		v.Name = name
	}
	if desc, ok := obj["description"].(string); ok && desc != "" {
		v.Description = desc
	}
	if content, ok := obj["content"].(string); ok && content != "" {
		v.Content = content
	} else if v.Description != "" {
		v.Content = v.Description
	} else {
		raw, _ := json.Marshal(obj)
		v.Content = string(raw)
	}
	return v
}
