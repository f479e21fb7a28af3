package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/promptforge/promptforge/internal/llm"
	"github.com/promptforge/promptforge/internal/templates"
)

// Localized clarify-stage messages. Error text is embedded in the normal
// payload slots so the caller always receives a well-formed document.
func clarifyAckMessage(language string) string {
	if templates.Normalize(language) == templates.LangEnglish {
		return "Thanks for your answers. Generating your prompt now..."
	}
	return "Gracias por tus respuestas. Generando tu prompt ahora..."
}

func clarifyConfigErrorText(language string) string {
	if templates.Normalize(language) == templates.LangEnglish {
		return "Error: No active API key configured. Please configure an API key in settings."
	}
	return "Error: No hay API key activa configurada. Por favor, configure una API key en los ajustes."
}

func clarifyCallErrorText(language string, err error) string {
	if templates.Normalize(language) == templates.LangEnglish {
		return fmt.Sprintf("Error in the clarification step: %v", err)
	}
	return fmt.Sprintf("Error en el paso de clarificación: %v", err)
}

// Clarify decides whether enough information exists to generate prompts,
// or what to ask next. It never calls the model when the user has already
// answered, and it never lets a failure escape: every outcome is a valid
// requirements delta.
func (n *Nodes) Clarify(ctx context.Context, s *State) ClarifyOutput {
	ctx, span := n.tracer.Start(ctx, "workflow.clarify")
	defer span.End()

	if s.HasUserAnswer() {
		log.Printf(`{"level":"info","message":"Clarify: user answered, extracting requirements"}`)
		return ClarifyOutput{
			Requirements: Requirements{
				HasQuestions: false,
				UserAnswers:  s.UserAnswers(),
				Clarified:    true,
			},
			Dialogue: []Message{{Role: RoleAssistant, Text: clarifyAckMessage(s.Language)}},
		}
	}

	cred, stageErr := n.resolveCredential(ctx, s)
	if stageErr != nil {
		log.Printf(`{"level":"error","message":"Clarify: no active API key","detail":"%s"}`, stageErr.Message)
		return ClarifyOutput{
			Requirements: Requirements{
				HasQuestions: true,
				Questions:    []string{clarifyConfigErrorText(s.Language)},
			},
			Dialogue: []Message{{Role: RoleAssistant, Text: clarifyConfigErrorText(s.Language)}},
			Err:      stageErr,
		}
	}

	prompt, err := n.Templates.Render(s.Language, templates.KeyClarifier, map[string]string{
		"user_input":           conversationText(s),
		"interaction_language": templates.DisplayName(s.Language),
	})
	if err == nil {
		var result interface{}
		result, err = n.complete(ctx, s, cred, prompt)
		if err == nil {
			return clarifyFromPayload(result)
		}
	}

	span.RecordError(err)
	log.Printf(`{"level":"error","message":"Clarify: completion failed","error":"%v"}`, err)
	return ClarifyOutput{
		Requirements: Requirements{
			HasQuestions: true,
			Questions:    []string{clarifyCallErrorText(s.Language, err)},
		},
		Dialogue: []Message{{Role: RoleAssistant, Text: clarifyCallErrorText(s.Language, err)}},
		Err:      stageErrorFrom(err),
	}
}

// clarifyFromPayload folds the parsed clarifier response into the
// requirements shape
func clarifyFromPayload(parsed interface{}) ClarifyOutput {
	obj, ok := llm.AsObject(parsed)
	if !ok {
		// A non-object payload has no questions to ask; treat it as a
		// completed analysis with nothing extracted
		return ClarifyOutput{Requirements: Requirements{HasQuestions: false}}
	}

	questions := stringSlice(obj["questions"])
	if len(questions) > 0 {
		serialized, _ := json.Marshal(questions)
		return ClarifyOutput{
			Requirements: Requirements{
				Questions:    questions,
				HasQuestions: true,
			},
			Dialogue: []Message{{Role: RoleAssistant, Text: string(serialized)}},
		}
	}

	extra := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		if k == "questions" {
			continue
		}
		extra[k] = v
	}

	return ClarifyOutput{
		Requirements: Requirements{
			HasQuestions: false,
			Extra:        extra,
		},
	}
}
