package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/promptforge/promptforge/internal/llm"
	"github.com/promptforge/promptforge/internal/templates"
)

// Credential is an active provider key resolved for a call
type Credential struct {
	Provider        string
	APIKey          string
	ModelPreference string
}

// CredentialResolver resolves the active API key for a provider. A nil
// credential with a nil error means "not configured"; stages convert that
// into a structured, user-visible error rather than failing the turn.
type CredentialResolver interface {
	GetActive(ctx context.Context, provider string) (*Credential, error)
}

// CallRecorder counts completion dispatches and their outcomes.
// *metrics.WorkflowMetrics satisfies it.
type CallRecorder interface {
	RecordLLMCall(ctx context.Context, provider, model string, failed bool)
}

// defaultCallTimeout bounds each completion call so a hung provider
// degrades one slot instead of wedging the turn
const defaultCallTimeout = 60 * time.Second

// Nodes bundles the collaborators the five stage functions share
type Nodes struct {
	Templates   *templates.Catalog
	Credentials CredentialResolver
	LLM         llm.Client
	Calls       CallRecorder
	CallTimeout time.Duration
	tracer      trace.Tracer
}

// NewNodes wires the stage collaborators
func NewNodes(catalog *templates.Catalog, resolver CredentialResolver, client llm.Client, calls CallRecorder) *Nodes {
	return &Nodes{
		Templates:   catalog,
		Credentials: resolver,
		LLM:         client,
		Calls:       calls,
		CallTimeout: defaultCallTimeout,
		tracer:      otel.Tracer("workflow-nodes"),
	}
}

// resolveCredential looks up the active key for the state's provider
// selection. The returned StageError is non-nil when no key is usable.
func (n *Nodes) resolveCredential(ctx context.Context, s *State) (*Credential, *StageError) {
	provider := ""
	if s.SelectedProvider != nil {
		provider = *s.SelectedProvider
	}

	cred, err := n.Credentials.GetActive(ctx, provider)
	if err != nil {
		return nil, &StageError{Kind: string(llm.KindConfiguration), Message: fmt.Sprintf("failed to resolve credentials: %v", err)}
	}
	if cred == nil {
		return nil, &StageError{Kind: string(llm.KindConfiguration), Message: "no active API key configured"}
	}
	return cred, nil
}

// modelFor picks the explicit model override or the key's preference
func modelFor(s *State, cred *Credential) string {
	if s.SelectedModel != nil && *s.SelectedModel != "" {
		return *s.SelectedModel
	}
	return cred.ModelPreference
}

// complete runs one completion call under the per-call timeout
func (n *Nodes) complete(ctx context.Context, s *State, cred *Credential, prompt string) (interface{}, error) {
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
		Prompt:   prompt,
		JSONMode: true,
	})
	n.recordCall(ctx, cred, modelFor(s, cred), err)
	return result, err
}

// recordCall counts the dispatch; nil recorder means metrics are off
func (n *Nodes) recordCall(ctx context.Context, cred *Credential, model string, err error) {
	if n.Calls != nil {
		n.Calls.RecordLLMCall(ctx, cred.Provider, model, err != nil)
	}
}

// conversationText renders the original input plus the dialogue for the
// clarifier template
func conversationText(s *State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User Initial Input: %s\n\nHistory:\n", s.UserInput)
	for _, msg := range s.ClarificationDialogue {
		switch msg.Role {
		case RoleUser:
			fmt.Fprintf(&b, "User: %s\n", msg.Text)
		case RoleAssistant:
			fmt.Fprintf(&b, "Assistant: %s\n", msg.Text)
		}
	}
	return b.String()
}

// clarifiedRequirementsText renders the original request plus the user's
// clarification answers for the generator and refiner templates
func clarifiedRequirementsText(s *State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original Request: %s\n", s.UserInput)
	for _, msg := range s.ClarificationDialogue {
		if msg.Role == RoleUser {
			fmt.Fprintf(&b, "User Answer: %s\n", msg.Text)
		}
	}
	return b.String()
}

// stageErrorFrom classifies an error from the completion client
func stageErrorFrom(err error) *StageError {
	return &StageError{Kind: string(llm.KindOf(err)), Message: err.Error()}
}

// stringSlice coerces a freeform JSON list into strings, skipping
// non-string members
func stringSlice(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
