// Package workflow implements the prompt-engineering pipeline: the typed
// state document, the five stage nodes (clarify, generate, evaluate,
// judge, refine), the conditional router and the engine that drives
// resumable turns against a durable checkpoint store.
package workflow

import (
	"time"

	"github.com/promptforge/promptforge/internal/templates"
)

// Role of a clarification dialogue entry
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the clarification dialogue
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// StageError is the explicit error marker carried next to payload fields
// whose text already embeds the failure (the legacy error channel)
type StageError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Requirements is the clarify stage output: either open questions for the
// user or the clarified analysis
type Requirements struct {
	Questions    []string               `json:"questions,omitempty"`
	HasQuestions bool                   `json:"has_questions"`
	UserAnswers  []string               `json:"user_answers,omitempty"`
	Clarified    bool                   `json:"clarified,omitempty"`
	// Extra carries whatever freeform analysis fields the model returned
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// Variant is one candidate prompt
type Variant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// Evaluation is the auditor's verdict for one variant
type Evaluation struct {
	Scores       map[string]float64 `json:"scores,omitempty"`
	OverallScore float64            `json:"overall_score"`
	Feedback     string             `json:"feedback,omitempty"`
	Suggestions  []string           `json:"suggestions,omitempty"`
	Err          *StageError        `json:"error,omitempty"`
}

// JudgeResult is the judge stage output
type JudgeResult struct {
	Winner     *string  `json:"winner"`
	Reason     string   `json:"reason,omitempty"`
	Highlights []string `json:"highlights,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Snapshot records one completed turn for the bounded thread history
type Snapshot struct {
	Iteration  int       `json:"iteration"`
	EntryStage Stage     `json:"entry_stage"`
	Timestamp  time.Time `json:"timestamp"`
}

// maxHistory bounds the per-thread snapshot history
const maxHistory = 100

// State is the single mutable document owned by the engine. Stage nodes
// receive it read-only and hand back a typed output covering only the
// fields they own.
type State struct {
	UserInput        string  `json:"user_input"`
	Language         string  `json:"language"`
	SelectedProvider *string `json:"selected_provider,omitempty"`
	SelectedModel    *string `json:"selected_model,omitempty"`

	// ClarificationDialogue is append-only; clarify counts user-authored
	// entries to decide whether questions were answered
	ClarificationDialogue []Message `json:"clarification_dialogue"`

	Requirements      *Requirements         `json:"requirements,omitempty"`
	GeneratedVariants []Variant             `json:"generated_variants"`
	Evaluations       map[string]Evaluation `json:"evaluations"`
	JudgeResult       *JudgeResult          `json:"judge_result,omitempty"`

	SelectedVariant *string `json:"selected_variant,omitempty"`
	UserFeedback    *string `json:"user_feedback,omitempty"`

	TestInputs  map[string]string `json:"test_inputs,omitempty"`
	TestOutputs map[string]string `json:"test_outputs,omitempty"`

	Iteration int        `json:"iteration"`
	History   []Snapshot `json:"history,omitempty"`
}

// NewState seeds a clean document for a fresh thread. The language is
// normalized here so checkpoints and API responses never carry an
// unsupported code.
func NewState(userInput, language string, provider, model *string) *State {
	return &State{
		UserInput:             userInput,
		Language:              templates.Normalize(language),
		SelectedProvider:      provider,
		SelectedModel:         model,
		ClarificationDialogue: []Message{},
		GeneratedVariants:     []Variant{},
		Evaluations:           map[string]Evaluation{},
	}
}

// UserAnswers collects the user-authored dialogue entries in order
func (s *State) UserAnswers() []string {
	var answers []string
	for _, msg := range s.ClarificationDialogue {
		if msg.Role == RoleUser {
			answers = append(answers, msg.Text)
		}
	}
	return answers
}

// HasUserAnswer reports whether the dialogue contains at least one
// user-authored entry
func (s *State) HasUserAnswer() bool {
	for _, msg := range s.ClarificationDialogue {
		if msg.Role == RoleUser {
			return true
		}
	}
	return false
}

// VariantByID finds a variant in the current set
func (s *State) VariantByID(id string) (Variant, bool) {
	for _, v := range s.GeneratedVariants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// RecordTurn appends a bounded history snapshot and bumps the iteration
// counter; called by the engine once per turn
func (s *State) RecordTurn(entry Stage) {
	s.Iteration++
	s.History = append(s.History, Snapshot{
		Iteration:  s.Iteration,
		EntryStage: entry,
		Timestamp:  time.Now().UTC(),
	})
	if len(s.History) > maxHistory {
		s.History = s.History[len(s.History)-maxHistory:]
	}
}

// StageOutput is the typed delta a stage hands back to the engine. Apply
// encodes the merge policy: owned scalar/object fields are replaced
// wholesale, the clarification dialogue only ever appends.
type StageOutput interface {
	Apply(s *State)
}

// ClarifyOutput replaces requirements and appends dialogue entries
type ClarifyOutput struct {
	Requirements Requirements
	Dialogue     []Message
	Err          *StageError
}

func (o ClarifyOutput) Apply(s *State) {
	req := o.Requirements
	s.Requirements = &req
	s.ClarificationDialogue = append(s.ClarificationDialogue, o.Dialogue...)
}

// GenerateOutput replaces the variant set
type GenerateOutput struct {
	Variants []Variant
	Err      *StageError
}

func (o GenerateOutput) Apply(s *State) {
	s.GeneratedVariants = o.Variants
}

// EvaluateOutput replaces the evaluation map
type EvaluateOutput struct {
	Evaluations map[string]Evaluation
	Err         *StageError
}

func (o EvaluateOutput) Apply(s *State) {
	s.Evaluations = o.Evaluations
}

// JudgeOutput replaces the judge result
type JudgeOutput struct {
	Result JudgeResult
}

func (o JudgeOutput) Apply(s *State) {
	res := o.Result
	s.JudgeResult = &res
}

// RefineOutput replaces the variant set and resets the downstream
// artifacts, which are stale relative to the new variants
type RefineOutput struct {
	Variants []Variant
	Dialogue []Message
	Err      *StageError
}

func (o RefineOutput) Apply(s *State) {
	s.GeneratedVariants = o.Variants
	s.ClarificationDialogue = append(s.ClarificationDialogue, o.Dialogue...)
	s.Evaluations = map[string]Evaluation{}
	s.TestOutputs = map[string]string{}
	s.JudgeResult = nil
}
