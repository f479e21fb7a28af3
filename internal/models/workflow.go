package models

import (
	"github.com/promptforge/promptforge/internal/workflow"
)

// WorkflowStartRequest begins a new prompt-building thread
type WorkflowStartRequest struct {
	UserInput string `json:"user_input" binding:"required"`
	Language  string `json:"language"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
}

// WorkflowAnswerRequest resumes a thread with a clarification answer
type WorkflowAnswerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// WorkflowRefineRequest resumes a thread with a variant selection and feedback
type WorkflowRefineRequest struct {
	SelectedVariant string `json:"selected_variant" binding:"required"`
	Feedback        string `json:"feedback" binding:"required"`
}

// WorkflowTestRequest runs the current variants against a test input
type WorkflowTestRequest struct {
	TestInput string `json:"test_input" binding:"required"`
}

// WorkflowStatus is the coarse phase reported to the UI
type WorkflowStatus string

const (
	StatusClarifying WorkflowStatus = "clarifying"
	StatusProcessing WorkflowStatus = "processing"
	StatusCompleted  WorkflowStatus = "completed"
)

// WorkflowResponse is the API view of a thread after a turn
type WorkflowResponse struct {
	ThreadID    string                         `json:"thread_id"`
	Status      WorkflowStatus                 `json:"status"`
	Message     string                         `json:"message"`
	Questions   []string                       `json:"questions"`
	Variants    []workflow.Variant             `json:"variants"`
	Evaluations map[string]workflow.Evaluation `json:"evaluations"`
	JudgeResult *workflow.JudgeResult          `json:"judge_result,omitempty"`
}

// FormatWorkflowResponse projects a state document into the API shape
func FormatWorkflowResponse(threadID string, state *workflow.State) WorkflowResponse {
	status := StatusProcessing
	if len(state.GeneratedVariants) > 0 {
		status = StatusCompleted
	} else if state.Requirements != nil && len(state.Requirements.Questions) > 0 {
		status = StatusClarifying
	}

	var questions []string
	if state.Requirements != nil {
		questions = state.Requirements.Questions
	}

	lastMsg := ""
	for i := len(state.ClarificationDialogue) - 1; i >= 0; i-- {
		if state.ClarificationDialogue[i].Role == workflow.RoleAssistant {
			lastMsg = state.ClarificationDialogue[i].Text
			break
		}
	}

	return WorkflowResponse{
		ThreadID:    threadID,
		Status:      status,
		Message:     lastMsg,
		Questions:   questions,
		Variants:    state.GeneratedVariants,
		Evaluations: state.Evaluations,
		JudgeResult: state.JudgeResult,
	}
}
