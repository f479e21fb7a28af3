package models

// StreamEventType labels the frames sent over the workflow WebSocket
type StreamEventType string

const (
	StreamEventStatus StreamEventType = "status"
	StreamEventUpdate StreamEventType = "update"
	StreamEventEnd    StreamEventType = "end"
	StreamEventError  StreamEventType = "error"
)

// StreamEvent is one WebSocket frame: the stage about to run, the API
// view of the state after a merge, the final view at halt, or an error
type StreamEvent struct {
	Type     StreamEventType   `json:"type"`
	Stage    string            `json:"stage,omitempty"`
	Response *WorkflowResponse `json:"response,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// StreamCommand is the first client frame on the workflow WebSocket: it
// either starts a thread or resumes one with an answer or a refinement
type StreamCommand struct {
	Action          string `json:"action" binding:"required"`
	UserInput       string `json:"user_input"`
	Language        string `json:"language"`
	Provider        string `json:"provider"`
	Model           string `json:"model"`
	Answer          string `json:"answer"`
	SelectedVariant string `json:"selected_variant"`
	Feedback        string `json:"feedback"`
}

// Stream command actions
const (
	StreamActionStart  = "start"
	StreamActionAnswer = "answer"
	StreamActionRefine = "refine"
)
