package gateway

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/promptforge/promptforge/internal/auth"
	"github.com/promptforge/promptforge/internal/models"
	"github.com/promptforge/promptforge/internal/workflow"
)

var wsTracer = otel.Tracer("workflow-stream")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking for production
		return true
	},
}

const (
	wsWriteTimeout = 10 * time.Second
	wsTurnTimeout  = 10 * time.Minute
)

// StreamHandler runs workflow turns over a WebSocket, pushing stage
// progress as it happens instead of making the client poll.
type StreamHandler struct {
	engine     *workflow.Engine
	jwtManager *auth.JWTManager
	tracer     trace.Tracer
}

// NewStreamHandler creates a new workflow stream handler
func NewStreamHandler(engine *workflow.Engine, jwtManager *auth.JWTManager) *StreamHandler {
	return &StreamHandler{
		engine:     engine,
		jwtManager: jwtManager,
		tracer:     wsTracer,
	}
}

// StreamWorkflow handles WebSocket /api/ws/prompts/:thread_id
// @Summary Stream workflow turn progress
// @Description WebSocket endpoint to stream stage-by-stage progress of a workflow turn
// @Tags prompts
// @Param thread_id path string true "Thread ID, or 'new' to start a thread"
// @Param token query string false "JWT when the Authorization header is unavailable"
// @Success 101 "Switching Protocols"
// @Failure 401 {object} map[string]string
// @Router /ws/prompts/{thread_id} [get]
func (s *StreamHandler) StreamWorkflow(c *gin.Context) {
	ctx, span := s.tracer.Start(c.Request.Context(), "stream.workflow")
	defer span.End()

	threadID := c.Param("thread_id")
	span.SetAttributes(attribute.String("thread.id", threadID))

	// WebSocket clients cannot always set headers, so the token may come
	// via query parameter.
	token := auth.TokenFromRequest(c.Request)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing token"})
		return
	}
	claims, err := s.jwtManager.ValidateToken(ctx, token)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}
	span.SetAttributes(attribute.String("user.id", claims.UserID))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		log.Printf(`{"level":"error","message":"WebSocket upgrade failed","error":"%v"}`, err)
		return
	}
	defer conn.Close()

	log.Printf(`{"level":"info","message":"Workflow stream opened","thread_id":"%s","user_id":"%s"}`, threadID, claims.UserID)

	// The first client frame selects what this turn does.
	var cmd models.StreamCommand
	if err := conn.ReadJSON(&cmd); err != nil {
		s.writeEvent(conn, models.StreamEvent{Type: models.StreamEventError, Error: "Invalid command frame"})
		return
	}

	turnCtx, cancel := context.WithTimeout(context.Background(), wsTurnTimeout)
	defer cancel()

	s.runTurn(turnCtx, conn, threadID, cmd)
}

func (s *StreamHandler) runTurn(ctx context.Context, conn *websocket.Conn, threadID string, cmd models.StreamCommand) {
	sink := func(ev workflow.Event) {
		s.writeEngineEvent(conn, ev)
	}

	var err error
	switch cmd.Action {
	case models.StreamActionStart:
		threadID, _, err = s.engine.StartStream(ctx, workflow.StartInput{
			UserInput: cmd.UserInput,
			Language:  cmd.Language,
			Provider:  cmd.Provider,
			Model:     cmd.Model,
		}, sink)
	case models.StreamActionAnswer:
		_, err = s.engine.ResumeStream(ctx, threadID, workflow.ResumeDelta{
			Message: &workflow.Message{Role: workflow.RoleUser, Text: cmd.Answer},
		}, sink)
	case models.StreamActionRefine:
		// Same contract as the HTTP handler's required bindings; an empty
		// selection would otherwise re-enter clarify instead of refining.
		if cmd.SelectedVariant == "" || cmd.Feedback == "" {
			s.writeEvent(conn, models.StreamEvent{Type: models.StreamEventError, Error: "selected_variant and feedback are required"})
			return
		}
		_, err = s.engine.ResumeStream(ctx, threadID, workflow.ResumeDelta{
			SelectedVariant: &cmd.SelectedVariant,
			UserFeedback:    &cmd.Feedback,
		}, sink)
	default:
		s.writeEvent(conn, models.StreamEvent{Type: models.StreamEventError, Error: "Unknown action: " + cmd.Action})
		return
	}

	if err != nil {
		log.Printf(`{"level":"error","message":"Streamed turn failed","thread_id":"%s","action":"%s","error":"%v"}`, threadID, cmd.Action, err)
		s.writeEvent(conn, models.StreamEvent{Type: models.StreamEventError, Error: err.Error()})
	}
}

func (s *StreamHandler) writeEngineEvent(conn *websocket.Conn, ev workflow.Event) {
	frame := models.StreamEvent{Stage: string(ev.Stage)}
	switch ev.Type {
	case workflow.EventStatus:
		frame.Type = models.StreamEventStatus
	case workflow.EventUpdate:
		frame.Type = models.StreamEventUpdate
	case workflow.EventEnd:
		frame.Type = models.StreamEventEnd
	default:
		return
	}
	if ev.State != nil {
		resp := models.FormatWorkflowResponse(ev.ThreadID, ev.State)
		frame.Response = &resp
	}
	s.writeEvent(conn, frame)
}

func (s *StreamHandler) writeEvent(conn *websocket.Conn, ev models.StreamEvent) {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(ev); err != nil {
		log.Printf(`{"level":"warn","message":"Failed to write stream event","error":"%v"}`, err)
	}
}
