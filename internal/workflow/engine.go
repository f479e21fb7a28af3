package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/promptforge/promptforge/internal/metrics"
)

// ErrThreadNotFound is returned when no checkpoint exists for a thread.
var ErrThreadNotFound = errors.New("thread not found")

// CheckpointStore persists the full state document per thread. Save
// replaces the whole document; Load returns ErrThreadNotFound for unknown
// threads.
type CheckpointStore interface {
	Load(ctx context.Context, threadID string) (*State, error)
	Save(ctx context.Context, threadID string, state *State) error
}

// EventType labels the stream events emitted while a turn runs.
type EventType string

const (
	EventStatus EventType = "status"
	EventUpdate EventType = "update"
	EventEnd    EventType = "end"
)

// Event is one streaming update: which stage is about to run, the merged
// state after a stage, or the end of the turn.
type Event struct {
	Type     EventType
	ThreadID string
	Stage    Stage
	State    *State
}

// EventSink receives stream events during a turn. May be nil.
type EventSink func(Event)

// StartInput begins a new thread.
type StartInput struct {
	UserInput string
	Language  string
	Provider  string
	Model     string
}

// ResumeDelta carries the external input that wakes a halted thread:
// a clarification answer, a refine request, or captured test data.
type ResumeDelta struct {
	Message         *Message
	SelectedVariant *string
	UserFeedback    *string
	TestInputs      map[string]string
	TestOutputs     map[string]string
}

// Engine drives threads through the stage machine: load, pick the entry
// stage, execute stages and merge their outputs, checkpoint at every
// stage boundary, stop at the router's halt. Turns on a single thread are
// sequential; callers must not resume one thread concurrently.
type Engine struct {
	store   CheckpointStore
	nodes   *Nodes
	metrics *metrics.WorkflowMetrics
	tracer  trace.Tracer
}

func NewEngine(store CheckpointStore, nodes *Nodes, m *metrics.WorkflowMetrics) *Engine {
	return &Engine{
		store:   store,
		nodes:   nodes,
		metrics: m,
		tracer:  otel.Tracer("workflow-engine"),
	}
}

// Start creates a new thread and runs it until the first halt.
func (e *Engine) Start(ctx context.Context, in StartInput) (string, *State, error) {
	return e.StartStream(ctx, in, nil)
}

// StartStream is Start with a live event stream.
func (e *Engine) StartStream(ctx context.Context, in StartInput, sink EventSink) (string, *State, error) {
	threadID := uuid.New().String()
	var provider, model *string
	if in.Provider != "" {
		provider = &in.Provider
	}
	if in.Model != "" {
		model = &in.Model
	}
	state := NewState(in.UserInput, in.Language, provider, model)

	if err := e.run(ctx, threadID, state, sink); err != nil {
		return "", nil, err
	}
	return threadID, state, nil
}

// Resume applies the delta to a halted thread and runs it until the next
// halt. The entry stage is re-derived from the merged state.
func (e *Engine) Resume(ctx context.Context, threadID string, delta ResumeDelta) (*State, error) {
	return e.ResumeStream(ctx, threadID, delta, nil)
}

// ResumeStream is Resume with a live event stream.
func (e *Engine) ResumeStream(ctx context.Context, threadID string, delta ResumeDelta, sink EventSink) (*State, error) {
	state, err := e.store.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}

	applyDelta(state, delta)

	if err := e.run(ctx, threadID, state, sink); err != nil {
		return nil, err
	}
	return state, nil
}

// GetState returns the checkpointed state without executing anything.
func (e *Engine) GetState(ctx context.Context, threadID string) (*State, error) {
	return e.store.Load(ctx, threadID)
}

// RunTests executes every current variant against the test input, stores
// the captured outputs, runs the judge over them and checkpoints the
// result.
func (e *Engine) RunTests(ctx context.Context, threadID, testInput string) (*State, error) {
	ctx, span := e.tracer.Start(ctx, "engine.run_tests",
		trace.WithAttributes(attribute.String("thread.id", threadID)))
	defer span.End()

	state, err := e.store.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if len(state.GeneratedVariants) == 0 {
		return nil, fmt.Errorf("thread %s has no variants to test", threadID)
	}

	outputs := e.nodes.ExecuteTests(ctx, state, testInput)
	if state.TestInputs == nil {
		state.TestInputs = map[string]string{}
	}
	state.TestInputs["user_test_input"] = testInput
	state.TestOutputs = outputs

	out := e.nodes.Judge(ctx, state)
	out.Apply(state)

	if err := e.store.Save(ctx, threadID, state); err != nil {
		return nil, err
	}
	return state, nil
}

func applyDelta(state *State, delta ResumeDelta) {
	if delta.Message != nil {
		state.ClarificationDialogue = append(state.ClarificationDialogue, *delta.Message)
	}
	if delta.SelectedVariant != nil {
		state.SelectedVariant = delta.SelectedVariant
	}
	if delta.UserFeedback != nil {
		state.UserFeedback = delta.UserFeedback
	}
	for k, v := range delta.TestInputs {
		if state.TestInputs == nil {
			state.TestInputs = map[string]string{}
		}
		state.TestInputs[k] = v
	}
	for k, v := range delta.TestOutputs {
		if state.TestOutputs == nil {
			state.TestOutputs = map[string]string{}
		}
		state.TestOutputs[k] = v
	}
}

// run executes one turn: from the entry stage to the next halt, merging
// and checkpointing after every stage.
func (e *Engine) run(ctx context.Context, threadID string, state *State, sink EventSink) error {
	entry := EntryStage(state)
	ctx, span := e.tracer.Start(ctx, "engine.turn",
		trace.WithAttributes(
			attribute.String("thread.id", threadID),
			attribute.String("entry.stage", string(entry)),
		))
	defer span.End()

	turnStart := time.Now()
	state.RecordTurn(entry)
	e.metrics.RecordTurnStarted(ctx, threadID, string(entry))
	log.Printf(`{"level":"info","message":"turn started","thread_id":"%s","entry_stage":"%s","iteration":%d}`, threadID, entry, state.Iteration)

	stage := entry
	awaitingInput := false
	lastStage := entry
	for stage != StageHalt {
		emit(sink, Event{Type: EventStatus, ThreadID: threadID, Stage: stage})

		stageStart := time.Now()
		out := e.executeStage(ctx, stage, state)
		out.Apply(state)
		e.metrics.RecordStageDuration(ctx, string(stage), time.Since(stageStart))

		if err := e.store.Save(ctx, threadID, state); err != nil {
			span.RecordError(err)
			e.metrics.RecordTurnCompleted(ctx, threadID, string(stage), false, time.Since(turnStart))
			return fmt.Errorf("failed to checkpoint thread %s after %s: %w", threadID, stage, err)
		}
		emit(sink, Event{Type: EventUpdate, ThreadID: threadID, Stage: stage, State: state})

		next, err := NextStage(stage, state)
		if err != nil {
			span.RecordError(err)
			e.metrics.RecordTurnCompleted(ctx, threadID, string(stage), false, time.Since(turnStart))
			return err
		}
		lastStage = stage
		if next == StageHalt && (stage == StageClarify || stage == StageJudge) {
			awaitingInput = true
		}
		stage = next
	}

	e.metrics.RecordTurnCompleted(ctx, threadID, string(lastStage), awaitingInput, time.Since(turnStart))
	log.Printf(`{"level":"info","message":"turn halted","thread_id":"%s","last_stage":"%s","awaiting_input":%t}`, threadID, lastStage, awaitingInput)
	emit(sink, Event{Type: EventEnd, ThreadID: threadID, Stage: lastStage, State: state})
	return nil
}

func (e *Engine) executeStage(ctx context.Context, stage Stage, state *State) StageOutput {
	switch stage {
	case StageClarify:
		return e.nodes.Clarify(ctx, state)
	case StageGenerate:
		return e.nodes.Generate(ctx, state)
	case StageEvaluate:
		return e.nodes.Evaluate(ctx, state)
	case StageJudge:
		return e.nodes.Judge(ctx, state)
	case StageRefine:
		return e.nodes.Refine(ctx, state)
	default:
		// NextStage never yields an unknown stage; treat it as a no-op.
		return noopOutput{}
	}
}

type noopOutput struct{}

func (noopOutput) Apply(*State) {}

func emit(sink EventSink, ev Event) {
	if sink != nil {
		sink(ev)
	}
}
