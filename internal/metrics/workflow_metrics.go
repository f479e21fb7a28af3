package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("workflow-metrics")

// WorkflowMetrics provides metrics collection for workflow turn execution
type WorkflowMetrics struct {
	turnsStartedCounter    metric.Int64Counter
	turnsCompletedCounter  metric.Int64Counter
	turnsHaltedCounter     metric.Int64Counter
	stageDurationHistogram metric.Float64Histogram
	llmCallsCounter        metric.Int64Counter
	llmFailuresCounter     metric.Int64Counter
	turnsActiveGauge       metric.Int64UpDownCounter
}

// NewWorkflowMetrics creates a new workflow metrics collector
func NewWorkflowMetrics() (*WorkflowMetrics, error) {
	turnsStartedCounter, err := meter.Int64Counter(
		"promptforge.turns.started",
		metric.WithDescription("Total number of workflow turns started"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		return nil, err
	}

	turnsCompletedCounter, err := meter.Int64Counter(
		"promptforge.turns.completed",
		metric.WithDescription("Total number of workflow turns that ran to halt"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		return nil, err
	}

	turnsHaltedCounter, err := meter.Int64Counter(
		"promptforge.turns.awaiting_input",
		metric.WithDescription("Total number of turns paused waiting for user input"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		return nil, err
	}

	stageDurationHistogram, err := meter.Float64Histogram(
		"promptforge.stage.duration",
		metric.WithDescription("Duration of a single stage execution in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	llmCallsCounter, err := meter.Int64Counter(
		"promptforge.llm.calls",
		metric.WithDescription("Total number of completion calls dispatched"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	llmFailuresCounter, err := meter.Int64Counter(
		"promptforge.llm.failures",
		metric.WithDescription("Total number of completion calls that failed"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	turnsActiveGauge, err := meter.Int64UpDownCounter(
		"promptforge.turns.active",
		metric.WithDescription("Number of turns currently executing"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		return nil, err
	}

	return &WorkflowMetrics{
		turnsStartedCounter:    turnsStartedCounter,
		turnsCompletedCounter:  turnsCompletedCounter,
		turnsHaltedCounter:     turnsHaltedCounter,
		stageDurationHistogram: stageDurationHistogram,
		llmCallsCounter:        llmCallsCounter,
		llmFailuresCounter:     llmFailuresCounter,
		turnsActiveGauge:       turnsActiveGauge,
	}, nil
}

// RecordTurnStarted records the beginning of a workflow turn
func (wm *WorkflowMetrics) RecordTurnStarted(ctx context.Context, threadID, entryStage string) {
	wm.turnsStartedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("thread.id", threadID),
			attribute.String("entry.stage", entryStage),
		),
	)
	wm.turnsActiveGauge.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("entry.stage", entryStage),
		),
	)
}

// RecordTurnCompleted records a turn that reached its halt point
func (wm *WorkflowMetrics) RecordTurnCompleted(ctx context.Context, threadID, lastStage string, awaitingInput bool, duration time.Duration) {
	wm.turnsCompletedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("thread.id", threadID),
			attribute.String("last.stage", lastStage),
		),
	)
	if awaitingInput {
		wm.turnsHaltedCounter.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("last.stage", lastStage),
			),
		)
	}
	wm.stageDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("stage", "turn"),
			attribute.String("last.stage", lastStage),
		),
	)
	wm.turnsActiveGauge.Add(ctx, -1,
		metric.WithAttributes(
			attribute.String("entry.stage", lastStage),
		),
	)
}

// RecordStageDuration records how long a single stage took
func (wm *WorkflowMetrics) RecordStageDuration(ctx context.Context, stage string, duration time.Duration) {
	wm.stageDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("stage", stage),
		),
	)
}

// RecordLLMCall records a completion call dispatch and its outcome
func (wm *WorkflowMetrics) RecordLLMCall(ctx context.Context, provider, model string, failed bool) {
	wm.llmCallsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("llm.provider", provider),
			attribute.String("llm.model", model),
		),
	)
	if failed {
		wm.llmFailuresCounter.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("llm.provider", provider),
				attribute.String("llm.model", model),
			),
		)
	}
}
