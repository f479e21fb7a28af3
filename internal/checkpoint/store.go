package checkpoint

import (
	"github.com/promptforge/promptforge/internal/workflow"
)

// Store persists the full workflow state per thread. Save replaces the
// whole document (last writer wins); Load returns ErrNotFound for unknown
// threads. The interface itself lives in the workflow package so the
// engine can depend on it without importing its implementations.
type Store = workflow.CheckpointStore

// ErrNotFound is returned by Load when no checkpoint exists for the thread.
var ErrNotFound = workflow.ErrThreadNotFound
