package workflow

import (
	"fmt"
	"log"
)

// Stage names the nodes of the workflow graph
type Stage string

const (
	StageClarify  Stage = "clarify"
	StageGenerate Stage = "generate"
	StageEvaluate Stage = "evaluate"
	StageJudge    Stage = "judge"
	StageRefine   Stage = "refine"

	// StageHalt is the pause marker, not a node: the engine stops
	// advancing and awaits external input
	StageHalt Stage = ""
)

// EntryStage selects where a turn begins: a set variant selection means
// the user is iterating on a candidate, everything else starts at clarify
func EntryStage(s *State) Stage {
	if s.SelectedVariant != nil && *s.SelectedVariant != "" {
		return StageRefine
	}
	return StageClarify
}

// NextStage decides the transition out of a completed stage. The
// answered-over-questions priority in the clarify edge is load-bearing:
// inverted, the machine re-asks answered questions forever.
func NextStage(from Stage, s *State) (Stage, error) {
	switch from {
	case StageClarify:
		return routeAfterClarify(s), nil
	case StageGenerate:
		return StageEvaluate, nil
	case StageEvaluate:
		return StageJudge, nil
	case StageJudge:
		return StageHalt, nil
	case StageRefine:
		if len(s.GeneratedVariants) == 0 {
			// Refine failed or was invoked without a selection; there is
			// nothing to evaluate
			return StageHalt, nil
		}
		return StageEvaluate, nil
	default:
		return StageHalt, fmt.Errorf("undefined transition from stage %q", from)
	}
}

func routeAfterClarify(s *State) Stage {
	req := s.Requirements
	if req == nil {
		return StageGenerate
	}

	// Answers first: an answered clarification must never be re-asked
	if len(req.UserAnswers) > 0 {
		log.Printf(`{"level":"info","message":"Clarification answered, proceeding to generate"}`)
		return StageGenerate
	}

	if len(req.Questions) > 0 {
		log.Printf(`{"level":"info","message":"Open questions, waiting for user input","questions":%d}`, len(req.Questions))
		return StageHalt
	}

	return StageGenerate
}
