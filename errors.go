package dql

import (
	"errors"

	"github.com/dqlang/dql/lexer"
)

// Stage names where in the pipeline a Run call failed, so a REPL or batch
// runner can report a statement's problem without inspecting error types.
type Stage int

const (
	StageLex Stage = iota
	StageParse
	StageSemantic
	StagePlan
	StageExecute
	StageCancelled
)

func (s Stage) String() string {
	switch s {
	case StageLex:
		return "lex"
	case StageParse:
		return "parse"
	case StageSemantic:
		return "semantic"
	case StagePlan:
		return "plan"
	case StageExecute:
		return "execute"
	case StageCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error wraps a pipeline failure with the Stage it occurred at, so callers
// can render "parse error: ..." vs "execution error: ..." without a type
// switch over every subpackage's error type.
type Error struct {
	Cause error
	Stage Stage

	// Applied and Remaining report a two-phase UPDATE/DELETE that failed
	// partway through: Applied keys were already mutated before Cause,
	// Remaining were matched by phase 1 but never reached. Both are zero
	// for every other statement kind.
	Applied   int
	Remaining int
}

func (e *Error) Error() string {
	return e.Stage.String() + " error: " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// stageErr wraps a non-nil err from the named Stage.
func stageErr(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Stage: stage, Cause: err}
}

// parseStageErr wraps a parser.Parse failure, distinguishing a *lexer.Error
// (tokenizer gave up) from everything else (a grammar-level *parser.Error)
// even though Parse returns both through the same error return.
func parseStageErr(err error) error {
	if err == nil {
		return nil
	}
	var lexErr *lexer.Error
	if errors.As(err, &lexErr) {
		return &Error{Stage: StageLex, Cause: err}
	}
	return &Error{Stage: StageParse, Cause: err}
}
