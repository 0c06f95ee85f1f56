// Package dql wires the lexer, parser, semantic analyzer, planner, and
// executor into one statement-compiler-and-runner, the way the teacher's
// storage.go wires an encoder/decoder/builder around a DynamoDB client.
package dql

import (
	"context"

	"go.uber.org/zap"

	"github.com/dqlang/dql/ast"
	"github.com/dqlang/dql/dynamoadapter"
	"github.com/dqlang/dql/exec"
	"github.com/dqlang/dql/parser"
	"github.com/dqlang/dql/planner"
	"github.com/dqlang/dql/rows"
	"github.com/dqlang/dql/schema"
	"github.com/dqlang/dql/semantic"
)

// Engine compiles and runs DQL source text against one DynamoDB account. One
// Engine is shared across an interactive session or a batch LOAD run.
type Engine struct {
	schemas  schema.Provider
	analyzer *semantic.Analyzer
	executor *exec.Executor
	decoder  rows.Decoder
	log      *zap.Logger
}

// New builds an Engine around an already-configured DynamoDB client. Pass a
// *dynamodb.Client, or anything else satisfying exec.DynamoClient — see
// dynamoadapter.New for the common case of loading the default AWS config.
func New(client exec.DynamoClient, opts ...Option) *Engine {
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(cfg)
	}

	loader := dynamoadapter.NewLoader(client)
	provider := schema.NewCachingProvider(loader, cfg.SchemaTTL, cfg.Logger)

	return &Engine{
		schemas:  provider,
		analyzer: semantic.New(provider),
		executor: exec.New(client, exec.WithLogger(cfg.Logger), exec.WithRetryPolicy(cfg.RetryPolicy)),
		decoder:  cfg.Decoder,
		log:      cfg.Logger,
	}
}

// Outcome is Run's result: the resolved plan (present for every planned
// statement, even for a failed execution, since planning is what EXPLAIN
// reports; nil for DUMP SCHEMA and HELP, which are not planned), the raw
// execution Result (nil for EXPLAIN, which never executes), and the
// execution Result's items decoded into generic rows for display.
type Outcome struct {
	Plan    *planner.ExecutionPlan
	Result  *exec.Result
	Rows    []map[string]any
	Text    string // DUMP SCHEMA / HELP's rendered output; empty otherwise
	Explain bool
}

// Run compiles source through every pipeline stage and, unless it is an
// EXPLAIN statement, executes the resulting plan. Ctx cancellation is
// observed between pages/batch chunks inside the executor.
func (e *Engine) Run(ctx context.Context, source string) (*Outcome, error) {
	stmt, err := parser.Parse(source)
	if err != nil {
		return nil, parseStageErr(err)
	}

	switch s := stmt.(type) {
	case *ast.Dump:
		return e.runDump(ctx, s)
	case *ast.Help:
		return &Outcome{Text: helpText}, nil
	case *ast.Load:
		return e.runLoad(ctx, s)
	}

	explainOnly := false
	if _, ok := stmt.(*ast.Explain); ok {
		explainOnly = true
	}

	ts, err := e.analyzer.Analyze(ctx, stmt)
	if err != nil {
		return nil, stageErr(StageSemantic, err)
	}

	plan, err := planner.Plan(stmt, ts)
	if err != nil {
		return nil, stageErr(StagePlan, err)
	}

	out := &Outcome{Plan: plan, Explain: explainOnly}
	if explainOnly {
		return out, nil
	}

	result, err := e.executor.Execute(ctx, plan)
	out.Result = result
	if err != nil {
		stage := StageExecute
		if ctx.Err() != nil {
			stage = StageCancelled
			err = ctx.Err()
		}
		dqlErr := &Error{Stage: stage, Cause: err}
		if result != nil && result.Matched > 0 {
			dqlErr.Applied = result.Count
			dqlErr.Remaining = result.Matched - result.Count
		}
		return out, dqlErr
	}

	switch plan.Strategy {
	case planner.StrategyCreateTable, planner.StrategyUpdateTable, planner.StrategyDeleteTable:
		e.schemas.Invalidate(plan.Table)
	}

	if len(result.Items) > 0 {
		decoded, err := rows.Rows(e.decoder, result.Items)
		if err != nil {
			return out, stageErr(StageExecute, err)
		}
		out.Rows = decoded
	}

	return out, nil
}

// InvalidateSchema drops any cached DescribeTable result for table, forcing
// the next statement against it to re-describe. Run already does this for
// CREATE/ALTER/DROP TABLE statements it executes itself; this is for a table
// modified by something other than this Engine.
func (e *Engine) InvalidateSchema(table string) {
	e.schemas.Invalidate(table)
}
