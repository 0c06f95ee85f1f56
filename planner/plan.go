// Package planner picks the DynamoDB access path for a validated
// ast.Statement against its resolved schema.TableSchema (spec.md §4.4):
// point lookup, query on the base table, query on a secondary index, or
// scan — in that preference order — plus the two-phase expansion
// UPDATE/DELETE need when their WHERE clause cannot resolve to a single
// key.
package planner

import (
	"github.com/dqlang/dql/ast"
	"github.com/dqlang/dql/expr"
)

// Strategy names the physical operation(s) an ExecutionPlan executes.
type Strategy int

const (
	StrategyGetItem Strategy = iota
	StrategyBatchGetItem
	StrategyQuery
	StrategyScan
	StrategyPutItem
	StrategyBatchWritePut
	StrategyUpdateItemDirect
	StrategyTwoPhaseUpdate
	StrategyDeleteItemDirect
	StrategyTwoPhaseDelete
	StrategyCreateTable
	StrategyUpdateTable
	StrategyDeleteTable
)

func (s Strategy) String() string {
	switch s {
	case StrategyGetItem:
		return "GetItem"
	case StrategyBatchGetItem:
		return "BatchGetItem"
	case StrategyQuery:
		return "Query"
	case StrategyScan:
		return "Scan"
	case StrategyPutItem:
		return "PutItem"
	case StrategyBatchWritePut:
		return "BatchWriteItem(Put)"
	case StrategyUpdateItemDirect:
		return "UpdateItem"
	case StrategyTwoPhaseUpdate:
		return "Query/Scan + UpdateItem*"
	case StrategyDeleteItemDirect:
		return "DeleteItem"
	case StrategyTwoPhaseDelete:
		return "Query/Scan + BatchWriteItem(Delete)"
	case StrategyCreateTable:
		return "CreateTable"
	case StrategyUpdateTable:
		return "UpdateTable"
	case StrategyDeleteTable:
		return "DeleteTable"
	default:
		return "Unknown"
	}
}

// ExecutionPlan is the planner's full output for one statement: the
// physical Strategy plus every compiled expression and literal value the
// executor needs to issue the corresponding DynamoDB request(s).
type ExecutionPlan struct {
	KeyCondition   *expr.Compiled
	Filter         *expr.Compiled
	Condition      *expr.Compiled
	Update         *expr.Compiled
	ProjectionExpr *expr.Compiled // ProjectionExpression, sharing Filter/KeyCondition's name tokens
	DDL            ast.Statement  // CreateTable/AlterTable/DropTable, carried through verbatim
	Table          string
	IndexName      string
	Description    string
	Projection     []string
	PointKeys      []map[string]ast.Literal
	PutItems       []map[string]ast.Literal
	Limit          *int
	Segments       int
	Strategy       Strategy
	ReturnValues   ast.ReturnValues
	ConsistentRead bool
	ScanForward    bool
	CountOnly      bool
}
