package exec

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dqlang/dql/planner"
)

// Executor issues the DynamoDB request(s) an ExecutionPlan describes. It
// holds no per-statement state, so one Executor is shared across an
// engine's lifetime (teacher's Storage plays the analogous role).
type Executor struct {
	client   DynamoClient
	log      *zap.Logger
	policy   RetryPolicy
	maxScans int
}

// Option configures an Executor, following the teacher's functional-options
// style (options.go's Option/WithEncoder/WithDecoder).
type Option func(*Executor)

// WithLogger overrides the default no-op zap.Logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Executor) {
		if log != nil {
			e.log = log
		}
	}
}

// WithRetryPolicy overrides DefaultRetryPolicy().
func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *Executor) { e.policy = p }
}

// New builds an Executor around client.
func New(client DynamoClient, opts ...Option) *Executor {
	e := &Executor{client: client, policy: DefaultRetryPolicy()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) logger() *zap.Logger {
	if e.log == nil {
		return zap.NewNop()
	}
	return e.log
}

// Execute runs plan to completion, pulling every page/batch chunk it needs.
// The statement correlation ID attached to log lines follows the teacher's
// request-scoped logging convention, generalized with google/uuid since DQL
// has no per-entity identifier to log instead.
func (e *Executor) Execute(ctx context.Context, plan *planner.ExecutionPlan) (*Result, error) {
	statementID := uuid.NewString()
	log := e.logger().With(zap.String("statement_id", statementID), zap.String("strategy", plan.Strategy.String()))
	log.Debug("executing plan", zap.String("description", plan.Description))

	switch plan.Strategy {
	case planner.StrategyGetItem:
		return e.execGetItem(ctx, plan)
	case planner.StrategyBatchGetItem:
		return e.runBatchGetItem(ctx, plan.Table, plan.PointKeys, plan.ProjectionExpr)
	case planner.StrategyQuery:
		return e.execQuery(ctx, plan)
	case planner.StrategyScan:
		return e.execScan(ctx, plan)
	case planner.StrategyPutItem:
		return e.execPutItem(ctx, plan)
	case planner.StrategyBatchWritePut:
		return e.runBatchWritePut(ctx, plan.Table, plan.PutItems)
	case planner.StrategyUpdateItemDirect:
		return e.execUpdateItem(ctx, plan, plan.PointKeys[0])
	case planner.StrategyTwoPhaseUpdate:
		return e.execTwoPhaseUpdate(ctx, plan)
	case planner.StrategyDeleteItemDirect:
		return e.execDeleteItem(ctx, plan, plan.PointKeys[0])
	case planner.StrategyTwoPhaseDelete:
		return e.execTwoPhaseDelete(ctx, plan)
	case planner.StrategyCreateTable:
		return e.execCreateTable(ctx, plan)
	case planner.StrategyUpdateTable:
		return e.execUpdateTable(ctx, plan)
	case planner.StrategyDeleteTable:
		return e.execDeleteTable(ctx, plan)
	default:
		return nil, errors.Errorf("exec: unhandled strategy %v", plan.Strategy)
	}
}

func (e *Executor) execGetItem(ctx context.Context, plan *planner.ExecutionPlan) (*Result, error) {
	key, err := itemToAttributeValues(plan.PointKeys[0])
	if err != nil {
		return nil, err
	}
	input := &dynamodb.GetItemInput{
		TableName:      &plan.Table,
		Key:            key,
		ConsistentRead: &plan.ConsistentRead,
	}
	if plan.ProjectionExpr != nil {
		input.ProjectionExpression = &plan.ProjectionExpr.Text
		input.ExpressionAttributeNames = expressionNamesOrNil(plan.ProjectionExpr.Names)
	}

	result := &Result{}
	var out *dynamodb.GetItemOutput
	err = e.withRetry(ctx, "GetItem", result, func() error {
		var callErr error
		out, callErr = e.client.GetItem(ctx, input)
		return callErr
	})
	if err != nil {
		return result, err
	}
	if out.Item != nil {
		result.Items = []map[string]types.AttributeValue{out.Item}
		result.Count = 1
	}
	return result, nil
}

func (e *Executor) execQuery(ctx context.Context, plan *planner.ExecutionPlan) (*Result, error) {
	input, err := e.buildQueryInput(plan)
	if err != nil {
		return nil, err
	}
	return e.runQuery(ctx, input, plan.Limit)
}

func (e *Executor) buildQueryInput(plan *planner.ExecutionPlan) (*dynamodb.QueryInput, error) {
	input := &dynamodb.QueryInput{
		TableName:        &plan.Table,
		ConsistentRead:   &plan.ConsistentRead,
		ScanIndexForward: &plan.ScanForward,
	}
	if plan.IndexName != "" {
		input.IndexName = &plan.IndexName
	}
	names := map[string]string{}
	values := map[string]types.AttributeValue{}

	if plan.KeyCondition != nil {
		input.KeyConditionExpression = &plan.KeyCondition.Text
		mergeNames(names, plan.KeyCondition.Names)
		if err := mergeValues(values, plan.KeyCondition.Values); err != nil {
			return nil, err
		}
	}
	if plan.Filter != nil {
		input.FilterExpression = &plan.Filter.Text
		mergeNames(names, plan.Filter.Names)
		if err := mergeValues(values, plan.Filter.Values); err != nil {
			return nil, err
		}
	}
	if plan.ProjectionExpr != nil {
		input.ProjectionExpression = &plan.ProjectionExpr.Text
		mergeNames(names, plan.ProjectionExpr.Names)
	}
	if plan.CountOnly {
		input.Select = types.SelectCount
	}
	if plan.Limit != nil {
		limit := int32(*plan.Limit)
		input.Limit = &limit
	}
	input.ExpressionAttributeNames = expressionNamesOrNil(names)
	if len(values) > 0 {
		input.ExpressionAttributeValues = values
	}
	return input, nil
}

func (e *Executor) execScan(ctx context.Context, plan *planner.ExecutionPlan) (*Result, error) {
	input := &dynamodb.ScanInput{TableName: &plan.Table, ConsistentRead: &plan.ConsistentRead}
	if plan.IndexName != "" {
		input.IndexName = &plan.IndexName
	}
	names := map[string]string{}
	values := map[string]types.AttributeValue{}

	if plan.Filter != nil {
		input.FilterExpression = &plan.Filter.Text
		mergeNames(names, plan.Filter.Names)
		if err := mergeValues(values, plan.Filter.Values); err != nil {
			return nil, err
		}
	}
	if plan.ProjectionExpr != nil {
		input.ProjectionExpression = &plan.ProjectionExpr.Text
		mergeNames(names, plan.ProjectionExpr.Names)
	}
	if plan.CountOnly {
		input.Select = types.SelectCount
	}
	if plan.Limit != nil {
		limit := int32(*plan.Limit)
		input.Limit = &limit
	}
	input.ExpressionAttributeNames = expressionNamesOrNil(names)
	if len(values) > 0 {
		input.ExpressionAttributeValues = values
	}

	segments := plan.Segments
	if segments < 1 {
		segments = 1
	}
	return e.runParallelScan(ctx, input, segments, plan.Limit)
}

func (e *Executor) execPutItem(ctx context.Context, plan *planner.ExecutionPlan) (*Result, error) {
	item, err := itemToAttributeValues(plan.PutItems[0])
	if err != nil {
		return nil, err
	}
	input := &dynamodb.PutItemInput{TableName: &plan.Table, Item: item}
	if plan.Condition != nil {
		input.ConditionExpression = &plan.Condition.Text
		input.ExpressionAttributeNames = expressionNamesOrNil(plan.Condition.Names)
		vals, err := expressionValues(plan.Condition.Values)
		if err != nil {
			return nil, err
		}
		input.ExpressionAttributeValues = vals
	}

	result := &Result{}
	err = e.withRetry(ctx, "PutItem", result, func() error {
		_, callErr := e.client.PutItem(ctx, input)
		return callErr
	})
	if err != nil {
		return result, err
	}
	result.Count = 1
	return result, nil
}
