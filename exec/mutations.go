package exec

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dqlang/dql/ast"
	"github.com/dqlang/dql/planner"
)

func (e *Executor) execUpdateItem(ctx context.Context, plan *planner.ExecutionPlan, key map[string]ast.Literal) (*Result, error) {
	keyAV, err := itemToAttributeValues(key)
	if err != nil {
		return nil, err
	}
	input := &dynamodb.UpdateItemInput{
		TableName:        &plan.Table,
		Key:              keyAV,
		UpdateExpression: &plan.Update.Text,
		ReturnValues:     returnValuesOf(plan.ReturnValues),
	}
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	mergeNames(names, plan.Update.Names)
	if err := mergeValues(values, plan.Update.Values); err != nil {
		return nil, err
	}
	input.ExpressionAttributeNames = expressionNamesOrNil(names)
	if len(values) > 0 {
		input.ExpressionAttributeValues = values
	}

	result := &Result{}
	var out *dynamodb.UpdateItemOutput
	err = e.withRetry(ctx, "UpdateItem", result, func() error {
		var callErr error
		out, callErr = e.client.UpdateItem(ctx, input)
		return callErr
	})
	if err != nil {
		return result, err
	}
	result.Count = 1
	result.Attributes = out.Attributes
	return result, nil
}

func (e *Executor) execDeleteItem(ctx context.Context, plan *planner.ExecutionPlan, key map[string]ast.Literal) (*Result, error) {
	keyAV, err := itemToAttributeValues(key)
	if err != nil {
		return nil, err
	}
	input := &dynamodb.DeleteItemInput{
		TableName:    &plan.Table,
		Key:          keyAV,
		ReturnValues: returnValuesOf(plan.ReturnValues),
	}

	result := &Result{}
	var out *dynamodb.DeleteItemOutput
	err = e.withRetry(ctx, "DeleteItem", result, func() error {
		var callErr error
		out, callErr = e.client.DeleteItem(ctx, input)
		return callErr
	})
	if err != nil {
		return result, err
	}
	result.Count = 1
	result.Attributes = out.Attributes
	return result, nil
}

// execTwoPhaseUpdate runs the plan's phase-1 Query/Scan (projecting just
// the primary key) and issues one UpdateItem per key found. UpdateItem has
// no batch form, unlike Delete, so these run sequentially.
func (e *Executor) execTwoPhaseUpdate(ctx context.Context, plan *planner.ExecutionPlan) (*Result, error) {
	keys, phase1, err := e.phase1Keys(ctx, plan)
	if err != nil {
		return phase1, err
	}

	result := &Result{Pages: phase1.Pages, Retries: phase1.Retries, Matched: len(keys)}
	for _, key := range keys {
		keyAV, err := itemToAttributeValues(key)
		if err != nil {
			return result, err
		}
		input := &dynamodb.UpdateItemInput{
			TableName:        &plan.Table,
			Key:              keyAV,
			UpdateExpression: &plan.Update.Text,
		}
		names := map[string]string{}
		values := map[string]types.AttributeValue{}
		mergeNames(names, plan.Update.Names)
		if err := mergeValues(values, plan.Update.Values); err != nil {
			return result, err
		}
		input.ExpressionAttributeNames = expressionNamesOrNil(names)
		if len(values) > 0 {
			input.ExpressionAttributeValues = values
		}

		err = e.withRetry(ctx, "UpdateItem", result, func() error {
			_, callErr := e.client.UpdateItem(ctx, input)
			return callErr
		})
		if err != nil {
			return result, err
		}
		result.Count++
	}
	return result, nil
}

// execTwoPhaseDelete runs the plan's phase-1 Query/Scan then batches the
// deletes 25 at a time via BatchWriteItem, per spec.md §8 seed scenario 5.
func (e *Executor) execTwoPhaseDelete(ctx context.Context, plan *planner.ExecutionPlan) (*Result, error) {
	keys, phase1, err := e.phase1Keys(ctx, plan)
	if err != nil {
		return phase1, err
	}
	phase2, err := e.runBatchWriteDelete(ctx, plan.Table, keys)
	phase2.Matched = len(keys)
	if err != nil {
		return phase2, err
	}
	phase2.Pages += phase1.Pages
	phase2.Retries += phase1.Retries
	return phase2, nil
}

// phase1Keys runs a two-phase mutation's read half: Query if the plan
// resolved a key condition, otherwise a full Scan with the residual
// filter. Either way the projection is restricted to the primary key
// (planUpdate/planDelete already set plan.ProjectionExpr accordingly).
func (e *Executor) phase1Keys(ctx context.Context, plan *planner.ExecutionPlan) ([]map[string]ast.Literal, *Result, error) {
	var result *Result
	var err error
	if plan.KeyCondition != nil {
		input, buildErr := e.buildQueryInput(plan)
		if buildErr != nil {
			return nil, &Result{}, buildErr
		}
		result, err = e.runQuery(ctx, input, nil)
	} else {
		input := &dynamodb.ScanInput{TableName: &plan.Table}
		names := map[string]string{}
		values := map[string]types.AttributeValue{}
		if plan.Filter != nil {
			input.FilterExpression = &plan.Filter.Text
			mergeNames(names, plan.Filter.Names)
			if mergeErr := mergeValues(values, plan.Filter.Values); mergeErr != nil {
				return nil, &Result{}, mergeErr
			}
		}
		if plan.ProjectionExpr != nil {
			input.ProjectionExpression = &plan.ProjectionExpr.Text
			mergeNames(names, plan.ProjectionExpr.Names)
		}
		input.ExpressionAttributeNames = expressionNamesOrNil(names)
		if len(values) > 0 {
			input.ExpressionAttributeValues = values
		}
		result, err = e.runScan(ctx, input, nil)
	}
	if err != nil {
		return nil, result, err
	}

	keys := make([]map[string]ast.Literal, 0, len(result.Items))
	for _, item := range result.Items {
		key, convErr := attributeValuesToLiterals(item, plan.Projection)
		if convErr != nil {
			return nil, result, convErr
		}
		keys = append(keys, key)
	}
	return keys, result, nil
}

func returnValuesOf(rv ast.ReturnValues) types.ReturnValue {
	switch rv {
	case ast.ReturnsAllNew:
		return types.ReturnValueAllNew
	case ast.ReturnsAllOld:
		return types.ReturnValueAllOld
	case ast.ReturnsUpdatedNew:
		return types.ReturnValueUpdatedNew
	case ast.ReturnsUpdatedOld:
		return types.ReturnValueUpdatedOld
	default:
		return types.ReturnValueNone
	}
}
