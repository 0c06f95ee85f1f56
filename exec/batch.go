package exec

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dqlang/dql/ast"
	"github.com/dqlang/dql/expr"
)

const (
	batchGetChunkSize   = 100
	batchWriteChunkSize = 25
)

// runBatchGetItem chunks keys into groups of 100 and retries unprocessed
// keys, per the teacher's BatchSave/BatchRemove chunking and the
// pay-theory ExecuteBatchGet unprocessed-keys retry loop.
func (e *Executor) runBatchGetItem(ctx context.Context, table string, keys []map[string]ast.Literal, projection *expr.Compiled) (*Result, error) {
	result := &Result{}

	for start := 0; start < len(keys); start += batchGetChunkSize {
		end := start + batchGetChunkSize
		if end > len(keys) {
			end = len(keys)
		}
		chunkKeys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, k := range keys[start:end] {
			av, err := itemToAttributeValues(k)
			if err != nil {
				return result, err
			}
			chunkKeys = append(chunkKeys, av)
		}

		kae := types.KeysAndAttributes{Keys: chunkKeys}
		if projection != nil {
			kae.ProjectionExpression = &projection.Text
			kae.ExpressionAttributeNames = expressionNamesOrNil(projection.Names)
		}
		requestItems := map[string]types.KeysAndAttributes{table: kae}

		for {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			var out *dynamodb.BatchGetItemOutput
			err := e.withRetry(ctx, "BatchGetItem", result, func() error {
				var callErr error
				out, callErr = e.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: requestItems})
				return callErr
			})
			if err != nil {
				return result, err
			}
			if items, ok := out.Responses[table]; ok {
				result.Items = append(result.Items, items...)
				result.Count += len(items)
			}
			result.Pages++
			if len(out.UnprocessedKeys) == 0 {
				break
			}
			requestItems = out.UnprocessedKeys
		}
	}

	return result, nil
}

// runBatchWritePut and runBatchWriteDelete both chunk at 25 items and
// retry UnprocessedItems, mirroring the teacher's BatchSave/BatchRemove.
func (e *Executor) runBatchWritePut(ctx context.Context, table string, items []map[string]ast.Literal) (*Result, error) {
	writes := make([]types.WriteRequest, 0, len(items))
	for _, item := range items {
		av, err := itemToAttributeValues(item)
		if err != nil {
			return &Result{}, err
		}
		writes = append(writes, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	}
	return e.runBatchWrite(ctx, table, writes)
}

func (e *Executor) runBatchWriteDelete(ctx context.Context, table string, keys []map[string]ast.Literal) (*Result, error) {
	writes := make([]types.WriteRequest, 0, len(keys))
	for _, key := range keys {
		av, err := itemToAttributeValues(key)
		if err != nil {
			return &Result{}, err
		}
		writes = append(writes, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: av}})
	}
	return e.runBatchWrite(ctx, table, writes)
}

func (e *Executor) runBatchWrite(ctx context.Context, table string, writes []types.WriteRequest) (*Result, error) {
	result := &Result{}

	for start := 0; start < len(writes); start += batchWriteChunkSize {
		end := start + batchWriteChunkSize
		if end > len(writes) {
			end = len(writes)
		}
		requestItems := map[string][]types.WriteRequest{table: writes[start:end]}

		for {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			var out *dynamodb.BatchWriteItemOutput
			err := e.withRetry(ctx, "BatchWriteItem", result, func() error {
				var callErr error
				out, callErr = e.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: requestItems})
				return callErr
			})
			if err != nil {
				return result, err
			}
			result.Count += len(requestItems[table]) - len(out.UnprocessedItems[table])
			result.Pages++
			if len(out.UnprocessedItems) == 0 {
				break
			}
			requestItems = out.UnprocessedItems
		}
	}

	return result, nil
}
