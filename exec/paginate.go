package exec

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// runQuery pages through a Query operation, grounded on the pay-theory
// dynamorm ExecuteQuery loop: advance ExclusiveStartKey from
// LastEvaluatedKey until it is nil or limit items have been collected.
func (e *Executor) runQuery(ctx context.Context, input *dynamodb.QueryInput, limit *int) (*Result, error) {
	result := &Result{}
	if limit != nil && *limit == 0 {
		return result, nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		var out *dynamodb.QueryOutput
		err := e.withRetry(ctx, "Query", result, func() error {
			var callErr error
			out, callErr = e.client.Query(ctx, input)
			return callErr
		})
		if err != nil {
			return result, err
		}

		result.merge(&Result{Items: out.Items, Count: int(out.Count), ScannedCount: int(out.ScannedCount)})

		if limit != nil && result.Count >= *limit {
			trimToLimit(result, *limit)
			return result, nil
		}
		if len(out.LastEvaluatedKey) == 0 {
			return result, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// runScan is runQuery's Scan counterpart; parallel Scan (Segment/
// TotalSegments) is driven by the caller spawning one runScan per segment.
func (e *Executor) runScan(ctx context.Context, input *dynamodb.ScanInput, limit *int) (*Result, error) {
	result := &Result{}
	if limit != nil && *limit == 0 {
		return result, nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		var out *dynamodb.ScanOutput
		err := e.withRetry(ctx, "Scan", result, func() error {
			var callErr error
			out, callErr = e.client.Scan(ctx, input)
			return callErr
		})
		if err != nil {
			return result, err
		}

		result.merge(&Result{Items: out.Items, Count: int(out.Count), ScannedCount: int(out.ScannedCount)})

		if limit != nil && result.Count >= *limit {
			trimToLimit(result, *limit)
			return result, nil
		}
		if len(out.LastEvaluatedKey) == 0 {
			return result, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func trimToLimit(result *Result, limit int) {
	if len(result.Items) <= limit {
		return
	}
	result.Items = result.Items[:limit]
	result.Count = limit
}

// runParallelScan fans one runScan per segment, per spec.md's Scan §4.2
// Segment/TotalSegments threading, and merges their results in segment
// order for deterministic output.
func (e *Executor) runParallelScan(ctx context.Context, base *dynamodb.ScanInput, segments int, limit *int) (*Result, error) {
	if limit != nil && *limit == 0 {
		return &Result{}, nil
	}
	if segments <= 1 {
		return e.runScan(ctx, base, limit)
	}

	type segResult struct {
		result *Result
		err    error
	}
	results := make([]segResult, segments)
	done := make(chan int, segments)

	for s := 0; s < segments; s++ {
		go func(segment int) {
			input := *base
			seg := int32(segment)
			total := int32(segments)
			input.Segment = &seg
			input.TotalSegments = &total
			r, err := e.runScan(ctx, &input, nil)
			results[segment] = segResult{result: r, err: err}
			done <- segment
		}(s)
	}

	merged := &Result{}
	for i := 0; i < segments; i++ {
		<-done
	}
	for _, r := range results {
		if r.err != nil {
			return merged, r.err
		}
		merged.Items = append(merged.Items, r.result.Items...)
		merged.Count += r.result.Count
		merged.ScannedCount += r.result.ScannedCount
		merged.Pages += r.result.Pages
		merged.Retries += r.result.Retries
	}
	if limit != nil {
		trimToLimit(merged, *limit)
	}
	return merged, nil
}
