package exec

import "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

// Result is the executor's output for one statement: the raw items DynamoDB
// returned (or would have returned, for a Put/Update/Delete echoing
// ReturnValues), plus the counters ANALYZE reports.
type Result struct {
	Items        []map[string]types.AttributeValue
	Attributes   map[string]types.AttributeValue // ReturnValues payload for mutations
	Count        int
	ScannedCount int
	Pages        int
	Retries      int
	Matched      int // two-phase UPDATE/DELETE: keys phase 1 resolved, for reporting applied/remaining on a partial failure
}

func (r *Result) merge(page *Result) {
	r.Items = append(r.Items, page.Items...)
	r.Count += page.Count
	r.ScannedCount += page.ScannedCount
	r.Pages++
}
