package exec_test

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dqlang/dql/ast"
	"github.com/dqlang/dql/exec"
	"github.com/dqlang/dql/expr"
	"github.com/dqlang/dql/mocks"
	"github.com/dqlang/dql/planner"
)

func fastPolicy() exec.RetryPolicy {
	return exec.RetryPolicy{
		InitialInterval:       time.Millisecond,
		MaxInterval:           5 * time.Millisecond,
		MaxElapsedTime:        time.Second,
		MaxRetries:            5,
		ServerErrorMaxRetries: 5,
	}
}

func TestExecuteGetItemPointLookup(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	client.EXPECT().GetItem(gomock.Any(), gomock.Any()).Return(&dynamodb.GetItemOutput{
		Item: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: "a"},
			"ts": &types.AttributeValueMemberN{Value: "1"},
		},
	}, nil)

	ex := exec.New(client, exec.WithRetryPolicy(fastPolicy()))
	plan := &planner.ExecutionPlan{
		Strategy: planner.StrategyGetItem,
		Table:    "Orders",
		PointKeys: []map[string]ast.Literal{{
			"id": ast.String("a"), "ts": ast.Number("1"),
		}},
	}

	result, err := ex.Execute(context.Background(), plan)
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	require.Len(t, result.Items, 1)
}

func TestExecuteQueryPaginatesAcrossPages(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	firstKey := map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: "a"}}
	gomock.InOrder(
		client.EXPECT().Query(gomock.Any(), gomock.Any()).Return(&dynamodb.QueryOutput{
			Items:            []map[string]types.AttributeValue{{"id": &types.AttributeValueMemberS{Value: "a"}}},
			Count:            1,
			LastEvaluatedKey: firstKey,
		}, nil),
		client.EXPECT().Query(gomock.Any(), gomock.Any()).Return(&dynamodb.QueryOutput{
			Items: []map[string]types.AttributeValue{{"id": &types.AttributeValueMemberS{Value: "b"}}},
			Count: 1,
		}, nil),
	)

	ex := exec.New(client, exec.WithRetryPolicy(fastPolicy()))
	plan := &planner.ExecutionPlan{
		Strategy: planner.StrategyQuery,
		Table:    "Orders",
	}

	result, err := ex.Execute(context.Background(), plan)
	require.NoError(t, err)
	require.Equal(t, 2, result.Count)
	require.Equal(t, 2, result.Pages)
	require.Len(t, result.Items, 2)
}

func TestExecuteScanRunsAllSegmentsInParallel(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	client.EXPECT().Scan(gomock.Any(), gomock.Any()).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{{"id": &types.AttributeValueMemberS{Value: "a"}}},
		Count: 1,
	}, nil).Times(2)

	ex := exec.New(client, exec.WithRetryPolicy(fastPolicy()))
	plan := &planner.ExecutionPlan{
		Strategy: planner.StrategyScan,
		Table:    "Orders",
		Segments: 2,
	}

	result, err := ex.Execute(context.Background(), plan)
	require.NoError(t, err)
	require.Equal(t, 2, result.Count)
	require.Len(t, result.Items, 2)
}

func TestExecuteCountOnlySelectsCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	client.EXPECT().Query(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			require.Equal(t, types.SelectCount, in.Select)
			return &dynamodb.QueryOutput{Count: 7, ScannedCount: 9}, nil
		})

	ex := exec.New(client, exec.WithRetryPolicy(fastPolicy()))
	plan := &planner.ExecutionPlan{Strategy: planner.StrategyQuery, Table: "Orders", CountOnly: true}

	result, err := ex.Execute(context.Background(), plan)
	require.NoError(t, err)
	require.Equal(t, 7, result.Count)
	require.Equal(t, 9, result.ScannedCount)
}

func TestExecuteLimitZeroReturnsNoItemsWithoutCallingClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)
	// No .EXPECT() calls set up: any client call fails the test via ctrl.

	ex := exec.New(client, exec.WithRetryPolicy(fastPolicy()))
	zero := 0
	plan := &planner.ExecutionPlan{Strategy: planner.StrategyQuery, Table: "Orders", Limit: &zero}

	result, err := ex.Execute(context.Background(), plan)
	require.NoError(t, err)
	require.Equal(t, 0, result.Count)
	require.Empty(t, result.Items)
}

func TestExecuteScanLimitZeroReturnsNoItemsWithoutCallingClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)
	// No .EXPECT() calls set up: any client call fails the test via ctrl.

	ex := exec.New(client, exec.WithRetryPolicy(fastPolicy()))
	zero := 0
	plan := &planner.ExecutionPlan{Strategy: planner.StrategyScan, Table: "Orders", Segments: 4, Limit: &zero}

	result, err := ex.Execute(context.Background(), plan)
	require.NoError(t, err)
	require.Equal(t, 0, result.Count)
	require.Empty(t, result.Items)
}

func TestExecuteRetriesThrottledErrorThenSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	throttled := &types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}
	gomock.InOrder(
		client.EXPECT().PutItem(gomock.Any(), gomock.Any()).Return(nil, throttled),
		client.EXPECT().PutItem(gomock.Any(), gomock.Any()).Return(&dynamodb.PutItemOutput{}, nil),
	)

	ex := exec.New(client, exec.WithRetryPolicy(fastPolicy()))
	plan := &planner.ExecutionPlan{
		Strategy: planner.StrategyPutItem,
		Table:    "Orders",
		PutItems: []map[string]ast.Literal{{"id": ast.String("a"), "ts": ast.Number("1")}},
	}

	result, err := ex.Execute(context.Background(), plan)
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	require.Equal(t, 1, result.Retries)
}

func TestExecuteServerErrorExhaustsItsOwnSmallerRetryBudget(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	internal := &types.InternalServerError{Message: aws.String("overloaded")}
	// ServerErrorMaxRetries=2 means 3 total attempts (1 initial + 2 retries),
	// distinct from the throttled schedule's higher MaxRetries budget.
	client.EXPECT().PutItem(gomock.Any(), gomock.Any()).Return(nil, internal).Times(3)

	ex := exec.New(client, exec.WithRetryPolicy(exec.RetryPolicy{
		InitialInterval:       time.Millisecond,
		MaxInterval:           5 * time.Millisecond,
		MaxElapsedTime:        time.Second,
		MaxRetries:            10,
		ServerErrorMaxRetries: 2,
	}))
	plan := &planner.ExecutionPlan{
		Strategy: planner.StrategyPutItem,
		Table:    "Orders",
		PutItems: []map[string]ast.Literal{{"id": ast.String("a"), "ts": ast.Number("1")}},
	}

	result, err := ex.Execute(context.Background(), plan)
	require.Error(t, err)
	require.Equal(t, 2, result.Retries)
}

func TestExecuteFailsFastOnValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	client.EXPECT().PutItem(gomock.Any(), gomock.Any()).Return(nil, &types.ValidationException{Message: aws.String("bad request")})

	ex := exec.New(client, exec.WithRetryPolicy(fastPolicy()))
	plan := &planner.ExecutionPlan{
		Strategy: planner.StrategyPutItem,
		Table:    "Orders",
		PutItems: []map[string]ast.Literal{{"id": ast.String("a"), "ts": ast.Number("1")}},
	}

	_, err := ex.Execute(context.Background(), plan)
	require.Error(t, err)
}

func TestExecuteBatchGetItemChunksAndRetriesUnprocessed(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	// Random key values, following the teacher's gofakeit-driven fixture
	// generation (integration/randomize_test.go) rather than a fixed literal
	// repeated 150 times.
	keys := make([]map[string]ast.Literal, 150)
	for i := range keys {
		keys[i] = map[string]ast.Literal{"id": ast.String(gofakeit.UUID()), "ts": ast.Number("1")}
	}

	unprocessed := map[string]types.KeysAndAttributes{
		"Orders": {Keys: []map[string]types.AttributeValue{
			{"id": &types.AttributeValueMemberS{Value: "k"}, "ts": &types.AttributeValueMemberN{Value: "1"}},
		}},
	}
	gomock.InOrder(
		client.EXPECT().BatchGetItem(gomock.Any(), gomock.Any()).Return(&dynamodb.BatchGetItemOutput{
			Responses:       map[string][]map[string]types.AttributeValue{"Orders": make([]map[string]types.AttributeValue, 99)},
			UnprocessedKeys: unprocessed,
		}, nil),
		client.EXPECT().BatchGetItem(gomock.Any(), gomock.Any()).Return(&dynamodb.BatchGetItemOutput{
			Responses: map[string][]map[string]types.AttributeValue{"Orders": make([]map[string]types.AttributeValue, 1)},
		}, nil),
		client.EXPECT().BatchGetItem(gomock.Any(), gomock.Any()).Return(&dynamodb.BatchGetItemOutput{
			Responses: map[string][]map[string]types.AttributeValue{"Orders": make([]map[string]types.AttributeValue, 50)},
		}, nil),
	)

	ex := exec.New(client, exec.WithRetryPolicy(fastPolicy()))
	plan := &planner.ExecutionPlan{Strategy: planner.StrategyBatchGetItem, Table: "Orders", PointKeys: keys}

	result, err := ex.Execute(context.Background(), plan)
	require.NoError(t, err)
	require.Equal(t, 150, result.Count)
	require.Equal(t, 3, result.Pages)
}

func TestExecuteRespectsContextCancellationBetweenPages(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	ctx, cancel := context.WithCancel(context.Background())

	firstKey := map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: "a"}}
	// First page succeeds and reports a next page; cancel here to simulate the
	// caller giving up between pages, before the loop fetches the second one.
	client.EXPECT().Query(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			cancel()
			return &dynamodb.QueryOutput{
				Items:            []map[string]types.AttributeValue{{"id": &types.AttributeValueMemberS{Value: "a"}}},
				Count:            1,
				LastEvaluatedKey: firstKey,
			}, nil
		})

	ex := exec.New(client, exec.WithRetryPolicy(fastPolicy()))
	plan := &planner.ExecutionPlan{Strategy: planner.StrategyQuery, Table: "Orders"}

	result, err := ex.Execute(ctx, plan)
	require.Error(t, err)
	require.Equal(t, 1, result.Count)
}

func TestExecuteUpdateItemDirect(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	client.EXPECT().UpdateItem(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			require.Equal(t, "SET qty = :v0", *in.UpdateExpression)
			return &dynamodb.UpdateItemOutput{}, nil
		})

	ex := exec.New(client, exec.WithRetryPolicy(fastPolicy()))
	plan := &planner.ExecutionPlan{
		Strategy: planner.StrategyUpdateItemDirect,
		Table:    "Orders",
		PointKeys: []map[string]ast.Literal{{
			"id": ast.String("a"), "ts": ast.Number("1"),
		}},
		Update: &expr.Compiled{
			Text:   "SET qty = :v0",
			Values: map[string]ast.Literal{":v0": ast.Number("5")},
		},
	}

	result, err := ex.Execute(context.Background(), plan)
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
}

func TestExecuteTwoPhaseUpdateUsesQueryThenUpdatesEachKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	client.EXPECT().Query(gomock.Any(), gomock.Any()).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{
			{"id": &types.AttributeValueMemberS{Value: "a"}, "ts": &types.AttributeValueMemberN{Value: "1"}},
			{"id": &types.AttributeValueMemberS{Value: "a"}, "ts": &types.AttributeValueMemberN{Value: "2"}},
		},
		Count: 2,
	}, nil)
	client.EXPECT().UpdateItem(gomock.Any(), gomock.Any()).Return(&dynamodb.UpdateItemOutput{}, nil).Times(2)

	ex := exec.New(client, exec.WithRetryPolicy(fastPolicy()))
	plan := &planner.ExecutionPlan{
		Strategy:       planner.StrategyTwoPhaseUpdate,
		Table:          "Orders",
		Projection:     []string{"id", "ts"},
		KeyCondition:   &expr.Compiled{Text: "id = :v0", Values: map[string]ast.Literal{":v0": ast.String("a")}},
		Update:         &expr.Compiled{Text: "SET qty = :v1", Values: map[string]ast.Literal{":v1": ast.Number("9")}},
		ProjectionExpr: &expr.Compiled{Text: "id, ts"},
	}

	result, err := ex.Execute(context.Background(), plan)
	require.NoError(t, err)
	require.Equal(t, 2, result.Count)
	require.Equal(t, 1, result.Pages)
}

func TestExecuteTwoPhaseUpdateReportsMatchedOnPartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	client.EXPECT().Query(gomock.Any(), gomock.Any()).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{
			{"id": &types.AttributeValueMemberS{Value: "a"}, "ts": &types.AttributeValueMemberN{Value: "1"}},
			{"id": &types.AttributeValueMemberS{Value: "a"}, "ts": &types.AttributeValueMemberN{Value: "2"}},
			{"id": &types.AttributeValueMemberS{Value: "a"}, "ts": &types.AttributeValueMemberN{Value: "3"}},
		},
		Count: 3,
	}, nil)
	gomock.InOrder(
		client.EXPECT().UpdateItem(gomock.Any(), gomock.Any()).Return(&dynamodb.UpdateItemOutput{}, nil),
		client.EXPECT().UpdateItem(gomock.Any(), gomock.Any()).Return(nil, &types.ValidationException{Message: aws.String("bad update")}),
	)

	ex := exec.New(client, exec.WithRetryPolicy(fastPolicy()))
	plan := &planner.ExecutionPlan{
		Strategy:       planner.StrategyTwoPhaseUpdate,
		Table:          "Orders",
		Projection:     []string{"id", "ts"},
		KeyCondition:   &expr.Compiled{Text: "id = :v0", Values: map[string]ast.Literal{":v0": ast.String("a")}},
		Update:         &expr.Compiled{Text: "SET qty = :v1", Values: map[string]ast.Literal{":v1": ast.Number("9")}},
		ProjectionExpr: &expr.Compiled{Text: "id, ts"},
	}

	result, err := ex.Execute(context.Background(), plan)
	require.Error(t, err)
	require.Equal(t, 1, result.Count)
	require.Equal(t, 3, result.Matched)
}

func TestExecuteTwoPhaseDeleteBatchesDeletes(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	client.EXPECT().Scan(gomock.Any(), gomock.Any()).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{
			{"id": &types.AttributeValueMemberS{Value: "a"}, "ts": &types.AttributeValueMemberN{Value: "1"}},
		},
		Count: 1,
	}, nil)
	client.EXPECT().BatchWriteItem(gomock.Any(), gomock.Any()).Return(&dynamodb.BatchWriteItemOutput{}, nil)

	ex := exec.New(client, exec.WithRetryPolicy(fastPolicy()))
	plan := &planner.ExecutionPlan{
		Strategy:   planner.StrategyTwoPhaseDelete,
		Table:      "Orders",
		Projection: []string{"id", "ts"},
	}

	result, err := ex.Execute(context.Background(), plan)
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
}

func TestExecuteCreateTableIfNotExistsSwallowsResourceInUse(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	client.EXPECT().CreateTable(gomock.Any(), gomock.Any()).Return(nil, &types.ResourceInUseException{Message: aws.String("exists")})

	ex := exec.New(client, exec.WithRetryPolicy(fastPolicy()))
	plan := &planner.ExecutionPlan{
		Strategy: planner.StrategyCreateTable,
		Table:    "Orders",
		DDL: &ast.CreateTable{
			Name:        "Orders",
			IfNotExists: true,
			Attrs: []ast.AttrDecl{
				{Name: "id", Type: ast.TypeString, KeyRole: ast.RoleHash},
			},
			Throughput: &ast.Throughput{PayPerRequest: true},
		},
	}

	_, err := ex.Execute(context.Background(), plan)
	require.NoError(t, err)
}

func TestExecuteCreateTableSurfacesOtherErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	client.EXPECT().CreateTable(gomock.Any(), gomock.Any()).Return(nil, &types.ValidationException{Message: aws.String("bad schema")})

	ex := exec.New(client, exec.WithRetryPolicy(fastPolicy()))
	plan := &planner.ExecutionPlan{
		Strategy: planner.StrategyCreateTable,
		Table:    "Orders",
		DDL: &ast.CreateTable{
			Name: "Orders",
			Attrs: []ast.AttrDecl{
				{Name: "id", Type: ast.TypeString, KeyRole: ast.RoleHash},
			},
			Throughput: &ast.Throughput{PayPerRequest: true},
		},
	}

	_, err := ex.Execute(context.Background(), plan)
	require.Error(t, err)
}

func TestExecuteDeleteTableIfExistsSwallowsResourceNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	client.EXPECT().DeleteTable(gomock.Any(), gomock.Any()).Return(nil, &types.ResourceNotFoundException{Message: aws.String("gone")})

	ex := exec.New(client, exec.WithRetryPolicy(fastPolicy()))
	plan := &planner.ExecutionPlan{
		Strategy: planner.StrategyDeleteTable,
		Table:    "Orders",
		DDL:      &ast.DropTable{Name: "Orders", IfExists: true},
	}

	_, err := ex.Execute(context.Background(), plan)
	require.NoError(t, err)
}
