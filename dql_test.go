package dql_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	dql "github.com/dqlang/dql"
	"github.com/dqlang/dql/mocks"
)

// describeOrdersOutput is the DescribeTable response for a table matching
// spec.md's seed scenarios: HASH id:STRING, RANGE ts:NUMBER.
func describeOrdersOutput() *dynamodb.DescribeTableOutput {
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName: aws.String("Orders"),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String("ts"), KeyType: types.KeyTypeRange},
			},
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
				{AttributeName: aws.String("ts"), AttributeType: types.ScalarAttributeTypeN},
			},
		},
	}
}

func TestEngineRunSelectPointLookup(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	client.EXPECT().DescribeTable(gomock.Any(), gomock.Any()).Return(describeOrdersOutput(), nil)
	client.EXPECT().GetItem(gomock.Any(), gomock.Any()).Return(&dynamodb.GetItemOutput{
		Item: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: "a"},
			"ts": &types.AttributeValueMemberN{Value: "1"},
		},
	}, nil)

	engine := dql.New(client)
	out, err := engine.Run(context.Background(), `SELECT * FROM Orders WHERE id = 'a' AND ts = 1`)
	require.NoError(t, err)
	require.NotNil(t, out.Result)
	require.Equal(t, 1, out.Result.Count)
	require.Len(t, out.Rows, 1)
	require.Equal(t, "a", out.Rows[0]["id"])
}

func TestEngineRunInsertSingleRow(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	client.EXPECT().DescribeTable(gomock.Any(), gomock.Any()).Return(describeOrdersOutput(), nil)
	client.EXPECT().PutItem(gomock.Any(), gomock.Any()).Return(&dynamodb.PutItemOutput{}, nil)

	engine := dql.New(client)
	out, err := engine.Run(context.Background(), `INSERT INTO Orders (id, ts) VALUES ('a', 1)`)
	require.NoError(t, err)
	require.Equal(t, 1, out.Result.Count)
}

func TestEngineRunParseErrorIsLexStage(t *testing.T) {
	engine := dql.New(mocks.NewMockDynamoClient(gomock.NewController(t)))

	_, err := engine.Run(context.Background(), `SELECT * FROM Orders WHERE id = 'unterminated`)
	require.Error(t, err)
	var dqlErr *dql.Error
	require.True(t, errors.As(err, &dqlErr))
	require.Equal(t, dql.StageLex, dqlErr.Stage)
}

func TestEngineRunGrammarErrorIsParseStage(t *testing.T) {
	engine := dql.New(mocks.NewMockDynamoClient(gomock.NewController(t)))

	_, err := engine.Run(context.Background(), `SELECT FROM WHERE`)
	require.Error(t, err)
	var dqlErr *dql.Error
	require.True(t, errors.As(err, &dqlErr))
	require.Equal(t, dql.StageParse, dqlErr.Stage)
}

func TestEngineRunUnknownTableIsSemanticStage(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)
	client.EXPECT().DescribeTable(gomock.Any(), gomock.Any()).Return(nil, &types.ResourceNotFoundException{Message: aws.String("no such table")})

	engine := dql.New(client)
	_, err := engine.Run(context.Background(), `SELECT * FROM Ghost WHERE id = 'a'`)
	require.Error(t, err)
	var dqlErr *dql.Error
	require.True(t, errors.As(err, &dqlErr))
	require.Equal(t, dql.StageSemantic, dqlErr.Stage)
}

func TestEngineRunExplainNeverExecutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)
	client.EXPECT().DescribeTable(gomock.Any(), gomock.Any()).Return(describeOrdersOutput(), nil)
	// No GetItem/Query expectation: EXPLAIN must stop before execution.

	engine := dql.New(client)
	out, err := engine.Run(context.Background(), `EXPLAIN SELECT * FROM Orders WHERE id = 'a' AND ts = 1`)
	require.NoError(t, err)
	require.True(t, out.Explain)
	require.Nil(t, out.Result)
	require.NotNil(t, out.Plan)
}

func TestEngineRunAnalyzeReportsCounters(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)
	client.EXPECT().DescribeTable(gomock.Any(), gomock.Any()).Return(describeOrdersOutput(), nil)
	client.EXPECT().GetItem(gomock.Any(), gomock.Any()).Return(&dynamodb.GetItemOutput{
		Item: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: "a"},
			"ts": &types.AttributeValueMemberN{Value: "1"},
		},
	}, nil)

	engine := dql.New(client)
	out, err := engine.Run(context.Background(), `ANALYZE SELECT * FROM Orders WHERE id = 'a' AND ts = 1`)
	require.NoError(t, err)
	require.NotNil(t, out.Result)
	require.Equal(t, 1, out.Result.Count)
}

func TestEngineRunDumpSchemaRendersCreateTable(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)
	client.EXPECT().DescribeTable(gomock.Any(), gomock.Any()).Return(describeOrdersOutput(), nil)

	engine := dql.New(client)
	out, err := engine.Run(context.Background(), `DUMP SCHEMA Orders`)
	require.NoError(t, err)
	require.Contains(t, out.Text, "CREATE TABLE Orders")
	require.Contains(t, out.Text, "HASH KEY")
}

func TestEngineRunDumpSchemaListsAllTablesWhenNoneNamed(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)
	client.EXPECT().ListTables(gomock.Any(), gomock.Any()).Return(&dynamodb.ListTablesOutput{
		TableNames: []string{"Orders"},
	}, nil)
	client.EXPECT().DescribeTable(gomock.Any(), gomock.Any()).Return(describeOrdersOutput(), nil)

	engine := dql.New(client)
	out, err := engine.Run(context.Background(), `DUMP SCHEMA`)
	require.NoError(t, err)
	require.Contains(t, out.Text, "CREATE TABLE Orders")
}

func TestEngineRunHelpReturnsStaticText(t *testing.T) {
	engine := dql.New(mocks.NewMockDynamoClient(gomock.NewController(t)))
	out, err := engine.Run(context.Background(), `HELP`)
	require.NoError(t, err)
	require.Contains(t, out.Text, "SELECT")
	require.Contains(t, out.Text, "DQL")
}

func TestEngineRunLoadFromStringRunsEachStatementInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)
	// The schema cache populated by the first statement's Describe covers the
	// second statement too, so only one DescribeTable call is expected.
	client.EXPECT().DescribeTable(gomock.Any(), gomock.Any()).Return(describeOrdersOutput(), nil)
	gomock.InOrder(
		client.EXPECT().PutItem(gomock.Any(), gomock.Any()).Return(&dynamodb.PutItemOutput{}, nil),
		client.EXPECT().PutItem(gomock.Any(), gomock.Any()).Return(&dynamodb.PutItemOutput{}, nil),
	)

	engine := dql.New(client)
	out, err := engine.Run(context.Background(),
		`LOAD FROM STRING "INSERT INTO Orders (id, ts) VALUES ('a', 1); INSERT INTO Orders (id, ts) VALUES ('b', 2)"`)
	require.NoError(t, err)
	require.Equal(t, 1, out.Result.Count)
}

func TestEngineRunLoadFromFileIsRejected(t *testing.T) {
	engine := dql.New(mocks.NewMockDynamoClient(gomock.NewController(t)))
	_, err := engine.Run(context.Background(), `LOAD FROM FILE "seed.dql"`)
	require.Error(t, err)
	var dqlErr *dql.Error
	require.True(t, errors.As(err, &dqlErr))
	require.Equal(t, dql.StageExecute, dqlErr.Stage)
}

func TestEngineRunPartialMutationFailureReportsAppliedAndRemaining(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)
	client.EXPECT().DescribeTable(gomock.Any(), gomock.Any()).Return(describeOrdersOutput(), nil)
	client.EXPECT().Query(gomock.Any(), gomock.Any()).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{
			{"id": &types.AttributeValueMemberS{Value: "a"}, "ts": &types.AttributeValueMemberN{Value: "1"}},
			{"id": &types.AttributeValueMemberS{Value: "a"}, "ts": &types.AttributeValueMemberN{Value: "2"}},
		},
		Count: 2,
	}, nil)
	gomock.InOrder(
		client.EXPECT().UpdateItem(gomock.Any(), gomock.Any()).Return(&dynamodb.UpdateItemOutput{}, nil),
		client.EXPECT().UpdateItem(gomock.Any(), gomock.Any()).Return(nil, &types.ValidationException{Message: aws.String("bad update")}),
	)

	engine := dql.New(client)
	out, err := engine.Run(context.Background(), `UPDATE Orders SET qty = 9 WHERE id = 'a'`)
	require.Error(t, err)
	require.NotNil(t, out.Result)
	require.Equal(t, 1, out.Result.Count)

	var dqlErr *dql.Error
	require.True(t, errors.As(err, &dqlErr))
	require.Equal(t, dql.StageExecute, dqlErr.Stage)
	require.Equal(t, 1, dqlErr.Applied)
	require.Equal(t, 1, dqlErr.Remaining)
}

func TestEngineRunInvalidatesSchemaAfterCreateTable(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)
	client.EXPECT().CreateTable(gomock.Any(), gomock.Any()).Return(&dynamodb.CreateTableOutput{}, nil)

	engine := dql.New(client)
	_, err := engine.Run(context.Background(),
		`CREATE TABLE Orders (id STRING HASH KEY, ts NUMBER RANGE KEY, PAY_PER_REQUEST)`)
	require.NoError(t, err)

	// A subsequent SELECT must re-describe rather than serve a stale cache
	// entry, since there was none cached for a table that did not exist yet.
	client.EXPECT().DescribeTable(gomock.Any(), gomock.Any()).Return(describeOrdersOutput(), nil)
	client.EXPECT().GetItem(gomock.Any(), gomock.Any()).Return(&dynamodb.GetItemOutput{}, nil)
	_, err = engine.Run(context.Background(), `SELECT * FROM Orders WHERE id = 'a' AND ts = 1`)
	require.NoError(t, err)
}
