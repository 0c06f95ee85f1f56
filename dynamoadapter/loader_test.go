package dynamoadapter_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dqlang/dql/ast"
	"github.com/dqlang/dql/dynamoadapter"
	"github.com/dqlang/dql/mocks"
	"github.com/dqlang/dql/schema"
)

func TestLoaderLoadConvertsTableDescription(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	client.EXPECT().DescribeTable(gomock.Any(), gomock.Any()).Return(&dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName: aws.String("Orders"),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String("ts"), KeyType: types.KeyTypeRange},
			},
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
				{AttributeName: aws.String("ts"), AttributeType: types.ScalarAttributeTypeN},
				{AttributeName: aws.String("user"), AttributeType: types.ScalarAttributeTypeS},
			},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{{
				IndexName: aws.String("by_user"),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("user"), KeyType: types.KeyTypeHash},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			}},
		},
	}, nil)

	loader := dynamoadapter.NewLoader(client)
	ts, err := loader.Load(context.Background(), "Orders")
	require.NoError(t, err)
	require.Equal(t, "Orders", ts.Name)
	require.Equal(t, "id", ts.Hash.Name)
	require.Equal(t, ast.TypeString, ts.Hash.Type)
	require.NotNil(t, ts.Range)
	require.Equal(t, "ts", ts.Range.Name)
	require.Equal(t, ast.TypeNumber, ts.Range.Type)
	require.Len(t, ts.Indexes, 1)
	require.Equal(t, "by_user", ts.Indexes[0].Name)
	require.Equal(t, ast.IndexGlobal, ts.Indexes[0].Kind)
}

func TestLoaderLoadTranslatesResourceNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)
	client.EXPECT().DescribeTable(gomock.Any(), gomock.Any()).Return(nil, &types.ResourceNotFoundException{Message: aws.String("gone")})

	loader := dynamoadapter.NewLoader(client)
	_, err := loader.Load(context.Background(), "Ghost")
	require.ErrorIs(t, err, schema.ErrNotFound)
}

func TestLoaderListTablesPaginates(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDynamoClient(ctrl)

	gomock.InOrder(
		client.EXPECT().ListTables(gomock.Any(), gomock.Any()).Return(&dynamodb.ListTablesOutput{
			TableNames:             []string{"Orders"},
			LastEvaluatedTableName: aws.String("Orders"),
		}, nil),
		client.EXPECT().ListTables(gomock.Any(), gomock.Any()).Return(&dynamodb.ListTablesOutput{
			TableNames: []string{"Users"},
		}, nil),
	)

	loader := dynamoadapter.NewLoader(client)
	names, err := loader.ListTables(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Orders", "Users"}, names)
}
