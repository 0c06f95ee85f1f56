package rows_test

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dqlang/dql/mocks"
	"github.com/dqlang/dql/rows"
)

func TestDefaultDecoderRoundTrips(t *testing.T) {
	item := map[string]types.AttributeValue{
		"id":     &types.AttributeValueMemberS{Value: "a"},
		"qty":    &types.AttributeValueMemberN{Value: "3"},
		"active": &types.AttributeValueMemberBOOL{Value: true},
	}

	row, err := rows.DefaultDecoder().Decode(item)
	require.NoError(t, err)
	require.Equal(t, "a", row["id"])
	require.Equal(t, true, row["active"])
}

func TestRowsDecodesEveryItemInOrder(t *testing.T) {
	items := []map[string]types.AttributeValue{
		{"id": &types.AttributeValueMemberS{Value: "a"}},
		{"id": &types.AttributeValueMemberS{Value: "b"}},
	}

	out, err := rows.Rows(rows.DefaultDecoder(), items)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "a", out[0]["id"])
	require.Equal(t, "b", out[1]["id"])
}

func TestRowsAbortsOnFirstDecodeFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	dec := mocks.NewMockDecoder(ctrl)

	items := []map[string]types.AttributeValue{
		{"id": &types.AttributeValueMemberS{Value: "a"}},
		{"id": &types.AttributeValueMemberS{Value: "b"}},
	}
	dec.EXPECT().Decode(items[0]).Return(map[string]any{"id": "a"}, nil)
	dec.EXPECT().Decode(items[1]).Return(nil, errors.New("boom"))

	out, err := rows.Rows(dec, items)
	require.Error(t, err)
	require.Nil(t, out)
}
