package dynamoadapter

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"

	"github.com/dqlang/dql/ast"
	"github.com/dqlang/dql/exec"
	"github.com/dqlang/dql/schema"
)

// Loader implements schema.Loader over a live DynamoDB client's DescribeTable,
// the authoritative source schema.CachingProvider caches in front of.
type Loader struct {
	client exec.DynamoClient
}

// NewLoader builds a Loader around client.
func NewLoader(client exec.DynamoClient) *Loader {
	return &Loader{client: client}
}

func (l *Loader) Load(ctx context.Context, table string) (*schema.TableSchema, error) {
	out, err := l.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &table})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, schema.ErrNotFound
		}
		return nil, err
	}
	return convertTableDescription(out.Table)
}

// ListTables pages through ListTables until LastEvaluatedTableName comes
// back empty, per the AWS SDK's standard cursor convention.
func (l *Loader) ListTables(ctx context.Context) ([]string, error) {
	var names []string
	var start *string
	for {
		out, err := l.client.ListTables(ctx, &dynamodb.ListTablesInput{ExclusiveStartTableName: start})
		if err != nil {
			return nil, err
		}
		names = append(names, out.TableNames...)
		if out.LastEvaluatedTableName == nil {
			return names, nil
		}
		start = out.LastEvaluatedTableName
	}
}

func scalarTypeOf(t types.ScalarAttributeType) ast.ScalarType {
	switch t {
	case types.ScalarAttributeTypeN:
		return ast.TypeNumber
	case types.ScalarAttributeTypeB:
		return ast.TypeBinary
	default:
		return ast.TypeString
	}
}

func attributeTypes(defs []types.AttributeDefinition) map[string]ast.ScalarType {
	out := make(map[string]ast.ScalarType, len(defs))
	for _, d := range defs {
		out[*d.AttributeName] = scalarTypeOf(d.AttributeType)
	}
	return out
}

func keySchemaOf(ks []types.KeySchemaElement, attrs map[string]ast.ScalarType) (schema.KeySchema, *schema.KeySchema) {
	var hash schema.KeySchema
	var rng *schema.KeySchema
	for _, k := range ks {
		name := *k.AttributeName
		ksch := schema.KeySchema{Name: name, Type: attrs[name]}
		if k.KeyType == types.KeyTypeHash {
			hash = ksch
		} else {
			r := ksch
			rng = &r
		}
	}
	return hash, rng
}

func projectionOf(p *types.Projection) []string {
	if p == nil || p.ProjectionType == types.ProjectionTypeAll {
		return nil
	}
	return p.NonKeyAttributes
}

func convertTableDescription(td *types.TableDescription) (*schema.TableSchema, error) {
	attrs := attributeTypes(td.AttributeDefinitions)
	hash, rng := keySchemaOf(td.KeySchema, attrs)

	ts := &schema.TableSchema{
		Name:       *td.TableName,
		Hash:       hash,
		Range:      rng,
		Attributes: attrs,
	}
	for _, gsi := range td.GlobalSecondaryIndexes {
		h, r := keySchemaOf(gsi.KeySchema, attrs)
		ts.Indexes = append(ts.Indexes, schema.IndexSchema{
			Name:       *gsi.IndexName,
			Kind:       ast.IndexGlobal,
			Hash:       h,
			Range:      r,
			Projection: projectionOf(gsi.Projection),
		})
	}
	for _, lsi := range td.LocalSecondaryIndexes {
		h, r := keySchemaOf(lsi.KeySchema, attrs)
		ts.Indexes = append(ts.Indexes, schema.IndexSchema{
			Name:       *lsi.IndexName,
			Kind:       ast.IndexLocal,
			Hash:       h,
			Range:      r,
			Projection: projectionOf(lsi.Projection),
		})
	}
	return ts, nil
}
